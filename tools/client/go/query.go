package client

import (
	"fmt"

	"github.com/goccy/go-json"
)

type queryAction string

const (
	queryActionCreate       queryAction = "create"
	queryActionCreateMany   queryAction = "createMany"
	queryActionInsertStrict queryAction = "insertStrict"
	queryActionFindOne      queryAction = "findOne"
	queryActionFindMany     queryAction = "findMany"
	queryActionCount        queryAction = "count"
	queryActionExists       queryAction = "exists"
	queryActionUpdate       queryAction = "update"
	queryActionUpdateMany   queryAction = "updateMany"
	queryActionUpsert       queryAction = "upsert"
	queryActionDelete       queryAction = "delete"
	queryActionDeleteMany   queryAction = "deleteMany"
	queryActionClear        queryAction = "clear"
	queryActionStats        queryAction = "stats"
	queryActionSubscribe    queryAction = "subscribe"
	queryActionUnsubscribe  queryAction = "unsubscribe"
	queryActionTransaction  queryAction = "transaction"
	queryActionCommit       queryAction = "commit"
	queryActionRollback     queryAction = "rollback"
)

type TdbResponse struct {
	Status    int             `json:"status"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestId int             `json:"__tdb_client_req_id__"`
}

// Decode unmarshals the response data into v.
func (r TdbResponse) Decode(v any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// TdbError is a response the server answered with a failing status.
type TdbError struct {
	Status  int
	Message string
}

func (e *TdbError) Error() string { return fmt.Sprintf("TDB Error %d: %s", e.Status, e.Message) }

// WhereClause is one link of a filter chain. The operator defaults to eq
// and the connector to AND.
type WhereClause struct {
	Field     string `json:"field"`
	Operator  string `json:"operator,omitempty"`
	Value     any    `json:"value"`
	Connector string `json:"connector,omitempty"`
}

type Where []WhereClause

func Eq(field string, value any) WhereClause { return WhereClause{Field: field, Value: value} }

type SortBy struct {
	Field     string `json:"field"`
	Direction string `json:"direction,omitempty"`
}

type JoinConfig struct {
	On struct {
		From string `json:"from,omitempty"`
		To   string `json:"to,omitempty"`
	} `json:"on"`
	Relation string `json:"relation,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type FindArgs struct {
	Where  Where                 `json:"where,omitempty"`
	SortBy *SortBy               `json:"sortBy,omitempty"`
	Limit  int                   `json:"limit,omitempty"`
	Offset int                   `json:"offset,omitempty"`
	Join   map[string]JoinConfig `json:"join,omitempty"`
}

type Change struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

type changeEvent struct {
	Event        string   `json:"event"`
	Subscription string   `json:"subscription"`
	Model        string   `json:"model"`
	Changes      []Change `json:"changes"`
}

func (c *TdbClient) query(action queryAction, model string, body map[string]any) (TdbResponse, error) {
	if body == nil {
		body = map[string]any{}
	}
	body["model"] = model
	return c.request(action, body, nil)
}

func (c *TdbClient) Create(model string, data any) (TdbResponse, error) {
	return c.query(queryActionCreate, model, map[string]any{"data": data})
}

func (c *TdbClient) CreateMany(model string, data any) (TdbResponse, error) {
	return c.query(queryActionCreateMany, model, map[string]any{"data": data})
}

func (c *TdbClient) InsertStrict(model string, data any) (TdbResponse, error) {
	return c.query(queryActionInsertStrict, model, map[string]any{"data": data})
}

func (c *TdbClient) FindOne(model string, where Where, join map[string]JoinConfig) (TdbResponse, error) {
	return c.query(queryActionFindOne, model, map[string]any{"where": where, "join": join})
}

func (c *TdbClient) FindMany(model string, args FindArgs) (TdbResponse, error) {
	return c.query(queryActionFindMany, model, map[string]any{
		"where":  args.Where,
		"sortBy": args.SortBy,
		"limit":  args.Limit,
		"offset": args.Offset,
		"join":   args.Join,
	})
}

func (c *TdbClient) Count(model string, where Where) (int, error) {
	var count int
	res, err := c.query(queryActionCount, model, map[string]any{"where": where})
	if err != nil {
		return 0, err
	}
	err = res.Decode(&count)
	return count, err
}

func (c *TdbClient) Exists(model string, where Where) (bool, error) {
	var exists bool
	res, err := c.query(queryActionExists, model, map[string]any{"where": where})
	if err != nil {
		return false, err
	}
	err = res.Decode(&exists)
	return exists, err
}

func (c *TdbClient) Update(model string, where Where, data any) (TdbResponse, error) {
	return c.query(queryActionUpdate, model, map[string]any{"where": where, "data": data})
}

func (c *TdbClient) UpdateMany(model string, where Where, data any) (TdbResponse, error) {
	return c.query(queryActionUpdateMany, model, map[string]any{"where": where, "data": data})
}

func (c *TdbClient) Upsert(model string, where Where, create, update any) (TdbResponse, error) {
	return c.query(queryActionUpsert, model, map[string]any{"where": where, "create": create, "update": update})
}

func (c *TdbClient) Delete(model string, where Where) (TdbResponse, error) {
	return c.query(queryActionDelete, model, map[string]any{"where": where})
}

func (c *TdbClient) DeleteMany(model string, where Where) (TdbResponse, error) {
	return c.query(queryActionDeleteMany, model, map[string]any{"where": where})
}

func (c *TdbClient) Clear(model string) (TdbResponse, error) {
	return c.query(queryActionClear, model, nil)
}

func (c *TdbClient) Stats() (TdbResponse, error) {
	return c.request(queryActionStats, nil, nil)
}

// Subscribe calls fn with every batch of changes to model. fn runs on the
// client's read loop: requests made from inside it must happen in another
// goroutine.
func (c *TdbClient) Subscribe(model string, fn func([]Change)) (unsubscribe func() error, err error) {
	var id string
	_, err = c.request(queryActionSubscribe, map[string]any{"model": model}, func(res TdbResponse) {
		var data struct {
			Id string `json:"id"`
		}
		if res.Status >= 400 || res.Decode(&data) != nil {
			return
		}
		id = data.Id
		c.locker.Lock()
		c.subscriptions[id] = fn
		c.locker.Unlock()
	})
	if err != nil {
		return nil, err
	}

	return func() error {
		c.locker.Lock()
		delete(c.subscriptions, id)
		c.locker.Unlock()
		_, err := c.request(queryActionUnsubscribe, map[string]any{"id": id}, nil)
		return err
	}, nil
}

func (c *TdbClient) Begin() error {
	_, err := c.request(queryActionTransaction, nil, nil)
	return err
}

func (c *TdbClient) Commit() error {
	_, err := c.request(queryActionCommit, nil, nil)
	return err
}

func (c *TdbClient) Rollback() error {
	_, err := c.request(queryActionRollback, nil, nil)
	return err
}

// Transaction runs fn inside a server transaction, committing when fn
// succeeds and rolling back otherwise. The server holds every other client
// off until it ends.
func (c *TdbClient) Transaction(fn func() error) error {
	if err := c.Begin(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if rollback_err := c.Rollback(); rollback_err != nil {
			return fmt.Errorf("%w; rollback failed: %s", err, rollback_err)
		}
		return err
	}
	return c.Commit()
}
