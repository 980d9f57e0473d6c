package conn

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tobsdb/memdb/internal/query"
	"github.com/tobsdb/memdb/internal/store"
	"github.com/tobsdb/memdb/pkg"
)

type Response struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	// don't manually set this. it comes from the client
	ReqId int `json:"__tdb_client_req_id__"`
}

func NewErrorResponse(status int, err string) Response {
	return Response{Message: err, Status: status}
}

func NewResponse(status int, message string, data any) Response {
	return Response{Data: data, Message: message, Status: status}
}

func (r Response) Marshal() []byte {
	buf, err := json.Marshal(r)
	if err != nil {
		pkg.ErrorLog("marshal response:", err)
		buf, _ = json.Marshal(NewErrorResponse(http.StatusInternalServerError, err.Error()))
	}
	return buf
}

func errorResponse(err error) Response {
	var query_error *query.QueryError
	if errors.As(err, &query_error) {
		return NewErrorResponse(query_error.Status(), query_error.Error())
	}
	return NewErrorResponse(http.StatusBadRequest, err.Error())
}

type ModelRequest struct {
	Model string `json:"model"`
}

func (r ModelRequest) Validate() error {
	if len(r.Model) == 0 {
		return errors.New("Missing model")
	}
	return nil
}

type validator interface{ Validate() error }

func parseRequest(raw []byte, req validator) error {
	if err := json.Unmarshal(raw, req); err != nil {
		return err
	}
	return req.Validate()
}

type CreateRequest struct {
	ModelRequest
	Data store.Record `json:"data"`
}

func CreateReqHandler(s *store.Store, raw []byte) Response {
	var req CreateRequest
	if err := parseRequest(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	res := s.Create(req.Model, req.Data)
	return NewResponse(http.StatusCreated, fmt.Sprintf("Created new row in table %s", req.Model), res)
}

func InsertStrictReqHandler(s *store.Store, raw []byte) Response {
	var req CreateRequest
	if err := parseRequest(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	res, err := s.InsertStrict(req.Model, req.Data)
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusCreated, fmt.Sprintf("Created new row in table %s", req.Model), res)
}

type CreateManyRequest struct {
	ModelRequest
	Data []store.Record `json:"data"`
}

func CreateManyReqHandler(s *store.Store, raw []byte) Response {
	var req CreateManyRequest
	if err := parseRequest(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	res := s.CreateMany(req.Model, req.Data)
	return NewResponse(http.StatusCreated,
		fmt.Sprintf("Created %d new rows in table %s", len(res), req.Model), res)
}

type FindOneRequest struct {
	ModelRequest
	Where query.Where       `json:"where"`
	Join  query.JoinOptions `json:"join"`
}

func FindOneReqHandler(s *store.Store, raw []byte) Response {
	var req FindOneRequest
	if err := parseRequest(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	res := s.FindOne(req.Model, req.Where, req.Join)
	if res == nil {
		return NewErrorResponse(http.StatusNotFound, fmt.Sprintf("No row found in table %s", req.Model))
	}
	return NewResponse(http.StatusOK, fmt.Sprintf("Found row in table %s", req.Model), res)
}

type FindManyRequest struct {
	ModelRequest
	store.FindArgs
}

func FindManyReqHandler(s *store.Store, raw []byte) Response {
	var req FindManyRequest
	if err := parseRequest(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	res := s.FindMany(req.Model, req.FindArgs)
	return NewResponse(http.StatusOK, fmt.Sprintf("Found %d rows in table %s", len(res), req.Model), res)
}

type WhereRequest struct {
	ModelRequest
	Where query.Where `json:"where"`
}

func CountReqHandler(s *store.Store, raw []byte) Response {
	var req WhereRequest
	if err := parseRequest(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	count := s.Count(req.Model, req.Where)
	return NewResponse(http.StatusOK, fmt.Sprintf("Counted %d rows in table %s", count, req.Model), count)
}

func ExistsReqHandler(s *store.Store, raw []byte) Response {
	var req WhereRequest
	if err := parseRequest(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	exists := s.Exists(req.Model, req.Where)
	return NewResponse(http.StatusOK, fmt.Sprintf("Checked table %s", req.Model), exists)
}

type UpdateRequest struct {
	ModelRequest
	Where query.Where  `json:"where"`
	Data  store.Record `json:"data"`
}

func UpdateReqHandler(s *store.Store, raw []byte) Response {
	var req UpdateRequest
	if err := parseRequest(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	res := s.Update(req.Model, req.Where, req.Data)
	if res == nil {
		return NewErrorResponse(http.StatusNotFound, fmt.Sprintf("No row found in table %s", req.Model))
	}
	return NewResponse(http.StatusOK, fmt.Sprintf("Updated row in table %s", req.Model), res)
}

func UpdateManyReqHandler(s *store.Store, raw []byte) Response {
	var req UpdateRequest
	if err := parseRequest(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	count := s.UpdateMany(req.Model, req.Where, req.Data)
	return NewResponse(http.StatusOK, fmt.Sprintf("Updated %d rows in table %s", count, req.Model), count)
}

type UpsertRequest struct {
	ModelRequest
	Where  query.Where  `json:"where"`
	Create store.Record `json:"create"`
	Update store.Record `json:"update"`
}

func UpsertReqHandler(s *store.Store, raw []byte) Response {
	var req UpsertRequest
	if err := parseRequest(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	res := s.Upsert(req.Model, req.Where, req.Create, req.Update)
	return NewResponse(http.StatusOK, fmt.Sprintf("Upserted row in table %s", req.Model), res)
}

func DeleteReqHandler(s *store.Store, raw []byte) Response {
	var req WhereRequest
	if err := parseRequest(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	if !s.Exists(req.Model, req.Where) {
		return NewErrorResponse(http.StatusNotFound, fmt.Sprintf("No row found in table %s", req.Model))
	}
	s.Delete(req.Model, req.Where)
	return NewResponse(http.StatusOK, fmt.Sprintf("Deleted row in table %s", req.Model), nil)
}

func DeleteManyReqHandler(s *store.Store, raw []byte) Response {
	var req WhereRequest
	if err := parseRequest(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	count := s.DeleteMany(req.Model, req.Where)
	return NewResponse(http.StatusOK, fmt.Sprintf("Deleted %d rows in table %s", count, req.Model), count)
}

func ClearReqHandler(s *store.Store, raw []byte) Response {
	var req ModelRequest
	if err := parseRequest(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	count := s.Clear(req.Model)
	return NewResponse(http.StatusOK, fmt.Sprintf("Cleared %d rows from table %s", count, req.Model), count)
}

func StatsReqHandler(s *store.Store) Response {
	return NewResponse(http.StatusOK, "Store stats", s.Stats())
}

// ChangeEvent is pushed to a connection for every batch of changes on a
// table it subscribed to.
type ChangeEvent struct {
	Event        string              `json:"event"`
	Subscription string              `json:"subscription"`
	Model        string              `json:"model"`
	Changes      []store.TableChange `json:"changes"`
}

func SubscribeReqHandler(s *store.Store, ctx *ConnCtx, raw []byte) Response {
	var req ModelRequest
	if err := parseRequest(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	id := uuid.New().String()
	model := req.Model
	unsubscribe := s.Subscribe(model, func(changes []store.TableChange) {
		ctx.Push(ChangeEvent{Event: "change", Subscription: id, Model: model, Changes: changes})
	})
	ctx.subscriptions.Set(id, unsubscribe)

	return NewResponse(http.StatusOK, fmt.Sprintf("Subscribed to table %s", model), map[string]string{"id": id})
}

type UnsubscribeRequest struct {
	Id string `json:"id"`
}

func (r UnsubscribeRequest) Validate() error {
	if len(r.Id) == 0 {
		return errors.New("Missing subscription id")
	}
	return nil
}

func UnsubscribeReqHandler(ctx *ConnCtx, raw []byte) Response {
	var req UnsubscribeRequest
	if err := parseRequest(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	unsubscribe, ok := ctx.subscriptions[req.Id]
	if !ok {
		return NewErrorResponse(http.StatusNotFound, fmt.Sprintf("No subscription with id %s", req.Id))
	}
	unsubscribe()
	ctx.subscriptions.Delete(req.Id)
	return NewResponse(http.StatusOK, fmt.Sprintf("Removed subscription %s", req.Id), nil)
}

func StartTransactionReqHandler(s *store.Store, ctx *ConnCtx) Response {
	if ctx.TxCtx != nil {
		return NewErrorResponse(http.StatusBadRequest,
			fmt.Sprintf("Transaction %s already in progress", ctx.TxCtx.Id()))
	}

	tx, err := s.Begin()
	if err != nil {
		return NewErrorResponse(http.StatusInternalServerError, err.Error())
	}
	ctx.TxCtx = tx
	return NewResponse(http.StatusOK, fmt.Sprintf("Started transaction %s", tx.Id()),
		map[string]string{"id": tx.Id()})
}

func CommitTransactionReqHandler(s *store.Store, ctx *ConnCtx) Response {
	if ctx.TxCtx == nil {
		return NewErrorResponse(http.StatusBadRequest, "No transaction in progress")
	}

	tx := ctx.TxCtx
	ctx.TxCtx = nil
	if err := s.Commit(tx); err != nil {
		return NewErrorResponse(http.StatusInternalServerError, err.Error())
	}
	return NewResponse(http.StatusOK, fmt.Sprintf("Committed transaction %s", tx.Id()), nil)
}

func RollbackTransactionReqHandler(s *store.Store, ctx *ConnCtx) Response {
	if ctx.TxCtx == nil {
		return NewErrorResponse(http.StatusBadRequest, "No transaction in progress")
	}

	tx := ctx.TxCtx
	ctx.TxCtx = nil
	if err := s.Rollback(tx); err != nil {
		return NewErrorResponse(http.StatusInternalServerError, err.Error())
	}
	return NewResponse(http.StatusOK, fmt.Sprintf("Rolled back transaction %s", tx.Id()), nil)
}
