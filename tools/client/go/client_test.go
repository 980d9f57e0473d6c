package client_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tobsdb/memdb/internal/auth"
	"github.com/tobsdb/memdb/internal/conn"
	"github.com/tobsdb/memdb/internal/store"
	client "github.com/tobsdb/memdb/tools/client/go"
	"gotest.tools/assert"
)

type example struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
}

func newTestClient(t *testing.T, users *auth.Users, options client.TdbClientOptions) (*client.TdbClient, error) {
	srv := conn.NewServer(store.New(store.Options{}), users)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	tdb, err := client.NewTdbClient("ws"+strings.TrimPrefix(ts.URL, "http"), options)
	assert.NilError(t, err)
	if err := tdb.Connect(); err != nil {
		return nil, err
	}
	t.Cleanup(func() { tdb.Disconnect() })
	return tdb, nil
}

func TestNewTdbClient(t *testing.T) {
	tdb, err := client.NewTdbClient("ws://localhost:7085", client.TdbClientOptions{
		Username: "user",
		Password: "pass",
	})
	assert.NilError(t, err)
	assert.Assert(t, strings.HasPrefix(tdb.Url.String(), "ws://localhost:7085"))
	assert.Assert(t, strings.Contains(tdb.Url.String(), "username=user"))

	_, err = tdb.Create("a", map[string]any{"id": 1})
	assert.Equal(t, err, client.ErrNotConnected)
}

func TestAuth(t *testing.T) {
	users := auth.NewUsers()
	users.Add("user", "pass", auth.TdbUserRoleAdmin)

	_, err := newTestClient(t, users, client.TdbClientOptions{Username: "user", Password: "nope"})
	assert.ErrorContains(t, err, "401")

	_, err = newTestClient(t, users, client.TdbClientOptions{Username: "user", Password: "pass"})
	assert.NilError(t, err)
}

func TestRequests(t *testing.T) {
	tdb, err := newTestClient(t, nil, client.TdbClientOptions{})
	assert.NilError(t, err)

	res, err := tdb.Create("example", example{Id: 1, Name: "Hello world"})
	assert.NilError(t, err)
	var row example
	assert.NilError(t, res.Decode(&row))
	assert.Equal(t, row, example{Id: 1, Name: "Hello world"})

	_, err = tdb.CreateMany("example", []example{{2, "b"}, {3, "c"}})
	assert.NilError(t, err)

	_, err = tdb.InsertStrict("example", example{Id: 1})
	var tdb_err *client.TdbError
	assert.Assert(t, errors.As(err, &tdb_err))
	assert.Equal(t, tdb_err.Status, http.StatusConflict)

	count, err := tdb.Count("example", nil)
	assert.NilError(t, err)
	assert.Equal(t, count, 3)

	exists, err := tdb.Exists("example", client.Where{client.Eq("name", "c")})
	assert.NilError(t, err)
	assert.Assert(t, exists)

	res, err = tdb.FindMany("example", client.FindArgs{
		SortBy: &client.SortBy{Field: "id", Direction: "desc"},
		Limit:  2,
	})
	assert.NilError(t, err)
	var rows []example
	assert.NilError(t, res.Decode(&rows))
	assert.DeepEqual(t, rows, []example{{3, "c"}, {2, "b"}})

	res, err = tdb.Update("example", client.Where{client.Eq("id", 2)}, map[string]any{"name": "bb"})
	assert.NilError(t, err)
	assert.NilError(t, res.Decode(&row))
	assert.Equal(t, row.Name, "bb")

	_, err = tdb.FindOne("example", client.Where{client.Eq("id", 99)}, nil)
	assert.Assert(t, errors.As(err, &tdb_err))
	assert.Equal(t, tdb_err.Status, http.StatusNotFound)

	_, err = tdb.DeleteMany("example", client.Where{{Field: "id", Operator: "gt", Value: 1}})
	assert.NilError(t, err)
	count, _ = tdb.Count("example", nil)
	assert.Equal(t, count, 1)
}

func TestSubscribe(t *testing.T) {
	tdb, err := newTestClient(t, nil, client.TdbClientOptions{})
	assert.NilError(t, err)

	changes := make(chan []client.Change, 4)
	unsubscribe, err := tdb.Subscribe("example", func(c []client.Change) { changes <- c })
	assert.NilError(t, err)

	_, err = tdb.Create("example", example{Id: 1, Name: "a"})
	assert.NilError(t, err)

	select {
	case c := <-changes:
		assert.Equal(t, len(c), 1)
		assert.Equal(t, c[0].Type, "insert")
		assert.Equal(t, c[0].Data["name"], "a")
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}

	assert.NilError(t, unsubscribe())
	_, err = tdb.Create("example", example{Id: 2, Name: "b"})
	assert.NilError(t, err)
	// the event would have arrived before the reply
	assert.Equal(t, len(changes), 0)
}

func TestTransaction(t *testing.T) {
	tdb, err := newTestClient(t, nil, client.TdbClientOptions{})
	assert.NilError(t, err)

	fail := errors.New("fail")
	err = tdb.Transaction(func() error {
		if _, err := tdb.Create("example", example{Id: 1}); err != nil {
			return err
		}
		return fail
	})
	assert.Equal(t, err, fail)

	count, err := tdb.Count("example", nil)
	assert.NilError(t, err)
	assert.Equal(t, count, 0)

	err = tdb.Transaction(func() error {
		_, err := tdb.Create("example", example{Id: 1})
		return err
	})
	assert.NilError(t, err)
	count, _ = tdb.Count("example", nil)
	assert.Equal(t, count, 1)
}
