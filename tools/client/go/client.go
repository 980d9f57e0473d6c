// Package client is the Go client for a tdb-mem server.
//
// Usage:
//
// generate record types from a schema
//
//	tdb-mem generate --lang go --schema ./schema.tdb --out ./tdb/schema/types.go
//
// create a client and connect
//
//	tdb, err := client.NewTdbClient("ws://localhost:7085", client.TdbClientOptions{})
//	err = tdb.Connect()
//
// make requests with the generated types
//
//	res, err := tdb.Create(schema.ExampleModel, schema.Example{Field: "value"})
//
// and decode the response
//
//	var row schema.Example
//	err = res.Decode(&row)
package client

import (
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/goccy/go-json"
	ws "github.com/gorilla/websocket"
	"github.com/tobsdb/memdb/pkg"
)

var ErrNotConnected = errors.New("Not connected")

type (
	TdbClientOptions struct {
		Username string
		Password string
	}

	// Tobsdb memory store client. Requests may be made from any goroutine.
	//
	// Unless you know what you're doing, you probably want to use
	// the `NewTdbClient` function instead.
	TdbClient struct {
		// The websocket connection used by the client
		conn *ws.Conn
		// The formatted connection url of the server
		Url *url.URL

		write_lock sync.Mutex

		// guards everything below
		locker        sync.Mutex
		next_id       int
		pending       map[int]*pendingRequest
		subscriptions map[string]func([]Change)
		err           error
	}

	pendingRequest struct {
		reply chan TdbResponse
		// runs on the read loop before any later message is handled
		hook func(TdbResponse)
	}
)

func NewTdbClient(urlStr string, options TdbClientOptions) (*TdbClient, error) {
	Url, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	if len(options.Username) > 0 || len(options.Password) > 0 {
		q := Url.Query()
		q.Set("username", options.Username)
		q.Set("password", options.Password)
		Url.RawQuery = q.Encode()
	}

	return &TdbClient{
		Url:           Url,
		pending:       map[int]*pendingRequest{},
		subscriptions: map[string]func([]Change){},
	}, nil
}

func (c *TdbClient) Connect() error {
	c.locker.Lock()
	defer c.locker.Unlock()
	if c.conn != nil {
		return nil
	}

	conn, res, err := ws.DefaultDialer.Dial(c.Url.String(), nil)
	if err != nil {
		if res != nil {
			return fmt.Errorf("TDB Error: %s (%d)", err, res.StatusCode)
		}
		return err
	}

	pkg.InfoLog("Connected to TDB Server")
	c.conn = conn
	c.err = nil
	go c.readLoop(conn)
	return nil
}

func (c *TdbClient) Disconnect() error {
	c.locker.Lock()
	conn := c.conn
	c.locker.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.write_lock.Lock()
	err := conn.WriteMessage(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, "Disconnect"))
	c.write_lock.Unlock()
	if err != nil {
		pkg.ErrorLog(err.Error())
	}

	if err := conn.Close(); err != nil {
		pkg.ErrorLog(err.Error())
		return err
	}
	pkg.InfoLog("Disconnected from TDB Server")
	return nil
}

func (c *TdbClient) readLoop(conn *ws.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			c.fail(conn, err)
			return
		}

		var peek struct {
			Event string `json:"event"`
		}
		if err := json.Unmarshal(message, &peek); err != nil {
			pkg.ErrorLog("bad message from server:", err)
			continue
		}

		if len(peek.Event) > 0 {
			c.dispatchEvent(message)
			continue
		}

		var res TdbResponse
		if err := json.Unmarshal(message, &res); err != nil {
			pkg.ErrorLog("bad response from server:", err)
			continue
		}

		c.locker.Lock()
		req := c.pending[res.RequestId]
		delete(c.pending, res.RequestId)
		c.locker.Unlock()

		if req == nil {
			pkg.WarnLog("response for unknown request", res.RequestId)
			continue
		}
		if req.hook != nil {
			req.hook(res)
		}
		req.reply <- res
	}
}

// fail ends every waiting request once the connection is gone.
func (c *TdbClient) fail(conn *ws.Conn, err error) {
	c.locker.Lock()
	defer c.locker.Unlock()
	if c.conn != conn {
		return
	}
	pkg.DebugLog("connection closed", err)
	c.conn = nil
	c.err = err
	for id, req := range c.pending {
		close(req.reply)
		delete(c.pending, id)
	}
	c.subscriptions = map[string]func([]Change){}
}

func (c *TdbClient) dispatchEvent(message []byte) {
	var event changeEvent
	if err := json.Unmarshal(message, &event); err != nil {
		pkg.ErrorLog("bad event from server:", err)
		return
	}

	c.locker.Lock()
	fn := c.subscriptions[event.Subscription]
	c.locker.Unlock()
	if fn != nil {
		fn(event.Changes)
	}
}

func (c *TdbClient) request(action queryAction, body map[string]any, hook func(TdbResponse)) (TdbResponse, error) {
	c.locker.Lock()
	conn := c.conn
	if conn == nil {
		c.locker.Unlock()
		return TdbResponse{}, ErrNotConnected
	}
	c.next_id++
	id := c.next_id
	req := &pendingRequest{reply: make(chan TdbResponse, 1), hook: hook}
	c.pending[id] = req
	c.locker.Unlock()

	if body == nil {
		body = map[string]any{}
	}
	body["action"] = action
	body["__tdb_client_req_id__"] = id
	buf, err := json.Marshal(body)
	if err == nil {
		c.write_lock.Lock()
		err = conn.WriteMessage(ws.TextMessage, buf)
		c.write_lock.Unlock()
	}
	if err != nil {
		c.locker.Lock()
		delete(c.pending, id)
		c.locker.Unlock()
		return TdbResponse{}, err
	}

	res, ok := <-req.reply
	if !ok {
		c.locker.Lock()
		err := c.err
		c.locker.Unlock()
		return TdbResponse{}, fmt.Errorf("connection closed: %w", err)
	}
	if res.Status >= 400 {
		return res, &TdbError{Status: res.Status, Message: res.Message}
	}
	return res, nil
}
