package conn

import (
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/tobsdb/memdb/internal/auth"
	"github.com/tobsdb/memdb/internal/transaction"
	"github.com/tobsdb/memdb/pkg"
)

var errConnClosed = errors.New("connection closed")

// ConnCtx is the state of one websocket client. Everything but the write
// lock is guarded by the server lock.
type ConnCtx struct {
	conn       *websocket.Conn
	write_lock sync.Mutex

	User  *auth.TdbUser
	TxCtx *transaction.TransactionCtx

	// subscription id -> unsubscribe
	subscriptions pkg.Map[string, func()]
}

func NewConnCtx(c *websocket.Conn, user *auth.TdbUser) *ConnCtx {
	return &ConnCtx{conn: c, User: user, subscriptions: pkg.Map[string, func()]{}}
}

func (ctx *ConnCtx) Subscriptions() []string { return ctx.subscriptions.Keys() }

func (ctx *ConnCtx) Write(buf []byte) error {
	ctx.write_lock.Lock()
	defer ctx.write_lock.Unlock()
	if ctx.conn == nil {
		return errConnClosed
	}
	return ctx.conn.WriteMessage(websocket.TextMessage, buf)
}

func (ctx *ConnCtx) WriteResponse(r Response) error { return ctx.Write(r.Marshal()) }

// Push sends an unrequested message. Failures are logged; the read loop
// notices a dead connection on its own.
func (ctx *ConnCtx) Push(v any) {
	buf, err := json.Marshal(v)
	if err != nil {
		pkg.ErrorLog("marshal push message:", err)
		return
	}
	if err := ctx.Write(buf); err != nil {
		pkg.DebugLog("push failed:", err)
	}
}

// Close sends a close frame with code and reason.
func (ctx *ConnCtx) Close(code int, reason string) {
	if ctx.conn == nil {
		return
	}
	err := ctx.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
	if err != nil {
		pkg.DebugLog("close failed:", err)
	}
}
