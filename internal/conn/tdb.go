package conn

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tobsdb/memdb/internal/auth"
	"github.com/tobsdb/memdb/internal/store"
	"github.com/tobsdb/memdb/pkg"
)

var Upgrader = websocket.Upgrader{
	WriteBufferSize: 1024 * 10,
	ReadBufferSize:  1024 * 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WsRequest struct {
	Action RequestAction `json:"action"`
	ReqId  int           `json:"__tdb_client_req_id__"`
}

// DefaultTxTimeout is how long a connection may stay silent inside a
// transaction before it is rolled back and the connection closed.
const DefaultTxTimeout = 30 * time.Second

// Server exposes a store to websocket clients.
type Server struct {
	locker sync.RWMutex
	Store  *store.Store
	Users  *auth.Users
	// idle limit for open transactions, <= 0 for none
	TxTimeout time.Duration
}

func NewServer(s *store.Store, users *auth.Users) *Server {
	if users == nil {
		users = auth.NewUsers()
	}
	return &Server{Store: s, Users: users, TxTimeout: DefaultTxTimeout}
}

func (srv *Server) GetLocker() *sync.RWMutex { return &srv.locker }

func (srv *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", srv.HandleConnection)
	return mux
}

// Listen serves until SIGINT or SIGTERM.
func (srv *Server) Listen(port int) {
	exit := make(chan os.Signal, 2)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	s := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      srv.Handler(),
		ReadTimeout:  0,
		WriteTimeout: 0,
	}

	go func() {
		err := s.ListenAndServe()
		if err != http.ErrServerClosed {
			pkg.FatalLog(err)
		}
	}()

	pkg.InfoLog("TobsDB memory store listening on port", port)
	<-exit
	pkg.DebugLog("Shutting down...")
	s.Shutdown(context.Background())
}

func HttpError(w http.ResponseWriter, status int, err string) {
	pkg.InfoLog("http error:", err)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(NewErrorResponse(status, err))
}

// credentials come from the auth query param ("user:pass"), the username
// and password query params, or the Authorization header.
func credentials(r *http.Request) (string, string) {
	url_query := r.URL.Query()
	var conn_auth string
	if url_query.Has("auth") {
		conn_auth = url_query.Get("auth")
	} else if url_query.Has("username") || url_query.Has("password") {
		return url_query.Get("username"), url_query.Get("password")
	} else if name, password, ok := r.BasicAuth(); ok {
		return name, password
	} else {
		conn_auth = r.Header.Get("Authorization")
	}
	name, password, _ := strings.Cut(conn_auth, ":")
	return name, password
}

func (srv *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	user, err := srv.Users.Authenticate(credentials(r))
	if err != nil {
		HttpError(w, http.StatusUnauthorized, "connection unauthorized")
		return
	}

	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		pkg.ErrorLog(err)
		return
	}
	pkg.Logger().Infow("New connection established", "user", user.Name, "role", user.Role.String())
	defer conn.Close()

	ctx := NewConnCtx(conn, user)
	defer srv.release(ctx)

	for {
		// an open transaction holds the server lock, so its owner may not idle
		if ctx.TxCtx != nil && srv.TxTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(srv.TxTimeout))
		} else {
			conn.SetReadDeadline(time.Time{})
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			var net_err net.Error
			if ctx.TxCtx != nil && errors.As(err, &net_err) && net_err.Timeout() {
				pkg.WarnLog("transaction timed out", ctx.TxCtx.Id())
				ctx.Close(websocket.ClosePolicyViolation, "transaction timed out")
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				pkg.ErrorLog("unexpected close", err)
			} else {
				pkg.DebugLog("connection closed", err)
			}
			return
		}

		var req WsRequest
		if err := json.Unmarshal(message, &req); err != nil {
			err = ctx.WriteResponse(NewErrorResponse(http.StatusBadRequest, err.Error()))
			if err != nil {
				pkg.ErrorLog("writing response", err)
				return
			}
			continue
		}

		if err := srv.serve(ctx, req, message); err != nil {
			pkg.ErrorLog("writing response", err)
			return
		}
	}
}

// serve runs one request under the server lock and writes the reply before
// letting go of it, so change events from later requests always come after
// the reply. Every action takes the write lock since reads move records in
// the lru order. An open transaction owns the lock from the moment it starts
// until commit or rollback.
func (srv *Server) serve(ctx *ConnCtx, req WsRequest, raw []byte) error {
	if ctx.TxCtx == nil {
		srv.GetLocker().Lock()
	}
	defer func() {
		if ctx.TxCtx == nil {
			srv.GetLocker().Unlock()
		}
	}()

	res := ActionHandler(srv, req.Action, ctx, raw)
	res.ReqId = req.ReqId
	return ctx.WriteResponse(res)
}

// release drops everything a closed connection still holds: its open
// transaction is rolled back and its subscriptions removed.
func (srv *Server) release(ctx *ConnCtx) {
	if ctx.TxCtx == nil {
		srv.GetLocker().Lock()
	}
	defer srv.GetLocker().Unlock()

	if ctx.TxCtx != nil {
		pkg.WarnLog("connection closed during transaction", ctx.TxCtx.Id())
		srv.Store.Rollback(ctx.TxCtx)
		ctx.TxCtx = nil
	}
	for id, unsubscribe := range ctx.subscriptions {
		unsubscribe()
		ctx.subscriptions.Delete(id)
	}
}
