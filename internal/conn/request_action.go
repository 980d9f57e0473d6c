package conn

import (
	"fmt"
	"net/http"

	"github.com/tobsdb/memdb/internal/auth"
)

type RequestAction string

const (
	// record actions
	RequestActionCreate       RequestAction = "create"
	RequestActionCreateMany   RequestAction = "createMany"
	RequestActionInsertStrict RequestAction = "insertStrict"
	RequestActionFindOne      RequestAction = "findOne"
	RequestActionFindMany     RequestAction = "findMany"
	RequestActionCount        RequestAction = "count"
	RequestActionExists       RequestAction = "exists"
	RequestActionUpdate       RequestAction = "update"
	RequestActionUpdateMany   RequestAction = "updateMany"
	RequestActionUpsert       RequestAction = "upsert"
	RequestActionDelete       RequestAction = "delete"
	RequestActionDeleteMany   RequestAction = "deleteMany"
	RequestActionClear        RequestAction = "clear"

	RequestActionStats RequestAction = "stats"

	// change streams
	RequestActionSubscribe   RequestAction = "subscribe"
	RequestActionUnsubscribe RequestAction = "unsubscribe"

	// transaction actions
	RequestActionTransaction RequestAction = "transaction"
	RequestActionCommit      RequestAction = "commit"
	RequestActionRollback    RequestAction = "rollback"
)

func (action RequestAction) IsReadOnly() bool {
	switch action {
	case RequestActionFindOne, RequestActionFindMany, RequestActionCount, RequestActionExists,
		RequestActionStats, RequestActionSubscribe, RequestActionUnsubscribe:
		return true
	default:
		return false
	}
}

// ActionHandler runs one request. The caller holds the server lock.
func ActionHandler(srv *Server, action RequestAction, ctx *ConnCtx, raw []byte) Response {
	clearance := auth.TdbUserRoleReadWrite
	if action.IsReadOnly() {
		clearance = auth.TdbUserRoleReadOnly
	}
	if !ctx.User.HasClearance(clearance) {
		return NewErrorResponse(http.StatusForbidden, auth.InsufficientPermissions.Error())
	}

	s := srv.Store
	switch action {
	case RequestActionCreate:
		return CreateReqHandler(s, raw)
	case RequestActionCreateMany:
		return CreateManyReqHandler(s, raw)
	case RequestActionInsertStrict:
		return InsertStrictReqHandler(s, raw)
	case RequestActionFindOne:
		return FindOneReqHandler(s, raw)
	case RequestActionFindMany:
		return FindManyReqHandler(s, raw)
	case RequestActionCount:
		return CountReqHandler(s, raw)
	case RequestActionExists:
		return ExistsReqHandler(s, raw)
	case RequestActionUpdate:
		return UpdateReqHandler(s, raw)
	case RequestActionUpdateMany:
		return UpdateManyReqHandler(s, raw)
	case RequestActionUpsert:
		return UpsertReqHandler(s, raw)
	case RequestActionDelete:
		return DeleteReqHandler(s, raw)
	case RequestActionDeleteMany:
		return DeleteManyReqHandler(s, raw)
	case RequestActionClear:
		return ClearReqHandler(s, raw)
	case RequestActionStats:
		return StatsReqHandler(s)
	case RequestActionSubscribe:
		return SubscribeReqHandler(s, ctx, raw)
	case RequestActionUnsubscribe:
		return UnsubscribeReqHandler(ctx, raw)
	case RequestActionTransaction:
		return StartTransactionReqHandler(s, ctx)
	case RequestActionCommit:
		return CommitTransactionReqHandler(s, ctx)
	case RequestActionRollback:
		return RollbackTransactionReqHandler(s, ctx)
	default:
		return NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("unknown action: %s", action))
	}
}
