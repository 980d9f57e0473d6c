package transaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tobsdb/memdb/internal/builder"
)

// TransactionCtx holds the snapshot a transaction rolls back to. Writes
// made while it is open go straight to the live tables.
type TransactionCtx struct {
	Snapshot *builder.Snapshot
	id       uuid.UUID

	startTime time.Time
	Done      bool
}

func NewTransactionCtx(db *builder.DB) (*TransactionCtx, error) {
	snap, err := db.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("taking snapshot: %w", err)
	}
	return &TransactionCtx{snap, uuid.Must(uuid.NewV7()), time.Now(), false}, nil
}

func (ctx *TransactionCtx) Id() string { return ctx.id.String() }

func (ctx *TransactionCtx) Age() time.Duration { return time.Since(ctx.startTime) }

// Commit keeps every change made since the snapshot was taken.
func (ctx *TransactionCtx) Commit() error {
	if ctx.Done {
		return fmt.Errorf("Transaction %s already finished", ctx.Id())
	}
	ctx.Done = true
	ctx.Snapshot = nil
	return nil
}

// Rollback restores db to the snapshot.
func (ctx *TransactionCtx) Rollback(db *builder.DB) error {
	if ctx.Done {
		return fmt.Errorf("Transaction %s already finished", ctx.Id())
	}
	ctx.Done = true
	err := db.Restore(ctx.Snapshot)
	ctx.Snapshot = nil
	return err
}
