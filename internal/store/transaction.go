package store

import (
	"github.com/tobsdb/memdb/internal/metrics"
	"github.com/tobsdb/memdb/internal/transaction"
	"github.com/tobsdb/memdb/pkg"
)

// Transaction runs fn against the live store. If fn returns an error or
// panics, every table is put back the way it was before fn ran; the error
// is returned unchanged and a panic is re-raised. Subscribers are not told
// about a rollback.
func (s *Store) Transaction(fn func(*Store) error) error {
	ctx, err := s.Begin()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			s.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(s); err != nil {
		s.Rollback(ctx)
		return err
	}
	return s.Commit(ctx)
}

// InTransaction is Transaction for functions that produce a value. On
// failure the zero value is returned.
func InTransaction[T any](s *Store, fn func(*Store) (T, error)) (T, error) {
	var result T
	err := s.Transaction(func(s *Store) error {
		var err error
		result, err = fn(s)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Begin snapshots every table. The caller ends it with Commit or Rollback.
func (s *Store) Begin() (*transaction.TransactionCtx, error) {
	ctx, err := transaction.NewTransactionCtx(s.db)
	if err != nil {
		return nil, err
	}
	pkg.DebugLog("begin transaction", ctx.Id())
	return ctx, nil
}

func (s *Store) Commit(ctx *transaction.TransactionCtx) error {
	pkg.DebugLog("commit transaction", ctx.Id(), "after", ctx.Age())
	return ctx.Commit()
}

func (s *Store) Rollback(ctx *transaction.TransactionCtx) error {
	metrics.TransactionRollbacks.Inc()
	pkg.DebugLog("rollback transaction", ctx.Id(), "after", ctx.Age())
	if err := ctx.Rollback(s.db); err != nil {
		pkg.ErrorLog("rollback of transaction", ctx.Id(), "failed:", err)
		return err
	}
	return nil
}
