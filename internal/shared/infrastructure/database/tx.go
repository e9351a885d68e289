package database

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned when Commit or Rollback find no transaction.
var ErrNoTransaction = errors.New("no transaction in context")

type txKey struct{}

type txState struct {
	tx    Transaction
	owned bool
}

// WithTx stores tx in ctx. Only the owner commits or rolls it back.
func WithTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, txState{tx: tx, owned: owned})
}

// TxFromContext returns the transaction stored in ctx, or nil.
func TxFromContext(ctx context.Context) Transaction {
	state, _ := ctx.Value(txKey{}).(txState)
	return state.tx
}

// ExecutorFromContext returns the active transaction or falls back to conn.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}

// UnitOfWork implements application.UnitOfWork on a Connection. Nested
// units join the outer transaction.
type UnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a UnitOfWork.
func NewUnitOfWork(conn Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Begin starts a transaction unless ctx already carries one.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if tx := TxFromContext(ctx); tx != nil {
		return WithTx(ctx, tx, false), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return WithTx(ctx, tx, true), nil
}

// Commit commits an owned transaction.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	return u.finish(ctx, Transaction.Commit)
}

// Rollback rolls back an owned transaction.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	return u.finish(ctx, Transaction.Rollback)
}

func (u *UnitOfWork) finish(ctx context.Context, fn func(Transaction, context.Context) error) error {
	state, ok := ctx.Value(txKey{}).(txState)
	if !ok || state.tx == nil {
		return ErrNoTransaction
	}
	if !state.owned {
		return nil
	}
	return fn(state.tx, ctx)
}
