package database

import (
	"context"
	"errors"
	"fmt"
)

type txKey struct{}

// WithTx returns a context carrying tx.
func WithTx(ctx context.Context, tx Transaction) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// ExecutorFromContext returns the transaction carried by ctx, or conn when
// there is none.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx, ok := ctx.Value(txKey{}).(Transaction); ok && tx != nil {
		return tx
	}
	return conn
}

// InTx runs fn inside a transaction and commits when fn returns nil.
//
// A transaction already carried by ctx is joined rather than nested; only the
// call that began it commits or rolls back. An error or panic from fn rolls
// the transaction back.
func InTx(ctx context.Context, conn Connection, fn func(ctx context.Context) error) (err error) {
	if tx, ok := ctx.Value(txKey{}).(Transaction); ok && tx != nil {
		return fn(ctx)
	}

	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(WithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
