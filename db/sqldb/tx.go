package sqldb

import (
	"context"
	"log"
)

// Tx Transaction
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRows(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
}

// WithTx runs fn in a transaction, committing when fn returns nil
func WithTx(ctx context.Context, c Client, fn func(tx Tx) error) error {
	tx, err := c.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Printf("[ERROR] rollback failed: %v", rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}
