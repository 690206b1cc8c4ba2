package sqldb

import (
	"context"
)

type Client interface {
	Init() error
	Close() error
	Handle // Methods required for Handle are also required, so, promote it
	DBType() string
	GetConf() *Conf
	Ping(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
}

type Handle interface {
	// Exec executes SQL statement like INSERT, UPDATE, DELETE.
	Exec(ctx context.Context, query string, args ...any) (Result, error)

	QueryRows(ctx context.Context, query string, args ...any) (Rows, error) // Eager. Fail upfront on statement execution
	QueryRow(ctx context.Context, query string, args ...any) Row            // Lazy. only fails at Scan()

	// Listen streams notifications on channel until ctx is done
	Listen(ctx context.Context, channel string) (<-chan Notification, error)
	Notify(ctx context.Context, channel string, payload string) error
}
