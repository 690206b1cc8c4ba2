package pgsql

import (
	"context"
	"fmt"
	"log"

	"github.com/ecogroup/ecgsite/db/sqldb"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handle struct {
	*pgxpool.Pool // [Embedded]
}

var _ sqldb.Handle = (*Handle)(nil)

func (h *Handle) Exec(ctx context.Context, query string, args ...any) (sqldb.Result, error) {
	tag, err := h.Pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &Result{tag: tag}, nil
}

func (h *Handle) QueryRows(ctx context.Context, query string, args ...any) (sqldb.Rows, error) {
	rows, err := h.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &Rows{rows: rows}, nil
}

func (h *Handle) QueryRow(ctx context.Context, query string, args ...any) sqldb.Row {
	return &Row{row: h.Pool.QueryRow(ctx, query, args...)}
}

// Listen holds one pooled connection for the lifetime of ctx
func (h *Handle) Listen(ctx context.Context, channel string) (<-chan sqldb.Notification, error) {
	conn, err := h.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err = conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to LISTEN on %s: %w", channel, err)
	}

	notifyCh := make(chan sqldb.Notification)
	go func() {
		defer conn.Release()
		defer close(notifyCh)
		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("[WARN] Listen loop ended for %s: %v", channel, err)
				}
				return
			}
			select {
			case notifyCh <- sqldb.Notification{
				PID:     notification.PID,
				Channel: notification.Channel,
				Payload: notification.Payload,
			}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return notifyCh, nil
}

func (h *Handle) Notify(ctx context.Context, channel string, payload string) error {
	_, err := h.Pool.Exec(ctx, "SELECT pg_notify($1, $2)", channel, payload)
	return err
}
