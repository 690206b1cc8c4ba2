package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ecogroup/ecgsite/db/sqldb"
)

type Handle struct {
	*sql.DB // [Embedded]
}

// Ensure mysql.Handle implements sqldb.Handle interface
var _ sqldb.Handle = (*Handle)(nil)

func (h *Handle) Exec(ctx context.Context, query string, args ...any) (sqldb.Result, error) {
	return h.DB.ExecContext(ctx, query, args...)
}

func (h *Handle) QueryRows(ctx context.Context, query string, args ...any) (sqldb.Rows, error) {
	return h.DB.QueryContext(ctx, query, args...)
}

func (h *Handle) QueryRow(ctx context.Context, query string, args ...any) sqldb.Row {
	return &Row{row: h.DB.QueryRowContext(ctx, query, args...)}
}

// Listen - MySQL has no LISTEN/NOTIFY
func (h *Handle) Listen(_ context.Context, _ string) (<-chan sqldb.Notification, error) {
	return nil, sqldb.ErrNotSupported
}

func (h *Handle) Notify(_ context.Context, _ string, _ string) error {
	return sqldb.ErrNotSupported
}

type Row struct {
	row *sql.Row
}

// Ensure mysql.Row implements sqldb.Row interface
var _ sqldb.Row = (*Row)(nil)

func (r *Row) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return sqldb.ErrNoRows
	}
	return err
}
