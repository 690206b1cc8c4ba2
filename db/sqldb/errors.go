package sqldb

import "errors"

var (
	ErrNoRows       = errors.New("sqldb: no rows in result set")
	ErrNotSupported = errors.New("sqldb: not supported by this database type")
)
