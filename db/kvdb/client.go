package kvdb

import (
	"context"
	"errors"
	"time"
)

type Client interface {
	Init() error
	Close() error
	GetConf() *Conf

	//---- Key Ops ----

	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) (int64, error)
	// Expire sets/updates expiration for a key
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) // found & updated, err

	// ScanKeys iterates over keys matching pattern (glob, `*` only) in batches.
	// The cursor type and meaning are backend-specific and opaque to callers.
	// When nextCursor is nil, the scan is complete.
	ScanKeys(ctx context.Context, cursor any, pattern string, scanBatchSize int) ([]string, any, error)

	//---- Single-value Ops ----

	Set(ctx context.Context, key string, value string, expiration time.Duration) error // 0 = no expiration
	Get(ctx context.Context, key string) (string, bool, error)                         // val, found, err

	//---- List Ops ----

	Push(ctx context.Context, key string, value string) error
	Len(ctx context.Context, key string) (int64, error)
	Range(ctx context.Context, key string, start int64, stop int64) ([]string, error) // 0-basis, stop inclusive, negative from the tail
	Trim(ctx context.Context, key string, start int64, stop int64) error              // 0-basis, stop inclusive, negative from the tail

	//---- Hash Ops ----

	GetField(ctx context.Context, key string, field string) (string, bool, error) // val, found, err
	SetFields(ctx context.Context, key string, fields map[string]string) error
	// GetAllFields returns an empty map for a missing key
	GetAllFields(ctx context.Context, key string) (map[string]string, error)
}

var ErrNotSupported = errors.New("kvdb: operation not supported")

// ErrWrongType is returned when a key holds another kind of value
var ErrWrongType = errors.New("kvdb: operation against a key holding the wrong kind of value")

// ScanAll collects every key matching pattern
func ScanAll(ctx context.Context, c Client, pattern string) ([]string, error) {
	var (
		all    []string
		cursor any
	)
	for {
		keys, next, err := c.ScanKeys(ctx, cursor, pattern, 200)
		if err != nil {
			return nil, err
		}
		all = append(all, keys...)
		if next == nil {
			return all, nil
		}
		cursor = next
	}
}
