package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupported is returned by stores that do not implement an operation,
// such as range reads on an append-only mirror.
var ErrUnsupported = errors.New("operation not supported by this store")

// NopStore discards writes and returns empty reads. It stands in when
// persistence is disabled.
type NopStore struct{}

func (NopStore) Append(context.Context, Table, ...Record) error { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) DeleteRange(context.Context, Table, string, string, time.Time, time.Time) error {
	return nil
}
func (NopStore) Close() error { return nil }
