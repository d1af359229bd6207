package store

import (
	"context"
	"errors"
	"time"

	"github.com/kplatou/harborwatt/core/store"
)

// MultiStore fans out appends to every member store. Queries are served by
// the first member (the primary); deletes go to every member but members
// that do not support deletion are skipped.
type MultiStore struct {
	stores []store.Store
}

// NewMultiStore combines the given stores. The first is the primary.
func NewMultiStore(stores ...store.Store) *MultiStore {
	return &MultiStore{stores: stores}
}

// Append writes the records to every member.
func (m *MultiStore) Append(ctx context.Context, table store.Table, recs ...store.Record) error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Append(ctx, table, recs...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Query reads from the primary store.
func (m *MultiStore) Query(ctx context.Context, q store.Query) ([]store.Record, error) {
	if len(m.stores) == 0 {
		return nil, nil
	}
	return m.stores[0].Query(ctx, q)
}

// DeleteRange deletes from every member that supports it.
func (m *MultiStore) DeleteRange(ctx context.Context, table store.Table, source, metric string, start, end time.Time) error {
	var errs []error
	for _, s := range m.stores {
		if err := s.DeleteRange(ctx, table, source, metric, start, end); err != nil && !errors.Is(err, store.ErrUnsupported) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every member.
func (m *MultiStore) Close() error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
