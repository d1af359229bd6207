package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kplatou/harborwatt/core/factory"
	"github.com/kplatou/harborwatt/core/store"
)

func TestNewBackendMemory(t *testing.T) {
	st, err := NewBackend(factory.ModuleConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if _, ok := st.(*MemoryStore); !ok {
		t.Fatalf("expected *MemoryStore, got %T", st)
	}
}

func TestNewBackendSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "port.db")
	st, err := NewBackend(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": path}})
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	}()
	rec := store.Record{Source: "ferry", Metric: store.MetricSoC, Value: "0.5"}
	if err := st.Append(context.Background(), store.TableMeasurements, rec); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestNewBackendUnknown(t *testing.T) {
	if _, err := NewBackend(factory.ModuleConfig{Type: "redis"}); err == nil {
		t.Fatal("expected error for unregistered backend")
	}
}

func TestRegisterBackendDuplicate(t *testing.T) {
	if err := RegisterBackend("sqlite", func(map[string]any) (store.Store, error) {
		return store.NopStore{}, nil
	}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}
