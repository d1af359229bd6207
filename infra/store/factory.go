package store

import (
	"github.com/kplatou/harborwatt/core/factory"
	"github.com/kplatou/harborwatt/core/store"
)

var backends = factory.NewRegistry[store.Store]()

// RegisterBackend adds a store backend factory identified by name.
func RegisterBackend(name string, f factory.Factory[store.Store]) error {
	return backends.Register(name, f)
}

// NewBackend builds the backend the config names.
func NewBackend(cfg factory.ModuleConfig) (store.Store, error) {
	return backends.Create(cfg)
}

// init registers the built-in backends.
func init() {
	_ = RegisterBackend("memory", func(map[string]any) (store.Store, error) {
		return NewMemoryStore(), nil
	})

	_ = RegisterBackend("sqlite", func(conf map[string]any) (store.Store, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})

	_ = RegisterBackend("influx", func(conf map[string]any) (store.Store, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxStoreWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
