package config

import "fmt"

// StoreConfig selects where the measurement, forecast and scheduling
// tables live. The Influx mirror is additive: when enabled, rows go to
// both the primary backend and InfluxDB.
type StoreConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string       `json:"backend"`
	Path    string       `json:"path"`
	Influx  InfluxConfig `json:"influx"`
}

type InfluxConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Token   string `json:"token"`
	Org     string `json:"org"`
	Bucket  string `json:"bucket"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "sqlite"
	}
	if c.Path == "" {
		c.Path = "harborwatt.db"
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	if c.Backend != "sqlite" && c.Backend != "memory" {
		return fmt.Errorf("unknown store backend %s", c.Backend)
	}
	if c.Backend == "sqlite" && c.Path == "" {
		return fmt.Errorf("sqlite backend needs a path")
	}
	if c.Influx.Enabled && (c.Influx.URL == "" || c.Influx.Org == "" || c.Influx.Bucket == "") {
		return fmt.Errorf("influx mirror needs url, org and bucket")
	}
	return nil
}
