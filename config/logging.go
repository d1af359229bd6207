package config

import (
	"fmt"
	"os"
)

// LoggingConfig controls log output. Loggers read the environment when
// created, so Apply must run before any component builds its logger.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string `json:"level"`
	// Pretty selects the human-readable console writer instead of JSON.
	Pretty bool `json:"pretty"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level name.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("unknown log level %s", c.Level)
	}
}

// Apply exports the settings to the environment the loggers read.
func (c LoggingConfig) Apply() {
	os.Setenv("LOG_LEVEL", c.Level)
	if c.Pretty {
		os.Setenv("APP_ENV", "dev")
	}
}
