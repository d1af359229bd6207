package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kplatou/harborwatt/infra/telemetry"
)

// Config is the root of a harborwatt configuration file.
type Config struct {
	Port       PortConfig       `json:"port"`
	Routes     RoutesConfig     `json:"routes"`
	Simulation SimulationConfig `json:"simulation"`
	Store      StoreConfig      `json:"store"`
	Weather    WeatherConfig    `json:"weather"`
	Metrics    MetricsConfig    `json:"metrics"`
	Logging    LoggingConfig    `json:"logging"`
	Telemetry  telemetry.Config `json:"telemetry"`
	Sentry     SentryConfig     `json:"sentry"`
	API        APIConfig        `json:"api"`
	Audit      AuditConfig      `json:"audit"`
}

// RoutesConfig points at the waypoint file the trip pool is drawn from.
type RoutesConfig struct {
	Path string `json:"path"`
}

func (c RoutesConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("routes path is required")
	}
	return nil
}

// Load reads a YAML or JSON configuration file, applies HW_ environment
// overrides (HW_STORE__PATH=... sets store.path), fills defaults and
// validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("HW_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "hw_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Port.SetDefaults()
	cfg.Simulation.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Weather.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Telemetry.SetDefaults()
	cfg.API.SetDefaults()
	cfg.Audit.SetDefaults()
	if err := cfg.Routes.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Simulation.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Weather.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Telemetry.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Audit.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
