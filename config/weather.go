package config

import "fmt"

// WeatherConfig selects the irradiance and temperature source.
type WeatherConfig struct {
	// Provider is "open-meteo" or "clearsky". The clear-sky model needs
	// no network and suits offline what-if runs.
	Provider string `json:"provider"`
	// BaseURL overrides the Open-Meteo endpoint, mainly for tests.
	BaseURL string `json:"base_url"`
}

// SetDefaults applies sane defaults.
func (c *WeatherConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "open-meteo"
	}
}

// Validate checks the provider name.
func (c WeatherConfig) Validate() error {
	if c.Provider != "open-meteo" && c.Provider != "clearsky" {
		return fmt.Errorf("unknown weather provider %s", c.Provider)
	}
	return nil
}
