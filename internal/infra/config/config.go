// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Playback PlaybackConfig `yaml:"playback"`
	Provider ProviderConfig `yaml:"provider"`
	Catalog  []CatalogTrack `yaml:"catalog" validate:"required,min=1,dive"`
}

// PlaybackConfig represents playback engine tuning.
type PlaybackConfig struct {
	TickIntervalMs   int     `yaml:"tick_interval_ms" default:"500" validate:"gte=100,lte=5000"`
	LocalStepPercent float64 `yaml:"local_step_percent" default:"0.5" validate:"gt=0,lte=25"`
	InitialVolume    int     `yaml:"initial_volume" default:"70" validate:"gte=0,lte=100"`
}

// TickInterval returns the tick interval as a duration.
func (p PlaybackConfig) TickInterval() time.Duration {
	return time.Duration(p.TickIntervalMs) * time.Millisecond
}

// ProviderConfig represents the embedded-player provider configuration.
// Settings are free-form and decoded by the selected provider runtime.
type ProviderConfig struct {
	Type     string         `yaml:"type" default:"simulated" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// CatalogTrack represents one seed entry for the initial queue. An entry
// with a source URL is ingested as an externally-backed track; otherwise
// it is a locally-simulated catalog track and needs a title and duration.
type CatalogTrack struct {
	Title       string `yaml:"title"`
	Artist      string `yaml:"artist"`
	Album       string `yaml:"album"`
	CoverArtURL string `yaml:"cover_art_url" validate:"omitempty,url"`
	DurationSec int    `yaml:"duration_sec" validate:"omitempty,gt=0"`
	SourceURL   string `yaml:"source_url" validate:"omitempty,url"`
}

// Duration returns the configured duration.
func (c CatalogTrack) Duration() time.Duration {
	return time.Duration(c.DurationSec) * time.Second
}

// IsExternal reports whether the entry references the external provider.
func (c CatalogTrack) IsExternal() bool {
	return c.SourceURL != ""
}

// Load loads configuration from a YAML file. Environment variables take
// precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("TONEARM_PROVIDER_TYPE"); v != "" {
		c.Provider.Type = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return c.validateCatalog()
}

// validateCatalog checks the per-entry rules the struct tags cannot
// express: local entries need a title and a positive duration.
func (c *Config) validateCatalog() error {
	for i, entry := range c.Catalog {
		if entry.IsExternal() {
			continue
		}
		if entry.Title == "" {
			return errors.Newf("catalog entry %d: local track requires a title", i)
		}
		if entry.DurationSec <= 0 {
			return errors.Newf("catalog entry %d (%s): local track requires duration_sec > 0", i, entry.Title)
		}
	}
	return nil
}
