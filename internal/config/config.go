// Package config loads csgq settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every CSGQ_* setting.
type Config struct {
	Model string `env:"CSGQ_MODEL"`

	VolumeDB      string `env:"CSGQ_VOLUME_DB"`
	VolumeSamples int    `env:"CSGQ_VOLUME_SAMPLES" envDefault:"0"`
	VolumeSeed    uint64 `env:"CSGQ_VOLUME_SEED" envDefault:"1"`
	VolumeWorkers int    `env:"CSGQ_VOLUME_WORKERS" envDefault:"0"`

	InstancesOnly bool          `env:"CSGQ_INSTANCES_ONLY" envDefault:"false"`
	EvalTimeout   time.Duration `env:"CSGQ_EVAL_TIMEOUT" envDefault:"5s"`

	LogLevel string `env:"CSGQ_LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"CSGQ_LOG_JSON" envDefault:"false"`

	OTelEndpoint string `env:"CSGQ_OTEL_ENDPOINT"`
}

// Load reads an optional .env file from the working directory, then parses
// the environment. Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.VolumeSamples < 0 {
		return fmt.Errorf("CSGQ_VOLUME_SAMPLES must not be negative, got %d", c.VolumeSamples)
	}
	if c.VolumeWorkers < 0 {
		return fmt.Errorf("CSGQ_VOLUME_WORKERS must not be negative, got %d", c.VolumeWorkers)
	}
	if c.EvalTimeout <= 0 {
		return fmt.Errorf("CSGQ_EVAL_TIMEOUT must be positive, got %s", c.EvalTimeout)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("CSGQ_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// ComputeVolumes reports whether a stochastic volume run was requested.
func (c *Config) ComputeVolumes() bool { return c.VolumeSamples > 0 }
