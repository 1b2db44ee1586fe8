package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the runtime configuration for the itinerary API.
// Environment variables are parsed from the ITINERARY_ prefix,
// e.g. ITINERARY_HTTP_PORT, ITINERARY_STORAGE_BACKEND.
type Config struct {
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// StorageBackend selects the persistence gateway: memory, sqlite, postgres.
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"memory"`
	SQLitePath     string `envconfig:"SQLITE_PATH" default:"./data"`
	PostgresDSN    string `envconfig:"POSTGRES_DSN" default:""`

	// Route optimization service.
	OptimizerURL     string        `envconfig:"OPTIMIZER_URL" default:"http://localhost:9040"`
	OptimizerTimeout time.Duration `envconfig:"OPTIMIZER_TIMEOUT" default:"30s"`
}

// New parses configuration from the environment and validates it.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("ITINERARY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	switch cfg.StorageBackend {
	case "memory", "sqlite":
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("ITINERARY_POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND: %s", cfg.StorageBackend)
	}
	return &cfg, nil
}
