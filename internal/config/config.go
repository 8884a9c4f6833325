// Package config loads service configuration from the environment.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting for the FX engine. With no database
// configured the service runs on the in-memory store seeded from the
// embedded bundles.
type Config struct {
	Addr string `envconfig:"ADDR" default:":8080"`

	// DatabaseURL selects the PostgreSQL store when set.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// RedisURL enables the read-through bundle cache; only honored when
	// a database is configured.
	RedisURL string        `envconfig:"REDIS_URL"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"30s"`

	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`

	// SkipSeed disables loading the embedded seed bundles at startup.
	SkipSeed bool `envconfig:"SKIP_SEED" default:"false"`
}

// Load reads configuration from FX_-prefixed environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("fx", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
