// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the analyzer service.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`

	// LLM call behavior
	LLMCallTimeout time.Duration `env:"LLM_CALL_TIMEOUT" envDefault:"120s"`
	RateLimitRPS   int           `env:"RATE_LIMIT_RPS" envDefault:"1"`

	// Classification
	TextSampleLimit int `env:"TEXT_SAMPLE_LIMIT" envDefault:"50"`

	// Scheduler
	SchedulerTickInterval  time.Duration `env:"SCHEDULER_TICK_INTERVAL" envDefault:"1m"`
	DefaultIntervalMinutes int           `env:"DEFAULT_INTERVAL_MINUTES" envDefault:"60"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

// Load parses configuration from the environment, reading an optional .env
// file first.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	return cfg, nil
}
