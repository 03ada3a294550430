package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/fuzzfleet/pkg/db"
	"github.com/dmitrymomot/fuzzfleet/pkg/logger"
	"github.com/dmitrymomot/fuzzfleet/pkg/redis"
	"github.com/dmitrymomot/fuzzfleet/pkg/storage"
)

// Config is the full process configuration. Every section reads its own
// environment variables; see the env tags on each field.
type Config struct {
	HTTP    HTTPConfig
	Jobs    JobsConfig
	Tasks   TasksConfig
	Log     logger.Config
	DB      db.Config
	Redis   redis.Config
	Storage storage.Config
}

// HTTPConfig controls the API server.
type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MetricsPath     string        `env:"HTTP_METRICS_PATH" envDefault:"/metrics"`
}

// JobsConfig controls the job service and its maintenance schedule.
type JobsConfig struct {
	// Assigned or running jobs older than this are failed by the reaper.
	StaleLease   time.Duration `env:"JOBS_STALE_LEASE" envDefault:"30m"`
	ReapSchedule string        `env:"JOBS_REAP_SCHEDULE" envDefault:"* * * * *"`

	// Zero disables automatic requeue of failed jobs.
	MaxAttempts     int    `env:"JOBS_MAX_ATTEMPTS" envDefault:"0"`
	RequeueSchedule string `env:"JOBS_REQUEUE_SCHEDULE" envDefault:"*/5 * * * *"`

	ClaimBatch     int           `env:"JOBS_CLAIM_BATCH" envDefault:"16"`
	LookupCacheTTL time.Duration `env:"JOBS_LOOKUP_CACHE_TTL" envDefault:"5m"`
	LookupCacheMax int           `env:"JOBS_LOOKUP_CACHE_MAX" envDefault:"10000"`
}

// TasksConfig controls the background task manager. It only runs with PostgreSQL.
type TasksConfig struct {
	Workers     int  `env:"TASKS_WORKERS" envDefault:"4"`
	AutoMigrate bool `env:"TASKS_AUTO_MIGRATE" envDefault:"true"`
	RunOnStart  bool `env:"TASKS_RUN_ON_START" envDefault:"true"`
}

// loadConfig reads envFile when it exists and then parses the environment.
// Variables already set in the environment win over the file.
func loadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Jobs.MaxAttempts < 0 {
		return Config{}, fmt.Errorf("JOBS_MAX_ATTEMPTS must not be negative, got %d", cfg.Jobs.MaxAttempts)
	}
	if cfg.Jobs.StaleLease <= 0 {
		return Config{}, fmt.Errorf("JOBS_STALE_LEASE must be positive, got %s", cfg.Jobs.StaleLease)
	}
	return cfg, nil
}
