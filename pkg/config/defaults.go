package config

import (
	"strings"
	"time"

	"github.com/marmos91/aliasd/internal/telemetry"
	"github.com/marmos91/aliasd/pkg/actor"
	"github.com/marmos91/aliasd/pkg/cache"
	"github.com/marmos91/aliasd/pkg/metrics"
	"github.com/marmos91/aliasd/pkg/store"
)

// Defaults that are not owned by another package.
const (
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultTelemetryEndpoint = "localhost:4317"
	DefaultProfilingEndpoint = "http://localhost:4040"
)

func orDefault[T comparable](field *T, fallback T) {
	var zero T
	if *field == zero {
		*field = fallback
	}
}

// ApplyDefaults fills every zero field. Explicit values, including an
// explicit sample rate of 0, are not distinguishable from unset ones, so
// sample_rate 0 becomes 1.
func ApplyDefaults(cfg *Config) {
	orDefault(&cfg.Logging.Level, "INFO")
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	orDefault(&cfg.Logging.Format, "text")
	orDefault(&cfg.Logging.Output, "stdout")

	orDefault(&cfg.Telemetry.Endpoint, DefaultTelemetryEndpoint)
	orDefault(&cfg.Telemetry.SampleRate, 1.0)
	orDefault(&cfg.Telemetry.Profiling.Endpoint, DefaultProfilingEndpoint)
	if len(cfg.Telemetry.Profiling.ProfileTypes) == 0 {
		cfg.Telemetry.Profiling.ProfileTypes = append([]string(nil), telemetry.DefaultProfileTypes...)
	}

	orDefault(&cfg.ShutdownTimeout, DefaultShutdownTimeout)
	orDefault(&cfg.Cache.Capacity, cache.DefaultCapacity)
	orDefault(&cfg.Actor.QueueSize, actor.DefaultQueueSize)
	orDefault(&cfg.Actor.Overflow, actor.OverflowBlock)
	if cfg.Metrics.Enabled {
		orDefault(&cfg.Metrics.Port, metrics.DefaultPort)
	}

	cfg.Database.ApplyDefaults()
	cfg.Server.ApplyDefaults()
}

// GetDefaultConfig is the configuration written by `aliasd init` and used
// when no file exists: SQLite under the data directory, metrics off.
func GetDefaultConfig() *Config {
	cfg := &Config{Database: store.Config{Type: store.TypeSQLite}}
	ApplyDefaults(cfg)
	return cfg
}
