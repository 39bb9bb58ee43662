package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/aliasd/internal/logger"
	"github.com/marmos91/aliasd/pkg/actor"
	"github.com/marmos91/aliasd/pkg/config"
	"github.com/marmos91/aliasd/pkg/metrics"
	"github.com/marmos91/aliasd/pkg/store"
)

// InitLogger initializes the structured logger from configuration. Any -v
// forces DEBUG.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if verbosity > 0 {
		loggerCfg.Level = "DEBUG"
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}

// initMetrics enables the process registry when configured and returns the
// metrics server, or nil.
func initMetrics(cfg *config.Config) *metrics.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}
	metrics.InitRegistry()
	return metrics.NewServer(cfg.Metrics.Port)
}

// openActor opens the configured store, starts the connection actor on it
// and brings the schema up to date. The returned close function drains the
// actor and closes the connection.
func openActor(ctx context.Context, cfg *config.Config, m actor.Metrics) (*actor.Actor, func(context.Context) error, error) {
	handler, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	a := actor.New(handler, actor.Options{
		QueueSize: cfg.Actor.QueueSize,
		Overflow:  cfg.Actor.Overflow,
		Metrics:   m,
	})

	for _, op := range []actor.Op{actor.OpPing, actor.OpMigrate} {
		if _, err := a.Submit(ctx, actor.Command{Op: op}); err != nil {
			_ = a.Close(context.Background())
			return nil, nil, fmt.Errorf("store %s failed: %w", op, err)
		}
	}

	return a, a.Close, nil
}

// withTimeout runs fn with a context bounded by timeout.
func withTimeout(timeout time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fn(ctx)
}
