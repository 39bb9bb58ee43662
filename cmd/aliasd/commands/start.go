package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/aliasd/internal/buildinfo"
	"github.com/marmos91/aliasd/internal/logger"
	"github.com/marmos91/aliasd/internal/telemetry"
	"github.com/marmos91/aliasd/pkg/alias"
	"github.com/marmos91/aliasd/pkg/api"
	"github.com/marmos91/aliasd/pkg/cache"
	"github.com/marmos91/aliasd/pkg/config"
	"github.com/marmos91/aliasd/pkg/metrics"
	"github.com/marmos91/aliasd/pkg/users"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/aliasd/pkg/metrics/prometheus"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the aliasd server",
	Long: `Start the aliasd server in the foreground.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/aliasd/config.yaml.

Examples:
  # Start with the default config
  aliasd start

  # Start with custom config file
  aliasd start --config /etc/aliasd/config.yaml

  # Start with environment variable overrides
  ALIASD_LOGGING_LEVEL=DEBUG ALIASD_DATABASE_TYPE=badger aliasd start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "aliasd",
		ServiceVersion: buildinfo.Get(),
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := withTimeout(cfg.ShutdownTimeout, telemetryShutdown); err != nil {
			logger.Error("telemetry shutdown error", logger.KeyError, err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "aliasd",
		ServiceVersion: buildinfo.Get(),
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
		Tags:           map[string]string{"database": string(cfg.Database.Type)},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.KeyError, err)
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	// Metrics come first so the actor and cache pick up their collectors.
	metricsServer := initMetrics(cfg)

	connActor, closeActor, err := openActor(ctx, cfg, metrics.NewActorMetrics())
	if err != nil {
		return err
	}
	actorClosed := false
	defer func() {
		if !actorClosed {
			_ = withTimeout(cfg.ShutdownTimeout, closeActor)
		}
	}()

	aliasCache := cache.New(cfg.Cache.Capacity, metrics.NewCacheMetrics())
	aliasService := alias.NewService(connActor, aliasCache)
	userService := users.NewService(connActor, aliasCache)

	apiServer, err := api.NewServer(cfg.Server, api.Services{
		Aliases: aliasService,
		Users:   userService,
		Actor:   connActor,
	})
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	logger.Info("Server configured",
		logger.KeyStoreType, string(cfg.Database.Type),
		"api_port", apiServer.Port(),
		"cache_capacity", aliasCache.Capacity(),
		"queue_size", cfg.Actor.QueueSize,
		"overflow", string(cfg.Actor.Overflow))

	serveCtx, stopServing := context.WithCancel(ctx)
	defer stopServing()

	serverDone := make(chan error, 1)
	go func() { serverDone <- apiServer.Start(serveCtx) }()

	if metricsServer != nil {
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
		go func() {
			if err := metricsServer.Start(serveCtx); err != nil {
				logger.Error("Metrics server error", logger.KeyError, err)
			}
		}()
	} else {
		logger.Info("Metrics collection disabled")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	var runErr error
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown")
	case <-connActor.Dead():
		runErr = fmt.Errorf("connection actor stopped: %w", connActor.Err())
		logger.Error("Connection actor died, shutting down", logger.KeyError, connActor.Err())
	case err := <-serverDone:
		runErr = err
		serverDone = nil
	}

	// API first so no request reaches a closed actor.
	if err := withTimeout(cfg.ShutdownTimeout, apiServer.Stop); err != nil {
		logger.Error("API shutdown error", logger.KeyError, err)
	}
	stopServing()
	if serverDone != nil {
		if err := <-serverDone; err != nil && runErr == nil {
			runErr = err
		}
	}

	actorClosed = true
	if err := withTimeout(cfg.ShutdownTimeout, closeActor); err != nil {
		logger.Error("Connection actor shutdown error", logger.KeyError, err)
		if runErr == nil {
			runErr = err
		}
	}

	if runErr != nil {
		logger.Error("Server stopped with error", logger.KeyError, runErr)
		return runErr
	}
	logger.Info("Server stopped gracefully")
	return nil
}
