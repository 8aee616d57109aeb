package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/vamshikr/sure-weather/internal/api/http"
	"github.com/vamshikr/sure-weather/internal/config"
	"github.com/vamshikr/sure-weather/internal/logging"
	"github.com/vamshikr/sure-weather/internal/observability"
	"github.com/vamshikr/sure-weather/internal/scheduler"
	"github.com/vamshikr/sure-weather/internal/store"
	"github.com/vamshikr/sure-weather/internal/weather"
)

const shutdownTimeout = 10 * time.Second

// New returns the root command. Without a subcommand it runs the server.
func New() *cobra.Command {
	serveCmd := newServeCommand()

	root := &cobra.Command{
		Use:           "sure-weather",
		Short:         "Average current temperature across weather services",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	root.AddCommand(serveCmd, newQueryCommand(loadService))
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func setup() (*config.AppConfig, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}

func serve(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	comps, err := buildComponents(cfg, logger)
	if err != nil {
		logger.Error("failed to register weather services", zap.Error(err))
		return err
	}

	metrics, err := observability.NewCollector(nil)
	if err != nil {
		return err
	}

	// Provider probes feed /health and the provider_up gauge only.
	health := store.NewMemoryStore(cfg.HealthHistory)
	sched := scheduler.New(scheduler.Config{
		Interval: cfg.HealthCheckInterval,
		Probe: weather.Coordinate{
			Latitude:  cfg.HealthProbeLatitude,
			Longitude: cfg.HealthProbeLongitude,
		},
		Timeout: cfg.ProviderTimeout,
	}, comps.registry, health, metrics, logger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.Deps{
		Service: comps.service(cfg, metrics, logger),
		Health:  health,
		Metrics: metrics,
		Logger:  logger.Named("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("port", cfg.Port), zap.Strings("services", comps.registry.Names()))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	// Wait for termination signal
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("fiber server stopped: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

// loadService builds a Service from the environment for one-off queries.
func loadService(context.Context) (*weather.Service, error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, err
	}
	comps, err := buildComponents(cfg, logger)
	if err != nil {
		return nil, err
	}
	return comps.service(cfg, nil, logger), nil
}
