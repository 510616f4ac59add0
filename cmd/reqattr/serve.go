package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/greencloud/reqattr/internal/attribute"
	"github.com/greencloud/reqattr/internal/clientip"
	"github.com/greencloud/reqattr/internal/config"
	"github.com/greencloud/reqattr/internal/health"
	"github.com/greencloud/reqattr/internal/observability"
	"github.com/greencloud/reqattr/internal/requri"
	"github.com/greencloud/reqattr/internal/server"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the inspection server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, flags)
		},
	}
}

// application holds the components built from a configuration.
type application struct {
	config   *config.Config
	logger   observability.Logger
	metrics  *observability.Metrics
	resolver *attribute.Resolver
	health   *health.Checker
	server   *server.Server
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initApplication(cfg *config.Config) (*application, error) {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	observability.SetGlobalLogger(logger)

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
		metrics.SetBuildInfo(version, commit)
	}

	resolver := attribute.NewResolver(
		attribute.WithLogger(logger),
		attribute.WithMetrics(metrics),
		attribute.WithURIResolver(requri.NewResolver(
			requri.WithCharset(cfg.URI.Charset),
			requri.WithLogger(logger),
			requri.WithMetrics(metrics),
		)),
		attribute.WithClientIPFunc(initClientIP(cfg, logger)),
	)

	checker := health.NewChecker(version)

	return &application{
		config:   cfg,
		logger:   logger,
		metrics:  metrics,
		resolver: resolver,
		health:   checker,
		server:   server.New(cfg, resolver, logger, metrics, server.WithHealthChecker(checker)),
	}, nil
}

// initClientIP trusts proxy headers from every peer unless trusted proxies
// are configured.
func initClientIP(cfg *config.Config, logger observability.Logger) attribute.ClientIPFunc {
	if len(cfg.ClientIP.TrustedProxies) == 0 {
		return clientip.ResolveWithSource
	}
	trusted := clientip.NewTrustedProxies(cfg.ClientIP.TrustedProxies)
	logger.Info("client IP headers restricted to trusted proxies",
		observability.Int("trusted_cidrs", trusted.Len()),
	)
	return trusted.ResolveWithSource
}

func runServe(ctx context.Context, flags *globalFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	app, err := initApplication(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.logger.Sync() }()

	watcher := startConfigWatcher(ctx, flags, app)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		stopWatcher(watcher)
		if err != nil {
			app.logger.Error("server failed", observability.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	return shutdown(app, watcher, errCh)
}

func shutdown(app *application, watcher *config.Watcher, errCh <-chan error) error {
	app.logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout.Duration())
	defer cancel()

	stopWatcher(watcher)

	if err := app.server.Stop(shutdownCtx); err != nil {
		app.logger.Error("failed to stop server gracefully", observability.Error(err))
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	app.logger.Info("reqattr stopped")
	return nil
}

// startConfigWatcher applies the runtime settings of each valid rewrite of
// the configuration file.
func startConfigWatcher(ctx context.Context, flags *globalFlags, app *application) *config.Watcher {
	if flags.configPath == "" {
		return nil
	}

	disabled := func() health.Check {
		return health.Check{Status: health.StatusDegraded, Message: "config reload disabled"}
	}

	watcher, err := config.NewWatcher(flags.configPath,
		func(rt config.RuntimeConfig) { applyReload(flags, app, rt) },
		config.WithLogger(app.logger),
	)
	if err != nil {
		app.logger.Warn("config watcher disabled", observability.Error(err))
		app.health.RegisterCheck("config_watcher", disabled)
		return nil
	}
	if err := watcher.Start(ctx); err != nil {
		app.logger.Warn("config watcher disabled", observability.Error(err))
		app.health.RegisterCheck("config_watcher", disabled)
		_ = watcher.Stop()
		return nil
	}

	app.health.RegisterCheck("config_watcher", func() health.Check {
		if ctx.Err() != nil {
			return health.Check{Status: health.StatusDegraded, Message: "config reload stopped"}
		}
		return health.Check{Status: health.StatusHealthy}
	})
	return watcher
}

func applyReload(flags *globalFlags, app *application, rt config.RuntimeConfig) {
	app.server.SetIncludeHeaders(rt.IncludeHeaders)

	if flags.logLevel != "" {
		return
	}
	setter, ok := app.logger.(observability.LevelSetter)
	if !ok {
		return
	}
	if err := setter.SetLevel(rt.LogLevel); err != nil {
		app.logger.Error("failed to apply log level", observability.Error(err))
		return
	}
	app.logger.Info("log level updated", observability.String("level", rt.LogLevel))
}

func stopWatcher(watcher *config.Watcher) {
	if watcher == nil {
		return
	}
	if err := watcher.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop config watcher: %v\n", err)
	}
}
