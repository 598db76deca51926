package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/happenit/server/internal/api"
	"github.com/happenit/server/internal/config"
	"github.com/happenit/server/internal/email"
	"github.com/happenit/server/internal/media"
	"github.com/happenit/server/internal/messages"
	"github.com/happenit/server/internal/metrics"
	"github.com/happenit/server/internal/telemetry"
)

var (
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Happenit HTTP server",
	Long: `Start the Happenit HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Connect to Postgres and start serving the /api/v1 endpoints
- Expose Prometheus metrics on a separate port
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting happenit server")

	metrics.Init(Version, GitCommit, BuildDate)

	tracingShutdown, err := telemetry.InitTracing(context.Background(), cfg.Tracing, Version)
	if err != nil {
		logger.Error().Err(err).Msg("tracing init failed")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tracingShutdown(shutdownCtx)
		}()
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConnections)
	poolConfig.MinConns = int32(cfg.Database.MaxIdle)

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := pgxpool.NewWithConfig(poolCtx, poolConfig)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	dbCollector := metrics.NewDBCollector(pool)
	collectorCtx, collectorCancel := context.WithCancel(context.Background())
	go dbCollector.Start(collectorCtx, 15*time.Second)
	defer collectorCancel()
	defer dbCollector.Stop()

	deps, err := buildDeps(cfg, logger, pool)
	if err != nil {
		return err
	}

	handler, err := api.NewRouter(cfg, logger, deps)
	if err != nil {
		return fmt.Errorf("router init failed: %w", err)
	}

	apiServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(context.Background())

	group.Go(func() error {
		logger.Info().Str("addr", apiServer.Addr).Msg("api listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		logger.Info().Str("addr", metricsServer.Addr).Msg("metrics listening")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		return waitForShutdown(groupCtx, logger, apiServer, metricsServer)
	})

	if err := group.Wait(); err != nil {
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}

func buildDeps(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool) (api.Deps, error) {
	catalog := messages.Default()
	if cfg.Messages.Path != "" {
		loaded, err := messages.Load(cfg.Messages.Path)
		if err != nil {
			return api.Deps{}, fmt.Errorf("messages catalog: %w", err)
		}
		catalog = loaded
	}

	var store media.Store
	switch cfg.Media.Backend {
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s3Store, err := media.NewS3Store(ctx, cfg.Media)
		if err != nil {
			return api.Deps{}, fmt.Errorf("s3 media store: %w", err)
		}
		store = s3Store
	default:
		fsStore, err := media.NewFSStore(cfg.Media.Root)
		if err != nil {
			return api.Deps{}, fmt.Errorf("fs media store: %w", err)
		}
		store = fsStore
	}

	mailer, err := email.NewService(cfg.Email, cfg.Server.BaseURL, catalog, logger)
	if err != nil {
		return api.Deps{}, fmt.Errorf("email service: %w", err)
	}

	return api.Deps{
		Pool:      pool,
		Media:     store,
		Mailer:    mailer,
		Catalog:   catalog,
		Version:   Version,
		GitCommit: GitCommit,
	}, nil
}

// waitForShutdown blocks until a signal arrives or another goroutine in
// the group fails, then drains both listeners.
func waitForShutdown(ctx context.Context, logger zerolog.Logger, servers ...*http.Server) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info().Msg("shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var firstErr error
	for _, server := range servers {
		if err := server.Shutdown(shutdownCtx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	return cfg, nil
}
