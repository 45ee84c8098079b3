package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nidus/nidus/internal/config"
	"github.com/nidus/nidus/internal/domain/careevent"
	"github.com/nidus/nidus/internal/platform/db"
	"github.com/nidus/nidus/internal/platform/lock"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nidus-server",
		Short: "Caregiving schedule and daily log API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and the status reconciler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout)
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}
	return logger.Level(level).With().Timestamp().Str("service", "nidus").Logger()
}

func poolOptions(cfg *config.Config) db.PoolOptions {
	return db.PoolOptions{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		TimeZone: cfg.Timezone,
		AppName:  "nidus",
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, poolOptions(cfg))
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, poolOptions(cfg))
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one overdue-status sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx := context.Background()
			pool, err := db.NewPool(ctx, poolOptions(cfg))
			if err != nil {
				return err
			}
			defer pool.Close()

			rec := careevent.NewReconciler(careevent.NewStorePG(pool), cfg.ReconcileInterval, logger)
			closeLock, err := attachLocker(ctx, cfg, rec, logger)
			if err != nil {
				return err
			}
			defer closeLock()

			res, err := rec.RunOnce(ctx)
			if res.Skipped {
				fmt.Println("skipped: another process holds the reconcile lock")
				return nil
			}
			for _, kind := range careevent.Kinds {
				fmt.Printf("%-14s %d\n", kind.Plural(), res.Promoted[kind])
			}
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}
			return nil
		},
	}
}

// attachLocker gives rec the redis lock when REDIS_URL is set, so manual and
// scheduled sweeps never overlap across processes. The returned func closes
// the client.
func attachLocker(ctx context.Context, cfg *config.Config, rec *careevent.Reconciler, logger zerolog.Logger) (func(), error) {
	if cfg.RedisURL == "" {
		return func() {}, nil
	}
	client, err := lock.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("reconciler lock: %w", err)
	}
	rec.WithLocker(lock.NewRedisLocker(client), cfg.ReconcileLockTTL)
	logger.Info().Msg("reconciler lock enabled")
	return func() { _ = client.Close() }, nil
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, poolOptions(cfg))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := newEcho(cfg, logger)
	e.GET("/health/db", db.HealthHandler(pool))
	if err := registerAPI(e, cfg, logger, pool); err != nil {
		return err
	}

	// Reconciler
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	done := make(chan struct{})
	if cfg.ReconcileEnabled {
		rec := careevent.NewReconciler(careevent.NewStorePG(pool), cfg.ReconcileInterval, logger)
		closeLock, err := attachLocker(ctx, cfg, rec, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer closeLock()
		go func() {
			defer close(done)
			rec.Start(bgCtx)
		}()
	} else {
		close(done)
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("timezone", cfg.Location().String()).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	stopBackground()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("reconciler did not stop in time")
	}
	logger.Info().Msg("server stopped")
	return nil
}
