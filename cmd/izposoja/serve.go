package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/izposoja/internal/api"
	"github.com/erazemk/izposoja/internal/auth"
	"github.com/erazemk/izposoja/internal/config"
	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/rental"
	"github.com/erazemk/izposoja/internal/scheduler"
	"github.com/erazemk/izposoja/internal/store"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the rental desk API and the periodic jobs",
		Long: `Run the rental desk API. A missing database is created first and the
generated admin password is printed once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), a.cfg)
		},
	}
	cmd.Flags().StringP("addr", "a", ":8080", "listen address")
	cmd.Flags().StringP("user", "u", "Admin", "admin username on first run")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	dbPath := cfg.Database.Path

	// Auto-init on first run.
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		database, password, err := initDatabase(ctx, dbPath, cfg.Server.AdminUser)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(os.Stdout, dbPath, cfg.Server.AdminUser, password)
		fmt.Println()
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", dbPath)

	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading JWT secret: %w", err)
	}

	manager := newManager(database, cfg)

	// Counters can drift if the process died mid-write on an older build.
	if drifts, err := manager.Reconcile(ctx, true); err != nil {
		slog.Error("availability reconciliation failed", "error", err)
	} else if len(drifts) > 0 {
		slog.Warn("availability counters corrected", "equipment", len(drifts))
	}

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(scheduledJobs(database, manager, cfg),
			scheduler.WithLogger(slog.Default()), scheduler.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("setting up scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	issuer := auth.NewIssuer(jwtSecret, cfg.Server.TokenExpiry)
	handler := api.LoggingMiddleware(api.NewRouter(database, manager, issuer))

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// newManager builds the rental coordinator shared by the API and the jobs.
func newManager(database *sql.DB, cfg *config.Config) *rental.Manager {
	logger := slog.Default()
	return rental.NewManager(store.New(database),
		rental.WithLogger(logger),
		rental.WithNotifier(rental.LogNotifier{Logger: logger}),
		rental.WithReminderWindow(cfg.Scheduler.ReminderWindow),
	)
}

func scheduledJobs(database *sql.DB, manager *rental.Manager, cfg *config.Config) []scheduler.Job {
	return []scheduler.Job{
		{Name: "check-overdue", Spec: cfg.Scheduler.CheckOverdue, Run: manager.CheckOverdue},
		{Name: "return-reminders", Spec: cfg.Scheduler.ReturnReminders, Run: manager.SendReturnReminders},
		{Name: "purge-tokens", Spec: cfg.Scheduler.PurgeTokens, Run: func(ctx context.Context) (int, error) {
			n, err := store.PurgeRevokedTokens(ctx, database, manager.Now())
			return int(n), err
		}},
	}
}
