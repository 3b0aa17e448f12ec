// Package main is the entry point for the Campus Calendar API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/zapponejosh/campus-calendar-api/internal/api"
	"github.com/zapponejosh/campus-calendar-api/internal/config"
	"github.com/zapponejosh/campus-calendar-api/internal/database"
	"github.com/zapponejosh/campus-calendar-api/internal/holiday"
	"github.com/zapponejosh/campus-calendar-api/internal/logger"
	"github.com/zapponejosh/campus-calendar-api/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.Setup(cfg)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("starting campus calendar API",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
		slog.String("log_level", cfg.LogLevel),
		slog.String("holiday_provider", cfg.HolidayProvider),
		slog.String("holiday_cache", cfg.HolidayCache),
	)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := database.Open(database.DefaultConfig(cfg.DatabasePath), log)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	applied, err := db.Migrate(ctx)
	if err != nil {
		return err
	}
	log.Info("database ready", slog.String("path", cfg.DatabasePath), slog.Int("migrations_applied", applied))

	var cache holiday.Cache
	switch cfg.HolidayCache {
	case config.CacheSQLite:
		cache = database.HolidayCache{DB: db}
	default:
		cache = holiday.NewFileCache(cfg.HolidayCacheDir)
	}

	resolver, eid, err := holiday.Setup(holiday.Settings{
		Builtin:       cfg.HolidayProvider == config.ProviderBuiltin,
		APIURL:        cfg.HolidayAPIURL,
		FetchTimeout:  cfg.HolidayFetchTimeout,
		CacheTTL:      cfg.HolidayCacheTTL,
		OverridesPath: cfg.OverridesPath,
		AcademicDir:   cfg.AcademicDir,
		EidTablePath:  cfg.EidTablePath,
		TemplatesPath: cfg.TemplatesPath,
	}, cache, log)
	if err != nil {
		return err
	}

	if cfg.WarmCron != "" && len(cfg.WarmRegions) > 0 {
		warmer, err := scheduler.NewWarmer(resolver, cfg.WarmCron, cfg.WarmRegions, cfg.Location(), log)
		if err != nil {
			return err
		}
		warmer.Start(ctx)
		log.Info("holiday cache warming scheduled", slog.String("cron", cfg.WarmCron), slog.Time("next", warmer.Next()))
	}

	handlers := api.NewHandlers(db, resolver, eid, cfg, log)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.SetupRoutes(handlers, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("campus calendar API ready", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
