// Package main is the entry point for the wheel API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zapponejosh/wheel/internal/api"
	"github.com/zapponejosh/wheel/internal/calendar"
	"github.com/zapponejosh/wheel/internal/config"
	"github.com/zapponejosh/wheel/internal/database"
	"github.com/zapponejosh/wheel/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Setup structured logging
	log := logger.Setup(cfg)

	if err := run(cfg, log); err != nil {
		log.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Log startup info
	log.Info("starting wheel API",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
		slog.String("log_level", cfg.LogLevel),
		slog.String("rule", string(cfg.Rule)),
		slog.String("solar_model", cfg.SolarModel),
		slog.String("cache", cfg.CacheBackend),
	)

	oracle, err := cfg.Oracle()
	if err != nil {
		return err
	}
	calcCfg := calendar.CalculatorConfig{
		Oracle:  oracle,
		Rule:    cfg.Rule,
		Logger:  log,
		Workers: cfg.Workers,
	}

	// The handlers only health-check a SQLite cache.
	var store api.HealthChecker
	if cfg.CacheBackend == config.CacheSQLite {
		db, cache, err := database.OpenCache(ctx, cfg.CachePath, database.Namespace(cfg.Rule, cfg.SolarModel), log)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer db.Close()
		calcCfg.Cache = cache
		store = db
	}

	handlers := api.NewHandlers(calendar.NewCalculator(calcCfg), store, cfg, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.SetupRoutes(handlers, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("wheel API ready", slog.String("addr", srv.Addr))
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
