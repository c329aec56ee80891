package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/iconidentify/dlmaster/internal/api"
	"github.com/iconidentify/dlmaster/internal/api/handler"
	"github.com/iconidentify/dlmaster/internal/config"
	"github.com/iconidentify/dlmaster/internal/extractor"
	"github.com/iconidentify/dlmaster/internal/scratch"
	"github.com/iconidentify/dlmaster/internal/service"
	"github.com/iconidentify/dlmaster/internal/worker"
)

const eventCleanupInterval = 24 * time.Hour

func runServer(ctx context.Context, configPath string) error {
	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting dlmaster",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	dir, err := scratch.New(cfg.Storage.ScratchPath, logger)
	if err != nil {
		return err
	}

	events, err := service.NewEventService(service.EventServiceConfig{
		RingBufferSize:  cfg.Events.RingBufferSize,
		PersistToSQLite: cfg.Events.PersistToSQLite,
		SQLitePath:      cfg.Events.SQLitePath,
		RetentionDays:   cfg.Events.RetentionDays,
	}, logger)
	if err != nil {
		return fmt.Errorf("init events: %w", err)
	}
	defer events.Close()

	// Initialize services
	ext := extractor.New(cfg.Extractor, extractor.ExecRunner{}, logger)
	sources := newInfoRouter(cfg, ext, logger)
	mediaSvc := service.NewMediaService(sources, ext, dir, nil, events, logger)

	// Setup router
	router := api.NewRouter(api.Handlers{
		Media:  handler.NewMediaHandler(mediaSvc, logger),
		Health: handler.NewHealthHandler(dir, ext.Binary(), events),
		UI:     handler.NewUIHandler(),
		Events: handler.NewEventHandler(events, logger),
	}, api.Options{
		APIKey:         cfg.Server.APIKey,
		HandlerTimeout: cfg.Server.HandlerTimeout,
		RateLimitRPS:   cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst: cfg.RateLimit.Burst,
	})

	janitor := worker.NewJanitor(worker.Config{
		Interval: cfg.Storage.SweepInterval,
		MaxAge:   cfg.Storage.MaxAge,
	}, dir, events, logger)
	janitor.Start()

	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()
	if cfg.Events.PersistToSQLite {
		go cleanupEvents(bgCtx, events, logger)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server",
			"addr", srv.Addr,
			"scratch", dir.Path(),
			"extractor", ext.Binary(),
			"remote_api", cfg.RemoteAPI.Enabled(),
		)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			janitor.Stop(5 * time.Second)
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("shutting down")
	cancelBackground()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting new requests; in-flight downloads finish streaming
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := janitor.Stop(10 * time.Second); err != nil {
		logger.Error("janitor shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// newInfoRouter routes lookups for the configured hosts to the remote API when
// one is configured.
func newInfoRouter(cfg *config.Config, ext *extractor.Extractor, logger *slog.Logger) *extractor.Router {
	if !cfg.RemoteAPI.Enabled() {
		return extractor.NewRouter(ext, nil, nil)
	}
	remote := extractor.NewRemoteClient(cfg.RemoteAPI, cfg.Extractor.UserAgent, logger)
	return extractor.NewRouter(ext, remote, cfg.RemoteAPI.Hosts)
}

func cleanupEvents(ctx context.Context, events *service.EventService, logger *slog.Logger) {
	ticker := time.NewTicker(eventCleanupInterval)
	defer ticker.Stop()

	for {
		if n, err := events.CleanupOldEvents(ctx); err != nil {
			logger.Warn("event cleanup failed", "error", err)
		} else if n > 0 {
			logger.Info("removed old events", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
