package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/yourkin666/server-go/internal/app"
	"github.com/yourkin666/server-go/internal/buildinfo"
	"github.com/yourkin666/server-go/internal/cache"
	"github.com/yourkin666/server-go/internal/config"
	"github.com/yourkin666/server-go/internal/logging"
	"github.com/yourkin666/server-go/internal/server"
	"github.com/yourkin666/server-go/internal/store"
	"github.com/yourkin666/server-go/internal/telemetry"
)

func main() {
	buildinfo.MarkStart()

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := logging.New(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	if cfg.Server.Workers > 0 {
		runtime.GOMAXPROCS(cfg.Server.Workers)
	}

	shutdownTracer, err := telemetry.InitTracer(cfg.Telemetry, buildinfo.Version, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	ctx := context.Background()

	db, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	c, err := cache.Open(ctx, cfg, logger)
	if err != nil {
		_ = db.Close()
		logger.Error("failed to open cache", slog.String("error", err.Error()))
		os.Exit(1)
	}

	state := app.New(db, c, cfg, logger)
	defer func() {
		if err := state.Close(); err != nil {
			logger.Error("failed to close resources", slog.String("error", err.Error()))
		}
	}()

	srv := server.New(state)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("server started",
		slog.String("name", buildinfo.Name),
		slog.String("version", buildinfo.Version),
		slog.String("addr", srv.Addr),
		slog.String("database", db.Kind()),
		slog.String("cache", c.Kind()),
	)

	// Wait for shutdown signal or a listener failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", slog.String("error", err.Error()))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		return
	}

	logger.Info("server shutdown complete")
}
