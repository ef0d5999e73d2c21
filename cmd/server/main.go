package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"wildfire/internal/app"
	"wildfire/internal/config"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, clockwork.NewRealClock())
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	if err := a.EnsureAdmin(ctx); err != nil {
		logger.Error("failed to create admin account", "error", err)
	}

	logger.Info("Starting wildfire API",
		"addr", cfg.Server.Addr,
		"locations", len(cfg.Locations),
		"store", cfg.Store.Backend,
		"events", cfg.Events.Backend)

	if err := a.Server().ListenAndServe(ctx, cfg.Server.Addr, a.Timeouts()); err != nil {
		logger.Error("server error", "error", err)
		stop()
		a.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
