package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattkinnersley/shub-jobref/internal/config"
	"github.com/mattkinnersley/shub-jobref/internal/server"
	"github.com/mattkinnersley/shub-jobref/internal/state"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.LogLevel)})))

	// Create state store and register projects and jobs from the seed file
	store := state.NewStore()
	if err := state.Seed(store, cfg.Seed); err != nil {
		slog.Error("failed to seed store", "file", cfg.SeedFile, "error", err)
		os.Exit(1)
	}

	if !cfg.RequireAuth {
		slog.Warn("job authentication disabled")
	}
	srv := server.New(store, cfg.RequireAuth)

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down...")
		srv.Stop()
	}()

	if err := srv.Start(cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
