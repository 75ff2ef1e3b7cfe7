package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/tabexport/internal/config"
	_ "github.com/JonMunkholm/tabexport/internal/core/presets" // Register all presets
	"github.com/JonMunkholm/tabexport/internal/logging"
	"github.com/JonMunkholm/tabexport/internal/web"
)

func main() {
	// Load .env if present; variables already in the environment win.
	cfg, err := config.LoadFile(".env")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"export_max_concurrent", cfg.Export.MaxConcurrent,
		"locale", cfg.Export.Locale,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := web.Run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
