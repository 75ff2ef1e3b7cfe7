package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/tabexport/internal/config"
	"github.com/JonMunkholm/tabexport/internal/core"
	"github.com/JonMunkholm/tabexport/internal/metrics"
	"github.com/JonMunkholm/tabexport/internal/source"
)

// Run opens the configured source, serves the API and shuts down gracefully
// once ctx is cancelled. In-flight exports are given ShutdownTimeout to
// finish.
func Run(ctx context.Context, cfg *config.Config) error {
	opts := Options{
		Limiter: core.NewExportLimiter(cfg.Export.MaxConcurrent, cfg.Export.MaxWaitTime),
	}

	store, err := source.Open(ctx, cfg.Database, cfg.Export.MaxRecords)
	switch {
	case errors.Is(err, source.ErrSourceNotConfigured):
		slog.Info("no database configured, source exports disabled")
	case err != nil:
		return err
	default:
		defer store.Close()
		opts.Source = store
		slog.Info("record source connected")
	}

	if cfg.Metrics.Enabled {
		opts.Metrics = metrics.NewCollector(cfg.Metrics.Namespace, nil)
		opts.Metrics.WatchLimiter(opts.Limiter)
	}

	server, err := NewServer(cfg, opts)
	if err != nil {
		return err
	}

	slog.Info("presets registered",
		"count", core.PresetCount(),
		"groups", len(core.PresetGroups()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if status := opts.Limiter.Status(); status.Active > 0 {
		slog.Info("waiting for exports to complete", "active", status.Active)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("exports did not complete in time", "error", err)
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped")
	return nil
}
