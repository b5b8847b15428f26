package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vbonduro/spaceaccess/internal/config"
	"github.com/vbonduro/spaceaccess/internal/db"
	"github.com/vbonduro/spaceaccess/internal/domain"
	"github.com/vbonduro/spaceaccess/internal/exportstore/local"
	"github.com/vbonduro/spaceaccess/internal/logging"
	"github.com/vbonduro/spaceaccess/internal/metrics"
	"github.com/vbonduro/spaceaccess/internal/scanner"
	"github.com/vbonduro/spaceaccess/internal/service"
	"github.com/vbonduro/spaceaccess/internal/store"
	"github.com/vbonduro/spaceaccess/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		cleanup()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	st := store.New(database)
	directory := service.NewDirectory(st, logger)
	locations := service.NewLocations(st, logger)
	tracker := service.NewTracker(st, logger, service.WithRecentLimit(cfg.RecentLimit))

	if err := locations.EnsureSeed(ctx); err != nil {
		return fmt.Errorf("failed to seed locations: %w", err)
	}
	prometheus.MustRegister(metrics.NewOccupancyCollector(tracker))

	exports, err := local.NewLocalExportStore(cfg.ExportPath)
	if err != nil {
		return fmt.Errorf("failed to initialize export store: %w", err)
	}

	if cfg.Scan.Input != "" {
		if err := startScanner(ctx, cfg.Scan, tracker, logger); err != nil {
			return err
		}
	}

	server := web.NewServer(directory, locations, tracker, exports, logger)
	srv := server.NewHTTPServer(cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// startScanner runs the scan listener in the background until ctx is done.
func startScanner(ctx context.Context, cfg config.ScanConfig, tracker *service.Tracker, logger *slog.Logger) error {
	var input io.ReadCloser = os.Stdin
	if cfg.Input != "stdin" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return fmt.Errorf("failed to open scan input: %w", err)
		}
		input = f
	}

	listener := scanner.NewListener(tracker, logger, domain.EventType(cfg.EventType), cfg.LocationID)
	go func() {
		defer func() {
			if err := input.Close(); err != nil {
				logger.Error("failed to close scan input", "error", err)
			}
		}()
		if err := listener.Run(ctx, input); err != nil {
			logger.Error("scanner stopped", "error", err)
		}
	}()
	return nil
}
