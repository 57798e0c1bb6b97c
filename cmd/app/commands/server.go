package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/skatamatic/blulok-cloud-sub010/internal/app"
	"github.com/skatamatic/blulok-cloud-sub010/internal/config"
)

// RunServer starts the API server, the metrics server, and the outbox
// dispatcher with graceful shutdown support. Blocks until SIGINT/SIGTERM or a
// fatal component error.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	defer closeContainer(container, logger)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initializing the HTTP server pulls up the whole graph, including the
	// signing authority; a missing key ceremony fails here, before listen.
	server, err := container.HTTPServer(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	listener, err := container.AccessRevocationListener(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize revocation listener: %w", err)
	}
	listener.Subscribe(container.Bus())

	dispatcher, err := container.DispatcherUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox dispatcher: %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := server.Start(groupCtx); err != nil {
			return fmt.Errorf("api server error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		group.Go(func() error {
			if err := metricsServer.Start(groupCtx); err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		if err := dispatcher.Start(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("outbox dispatcher error: %w", err)
		}
		return nil
	})

	// Wait for a shutdown signal or a component failure, then stop the
	// listeners; container shutdown closes the hub, bus and database.
	<-groupCtx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
	defer shutdownCancel()

	var shutdownErrors []error

	if err := server.Shutdown(shutdownCtx); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if err := group.Wait(); err != nil {
		shutdownErrors = append(shutdownErrors, err)
	}

	if len(shutdownErrors) > 0 {
		return errors.Join(shutdownErrors...)
	}

	return nil
}
