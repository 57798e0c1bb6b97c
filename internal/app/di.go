// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/skatamatic/blulok-cloud-sub010/internal/config"
	"github.com/skatamatic/blulok-cloud-sub010/internal/database"
	denylistUseCase "github.com/skatamatic/blulok-cloud-sub010/internal/denylist/usecase"
	"github.com/skatamatic/blulok-cloud-sub010/internal/directory"
	"github.com/skatamatic/blulok-cloud-sub010/internal/events"
	eventsUseCase "github.com/skatamatic/blulok-cloud-sub010/internal/events/usecase"
	"github.com/skatamatic/blulok-cloud-sub010/internal/gateway"
	"github.com/skatamatic/blulok-cloud-sub010/internal/http"
	"github.com/skatamatic/blulok-cloud-sub010/internal/metrics"
	routePassUseCase "github.com/skatamatic/blulok-cloud-sub010/internal/routepass/usecase"
	"github.com/skatamatic/blulok-cloud-sub010/internal/schedule"
	signingService "github.com/skatamatic/blulok-cloud-sub010/internal/signing/service"
	signingUseCase "github.com/skatamatic/blulok-cloud-sub010/internal/signing/usecase"
)

// routePassStore is the combined persistence surface of the route pass
// repositories: the issuance log plus the outstanding-pass counter the
// denylist optimization policy reads.
type routePassStore interface {
	routePassUseCase.RoutePassRepository
	denylistUseCase.OutstandingPassCounter
}

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Managers
	txManager database.TxManager

	// Signing
	keyStateRepo    signingUseCase.KeyStateRepository
	signer          signingService.Signer
	tokenSigner     signingService.TokenSigner
	kmsService      signingService.KMSService
	authority       *signingService.Authority
	rotationUseCase signingUseCase.RotationUseCase

	// Route passes
	routePassRepo   routePassStore
	directoryRepo   directory.Directory
	scheduleService schedule.Service
	issuerUseCase   routePassUseCase.IssuerUseCase
	historyUseCase  routePassUseCase.HistoryUseCase

	// Denylist
	denylistRepo   denylistUseCase.DenylistRepository
	denylistEngine denylistUseCase.DenylistEngine
	listener       *denylistUseCase.AccessRevocationListener

	// Events
	bus               *events.Bus
	outboxRepo        eventsUseCase.OutboxEventRepository
	dispatcherUseCase eventsUseCase.DispatcherUseCase

	// Gateway
	hub *gateway.Hub

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                    sync.Mutex
	loggerInit            sync.Once
	dbInit                sync.Once
	metricsProviderInit   sync.Once
	businessMetricsInit   sync.Once
	txManagerInit         sync.Once
	keyStateRepoInit      sync.Once
	authorityInit         sync.Once
	rotationUseCaseInit   sync.Once
	routePassRepoInit     sync.Once
	directoryRepoInit     sync.Once
	scheduleServiceInit   sync.Once
	issuerUseCaseInit     sync.Once
	historyUseCaseInit    sync.Once
	denylistRepoInit      sync.Once
	denylistEngineInit    sync.Once
	listenerInit          sync.Once
	busInit               sync.Once
	outboxRepoInit        sync.Once
	dispatcherUseCaseInit sync.Once
	hubInit               sync.Once
	httpServerInit        sync.Once
	metricsServerInit     sync.Once
	initErrors            map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:      cfg,
		signer:      signingService.NewSigner(),
		tokenSigner: signingService.NewTokenSigner(),
		kmsService:  signingService.NewKMSService(),
		initErrors:  make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(database.Config{
			Driver:             c.config.DBDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to connect to database: %w", err)
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider, or nil when
// metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. Falls back to a
// no-op implementation when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = bm
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the API HTTP server instance.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	c.httpServerInit.Do(func() {
		handlers, err := c.initHandlers(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = http.NewServer(c.config, handlers, c.Logger())
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.hub != nil {
		c.hub.Close()
	}

	if c.authority != nil {
		c.authority.Close()
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
