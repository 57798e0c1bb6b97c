package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/skatamatic/blulok-cloud-sub010/internal/config"
	denylistHTTP "github.com/skatamatic/blulok-cloud-sub010/internal/denylist/http"
	gatewayHTTP "github.com/skatamatic/blulok-cloud-sub010/internal/gateway/http"
	routePassHTTP "github.com/skatamatic/blulok-cloud-sub010/internal/routepass/http"
	signingHTTP "github.com/skatamatic/blulok-cloud-sub010/internal/signing/http"
)

// FacilityLister reports the facilities with a live gateway session.
// Satisfied by the gateway hub.
type FacilityLister interface {
	ConnectedFacilities() []string
}

// Handlers collects the API surface wired by the DI container.
type Handlers struct {
	RoutePass   *routePassHTTP.RoutePassHandler
	KeyRotation *signingHTTP.KeyRotationHandler
	Denylist    *denylistHTTP.DenylistHandler
	Command     *gatewayHTTP.CommandHandler
	Gateway     *gatewayHTTP.GatewayHandler
	Facilities  FacilityLister
}

// Server represents the API HTTP server.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new API server with all routes and middleware attached.
func NewServer(
	cfg *config.Config,
	handlers *Handlers,
	logger *slog.Logger,
) *Server {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", healthHandler)
	router.GET("/ready", readyHandler(handlers.Facilities))

	v1 := router.Group("/v1")
	{
		issue := v1.Group("/route-passes")
		if cfg.RateLimitEnabled {
			issue.Use(RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, logger))
		}
		issue.POST("", handlers.RoutePass.IssueHandler)
		issue.GET("", handlers.RoutePass.HistoryHandler)

		v1.POST("/keys/rotate", handlers.KeyRotation.RotateHandler)

		v1.POST("/denylist", handlers.Denylist.AddHandler)
		v1.DELETE("/denylist", handlers.Denylist.RemoveHandler)

		v1.POST("/commands/unicast", handlers.Command.UnicastHandler)

		v1.GET("/gateways/:facility_id/commands", handlers.Gateway.AttachHandler)
	}

	return &Server{
		server: &http.Server{
			Addr:        fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			Handler:     router,
			ReadTimeout: 15 * time.Second,
			// Gateway SSE streams stay open indefinitely; no write deadline.
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the API HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness.
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readyHandler reports request-serving readiness and the facilities with a
// live gateway session, so operators can see revocation reach at a glance.
func readyHandler(facilities FacilityLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		connected := facilities.ConnectedFacilities()
		sort.Strings(connected)

		c.JSON(http.StatusOK, gin.H{
			"status":               "ready",
			"connected_facilities": connected,
		})
	}
}
