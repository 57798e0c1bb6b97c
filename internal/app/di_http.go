package app

import (
	"context"

	denylistHTTP "github.com/skatamatic/blulok-cloud-sub010/internal/denylist/http"
	gatewayHTTP "github.com/skatamatic/blulok-cloud-sub010/internal/gateway/http"
	"github.com/skatamatic/blulok-cloud-sub010/internal/http"
	routePassHTTP "github.com/skatamatic/blulok-cloud-sub010/internal/routepass/http"
	signingHTTP "github.com/skatamatic/blulok-cloud-sub010/internal/signing/http"
)

// initHandlers assembles the API handler set for the HTTP server.
func (c *Container) initHandlers(ctx context.Context) (*http.Handlers, error) {
	logger := c.Logger()

	issuerUseCase, err := c.IssuerUseCase(ctx)
	if err != nil {
		return nil, err
	}

	historyUseCase, err := c.HistoryUseCase()
	if err != nil {
		return nil, err
	}

	rotationUseCase, err := c.RotationUseCase()
	if err != nil {
		return nil, err
	}

	denylistEngine, err := c.DenylistEngine(ctx)
	if err != nil {
		return nil, err
	}

	authority, err := c.Authority(ctx)
	if err != nil {
		return nil, err
	}

	hub := c.Hub()

	return &http.Handlers{
		RoutePass:   routePassHTTP.NewRoutePassHandler(issuerUseCase, historyUseCase, logger),
		KeyRotation: signingHTTP.NewKeyRotationHandler(rotationUseCase, logger),
		Denylist:    denylistHTTP.NewDenylistHandler(denylistEngine, hub, logger),
		Command:     gatewayHTTP.NewCommandHandler(authority, hub, logger),
		Gateway:     gatewayHTTP.NewGatewayHandler(hub, logger),
		Facilities:  hub,
	}, nil
}
