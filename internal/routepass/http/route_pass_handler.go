// Package http provides HTTP handlers for route pass issuance and history.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skatamatic/blulok-cloud-sub010/internal/httputil"
	"github.com/skatamatic/blulok-cloud-sub010/internal/routepass/domain"
	"github.com/skatamatic/blulok-cloud-sub010/internal/routepass/http/dto"
	routePassUseCase "github.com/skatamatic/blulok-cloud-sub010/internal/routepass/usecase"
	customValidation "github.com/skatamatic/blulok-cloud-sub010/internal/validation"
)

// RoutePassHandler handles HTTP requests for route pass operations.
type RoutePassHandler struct {
	issuer  routePassUseCase.IssuerUseCase
	history routePassUseCase.HistoryUseCase
	logger  *slog.Logger
}

// NewRoutePassHandler creates a new route pass handler with required dependencies.
func NewRoutePassHandler(
	issuer routePassUseCase.IssuerUseCase,
	history routePassUseCase.HistoryUseCase,
	logger *slog.Logger,
) *RoutePassHandler {
	return &RoutePassHandler{
		issuer:  issuer,
		history: history,
		logger:  logger,
	}
}

// IssueHandler mints a short lived route pass for the requesting identity.
// POST /v1/route-passes
func (h *RoutePassHandler) IssueHandler(c *gin.Context) {
	var req dto.IssueRoutePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	pass, err := h.issuer.IssueForUser(c.Request.Context(), req.Identity(), req.DevicePublicKey)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.NewRoutePassResponse(pass))
}

// HistoryHandler lists the issuance audit log for a user.
// GET /v1/route-passes?user_id=&offset=&limit=&start_date=&end_date=
func (h *RoutePassHandler) HistoryHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	startDate, endDate, err := httputil.ParseDateRange(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	filter := domain.HistoryFilter{
		UserID:    c.Query("user_id"),
		StartDate: startDate,
		EndDate:   endDate,
		Offset:    offset,
		Limit:     limit,
	}

	issuances, total, err := h.history.History(c.Request.Context(), filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.NewIssuanceListResponse(issuances, total, offset, limit))
}
