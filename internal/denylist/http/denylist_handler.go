// Package http provides HTTP handlers for manual denylist administration.
// These endpoints drive the same engine the tenancy listener uses, with
// source = manual for attribution.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skatamatic/blulok-cloud-sub010/internal/denylist/domain"
	"github.com/skatamatic/blulok-cloud-sub010/internal/denylist/http/dto"
	denylistUseCase "github.com/skatamatic/blulok-cloud-sub010/internal/denylist/usecase"
	"github.com/skatamatic/blulok-cloud-sub010/internal/gateway"
	"github.com/skatamatic/blulok-cloud-sub010/internal/httputil"
	customValidation "github.com/skatamatic/blulok-cloud-sub010/internal/validation"
)

// defaultCreatedBy attributes manual entries when the request names no actor.
const defaultCreatedBy = "admin-api"

// DenylistHandler handles HTTP requests for manual denylist administration.
type DenylistHandler struct {
	engine    denylistUseCase.DenylistEngine
	transport gateway.Transport
	logger    *slog.Logger
}

// NewDenylistHandler creates a new denylist handler with required dependencies.
func NewDenylistHandler(
	engine denylistUseCase.DenylistEngine,
	transport gateway.Transport,
	logger *slog.Logger,
) *DenylistHandler {
	return &DenylistHandler{
		engine:    engine,
		transport: transport,
		logger:    logger,
	}
}

// AddHandler revokes a user's access to the given devices ahead of pass expiry.
// POST /v1/denylist
// Returns 201 Created once the entries are persisted; Sent reports whether a
// packet also reached a gateway.
func (h *DenylistHandler) AddHandler(c *gin.Context) {
	var req dto.AddDenylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = defaultCreatedBy
	}

	meta := domain.EventMeta{
		CreatedBy: createdBy,
		Source:    domain.SourceManual,
	}

	packet, err := h.engine.GrantLoss(c.Request.Context(), req.UserID, req.DeviceIDs, meta)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	sent := false
	if packet != nil {
		if err := h.transport.UnicastToFacility(c.Request.Context(), req.FacilityID, packet); err != nil {
			h.logger.Warn("denylist add persisted, device not yet notified",
				slog.String("user_id", req.UserID),
				slog.String("facility_id", req.FacilityID),
				slog.Any("error", err),
			)
		} else {
			sent = true
		}
	}

	c.JSON(http.StatusCreated, dto.DenylistMutationResponse{
		UserID:    req.UserID,
		DeviceIDs: req.DeviceIDs,
		Sent:      sent,
	})
}

// RemoveHandler restores a user's access by clearing denylist entries.
// DELETE /v1/denylist
func (h *DenylistHandler) RemoveHandler(c *gin.Context) {
	var req dto.RemoveDenylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	packet, err := h.engine.GrantRestoration(c.Request.Context(), req.UserID, req.DeviceIDs)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	sent := false
	if packet != nil {
		if err := h.transport.UnicastToFacility(c.Request.Context(), req.FacilityID, packet); err != nil {
			h.logger.Warn("denylist remove persisted, device not yet notified",
				slog.String("user_id", req.UserID),
				slog.String("facility_id", req.FacilityID),
				slog.Any("error", err),
			)
		} else {
			sent = true
		}
	}

	c.JSON(http.StatusOK, dto.DenylistMutationResponse{
		UserID:    req.UserID,
		DeviceIDs: req.DeviceIDs,
		Sent:      sent,
	})
}
