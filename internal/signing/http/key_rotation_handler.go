// Package http provides HTTP handlers for signing key administration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
	"github.com/skatamatic/blulok-cloud-sub010/internal/httputil"
	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
	"github.com/skatamatic/blulok-cloud-sub010/internal/signing/http/dto"
	signingUseCase "github.com/skatamatic/blulok-cloud-sub010/internal/signing/usecase"
	customValidation "github.com/skatamatic/blulok-cloud-sub010/internal/validation"
)

// KeyRotationHandler handles HTTP requests for the operations key ceremony.
type KeyRotationHandler struct {
	rotation signingUseCase.RotationUseCase
	logger   *slog.Logger
}

// NewKeyRotationHandler creates a new key rotation handler with required dependencies.
func NewKeyRotationHandler(rotation signingUseCase.RotationUseCase, logger *slog.Logger) *KeyRotationHandler {
	return &KeyRotationHandler{
		rotation: rotation,
		logger:   logger,
	}
}

// RotateHandler runs an operations key rotation ceremony.
// POST /v1/keys/rotate
// An empty body runs the managed flow: root key unwrapped from the KMS, fresh
// operations pair generated and persisted.
func (h *KeyRotationHandler) RotateHandler(c *gin.Context) {
	var req dto.RotateOperationsKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	output, err := h.rotation.RotateOperationsKey(c.Request.Context(), &signingUseCase.RotateInput{
		RootPrivateKey: req.RootPrivateKey,
		Ts:             req.Ts,
	})
	if err != nil {
		if apperrors.Is(err, signingDomain.ErrRotationReplay) {
			httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrConflict, err.Error()), h.logger)
			return
		}
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.NewRotateOperationsKeyResponse(output))
}
