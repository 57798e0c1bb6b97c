package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skatamatic/blulok-cloud-sub010/internal/gateway"
	"github.com/skatamatic/blulok-cloud-sub010/internal/gateway/http/dto"
	"github.com/skatamatic/blulok-cloud-sub010/internal/httputil"
	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
	customValidation "github.com/skatamatic/blulok-cloud-sub010/internal/validation"
)

// CommandSigner signs a command payload into a wire-ready packet with the
// current operations key.
type CommandSigner interface {
	SignCommand(payload any) (*signingDomain.CommandPacket, error)
}

// CommandHandler handles operator-initiated device commands.
type CommandHandler struct {
	signer    CommandSigner
	transport gateway.Transport
	logger    *slog.Logger
}

// NewCommandHandler creates a new command handler with required dependencies.
func NewCommandHandler(
	signer CommandSigner,
	transport gateway.Transport,
	logger *slog.Logger,
) *CommandHandler {
	return &CommandHandler{
		signer:    signer,
		transport: transport,
		logger:    logger,
	}
}

// UnicastHandler signs and delivers a LOCK, UNLOCK or PING command to the
// gateway serving a facility.
// POST /v1/commands/unicast
// Returns 503 when no gateway for the facility is connected: unlike the
// revocation path, an operator command has no denylist row to fall back on,
// so an undeliverable command is an error.
func (h *CommandHandler) UnicastHandler(c *gin.Context) {
	var req dto.UnicastCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	cmdType, ok := signingDomain.ParseDeviceCmdType(req.CmdType)
	if !ok {
		httputil.HandleBadRequestGin(c, fmt.Errorf("unsupported cmd_type %q", req.CmdType), h.logger)
		return
	}

	payload := signingDomain.NewDeviceCommand(cmdType, req.TargetDeviceIDs)

	packet, err := h.signer.SignCommand(payload)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if err := h.transport.UnicastToFacility(c.Request.Context(), req.FacilityID, packet); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.UnicastCommandResponse{
		CmdType:         string(cmdType),
		FacilityID:      req.FacilityID,
		TargetDeviceIDs: req.TargetDeviceIDs,
	})
}
