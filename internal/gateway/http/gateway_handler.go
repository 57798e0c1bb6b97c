// Package http provides the gateway attach endpoint. A facility gateway
// opens a long-lived SSE stream and receives signed command packets as they
// are produced.
package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skatamatic/blulok-cloud-sub010/internal/gateway"
)

// hub is the registration surface the handler needs from the gateway hub.
type hub interface {
	Register(session gateway.Session)
	Deregister(sessionID string)
}

// GatewayHandler handles gateway attach streams.
type GatewayHandler struct {
	hub    hub
	logger *slog.Logger
}

// NewGatewayHandler creates a new gateway handler.
func NewGatewayHandler(h hub, logger *slog.Logger) *GatewayHandler {
	return &GatewayHandler{hub: h, logger: logger}
}

// AttachHandler streams command packets to a facility gateway.
// GET /v1/gateways/:facility_id/commands
// The stream stays open until the gateway disconnects; each event carries one
// wire envelope.
func (h *GatewayHandler) AttachHandler(c *gin.Context) {
	facilityID := c.Param("facility_id")

	session := gateway.NewChannelSession(facilityID)
	h.hub.Register(session)
	defer h.hub.Deregister(session.ID())

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case message, open := <-session.Messages():
			if !open {
				return false
			}
			c.SSEvent("command", string(message))
			return true
		case <-session.Done():
			return false
		case <-clientGone:
			h.logger.Debug("gateway stream closed by client",
				slog.String("facility_id", facilityID),
				slog.String("session_id", session.ID()),
			)
			return false
		}
	})
}
