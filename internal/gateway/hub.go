package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// Hub tracks connected gateway sessions and fans signed packets out to them.
// A session that fails or exceeds the send timeout is dropped from the hub;
// the failure never propagates to the caller beyond ErrTransportUnavailable
// when nothing was reachable at all.
type Hub struct {
	mu          sync.RWMutex
	sessions    map[string]Session
	sendTimeout time.Duration
	logger      *slog.Logger
}

// NewHub creates a new gateway hub. sendTimeout bounds each individual
// session send.
func NewHub(sendTimeout time.Duration, logger *slog.Logger) *Hub {
	return &Hub{
		sessions:    make(map[string]Session),
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// Register adds a connected gateway session.
func (h *Hub) Register(session Session) {
	h.mu.Lock()
	h.sessions[session.ID()] = session
	h.mu.Unlock()

	h.logger.Info("gateway connected",
		slog.String("session_id", session.ID()),
		slog.String("facility_id", session.FacilityID()),
	)
}

// Deregister removes a gateway session and closes it.
func (h *Hub) Deregister(sessionID string) {
	h.mu.Lock()
	session, ok := h.sessions[sessionID]
	delete(h.sessions, sessionID)
	h.mu.Unlock()

	if ok {
		_ = session.Close()
		h.logger.Info("gateway disconnected", slog.String("session_id", sessionID))
	}
}

// ConnectedFacilities returns the facility IDs with at least one live session.
func (h *Hub) ConnectedFacilities() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]struct{})
	facilities := make([]string, 0, len(h.sessions))
	for _, session := range h.sessions {
		if _, dup := seen[session.FacilityID()]; dup {
			continue
		}
		seen[session.FacilityID()] = struct{}{}
		facilities = append(facilities, session.FacilityID())
	}
	return facilities
}

// UnicastToFacility delivers a packet to the gateway(s) connected for a
// facility. No-ops with ErrTransportUnavailable when none are connected.
func (h *Hub) UnicastToFacility(
	ctx context.Context,
	facilityID string,
	packet *signingDomain.CommandPacket,
) error {
	message, err := json.Marshal(packet)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode command packet")
	}

	targets := h.facilitySessions(facilityID)
	if len(targets) == 0 {
		h.logger.Warn("no gateway connected for facility",
			slog.String("facility_id", facilityID),
		)
		return apperrors.ErrTransportUnavailable
	}

	h.fanOut(ctx, targets, message)
	return nil
}

// Broadcast delivers a packet to every connected gateway. Returns
// ErrTransportUnavailable when no gateway is connected at all.
func (h *Hub) Broadcast(ctx context.Context, packet *signingDomain.CommandPacket) error {
	message, err := json.Marshal(packet)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode command packet")
	}

	h.mu.RLock()
	targets := make([]Session, 0, len(h.sessions))
	for _, session := range h.sessions {
		targets = append(targets, session)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		h.logger.Warn("broadcast with no connected gateways")
		return apperrors.ErrTransportUnavailable
	}

	h.fanOut(ctx, targets, message)
	return nil
}

// Close deregisters and closes every session.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]Session)
	h.mu.Unlock()

	for _, session := range sessions {
		_ = session.Close()
	}
}

// facilitySessions snapshots the live sessions for one facility.
func (h *Hub) facilitySessions(facilityID string) []Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := make([]Session, 0, 1)
	for _, session := range h.sessions {
		if session.FacilityID() == facilityID {
			targets = append(targets, session)
		}
	}
	return targets
}

// fanOut sends the message to each target concurrently. A failing or stale
// session is dropped from the hub; errors are logged, never raised.
func (h *Hub) fanOut(ctx context.Context, targets []Session, message []byte) {
	group, groupCtx := errgroup.WithContext(ctx)

	for _, session := range targets {
		group.Go(func() error {
			sendCtx, cancel := context.WithTimeout(groupCtx, h.sendTimeout)
			defer cancel()

			if err := session.Send(sendCtx, message); err != nil {
				h.logger.Warn("dropping stale gateway session",
					slog.String("session_id", session.ID()),
					slog.String("facility_id", session.FacilityID()),
					slog.Any("error", err),
				)
				h.Deregister(session.ID())
			}
			return nil
		})
	}

	_ = group.Wait()
}
