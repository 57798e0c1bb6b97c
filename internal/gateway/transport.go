// Package gateway implements delivery of signed command packets to connected
// facility gateways. The hub carries no business logic: durability lives in
// the database-first design of the callers, so delivery is best effort and a
// disconnected facility is not an error the caller must handle.
package gateway

import (
	"context"

	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// Transport delivers command packets to facility gateways.
type Transport interface {
	// UnicastToFacility delivers to the gateway(s) currently connected for a
	// facility. Returns ErrTransportUnavailable (logged, non-fatal) when none
	// are connected.
	UnicastToFacility(ctx context.Context, facilityID string, packet *signingDomain.CommandPacket) error

	// Broadcast delivers to every currently connected gateway. Used only for
	// system-wide packets such as key rotation.
	Broadcast(ctx context.Context, packet *signingDomain.CommandPacket) error
}

// Session is one connected facility gateway channel.
type Session interface {
	// ID uniquely identifies the session for registration bookkeeping.
	ID() string

	// FacilityID is the facility this gateway serves.
	FacilityID() string

	// Send writes one wire envelope to the gateway. Must not block past ctx.
	Send(ctx context.Context, message []byte) error

	// Close releases the session. Safe to call more than once.
	Close() error
}
