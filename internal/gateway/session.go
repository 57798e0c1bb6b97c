package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
)

// defaultSessionBuffer bounds how many undelivered envelopes a gateway may
// fall behind before the hub treats the session as stale.
const defaultSessionBuffer = 16

// ChannelSession is a Session backed by a buffered channel. The attach
// handler drains Messages into the HTTP response stream; a consumer that
// stops draining makes Send fail once the buffer fills.
type ChannelSession struct {
	id         string
	facilityID string
	messages   chan []byte
	closeOnce  sync.Once
	done       chan struct{}
}

// NewChannelSession creates a session for a facility gateway connection.
func NewChannelSession(facilityID string) *ChannelSession {
	id, _ := uuid.NewV7()
	return &ChannelSession{
		id:         id.String(),
		facilityID: facilityID,
		messages:   make(chan []byte, defaultSessionBuffer),
		done:       make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *ChannelSession) ID() string {
	return s.id
}

// FacilityID returns the facility this session serves.
func (s *ChannelSession) FacilityID() string {
	return s.facilityID
}

// Send enqueues one wire envelope for the consumer.
func (s *ChannelSession) Send(ctx context.Context, message []byte) error {
	select {
	case <-s.done:
		return apperrors.New("gateway session closed")
	default:
	}

	select {
	case s.messages <- message:
		return nil
	case <-s.done:
		return apperrors.New("gateway session closed")
	case <-ctx.Done():
		return apperrors.Wrap(ctx.Err(), "gateway send timed out")
	}
}

// Messages is the consumer side of the session.
func (s *ChannelSession) Messages() <-chan []byte {
	return s.messages
}

// Done is closed when the session is closed.
func (s *ChannelSession) Done() <-chan struct{} {
	return s.done
}

// Close marks the session closed. Safe to call more than once.
func (s *ChannelSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}
