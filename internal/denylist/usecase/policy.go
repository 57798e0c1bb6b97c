package usecase

import (
	"context"
	"time"

	"github.com/skatamatic/blulok-cloud-sub010/internal/denylist/domain"
)

// ConservativePolicy never skips a send. This is the safe default: every
// durable change also goes to the wire.
type ConservativePolicy struct{}

// NewConservativePolicy creates a policy that always sends.
func NewConservativePolicy() *ConservativePolicy {
	return &ConservativePolicy{}
}

// ShouldSkipAdd always reports false.
func (p *ConservativePolicy) ShouldSkipAdd(ctx context.Context, userID string) (bool, error) {
	return false, nil
}

// ShouldSkipRemove always reports false.
func (p *ConservativePolicy) ShouldSkipRemove(entry *domain.DenylistEntry, now time.Time) bool {
	return false
}

// OutstandingPassPolicy skips sends that no device could act on: an ADD for a
// user holding no unexpired route pass, or a REMOVE for an entry that already
// lapsed on-device.
type OutstandingPassPolicy struct {
	passes OutstandingPassCounter
}

// NewOutstandingPassPolicy creates the traffic-reducing policy.
func NewOutstandingPassPolicy(passes OutstandingPassCounter) *OutstandingPassPolicy {
	return &OutstandingPassPolicy{passes: passes}
}

// ShouldSkipAdd reports true when the user holds no unexpired route pass, so
// there is nothing a lock could incorrectly accept.
func (p *OutstandingPassPolicy) ShouldSkipAdd(ctx context.Context, userID string) (bool, error) {
	outstanding, err := p.passes.CountOutstanding(ctx, userID, time.Now())
	if err != nil {
		return false, err
	}
	return outstanding == 0, nil
}

// ShouldSkipRemove reports true when the entry's expiry already passed, since
// the lock stopped honoring it on its own.
func (p *OutstandingPassPolicy) ShouldSkipRemove(entry *domain.DenylistEntry, now time.Time) bool {
	return now.After(entry.ExpiresAt)
}
