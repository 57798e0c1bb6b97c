// Package usecase implements the revocation engine: durable denylist
// mutations first, signed wire packets second. The database write is the
// record of truth; the packet is an optimization so devices learn about the
// revocation before a gateway reconciles.
package usecase

import (
	"context"
	"time"

	"github.com/skatamatic/blulok-cloud-sub010/internal/denylist/domain"
	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// DenylistRepository defines denylist entry repository operations.
type DenylistRepository interface {
	UpsertBatch(ctx context.Context, entries []*domain.DenylistEntry) error
	FindActive(ctx context.Context, userID string, deviceIDs []string) ([]*domain.DenylistEntry, error)
	DeleteBatch(ctx context.Context, userID string, deviceIDs []string) error
}

// CommandSigner signs routine command payloads with the operations key.
type CommandSigner interface {
	SignCommand(payload any) (*signingDomain.CommandPacket, error)
}

// OptimizationPolicy decides when a durable denylist change needs no wire
// send. Both predicates must be safe to answer "never skip": they reduce
// traffic, they never suppress the durable record.
type OptimizationPolicy interface {
	// ShouldSkipAdd reports whether a DENYLIST_ADD send is redundant for the
	// user, e.g. because no unexpired route pass is outstanding. An error
	// means the answer is unknown; callers treat that as "do not skip".
	ShouldSkipAdd(ctx context.Context, userID string) (bool, error)

	// ShouldSkipRemove reports whether a DENYLIST_REMOVE send is redundant
	// for one entry, e.g. because the entry already expired on-device.
	ShouldSkipRemove(entry *domain.DenylistEntry, now time.Time) bool
}

// OutstandingPassCounter reports how many unexpired route passes a user
// holds. Implemented by the issuance audit repository.
type OutstandingPassCounter interface {
	CountOutstanding(ctx context.Context, userID string, now time.Time) (int64, error)
}

// DenylistEngine defines the interface for revocation operations.
// Both methods return the signed packet to deliver, or nil when the policy
// (or the absence of affected rows) made a send unnecessary.
type DenylistEngine interface {
	GrantLoss(ctx context.Context, userID string, deviceIDs []string, meta domain.EventMeta) (*signingDomain.CommandPacket, error)
	GrantRestoration(ctx context.Context, userID string, deviceIDs []string) (*signingDomain.CommandPacket, error)
}
