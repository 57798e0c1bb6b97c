// Package usecase implements route pass orchestration: audience scoping by
// role, schedule-clamped expiry, device binding, and the append-only issuance
// audit trail.
package usecase

import (
	"context"

	"github.com/skatamatic/blulok-cloud-sub010/internal/routepass/domain"
	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// RoutePassRepository defines issuance audit repository operations.
type RoutePassRepository interface {
	Create(ctx context.Context, issuance *domain.RoutePassIssuance) error
	List(ctx context.Context, filter domain.HistoryFilter) ([]*domain.RoutePassIssuance, error)
	Count(ctx context.Context, filter domain.HistoryFilter) (int64, error)
}

// TokenSigner mints signed route pass tokens with the operations key.
type TokenSigner interface {
	SignRoutePass(claims *signingDomain.TokenClaims) (string, error)
}

// IssuerUseCase defines the interface for route pass issuance.
type IssuerUseCase interface {
	// IssueForUser mints a signed, audience-scoped, device-bound pass.
	// Single shot: a retrying caller gets a fresh pass with a new jti.
	IssueForUser(ctx context.Context, identity domain.Identity, devicePublicKeyHint string) (*domain.RoutePass, error)
}

// HistoryUseCase defines the interface for issuance history queries.
type HistoryUseCase interface {
	History(ctx context.Context, filter domain.HistoryFilter) ([]*domain.RoutePassIssuance, int64, error)
}
