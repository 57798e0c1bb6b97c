package usecase

import (
	"context"
	"time"

	"github.com/skatamatic/blulok-cloud-sub010/internal/metrics"
	"github.com/skatamatic/blulok-cloud-sub010/internal/routepass/domain"
)

// issuerUseCaseWithMetrics decorates IssuerUseCase with metrics instrumentation.
type issuerUseCaseWithMetrics struct {
	next    IssuerUseCase
	metrics metrics.BusinessMetrics
}

// NewIssuerUseCaseWithMetrics wraps an IssuerUseCase with metrics recording.
func NewIssuerUseCaseWithMetrics(useCase IssuerUseCase, m metrics.BusinessMetrics) IssuerUseCase {
	return &issuerUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// IssueForUser records metrics for pass issuance operations.
func (u *issuerUseCaseWithMetrics) IssueForUser(
	ctx context.Context,
	identity domain.Identity,
	devicePublicKeyHint string,
) (*domain.RoutePass, error) {
	start := time.Now()
	pass, err := u.next.IssueForUser(ctx, identity, devicePublicKeyHint)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "routepass", "issue", status)
	u.metrics.RecordDuration(ctx, "routepass", "issue", time.Since(start), status)

	return pass, err
}
