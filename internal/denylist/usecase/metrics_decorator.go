package usecase

import (
	"context"
	"time"

	"github.com/skatamatic/blulok-cloud-sub010/internal/denylist/domain"
	"github.com/skatamatic/blulok-cloud-sub010/internal/metrics"
	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// denylistEngineWithMetrics decorates DenylistEngine with metrics instrumentation.
// The skipped status distinguishes "persisted without a send" from full sends,
// so the audit-always, send-sometimes split stays observable.
type denylistEngineWithMetrics struct {
	next    DenylistEngine
	metrics metrics.BusinessMetrics
}

// NewDenylistEngineWithMetrics wraps a DenylistEngine with metrics recording.
func NewDenylistEngineWithMetrics(engine DenylistEngine, m metrics.BusinessMetrics) DenylistEngine {
	return &denylistEngineWithMetrics{
		next:    engine,
		metrics: m,
	}
}

// GrantLoss records metrics for revocation operations.
func (e *denylistEngineWithMetrics) GrantLoss(
	ctx context.Context,
	userID string,
	deviceIDs []string,
	meta domain.EventMeta,
) (*signingDomain.CommandPacket, error) {
	start := time.Now()
	packet, err := e.next.GrantLoss(ctx, userID, deviceIDs, meta)

	status := grantStatus(packet, err)
	e.metrics.RecordOperation(ctx, "denylist", "grant_loss", status)
	e.metrics.RecordDuration(ctx, "denylist", "grant_loss", time.Since(start), status)

	return packet, err
}

// GrantRestoration records metrics for restoration operations.
func (e *denylistEngineWithMetrics) GrantRestoration(
	ctx context.Context,
	userID string,
	deviceIDs []string,
) (*signingDomain.CommandPacket, error) {
	start := time.Now()
	packet, err := e.next.GrantRestoration(ctx, userID, deviceIDs)

	status := grantStatus(packet, err)
	e.metrics.RecordOperation(ctx, "denylist", "grant_restoration", status)
	e.metrics.RecordDuration(ctx, "denylist", "grant_restoration", time.Since(start), status)

	return packet, err
}

func grantStatus(packet *signingDomain.CommandPacket, err error) string {
	switch {
	case err != nil:
		return "error"
	case packet == nil:
		return "skipped"
	default:
		return "success"
	}
}
