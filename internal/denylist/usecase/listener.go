package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/skatamatic/blulok-cloud-sub010/internal/denylist/domain"
	"github.com/skatamatic/blulok-cloud-sub010/internal/directory"
	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
	"github.com/skatamatic/blulok-cloud-sub010/internal/events"
	eventsDomain "github.com/skatamatic/blulok-cloud-sub010/internal/events/domain"
	"github.com/skatamatic/blulok-cloud-sub010/internal/gateway"
	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// metadataActorKey is the event metadata key naming who triggered the change.
const metadataActorKey = "actor"

// defaultActor attributes entries when the event carries no actor metadata.
const defaultActor = "fms-sync"

// AccessRevocationListener drives the revocation engine from tenancy events.
// Constructed once at startup and subscribed to the event bus; handlers for
// independent (tenant, unit) pairs run concurrently and never serialize
// against each other.
type AccessRevocationListener struct {
	engine         DenylistEngine
	directory      directory.Directory
	transport      gateway.Transport
	storageTimeout time.Duration
	logger         *slog.Logger
}

// NewAccessRevocationListener creates a new listener.
func NewAccessRevocationListener(
	engine DenylistEngine,
	dir directory.Directory,
	transport gateway.Transport,
	storageTimeout time.Duration,
	logger *slog.Logger,
) *AccessRevocationListener {
	return &AccessRevocationListener{
		engine:         engine,
		directory:      dir,
		transport:      transport,
		storageTimeout: storageTimeout,
		logger:         logger,
	}
}

// Subscribe registers the listener's handlers on the event bus.
func (l *AccessRevocationListener) Subscribe(bus *events.Bus) {
	bus.Subscribe(eventsDomain.EventTenantUnassigned, l.OnTenantUnassigned)
	bus.Subscribe(eventsDomain.EventTenantAssigned, l.OnTenantAssigned)
}

// OnTenantUnassigned revokes the tenant's access to the unit's lock devices.
// A storage failure is returned so the outbox redelivers the event; a missing
// gateway is logged and swallowed because the database already holds the
// revocation.
func (l *AccessRevocationListener) OnTenantUnassigned(
	ctx context.Context,
	event *eventsDomain.TenantEvent,
) error {
	opCtx, cancel := context.WithTimeout(ctx, l.storageTimeout)
	defer cancel()

	deviceIDs, err := l.directory.DevicesForUnit(opCtx, event.UnitID)
	if err != nil {
		return apperrors.Wrap(err, "failed to resolve unit devices")
	}
	if len(deviceIDs) == 0 {
		return nil
	}

	meta := domain.EventMeta{
		CreatedBy: actorOf(event),
		Source:    domain.SourceUnitUnassignment,
	}

	packet, err := l.engine.GrantLoss(opCtx, event.TenantID, deviceIDs, meta)
	if err != nil {
		l.logger.Error("revocation failed",
			slog.String("tenant_id", event.TenantID),
			slog.String("unit_id", event.UnitID),
			slog.Any("error", err),
		)
		return err
	}
	if packet == nil {
		return nil
	}

	l.deliver(ctx, event, packet)
	return nil
}

// OnTenantAssigned restores the tenant's access to the unit's lock devices by
// clearing any denylist entries left from an earlier unassignment. Restoring
// access that was never revoked sends nothing.
func (l *AccessRevocationListener) OnTenantAssigned(
	ctx context.Context,
	event *eventsDomain.TenantEvent,
) error {
	opCtx, cancel := context.WithTimeout(ctx, l.storageTimeout)
	defer cancel()

	deviceIDs, err := l.directory.DevicesForUnit(opCtx, event.UnitID)
	if err != nil {
		return apperrors.Wrap(err, "failed to resolve unit devices")
	}
	if len(deviceIDs) == 0 {
		return nil
	}

	packet, err := l.engine.GrantRestoration(opCtx, event.TenantID, deviceIDs)
	if err != nil {
		l.logger.Error("restoration failed",
			slog.String("tenant_id", event.TenantID),
			slog.String("unit_id", event.UnitID),
			slog.Any("error", err),
		)
		return err
	}
	if packet == nil {
		return nil
	}

	l.deliver(ctx, event, packet)
	return nil
}

// deliver unicasts the packet to the event's facility. Transport failure is
// non-fatal and never rolls back the committed database change.
func (l *AccessRevocationListener) deliver(
	ctx context.Context,
	event *eventsDomain.TenantEvent,
	packet *signingDomain.CommandPacket,
) {
	if err := l.transport.UnicastToFacility(ctx, event.FacilityID, packet); err != nil {
		l.logger.Warn("revocation persisted, device not yet notified",
			slog.String("tenant_id", event.TenantID),
			slog.String("facility_id", event.FacilityID),
			slog.Any("error", err),
		)
	}
}

// actorOf extracts the triggering actor from event metadata.
func actorOf(event *eventsDomain.TenantEvent) string {
	if actor, ok := event.Metadata[metadataActorKey]; ok && actor != "" {
		return actor
	}
	return defaultActor
}
