package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skatamatic/blulok-cloud-sub010/internal/denylist/domain"
	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// denylistEngine implements DenylistEngine. Every call mutates the database;
// the policy only decides whether a packet is also built and returned.
type denylistEngine struct {
	routePassTTL time.Duration
	repo         DenylistRepository
	policy       OptimizationPolicy
	signer       CommandSigner
	logger       *slog.Logger
}

// NewDenylistEngine creates a new revocation engine. routePassTTL bounds the
// lifetime of any outstanding route pass, so it also bounds how long a
// denylist entry is meaningful.
func NewDenylistEngine(
	routePassTTL time.Duration,
	repo DenylistRepository,
	policy OptimizationPolicy,
	signer CommandSigner,
	logger *slog.Logger,
) DenylistEngine {
	return &denylistEngine{
		routePassTTL: routePassTTL,
		repo:         repo,
		policy:       policy,
		signer:       signer,
		logger:       logger,
	}
}

// GrantLoss revokes userID on the given devices: upserts one entry per device
// in a single batch, then builds a signed DENYLIST_ADD unless the policy says
// no device could act on it.
func (e *denylistEngine) GrantLoss(
	ctx context.Context,
	userID string,
	deviceIDs []string,
	meta domain.EventMeta,
) (*signingDomain.CommandPacket, error) {
	if len(deviceIDs) == 0 {
		return nil, nil
	}

	expiresAt := time.Now().Add(e.routePassTTL)

	entries, err := domain.NewEntries(userID, deviceIDs, expiresAt, meta)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build denylist entries")
	}

	if err := e.repo.UpsertBatch(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to upsert denylist entries: %w: %w", apperrors.ErrStorageFailure, err)
	}

	skip, err := e.policy.ShouldSkipAdd(ctx, userID)
	if err != nil {
		e.logger.Warn("optimization policy unavailable, sending anyway",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		skip = false
	}
	if skip {
		e.logger.Debug("denylist add persisted, send skipped",
			slog.String("user_id", userID),
			slog.Int("devices", len(deviceIDs)),
		)
		return nil, nil
	}

	payload := signingDomain.NewDenylistAdd(userID, expiresAt.Unix(), deviceIDs)
	packet, err := e.signer.SignCommand(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to sign denylist add")
	}

	return packet, nil
}

// GrantRestoration restores userID on the given devices: deletes the matching
// entries in one batch, then builds a signed DENYLIST_REMOVE covering the
// entries a device could still be honoring. Restoring access that was never
// revoked is a no-op.
func (e *denylistEngine) GrantRestoration(
	ctx context.Context,
	userID string,
	deviceIDs []string,
) (*signingDomain.CommandPacket, error) {
	if len(deviceIDs) == 0 {
		return nil, nil
	}

	existing, err := e.repo.FindActive(ctx, userID, deviceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to look up denylist entries: %w: %w", apperrors.ErrStorageFailure, err)
	}
	if len(existing) == 0 {
		return nil, nil
	}

	foundDeviceIDs := make([]string, 0, len(existing))
	for _, entry := range existing {
		foundDeviceIDs = append(foundDeviceIDs, entry.DeviceID)
	}

	if err := e.repo.DeleteBatch(ctx, userID, foundDeviceIDs); err != nil {
		return nil, fmt.Errorf("failed to delete denylist entries: %w: %w", apperrors.ErrStorageFailure, err)
	}

	now := time.Now()
	targetDeviceIDs := make([]string, 0, len(existing))
	for _, entry := range existing {
		if e.policy.ShouldSkipRemove(entry, now) {
			continue
		}
		targetDeviceIDs = append(targetDeviceIDs, entry.DeviceID)
	}

	if len(targetDeviceIDs) == 0 {
		e.logger.Debug("denylist remove persisted, send skipped",
			slog.String("user_id", userID),
			slog.Int("devices", len(foundDeviceIDs)),
		)
		return nil, nil
	}

	payload := signingDomain.NewDenylistRemove(userID, targetDeviceIDs)
	packet, err := e.signer.SignCommand(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to sign denylist remove")
	}

	return packet, nil
}
