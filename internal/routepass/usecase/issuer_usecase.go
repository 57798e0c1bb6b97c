package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/skatamatic/blulok-cloud-sub010/internal/directory"
	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
	"github.com/skatamatic/blulok-cloud-sub010/internal/routepass/domain"
	"github.com/skatamatic/blulok-cloud-sub010/internal/schedule"
	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// issuerUseCase implements IssuerUseCase.
type issuerUseCase struct {
	issuerID     string
	routePassTTL time.Duration
	repo         RoutePassRepository
	directory    directory.Directory
	schedule     schedule.Service
	signer       TokenSigner
	logger       *slog.Logger
}

// NewIssuerUseCase creates a new issuer use case. issuerID is the iss claim
// pinned by lock firmware.
func NewIssuerUseCase(
	issuerID string,
	routePassTTL time.Duration,
	repo RoutePassRepository,
	dir directory.Directory,
	sched schedule.Service,
	signer TokenSigner,
	logger *slog.Logger,
) IssuerUseCase {
	return &issuerUseCase{
		issuerID:     issuerID,
		routePassTTL: routePassTTL,
		repo:         repo,
		directory:    dir,
		schedule:     sched,
		signer:       signer,
		logger:       logger,
	}
}

// IssueForUser mints a signed route pass for the identity, bound to the
// requesting device. The audit write is best effort: a failure is surfaced to
// the log, never to the caller holding an already-valid pass.
func (uc *issuerUseCase) IssueForUser(
	ctx context.Context,
	identity domain.Identity,
	devicePublicKeyHint string,
) (*domain.RoutePass, error) {
	requestingDevice, err := uc.bindDevice(ctx, identity.UserID, devicePublicKeyHint)
	if err != nil {
		return nil, err
	}

	audiences, err := uc.audienceFor(ctx, identity)
	if err != nil {
		return nil, err
	}
	if len(audiences) == 0 {
		return nil, domain.ErrNoAccessibleLocks
	}

	now := time.Now()
	expiresAt, err := uc.expiryFor(ctx, identity, now)
	if err != nil {
		return nil, err
	}

	jti, err := uuid.NewV7()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate jti")
	}

	claims := &signingDomain.TokenClaims{
		Iss:             uc.issuerID,
		Sub:             identity.UserID,
		Aud:             audiences,
		Exp:             expiresAt.Unix(),
		Iat:             now.Unix(),
		Jti:             jti.String(),
		DevicePublicKey: devicePublicKeyHint,
	}

	token, err := uc.signer.SignRoutePass(claims)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to sign route pass")
	}

	uc.audit(ctx, identity, requestingDevice, audiences, jti, now, expiresAt)

	return &domain.RoutePass{
		Token:     token,
		Audiences: audiences,
		ExpiresAt: expiresAt,
		Jti:       jti.String(),
	}, nil
}

// bindDevice resolves the requesting device by its public key hint.
func (uc *issuerUseCase) bindDevice(
	ctx context.Context,
	userID string,
	devicePublicKeyHint string,
) (*directory.UserDevice, error) {
	if devicePublicKeyHint == "" {
		return nil, domain.ErrDeviceNotBound
	}

	devices, err := uc.directory.UserDevices(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list user devices")
	}

	for i := range devices {
		if devices[i].PublicKey == devicePublicKeyHint {
			return &devices[i], nil
		}
	}

	return nil, domain.ErrDeviceNotBound
}

// audienceFor computes the lock device IDs the identity may access.
func (uc *issuerUseCase) audienceFor(
	ctx context.Context,
	identity domain.Identity,
) ([]string, error) {
	var audiences []string
	var err error

	switch identity.Role {
	case domain.RoleAdmin, domain.RoleDevAdmin:
		audiences, err = uc.directory.AllLockDevices(ctx)
	case domain.RoleFacilityAdmin:
		audiences, err = uc.directory.DevicesForFacilities(ctx, identity.FacilityIDs)
	case domain.RoleTenant:
		audiences, err = uc.directory.DevicesForTenant(ctx, identity.UserID)
	case domain.RoleMaintenance:
		audiences, err = uc.directory.DevicesGrantedToUser(ctx, identity.UserID)
	default:
		return nil, domain.ErrNoAccessibleLocks
	}

	if err != nil {
		return nil, apperrors.Wrap(err, "failed to compute audience")
	}

	return audiences, nil
}

// expiryFor clamps the pass TTL to the end of the identity's active schedule
// window.
func (uc *issuerUseCase) expiryFor(
	ctx context.Context,
	identity domain.Identity,
	now time.Time,
) (time.Time, error) {
	windowEnd, active, err := uc.schedule.ActiveWindowEnd(ctx, string(identity.Role), now)
	if err != nil {
		return time.Time{}, apperrors.Wrap(err, "failed to resolve schedule window")
	}
	if !active {
		return time.Time{}, domain.ErrOutsideSchedule
	}

	expiresAt := now.Add(uc.routePassTTL)
	if !windowEnd.IsZero() && windowEnd.Before(expiresAt) {
		expiresAt = windowEnd
	}

	return expiresAt, nil
}

// audit appends the issuance row. Failure never invalidates the returned pass.
func (uc *issuerUseCase) audit(
	ctx context.Context,
	identity domain.Identity,
	requestingDevice *directory.UserDevice,
	audiences []string,
	jti uuid.UUID,
	issuedAt time.Time,
	expiresAt time.Time,
) {
	id, err := uuid.NewV7()
	if err != nil {
		uc.logger.Error("failed to generate issuance id", slog.Any("error", err))
		return
	}

	issuance := &domain.RoutePassIssuance{
		ID:        id,
		UserID:    identity.UserID,
		DeviceID:  requestingDevice.ID,
		Audiences: audiences,
		Jti:       jti.String(),
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}

	if err := uc.repo.Create(ctx, issuance); err != nil {
		uc.logger.Error("failed to record route pass issuance",
			slog.String("user_id", identity.UserID),
			slog.String("jti", jti.String()),
			slog.Any("error", err),
		)
	}
}
