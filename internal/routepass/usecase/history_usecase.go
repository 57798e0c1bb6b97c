package usecase

import (
	"context"

	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
	"github.com/skatamatic/blulok-cloud-sub010/internal/routepass/domain"
)

// historyUseCase implements HistoryUseCase over the issuance audit log.
type historyUseCase struct {
	repo RoutePassRepository
}

// NewHistoryUseCase creates a new history use case.
func NewHistoryUseCase(repo RoutePassRepository) HistoryUseCase {
	return &historyUseCase{repo: repo}
}

// History returns one page of issuance rows plus the unpaginated total.
func (uc *historyUseCase) History(
	ctx context.Context,
	filter domain.HistoryFilter,
) ([]*domain.RoutePassIssuance, int64, error) {
	if filter.UserID == "" {
		return nil, 0, apperrors.Wrap(apperrors.ErrInvalidInput, "user_id is required")
	}

	issuances, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "failed to list issuances")
	}

	total, err := uc.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "failed to count issuances")
	}

	return issuances, total, nil
}
