package dto

import (
	"time"

	"github.com/skatamatic/blulok-cloud-sub010/internal/routepass/domain"
)

// RoutePassResponse represents a freshly minted route pass.
type RoutePassResponse struct {
	Token     string    `json:"token"`
	Audiences []string  `json:"audiences"`
	ExpiresAt time.Time `json:"expires_at"`
	Jti       string    `json:"jti"`
}

// NewRoutePassResponse creates a response from a domain route pass.
func NewRoutePassResponse(pass *domain.RoutePass) RoutePassResponse {
	return RoutePassResponse{
		Token:     pass.Token,
		Audiences: pass.Audiences,
		ExpiresAt: pass.ExpiresAt,
		Jti:       pass.Jti,
	}
}

// IssuanceResponse represents one row of the issuance audit log.
type IssuanceResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id"`
	Audiences []string  `json:"audiences"`
	Jti       string    `json:"jti"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssuanceListResponse represents a paginated page of issuance rows.
type IssuanceListResponse struct {
	Issuances []IssuanceResponse `json:"issuances"`
	Total     int64              `json:"total"`
	Offset    int                `json:"offset"`
	Limit     int                `json:"limit"`
}

// NewIssuanceListResponse creates a paginated response from domain issuances.
func NewIssuanceListResponse(
	issuances []*domain.RoutePassIssuance,
	total int64,
	offset, limit int,
) IssuanceListResponse {
	items := make([]IssuanceResponse, len(issuances))
	for i, issuance := range issuances {
		items[i] = IssuanceResponse{
			ID:        issuance.ID.String(),
			UserID:    issuance.UserID,
			DeviceID:  issuance.DeviceID,
			Audiences: issuance.Audiences,
			Jti:       issuance.Jti,
			IssuedAt:  issuance.IssuedAt,
			ExpiresAt: issuance.ExpiresAt,
		}
	}
	return IssuanceListResponse{
		Issuances: items,
		Total:     total,
		Offset:    offset,
		Limit:     limit,
	}
}
