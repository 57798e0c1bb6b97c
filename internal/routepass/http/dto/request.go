// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/skatamatic/blulok-cloud-sub010/internal/routepass/domain"
	customValidation "github.com/skatamatic/blulok-cloud-sub010/internal/validation"
)

// IssueRoutePassRequest contains the parameters for minting a route pass.
type IssueRoutePassRequest struct {
	UserID          string   `json:"user_id" binding:"required"`
	Role            string   `json:"role" binding:"required"`
	FacilityIDs     []string `json:"facility_ids"`
	DevicePublicKey string   `json:"device_public_key" binding:"required"`
}

// Validate checks if the issue route pass request is valid.
func (r *IssueRoutePassRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
		),
		validation.Field(&r.Role,
			validation.Required,
			validation.In(
				string(domain.RoleAdmin),
				string(domain.RoleDevAdmin),
				string(domain.RoleFacilityAdmin),
				string(domain.RoleTenant),
				string(domain.RoleMaintenance),
			),
		),
		validation.Field(&r.FacilityIDs,
			customValidation.Identifiers,
		),
		validation.Field(&r.DevicePublicKey,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// Identity converts the request into a domain identity.
func (r *IssueRoutePassRequest) Identity() domain.Identity {
	return domain.Identity{
		UserID:      r.UserID,
		Role:        domain.Role(r.Role),
		FacilityIDs: r.FacilityIDs,
	}
}
