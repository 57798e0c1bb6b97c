// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/skatamatic/blulok-cloud-sub010/internal/validation"
)

// AddDenylistRequest contains the parameters for a manual revocation.
type AddDenylistRequest struct {
	UserID     string   `json:"user_id" binding:"required"`
	DeviceIDs  []string `json:"device_ids" binding:"required"`
	FacilityID string   `json:"facility_id" binding:"required"`
	CreatedBy  string   `json:"created_by"`
}

// Validate checks if the add denylist request is valid.
func (r *AddDenylistRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
		),
		validation.Field(&r.DeviceIDs,
			validation.Required,
			validation.Length(1, 0),
			customValidation.Identifiers,
		),
		validation.Field(&r.FacilityID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
		),
	)
}

// RemoveDenylistRequest contains the parameters for a manual restoration.
type RemoveDenylistRequest struct {
	UserID     string   `json:"user_id" binding:"required"`
	DeviceIDs  []string `json:"device_ids" binding:"required"`
	FacilityID string   `json:"facility_id" binding:"required"`
}

// Validate checks if the remove denylist request is valid.
func (r *RemoveDenylistRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
		),
		validation.Field(&r.DeviceIDs,
			validation.Required,
			validation.Length(1, 0),
			customValidation.Identifiers,
		),
		validation.Field(&r.FacilityID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
		),
	)
}
