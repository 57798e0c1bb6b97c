// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
	customValidation "github.com/skatamatic/blulok-cloud-sub010/internal/validation"
)

// UnicastCommandRequest contains the parameters for an operator-initiated
// device command.
type UnicastCommandRequest struct {
	CmdType         string   `json:"cmd_type" binding:"required"`
	FacilityID      string   `json:"facility_id" binding:"required"`
	TargetDeviceIDs []string `json:"target_device_ids" binding:"required"`
}

// Validate checks if the unicast command request is valid.
func (r *UnicastCommandRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CmdType,
			validation.Required,
			validation.In(
				string(signingDomain.CmdLock),
				string(signingDomain.CmdUnlock),
				string(signingDomain.CmdPing),
			),
		),
		validation.Field(&r.FacilityID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
		),
		validation.Field(&r.TargetDeviceIDs,
			validation.Required,
			validation.Length(1, 0),
			customValidation.Identifiers,
		),
	)
}
