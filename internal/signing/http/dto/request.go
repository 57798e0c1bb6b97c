// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/skatamatic/blulok-cloud-sub010/internal/validation"
)

// RotateOperationsKeyRequest contains the parameters for an operations key
// rotation ceremony. All fields are optional: an empty body runs the managed
// flow with a generated key pair and the current time as watermark.
type RotateOperationsKeyRequest struct {
	RootPrivateKey string `json:"root_private_key"`
	Ts             int64  `json:"ts"`
}

// Validate checks if the rotate operations key request is valid.
func (r *RotateOperationsKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RootPrivateKey,
			customValidation.Base64,
		),
		validation.Field(&r.Ts,
			validation.Min(int64(0)),
		),
	)
}
