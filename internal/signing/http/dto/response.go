package dto

import (
	"github.com/skatamatic/blulok-cloud-sub010/internal/signing/usecase"
)

// RotateOperationsKeyResponse reports the outcome of a rotation ceremony.
// GeneratedPrivateKey is present only when no KMS is configured; the operator
// must take custody of it immediately.
type RotateOperationsKeyResponse struct {
	NewPublicKey        string `json:"new_public_key"`
	Ts                  int64  `json:"ts"`
	RootFingerprint     string `json:"root_fingerprint,omitempty"`
	GeneratedPrivateKey string `json:"generated_private_key,omitempty"`
}

// NewRotateOperationsKeyResponse creates a response from a rotation output.
func NewRotateOperationsKeyResponse(output *usecase.RotateOutput) RotateOperationsKeyResponse {
	return RotateOperationsKeyResponse{
		NewPublicKey:        output.Payload.NewPublicKey,
		Ts:                  output.Payload.Ts,
		RootFingerprint:     output.Payload.RootFingerprint,
		GeneratedPrivateKey: output.GeneratedPrivateKey,
	}
}
