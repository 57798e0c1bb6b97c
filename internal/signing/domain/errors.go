package domain

import "errors"

// Signing domain errors. Signature, format and replay failures are terminal
// for the triggering request and are never retried.
var (
	// ErrInvalidSignature indicates a signature does not verify against the
	// expected public key.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrExpired indicates a token's exp claim is in the past.
	ErrExpired = errors.New("token expired")

	// ErrMalformedToken indicates a token is structurally invalid.
	ErrMalformedToken = errors.New("malformed token")

	// ErrRotationReplay indicates a rotation timestamp at or below the
	// persisted watermark.
	ErrRotationReplay = errors.New("rotation timestamp replay")

	// ErrKeyStateNotFound indicates the signing key state row has not been
	// initialized yet.
	ErrKeyStateNotFound = errors.New("signing key state not found")
)
