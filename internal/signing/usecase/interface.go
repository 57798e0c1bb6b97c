// Package usecase implements signing key lifecycle orchestration: initial key
// ceremony and replay-guarded operations key rotation.
package usecase

import (
	"context"

	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// KeyStateRepository defines persistence for the signing key state row.
type KeyStateRepository interface {
	// Get loads the key state; ErrKeyStateNotFound when uninitialized.
	Get(ctx context.Context) (*signingDomain.KeyState, error)

	// Initialize inserts the key state row; ErrConflict when already present.
	Initialize(ctx context.Context, state *signingDomain.KeyState) error

	// AdvanceRotation atomically moves the watermark to ts and installs the
	// new operations key material; ErrRotationReplay when ts does not
	// strictly advance the watermark.
	AdvanceRotation(ctx context.Context, ts int64, operationsPublicKey, encryptedOperationsSeed []byte) error
}

// Broadcaster delivers a packet to every currently connected gateway.
// Satisfied by the gateway hub; delivery is best effort.
type Broadcaster interface {
	Broadcast(ctx context.Context, packet *signingDomain.CommandPacket) error
}

// OperationsKeyInstaller feeds the rotated operations seed into the live
// signing authority so the process signs with the new key immediately,
// without a restart. Called only after the rotation has been persisted.
type OperationsKeyInstaller interface {
	InstallOperationsKey(operationsSeed []byte) error
}

// RotationUseCase drives the signing key ceremonies.
type RotationUseCase interface {
	// InitializeKeys runs the first-boot key ceremony: generates the root and
	// operations key pairs, wraps them through the configured KMS, and
	// persists the initial key state.
	InitializeKeys(ctx context.Context) (*InitializeKeysOutput, error)

	// RotateOperationsKey replaces the operations key, signing the
	// announcement with the root key and broadcasting it to all gateways.
	RotateOperationsKey(ctx context.Context, input *RotateInput) (*RotateOutput, error)
}

// RotateInput selects the rotation flow.
//
// When RootPrivateKey is set the legacy flow signs with the caller-supplied
// key. When empty, the managed flow unwraps the root seed from the configured
// KMS ciphertext. The new operations pair is always generated here: the
// service signs passes and commands with the private half, so it must retain
// custody of the seed.
type RotateInput struct {
	RootPrivateKey string // base64 seed or full private key
	Ts             int64  // unix seconds; 0 means now
}

// RotateOutput carries the signed rotation packet and, in a non-KMS ceremony,
// the generated seed the operator must take custody of.
type RotateOutput struct {
	Payload             *signingDomain.RotateOperationsKeyCommand
	Packet              *signingDomain.CommandPacket
	GeneratedPublicKey  string // base64
	GeneratedPrivateKey string // base64 seed, only without a KMS
}

// InitializeKeysOutput is the result of the first-boot key ceremony.
type InitializeKeysOutput struct {
	RootPublicKey       string // base64, to burn into device firmware images
	RootKeyCiphertext   string // base64 KMS-wrapped root seed for deployment config
	RootPrivateKey      string // base64 seed; only set when no KMS is configured
	OperationsPublicKey string // base64
}
