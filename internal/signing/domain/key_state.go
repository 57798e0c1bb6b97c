package domain

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

// KeyState is the persisted signing key state. A single row holds the current
// operations public key, the KMS-wrapped operations seed, the root public key
// burned into lock devices at manufacture, and the rotation watermark.
//
// The root private key is never stored here: it exists only as KMS-wrapped
// ciphertext in deployment configuration and is unwrapped transiently during
// a rotation ceremony.
type KeyState struct {
	// OperationsPublicKey is the current day-to-day signing public key.
	OperationsPublicKey ed25519.PublicKey
	// EncryptedOperationsSeed is the KMS-wrapped 32-byte Ed25519 seed for the
	// operations key. Unwrapped once at process start.
	EncryptedOperationsSeed []byte
	// RootPublicKey verifies ROTATE_OPERATIONS_KEY commands.
	RootPublicKey ed25519.PublicKey
	// LastRotationTS is the monotonically increasing rotation watermark in
	// unix seconds. A rotation with ts <= this value is a replay.
	LastRotationTS int64
	UpdatedAt      time.Time
}

// Fingerprint returns the base64-encoded SHA-256 digest of a public key,
// used to reference keys in rotation payloads without carrying the key itself.
func Fingerprint(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Zero overwrites sensitive key material in memory with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
