// Package service implements the signing authority: canonical JSON encoding,
// Ed25519 detached signatures, route pass tokens, and root key custody via KMS.
package service

import (
	"context"
	"crypto/ed25519"
	"time"

	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// Signer produces and verifies detached Ed25519 signatures over the canonical
// encoding of structured payloads.
type Signer interface {
	// Sign returns the signature over Canonicalize(payload).
	Sign(payload any, key ed25519.PrivateKey) ([]byte, error)

	// Verify reports whether sig is a valid signature over Canonicalize(payload).
	Verify(payload any, sig []byte, publicKey ed25519.PublicKey) bool

	// Packet canonicalizes and signs payload into a wire-ready CommandPacket.
	Packet(payload any, key ed25519.PrivateKey) (*signingDomain.CommandPacket, error)
}

// TokenSigner mints and verifies route pass tokens. Tokens are three-part
// (header, claims, signature) with the claims canonically encoded, so two
// semantically equal claim sets always produce byte-identical tokens modulo
// the jti.
type TokenSigner interface {
	// Sign produces a signed token for the claim set.
	Sign(claims *signingDomain.TokenClaims, key ed25519.PrivateKey) (string, error)

	// Verify parses and verifies a token. Fails with ErrMalformedToken when
	// structurally invalid, ErrInvalidSignature when the signature does not
	// verify, and ErrExpired when now is past the exp claim.
	Verify(token string, publicKey ed25519.PublicKey, now time.Time) (*signingDomain.TokenClaims, error)
}

// Keeper wraps and unwraps key material through an external KMS.
// *secrets.Keeper from gocloud.dev satisfies this interface.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KMSService opens KMS keepers for the configured provider.
type KMSService interface {
	// OpenKeeper opens a Keeper for the given key URI. Returns an error if
	// the URI is invalid or the provider connection fails.
	OpenKeeper(ctx context.Context, keyURI string) (Keeper, error)
}
