package service

import (
	"crypto/ed25519"
	"fmt"

	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// ed25519Signer implements Signer with detached Ed25519 signatures over
// canonical payload bytes.
type ed25519Signer struct{}

// NewSigner creates a new canonical-encoding Ed25519 signer.
func NewSigner() Signer {
	return &ed25519Signer{}
}

// Sign returns the Ed25519 signature over Canonicalize(payload).
func (s *ed25519Signer) Sign(payload any, key ed25519.PrivateKey) ([]byte, error) {
	if l := len(key); l != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length: %d", l)
	}

	canonical, err := Canonicalize(payload)
	if err != nil {
		return nil, err
	}

	return ed25519.Sign(key, canonical), nil
}

// Verify reports whether sig is a valid signature over Canonicalize(payload).
func (s *ed25519Signer) Verify(payload any, sig []byte, publicKey ed25519.PublicKey) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}

	canonical, err := Canonicalize(payload)
	if err != nil {
		return false
	}

	return ed25519.Verify(publicKey, canonical, sig)
}

// Packet canonicalizes and signs payload into a wire-ready CommandPacket.
// The canonical bytes become the packet payload so the signature always
// matches what travels to the gateway.
func (s *ed25519Signer) Packet(
	payload any,
	key ed25519.PrivateKey,
) (*signingDomain.CommandPacket, error) {
	if l := len(key); l != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length: %d", l)
	}

	canonical, err := Canonicalize(payload)
	if err != nil {
		return nil, err
	}

	return &signingDomain.CommandPacket{
		Payload:   canonical,
		Signature: ed25519.Sign(key, canonical),
	}, nil
}
