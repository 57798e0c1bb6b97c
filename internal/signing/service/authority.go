package service

import (
	"crypto/ed25519"
	"sync"
	"time"

	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// Authority holds the in-memory operations key material and signs routine
// commands and route passes with it. Rotation commands are signed elsewhere
// with the root key; the Authority only ever sees the root public half.
// Rotate swaps the operations key in place, so a long-lived Authority always
// signs with the key the persisted state names.
type Authority struct {
	signer      Signer
	tokenSigner TokenSigner
	mu          sync.RWMutex
	opsPrivate  ed25519.PrivateKey
	opsPublic   ed25519.PublicKey
	rootPublic  ed25519.PublicKey
}

// NewAuthority creates a signing authority from the unwrapped operations seed
// and the root public key. The caller retains no copy of the seed; Close
// zeroes the expanded private key.
func NewAuthority(
	signer Signer,
	tokenSigner TokenSigner,
	operationsSeed []byte,
	rootPublic ed25519.PublicKey,
) (*Authority, error) {
	pub, priv, err := KeyPairFromSeed(operationsSeed)
	if err != nil {
		return nil, err
	}

	return &Authority{
		signer:      signer,
		tokenSigner: tokenSigner,
		opsPrivate:  priv,
		opsPublic:   pub,
		rootPublic:  rootPublic,
	}, nil
}

// Rotate derives the key pair from the new operations seed and swaps it in,
// zeroing the retired private key. The caller must have persisted the
// rotation first; on error the current key stays in place.
func (a *Authority) Rotate(operationsSeed []byte) error {
	pub, priv, err := KeyPairFromSeed(operationsSeed)
	if err != nil {
		return err
	}

	a.mu.Lock()
	retired := a.opsPrivate
	a.opsPrivate = priv
	a.opsPublic = pub
	a.mu.Unlock()

	signingDomain.Zero(retired)
	return nil
}

// SignCommand canonicalizes and signs a routine command payload with the
// operations key, returning the wire-ready packet.
func (a *Authority) SignCommand(payload any) (*signingDomain.CommandPacket, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.signer.Packet(payload, a.opsPrivate)
}

// SignRoutePass mints a signed route pass token with the operations key.
func (a *Authority) SignRoutePass(claims *signingDomain.TokenClaims) (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tokenSigner.Sign(claims, a.opsPrivate)
}

// VerifyRoutePass verifies a route pass token against the operations public key.
func (a *Authority) VerifyRoutePass(token string, now time.Time) (*signingDomain.TokenClaims, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tokenSigner.Verify(token, a.opsPublic, now)
}

// VerifyCommand verifies a detached command signature against the operations
// public key.
func (a *Authority) VerifyCommand(payload any, sig []byte) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.signer.Verify(payload, sig, a.opsPublic)
}

// VerifyRootCommand verifies a detached command signature against the root
// public key. Used for ROTATE_OPERATIONS_KEY packets only.
func (a *Authority) VerifyRootCommand(payload any, sig []byte) bool {
	return a.signer.Verify(payload, sig, a.rootPublic)
}

// OperationsPublicKey returns the current operations public key.
func (a *Authority) OperationsPublicKey() ed25519.PublicKey {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.opsPublic
}

// RootPublicKey returns the root public key burned into lock devices.
func (a *Authority) RootPublicKey() ed25519.PublicKey {
	return a.rootPublic
}

// Close zeroes the operations private key material.
func (a *Authority) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	signingDomain.Zero(a.opsPrivate)
	a.opsPrivate = nil
}
