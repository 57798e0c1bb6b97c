package service

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// operationsKeyInfo versions the HKDF usage domain for operations seeds so a
// future algorithm change cannot collide with existing derivations.
var operationsKeyInfo = []byte("blulok-operations-key-v1")

// NewOperationsSeed generates a fresh 32-byte Ed25519 seed for an operations
// key. Random entropy is expanded through HKDF-SHA256 with a dedicated info
// string, separating operations-key material from any other derivation.
func NewOperationsSeed() ([]byte, error) {
	ikm := make([]byte, 32)
	if _, err := rand.Read(ikm); err != nil {
		return nil, fmt.Errorf("failed to gather key entropy: %w", err)
	}

	reader := hkdf.New(sha256.New, ikm, nil, operationsKeyInfo)
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(reader, seed); err != nil {
		return nil, fmt.Errorf("failed to derive operations seed: %w", err)
	}

	return seed, nil
}

// KeyPairFromSeed expands an Ed25519 seed into its key pair.
func KeyPairFromSeed(seed []byte) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, nil, fmt.Errorf("invalid seed length: %d", len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return priv.Public().(ed25519.PublicKey), priv, nil
}

// ParsePrivateKey decodes a base64 Ed25519 private key. Accepts either a
// 32-byte seed or a full 64-byte private key.
func ParsePrivateKey(encoded string) (ed25519.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid private key encoding: %w", err)
	}

	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, fmt.Errorf("invalid private key length: %d", len(raw))
	}
}

// ParsePublicKey decodes a base64 raw Ed25519 public key.
func ParsePublicKey(encoded string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid public key encoding: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key length: %d", len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
