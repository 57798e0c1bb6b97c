package service

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// tokenHeader is the fixed header of every route pass token.
type tokenHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// routePassHeader names the algorithm and token type lock firmware expects.
var routePassHeader = tokenHeader{Alg: "EdDSA", Typ: "BLRP"}

// tokenSigner implements TokenSigner using the shared canonical encoding for
// both header and claims, keeping the determinism guarantee of the command
// signing path.
type tokenSigner struct{}

// NewTokenSigner creates a new route pass token signer.
func NewTokenSigner() TokenSigner {
	return &tokenSigner{}
}

// Sign produces header.claims.signature with base64url (unpadded) segments.
// The signature covers the "header.claims" signing input, which is stable
// because both segments are canonical encodings.
func (t *tokenSigner) Sign(
	claims *signingDomain.TokenClaims,
	key ed25519.PrivateKey,
) (string, error) {
	headerBytes, err := Canonicalize(routePassHeader)
	if err != nil {
		return "", err
	}
	claimBytes, err := Canonicalize(claims)
	if err != nil {
		return "", err
	}

	headerB64 := base64.RawURLEncoding.EncodeToString(headerBytes)
	claimsB64 := base64.RawURLEncoding.EncodeToString(claimBytes)
	signingInput := headerB64 + "." + claimsB64

	sig := ed25519.Sign(key, []byte(signingInput))
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Verify parses and verifies a route pass token.
//
// Failure order follows the trust chain: structure first (ErrMalformedToken),
// then signature (ErrInvalidSignature), then expiry (ErrExpired). A token
// with a bad signature is never reported as merely expired.
func (t *tokenSigner) Verify(
	token string,
	publicKey ed25519.PublicKey,
	now time.Time,
) (*signingDomain.TokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, signingDomain.ErrMalformedToken
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, signingDomain.ErrMalformedToken
	}
	var header tokenHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, signingDomain.ErrMalformedToken
	}
	if header != routePassHeader {
		return nil, signingDomain.ErrMalformedToken
	}

	claimBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, signingDomain.ErrMalformedToken
	}
	var claims signingDomain.TokenClaims
	if err := json.Unmarshal(claimBytes, &claims); err != nil {
		return nil, signingDomain.ErrMalformedToken
	}
	if claims.Iss == "" || claims.Sub == "" || len(claims.Aud) == 0 || claims.Exp == 0 {
		return nil, signingDomain.ErrMalformedToken
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, signingDomain.ErrMalformedToken
	}

	signingInput := parts[0] + "." + parts[1]
	if !ed25519.Verify(publicKey, []byte(signingInput), sig) {
		return nil, signingDomain.ErrInvalidSignature
	}

	if now.Unix() > claims.Exp {
		return nil, signingDomain.ErrExpired
	}

	return &claims, nil
}
