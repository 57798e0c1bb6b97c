package service

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

func testClaims(exp time.Time) *signingDomain.TokenClaims {
	return &signingDomain.TokenClaims{
		Iss:             "blulok-root",
		Sub:             "user-1",
		Aud:             []string{"dev-123", "dev-999"},
		Exp:             exp.Unix(),
		Iat:             exp.Add(-time.Hour).Unix(),
		Jti:             "0193e5a0-0000-7000-8000-000000000001",
		DevicePublicKey: "ZGV2aWNlLXB1YmxpYy1rZXk=",
	}
}

func TestTokenSigner_SignAndVerify(t *testing.T) {
	pub, priv := testKeyPair(t)
	tokens := NewTokenSigner()
	now := time.Now().UTC()

	token, err := tokens.Sign(testClaims(now.Add(time.Hour)), priv)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := tokens.Verify(token, pub, now)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)
	assert.Equal(t, []string{"dev-123", "dev-999"}, claims.Aud)
	assert.Equal(t, "blulok-root", claims.Iss)
}

func TestTokenSigner_SignDeterminism(t *testing.T) {
	_, priv := testKeyPair(t)
	tokens := NewTokenSigner()
	exp := time.Unix(1767225600, 0)

	first, err := tokens.Sign(testClaims(exp), priv)
	require.NoError(t, err)
	second, err := tokens.Sign(testClaims(exp), priv)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestTokenSigner_VerifyFailures(t *testing.T) {
	pub, priv := testKeyPair(t)
	otherPub, _ := testKeyPair(t)
	tokens := NewTokenSigner()
	now := time.Now().UTC()

	valid, err := tokens.Sign(testClaims(now.Add(time.Hour)), priv)
	require.NoError(t, err)

	t.Run("Expired", func(t *testing.T) {
		expired, err := tokens.Sign(testClaims(now.Add(-time.Minute)), priv)
		require.NoError(t, err)

		_, err = tokens.Verify(expired, pub, now)
		assert.ErrorIs(t, err, signingDomain.ErrExpired)
	})

	t.Run("InvalidSignature_WrongKey", func(t *testing.T) {
		_, err := tokens.Verify(valid, otherPub, now)
		assert.ErrorIs(t, err, signingDomain.ErrInvalidSignature)
	})

	t.Run("InvalidSignature_TamperedClaims", func(t *testing.T) {
		parts := strings.Split(valid, ".")
		forged := base64.RawURLEncoding.EncodeToString([]byte(
			`{"aud":["dev-123"],"exp":9999999999,"iss":"blulok-root","sub":"user-2"}`,
		))
		tampered := parts[0] + "." + forged + "." + parts[2]

		_, err := tokens.Verify(tampered, pub, now)
		assert.ErrorIs(t, err, signingDomain.ErrInvalidSignature)
	})

	t.Run("Malformed_WrongPartCount", func(t *testing.T) {
		_, err := tokens.Verify("just-one-part", pub, now)
		assert.ErrorIs(t, err, signingDomain.ErrMalformedToken)
	})

	t.Run("Malformed_BadBase64", func(t *testing.T) {
		_, err := tokens.Verify("!!.!!.!!", pub, now)
		assert.ErrorIs(t, err, signingDomain.ErrMalformedToken)
	})

	t.Run("Malformed_MissingRequiredClaims", func(t *testing.T) {
		claims := testClaims(now.Add(time.Hour))
		claims.Aud = nil
		token, err := tokens.Sign(claims, priv)
		require.NoError(t, err)

		_, err = tokens.Verify(token, pub, now)
		assert.ErrorIs(t, err, signingDomain.ErrMalformedToken)
	})

	t.Run("Malformed_WrongHeader", func(t *testing.T) {
		parts := strings.Split(valid, ".")
		header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
		_, err := tokens.Verify(header+"."+parts[1]+"."+parts[2], pub, now)
		assert.ErrorIs(t, err, signingDomain.ErrMalformedToken)
	})

	t.Run("ExpiredSignatureCheckedFirst", func(t *testing.T) {
		// A tampered but expired token must report the signature failure,
		// never the expiry.
		expired, err := tokens.Sign(testClaims(now.Add(-time.Minute)), priv)
		require.NoError(t, err)

		_, err = tokens.Verify(expired, otherPub, now)
		assert.ErrorIs(t, err, signingDomain.ErrInvalidSignature)
	})
}

func TestKeyPairHelpers(t *testing.T) {
	t.Run("SeedRoundTrip", func(t *testing.T) {
		seed, err := NewOperationsSeed()
		require.NoError(t, err)
		require.Len(t, seed, 32)

		pub, priv, err := KeyPairFromSeed(seed)
		require.NoError(t, err)

		parsed, err := ParsePrivateKey(base64.StdEncoding.EncodeToString(seed))
		require.NoError(t, err)
		assert.Equal(t, priv, parsed)

		parsedPub, err := ParsePublicKey(base64.StdEncoding.EncodeToString(pub))
		require.NoError(t, err)
		assert.Equal(t, pub, parsedPub)
	})

	t.Run("InvalidLengths", func(t *testing.T) {
		_, _, err := KeyPairFromSeed([]byte("short"))
		assert.Error(t, err)

		_, err = ParsePublicKey(base64.StdEncoding.EncodeToString([]byte("short")))
		assert.Error(t, err)

		_, err = ParsePrivateKey("not-base64!")
		assert.Error(t, err)
	})
}
