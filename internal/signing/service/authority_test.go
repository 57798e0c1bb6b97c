package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

func testAuthority(t *testing.T) *Authority {
	t.Helper()

	seed, err := NewOperationsSeed()
	require.NoError(t, err)

	rootPub, _ := testKeyPair(t)
	authority, err := NewAuthority(NewSigner(), NewTokenSigner(), seed, rootPub)
	require.NoError(t, err)

	return authority
}

func TestAuthority_SignCommand(t *testing.T) {
	authority := testAuthority(t)
	defer authority.Close()

	payload := signingDomain.NewDeviceCommand(signingDomain.CmdPing, []string{"dev-1"})
	packet, err := authority.SignCommand(payload)
	require.NoError(t, err)

	assert.True(t, authority.VerifyCommand(payload, packet.Signature))
}

func TestAuthority_Rotate(t *testing.T) {
	t.Run("Success_SignsWithNewKeyImmediately", func(t *testing.T) {
		authority := testAuthority(t)
		defer authority.Close()

		retiredPub := authority.OperationsPublicKey()

		newSeed, err := NewOperationsSeed()
		require.NoError(t, err)
		newPub, _, err := KeyPairFromSeed(newSeed)
		require.NoError(t, err)

		require.NoError(t, authority.Rotate(newSeed))
		assert.Equal(t, newPub, authority.OperationsPublicKey())

		// A command signed after the rotation must verify under the new
		// operations key, never the retired one. Devices holding the rotated
		// key reject anything still signed with the old key.
		payload := signingDomain.NewDenylistAdd("user-1", 1700000000, []string{"dev-1"})
		packet, err := authority.SignCommand(payload)
		require.NoError(t, err)

		signer := NewSigner()
		assert.True(t, signer.Verify(payload, packet.Signature, newPub))
		assert.False(t, signer.Verify(payload, packet.Signature, retiredPub))
	})

	t.Run("Success_MintsPassesUnderNewKey", func(t *testing.T) {
		authority := testAuthority(t)
		defer authority.Close()

		now := time.Now().UTC()
		before, err := authority.SignRoutePass(testClaims(now.Add(time.Hour)))
		require.NoError(t, err)

		newSeed, err := NewOperationsSeed()
		require.NoError(t, err)
		require.NoError(t, authority.Rotate(newSeed))

		after, err := authority.SignRoutePass(testClaims(now.Add(time.Hour)))
		require.NoError(t, err)

		_, err = authority.VerifyRoutePass(after, now)
		assert.NoError(t, err)

		// Passes minted before the rotation are no longer honored.
		_, err = authority.VerifyRoutePass(before, now)
		assert.ErrorIs(t, err, signingDomain.ErrInvalidSignature)
	})

	t.Run("Failure_BadSeedKeepsCurrentKey", func(t *testing.T) {
		authority := testAuthority(t)
		defer authority.Close()

		current := authority.OperationsPublicKey()
		assert.Error(t, authority.Rotate([]byte("short")))
		assert.Equal(t, current, authority.OperationsPublicKey())

		payload := signingDomain.NewDeviceCommand(signingDomain.CmdPing, []string{"dev-1"})
		packet, err := authority.SignCommand(payload)
		require.NoError(t, err)
		assert.True(t, NewSigner().Verify(payload, packet.Signature, current))
	})
}
