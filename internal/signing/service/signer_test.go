package service

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

func testKeyPair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func TestSigner_SignDeterminism(t *testing.T) {
	_, priv := testKeyPair(t)
	signer := NewSigner()

	// Same payload built with different field insertion order must produce
	// identical signature bytes.
	first := map[string]any{
		"cmd_type":          "DENYLIST_REMOVE",
		"target_device_ids": []string{"dev-123"},
		"entries":           []map[string]any{{"sub": "user-1", "exp": 0}},
	}
	second := map[string]any{
		"entries":           []map[string]any{{"exp": 0, "sub": "user-1"}},
		"cmd_type":          "DENYLIST_REMOVE",
		"target_device_ids": []string{"dev-123"},
	}

	sigA, err := signer.Sign(first, priv)
	require.NoError(t, err)
	sigB, err := signer.Sign(second, priv)
	require.NoError(t, err)

	assert.Equal(t, sigA, sigB)
}

func TestSigner_Verify(t *testing.T) {
	pub, priv := testKeyPair(t)
	otherPub, _ := testKeyPair(t)
	signer := NewSigner()

	payload := signingDomain.NewDeviceCommand(signingDomain.CmdPing, []string{"dev-1"})

	sig, err := signer.Sign(payload, priv)
	require.NoError(t, err)

	t.Run("ValidSignature", func(t *testing.T) {
		assert.True(t, signer.Verify(payload, sig, pub))
	})

	t.Run("WrongKey", func(t *testing.T) {
		assert.False(t, signer.Verify(payload, sig, otherPub))
	})

	t.Run("TamperedPayload", func(t *testing.T) {
		tampered := signingDomain.NewDeviceCommand(signingDomain.CmdUnlock, []string{"dev-1"})
		assert.False(t, signer.Verify(tampered, sig, pub))
	})

	t.Run("TruncatedKey", func(t *testing.T) {
		assert.False(t, signer.Verify(payload, sig, pub[:16]))
	})
}

func TestSigner_Packet(t *testing.T) {
	pub, priv := testKeyPair(t)
	signer := NewSigner()

	payload := signingDomain.NewDenylistAdd("user-1", 1700000000, []string{"dev-123", "dev-999"})
	packet, err := signer.Packet(payload, priv)
	require.NoError(t, err)

	t.Run("SignatureCoversPayloadBytes", func(t *testing.T) {
		assert.True(t, ed25519.Verify(pub, packet.Payload, packet.Signature))
	})

	t.Run("WireEnvelopeIsTwoElementArray", func(t *testing.T) {
		wire, err := json.Marshal(packet)
		require.NoError(t, err)

		var parts []json.RawMessage
		require.NoError(t, json.Unmarshal(wire, &parts))
		assert.Len(t, parts, 2)

		var decoded signingDomain.CommandPacket
		require.NoError(t, json.Unmarshal(wire, &decoded))
		assert.Equal(t, packet.Payload, decoded.Payload)
		assert.Equal(t, packet.Signature, decoded.Signature)
	})

	t.Run("CmdTypeSurvivesRoundTrip", func(t *testing.T) {
		cmdType, err := packet.CmdTypeOf()
		require.NoError(t, err)
		assert.Equal(t, signingDomain.CmdDenylistAdd, cmdType)
	})

	t.Run("ShortPrivateKeyFails", func(t *testing.T) {
		_, err := signer.Packet(payload, priv[:10])
		assert.Error(t, err)
	})
}
