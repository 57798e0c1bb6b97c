package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// CommandPacket pairs a canonically encoded payload with its detached Ed25519
// signature. The pair is inseparable: devices verify before acting.
//
// The wire envelope is a two-element JSON array [payload, signature] with the
// signature base64 encoded. This exact shape is the compatibility contract
// with deployed lock firmware.
type CommandPacket struct {
	Payload   json.RawMessage
	Signature []byte
}

// MarshalJSON encodes the packet as the [payload, signature] wire envelope.
func (p CommandPacket) MarshalJSON() ([]byte, error) {
	sig := base64.StdEncoding.EncodeToString(p.Signature)
	parts := []json.RawMessage{p.Payload, json.RawMessage(fmt.Sprintf("%q", sig))}
	return json.Marshal(parts)
}

// UnmarshalJSON decodes the [payload, signature] wire envelope.
func (p *CommandPacket) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("invalid command packet envelope: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("invalid command packet envelope: expected 2 elements, got %d", len(parts))
	}

	var sigB64 string
	if err := json.Unmarshal(parts[1], &sigB64); err != nil {
		return fmt.Errorf("invalid command packet signature: %w", err)
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return fmt.Errorf("invalid command packet signature encoding: %w", err)
	}

	p.Payload = parts[0]
	p.Signature = sig
	return nil
}

// CmdTypeOf extracts the cmd_type discriminator from the payload.
func (p CommandPacket) CmdTypeOf() (CmdType, error) {
	var probe struct {
		CmdType CmdType `json:"cmd_type"`
	}
	if err := json.Unmarshal(p.Payload, &probe); err != nil {
		return "", fmt.Errorf("invalid command payload: %w", err)
	}
	if probe.CmdType == "" {
		return "", fmt.Errorf("invalid command payload: missing cmd_type")
	}
	return probe.CmdType, nil
}
