// Package domain defines the signing domain model: the two-tier key hierarchy
// (root key burned into lock hardware, rotatable operations key), the command
// payloads delivered to facility gateways, and the route pass token claims.
//
// Every command travels as a detached-signature pair over the canonical JSON
// encoding of its payload, so semantically equal payloads always produce
// identical signature bytes.
package domain

// CmdType identifies the schema of a gateway command payload.
type CmdType string

// Command types understood by deployed lock firmware. The string values are a
// wire compatibility contract and must not change.
const (
	CmdDenylistAdd         CmdType = "DENYLIST_ADD"
	CmdDenylistRemove      CmdType = "DENYLIST_REMOVE"
	CmdRotateOperationsKey CmdType = "ROTATE_OPERATIONS_KEY"
	CmdLock                CmdType = "LOCK"
	CmdUnlock              CmdType = "UNLOCK"
	CmdPing                CmdType = "PING"
)

// DenylistClaim identifies one revoked subject inside a denylist command.
// Exp is the unix-seconds expiry of the revocation; zero on removal.
type DenylistClaim struct {
	Sub string `json:"sub"`
	Exp int64  `json:"exp"`
}

// DenylistCommand is the payload of DENYLIST_ADD and DENYLIST_REMOVE commands.
type DenylistCommand struct {
	CmdType         CmdType         `json:"cmd_type"`
	Entries         []DenylistClaim `json:"entries"`
	TargetDeviceIDs []string        `json:"target_device_ids"`
}

// RotateOperationsKeyCommand is the payload of a ROTATE_OPERATIONS_KEY command.
// It is the only command signed by the root key. Devices accept it purely on
// root-signature validity and a Ts strictly greater than the last one seen.
type RotateOperationsKeyCommand struct {
	CmdType         CmdType `json:"cmd_type"`
	NewPublicKey    string  `json:"new_public_key"` // base64 raw Ed25519 public key
	Ts              int64   `json:"ts"`             // rotation watermark, unix seconds
	RootFingerprint string  `json:"root_fingerprint,omitempty"`
}

// DeviceCommand is the payload of LOCK, UNLOCK and PING commands.
type DeviceCommand struct {
	CmdType         CmdType  `json:"cmd_type"`
	TargetDeviceIDs []string `json:"target_device_ids"`
}

// NewDenylistAdd builds a DENYLIST_ADD payload revoking userID on the target
// devices until exp (unix seconds).
func NewDenylistAdd(userID string, exp int64, targetDeviceIDs []string) *DenylistCommand {
	return &DenylistCommand{
		CmdType:         CmdDenylistAdd,
		Entries:         []DenylistClaim{{Sub: userID, Exp: exp}},
		TargetDeviceIDs: targetDeviceIDs,
	}
}

// NewDenylistRemove builds a DENYLIST_REMOVE payload restoring userID on the
// target devices.
func NewDenylistRemove(userID string, targetDeviceIDs []string) *DenylistCommand {
	return &DenylistCommand{
		CmdType:         CmdDenylistRemove,
		Entries:         []DenylistClaim{{Sub: userID, Exp: 0}},
		TargetDeviceIDs: targetDeviceIDs,
	}
}

// NewRotateOperationsKey builds a ROTATE_OPERATIONS_KEY payload announcing the
// base64-encoded replacement operations public key at watermark ts.
func NewRotateOperationsKey(newPublicKey string, ts int64, rootFingerprint string) *RotateOperationsKeyCommand {
	return &RotateOperationsKeyCommand{
		CmdType:         CmdRotateOperationsKey,
		NewPublicKey:    newPublicKey,
		Ts:              ts,
		RootFingerprint: rootFingerprint,
	}
}

// NewDeviceCommand builds a LOCK, UNLOCK or PING payload for the target devices.
func NewDeviceCommand(cmdType CmdType, targetDeviceIDs []string) *DeviceCommand {
	return &DeviceCommand{
		CmdType:         cmdType,
		TargetDeviceIDs: targetDeviceIDs,
	}
}

// ParseDeviceCmdType converts a string into a device-level CmdType.
// Only LOCK, UNLOCK and PING are valid here; denylist and rotation commands
// are built by their owning subsystems, never from raw caller input.
func ParseDeviceCmdType(s string) (CmdType, bool) {
	switch CmdType(s) {
	case CmdLock, CmdUnlock, CmdPing:
		return CmdType(s), true
	default:
		return "", false
	}
}
