// Package dto provides data transfer objects for HTTP request and response handling.
package dto

// DenylistMutationResponse reports the outcome of a manual denylist change.
// Sent is false when the optimization policy skipped the wire send or no
// gateway was connected; the durable change happened either way.
type DenylistMutationResponse struct {
	UserID    string   `json:"user_id"`
	DeviceIDs []string `json:"device_ids"`
	Sent      bool     `json:"sent"`
}
