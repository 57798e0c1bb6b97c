// Package domain defines the denylist domain model. A denylist entry revokes
// a user's otherwise-valid route pass on one lock device ahead of its natural
// expiry; entries are distributed to devices as signed commands and kept in
// the database as the durable record.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies what caused a denylist entry to be created.
type Source string

const (
	SourceUnitUnassignment Source = "unit_unassignment"
	SourceManual           Source = "manual"
)

// DenylistEntry is one active revocation, keyed by (DeviceID, UserID).
// At most one active entry exists per pair; re-adding replaces ExpiresAt.
type DenylistEntry struct {
	ID        uuid.UUID
	DeviceID  string
	UserID    string
	ExpiresAt time.Time
	CreatedBy string
	Source    Source
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventMeta carries attribution for a revocation batch.
type EventMeta struct {
	CreatedBy string
	Source    Source
}

// NewEntries builds one entry per device for a user, all expiring at the
// moment the longest-lived outstanding route pass could still reference the
// user.
func NewEntries(
	userID string,
	deviceIDs []string,
	expiresAt time.Time,
	meta EventMeta,
) ([]*DenylistEntry, error) {
	entries := make([]*DenylistEntry, 0, len(deviceIDs))
	for _, deviceID := range deviceIDs {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, err
		}

		entries = append(entries, &DenylistEntry{
			ID:        id,
			DeviceID:  deviceID,
			UserID:    userID,
			ExpiresAt: expiresAt,
			CreatedBy: meta.CreatedBy,
			Source:    meta.Source,
		})
	}
	return entries, nil
}
