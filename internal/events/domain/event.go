// Package domain defines the tenancy domain events and the transactional
// outbox rows that carry them. The FMS-sync boundary records an outbox row in
// the same transaction as the assignment change; the dispatcher delivers it to
// the in-process bus with at-least-once semantics.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
)

// Event types emitted by the unit-assignment boundary.
const (
	EventTenantAssigned   = "tenant.assigned"
	EventTenantUnassigned = "tenant.unassigned"
)

// TenantEvent is the payload of tenant.assigned and tenant.unassigned events.
type TenantEvent struct {
	TenantID   string            `json:"tenant_id"`
	UnitID     string            `json:"unit_id"`
	FacilityID string            `json:"facility_id"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// OutboxEventStatus represents the delivery status of an outbox event.
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// OutboxEvent is one durably recorded domain event awaiting dispatch.
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOutboxEvent builds a pending outbox row for a tenant event.
func NewOutboxEvent(eventType string, event *TenantEvent) (*OutboxEvent, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode tenant event")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate event id")
	}

	return &OutboxEvent{
		ID:        id,
		EventType: eventType,
		Payload:   string(payload),
		Status:    OutboxEventStatusPending,
	}, nil
}

// DecodeTenantEvent parses the payload of a tenant outbox event.
func DecodeTenantEvent(event *OutboxEvent) (*TenantEvent, error) {
	var tenantEvent TenantEvent
	if err := json.Unmarshal([]byte(event.Payload), &tenantEvent); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode tenant event")
	}
	return &tenantEvent, nil
}
