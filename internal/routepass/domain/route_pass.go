// Package domain defines the route pass domain model: the identity asking
// for access, the minted capability token, and the append-only issuance audit
// record behind it.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role scopes how wide a route pass audience may be.
type Role string

const (
	RoleAdmin         Role = "ADMIN"
	RoleDevAdmin      Role = "DEV_ADMIN"
	RoleFacilityAdmin Role = "FACILITY_ADMIN"
	RoleTenant        Role = "TENANT"
	RoleMaintenance   Role = "MAINTENANCE"
)

// Identity is the caller requesting a route pass. RBAC upstream has already
// authenticated it; this subsystem only scopes the audience.
type Identity struct {
	UserID      string
	Role        Role
	FacilityIDs []string
}

// RoutePass is a minted capability token plus the facts a caller needs
// without decoding it.
type RoutePass struct {
	Token     string
	Audiences []string
	ExpiresAt time.Time
	Jti       string
}

// RoutePassIssuance is one append-only audit row. DeviceID is the requesting
// device, not a lock. Never mutated after creation.
type RoutePassIssuance struct {
	ID        uuid.UUID
	UserID    string
	DeviceID  string
	Audiences []string
	Jti       string
	IssuedAt  time.Time
	ExpiresAt time.Time
	CreatedAt time.Time
}

// HistoryFilter narrows an issuance history query.
type HistoryFilter struct {
	UserID    string
	StartDate *time.Time
	EndDate   *time.Time
	Offset    int
	Limit     int
}
