// Package directory exposes the facility topology consumed by issuance and
// revocation: which lock devices belong to a unit, a facility, or the system,
// and which requesting devices a user has registered. Facility, unit, device
// and user records are owned by the FMS synchronization pipeline; this
// package only reads them.
package directory

import "context"

// UserDevice is a user-registered requesting device (a phone or fob app
// instance), identified by the public key it presents when asking for a
// route pass.
type UserDevice struct {
	ID        string
	UserID    string
	PublicKey string // base64 raw Ed25519 public key
}

// Directory resolves facility topology.
type Directory interface {
	// DevicesForUnit returns the lock device IDs installed on a unit.
	DevicesForUnit(ctx context.Context, unitID string) ([]string, error)

	// DevicesForTenant returns the lock device IDs of every unit the tenant
	// is currently assigned to.
	DevicesForTenant(ctx context.Context, userID string) ([]string, error)

	// DevicesForFacilities returns the lock device IDs whose gateway belongs
	// to one of the given facilities.
	DevicesForFacilities(ctx context.Context, facilityIDs []string) ([]string, error)

	// AllLockDevices returns every lock device ID in the system.
	AllLockDevices(ctx context.Context) ([]string, error)

	// DevicesGrantedToUser returns the lock device IDs explicitly granted to
	// a maintenance user. Empty when no grants exist.
	DevicesGrantedToUser(ctx context.Context, userID string) ([]string, error)

	// FacilityOfGateway returns the facility a gateway serves.
	FacilityOfGateway(ctx context.Context, gatewayID string) (string, error)

	// UserDevices returns the requesting devices registered to a user.
	UserDevices(ctx context.Context, userID string) ([]UserDevice, error)
}
