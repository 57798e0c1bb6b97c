// Package repository implements the directory read model over the FMS-synced
// facility tables.
package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/skatamatic/blulok-cloud-sub010/internal/database"
	"github.com/skatamatic/blulok-cloud-sub010/internal/directory"
	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
)

// PostgreSQLDirectoryRepository implements directory.Directory for PostgreSQL.
type PostgreSQLDirectoryRepository struct {
	db *sql.DB
}

// NewPostgreSQLDirectoryRepository creates a new PostgreSQL directory repository.
func NewPostgreSQLDirectoryRepository(db *sql.DB) *PostgreSQLDirectoryRepository {
	return &PostgreSQLDirectoryRepository{db: db}
}

// DevicesForUnit returns the lock device IDs installed on a unit.
func (p *PostgreSQLDirectoryRepository) DevicesForUnit(
	ctx context.Context,
	unitID string,
) ([]string, error) {
	query := `SELECT id FROM devices WHERE unit_id = $1 AND device_type = 'lock' ORDER BY id`
	return p.queryIDs(ctx, query, unitID)
}

// DevicesForTenant returns the lock device IDs of every unit the tenant is
// currently assigned to.
func (p *PostgreSQLDirectoryRepository) DevicesForTenant(
	ctx context.Context,
	userID string,
) ([]string, error) {
	query := `SELECT d.id
			  FROM devices d
			  JOIN unit_assignments ua ON ua.unit_id = d.unit_id
			  WHERE ua.tenant_id = $1 AND d.device_type = 'lock'
			  ORDER BY d.id`
	return p.queryIDs(ctx, query, userID)
}

// DevicesForFacilities returns the lock device IDs whose gateway belongs to
// one of the given facilities.
func (p *PostgreSQLDirectoryRepository) DevicesForFacilities(
	ctx context.Context,
	facilityIDs []string,
) ([]string, error) {
	if len(facilityIDs) == 0 {
		return []string{}, nil
	}

	query := `SELECT d.id
			  FROM devices d
			  JOIN gateways g ON g.id = d.gateway_id
			  WHERE g.facility_id = ANY($1) AND d.device_type = 'lock'
			  ORDER BY d.id`
	return p.queryIDs(ctx, query, pq.Array(facilityIDs))
}

// AllLockDevices returns every lock device ID in the system.
func (p *PostgreSQLDirectoryRepository) AllLockDevices(ctx context.Context) ([]string, error) {
	query := `SELECT id FROM devices WHERE device_type = 'lock' ORDER BY id`
	return p.queryIDs(ctx, query)
}

// DevicesGrantedToUser returns the lock device IDs explicitly granted to a
// maintenance user.
func (p *PostgreSQLDirectoryRepository) DevicesGrantedToUser(
	ctx context.Context,
	userID string,
) ([]string, error) {
	query := `SELECT device_id FROM maintenance_grants WHERE user_id = $1 ORDER BY device_id`
	return p.queryIDs(ctx, query, userID)
}

// FacilityOfGateway returns the facility a gateway serves.
func (p *PostgreSQLDirectoryRepository) FacilityOfGateway(
	ctx context.Context,
	gatewayID string,
) (string, error) {
	querier := database.GetTx(ctx, p.db)

	var facilityID string
	query := `SELECT facility_id FROM gateways WHERE id = $1`
	err := querier.QueryRowContext(ctx, query, gatewayID).Scan(&facilityID)
	if err == sql.ErrNoRows {
		return "", apperrors.ErrNotFound
	}
	if err != nil {
		return "", apperrors.Wrap(err, "failed to resolve gateway facility")
	}

	return facilityID, nil
}

// UserDevices returns the requesting devices registered to a user.
func (p *PostgreSQLDirectoryRepository) UserDevices(
	ctx context.Context,
	userID string,
) ([]directory.UserDevice, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, public_key FROM user_devices WHERE user_id = $1 ORDER BY id`
	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list user devices")
	}
	defer func() {
		_ = rows.Close()
	}()

	devices := make([]directory.UserDevice, 0)
	for rows.Next() {
		var device directory.UserDevice
		if err := rows.Scan(&device.ID, &device.UserID, &device.PublicKey); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan user device")
		}
		devices = append(devices, device)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate user devices")
	}

	return devices, nil
}

// queryIDs runs a single-column string query and collects the results.
func (p *PostgreSQLDirectoryRepository) queryIDs(
	ctx context.Context,
	query string,
	args ...any,
) ([]string, error) {
	querier := database.GetTx(ctx, p.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to query device ids")
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan device id")
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate device ids")
	}

	return ids, nil
}
