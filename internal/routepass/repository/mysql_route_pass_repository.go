package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/skatamatic/blulok-cloud-sub010/internal/database"
	"github.com/skatamatic/blulok-cloud-sub010/internal/routepass/domain"
)

// MySQLRoutePassRepository handles issuance audit persistence for MySQL.
// Audiences are stored as a JSON column since MySQL has no array type.
type MySQLRoutePassRepository struct {
	db *sql.DB
}

// NewMySQLRoutePassRepository creates a new MySQLRoutePassRepository.
func NewMySQLRoutePassRepository(db *sql.DB) *MySQLRoutePassRepository {
	return &MySQLRoutePassRepository{
		db: db,
	}
}

// Create appends one issuance row. Rows are never updated or deleted.
func (r *MySQLRoutePassRepository) Create(
	ctx context.Context,
	issuance *domain.RoutePassIssuance,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO route_pass_issuances (id, user_id, device_id, audiences, jti, issued_at, expires_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW())`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := issuance.ID.MarshalBinary()
	if err != nil {
		return err
	}

	audiences, err := json.Marshal(issuance.Audiences)
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(ctx, query, idBytes, issuance.UserID, issuance.DeviceID,
		audiences, issuance.Jti, issuance.IssuedAt, issuance.ExpiresAt)

	return err
}

// List returns issuance rows for a user, newest first, honoring the optional
// date range and pagination.
func (r *MySQLRoutePassRepository) List(
	ctx context.Context,
	filter domain.HistoryFilter,
) ([]*domain.RoutePassIssuance, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, device_id, audiences, jti, issued_at, expires_at, created_at
			  FROM route_pass_issuances
			  WHERE user_id = ?
			    AND (? IS NULL OR issued_at >= ?)
			    AND (? IS NULL OR issued_at <= ?)
			  ORDER BY issued_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, filter.UserID,
		filter.StartDate, filter.StartDate, filter.EndDate, filter.EndDate,
		filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var issuances []*domain.RoutePassIssuance
	for rows.Next() {
		var issuance domain.RoutePassIssuance
		var idBytes []byte
		var audiences []byte

		err := rows.Scan(&idBytes, &issuance.UserID, &issuance.DeviceID, &audiences,
			&issuance.Jti, &issuance.IssuedAt, &issuance.ExpiresAt, &issuance.CreatedAt)
		if err != nil {
			return nil, err
		}

		// Convert bytes back to UUID
		if err := issuance.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, err
		}

		if err := json.Unmarshal(audiences, &issuance.Audiences); err != nil {
			return nil, err
		}

		issuances = append(issuances, &issuance)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return issuances, nil
}

// Count returns the total issuance rows matching the filter, ignoring
// pagination.
func (r *MySQLRoutePassRepository) Count(
	ctx context.Context,
	filter domain.HistoryFilter,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT COUNT(*)
			  FROM route_pass_issuances
			  WHERE user_id = ?
			    AND (? IS NULL OR issued_at >= ?)
			    AND (? IS NULL OR issued_at <= ?)`

	var total int64
	err := querier.QueryRowContext(ctx, query, filter.UserID,
		filter.StartDate, filter.StartDate, filter.EndDate, filter.EndDate).
		Scan(&total)
	if err != nil {
		return 0, err
	}

	return total, nil
}

// CountOutstanding returns how many unexpired passes a user holds.
func (r *MySQLRoutePassRepository) CountOutstanding(
	ctx context.Context,
	userID string,
	now time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT COUNT(*) FROM route_pass_issuances WHERE user_id = ? AND expires_at > ?`

	var outstanding int64
	err := querier.QueryRowContext(ctx, query, userID, now).Scan(&outstanding)
	if err != nil {
		return 0, err
	}

	return outstanding, nil
}
