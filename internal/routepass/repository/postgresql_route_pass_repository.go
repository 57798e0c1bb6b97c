// Package repository provides persistence for the append-only route pass
// issuance audit log.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/skatamatic/blulok-cloud-sub010/internal/database"
	"github.com/skatamatic/blulok-cloud-sub010/internal/routepass/domain"
)

// PostgreSQLRoutePassRepository handles issuance audit persistence for PostgreSQL.
type PostgreSQLRoutePassRepository struct {
	db *sql.DB
}

// NewPostgreSQLRoutePassRepository creates a new PostgreSQLRoutePassRepository.
func NewPostgreSQLRoutePassRepository(db *sql.DB) *PostgreSQLRoutePassRepository {
	return &PostgreSQLRoutePassRepository{
		db: db,
	}
}

// Create appends one issuance row. Rows are never updated or deleted.
func (r *PostgreSQLRoutePassRepository) Create(
	ctx context.Context,
	issuance *domain.RoutePassIssuance,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO route_pass_issuances (id, user_id, device_id, audiences, jti, issued_at, expires_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`

	_, err := querier.ExecContext(ctx, query, issuance.ID, issuance.UserID, issuance.DeviceID,
		pq.Array(issuance.Audiences), issuance.Jti, issuance.IssuedAt, issuance.ExpiresAt)

	return err
}

// List returns issuance rows for a user, newest first, honoring the optional
// date range and pagination.
func (r *PostgreSQLRoutePassRepository) List(
	ctx context.Context,
	filter domain.HistoryFilter,
) ([]*domain.RoutePassIssuance, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, device_id, audiences, jti, issued_at, expires_at, created_at
			  FROM route_pass_issuances
			  WHERE user_id = $1
			    AND ($2::timestamptz IS NULL OR issued_at >= $2)
			    AND ($3::timestamptz IS NULL OR issued_at <= $3)
			  ORDER BY issued_at DESC
			  LIMIT $4 OFFSET $5`

	rows, err := querier.QueryContext(ctx, query, filter.UserID, filter.StartDate, filter.EndDate,
		filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var issuances []*domain.RoutePassIssuance
	for rows.Next() {
		var issuance domain.RoutePassIssuance

		err := rows.Scan(&issuance.ID, &issuance.UserID, &issuance.DeviceID,
			pq.Array(&issuance.Audiences), &issuance.Jti, &issuance.IssuedAt,
			&issuance.ExpiresAt, &issuance.CreatedAt)
		if err != nil {
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
func (r *PostgreSQLRoutePassRepository) Count(
	ctx context.Context,
	filter domain.HistoryFilter,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT COUNT(*)
			  FROM route_pass_issuances
			  WHERE user_id = $1
			    AND ($2::timestamptz IS NULL OR issued_at >= $2)
			    AND ($3::timestamptz IS NULL OR issued_at <= $3)`

	var total int64
	err := querier.QueryRowContext(ctx, query, filter.UserID, filter.StartDate, filter.EndDate).
		Scan(&total)
	if err != nil {
		return 0, err
	}

	return total, nil
}

// CountOutstanding returns how many unexpired passes a user holds. Used by
// the denylist optimization policy.
func (r *PostgreSQLRoutePassRepository) CountOutstanding(
	ctx context.Context,
	userID string,
	now time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT COUNT(*) FROM route_pass_issuances WHERE user_id = $1 AND expires_at > $2`

	var outstanding int64
	err := querier.QueryRowContext(ctx, query, userID, now).Scan(&outstanding)
	if err != nil {
		return 0, err
	}

	return outstanding, nil
}
