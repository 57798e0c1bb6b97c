// Package repository provides denylist entry persistence. All mutations are
// atomic batch statements keyed by (device_id, user_id) so concurrent
// assign/unassign churn for the same pair converges without read-modify-write
// races in application code.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/skatamatic/blulok-cloud-sub010/internal/database"
	"github.com/skatamatic/blulok-cloud-sub010/internal/denylist/domain"
)

// PostgreSQLDenylistRepository handles denylist entry persistence for PostgreSQL.
type PostgreSQLDenylistRepository struct {
	db *sql.DB
}

// NewPostgreSQLDenylistRepository creates a new PostgreSQLDenylistRepository.
func NewPostgreSQLDenylistRepository(db *sql.DB) *PostgreSQLDenylistRepository {
	return &PostgreSQLDenylistRepository{
		db: db,
	}
}

// UpsertBatch creates or refreshes the entries in one statement. Re-adding an
// existing (device_id, user_id) pair replaces its expiry and attribution.
func (r *PostgreSQLDenylistRepository) UpsertBatch(
	ctx context.Context,
	entries []*domain.DenylistEntry,
) error {
	if len(entries) == 0 {
		return nil
	}

	querier := database.GetTx(ctx, r.db)

	valueClauses := make([]string, 0, len(entries))
	args := make([]any, 0, len(entries)*6)
	for i, entry := range entries {
		base := i * 6
		valueClauses = append(valueClauses, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, NOW(), NOW())",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, entry.ID, entry.DeviceID, entry.UserID, entry.ExpiresAt,
			entry.CreatedBy, entry.Source)
	}

	query := fmt.Sprintf(`INSERT INTO denylist_entries (id, device_id, user_id, expires_at, created_by, source, created_at, updated_at)
			  VALUES %s
			  ON CONFLICT (device_id, user_id)
			  DO UPDATE SET expires_at = EXCLUDED.expires_at, created_by = EXCLUDED.created_by,
			                source = EXCLUDED.source, updated_at = NOW()`,
		strings.Join(valueClauses, ", "))

	_, err := querier.ExecContext(ctx, query, args...)
	return err
}

// FindActive returns the existing entries for a user on the given devices.
func (r *PostgreSQLDenylistRepository) FindActive(
	ctx context.Context,
	userID string,
	deviceIDs []string,
) ([]*domain.DenylistEntry, error) {
	if len(deviceIDs) == 0 {
		return []*domain.DenylistEntry{}, nil
	}

	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, device_id, user_id, expires_at, created_by, source, created_at, updated_at
			  FROM denylist_entries
			  WHERE user_id = $1 AND device_id = ANY($2)
			  ORDER BY device_id ASC`

	rows, err := querier.QueryContext(ctx, query, userID, pq.Array(deviceIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var entries []*domain.DenylistEntry
	for rows.Next() {
		var entry domain.DenylistEntry

		err := rows.Scan(&entry.ID, &entry.DeviceID, &entry.UserID, &entry.ExpiresAt,
			&entry.CreatedBy, &entry.Source, &entry.CreatedAt, &entry.UpdatedAt)
		if err != nil {
			return nil, err
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// DeleteBatch removes the entries for a user on the given devices in one
// statement.
func (r *PostgreSQLDenylistRepository) DeleteBatch(
	ctx context.Context,
	userID string,
	deviceIDs []string,
) error {
	if len(deviceIDs) == 0 {
		return nil
	}

	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM denylist_entries WHERE user_id = $1 AND device_id = ANY($2)`
	_, err := querier.ExecContext(ctx, query, userID, pq.Array(deviceIDs))
	return err
}
