package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/skatamatic/blulok-cloud-sub010/internal/database"
	"github.com/skatamatic/blulok-cloud-sub010/internal/denylist/domain"
)

// MySQLDenylistRepository handles denylist entry persistence for MySQL.
type MySQLDenylistRepository struct {
	db *sql.DB
}

// NewMySQLDenylistRepository creates a new MySQLDenylistRepository.
func NewMySQLDenylistRepository(db *sql.DB) *MySQLDenylistRepository {
	return &MySQLDenylistRepository{
		db: db,
	}
}

// UpsertBatch creates or refreshes the entries in one statement.
func (r *MySQLDenylistRepository) UpsertBatch(
	ctx context.Context,
	entries []*domain.DenylistEntry,
) error {
	if len(entries) == 0 {
		return nil
	}

	querier := database.GetTx(ctx, r.db)

	valueClauses := make([]string, 0, len(entries))
	args := make([]any, 0, len(entries)*6)
	for _, entry := range entries {
		// Convert UUID to bytes for MySQL BINARY(16)
		idBytes, err := entry.ID.MarshalBinary()
		if err != nil {
			return err
		}

		valueClauses = append(valueClauses, "(?, ?, ?, ?, ?, ?, NOW(), NOW())")
		args = append(args, idBytes, entry.DeviceID, entry.UserID, entry.ExpiresAt,
			entry.CreatedBy, entry.Source)
	}

	query := `INSERT INTO denylist_entries (id, device_id, user_id, expires_at, created_by, source, created_at, updated_at)
			  VALUES ` + strings.Join(valueClauses, ", ") + `
			  ON DUPLICATE KEY UPDATE expires_at = VALUES(expires_at), created_by = VALUES(created_by),
			                          source = VALUES(source), updated_at = NOW()`

	_, err := querier.ExecContext(ctx, query, args...)
	return err
}

// FindActive returns the existing entries for a user on the given devices.
func (r *MySQLDenylistRepository) FindActive(
	ctx context.Context,
	userID string,
	deviceIDs []string,
) ([]*domain.DenylistEntry, error) {
	if len(deviceIDs) == 0 {
		return []*domain.DenylistEntry{}, nil
	}

	querier := database.GetTx(ctx, r.db)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(deviceIDs)), ", ")
	query := `SELECT id, device_id, user_id, expires_at, created_by, source, created_at, updated_at
			  FROM denylist_entries
			  WHERE user_id = ? AND device_id IN (` + placeholders + `)
			  ORDER BY device_id ASC`

	args := make([]any, 0, len(deviceIDs)+1)
	args = append(args, userID)
	for _, deviceID := range deviceIDs {
		args = append(args, deviceID)
	}

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var entries []*domain.DenylistEntry
	for rows.Next() {
		var entry domain.DenylistEntry
		var idBytes []byte

		err := rows.Scan(&idBytes, &entry.DeviceID, &entry.UserID, &entry.ExpiresAt,
			&entry.CreatedBy, &entry.Source, &entry.CreatedAt, &entry.UpdatedAt)
		if err != nil {
			return nil, err
		}

		// Convert bytes back to UUID
		if err := entry.ID.UnmarshalBinary(idBytes); err != nil {
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
func (r *MySQLDenylistRepository) DeleteBatch(
	ctx context.Context,
	userID string,
	deviceIDs []string,
) error {
	if len(deviceIDs) == 0 {
		return nil
	}

	querier := database.GetTx(ctx, r.db)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(deviceIDs)), ", ")
	query := `DELETE FROM denylist_entries WHERE user_id = ? AND device_id IN (` + placeholders + `)`

	args := make([]any, 0, len(deviceIDs)+1)
	args = append(args, userID)
	for _, deviceID := range deviceIDs {
		args = append(args, deviceID)
	}

	_, err := querier.ExecContext(ctx, query, args...)
	return err
}
