package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skatamatic/blulok-cloud-sub010/internal/denylist/domain"
)

func newEntry(t *testing.T, deviceID string) *domain.DenylistEntry {
	t.Helper()

	id, err := uuid.NewV7()
	require.NoError(t, err)

	return &domain.DenylistEntry{
		ID:        id,
		DeviceID:  deviceID,
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedBy: "fms-sync",
		Source:    domain.SourceUnitUnassignment,
	}
}

func TestPostgreSQLDenylistRepositoryUpsertBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		repo := NewPostgreSQLDenylistRepository(db)
		entries := []*domain.DenylistEntry{newEntry(t, "dev-123"), newEntry(t, "dev-999")}

		mock.ExpectExec("INSERT INTO denylist_entries").
			WithArgs(
				entries[0].ID, "dev-123", "user-1", entries[0].ExpiresAt, "fms-sync", domain.SourceUnitUnassignment,
				entries[1].ID, "dev-999", "user-1", entries[1].ExpiresAt, "fms-sync", domain.SourceUnitUnassignment,
			).
			WillReturnResult(sqlmock.NewResult(0, 2))

		err = repo.UpsertBatch(ctx, entries)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_EmptyBatchIsNoOp", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		repo := NewPostgreSQLDenylistRepository(db)

		err = repo.UpsertBatch(ctx, nil)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure_DatabaseError", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		repo := NewPostgreSQLDenylistRepository(db)

		mock.ExpectExec("INSERT INTO denylist_entries").
			WillReturnError(errors.New("connection refused"))

		err = repo.UpsertBatch(ctx, []*domain.DenylistEntry{newEntry(t, "dev-123")})
		assert.Error(t, err)
	})
}

func TestPostgreSQLDenylistRepositoryFindActive(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		repo := NewPostgreSQLDenylistRepository(db)

		id, err := uuid.NewV7()
		require.NoError(t, err)
		now := time.Now()

		rows := sqlmock.NewRows([]string{
			"id", "device_id", "user_id", "expires_at", "created_by", "source", "created_at", "updated_at",
		}).AddRow(id, "dev-123", "user-1", now.Add(time.Hour), "fms-sync", "unit_unassignment", now, now)

		mock.ExpectQuery("SELECT id, device_id, user_id, expires_at, created_by, source, created_at, updated_at").
			WillReturnRows(rows)

		entries, err := repo.FindActive(ctx, "user-1", []string{"dev-123", "dev-999"})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "dev-123", entries[0].DeviceID)
		assert.Equal(t, domain.SourceUnitUnassignment, entries[0].Source)
	})

	t.Run("Success_EmptyDeviceList", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		repo := NewPostgreSQLDenylistRepository(db)

		entries, err := repo.FindActive(ctx, "user-1", nil)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLDenylistRepositoryDeleteBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		repo := NewPostgreSQLDenylistRepository(db)

		mock.ExpectExec("DELETE FROM denylist_entries").
			WillReturnResult(sqlmock.NewResult(0, 2))

		err = repo.DeleteBatch(ctx, "user-1", []string{"dev-123", "dev-999"})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure_DatabaseError", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		repo := NewPostgreSQLDenylistRepository(db)

		mock.ExpectExec("DELETE FROM denylist_entries").
			WillReturnError(errors.New("connection refused"))

		err = repo.DeleteBatch(ctx, "user-1", []string{"dev-123"})
		assert.Error(t, err)
	})
}
