package repository

import (
	"context"
	"crypto/ed25519"
	"database/sql"

	"github.com/skatamatic/blulok-cloud-sub010/internal/database"
	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// MySQLKeyStateRepository persists the single signing key state row for MySQL.
// Uses INSERT IGNORE and conditional UPDATE instead of PostgreSQL's
// ON CONFLICT syntax; semantics match the PostgreSQL repository.
type MySQLKeyStateRepository struct {
	db *sql.DB
}

// NewMySQLKeyStateRepository creates a new MySQL key state repository.
func NewMySQLKeyStateRepository(db *sql.DB) *MySQLKeyStateRepository {
	return &MySQLKeyStateRepository{db: db}
}

// Get loads the signing key state. Returns ErrKeyStateNotFound if the state
// row has not been initialized.
func (m *MySQLKeyStateRepository) Get(ctx context.Context) (*signingDomain.KeyState, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT operations_public_key, encrypted_operations_seed, root_public_key,
				     last_rotation_ts, updated_at
			  FROM signing_key_state
			  WHERE id = 1`

	var state signingDomain.KeyState
	var opsPub, rootPub []byte

	err := querier.QueryRowContext(ctx, query).Scan(
		&opsPub,
		&state.EncryptedOperationsSeed,
		&rootPub,
		&state.LastRotationTS,
		&state.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, signingDomain.ErrKeyStateNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load signing key state")
	}

	state.OperationsPublicKey = ed25519.PublicKey(opsPub)
	state.RootPublicKey = ed25519.PublicKey(rootPub)
	return &state, nil
}

// Initialize inserts the key state row. Returns ErrConflict if the state has
// already been initialized.
func (m *MySQLKeyStateRepository) Initialize(
	ctx context.Context,
	state *signingDomain.KeyState,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT IGNORE INTO signing_key_state
				  (id, operations_public_key, encrypted_operations_seed, root_public_key,
				   last_rotation_ts, updated_at)
			  VALUES (1, ?, ?, ?, ?, ?)`

	result, err := querier.ExecContext(
		ctx,
		query,
		[]byte(state.OperationsPublicKey),
		state.EncryptedOperationsSeed,
		[]byte(state.RootPublicKey),
		state.LastRotationTS,
		state.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to initialize signing key state")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read initialize result")
	}
	if rows == 0 {
		return apperrors.ErrConflict
	}

	return nil
}

// AdvanceRotation moves the rotation watermark to ts and installs the new
// operations key material. Returns ErrRotationReplay when ts does not
// strictly advance the persisted watermark.
func (m *MySQLKeyStateRepository) AdvanceRotation(
	ctx context.Context,
	ts int64,
	operationsPublicKey []byte,
	encryptedOperationsSeed []byte,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE signing_key_state
			  SET operations_public_key = ?,
				  encrypted_operations_seed = ?,
				  last_rotation_ts = ?,
				  updated_at = NOW()
			  WHERE id = 1 AND last_rotation_ts < ?`

	result, err := querier.ExecContext(ctx, query, operationsPublicKey, encryptedOperationsSeed, ts, ts)
	if err != nil {
		return apperrors.Wrap(err, "failed to advance rotation watermark")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read rotation result")
	}
	if rows == 0 {
		return signingDomain.ErrRotationReplay
	}

	return nil
}
