// Package repository implements signing key state persistence.
package repository

import (
	"context"
	"crypto/ed25519"
	"database/sql"

	"github.com/skatamatic/blulok-cloud-sub010/internal/database"
	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// PostgreSQLKeyStateRepository persists the single signing key state row for
// PostgreSQL. Rotation advances happen as an atomic conditional update so the
// watermark check and the write cannot race.
type PostgreSQLKeyStateRepository struct {
	db *sql.DB
}

// NewPostgreSQLKeyStateRepository creates a new PostgreSQL key state repository.
func NewPostgreSQLKeyStateRepository(db *sql.DB) *PostgreSQLKeyStateRepository {
	return &PostgreSQLKeyStateRepository{db: db}
}

// Get loads the signing key state. Returns ErrKeyStateNotFound if the state
// row has not been initialized.
func (p *PostgreSQLKeyStateRepository) Get(ctx context.Context) (*signingDomain.KeyState, error) {
	querier := database.GetTx(ctx, p.db)

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
func (p *PostgreSQLKeyStateRepository) Initialize(
	ctx context.Context,
	state *signingDomain.KeyState,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO signing_key_state
				  (id, operations_public_key, encrypted_operations_seed, root_public_key,
				   last_rotation_ts, updated_at)
			  VALUES (1, $1, $2, $3, $4, $5)
			  ON CONFLICT (id) DO NOTHING`

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
// operations key material. The update only matches when ts is strictly
// greater than the persisted watermark; a non-advancing ts is a replay.
func (p *PostgreSQLKeyStateRepository) AdvanceRotation(
	ctx context.Context,
	ts int64,
	operationsPublicKey []byte,
	encryptedOperationsSeed []byte,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE signing_key_state
			  SET operations_public_key = $1,
				  encrypted_operations_seed = $2,
				  last_rotation_ts = $3,
				  updated_at = NOW()
			  WHERE id = 1 AND last_rotation_ts < $3`

	result, err := querier.ExecContext(ctx, query, operationsPublicKey, encryptedOperationsSeed, ts)
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
