package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skatamatic/blulok-cloud-sub010/internal/denylist/domain"
	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

// MockDenylistRepository is a mock implementation of DenylistRepository.
type MockDenylistRepository struct {
	mock.Mock
}

func (m *MockDenylistRepository) UpsertBatch(ctx context.Context, entries []*domain.DenylistEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockDenylistRepository) FindActive(
	ctx context.Context,
	userID string,
	deviceIDs []string,
) ([]*domain.DenylistEntry, error) {
	args := m.Called(ctx, userID, deviceIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DenylistEntry), args.Error(1)
}

func (m *MockDenylistRepository) DeleteBatch(ctx context.Context, userID string, deviceIDs []string) error {
	args := m.Called(ctx, userID, deviceIDs)
	return args.Error(0)
}

// MockOptimizationPolicy is a mock implementation of OptimizationPolicy.
type MockOptimizationPolicy struct {
	mock.Mock
}

func (m *MockOptimizationPolicy) ShouldSkipAdd(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOptimizationPolicy) ShouldSkipRemove(entry *domain.DenylistEntry, now time.Time) bool {
	args := m.Called(entry, now)
	return args.Bool(0)
}

// MockCommandSigner is a mock implementation of CommandSigner.
type MockCommandSigner struct {
	mock.Mock
}

func (m *MockCommandSigner) SignCommand(payload any) (*signingDomain.CommandPacket, error) {
	args := m.Called(payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signingDomain.CommandPacket), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signedPacket() *signingDomain.CommandPacket {
	return &signingDomain.CommandPacket{
		Payload:   json.RawMessage(`{"cmd_type":"DENYLIST_ADD"}`),
		Signature: []byte("signature"),
	}
}

const testTTL = 24 * time.Hour

func TestDenylistEngineGrantLoss(t *testing.T) {
	ctx := context.Background()
	meta := domain.EventMeta{CreatedBy: "fms-sync", Source: domain.SourceUnitUnassignment}

	t.Run("Success_PersistsAndSends", func(t *testing.T) {
		repo := &MockDenylistRepository{}
		policy := &MockOptimizationPolicy{}
		signer := &MockCommandSigner{}
		engine := NewDenylistEngine(testTTL, repo, policy, signer, testLogger())

		deviceIDs := []string{"dev-123", "dev-999"}

		repo.On("UpsertBatch", ctx, mock.MatchedBy(func(entries []*domain.DenylistEntry) bool {
			if len(entries) != 2 {
				return false
			}
			for i, entry := range entries {
				if entry.UserID != "user-1" || entry.DeviceID != deviceIDs[i] {
					return false
				}
				if entry.Source != domain.SourceUnitUnassignment || entry.CreatedBy != "fms-sync" {
					return false
				}
				if entry.ExpiresAt.Before(time.Now().Add(testTTL - time.Minute)) {
					return false
				}
			}
			return true
		})).Return(nil)
		policy.On("ShouldSkipAdd", ctx, "user-1").Return(false, nil)
		signer.On("SignCommand", mock.MatchedBy(func(payload any) bool {
			cmd, ok := payload.(*signingDomain.DenylistCommand)
			if !ok || cmd.CmdType != signingDomain.CmdDenylistAdd {
				return false
			}
			return len(cmd.Entries) == 1 &&
				cmd.Entries[0].Sub == "user-1" &&
				cmd.Entries[0].Exp > time.Now().Unix() &&
				assert.ObjectsAreEqual(deviceIDs, cmd.TargetDeviceIDs)
		})).Return(signedPacket(), nil)

		packet, err := engine.GrantLoss(ctx, "user-1", deviceIDs, meta)
		require.NoError(t, err)
		require.NotNil(t, packet)

		repo.AssertExpectations(t)
		policy.AssertExpectations(t)
		signer.AssertExpectations(t)
	})

	t.Run("Success_EmptyDeviceListIsNoOp", func(t *testing.T) {
		repo := &MockDenylistRepository{}
		policy := &MockOptimizationPolicy{}
		signer := &MockCommandSigner{}
		engine := NewDenylistEngine(testTTL, repo, policy, signer, testLogger())

		packet, err := engine.GrantLoss(ctx, "user-1", nil, meta)
		require.NoError(t, err)
		assert.Nil(t, packet)

		repo.AssertNotCalled(t, "UpsertBatch", mock.Anything, mock.Anything)
		signer.AssertNotCalled(t, "SignCommand", mock.Anything)
	})

	t.Run("Success_PolicySkipPersistsWithoutSend", func(t *testing.T) {
		repo := &MockDenylistRepository{}
		policy := &MockOptimizationPolicy{}
		signer := &MockCommandSigner{}
		engine := NewDenylistEngine(testTTL, repo, policy, signer, testLogger())

		repo.On("UpsertBatch", ctx, mock.Anything).Return(nil)
		policy.On("ShouldSkipAdd", ctx, "user-1").Return(true, nil)

		packet, err := engine.GrantLoss(ctx, "user-1", []string{"dev-123"}, meta)
		require.NoError(t, err)
		assert.Nil(t, packet)

		repo.AssertExpectations(t)
		signer.AssertNotCalled(t, "SignCommand", mock.Anything)
	})

	t.Run("Success_PolicyErrorSendsAnyway", func(t *testing.T) {
		repo := &MockDenylistRepository{}
		policy := &MockOptimizationPolicy{}
		signer := &MockCommandSigner{}
		engine := NewDenylistEngine(testTTL, repo, policy, signer, testLogger())

		repo.On("UpsertBatch", ctx, mock.Anything).Return(nil)
		policy.On("ShouldSkipAdd", ctx, "user-1").Return(false, errors.New("pass store down"))
		signer.On("SignCommand", mock.Anything).Return(signedPacket(), nil)

		packet, err := engine.GrantLoss(ctx, "user-1", []string{"dev-123"}, meta)
		require.NoError(t, err)
		assert.NotNil(t, packet)
	})

	t.Run("Failure_StorageErrorIsFatal", func(t *testing.T) {
		repo := &MockDenylistRepository{}
		policy := &MockOptimizationPolicy{}
		signer := &MockCommandSigner{}
		engine := NewDenylistEngine(testTTL, repo, policy, signer, testLogger())

		repo.On("UpsertBatch", ctx, mock.Anything).Return(errors.New("connection refused"))

		packet, err := engine.GrantLoss(ctx, "user-1", []string{"dev-123"}, meta)
		assert.ErrorIs(t, err, apperrors.ErrStorageFailure)
		assert.Nil(t, packet)

		policy.AssertNotCalled(t, "ShouldSkipAdd", mock.Anything, mock.Anything)
		signer.AssertNotCalled(t, "SignCommand", mock.Anything)
	})

	t.Run("Failure_SigningError", func(t *testing.T) {
		repo := &MockDenylistRepository{}
		policy := &MockOptimizationPolicy{}
		signer := &MockCommandSigner{}
		engine := NewDenylistEngine(testTTL, repo, policy, signer, testLogger())

		repo.On("UpsertBatch", ctx, mock.Anything).Return(nil)
		policy.On("ShouldSkipAdd", ctx, "user-1").Return(false, nil)
		signer.On("SignCommand", mock.Anything).Return(nil, errors.New("key unavailable"))

		packet, err := engine.GrantLoss(ctx, "user-1", []string{"dev-123"}, meta)
		assert.Error(t, err)
		assert.Nil(t, packet)
	})
}

func TestDenylistEngineGrantRestoration(t *testing.T) {
	ctx := context.Background()

	activeEntry := func(deviceID string) *domain.DenylistEntry {
		return &domain.DenylistEntry{
			DeviceID:  deviceID,
			UserID:    "user-1",
			ExpiresAt: time.Now().Add(time.Hour),
		}
	}

	t.Run("Success_DeletesAndSends", func(t *testing.T) {
		repo := &MockDenylistRepository{}
		policy := &MockOptimizationPolicy{}
		signer := &MockCommandSigner{}
		engine := NewDenylistEngine(testTTL, repo, policy, signer, testLogger())

		entry := activeEntry("dev-123")
		repo.On("FindActive", ctx, "user-1", []string{"dev-123", "dev-999"}).
			Return([]*domain.DenylistEntry{entry}, nil)
		repo.On("DeleteBatch", ctx, "user-1", []string{"dev-123"}).Return(nil)
		policy.On("ShouldSkipRemove", entry, mock.Anything).Return(false)
		signer.On("SignCommand", mock.MatchedBy(func(payload any) bool {
			cmd, ok := payload.(*signingDomain.DenylistCommand)
			if !ok || cmd.CmdType != signingDomain.CmdDenylistRemove {
				return false
			}
			return len(cmd.Entries) == 1 &&
				cmd.Entries[0].Sub == "user-1" &&
				cmd.Entries[0].Exp == 0 &&
				assert.ObjectsAreEqual([]string{"dev-123"}, cmd.TargetDeviceIDs)
		})).Return(signedPacket(), nil)

		packet, err := engine.GrantRestoration(ctx, "user-1", []string{"dev-123", "dev-999"})
		require.NoError(t, err)
		assert.NotNil(t, packet)

		repo.AssertExpectations(t)
		signer.AssertExpectations(t)
	})

	t.Run("Success_NoEntriesIsNoOp", func(t *testing.T) {
		repo := &MockDenylistRepository{}
		policy := &MockOptimizationPolicy{}
		signer := &MockCommandSigner{}
		engine := NewDenylistEngine(testTTL, repo, policy, signer, testLogger())

		repo.On("FindActive", ctx, "user-1", []string{"dev-123"}).
			Return([]*domain.DenylistEntry{}, nil)

		packet, err := engine.GrantRestoration(ctx, "user-1", []string{"dev-123"})
		require.NoError(t, err)
		assert.Nil(t, packet)

		repo.AssertNotCalled(t, "DeleteBatch", mock.Anything, mock.Anything, mock.Anything)
		signer.AssertNotCalled(t, "SignCommand", mock.Anything)
	})

	t.Run("Success_ExpiredEntryDeletedWithoutSend", func(t *testing.T) {
		repo := &MockDenylistRepository{}
		policy := &MockOptimizationPolicy{}
		signer := &MockCommandSigner{}
		engine := NewDenylistEngine(testTTL, repo, policy, signer, testLogger())

		expired := &domain.DenylistEntry{
			DeviceID:  "dev-123",
			UserID:    "user-1",
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		repo.On("FindActive", ctx, "user-1", []string{"dev-123"}).
			Return([]*domain.DenylistEntry{expired}, nil)
		repo.On("DeleteBatch", ctx, "user-1", []string{"dev-123"}).Return(nil)
		policy.On("ShouldSkipRemove", expired, mock.Anything).Return(true)

		packet, err := engine.GrantRestoration(ctx, "user-1", []string{"dev-123"})
		require.NoError(t, err)
		assert.Nil(t, packet)

		repo.AssertExpectations(t)
		signer.AssertNotCalled(t, "SignCommand", mock.Anything)
	})

	t.Run("Success_EmptyDeviceListIsNoOp", func(t *testing.T) {
		repo := &MockDenylistRepository{}
		policy := &MockOptimizationPolicy{}
		signer := &MockCommandSigner{}
		engine := NewDenylistEngine(testTTL, repo, policy, signer, testLogger())

		packet, err := engine.GrantRestoration(ctx, "user-1", nil)
		require.NoError(t, err)
		assert.Nil(t, packet)

		repo.AssertNotCalled(t, "FindActive", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure_StorageErrorIsFatal", func(t *testing.T) {
		repo := &MockDenylistRepository{}
		policy := &MockOptimizationPolicy{}
		signer := &MockCommandSigner{}
		engine := NewDenylistEngine(testTTL, repo, policy, signer, testLogger())

		repo.On("FindActive", ctx, "user-1", []string{"dev-123"}).
			Return(nil, errors.New("connection refused"))

		packet, err := engine.GrantRestoration(ctx, "user-1", []string{"dev-123"})
		assert.ErrorIs(t, err, apperrors.ErrStorageFailure)
		assert.Nil(t, packet)
	})

	t.Run("Failure_DeleteErrorIsFatal", func(t *testing.T) {
		repo := &MockDenylistRepository{}
		policy := &MockOptimizationPolicy{}
		signer := &MockCommandSigner{}
		engine := NewDenylistEngine(testTTL, repo, policy, signer, testLogger())

		entry := activeEntry("dev-123")
		repo.On("FindActive", ctx, "user-1", []string{"dev-123"}).
			Return([]*domain.DenylistEntry{entry}, nil)
		repo.On("DeleteBatch", ctx, "user-1", []string{"dev-123"}).
			Return(errors.New("connection refused"))

		packet, err := engine.GrantRestoration(ctx, "user-1", []string{"dev-123"})
		assert.ErrorIs(t, err, apperrors.ErrStorageFailure)
		assert.Nil(t, packet)
	})
}
