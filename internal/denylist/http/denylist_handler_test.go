package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skatamatic/blulok-cloud-sub010/internal/denylist/domain"
	"github.com/skatamatic/blulok-cloud-sub010/internal/denylist/http/dto"
	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// MockDenylistEngine is a mock implementation of usecase.DenylistEngine.
type MockDenylistEngine struct {
	mock.Mock
}

func (m *MockDenylistEngine) GrantLoss(
	ctx context.Context,
	userID string,
	deviceIDs []string,
	meta domain.EventMeta,
) (*signingDomain.CommandPacket, error) {
	args := m.Called(ctx, userID, deviceIDs, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signingDomain.CommandPacket), args.Error(1)
}

func (m *MockDenylistEngine) GrantRestoration(
	ctx context.Context,
	userID string,
	deviceIDs []string,
) (*signingDomain.CommandPacket, error) {
	args := m.Called(ctx, userID, deviceIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signingDomain.CommandPacket), args.Error(1)
}

// MockTransport is a mock implementation of gateway.Transport.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) UnicastToFacility(
	ctx context.Context,
	facilityID string,
	packet *signingDomain.CommandPacket,
) error {
	args := m.Called(ctx, facilityID, packet)
	return args.Error(0)
}

func (m *MockTransport) Broadcast(ctx context.Context, packet *signingDomain.CommandPacket) error {
	args := m.Called(ctx, packet)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupRouter(engine *MockDenylistEngine, transport *MockTransport) *gin.Engine {
	handler := NewDenylistHandler(engine, transport, testLogger())

	router := gin.New()
	router.POST("/v1/denylist", handler.AddHandler)
	router.DELETE("/v1/denylist", handler.RemoveHandler)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, "/v1/denylist", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func testPacket() *signingDomain.CommandPacket {
	return &signingDomain.CommandPacket{
		Payload:   json.RawMessage(`{"cmd_type":"DENYLIST_ADD"}`),
		Signature: []byte("signature"),
	}
}

func TestDenylistHandlerAdd(t *testing.T) {
	t.Run("Success_SendsPacket", func(t *testing.T) {
		engine := &MockDenylistEngine{}
		transport := &MockTransport{}
		router := setupRouter(engine, transport)

		packet := testPacket()
		engine.On("GrantLoss", mock.Anything, "user-1", []string{"dev-123"},
			domain.EventMeta{CreatedBy: "ops-user-7", Source: domain.SourceManual}).
			Return(packet, nil)
		transport.On("UnicastToFacility", mock.Anything, "fac-1", packet).Return(nil)

		w := doRequest(t, router, http.MethodPost, dto.AddDenylistRequest{
			UserID:     "user-1",
			DeviceIDs:  []string{"dev-123"},
			FacilityID: "fac-1",
			CreatedBy:  "ops-user-7",
		})

		require.Equal(t, http.StatusCreated, w.Code)

		var resp dto.DenylistMutationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Sent)
		assert.Equal(t, "user-1", resp.UserID)
	})

	t.Run("Success_SkippedSendReportsNotSent", func(t *testing.T) {
		engine := &MockDenylistEngine{}
		transport := &MockTransport{}
		router := setupRouter(engine, transport)

		engine.On("GrantLoss", mock.Anything, "user-1", []string{"dev-123"}, mock.Anything).
			Return(nil, nil)

		w := doRequest(t, router, http.MethodPost, dto.AddDenylistRequest{
			UserID:     "user-1",
			DeviceIDs:  []string{"dev-123"},
			FacilityID: "fac-1",
		})

		require.Equal(t, http.StatusCreated, w.Code)

		var resp dto.DenylistMutationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Sent)
		transport.AssertNotCalled(t, "UnicastToFacility", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success_TransportFailureStillCreated", func(t *testing.T) {
		engine := &MockDenylistEngine{}
		transport := &MockTransport{}
		router := setupRouter(engine, transport)

		packet := testPacket()
		engine.On("GrantLoss", mock.Anything, "user-1", []string{"dev-123"}, mock.Anything).
			Return(packet, nil)
		transport.On("UnicastToFacility", mock.Anything, "fac-1", packet).
			Return(apperrors.ErrTransportUnavailable)

		w := doRequest(t, router, http.MethodPost, dto.AddDenylistRequest{
			UserID:     "user-1",
			DeviceIDs:  []string{"dev-123"},
			FacilityID: "fac-1",
		})

		require.Equal(t, http.StatusCreated, w.Code)

		var resp dto.DenylistMutationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Sent)
	})

	t.Run("Failure_ValidationError", func(t *testing.T) {
		engine := &MockDenylistEngine{}
		transport := &MockTransport{}
		router := setupRouter(engine, transport)

		w := doRequest(t, router, http.MethodPost, map[string]any{
			"user_id":     "user-1",
			"device_ids":  []string{},
			"facility_id": "fac-1",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		engine.AssertNotCalled(t, "GrantLoss", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure_StorageError", func(t *testing.T) {
		engine := &MockDenylistEngine{}
		transport := &MockTransport{}
		router := setupRouter(engine, transport)

		engine.On("GrantLoss", mock.Anything, "user-1", []string{"dev-123"}, mock.Anything).
			Return(nil, apperrors.ErrStorageFailure)

		w := doRequest(t, router, http.MethodPost, dto.AddDenylistRequest{
			UserID:     "user-1",
			DeviceIDs:  []string{"dev-123"},
			FacilityID: "fac-1",
		})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestDenylistHandlerRemove(t *testing.T) {
	t.Run("Success_SendsPacket", func(t *testing.T) {
		engine := &MockDenylistEngine{}
		transport := &MockTransport{}
		router := setupRouter(engine, transport)

		packet := testPacket()
		engine.On("GrantRestoration", mock.Anything, "user-1", []string{"dev-123"}).
			Return(packet, nil)
		transport.On("UnicastToFacility", mock.Anything, "fac-1", packet).Return(nil)

		w := doRequest(t, router, http.MethodDelete, dto.RemoveDenylistRequest{
			UserID:     "user-1",
			DeviceIDs:  []string{"dev-123"},
			FacilityID: "fac-1",
		})

		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.DenylistMutationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Sent)
	})

	t.Run("Success_NothingToRestore", func(t *testing.T) {
		engine := &MockDenylistEngine{}
		transport := &MockTransport{}
		router := setupRouter(engine, transport)

		engine.On("GrantRestoration", mock.Anything, "user-1", []string{"dev-123"}).
			Return(nil, nil)

		w := doRequest(t, router, http.MethodDelete, dto.RemoveDenylistRequest{
			UserID:     "user-1",
			DeviceIDs:  []string{"dev-123"},
			FacilityID: "fac-1",
		})

		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.DenylistMutationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Sent)
	})
}
