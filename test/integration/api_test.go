// Package integration provides end-to-end integration tests for the access
// backend API. Tests run the full container against both PostgreSQL and MySQL.
package integration

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skatamatic/blulok-cloud-sub010/internal/app"
	"github.com/skatamatic/blulok-cloud-sub010/internal/config"
	denylistDTO "github.com/skatamatic/blulok-cloud-sub010/internal/denylist/http/dto"
	routePassDTO "github.com/skatamatic/blulok-cloud-sub010/internal/routepass/http/dto"
	signingDTO "github.com/skatamatic/blulok-cloud-sub010/internal/signing/http/dto"
	signingService "github.com/skatamatic/blulok-cloud-sub010/internal/signing/service"
	"github.com/skatamatic/blulok-cloud-sub010/internal/testutil"
)

const (
	testFacilityID = "facility-1"
	testGatewayID  = "gw-1"
	testUnitID     = "unit-1"
	testTenantID   = "tenant-user-1"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container       *app.Container
	db              *sql.DB
	server          *httptest.Server
	opsPublicKey    string // base64, pinned by the issuance verification path
	rootPrivateKey  string // base64 seed from the dev-mode ceremony
	devicePublicKey string // base64, registered for testTenantID
	dbDriver        string
}

// makeRequest performs an HTTP request and returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// generateDeviceKey creates a fresh requesting-device key pair and returns the
// base64 public key the device would present during issuance.
func generateDeviceKey(t *testing.T) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err, "failed to generate device key")
	return base64.StdEncoding.EncodeToString(pub)
}

// setupIntegrationTest initializes all components for integration testing.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	// Setup database
	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	cfg := &config.Config{
		DBDriver:             dbDriver,
		DBConnectionString:   dsn,
		DBMaxOpenConnections: 10,
		DBMaxIdleConnections: 5,
		DBConnMaxLifetime:    time.Hour,
		ServerHost:           "localhost",
		ServerPort:           8080,
		LogLevel:             "error",
		IssuerID:             "blulok-root",
		RoutePassTTL:         time.Hour,
		GatewaySendTimeout:   time.Second,
		StorageTimeout:       5 * time.Second,
		OutboxInterval:       time.Second,
		OutboxBatchSize:      10,
		OutboxMaxRetries:     3,
	}

	container := app.NewContainer(cfg)

	// First-boot key ceremony. No KMS is configured, so the ceremony returns
	// the root seed for the operator; the tests play that operator.
	rotationUseCase, err := container.RotationUseCase()
	require.NoError(t, err, "failed to get rotation use case")

	initOutput, err := rotationUseCase.InitializeKeys(context.Background())
	require.NoError(t, err, "failed to run key ceremony")
	require.NotEmpty(t, initOutput.RootPrivateKey, "dev ceremony should return the root seed")

	// Facility topology: one gateway, two locks on the tenant's unit, and a
	// registered requesting device.
	testutil.CreateTestGateway(t, db, dbDriver, testGatewayID, testFacilityID)
	testutil.CreateTestLockDevice(t, db, dbDriver, "lock-1", testUnitID, testGatewayID)
	testutil.CreateTestLockDevice(t, db, dbDriver, "lock-2", testUnitID, testGatewayID)
	testutil.AssignUnitToTenant(t, db, dbDriver, testUnitID, testTenantID)

	devicePublicKey := generateDeviceKey(t)
	testutil.RegisterUserDevice(t, db, dbDriver, "phone-1", testTenantID, devicePublicKey)

	httpSrv, err := container.HTTPServer(context.Background())
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil")

	testServer := httptest.NewServer(handler)

	t.Logf("Integration test setup complete for %s", dbDriver)

	return &integrationTestContext{
		container:       container,
		db:              db,
		server:          testServer,
		opsPublicKey:    initOutput.OperationsPublicKey,
		rootPrivateKey:  initOutput.RootPrivateKey,
		devicePublicKey: devicePublicKey,
		dbDriver:        dbDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}

	t.Logf("Integration test teardown complete for %s", ctx.dbDriver)
}

// skipUnavailable skips the test when the target database is not reachable.
func skipUnavailable(t *testing.T, dbDriver string) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if dbDriver == "postgres" {
		testutil.SkipIfNoPostgres(t)
	} else {
		testutil.SkipIfNoMySQL(t)
	}
}

// denylistRowCount returns the number of denylist entries for a user.
func (ctx *integrationTestContext) denylistRowCount(t *testing.T, userID string) int {
	t.Helper()

	query := "SELECT COUNT(*) FROM denylist_entries WHERE user_id = $1"
	if ctx.dbDriver == "mysql" {
		query = "SELECT COUNT(*) FROM denylist_entries WHERE user_id = ?"
	}

	var count int
	err := ctx.db.QueryRow(query, userID).Scan(&count)
	require.NoError(t, err, "failed to count denylist entries")
	return count
}

var integrationDrivers = []struct {
	name     string
	dbDriver string
}{
	{"PostgreSQL", "postgres"},
	{"MySQL", "mysql"},
}

// TestIntegration_Health_BasicChecks validates liveness and readiness endpoints.
func TestIntegration_Health_BasicChecks(t *testing.T) {
	for _, tc := range integrationDrivers {
		t.Run(tc.name, func(t *testing.T) {
			skipUnavailable(t, tc.dbDriver)

			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.JSONEq(t, `{"status":"healthy"}`, string(body))

			// No gateway is attached, so readiness reports no reachable
			// facilities.
			resp, body = ctx.makeRequest(t, http.MethodGet, "/ready", nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.JSONEq(t, `{"status":"ready","connected_facilities":[]}`, string(body))
		})
	}
}

// TestIntegration_RoutePassIssuance exercises the full issuance path: device
// binding, audience computation from the facility topology, signing, and the
// audit trail.
func TestIntegration_RoutePassIssuance(t *testing.T) {
	for _, tc := range integrationDrivers {
		t.Run(tc.name, func(t *testing.T) {
			skipUnavailable(t, tc.dbDriver)

			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			issueReq := routePassDTO.IssueRoutePassRequest{
				UserID:          testTenantID,
				Role:            "TENANT",
				DevicePublicKey: ctx.devicePublicKey,
			}

			resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/route-passes", issueReq)
			require.Equal(t, http.StatusCreated, resp.StatusCode, "issuance failed: %s", string(body))

			var pass routePassDTO.RoutePassResponse
			require.NoError(t, json.Unmarshal(body, &pass))
			assert.ElementsMatch(t, []string{"lock-1", "lock-2"}, pass.Audiences)
			assert.NotEmpty(t, pass.Jti)
			assert.WithinDuration(t, time.Now().Add(time.Hour), pass.ExpiresAt, time.Minute)

			// The pass must verify against the operations public key the
			// ceremony published, exactly as lock firmware would check it.
			opsPub, err := signingService.ParsePublicKey(ctx.opsPublicKey)
			require.NoError(t, err)

			claims, err := signingService.NewTokenSigner().Verify(pass.Token, opsPub, time.Now())
			require.NoError(t, err, "minted pass must verify against the operations key")
			assert.Equal(t, "blulok-root", claims.Iss)
			assert.Equal(t, testTenantID, claims.Sub)
			assert.Equal(t, ctx.devicePublicKey, claims.DevicePublicKey)
			assert.ElementsMatch(t, pass.Audiences, claims.Aud)

			// An unregistered device never gets a pass.
			issueReq.DevicePublicKey = generateDeviceKey(t)
			resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/route-passes", issueReq)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)

			// The successful issuance is on the audit trail.
			resp, body = ctx.makeRequest(
				t, http.MethodGet, fmt.Sprintf("/v1/route-passes?user_id=%s", testTenantID), nil,
			)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var history routePassDTO.IssuanceListResponse
			require.NoError(t, json.Unmarshal(body, &history))
			require.Len(t, history.Issuances, 1)
			assert.Equal(t, pass.Jti, history.Issuances[0].Jti)
			assert.Equal(t, "phone-1", history.Issuances[0].DeviceID)
		})
	}
}

// TestIntegration_DenylistLifecycle exercises manual revocation and
// restoration. No gateway is attached, so the durable change lands while the
// wire send is reported as not delivered.
func TestIntegration_DenylistLifecycle(t *testing.T) {
	for _, tc := range integrationDrivers {
		t.Run(tc.name, func(t *testing.T) {
			skipUnavailable(t, tc.dbDriver)

			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			addReq := denylistDTO.AddDenylistRequest{
				UserID:     testTenantID,
				DeviceIDs:  []string{"lock-1", "lock-2"},
				FacilityID: testFacilityID,
				CreatedBy:  "ops-console",
			}

			resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/denylist", addReq)
			require.Equal(t, http.StatusCreated, resp.StatusCode, "denylist add failed: %s", string(body))

			var mutation denylistDTO.DenylistMutationResponse
			require.NoError(t, json.Unmarshal(body, &mutation))
			assert.False(t, mutation.Sent, "no gateway is attached")
			assert.Equal(t, 2, ctx.denylistRowCount(t, testTenantID))

			removeReq := denylistDTO.RemoveDenylistRequest{
				UserID:     testTenantID,
				DeviceIDs:  []string{"lock-1", "lock-2"},
				FacilityID: testFacilityID,
			}

			resp, body = ctx.makeRequest(t, http.MethodDelete, "/v1/denylist", removeReq)
			require.Equal(t, http.StatusOK, resp.StatusCode, "denylist remove failed: %s", string(body))
			assert.Equal(t, 0, ctx.denylistRowCount(t, testTenantID))
		})
	}
}

// TestIntegration_OperationsKeyRotation exercises a legacy rotation ceremony
// and the replay guard on the rotation watermark.
func TestIntegration_OperationsKeyRotation(t *testing.T) {
	for _, tc := range integrationDrivers {
		t.Run(tc.name, func(t *testing.T) {
			skipUnavailable(t, tc.dbDriver)

			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			ts := time.Now().Unix()
			rotateReq := signingDTO.RotateOperationsKeyRequest{
				RootPrivateKey: ctx.rootPrivateKey,
				Ts:             ts,
			}

			resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/keys/rotate", rotateReq)
			require.Equal(t, http.StatusOK, resp.StatusCode, "rotation failed: %s", string(body))

			var rotation signingDTO.RotateOperationsKeyResponse
			require.NoError(t, json.Unmarshal(body, &rotation))
			assert.Equal(t, ts, rotation.Ts)
			assert.NotEmpty(t, rotation.NewPublicKey)
			assert.NotEqual(t, ctx.opsPublicKey, rotation.NewPublicKey)
			assert.NotEmpty(t, rotation.GeneratedPrivateKey, "legacy ceremony returns the generated seed")

			// The running server signs with the new key immediately: a pass
			// minted after the ceremony verifies under the rotated key and is
			// rejected under the retired one, as lock firmware would reject it.
			issueReq := routePassDTO.IssueRoutePassRequest{
				UserID:          testTenantID,
				Role:            "TENANT",
				DevicePublicKey: ctx.devicePublicKey,
			}
			resp, body = ctx.makeRequest(t, http.MethodPost, "/v1/route-passes", issueReq)
			require.Equal(t, http.StatusCreated, resp.StatusCode, "issuance failed: %s", string(body))

			var pass routePassDTO.RoutePassResponse
			require.NoError(t, json.Unmarshal(body, &pass))

			newOpsPub, err := signingService.ParsePublicKey(rotation.NewPublicKey)
			require.NoError(t, err)
			_, err = signingService.NewTokenSigner().Verify(pass.Token, newOpsPub, time.Now())
			assert.NoError(t, err, "pass minted after rotation must verify under the new key")

			oldOpsPub, err := signingService.ParsePublicKey(ctx.opsPublicKey)
			require.NoError(t, err)
			_, err = signingService.NewTokenSigner().Verify(pass.Token, oldOpsPub, time.Now())
			assert.Error(t, err, "retired key must no longer verify freshly minted passes")

			// Same watermark again must be refused.
			resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/keys/rotate", rotateReq)
			assert.Equal(t, http.StatusConflict, resp.StatusCode)

			// A stale watermark must be refused too.
			rotateReq.Ts = ts - 100
			resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/keys/rotate", rotateReq)
			assert.Equal(t, http.StatusConflict, resp.StatusCode)
		})
	}
}
