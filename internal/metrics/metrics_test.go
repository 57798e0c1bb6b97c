package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)
	assert.NotNil(t, provider.MeterProvider())

	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})
}

func TestProviderHandlerServesMetrics(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	bm.RecordOperation(context.Background(), "routepass", "issue", "success")
	bm.RecordDuration(context.Background(), "denylist", "grant_loss", 42*time.Millisecond, "success")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	provider.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "test_app_operations_total")
	assert.Contains(t, string(body), "test_app_operation_duration_seconds")
}

func TestNoOpBusinessMetrics(t *testing.T) {
	bm := NewNoOpBusinessMetrics()

	bm.RecordOperation(context.Background(), "signing", "rotate_operations_key", "success")
	bm.RecordDuration(context.Background(), "signing", "rotate_operations_key", time.Second, "error")
}
