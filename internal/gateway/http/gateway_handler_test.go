package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skatamatic/blulok-cloud-sub010/internal/gateway"
)

// recordingHub captures registered sessions so tests can drive the stream.
type recordingHub struct {
	registered   chan gateway.Session
	deregistered chan string
}

func newRecordingHub() *recordingHub {
	return &recordingHub{
		registered:   make(chan gateway.Session, 1),
		deregistered: make(chan string, 1),
	}
}

func (h *recordingHub) Register(session gateway.Session) {
	h.registered <- session
}

func (h *recordingHub) Deregister(sessionID string) {
	h.deregistered <- sessionID
}

func newAttachServer(hub *recordingHub) *httptest.Server {
	handler := NewGatewayHandler(hub, testLogger())
	router := gin.New()
	router.GET("/v1/gateways/:facility_id/commands", handler.AttachHandler)
	return httptest.NewServer(router)
}

func TestAttachHandler(t *testing.T) {
	t.Run("Success_StreamsCommandEnvelopes", func(t *testing.T) {
		hub := newRecordingHub()
		server := newAttachServer(hub)
		defer server.Close()

		resp, err := http.Get(server.URL + "/v1/gateways/facility-1/commands")
		require.NoError(t, err)
		defer func() {
			_ = resp.Body.Close()
		}()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

		var session gateway.Session
		select {
		case session = <-hub.registered:
		case <-time.After(time.Second):
			t.Fatal("session was not registered")
		}
		assert.Equal(t, "facility-1", session.FacilityID())

		envelope := `[{"cmd_type":"DENYLIST_ADD"},"c2ln"]`
		require.NoError(t, session.Send(context.Background(), []byte(envelope)))

		// Closing the session ends the stream, so the whole body can be read.
		require.NoError(t, session.Close())

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "event:command")
		assert.Contains(t, string(body), envelope)

		select {
		case sessionID := <-hub.deregistered:
			assert.Equal(t, session.ID(), sessionID)
		case <-time.After(time.Second):
			t.Fatal("session was not deregistered")
		}
	})

	t.Run("Success_ClientDisconnectDeregistersSession", func(t *testing.T) {
		hub := newRecordingHub()
		server := newAttachServer(hub)
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		req, err := http.NewRequestWithContext(
			ctx, http.MethodGet, server.URL+"/v1/gateways/facility-2/commands", nil,
		)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() {
			_ = resp.Body.Close()
		}()

		var session gateway.Session
		select {
		case session = <-hub.registered:
		case <-time.After(time.Second):
			t.Fatal("session was not registered")
		}

		cancel()

		select {
		case sessionID := <-hub.deregistered:
			assert.Equal(t, session.ID(), sessionID)
		case <-time.After(time.Second):
			t.Fatal("session was not deregistered after disconnect")
		}
	})

	t.Run("Success_FacilityIDComesFromPath", func(t *testing.T) {
		hub := newRecordingHub()
		server := newAttachServer(hub)
		defer server.Close()

		facilityID := "facility-" + strings.Repeat("x", 8)
		resp, err := http.Get(server.URL + "/v1/gateways/" + facilityID + "/commands")
		require.NoError(t, err)
		defer func() {
			_ = resp.Body.Close()
		}()

		select {
		case session := <-hub.registered:
			assert.Equal(t, facilityID, session.FacilityID())
			require.NoError(t, session.Close())
		case <-time.After(time.Second):
			t.Fatal("session was not registered")
		}
	})
}
