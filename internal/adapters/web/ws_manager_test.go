package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

func dial(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func TestWSManager_BroadcastsEvents(t *testing.T) {
	m := NewWSManager(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(m.HandleWebSocket))
	defer srv.Close()

	conn, _, err := dial(t, srv, "")
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	m.Publish(domain.ScanEvent{Type: domain.EventScanCompleted, ScanID: "abc", Status: domain.ScanCompleted})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type    string           `json:"type"`
		Payload domain.ScanEvent `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, domain.EventScanCompleted, msg.Type)
	assert.Equal(t, "abc", msg.Payload.ScanID)
}

func TestWSManager_RejectsForeignOrigin(t *testing.T) {
	m := NewWSManager([]string{"http://localhost:8080"}, nil)
	srv := httptest.NewServer(http.HandlerFunc(m.HandleWebSocket))
	defer srv.Close()

	_, resp, err := dial(t, srv, "http://evil.example")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := dial(t, srv, "http://localhost:8080")
	require.NoError(t, err)
	conn.Close()
}

func TestWSManager_AcceptsSameHostOrigin(t *testing.T) {
	m := NewWSManager(nil, nil)
	srv := httptest.NewServer(http.HandlerFunc(m.HandleWebSocket))
	defer srv.Close()

	conn, _, err := dial(t, srv, srv.URL)
	require.NoError(t, err)
	conn.Close()

	_, resp, err := dial(t, srv, "http://evil.example")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSameHost(t *testing.T) {
	assert.True(t, sameHost("http://127.0.0.1:8080", "127.0.0.1:8080"))
	assert.True(t, sameHost("https://Radar.LAN", "radar.lan"))
	assert.False(t, sameHost("http://127.0.0.1:9090", "127.0.0.1:8080"))
	assert.False(t, sameHost("null", "127.0.0.1:8080"))
	assert.False(t, sameHost("://bad", "127.0.0.1:8080"))
}

func TestWSManager_PublishNeverBlocks(t *testing.T) {
	m := NewWSManager(nil, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < eventBuffer*2; i++ {
			m.Publish(domain.ScanEvent{Type: domain.EventScanStarted})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without a running hub")
	}
}

func TestWSManager_ClosesClientsOnShutdown(t *testing.T) {
	m := NewWSManager(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(stopped)
	}()

	srv := httptest.NewServer(http.HandlerFunc(m.HandleWebSocket))
	defer srv.Close()

	conn, _, err := dial(t, srv, "")
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	<-stopped

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Zero(t, m.ClientCount())
}
