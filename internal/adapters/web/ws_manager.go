// Package web holds the WebSocket event hub shared by the HTTP server.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
)

const (
	writeWait   = 5 * time.Second
	eventBuffer = 64
)

// WSMessage is the envelope sent to WebSocket clients.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// WSManager fans scan events out to connected WebSocket clients.
type WSManager struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	events chan WSMessage
}

// NewWSManager creates a hub. Clients without an Origin header and clients
// whose Origin host matches the request Host are always accepted; any other
// origin must appear in allowedOrigins ("*" accepts all).
func NewWSManager(allowedOrigins []string, logger *slog.Logger) *WSManager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &WSManager{
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
		events:  make(chan WSMessage, eventBuffer),
	}
	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || sameHost(origin, r.Host) ||
				slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin) {
				return true
			}
			logger.Warn("WebSocket origin rejected", "origin", origin)
			return false
		},
	}
	return m
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

// Publish queues a scan event for broadcast. Events are dropped when the
// queue is full so scans never wait on slow clients.
func (m *WSManager) Publish(event domain.ScanEvent) {
	select {
	case m.events <- WSMessage{Type: event.Type, Payload: event}:
	default:
		m.logger.Warn("WebSocket event queue full, dropping event", "type", event.Type, "scan_id", event.ScanID)
	}
}

// Run broadcasts queued events until ctx is done, then closes all clients.
func (m *WSManager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return nil
		case msg := <-m.events:
			m.broadcastMessage(msg)
		}
	}
}

// HandleWebSocket upgrades the connection and registers the client.
func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Debug("WebSocket upgrade failed", "error", err)
		return
	}

	m.mu.Lock()
	m.clients[conn] = struct{}{}
	m.mu.Unlock()
	m.logger.Debug("WebSocket connected", "remote", r.RemoteAddr)

	// Clients never send data; reading detects disconnects.
	go func() {
		defer m.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// ClientCount returns the number of connected clients.
func (m *WSManager) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (m *WSManager) remove(conn *websocket.Conn) {
	m.mu.Lock()
	delete(m.clients, conn)
	m.mu.Unlock()
	conn.Close()
}

func (m *WSManager) broadcastMessage(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		m.logger.Error("WebSocket marshal failed", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(m.clients, conn)
		}
	}
}

func (m *WSManager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(time.Second))
		conn.Close()
		delete(m.clients, conn)
	}
}

var _ ports.EventPublisher = (*WSManager)(nil)
