package server

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lcalzada-xor/wifiradar/internal/adapters/fingerprint"
	"github.com/lcalzada-xor/wifiradar/internal/adapters/storage"
	"github.com/lcalzada-xor/wifiradar/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/services/auth"
	"github.com/lcalzada-xor/wifiradar/internal/core/services/scan"
	"github.com/lcalzada-xor/wifiradar/internal/core/services/tables"
)

type runnerFunc func(ctx context.Context, iface string, timeout time.Duration) ([]domain.AccessPointRecord, error)

func (f runnerFunc) RunScan(ctx context.Context, iface string, timeout time.Duration) ([]domain.AccessPointRecord, error) {
	return f(ctx, iface, timeout)
}

type listerFunc func(ctx context.Context) ([]domain.InterfaceInfo, error)

func (f listerFunc) ListInterfaces(ctx context.Context) ([]domain.InterfaceInfo, error) {
	return f(ctx)
}

var seenAt = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func fixtureRecords() []domain.AccessPointRecord {
	return []domain.AccessPointRecord{
		{
			BSSID: "00:40:96:DD:EE:FF", SSID: "TestNet", SignalDBm: -45, FrequencyMHz: 2437,
			Channel: domain.IntPtr(6), Security: domain.SecurityWPA2, Vendor: "Cisco",
			VulnerabilityScore: 52, ThreatLevel: domain.ThreatMedium, LastSeen: seenAt,
		},
		{
			BSSID: "00:13:C4:01:02:03", Hidden: true, SignalDBm: -55, FrequencyMHz: 2412,
			Channel: domain.IntPtr(1), Security: domain.SecurityOpen, Vendor: domain.UnknownVendor,
			VulnerabilityScore: 100, ThreatLevel: domain.ThreatCritical, LastSeen: seenAt,
		},
	}
}

type testEnv struct {
	srv      *Server
	handler  http.Handler
	sessions *scan.SessionStore
	history  *storage.SQLiteAdapter
}

func setupServer(t *testing.T, authn func(*storage.SQLiteAdapter) *auth.KeyService) *testEnv {
	t.Helper()

	history, err := storage.NewSQLiteAdapter(filepath.Join(t.TempDir(), "wifiradar.db"))
	require.NoError(t, err)

	runner := runnerFunc(func(ctx context.Context, iface string, _ time.Duration) ([]domain.AccessPointRecord, error) {
		if iface == "slow0" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return fixtureRecords(), nil
	})
	sessions := scan.NewSessionStore(runner, scan.WithStorage(history))
	t.Cleanup(func() {
		sessions.Close()
		history.Close()
	})

	deps := Deps{
		Version:  "test",
		Sessions: sessions,
		History:  history,
		Interfaces: listerFunc(func(context.Context) ([]domain.InterfaceInfo, error) {
			return []domain.InterfaceInfo{{Name: "wlan0", MAC: "3C:F9:D3:AA:BB:CC"}}, nil
		}),
		Vendors: fingerprint.NewResolver(fingerprint.NewStaticVendorRepository(fingerprint.CommonOUIs), nil),
		Tables:  tables.NewStore(nil),
	}
	if authn != nil {
		deps.Auth = authn(history)
	}

	srv := NewServer(Config{Addr: ":0", RateLimitRequests: 1000}, deps)
	return &testEnv{srv: srv, handler: srv.Handler(), sessions: sessions, history: history}
}

func (e *testEnv) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func startScan(t *testing.T, env *testEnv, iface string) string {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/v1/scans", `{"interface":"`+iface+`","duration":5}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	resp := decode[map[string]string](t, rec)
	assert.Equal(t, "/api/v1/scans/"+resp["scan_id"], rec.Header().Get("Location"))
	return resp["scan_id"]
}

func waitStatus(t *testing.T, env *testEnv, id string, want domain.ScanStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		s, err := env.sessions.Get(id)
		return err == nil && s.Status == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScanLifecycle(t *testing.T) {
	env := setupServer(t, nil)

	id := startScan(t, env, "wlan0")
	waitStatus(t, env, id, domain.ScanCompleted)

	rec := env.do(t, http.MethodGet, "/api/v1/scans/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	session := decode[domain.ScanSession](t, rec)
	assert.Equal(t, "wlan0", session.Interface)
	assert.Len(t, session.AccessPoints, 2)

	rec = env.do(t, http.MethodGet, "/api/v1/scans", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Scans []domain.ScanSession `json:"scans"`
		Count int                  `json:"count"`
	}](t, rec)
	assert.Equal(t, 1, list.Count)
	assert.Empty(t, list.Scans[0].AccessPoints, "lists omit records")

	rec = env.do(t, http.MethodDelete, "/api/v1/scans/"+id, "")
	assert.Equal(t, http.StatusConflict, rec.Code, "finished scans cannot be cancelled")
}

func TestStartScan_Validation(t *testing.T) {
	env := setupServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{"interface":`},
		{"unknown field", `{"interface":"wlan0","channel":6}`},
		{"missing interface", `{"duration":5}`},
		{"unsafe interface", `{"interface":"wlan0; rm -rf /"}`},
		{"duration too long", `{"interface":"wlan0","duration":600}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/scans", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, decode[map[string]any](t, rec), "error")
		})
	}
}

func TestCancelScan(t *testing.T) {
	env := setupServer(t, nil)

	id := startScan(t, env, "slow0")
	waitStatus(t, env, id, domain.ScanRunning)

	rec := env.do(t, http.MethodGet, "/api/v1/scans/active", "")
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["count"])

	rec = env.do(t, http.MethodDelete, "/api/v1/scans/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	s, err := env.sessions.Get(id)
	require.NoError(t, err)
	assert.Equal(t, domain.ScanCancelled, s.Status)
}

func TestGetScan_NotFound(t *testing.T) {
	env := setupServer(t, nil)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/scans/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/v1/scans/nope", "").Code)
}

func TestGetScan_FromHistory(t *testing.T) {
	env := setupServer(t, nil)
	require.NoError(t, env.history.SaveScan(context.Background(), domain.ScanSession{
		ID: "stored-1", Interface: "wlan1", Status: domain.ScanCompleted,
		StartedAt: seenAt, FinishedAt: seenAt, AccessPoints: fixtureRecords(), TotalCount: 2,
	}))

	rec := env.do(t, http.MethodGet, "/api/v1/scans/stored-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "wlan1", decode[domain.ScanSession](t, rec).Interface)

	rec = env.do(t, http.MethodGet, "/api/v1/scans?source=history&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["count"])
}

func TestExport(t *testing.T) {
	env := setupServer(t, nil)
	id := startScan(t, env, "wlan0")
	waitStatus(t, env, id, domain.ScanCompleted)

	rec := env.do(t, http.MethodGet, "/api/v1/scans/"+id+"/export?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), id+".csv")
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rec = env.do(t, http.MethodGet, "/api/v1/scans/"+id+"/export?format=pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))

	rec = env.do(t, http.MethodGet, "/api/v1/scans/"+id+"/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = env.do(t, http.MethodGet, "/api/v1/scans/"+id+"/export?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport_RunningScanConflicts(t *testing.T) {
	env := setupServer(t, nil)
	id := startScan(t, env, "slow0")
	waitStatus(t, env, id, domain.ScanRunning)

	rec := env.do(t, http.MethodGet, "/api/v1/scans/"+id+"/export", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInterfaces(t *testing.T) {
	env := setupServer(t, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/interfaces", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["count"])
}

func TestVendors(t *testing.T) {
	env := setupServer(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/vendors/00-40-96-12-34-56", "")
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[fingerprint.VendorInfo](t, rec)
	assert.Equal(t, "Cisco Systems", info.Vendor)
	assert.Equal(t, "00:40:96", info.OUI)
	assert.True(t, info.Known)

	rec = env.do(t, http.MethodGet, "/api/v1/vendors/not-a-mac", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/vendors?q=linksys&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["count"])

	rec = env.do(t, http.MethodGet, "/api/v1/vendors", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory(t *testing.T) {
	env := setupServer(t, nil)
	id := startScan(t, env, "wlan0")
	waitStatus(t, env, id, domain.ScanCompleted)

	// Persistence happens right after completion
	require.Eventually(t, func() bool {
		_, err := env.history.GetScan(context.Background(), id)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	rec := env.do(t, http.MethodGet, "/api/v1/history?bssid=00:40:96:dd:ee:ff", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["count"])

	rec = env.do(t, http.MethodGet, "/api/v1/history?bssid=00:40:96:dd:ee:ff&since=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/history", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/history?before="+time.Now().Add(time.Hour).UTC().Format(time.RFC3339), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["purged"])
}

func TestTables(t *testing.T) {
	env := setupServer(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/tables", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"signal_ranges"`)

	rec = env.do(t, http.MethodGet, "/api/v1/tables?format=yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "threat_thresholds:")

	rec = env.do(t, http.MethodPut, "/api/v1/tables", "bonuses:\n  hidden_ssid: 7\n")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 7, env.srv.deps.Tables.Current().Bonuses.HiddenSSID)

	rec = env.do(t, http.MethodPut, "/api/v1/tables", "no_such_section: 1\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 7, env.srv.deps.Tables.Current().Bonuses.HiddenSSID, "failed replace keeps tables")
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupServer(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, true, health["history_enabled"])

	rec = env.do(t, http.MethodGet, "/api/v1/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRoles(t *testing.T) {
	const static = "static-admin-secret"
	hash, err := bcrypt.GenerateFromPassword([]byte(static), bcrypt.MinCost)
	require.NoError(t, err)

	var keys *auth.KeyService
	env := setupServer(t, func(repo *storage.SQLiteAdapter) *auth.KeyService {
		keys = auth.NewKeyService(repo, auth.WithStaticKeyHash(string(hash)), auth.WithBcryptCost(bcrypt.MinCost))
		return keys
	})
	viewer, _, err := keys.CreateKey(context.Background(), "dashboard", domain.RoleViewer)
	require.NoError(t, err)

	key := middleware.APIKeyHeader

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/health", "").Code, "health is public")
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/v1/scans", "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/scans", "", key, viewer).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/v1/scans", `{"interface":"wlan0"}`, key, viewer).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, "/api/v1/history?before=24h", "", key, viewer).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/v1/history?before=24h", "", "Authorization", "Bearer "+static).Code)
	assert.Equal(t, http.StatusAccepted, env.do(t, http.MethodPost, "/api/v1/scans", `{"interface":"wlan0"}`, key, static).Code)
}

func TestCORSPreflight(t *testing.T) {
	history, err := storage.NewSQLiteAdapter(filepath.Join(t.TempDir(), "cors.db"))
	require.NoError(t, err)
	defer history.Close()

	srv := NewServer(Config{CORSOrigins: []string{"http://dashboard.local"}}, Deps{
		Sessions: scan.NewSessionStore(nil),
		History:  history,
		Tables:   tables.NewStore(nil),
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/scans", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://dashboard.local", rec.Header().Get("Access-Control-Allow-Origin"))
}
