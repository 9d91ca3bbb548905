package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

type runnerFunc func(ctx context.Context, iface string, timeout time.Duration) ([]domain.AccessPointRecord, error)

func (f runnerFunc) RunScan(ctx context.Context, iface string, timeout time.Duration) ([]domain.AccessPointRecord, error) {
	return f(ctx, iface, timeout)
}

func startServer(t *testing.T, runner runnerFunc) (*Server, *grpc.ClientConn) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(runner, nil)
	gs := srv.GRPCServer()
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return srv, conn
}

func TestRunScan(t *testing.T) {
	var gotIface string
	var gotTimeout time.Duration
	_, conn := startServer(t, func(_ context.Context, iface string, timeout time.Duration) ([]domain.AccessPointRecord, error) {
		gotIface, gotTimeout = iface, timeout
		return []domain.AccessPointRecord{{
			BSSID: "AA:BB:CC:DD:EE:FF", SSID: "TestNet", SignalDBm: -45,
			FrequencyMHz: 2437, Channel: domain.IntPtr(6), Security: domain.SecurityWPA2,
		}}, nil
	})

	out, err := NewClient(conn).RunScan(context.Background(), "wlan0", 7)
	require.NoError(t, err)

	assert.Equal(t, "wlan0", gotIface)
	assert.Equal(t, 7*time.Second, gotTimeout)

	m := out.AsMap()
	assert.Equal(t, "wlan0", m["interface"])
	assert.EqualValues(t, 1, m["total_count"])
	aps := m["access_points"].([]any)
	require.Len(t, aps, 1)
	ap := aps[0].(map[string]any)
	assert.Equal(t, "TestNet", ap["ssid"])
	assert.EqualValues(t, 6, ap["channel"])
}

func TestRunScan_Empty(t *testing.T) {
	_, conn := startServer(t, func(context.Context, string, time.Duration) ([]domain.AccessPointRecord, error) {
		return nil, nil
	})

	out, err := NewClient(conn).RunScan(context.Background(), "wlan0", 5)
	require.NoError(t, err)
	assert.Empty(t, out.AsMap()["access_points"])
	assert.EqualValues(t, 0, out.AsMap()["total_count"])
}

func TestRunScan_Errors(t *testing.T) {
	tests := []struct {
		name  string
		iface string
		err   error
		want  codes.Code
	}{
		{"invalid interface", "wlan0;reboot", nil, codes.InvalidArgument},
		{"timeout", "wlan0", &domain.ScanFailure{Interface: "wlan0", Cause: domain.CauseTimeout}, codes.DeadlineExceeded},
		{"permission", "wlan0", &domain.ScanFailure{Interface: "wlan0", Cause: domain.CausePermissionDenied}, codes.PermissionDenied},
		{"tools missing", "wlan0", &domain.ScanFailure{Interface: "wlan0", Cause: domain.CauseNotFound}, codes.FailedPrecondition},
		{"nonzero exit", "wlan0", &domain.ScanFailure{Interface: "wlan0", Cause: domain.CauseNonzeroExit(255)}, codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, conn := startServer(t, func(context.Context, string, time.Duration) ([]domain.AccessPointRecord, error) {
				return nil, tt.err
			})
			_, err := NewClient(conn).RunScan(context.Background(), tt.iface, 5)
			require.Error(t, err)
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestHealth(t *testing.T) {
	srv, conn := startServer(t, func(context.Context, string, time.Duration) ([]domain.AccessPointRecord, error) {
		return nil, nil
	})
	client := healthpb.NewHealthClient(conn)

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	srv.SetServing(true)
	resp, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestServe_StopsOnCancel(t *testing.T) {
	srv := NewServer(runnerFunc(func(context.Context, string, time.Duration) ([]domain.AccessPointRecord, error) {
		return nil, nil
	}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
