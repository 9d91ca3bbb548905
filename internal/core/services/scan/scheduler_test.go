package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

type mockStarter struct {
	mock.Mock
}

func (m *mockStarter) Start(ctx context.Context, req domain.ScanRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockStarter) Active() []domain.ScanSession {
	args := m.Called()
	s, _ := args.Get(0).([]domain.ScanSession)
	return s
}

func TestScheduler_AddValidates(t *testing.T) {
	s := NewScheduler(new(mockStarter), nil)

	_, err := s.Add(Job{Name: "bad-spec", Spec: "every tuesday", Interface: "wlan0"})
	assert.Error(t, err)

	_, err = s.Add(Job{Name: "bad-iface", Spec: "@every 5m", Interface: "wlan 0"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	id, err := s.Add(Job{Name: "hourly", Spec: "0 * * * *", Interface: "wlan0"})
	require.NoError(t, err)

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, id, jobs[0].ID)
	assert.Equal(t, DefaultDurationSeconds, jobs[0].Job.DurationSeconds)

	s.Remove(id)
	assert.Empty(t, s.Jobs())
}

func TestScheduler_RunJobStartsScan(t *testing.T) {
	starter := new(mockStarter)
	starter.On("Active").Return([]domain.ScanSession(nil))
	starter.On("Start", mock.Anything, domain.ScanRequest{Interface: "wlan0", DurationSeconds: 10}).Return("scan-1", nil).Once()

	s := NewScheduler(starter, nil)
	id, err := s.Add(Job{Name: "sweep", Spec: "@every 10m", Interface: "wlan0", DurationSeconds: 10})
	require.NoError(t, err)

	s.runJob(id)

	assert.Equal(t, "scan-1", s.Jobs()[0].LastScan)
	starter.AssertExpectations(t)
}

func TestScheduler_SkipsBusyInterface(t *testing.T) {
	starter := new(mockStarter)
	starter.On("Active").Return([]domain.ScanSession{{ID: "running", Interface: "wlan0", Status: domain.ScanRunning}})

	s := NewScheduler(starter, nil)
	id, err := s.Add(Job{Name: "sweep", Spec: "@every 10m", Interface: "wlan0"})
	require.NoError(t, err)

	s.runJob(id)
	starter.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
}

func TestScheduler_RunUntilCancelled(t *testing.T) {
	s := NewScheduler(new(mockStarter), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.running
	}, time.Second, 10*time.Millisecond)
	assert.Error(t, s.Run(context.Background()), "second Run should fail while running")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
