package scan

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
	"github.com/lcalzada-xor/wifiradar/internal/telemetry"
)

const (
	// DefaultRetention is how long finished sessions stay queryable.
	DefaultRetention = time.Hour
	// DefaultEvictInterval is the period of the retention sweep.
	DefaultEvictInterval = time.Minute

	saveTimeout = 10 * time.Second
)

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithStorage persists completed sessions.
func WithStorage(st ports.Storage) SessionOption {
	return func(s *SessionStore) { s.storage = st }
}

// WithPublisher sends session events to p.
func WithPublisher(p ports.EventPublisher) SessionOption {
	return func(s *SessionStore) { s.publisher = p }
}

// WithRetention sets how long finished sessions are kept.
func WithRetention(d time.Duration) SessionOption {
	return func(s *SessionStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithEvictInterval sets the retention sweep period.
func WithEvictInterval(d time.Duration) SessionOption {
	return func(s *SessionStore) {
		if d > 0 {
			s.evictInterval = d
		}
	}
}

// WithSessionLogger sets the store logger.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *SessionStore) { s.logger = l }
}

type session struct {
	state  domain.ScanSession
	cancel context.CancelFunc
}

// SessionStore runs scans asynchronously, one goroutine and one cancellable
// context per session, and keeps their results until retention expires.
type SessionStore struct {
	runner        ports.ScanRunner
	storage       ports.Storage
	publisher     ports.EventPublisher
	validate      *validator.Validate
	retention     time.Duration
	evictInterval time.Duration
	logger        *slog.Logger
	now           func() time.Time

	// scans outlive the request that started them; baseCtx ends on Close
	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessionStore creates a store that runs scans with runner.
func NewSessionStore(runner ports.ScanRunner, opts ...SessionOption) *SessionStore {
	ctx, cancel := context.WithCancel(context.Background())
	s := &SessionStore{
		runner:        runner,
		validate:      NewValidator(),
		retention:     DefaultRetention,
		evictInterval: DefaultEvictInterval,
		logger:        slog.Default(),
		now:           time.Now,
		baseCtx:       ctx,
		baseCancel:    cancel,
		sessions:      make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates req and launches the scan. It returns the session id
// immediately.
func (s *SessionStore) Start(ctx context.Context, req domain.ScanRequest) (string, error) {
	if req.DurationSeconds == 0 {
		req.DurationSeconds = DefaultDurationSeconds
	}
	if err := ValidateRequest(s.validate, req); err != nil {
		return "", err
	}
	if err := s.baseCtx.Err(); err != nil {
		return "", fmt.Errorf("session store closed: %w", err)
	}

	id := uuid.New().String()
	scanCtx, cancel := context.WithCancel(s.baseCtx)
	// keep the caller's trace, drop its cancellation
	scanCtx = contextWithSpan(scanCtx, ctx)

	sess := &session{
		state: domain.ScanSession{
			ID:           id,
			Interface:    req.Interface,
			Status:       domain.ScanStarting,
			StartedAt:    s.now(),
			AccessPoints: []domain.AccessPointRecord{},
		},
		cancel: cancel,
	}

	s.mu.Lock()
	s.sessions[id] = sess
	snapshot := sess.state
	s.mu.Unlock()

	telemetry.ActiveScans.Inc()
	s.publish(domain.EventScanStarted, snapshot)
	s.logger.Info("Scan session started", "scan_id", id, "interface", req.Interface, "duration", req.DurationSeconds)

	s.wg.Add(1)
	go s.run(scanCtx, id, req)
	return id, nil
}

func (s *SessionStore) run(ctx context.Context, id string, req domain.ScanRequest) {
	defer s.wg.Done()
	defer telemetry.ActiveScans.Dec()

	s.update(id, func(st *domain.ScanSession) { st.Status = domain.ScanRunning })

	records, err := s.runner.RunScan(ctx, req.Interface, req.Timeout())

	var (
		final domain.ScanSession
		event string
		done  bool
	)
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok && !sess.state.Status.Terminal() {
		st := &sess.state
		st.FinishedAt = s.now()
		st.Duration = st.FinishedAt.Sub(st.StartedAt).Seconds()
		switch {
		case err == nil:
			st.Status = domain.ScanCompleted
			st.AccessPoints = records
			st.TotalCount = len(records)
			event = domain.EventScanCompleted
		case errors.Is(s.baseCtx.Err(), context.Canceled):
			st.Status = domain.ScanCancelled
			st.Error = "service shutdown"
			st.FailureCause = string(domain.CauseCancelled)
			event = domain.EventScanCancelled
		default:
			st.Status = domain.ScanFailed
			st.Error = err.Error()
			st.FailureCause = ResultLabel(err)
			if sf, ok := domain.AsScanFailure(err); ok {
				st.FailureCause = string(sf.Cause)
			}
			event = domain.EventScanFailed
		}
		sess.cancel()
		final = *st
		done = true
	}
	s.mu.Unlock()

	if !done {
		return
	}
	s.publish(event, final)

	if final.Status == domain.ScanCompleted {
		s.persist(final)
	}
}

func (s *SessionStore) persist(st domain.ScanSession) {
	if s.storage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.storage.SaveScan(ctx, st); err != nil {
		s.logger.Error("Failed to persist scan session", "scan_id", st.ID, "error", err)
	}
}

func (s *SessionStore) update(id string, fn func(*domain.ScanSession)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok && !sess.state.Status.Terminal() {
		fn(&sess.state)
	}
}

func (s *SessionStore) publish(eventType string, st domain.ScanSession) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(domain.ScanEvent{
		Type:    eventType,
		ScanID:  st.ID,
		Status:  st.Status,
		Session: st,
	})
}

// Get returns a copy of the session.
func (s *SessionStore) Get(id string) (domain.ScanSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.ScanSession{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return sess.state, nil
}

// Cancel stops a running session. The scan subprocess is killed through the
// session context.
func (s *SessionStore) Cancel(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if sess.state.Status.Terminal() {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", domain.ErrSessionFinished, id, sess.state.Status)
	}
	sess.cancel()
	st := &sess.state
	st.Status = domain.ScanCancelled
	st.FinishedAt = s.now()
	st.Duration = st.FinishedAt.Sub(st.StartedAt).Seconds()
	st.Error = "cancelled by user"
	st.FailureCause = string(domain.CauseCancelled)
	final := *st
	s.mu.Unlock()

	s.logger.Info("Scan session cancelled", "scan_id", id)
	s.publish(domain.EventScanCancelled, final)
	return nil
}

// Active returns sessions that have not reached a terminal state.
func (s *SessionStore) Active() []domain.ScanSession {
	return s.filter(func(st domain.ScanSession) bool { return !st.Status.Terminal() })
}

// List returns every retained session, newest first.
func (s *SessionStore) List() []domain.ScanSession {
	return s.filter(func(domain.ScanSession) bool { return true })
}

func (s *SessionStore) filter(keep func(domain.ScanSession) bool) []domain.ScanSession {
	s.mu.RLock()
	out := make([]domain.ScanSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if keep(sess.state) {
			out = append(out, sess.state)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.ScanSession) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Evict removes finished sessions older than the retention period and
// returns how many were dropped.
func (s *SessionStore) Evict() int {
	cutoff := s.now().Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.state.Status.Terminal() && sess.state.FinishedAt.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps expired sessions until ctx is done.
func (s *SessionStore) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.evictInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Evict(); n > 0 {
				s.logger.Debug("Evicted expired scan sessions", "count", n)
			}
		}
	}
}

// Close cancels running sessions and waits for their goroutines.
func (s *SessionStore) Close() {
	s.baseCancel()
	s.wg.Wait()
}
