package scan

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

// SessionStarter is the part of SessionStore the scheduler drives.
type SessionStarter interface {
	Start(ctx context.Context, req domain.ScanRequest) (string, error)
	Active() []domain.ScanSession
}

// Job is a periodic scan.
type Job struct {
	Name            string `mapstructure:"name" yaml:"name"`
	Spec            string `mapstructure:"spec" yaml:"spec"`
	Interface       string `mapstructure:"interface" yaml:"interface"`
	DurationSeconds int    `mapstructure:"duration" yaml:"duration"`
}

// JobStatus reports a scheduled job and its run times.
type JobStatus struct {
	ID       cron.EntryID `json:"id"`
	Job      Job          `json:"job"`
	LastRun  time.Time    `json:"last_run"`
	NextRun  time.Time    `json:"next_run"`
	LastScan string       `json:"last_scan_id,omitempty"`
}

// Scheduler triggers scan sessions from cron expressions.
type Scheduler struct {
	cron    *cron.Cron
	starter SessionStarter
	logger  *slog.Logger

	mu       sync.RWMutex
	jobs     map[cron.EntryID]Job
	lastScan map[cron.EntryID]string
	running  bool
}

// NewScheduler creates a scheduler. Expressions use the standard five-field
// syntax plus descriptors such as "@every 5m".
func NewScheduler(starter SessionStarter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:     cron.New(),
		starter:  starter,
		logger:   logger,
		jobs:     make(map[cron.EntryID]Job),
		lastScan: make(map[cron.EntryID]string),
	}
}

// Add registers job after validating its expression and scan parameters.
func (s *Scheduler) Add(job Job) (cron.EntryID, error) {
	if _, err := cron.ParseStandard(job.Spec); err != nil {
		return 0, fmt.Errorf("invalid cron expression %q: %w", job.Spec, err)
	}
	if job.DurationSeconds == 0 {
		job.DurationSeconds = DefaultDurationSeconds
	}
	if err := ValidateRequest(NewValidator(), job.request()); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var id cron.EntryID
	id, err := s.cron.AddFunc(job.Spec, func() { s.runJob(id) })
	if err != nil {
		return 0, fmt.Errorf("failed to schedule job %q: %w", job.Name, err)
	}
	s.jobs[id] = job
	s.logger.Info("Scheduled periodic scan", "job", job.Name, "spec", job.Spec, "interface", job.Interface)
	return id, nil
}

// Remove unschedules a job.
func (s *Scheduler) Remove(id cron.EntryID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cron.Remove(id)
	delete(s.jobs, id)
	delete(s.lastScan, id)
}

// Jobs lists scheduled jobs ordered by id.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for id, job := range s.jobs {
		e := s.cron.Entry(id)
		out = append(out, JobStatus{
			ID:       id,
			Job:      job,
			LastRun:  e.Prev,
			NextRun:  e.Next,
			LastScan: s.lastScan[id],
		})
	}
	slices.SortFunc(out, func(a, b JobStatus) int { return int(a.ID) - int(b.ID) })
	return out
}

func (s *Scheduler) runJob(id cron.EntryID) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return
	}

	for _, active := range s.starter.Active() {
		if active.Interface == job.Interface {
			s.logger.Warn("Skipping periodic scan, interface busy", "job", job.Name, "interface", job.Interface, "scan_id", active.ID)
			return
		}
	}

	scanID, err := s.starter.Start(context.Background(), job.request())
	if err != nil {
		s.logger.Error("Periodic scan failed to start", "job", job.Name, "error", err)
		return
	}

	s.mu.Lock()
	s.lastScan[id] = scanID
	s.mu.Unlock()
}

// Run starts the cron loop and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", len(s.Jobs()))

	<-ctx.Done()
	<-s.cron.Stop().Done()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.logger.Info("Scheduler stopped")
	return nil
}

func (j Job) request() domain.ScanRequest {
	return domain.ScanRequest{Interface: j.Interface, DurationSeconds: j.DurationSeconds}
}
