// Package tables publishes the configuration tables used by the pipeline.
//
// Tables are never mutated in place. A reload decodes and validates a complete
// new value and installs it with a single pointer swap, so a scan that took a
// snapshot keeps a consistent view until it finishes.
package tables

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/telemetry"
)

// Store holds the currently published tables.
type Store struct {
	current atomic.Pointer[domain.Tables]
	logger  *slog.Logger

	mu          sync.Mutex
	lastFailure string
}

// NewStore creates a store publishing the built-in tables.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{logger: logger}
	s.current.Store(domain.DefaultTables())
	return s
}

// Current returns the published tables. Callers must treat them as read-only.
func (s *Store) Current() *domain.Tables {
	return s.current.Load()
}

// Swap prepares, validates and publishes t. t must not be modified afterwards.
func (s *Store) Swap(t *domain.Tables) error {
	if t == nil {
		return fmt.Errorf("%w: nil tables", domain.ErrInvalidTables)
	}
	if err := t.Prepare(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidTables, err)
	}
	if err := t.Validate(); err != nil {
		return err
	}
	s.current.Store(t)
	return nil
}

// Reset publishes the built-in tables again.
func (s *Store) Reset() {
	s.current.Store(domain.DefaultTables())
}

// LoadFile decodes path and publishes the result. On failure the published
// tables are left untouched, which on first load means the built-ins.
func (s *Store) LoadFile(path string) error {
	err := s.loadFile(path)
	if err != nil {
		telemetry.TablesReloads.WithLabelValues("failure").Inc()
		s.reportFailure(path, err)
		return err
	}
	telemetry.TablesReloads.WithLabelValues("success").Inc()
	s.mu.Lock()
	s.lastFailure = ""
	s.mu.Unlock()
	s.logger.Info("Configuration tables loaded", "path", path)
	return nil
}

func (s *Store) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tables: %w", err)
	}
	t, err := Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return s.Swap(t)
}

// reportFailure logs a failure once until a different failure or a success.
func (s *Store) reportFailure(path string, err error) {
	s.mu.Lock()
	repeated := s.lastFailure == err.Error()
	s.lastFailure = err.Error()
	s.mu.Unlock()

	if repeated {
		s.logger.Debug("Configuration tables still invalid", "path", path, "error", err)
		return
	}
	s.logger.Warn("Failed to load configuration tables, keeping current tables", "path", path, "error", err)
}

// tablesFile is the on-disk layout. Profiles are keyed by security label.
type tablesFile struct {
	domain.Tables `yaml:",inline"`
	Profiles      map[string]domain.SecurityProfile `yaml:"profiles"`
}

// Decode reads a YAML tables document. Sections absent from the document keep
// their built-in values; present sections replace them entirely. Unknown keys
// are rejected at the top level and inside every section, profile and list
// entry.
func Decode(r io.Reader) (*domain.Tables, error) {
	f := tablesFile{Tables: *domain.DefaultTables()}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: decode yaml: %v", domain.ErrInvalidTables, err)
	}

	t := f.Tables.Clone()
	for label, p := range f.Profiles {
		st, ok := domain.ParseSecurityType(label)
		if !ok || st == domain.SecurityUnknown {
			return nil, fmt.Errorf("%w: unknown security profile %q", domain.ErrInvalidTables, label)
		}
		t.Profiles[st] = p
	}
	if err := t.Prepare(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTables, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Encode writes t in the format accepted by Decode.
func Encode(w io.Writer, t *domain.Tables) error {
	f := tablesFile{Tables: *t, Profiles: make(map[string]domain.SecurityProfile, len(t.Profiles))}
	for st, p := range t.Profiles {
		f.Profiles[string(st)] = p
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return err
	}
	return enc.Close()
}
