package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Pipeline and session errors.
var (
	// ErrRejected marks a block that cannot form a record (no valid BSSID).
	ErrRejected = errors.New("block rejected")

	// ErrInvalidTables is returned when configuration tables fail validation.
	ErrInvalidTables = errors.New("invalid configuration tables")

	// ErrSessionNotFound is returned for unknown or evicted scan ids.
	ErrSessionNotFound = errors.New("scan session not found")

	// ErrSessionFinished is returned when cancelling a session that already ended.
	ErrSessionFinished = errors.New("scan session already finished")

	// ErrInvalidRequest wraps request and parameter validation failures.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnknownDialect is returned for an unsupported output grammar.
	ErrUnknownDialect = errors.New("unknown output dialect")
)

// FailureCause classifies why acquisition could not complete.
type FailureCause string

const (
	CauseTimeout          FailureCause = "timeout"
	CauseNotFound         FailureCause = "not-found"
	CausePermissionDenied FailureCause = "permission-denied"
	CauseCancelled        FailureCause = "cancelled"
	causeNonzeroPrefix                 = "nonzero-exit:"
)

// CauseNonzeroExit builds the cause for a command that exited with code.
func CauseNonzeroExit(code int) FailureCause {
	return FailureCause(causeNonzeroPrefix + strconv.Itoa(code))
}

// ExitCode extracts the exit code from a nonzero-exit cause.
func (c FailureCause) ExitCode() (int, bool) {
	s, ok := strings.CutPrefix(string(c), causeNonzeroPrefix)
	if !ok {
		return 0, false
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return code, true
}

// AttemptError records one failed command attempt.
type AttemptError struct {
	Command string
	Cause   FailureCause
	Err     error
}

func (e AttemptError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Command, e.Cause, e.Err)
}

// ScanFailure is the single typed failure returned when acquisition fails.
type ScanFailure struct {
	Interface string
	Cause     FailureCause
	Attempts  []AttemptError
}

func (e *ScanFailure) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("scan on %s failed: %s", e.Interface, e.Cause)
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Error())
	}
	return fmt.Sprintf("scan on %s failed: %s (%s)", e.Interface, e.Cause, strings.Join(parts, "; "))
}

// Unwrap exposes the error of the last attempt.
func (e *ScanFailure) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// AsScanFailure extracts a *ScanFailure from err.
func AsScanFailure(err error) (*ScanFailure, bool) {
	var sf *ScanFailure
	if errors.As(err, &sf) {
		return sf, true
	}
	return nil, false
}
