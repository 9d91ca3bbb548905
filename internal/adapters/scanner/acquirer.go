// Package scanner runs the host's wireless tools: iw/iwlist scans for the
// pipeline and interface discovery.
package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/telemetry"
)

// execCmd allows mocking exec.CommandContext in tests
var execCmd = exec.CommandContext

var lookPath = exec.LookPath

// waitDelay bounds how long Wait blocks on output pipes after a kill.
const waitDelay = 2 * time.Second

// Config selects the scanning binaries.
type Config struct {
	IwPath       string
	IwlistPath   string
	IwconfigPath string
	UseSudo      bool
	SudoPath     string
	// SysClassNet is the sysfs network directory, overridable for tests.
	SysClassNet string
}

// DefaultConfig returns the usual binary names resolved through PATH.
func DefaultConfig() Config {
	return Config{
		IwPath:       "iw",
		IwlistPath:   "iwlist",
		IwconfigPath: "iwconfig",
		SudoPath:     "sudo",
		SysClassNet:  "/sys/class/net",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.IwPath == "" {
		c.IwPath = d.IwPath
	}
	if c.IwlistPath == "" {
		c.IwlistPath = d.IwlistPath
	}
	if c.IwconfigPath == "" {
		c.IwconfigPath = d.IwconfigPath
	}
	if c.SudoPath == "" {
		c.SudoPath = d.SudoPath
	}
	if c.SysClassNet == "" {
		c.SysClassNet = d.SysClassNet
	}
	return c
}

// CommandAcquirer implements ports.Acquirer with iw and an iwlist fallback.
type CommandAcquirer struct {
	cfg    Config
	logger *slog.Logger
}

// NewCommandAcquirer creates an acquirer.
func NewCommandAcquirer(cfg Config, logger *slog.Logger) *CommandAcquirer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandAcquirer{cfg: cfg.withDefaults(), logger: logger}
}

type scanAttempt struct {
	binary  string
	args    []string
	dialect domain.Dialect
}

func (a *CommandAcquirer) attempts(iface string) []scanAttempt {
	return []scanAttempt{
		{binary: a.cfg.IwPath, args: []string{"dev", iface, "scan"}, dialect: domain.DialectScan},
		{binary: a.cfg.IwlistPath, args: []string{iface, "scan"}, dialect: domain.DialectList},
	}
}

// Available reports whether at least one scanning binary can be found.
func (a *CommandAcquirer) Available() bool {
	for _, bin := range []string{a.cfg.IwPath, a.cfg.IwlistPath} {
		if _, err := lookPath(bin); err == nil {
			return true
		}
	}
	return false
}

// Acquire runs the primary scan command and, if it fails, the secondary one.
// Each attempt gets its own timeout. The returned error is a
// *domain.ScanFailure carrying the cause of the last attempt.
func (a *CommandAcquirer) Acquire(ctx context.Context, iface string, timeout time.Duration) (domain.RawOutput, error) {
	if !domain.IsValidInterface(iface) {
		return domain.RawOutput{}, fmt.Errorf("%w: %q", domain.ErrInvalidInterfaceName, iface)
	}

	failure := &domain.ScanFailure{Interface: iface}
	for i, att := range a.attempts(iface) {
		name, args := a.command(att.binary, att.args)
		cmdline := strings.Join(append([]string{name}, args...), " ")

		out, cause, err := a.run(ctx, name, args, timeout)
		telemetry.AcquireAttempts.WithLabelValues(commandLabel(att.binary), outcomeLabel(cause, err)).Inc()
		if err == nil {
			if i > 0 {
				a.logger.Info("Scan succeeded with fallback command", "interface", iface, "command", cmdline)
			}
			return domain.RawOutput{Text: out, Dialect: att.dialect, Command: cmdline, Interface: iface}, nil
		}

		a.logger.Warn("Scan command failed", "interface", iface, "command", cmdline, "cause", cause, "error", err)
		failure.Attempts = append(failure.Attempts, domain.AttemptError{Command: cmdline, Cause: cause, Err: err})
		failure.Cause = cause

		// The caller gave up; a fallback would only be killed as well.
		if cause == domain.CauseCancelled {
			break
		}
	}
	return domain.RawOutput{}, failure
}

func (a *CommandAcquirer) command(binary string, args []string) (string, []string) {
	if !a.cfg.UseSudo {
		return binary, args
	}
	// -n: fail instead of prompting for a password
	return a.cfg.SudoPath, append([]string{"-n", binary}, args...)
}

// run executes one attempt and classifies its failure.
func (a *CommandAcquirer) run(ctx context.Context, name string, args []string, timeout time.Duration) (string, domain.FailureCause, error) {
	ctx, span := telemetry.Tracer("scanner").Start(ctx, "scanner.exec")
	defer span.End()
	span.SetAttributes(attribute.String("command", name), attribute.StringSlice("args", args))

	out, stderr, err := runCommand(ctx, timeout, name, args...)
	if err == nil {
		span.SetAttributes(attribute.Int("output.bytes", len(out)))
		return out, "", nil
	}

	cause := classify(ctx, err, stderr)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(cause))
	if msg := strings.TrimSpace(stderr); msg != "" {
		err = fmt.Errorf("%w: %s", err, firstLine(msg))
	}
	return "", cause, err
}

// runCommand runs name in its own session so that a timeout or cancellation
// kills every process it spawned. timeout <= 0 means no per-command limit.
func runCommand(ctx context.Context, timeout time.Duration, name string, args ...string) (string, string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := execCmd(ctx, name, args...)
	setProcessGroup(cmd)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && ctx.Err() != nil {
		// Report the context error rather than "signal: killed".
		err = fmt.Errorf("%w (%v)", ctx.Err(), err)
	}
	return stdout.String(), stderr.String(), err
}

// classify maps a command error to a failure cause. parent is the caller's
// context, used to tell cancellation apart from the per-attempt timeout.
func classify(parent context.Context, err error, stderr string) domain.FailureCause {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return domain.CauseCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return domain.CauseTimeout
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return domain.CauseNotFound
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		return domain.CausePermissionDenied
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		switch {
		case code == 126:
			return domain.CausePermissionDenied
		case code == 127:
			return domain.CauseNotFound
		case isPermissionMessage(stderr):
			return domain.CausePermissionDenied
		}
		return domain.CauseNonzeroExit(code)
	}
	return domain.CauseNonzeroExit(-1)
}

func isPermissionMessage(stderr string) bool {
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "operation not permitted") ||
		strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "a password is required")
}

func commandLabel(binary string) string {
	if i := strings.LastIndexByte(binary, '/'); i >= 0 {
		return binary[i+1:]
	}
	return binary
}

// outcomeLabel keeps metric cardinality bounded by dropping exit codes.
func outcomeLabel(cause domain.FailureCause, err error) string {
	if err == nil {
		return "success"
	}
	if _, ok := cause.ExitCode(); ok {
		return "nonzero-exit"
	}
	return string(cause)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
