// Package scan runs the acquisition, parsing, normalization and derivation
// pipeline and manages asynchronous scan sessions on top of it.
package scan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
	"github.com/lcalzada-xor/wifiradar/internal/core/services/analysis"
	"github.com/lcalzada-xor/wifiradar/internal/core/services/parser"
	"github.com/lcalzada-xor/wifiradar/internal/telemetry"
)

// DefaultTimeout applies to each acquisition attempt when none is given.
const DefaultTimeout = 15 * time.Second

// Service implements ports.ScanRunner.
type Service struct {
	acquirer   ports.Acquirer
	normalizer *parser.Normalizer
	engine     *analysis.Engine
	logger     *slog.Logger
	now        func() time.Time
}

// NewService wires the pipeline stages together.
func NewService(acquirer ports.Acquirer, tables ports.TablesProvider, engine *analysis.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		acquirer:   acquirer,
		normalizer: parser.NewNormalizer(tables),
		engine:     engine,
		logger:     logger,
		now:        time.Now,
	}
}

// RunScan acquires raw output for iface and turns it into access point
// records. On acquisition failure it returns no records and the
// *domain.ScanFailure from the acquirer.
func (s *Service) RunScan(ctx context.Context, iface string, timeout time.Duration) ([]domain.AccessPointRecord, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	start := time.Now()

	ctx, span := telemetry.Tracer("scan").Start(ctx, "scan.RunScan",
		trace.WithAttributes(
			attribute.String("interface", iface),
			attribute.Float64("timeout_seconds", timeout.Seconds()),
		))
	defer span.End()
	defer func() {
		telemetry.ScanDuration.WithLabelValues(iface).Observe(time.Since(start).Seconds())
	}()

	raw, err := s.acquirer.Acquire(ctx, iface, timeout)
	if err != nil {
		result := ResultLabel(err)
		telemetry.ScansTotal.WithLabelValues(iface, result).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		s.logger.Error("Scan acquisition failed", "interface", iface, "result", result, "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.String("dialect", string(raw.Dialect)))

	blocks, err := parser.Parse(raw.Text, raw.Dialect)
	if err != nil {
		telemetry.ScansTotal.WithLabelValues(iface, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse")
		return nil, err
	}

	fields := make([]domain.NormalizedFields, 0, len(blocks))
	for _, b := range blocks {
		nf, err := s.normalizer.Normalize(b)
		if err != nil {
			telemetry.BlocksDropped.WithLabelValues(string(raw.Dialect), "invalid_bssid").Inc()
			s.logger.Debug("Dropping scan block", "interface", iface, "error", err)
			continue
		}
		fields = append(fields, nf)
	}

	records := s.engine.Assemble(ctx, fields, s.now())

	telemetry.ScansTotal.WithLabelValues(iface, "success").Inc()
	span.SetAttributes(
		attribute.Int("blocks", len(blocks)),
		attribute.Int("records", len(records)),
	)
	s.logger.Info("Scan completed",
		"interface", iface,
		"dialect", raw.Dialect,
		"records", len(records),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return records, nil
}

// ResultLabel is the scan outcome reported in metrics and sessions.
func ResultLabel(err error) string {
	if err == nil {
		return "success"
	}
	if sf, ok := domain.AsScanFailure(err); ok {
		if _, ok := sf.Cause.ExitCode(); ok {
			return "nonzero-exit"
		}
		return string(sf.Cause)
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInterfaceName):
		return "invalid-interface"
	case errors.Is(err, context.Canceled):
		return string(domain.CauseCancelled)
	case errors.Is(err, context.DeadlineExceeded):
		return string(domain.CauseTimeout)
	}
	return "error"
}
