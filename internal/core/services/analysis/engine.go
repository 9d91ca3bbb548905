// Package analysis derives distance, vendor, security and layout attributes
// from normalized scan fields and assembles the final access point records.
package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
)

// Option configures an Engine.
type Option func(*Engine)

// WithNoise enables simulated distance jitter. Off unless set.
func WithNoise(n ports.NoiseSource) Option {
	return func(e *Engine) {
		e.distance = NewDistanceEstimator(n)
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// Engine runs the derivation stage of the pipeline.
type Engine struct {
	tables   ports.TablesProvider
	vendors  ports.VendorResolver
	distance *DistanceEstimator
	security *SecurityAnalyzer
	logger   *slog.Logger
}

// NewEngine creates a derivation engine.
func NewEngine(tables ports.TablesProvider, vendors ports.VendorResolver, opts ...Option) *Engine {
	e := &Engine{
		tables:   tables,
		vendors:  vendors,
		distance: NewDistanceEstimator(nil),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.security = NewSecurityAnalyzer(e.logger)
	return e
}

// Derive enriches one normalized block using the current tables.
func (e *Engine) Derive(ctx context.Context, nf domain.NormalizedFields, seenAt time.Time) domain.AccessPointRecord {
	return e.derive(ctx, e.tables.Current(), nf, seenAt)
}

// Assemble derives every block against a single tables snapshot and removes
// duplicate BSSIDs, keeping the last occurrence in its position.
func (e *Engine) Assemble(ctx context.Context, fields []domain.NormalizedFields, seenAt time.Time) []domain.AccessPointRecord {
	t := e.tables.Current()

	last := make(map[string]int, len(fields))
	for i, nf := range fields {
		last[nf.BSSID] = i
	}

	records := make([]domain.AccessPointRecord, 0, len(last))
	for i, nf := range fields {
		if last[nf.BSSID] != i {
			e.logger.Debug("Duplicate BSSID in scan, keeping later block", "bssid", nf.BSSID)
			continue
		}
		records = append(records, e.derive(ctx, t, nf, seenAt))
	}
	return records
}

func (e *Engine) derive(ctx context.Context, t *domain.Tables, nf domain.NormalizedFields, seenAt time.Time) domain.AccessPointRecord {
	sec := e.security.Assess(t, nf)

	vendor := domain.UnknownVendor
	if e.vendors != nil {
		vendor = e.vendors.ResolveVendor(ctx, nf.BSSID)
	}

	return domain.AccessPointRecord{
		BSSID:              nf.BSSID,
		SSID:               nf.SSID,
		Hidden:             nf.Hidden,
		SignalDBm:          nf.SignalDBm,
		FrequencyMHz:       nf.FrequencyMHz,
		Channel:            nf.Channel,
		Security:           nf.Security,
		Vendor:             vendor,
		DistanceM:          e.distance.Estimate(t, nf.SignalDBm, nf.FrequencyMHz),
		VulnerabilityScore: sec.Score,
		ThreatLevel:        sec.Threat.Level,
		AttackVectors:      sec.AttackVectors,
		Confidence:         Confidence(nf),
		LastSeen:           seenAt,
		AngleDeg:           Angle(nf.BSSID, nf.Channel),
		RiskLevel:          sec.RiskLevel,
		RiskFactors:        sec.RiskFactors,
		Recommendations:    sec.Recommendations,
		SignalQuality:      SignalQuality(nf.SignalDBm),
	}
}

// Confidence is a completeness indicator, not a statistical confidence.
func Confidence(nf domain.NormalizedFields) float64 {
	c := 0.5
	switch {
	case nf.SignalMissing:
		// defaulted signal earns nothing
	case nf.SignalDBm > -50:
		c += 0.3
	case nf.SignalDBm > -70:
		c += 0.2
	case nf.SignalDBm > -85:
		c += 0.1
	}
	if !nf.Hidden && nf.SSID != "" {
		c += 0.15
	}
	if nf.Security != domain.SecurityUnknown {
		c += 0.15
	}
	if nf.SignalMissing {
		c -= 0.1
	}
	if nf.FrequencyMissing {
		c -= 0.1
	}
	c = max(0, min(1, c))
	// Avoid 0.30000000000000004 style noise in JSON.
	return float64(int(c*100+0.5)) / 100
}
