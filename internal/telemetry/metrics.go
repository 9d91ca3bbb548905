package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ScansTotal counts finished scans by outcome ("success", "timeout", "not-found", ...)
	ScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifiradar",
			Name:      "scans_total",
			Help:      "Total number of scans run, by interface and result",
		},
		[]string{"interface", "result"},
	)

	// ScanDuration observes end-to-end RunScan latency
	ScanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wifiradar",
			Name:      "scan_duration_seconds",
			Help:      "Duration of a full scan pipeline run",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 15, 30, 60},
		},
		[]string{"interface"},
	)

	// AcquireAttempts counts individual scanning command invocations
	AcquireAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifiradar",
			Name:      "acquire_attempts_total",
			Help:      "Total number of scanning command invocations",
		},
		[]string{"command", "outcome"},
	)

	// BlocksParsed counts network blocks extracted from raw output
	BlocksParsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifiradar",
			Name:      "parse_blocks_total",
			Help:      "Total number of network blocks extracted from scan output",
		},
		[]string{"dialect"},
	)

	// BlocksDropped counts blocks discarded by the parser or normalizer
	BlocksDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifiradar",
			Name:      "parse_blocks_dropped_total",
			Help:      "Total number of network blocks dropped",
		},
		[]string{"dialect", "reason"},
	)

	// ProfileFallbacks counts security types scored with the WPA2 fallback profile
	ProfileFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifiradar",
			Name:      "profile_fallback_total",
			Help:      "Total number of security profile lookups that fell back to WPA2",
		},
		[]string{"security"},
	)

	// VendorLookups counts OUI resolutions by outcome ("found", "unknown", "invalid", "error")
	VendorLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifiradar",
			Name:      "vendor_lookups_total",
			Help:      "Total number of vendor lookups, by outcome",
		},
		[]string{"result"},
	)

	// TablesReloads counts configuration table reloads
	TablesReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifiradar",
			Name:      "tables_reloads_total",
			Help:      "Total number of configuration table reloads",
		},
		[]string{"result"},
	)

	// ActiveScans tracks scan sessions that have not reached a terminal state
	ActiveScans = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wifiradar",
			Name:      "active_scans",
			Help:      "Number of scan sessions currently running",
		},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry
// This function is idempotent and can be called multiple times safely
func InitMetrics() {
	once.Do(func() {
		// Register metrics, ignoring errors if already registered
		// This prevents panics when metrics are already in the registry
		prometheus.DefaultRegisterer.Register(ScansTotal)
		prometheus.DefaultRegisterer.Register(ScanDuration)
		prometheus.DefaultRegisterer.Register(AcquireAttempts)
		prometheus.DefaultRegisterer.Register(BlocksParsed)
		prometheus.DefaultRegisterer.Register(BlocksDropped)
		prometheus.DefaultRegisterer.Register(ProfileFallbacks)
		prometheus.DefaultRegisterer.Register(VendorLookups)
		prometheus.DefaultRegisterer.Register(TablesReloads)
		prometheus.DefaultRegisterer.Register(ActiveScans)
	})
}
