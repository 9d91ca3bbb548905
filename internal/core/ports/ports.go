package ports

import (
	"context"
	"time"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

// Acquirer runs the external scanning command for one interface.
type Acquirer interface {
	// Acquire returns raw scan output or a *domain.ScanFailure. Each attempt is
	// bounded by timeout and killed when ctx is cancelled.
	Acquire(ctx context.Context, iface string, timeout time.Duration) (domain.RawOutput, error)
}

// InterfaceLister discovers wireless interfaces on the host.
type InterfaceLister interface {
	ListInterfaces(ctx context.Context) ([]domain.InterfaceInfo, error)
}

// TablesProvider hands out the currently published configuration tables.
type TablesProvider interface {
	Current() *domain.Tables
}

// VendorResolver resolves a BSSID to a display vendor name.
type VendorResolver interface {
	// ResolveVendor never fails; unmapped prefixes yield domain.UnknownVendor.
	ResolveVendor(ctx context.Context, bssid string) string
}

// ScanRunner is the inbound contract of the pipeline.
type ScanRunner interface {
	RunScan(ctx context.Context, iface string, timeout time.Duration) ([]domain.AccessPointRecord, error)
}

// EventPublisher receives scan session events.
type EventPublisher interface {
	Publish(event domain.ScanEvent)
}

// NoiseSource yields a multiplicative jitter factor for simulated distances.
type NoiseSource interface {
	Factor() float64
}
