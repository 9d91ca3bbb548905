package reporting

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

func sampleReport(n int) domain.ReportData {
	seen := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	records := make([]domain.AccessPointRecord, n)
	levels := []domain.ThreatLevel{domain.ThreatLow, domain.ThreatMedium, domain.ThreatHigh, domain.ThreatCritical}
	for i := range records {
		records[i] = domain.AccessPointRecord{
			BSSID:              fmt.Sprintf("AA:BB:CC:DD:%02X:%02X", i/256, i%256),
			SSID:               fmt.Sprintf("Café-%d", i),
			SignalDBm:          -40 - float64(i%50),
			FrequencyMHz:       2437,
			Channel:            domain.IntPtr(6),
			Security:           domain.SecurityWPA2,
			Vendor:             domain.UnknownVendor,
			VulnerabilityScore: 20 * (i % 5),
			ThreatLevel:        levels[i%4],
			LastSeen:           seen,
		}
	}
	return NewReport(domain.ScanSession{ID: "3f0b8c1e-aaaa-bbbb-cccc-000000000000", Interface: "wlan0", AccessPoints: records}, seen)
}

func TestPDFExporter_ExportScanReport(t *testing.T) {
	data, err := NewPDFExporter().ExportScanReport(sampleReport(5))
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "missing PDF header")
	assert.Greater(t, len(data), 1000)
	assert.Less(t, len(data), 1000000)
}

func TestPDFExporter_Empty(t *testing.T) {
	data, err := NewPDFExporter().ExportScanReport(NewReport(domain.ScanSession{ID: "x"}, time.Now()))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestPDFExporter_ManyRecordsPaginate(t *testing.T) {
	small, err := NewPDFExporter().ExportScanReport(sampleReport(5))
	require.NoError(t, err)
	large, err := NewPDFExporter().ExportScanReport(sampleReport(200))
	require.NoError(t, err)

	assert.Greater(t, len(large), len(small))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ñññ...", truncate("ñññññññ", 6))
}

func TestAverageLevel(t *testing.T) {
	assert.Equal(t, domain.ThreatLow, averageLevel(12.5))
	assert.Equal(t, domain.ThreatMedium, averageLevel(39.6))
	assert.Equal(t, domain.ThreatCritical, averageLevel(95))
}
