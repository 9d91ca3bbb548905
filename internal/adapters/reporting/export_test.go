package reporting

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"CSV", FormatCSV, false},
		{" pdf ", FormatPDF, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatJSON, sampleReport(4)))

	var out struct {
		ScanID  string `json:"scan_id"`
		Summary struct {
			Total int `json:"total_access_points"`
		} `json:"summary"`
		AccessPoints []domain.AccessPointRecord `json:"access_points"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "3f0b8c1e-aaaa-bbbb-cccc-000000000000", out.ScanID)
	assert.Equal(t, 4, out.Summary.Total)
	assert.Len(t, out.AccessPoints, 4)
}

func TestExportJSON_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, NewReport(domain.ScanSession{ID: "x"}, time.Now())))
	assert.Contains(t, buf.String(), `"access_points": []`)
}

func TestExportCSV(t *testing.T) {
	records := []domain.AccessPointRecord{
		{
			BSSID:              "AA:BB:CC:DD:EE:FF",
			SSID:               "Test, Net",
			SignalDBm:          -45,
			FrequencyMHz:       2437,
			Channel:            domain.IntPtr(6),
			Security:           domain.SecurityWPA2,
			Vendor:             domain.UnknownVendor,
			DistanceM:          12.4,
			VulnerabilityScore: 52,
			ThreatLevel:        domain.ThreatMedium,
			AttackVectors:      []string{"PMKID Attack", "Pixie Dust attack"},
			Confidence:         1,
			LastSeen:           time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
		},
		{BSSID: "00:13:C4:01:02:03", Hidden: true, Security: domain.SecurityOpen, ThreatLevel: domain.ThreatHigh},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatCSV, domain.ReportData{AccessPoints: records}))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "BSSID", rows[0][0])
	assert.Equal(t, []string{
		"AA:BB:CC:DD:EE:FF", "Test, Net", "false", "-45", "2437", "6",
		"WPA2", "Unknown", "12.4", "52", "MEDIUM",
		"PMKID Attack; Pixie Dust attack", "1.00", "2026-04-01T10:00:00Z",
	}, rows[1])
	assert.Equal(t, "", rows[2][5], "unknown channel is blank")
	assert.Equal(t, "true", rows[2][2])
}

func TestExport_PDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatPDF, sampleReport(2)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestExport_UnknownFormat(t *testing.T) {
	err := Export(&bytes.Buffer{}, Format("xml"), sampleReport(1))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
