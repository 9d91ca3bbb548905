// Package reporting renders scan results as JSON, CSV and PDF reports.
package reporting

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

// Format selects the report encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps a query value to a Format. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidRequest, s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// NewReport builds the report data for a scan session.
func NewReport(session domain.ScanSession, now time.Time) domain.ReportData {
	return domain.ReportData{
		GeneratedAt:  now,
		ScanID:       session.ID,
		Interface:    session.Interface,
		Stats:        domain.Summarize(session.AccessPoints),
		AccessPoints: session.AccessPoints,
	}
}

// Export writes the report in the requested format.
func Export(w io.Writer, format Format, report domain.ReportData) error {
	switch format {
	case FormatJSON:
		return ExportJSON(w, report)
	case FormatCSV:
		return ExportCSV(w, report.AccessPoints)
	case FormatPDF:
		data, err := NewPDFExporter().ExportScanReport(report)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidRequest, format)
	}
}

type jsonReport struct {
	GeneratedAt  time.Time                  `json:"generated_at"`
	ScanID       string                     `json:"scan_id"`
	Interface    string                     `json:"interface"`
	Summary      domain.ReportStats         `json:"summary"`
	AccessPoints []domain.AccessPointRecord `json:"access_points"`
}

// ExportJSON writes the report with its summary as indented JSON.
func ExportJSON(w io.Writer, report domain.ReportData) error {
	records := report.AccessPoints
	if records == nil {
		records = []domain.AccessPointRecord{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonReport{
		GeneratedAt:  report.GeneratedAt,
		ScanID:       report.ScanID,
		Interface:    report.Interface,
		Summary:      report.Stats,
		AccessPoints: records,
	})
}

// ExportCSV writes access point records as CSV with headers.
func ExportCSV(w io.Writer, records []domain.AccessPointRecord) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	headers := []string{
		"BSSID", "SSID", "Hidden", "Signal", "Frequency", "Channel",
		"Security", "Vendor", "Distance", "Score", "Threat",
		"AttackVectors", "Confidence", "LastSeen",
	}
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, r := range records {
		channel := ""
		if r.Channel != nil {
			channel = strconv.Itoa(*r.Channel)
		}
		row := []string{
			r.BSSID,
			r.SSID,
			strconv.FormatBool(r.Hidden),
			strconv.FormatFloat(r.SignalDBm, 'f', -1, 64),
			strconv.Itoa(r.FrequencyMHz),
			channel,
			string(r.Security),
			r.Vendor,
			fmt.Sprintf("%.1f", r.DistanceM),
			strconv.Itoa(r.VulnerabilityScore),
			string(r.ThreatLevel),
			strings.Join(r.AttackVectors, "; "),
			fmt.Sprintf("%.2f", r.Confidence),
			r.LastSeen.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
