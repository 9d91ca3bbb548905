package reporting

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

const maxTableRows = 40

// PDFExporter exports scan reports to PDF format
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ExportScanReport generates a PDF summary of one scan
func (e *PDFExporter) ExportScanReport(report domain.ReportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	e.addHeader(pdf, report)
	e.addRiskScore(pdf, report.Stats)
	e.addStatistics(pdf, report.Stats)
	e.addAccessPoints(pdf, tr, report.AccessPoints)
	e.addFooter(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report domain.ReportData) {
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102) // Dark blue
	pdf.CellFormat(0, 15, "WiFi Scan Report", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	if report.Interface != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Interface: %s", report.Interface), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
}

// addRiskScore draws the average vulnerability score box
func (e *PDFExporter) addRiskScore(pdf *gofpdf.Fpdf, stats domain.ReportStats) {
	level := averageLevel(stats.AverageScore)
	r, g, b := threatColor(level)

	pdf.SetFillColor(r, g, b)
	pdf.Rect(20, pdf.GetY(), 170, 30, "F")
	y := pdf.GetY()

	pdf.SetFont("Arial", "B", 36)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(25, y+5)
	pdf.CellFormat(80, 20, fmt.Sprintf("%.1f/100", stats.AverageScore), "", 0, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 18)
	pdf.SetXY(110, y+8)
	pdf.CellFormat(80, 14, fmt.Sprintf("%s Risk", level), "", 0, "L", false, 0, "")

	pdf.SetY(y + 35)
	pdf.Ln(5)
}

func (e *PDFExporter) addStatistics(pdf *gofpdf.Fpdf, stats domain.ReportStats) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Security Overview", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	rows := []struct {
		label string
		value string
		level domain.ThreatLevel
	}{
		{"Access Points", fmt.Sprintf("%d", stats.TotalAccessPoints), ""},
		{"Hidden Networks", fmt.Sprintf("%d", stats.HiddenCount), ""},
		{"Critical", fmt.Sprintf("%d", stats.ThreatDistribution[domain.ThreatCritical]), domain.ThreatCritical},
		{"High", fmt.Sprintf("%d", stats.ThreatDistribution[domain.ThreatHigh]), domain.ThreatHigh},
		{"Medium", fmt.Sprintf("%d", stats.ThreatDistribution[domain.ThreatMedium]), domain.ThreatMedium},
		{"Low", fmt.Sprintf("%d", stats.ThreatDistribution[domain.ThreatLow]), domain.ThreatLow},
		{"High Risk", fmt.Sprintf("%.1f%%", stats.HighRiskPercent), ""},
		{"Vendors", fmt.Sprintf("%d", len(stats.TopVendors)), ""},
	}

	// Display in 2 columns
	colWidth := 85.0
	for i, row := range rows {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}
		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(50, 7, row.label+":", "", 0, "L", false, 0, "")

		r, g, b := 0, 102, 204
		if row.level != "" {
			r, g, b = threatColor(row.level)
		}
		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(colWidth-50, 7, row.value, "", 0, "R", false, 0, "")

		if i%2 == 1 {
			pdf.Ln(7)
		}
	}
	pdf.Ln(10)
}

// addAccessPoints adds the access point table, worst first as scanned
func (e *PDFExporter) addAccessPoints(pdf *gofpdf.Fpdf, tr func(string) string, records []domain.AccessPointRecord) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Access Points", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(records) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 7, "No access points found", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	header := func() {
		pdf.SetFillColor(240, 240, 240)
		pdf.SetFont("Arial", "B", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(45, 8, "SSID", "1", 0, "L", true, 0, "")
		pdf.CellFormat(35, 8, "BSSID", "1", 0, "L", true, 0, "")
		pdf.CellFormat(12, 8, "Ch", "1", 0, "C", true, 0, "")
		pdf.CellFormat(18, 8, "Signal", "1", 0, "C", true, 0, "")
		pdf.CellFormat(18, 8, "Security", "1", 0, "C", true, 0, "")
		pdf.CellFormat(15, 8, "Score", "1", 0, "C", true, 0, "")
		pdf.CellFormat(27, 8, "Threat", "1", 1, "C", true, 0, "")
	}
	header()

	pdf.SetFont("Arial", "", 8)
	for i, r := range records {
		if i == maxTableRows {
			pdf.SetFont("Arial", "I", 8)
			pdf.SetTextColor(100, 100, 100)
			pdf.CellFormat(0, 6, fmt.Sprintf("... and %d more", len(records)-maxTableRows), "", 1, "L", false, 0, "")
			break
		}
		if pdf.GetY() > 265 {
			pdf.AddPage()
			header()
			pdf.SetFont("Arial", "", 8)
		}

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(45, 7, tr(truncate(r.DisplaySSID(), 26)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, r.BSSID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(12, 7, r.ChannelLabel(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 7, fmt.Sprintf("%.0f dBm", r.SignalDBm), "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 7, string(r.Security), "1", 0, "C", false, 0, "")
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", r.VulnerabilityScore), "1", 0, "C", false, 0, "")

		cr, cg, cb := threatColor(r.ThreatLevel)
		pdf.SetTextColor(cr, cg, cb)
		pdf.CellFormat(27, 7, string(r.ThreatLevel), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, report domain.ReportData) {
	pdf.SetY(-20)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	id := report.ScanID
	if len(id) > 8 {
		id = id[:8]
	}
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated by wifiradar | Scan ID: %s", id), "", 1, "C", false, 0, "")
}

// averageLevel buckets an average score with the default thresholds
func averageLevel(score float64) domain.ThreatLevel {
	return domain.DefaultTables().ThreatFor(int(score + 0.5)).Level
}

// threatColor returns RGB color based on threat level
func threatColor(level domain.ThreatLevel) (r, g, b int) {
	switch level {
	case domain.ThreatCritical:
		return 220, 53, 69 // Red
	case domain.ThreatHigh:
		return 255, 149, 0 // Orange
	case domain.ThreatMedium:
		return 255, 204, 0 // Yellow
	default:
		return 52, 199, 89 // Green
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
