package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/lcalzada-xor/wifiradar/internal/adapters/reporting"
	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

// writeRecords renders records as a table, or through the report exporters
// for the json, csv and pdf formats.
func writeRecords(w io.Writer, format string, session domain.ScanSession) error {
	if format == "" || format == "table" {
		return recordsTable(w, session.AccessPoints)
	}
	f, err := reporting.ParseFormat(format)
	if err != nil {
		return err
	}
	return reporting.Export(w, f, reporting.NewReport(session, time.Now().UTC()))
}

func recordsTable(w io.Writer, records []domain.AccessPointRecord) error {
	table := tablewriter.NewWriter(w)
	table.Header("BSSID", "SSID", "Signal", "Ch", "Security", "Vendor", "Distance", "Score", "Threat")
	for _, r := range records {
		if err := table.Append([]string{
			r.BSSID,
			r.DisplaySSID(),
			fmt.Sprintf("%.0f dBm", r.SignalDBm),
			r.ChannelLabel(),
			string(r.Security),
			r.Vendor,
			fmt.Sprintf("%.1f m", r.DistanceM),
			fmt.Sprintf("%d", r.VulnerabilityScore),
			string(r.ThreatLevel),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d access points\n", len(records))
	return err
}

func sessionsTable(w io.Writer, sessions []domain.ScanSession) error {
	table := tablewriter.NewWriter(w)
	table.Header("Scan ID", "Interface", "Status", "Started", "Duration", "APs")
	for _, s := range sessions {
		if err := table.Append([]string{
			s.ID,
			s.Interface,
			string(s.Status),
			s.StartedAt.Local().Format(time.DateTime),
			fmt.Sprintf("%.1fs", s.Duration),
			fmt.Sprintf("%d", s.TotalCount),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}
