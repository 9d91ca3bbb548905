package domain

import (
	"math"
	"sort"
	"time"
)

// ReportData aggregates all data needed for a scan report.
type ReportData struct {
	GeneratedAt  time.Time
	ScanID       string
	Interface    string
	Stats        ReportStats
	AccessPoints []AccessPointRecord
}

// ReportStats holds summary statistics of one scan.
type ReportStats struct {
	TotalAccessPoints int     `json:"total_access_points"`
	HiddenCount       int     `json:"hidden_count"`
	AverageScore      float64 `json:"average_vulnerability_score"`
	HighRiskCount     int     `json:"high_risk_count"`
	HighRiskPercent   float64 `json:"high_risk_percentage"`

	ThreatDistribution   map[ThreatLevel]int  `json:"threat_distribution"`
	SecurityDistribution map[SecurityType]int `json:"security_distribution"`
	ChannelUsage         map[int]int          `json:"channel_usage"`
	TopVendors           []VendorStat         `json:"top_vendors"`
}

type VendorStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summarize computes report statistics over a record list.
func Summarize(records []AccessPointRecord) ReportStats {
	stats := ReportStats{
		TotalAccessPoints:    len(records),
		ThreatDistribution:   map[ThreatLevel]int{ThreatLow: 0, ThreatMedium: 0, ThreatHigh: 0, ThreatCritical: 0},
		SecurityDistribution: make(map[SecurityType]int),
		ChannelUsage:         make(map[int]int),
	}
	if len(records) == 0 {
		return stats
	}

	vendors := make(map[string]int)
	total := 0
	for _, r := range records {
		total += r.VulnerabilityScore
		stats.ThreatDistribution[r.ThreatLevel]++
		stats.SecurityDistribution[r.Security]++
		if r.Channel != nil {
			stats.ChannelUsage[*r.Channel]++
		}
		if r.Hidden {
			stats.HiddenCount++
		}
		if r.ThreatLevel == ThreatHigh || r.ThreatLevel == ThreatCritical {
			stats.HighRiskCount++
		}
		vendors[r.Vendor]++
	}

	stats.AverageScore = round1(float64(total) / float64(len(records)))
	stats.HighRiskPercent = round1(float64(stats.HighRiskCount) / float64(len(records)) * 100)

	for name, count := range vendors {
		stats.TopVendors = append(stats.TopVendors, VendorStat{Name: name, Count: count})
	}
	sort.Slice(stats.TopVendors, func(i, j int) bool {
		if stats.TopVendors[i].Count != stats.TopVendors[j].Count {
			return stats.TopVendors[i].Count > stats.TopVendors[j].Count
		}
		return stats.TopVendors[i].Name < stats.TopVendors[j].Name
	})
	if len(stats.TopVendors) > 10 {
		stats.TopVendors = stats.TopVendors[:10]
	}
	return stats
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
