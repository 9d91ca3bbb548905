package storage

import (
	"time"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

// ScanModel is the GORM model for a finished scan session.
type ScanModel struct {
	ID           string `gorm:"primaryKey"`
	Interface    string `gorm:"index"`
	Status       string
	StartedAt    time.Time
	FinishedAt   time.Time `gorm:"index"`
	Duration     float64
	TotalCount   int
	Error        string
	FailureCause string

	Records []RecordModel `gorm:"foreignKey:ScanID"`
}

// RecordModel stores one access point record of a scan.
type RecordModel struct {
	ScanID       string `gorm:"primaryKey"`
	BSSID        string `gorm:"primaryKey"`
	Position     int
	SSID         string
	Hidden       bool
	SignalDBm    float64
	FrequencyMHz int
	Channel      *int
	Security     string `gorm:"index"`
	Vendor       string

	DistanceM          float64
	VulnerabilityScore int
	ThreatLevel        string
	AttackVectors      []string `gorm:"serializer:json"`
	Confidence         float64
	LastSeen           time.Time

	AngleDeg        float64
	RiskLevel       string
	RiskFactors     []string `gorm:"serializer:json"`
	Recommendations []string `gorm:"serializer:json"`
	SignalQuality   string
}

func toScanModel(s domain.ScanSession) ScanModel {
	return ScanModel{
		ID:           s.ID,
		Interface:    s.Interface,
		Status:       string(s.Status),
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		Duration:     s.Duration,
		TotalCount:   s.TotalCount,
		Error:        s.Error,
		FailureCause: s.FailureCause,
	}
}

func toRecordModels(scanID string, records []domain.AccessPointRecord) []RecordModel {
	models := make([]RecordModel, len(records))
	for i, r := range records {
		models[i] = RecordModel{
			ScanID:             scanID,
			BSSID:              r.BSSID,
			Position:           i,
			SSID:               r.SSID,
			Hidden:             r.Hidden,
			SignalDBm:          r.SignalDBm,
			FrequencyMHz:       r.FrequencyMHz,
			Channel:            r.Channel,
			Security:           string(r.Security),
			Vendor:             r.Vendor,
			DistanceM:          r.DistanceM,
			VulnerabilityScore: r.VulnerabilityScore,
			ThreatLevel:        string(r.ThreatLevel),
			AttackVectors:      r.AttackVectors,
			Confidence:         r.Confidence,
			LastSeen:           r.LastSeen,
			AngleDeg:           r.AngleDeg,
			RiskLevel:          r.RiskLevel,
			RiskFactors:        r.RiskFactors,
			Recommendations:    r.Recommendations,
			SignalQuality:      r.SignalQuality,
		}
	}
	return models
}

func toSession(m ScanModel) domain.ScanSession {
	records := make([]domain.AccessPointRecord, len(m.Records))
	for i, r := range m.Records {
		records[i] = toRecord(r)
	}
	return domain.ScanSession{
		ID:           m.ID,
		Interface:    m.Interface,
		Status:       domain.ScanStatus(m.Status),
		StartedAt:    m.StartedAt,
		FinishedAt:   m.FinishedAt,
		AccessPoints: records,
		TotalCount:   m.TotalCount,
		Duration:     m.Duration,
		Error:        m.Error,
		FailureCause: m.FailureCause,
	}
}

func toRecord(m RecordModel) domain.AccessPointRecord {
	return domain.AccessPointRecord{
		BSSID:              m.BSSID,
		SSID:               m.SSID,
		Hidden:             m.Hidden,
		SignalDBm:          m.SignalDBm,
		FrequencyMHz:       m.FrequencyMHz,
		Channel:            m.Channel,
		Security:           domain.SecurityType(m.Security),
		Vendor:             m.Vendor,
		DistanceM:          m.DistanceM,
		VulnerabilityScore: m.VulnerabilityScore,
		ThreatLevel:        domain.ThreatLevel(m.ThreatLevel),
		AttackVectors:      m.AttackVectors,
		Confidence:         m.Confidence,
		LastSeen:           m.LastSeen,
		AngleDeg:           m.AngleDeg,
		RiskLevel:          m.RiskLevel,
		RiskFactors:        m.RiskFactors,
		Recommendations:    m.Recommendations,
		SignalQuality:      m.SignalQuality,
	}
}
