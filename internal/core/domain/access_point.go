package domain

import (
	"strconv"
	"strings"
	"time"
)

// SecurityType is the normalized security protocol of an access point.
type SecurityType string

const (
	SecurityOpen    SecurityType = "Open"
	SecurityWEP     SecurityType = "WEP"
	SecurityWPA     SecurityType = "WPA"
	SecurityWPA2    SecurityType = "WPA2"
	SecurityWPA3    SecurityType = "WPA3"
	SecurityWPS     SecurityType = "WPS"
	SecurityUnknown SecurityType = "Unknown"
)

// SecurityTypes lists every value the normalizer can produce.
var SecurityTypes = []SecurityType{
	SecurityOpen, SecurityWEP, SecurityWPA, SecurityWPA2, SecurityWPA3, SecurityWPS, SecurityUnknown,
}

// ParseSecurityType maps a case-insensitive label to a SecurityType.
func ParseSecurityType(s string) (SecurityType, bool) {
	for _, st := range SecurityTypes {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return SecurityUnknown, false
}

// ThreatLevel is the coarse risk bucket derived from a vulnerability score.
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "LOW"
	ThreatMedium   ThreatLevel = "MEDIUM"
	ThreatHigh     ThreatLevel = "HIGH"
	ThreatCritical ThreatLevel = "CRITICAL"
)

// Rank orders threat levels; higher is worse. Unknown labels rank below LOW.
func (t ThreatLevel) Rank() int {
	switch t {
	case ThreatLow:
		return 1
	case ThreatMedium:
		return 2
	case ThreatHigh:
		return 3
	case ThreatCritical:
		return 4
	default:
		return 0
	}
}

// UnknownVendor is reported when the OUI prefix is not mapped.
const UnknownVendor = "Unknown"

// AccessPointRecord is the canonical, enriched result for one BSSID in one scan.
// Records are values: consumers replace them on rescan instead of mutating them.
type AccessPointRecord struct {
	BSSID        string       `json:"bssid"`
	SSID         string       `json:"ssid"`
	Hidden       bool         `json:"hidden"`
	SignalDBm    float64      `json:"signal_dbm"`
	FrequencyMHz int          `json:"frequency_mhz"`
	Channel      *int         `json:"channel"`
	Security     SecurityType `json:"security"`
	Vendor       string       `json:"vendor"`
	DistanceM    float64      `json:"distance_m"`

	VulnerabilityScore int         `json:"vulnerability_score"`
	ThreatLevel        ThreatLevel `json:"threat_level"`
	AttackVectors      []string    `json:"attack_vectors"`
	Confidence         float64     `json:"confidence"`
	LastSeen           time.Time   `json:"last_seen"`

	// Display helpers
	AngleDeg        float64  `json:"angle_deg"`
	RiskLevel       string   `json:"risk_level,omitempty"`
	RiskFactors     []string `json:"risk_factors,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	SignalQuality   string   `json:"signal_quality,omitempty"`
}

// DisplaySSID returns the SSID, or a Hidden_<bssid> placeholder for hidden networks.
func (r AccessPointRecord) DisplaySSID() string {
	if r.Hidden || r.SSID == "" {
		return "Hidden_" + r.BSSID
	}
	return r.SSID
}

// ChannelLabel renders the channel for tables and reports.
func (r AccessPointRecord) ChannelLabel() string {
	if r.Channel == nil {
		return "?"
	}
	return strconv.Itoa(*r.Channel)
}

// Band classifies the record frequency.
func (r AccessPointRecord) Band() (WiFiBand, bool) {
	return BandForFrequency(r.FrequencyMHz)
}

// BandForFrequency maps a frequency to its band.
func BandForFrequency(freq int) (WiFiBand, bool) {
	switch {
	case freq >= 2400 && freq <= 2500:
		return Band24GHz, true
	case freq >= 5000 && freq < 5925:
		return Band5GHz, true
	case freq >= 5925 && freq <= 7125:
		return Band6GHz, true
	default:
		return "", false
	}
}

// IntPtr is a small helper for optional integer fields.
func IntPtr(v int) *int {
	return &v
}
