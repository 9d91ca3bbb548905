package analysis

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/telemetry"
)

var specialCharsRegex = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{}|;:,.<>?]`)

// Vectors added on top of the profile ones.
var (
	proximityVectors = []string{"Physical proximity attacks", "RF jamming attacks", "Rogue AP setup"}
	exposureVectors  = []string{"Wardriving attacks", "Passive monitoring", "Session hijacking"}
	wpsVectors       = []string{"WPS PIN brute force", "Pixie Dust attack"}
)

var generalRecommendations = []string{
	"Change default router admin credentials",
	"Keep router firmware updated",
	"Disable unnecessary services (Telnet, SSH, UPnP)",
	"Enable router firewall",
	"Use guest network for visitors",
	"Monitor connected devices regularly",
}

var protocolRecommendations = map[domain.SecurityType][]string{
	domain.SecurityOpen: {
		"Enable WPA3 or WPA2 encryption immediately",
		"Use a strong, unique password",
		"Consider MAC address filtering for sensitive networks",
	},
	domain.SecurityWEP: {
		"Upgrade to WPA3 or WPA2 immediately",
		"WEP is easily crackable and should never be used",
		"Update router firmware to support modern security",
	},
	domain.SecurityWPA: {
		"Upgrade to WPA3 or WPA2 for better security",
		"Use a strong passphrase (12+ characters)",
		"Disable WPS if not needed",
	},
	domain.SecurityWPA2: {
		"Consider upgrading to WPA3 if supported",
		"Use a strong passphrase (15+ characters)",
		"Disable WPS to prevent PIN attacks",
		"Enable 802.11w (Management Frame Protection)",
	},
	domain.SecurityWPA3: {
		"Excellent security choice",
		"Ensure all devices support WPA3",
		"Use SAE (Simultaneous Authentication of Equals)",
	},
	domain.SecurityWPS: {
		"Disable WPS or enforce PIN lockout",
		"Enable WPA2 or WPA3 encryption",
	},
}

// SecurityAssessment is the scoring outcome for one access point.
type SecurityAssessment struct {
	Score           int
	Threat          domain.ThreatThreshold
	RiskLevel       string
	AttackVectors   []string
	RiskFactors     []string
	Recommendations []string
	ProfileFallback bool
}

// SecurityAnalyzer scores access points against the configuration tables.
type SecurityAnalyzer struct {
	logger *slog.Logger

	// warned holds security types whose profile fallback was already logged.
	warned sync.Map
}

// NewSecurityAnalyzer creates an analyzer.
func NewSecurityAnalyzer(logger *slog.Logger) *SecurityAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SecurityAnalyzer{logger: logger}
}

// Assess computes the vulnerability score, threat level and attack vectors.
func (a *SecurityAnalyzer) Assess(t *domain.Tables, nf domain.NormalizedFields) SecurityAssessment {
	profile, ok := t.Profile(nf.Security)
	if !ok {
		telemetry.ProfileFallbacks.WithLabelValues(string(nf.Security)).Inc()
		if _, seen := a.warned.LoadOrStore(nf.Security, struct{}{}); !seen {
			a.logger.Warn("No security profile, using WPA2 fallback", "security", nf.Security)
		}
	}

	score := profile.BaseScore
	vectors := append([]string(nil), profile.AttackVectors...)
	advice := append([]string(nil), protocolRecommendations[nf.Security]...)
	var factors []string

	// Signal
	if r, found := t.SignalRangeFor(nf.SignalDBm); found {
		score += r.Bonus
	}
	factors = append(factors, signalFactor(nf.SignalDBm))
	if nf.SignalDBm > -40 {
		vectors = append(vectors, proximityVectors...)
	}
	if (nf.Security == domain.SecurityOpen || nf.Security == domain.SecurityWEP) && nf.SignalDBm > -60 {
		vectors = append(vectors, exposureVectors...)
	}
	if nf.SignalDBm > -30 {
		advice = append(advice, "Consider reducing transmit power to limit range")
	}

	// SSID
	bonus, ssidFactors, ssidAdvice, ssidVectors := assessSSID(t, nf)
	score += bonus
	factors = append(factors, ssidFactors...)
	advice = append(advice, ssidAdvice...)
	vectors = append(vectors, ssidVectors...)

	// Protocol specific
	if nf.Security == domain.SecurityWPA || nf.Security == domain.SecurityWPA2 {
		vectors = append(vectors, wpsVectors...)
	}

	// Band and hardware address
	bandBonus, bandFactor := assessBand(t, nf.FrequencyMHz)
	score += bandBonus
	factors = append(factors, bandFactor)

	bssidBonus, bssidFactors := assessBSSID(t, nf.BSSID)
	score += bssidBonus
	factors = append(factors, bssidFactors...)

	score = clampScore(score)
	advice = append(advice, generalRecommendations...)

	return SecurityAssessment{
		Score:           score,
		Threat:          t.ThreatFor(score),
		RiskLevel:       profile.RiskLevel,
		AttackVectors:   Dedup(vectors),
		RiskFactors:     factors,
		Recommendations: Dedup(advice),
		ProfileFallback: !ok,
	}
}

func assessSSID(t *domain.Tables, nf domain.NormalizedFields) (int, []string, []string, []string) {
	if nf.Hidden || nf.SSID == "" {
		return t.Bonuses.HiddenSSID,
			[]string{"Hidden SSID (minor security through obscurity)"},
			[]string{"Consider using a descriptive but non-personal SSID"},
			nil
	}

	var (
		bonus   int
		factors []string
		advice  []string
		vectors []string
	)
	lower := strings.ToLower(nf.SSID)
	for i := range t.SSIDCategories {
		c := &t.SSIDCategories[i]
		if !c.Match(lower) {
			continue
		}
		bonus += c.Bonus
		if c.Factor != "" {
			factors = append(factors, c.Factor)
		}
		if c.Advice != "" {
			advice = append(advice, c.Advice)
		}
		vectors = append(vectors, c.Vectors...)
	}

	switch n := len([]rune(nf.SSID)); {
	case n < 3:
		bonus += t.Bonuses.ShortSSID
		factors = append(factors, "Very short SSID")
	case n > 32:
		factors = append(factors, "SSID exceeds standard length")
	}

	if specialCharsRegex.MatchString(nf.SSID) {
		bonus += t.Bonuses.SpecialChars
		factors = append(factors, "SSID contains special characters")
	}
	return bonus, factors, advice, vectors
}

func assessBand(t *domain.Tables, freqMHz int) (int, string) {
	band, ok := domain.BandForFrequency(freqMHz)
	switch {
	case !ok && freqMHz == domain.UnknownFrequencyMHz:
		return 0, "Unknown frequency"
	case !ok:
		return 0, fmt.Sprintf("Unusual frequency: %d MHz", freqMHz)
	case band == domain.Band24GHz:
		return t.Bonuses.Band24GHz, "2.4 GHz band - longer range, more interference"
	case band == domain.Band5GHz:
		return 0, "5 GHz band - shorter range, less congested"
	default:
		return 0, "6 GHz band - latest standard, limited device support"
	}
}

func assessBSSID(t *domain.Tables, bssid string) (int, []string) {
	octets := strings.Split(bssid, ":")
	if len(octets) != 6 {
		return 0, nil
	}
	var (
		bonus   int
		factors []string
	)
	if octets[0] == "00" && octets[1] == "00" && octets[2] == "00" {
		bonus += t.Bonuses.NullOUI
		factors = append(factors, "BSSID suggests default configuration")
	}
	if octets[3] == octets[4] && octets[4] == octets[5] {
		bonus += t.Bonuses.RepeatedOctets
		factors = append(factors, "BSSID shows repetitive pattern")
	}
	return bonus, factors
}

func signalFactor(signalDBm float64) string {
	switch {
	case signalDBm > -30:
		return "Excellent signal strength - highly accessible"
	case signalDBm > -50:
		return "Good signal strength - easily accessible"
	case signalDBm > -70:
		return "Fair signal strength - accessible with positioning"
	case signalDBm > -80:
		return "Poor signal strength - requires proximity"
	default:
		return "Very poor signal strength - limited accessibility"
	}
}

func clampScore(score int) int {
	return max(0, min(100, score))
}

// Dedup removes repeated strings, keeping the first occurrence order.
func Dedup(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
