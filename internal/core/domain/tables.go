package domain

import (
	"fmt"
	"regexp"
	"sort"
)

// SecurityProfile holds the scoring baseline for one security type.
type SecurityProfile struct {
	BaseScore     int      `yaml:"base_score" json:"base_score"`
	RiskLevel     string   `yaml:"risk_level" json:"risk_level"`
	AttackVectors []string `yaml:"attack_vectors" json:"attack_vectors"`
}

// SignalRange is one row of the signal table. A signal qualifies when it is >= MinDBm.
type SignalRange struct {
	Name       string  `yaml:"name" json:"name"`
	MinDBm     float64 `yaml:"min_dbm" json:"min_dbm"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
	Bonus      int     `yaml:"bonus" json:"bonus"`
}

// FrequencyCorrection scales distance estimates for a frequency band (inclusive bounds).
type FrequencyCorrection struct {
	Name       string  `yaml:"name" json:"name"`
	MinMHz     int     `yaml:"min_mhz" json:"min_mhz"`
	MaxMHz     int     `yaml:"max_mhz" json:"max_mhz"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// ThreatThreshold maps a minimum score to a threat level.
type ThreatThreshold struct {
	Level    ThreatLevel `yaml:"level" json:"level"`
	MinScore int         `yaml:"min_score" json:"min_score"`
	Color    string      `yaml:"color" json:"color"`
}

// SSIDPatternCategory is a group of SSID regexes sharing one additive bonus.
// Patterns are matched against the lowercased SSID; only the first match counts.
type SSIDPatternCategory struct {
	Name     string   `yaml:"name" json:"name"`
	Bonus    int      `yaml:"bonus" json:"bonus"`
	Patterns []string `yaml:"patterns" json:"patterns"`
	Vectors  []string `yaml:"vectors" json:"vectors"`
	Factor   string   `yaml:"factor" json:"factor"`
	Advice   string   `yaml:"advice" json:"advice"`

	compiled []*regexp.Regexp
}

// Match reports whether any pattern of the category matches the lowercased SSID.
func (c *SSIDPatternCategory) Match(ssidLower string) bool {
	for _, re := range c.compiled {
		if re.MatchString(ssidLower) {
			return true
		}
	}
	return false
}

// SecurityKeywords lists the markers searched for each security class, in precedence order.
type SecurityKeywords struct {
	WPA3 []string `yaml:"wpa3" json:"wpa3"`
	WPA2 []string `yaml:"wpa2" json:"wpa2"`
	WPA  []string `yaml:"wpa" json:"wpa"`
	WEP  []string `yaml:"wep" json:"wep"`
	WPS  []string `yaml:"wps" json:"wps"`
	None []string `yaml:"none" json:"none"`
}

// Propagation holds the log-normal shadowing model parameters.
type Propagation struct {
	PathLossExponent  float64 `yaml:"path_loss_exponent" json:"path_loss_exponent"`
	ReferenceDistance float64 `yaml:"reference_distance" json:"reference_distance"`
	ReferenceLoss     float64 `yaml:"reference_loss" json:"reference_loss"`
}

// FlatBonuses are the small fixed score adjustments outside the ranged tables.
type FlatBonuses struct {
	HiddenSSID     int `yaml:"hidden_ssid" json:"hidden_ssid"`
	ShortSSID      int `yaml:"short_ssid" json:"short_ssid"`
	SpecialChars   int `yaml:"special_chars" json:"special_chars"`
	Band24GHz      int `yaml:"band_24ghz" json:"band_24ghz"`
	NullOUI        int `yaml:"null_oui" json:"null_oui"`
	RepeatedOctets int `yaml:"repeated_octets" json:"repeated_octets"`
}

// Tables is the full read-only configuration consumed by the pipeline.
// A Tables value must not be mutated once published; reloads build a new one.
type Tables struct {
	Profiles             map[SecurityType]SecurityProfile `yaml:"-" json:"profiles"`
	SignalRanges         []SignalRange                    `yaml:"signal_ranges" json:"signal_ranges"`
	FrequencyCorrections []FrequencyCorrection            `yaml:"frequency_corrections" json:"frequency_corrections"`
	Thresholds           []ThreatThreshold                `yaml:"threat_thresholds" json:"threat_thresholds"`
	SSIDCategories       []SSIDPatternCategory            `yaml:"ssid_patterns" json:"ssid_patterns"`
	Keywords             SecurityKeywords                 `yaml:"security_keywords" json:"security_keywords"`
	Propagation          Propagation                      `yaml:"propagation" json:"propagation"`
	Bonuses              FlatBonuses                      `yaml:"bonuses" json:"bonuses"`
}

// DefaultTables returns the built-in tables. Each call returns a fresh copy.
func DefaultTables() *Tables {
	t := &Tables{
		Profiles: map[SecurityType]SecurityProfile{
			SecurityOpen: {BaseScore: 90, RiskLevel: "CRITICAL", AttackVectors: []string{"Direct Access"}},
			SecurityWEP:  {BaseScore: 85, RiskLevel: "CRITICAL", AttackVectors: []string{"WEP Cracking"}},
			SecurityWPA:  {BaseScore: 40, RiskLevel: "HIGH", AttackVectors: []string{"Handshake Capture"}},
			SecurityWPA2: {BaseScore: 30, RiskLevel: "MEDIUM", AttackVectors: []string{"PMKID Attack"}},
			SecurityWPA3: {BaseScore: 10, RiskLevel: "LOW", AttackVectors: []string{"SAE Attack"}},
			SecurityWPS:  {BaseScore: 70, RiskLevel: "HIGH", AttackVectors: []string{"WPS PIN Attack"}},
		},
		SignalRanges: []SignalRange{
			{Name: "excellent", MinDBm: -30, Multiplier: 0.70, Bonus: 15},
			{Name: "very_good", MinDBm: -50, Multiplier: 0.85, Bonus: 10},
			{Name: "good", MinDBm: -60, Multiplier: 1.00, Bonus: 5},
			{Name: "fair", MinDBm: -70, Multiplier: 1.10, Bonus: 0},
			{Name: "poor", MinDBm: -80, Multiplier: 1.25, Bonus: -5},
			{Name: "very_poor", MinDBm: -100, Multiplier: 1.40, Bonus: -10},
		},
		FrequencyCorrections: []FrequencyCorrection{
			{Name: "2.4GHz", MinMHz: 2400, MaxMHz: 2500, Multiplier: 1.0},
			{Name: "5GHz", MinMHz: 5000, MaxMHz: 5900, Multiplier: 0.85},
			{Name: "6GHz", MinMHz: 5925, MaxMHz: 7125, Multiplier: 0.75},
		},
		Thresholds: []ThreatThreshold{
			{Level: ThreatCritical, MinScore: 80, Color: "#ff4444"},
			{Level: ThreatHigh, MinScore: 60, Color: "#ff8800"},
			{Level: ThreatMedium, MinScore: 40, Color: "#ffaa00"},
			{Level: ThreatLow, MinScore: 0, Color: "#88ff88"},
		},
		SSIDCategories: []SSIDPatternCategory{
			{
				Name:  "default_names",
				Bonus: 15,
				Patterns: []string{
					`^(default|admin|router|root)$`,
					`linksys|netgear|dlink|tplink|asus`,
					`belkin|zyxel|huawei|motorola`,
					`wifi|wireless|internet|broadband`,
				},
				Vectors: []string{
					"Default credential attacks",
					"Firmware vulnerability exploitation",
					"Router management interface attacks",
				},
				Factor: "Default/common SSID name detected",
				Advice: "Change SSID from default router name",
			},
			{
				Name:  "weak_patterns",
				Bonus: 10,
				Patterns: []string{
					`test|temp|guest|public`,
					`password|123456|admin`,
					`phone|mobile|iphone|android`,
					`personal|private|home`,
				},
				Factor: "Weak SSID pattern detected",
				Advice: "Use a unique, non-obvious SSID name",
			},
			{
				Name:  "personal_info",
				Bonus: 8,
				Patterns: []string{
					`[0-9]{3,}`,
					`family|house|apartment|apt`,
					`street|road|ave|avenue|blvd`,
					`[a-z]+\s*[0-9]+[a-z]*`,
				},
				Factor: "SSID may contain personal information",
				Advice: "Avoid personal information in SSID",
			},
		},
		Keywords: SecurityKeywords{
			WPA3: []string{"WPA3", "SAE"},
			WPA2: []string{"WPA2", "RSN"},
			WPA:  []string{"WPA"},
			WEP:  []string{"WEP", "Privacy", "Encryption key:on"},
			WPS:  []string{"WPS"},
			None: []string{"none", "Encryption key:off"},
		},
		Propagation: Propagation{
			PathLossExponent:  2.0,
			ReferenceDistance: 1.0,
			ReferenceLoss:     40.0,
		},
		Bonuses: FlatBonuses{
			HiddenSSID:     5,
			ShortSSID:      5,
			SpecialChars:   -2,
			Band24GHz:      2,
			NullOUI:        5,
			RepeatedOctets: 3,
		},
	}
	// Built-in patterns are known to compile.
	_ = t.Prepare()
	return t
}

// Prepare sorts the ordered tables and compiles SSID patterns.
// It must be called on any Tables built outside DefaultTables before publishing.
func (t *Tables) Prepare() error {
	sort.SliceStable(t.SignalRanges, func(i, j int) bool {
		return t.SignalRanges[i].MinDBm > t.SignalRanges[j].MinDBm
	})
	sort.SliceStable(t.Thresholds, func(i, j int) bool {
		return t.Thresholds[i].MinScore > t.Thresholds[j].MinScore
	})
	for i := range t.SSIDCategories {
		c := &t.SSIDCategories[i]
		c.compiled = nil
		for _, p := range c.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return fmt.Errorf("ssid category %q pattern %q: %w", c.Name, p, err)
			}
			c.compiled = append(c.compiled, re)
		}
	}
	return nil
}

// Validate checks structural invariants of the tables.
func (t *Tables) Validate() error {
	if _, ok := t.Profiles[SecurityWPA2]; !ok {
		return fmt.Errorf("%w: WPA2 profile is required as fallback", ErrInvalidTables)
	}
	for st, p := range t.Profiles {
		if p.BaseScore < 0 || p.BaseScore > 100 {
			return fmt.Errorf("%w: profile %s base score %d out of range", ErrInvalidTables, st, p.BaseScore)
		}
	}
	if len(t.Thresholds) == 0 {
		return fmt.Errorf("%w: at least one threat threshold is required", ErrInvalidTables)
	}
	for _, th := range t.Thresholds {
		if th.Level.Rank() == 0 {
			return fmt.Errorf("%w: unknown threat level %q", ErrInvalidTables, th.Level)
		}
	}
	for _, r := range t.SignalRanges {
		if r.Multiplier <= 0 {
			return fmt.Errorf("%w: signal range %q multiplier must be positive", ErrInvalidTables, r.Name)
		}
	}
	for _, fc := range t.FrequencyCorrections {
		if fc.MinMHz > fc.MaxMHz || fc.Multiplier <= 0 {
			return fmt.Errorf("%w: frequency correction %q is malformed", ErrInvalidTables, fc.Name)
		}
	}
	return nil
}

// Profile returns the profile for st. ok is false when the WPA2 fallback was used.
func (t *Tables) Profile(st SecurityType) (SecurityProfile, bool) {
	if p, ok := t.Profiles[st]; ok {
		return p, true
	}
	return t.Profiles[SecurityWPA2], false
}

// SignalRangeFor returns the strongest range the signal still qualifies for.
func (t *Tables) SignalRangeFor(signalDBm float64) (SignalRange, bool) {
	for _, r := range t.SignalRanges {
		if signalDBm >= r.MinDBm {
			return r, true
		}
	}
	return SignalRange{}, false
}

// FrequencyCorrectionFor returns the first band containing freq.
func (t *Tables) FrequencyCorrectionFor(freq int) (FrequencyCorrection, bool) {
	for _, fc := range t.FrequencyCorrections {
		if freq >= fc.MinMHz && freq <= fc.MaxMHz {
			return fc, true
		}
	}
	return FrequencyCorrection{}, false
}

// ThreatFor maps a score to a threat level, evaluating the highest minimum first.
func (t *Tables) ThreatFor(score int) ThreatThreshold {
	for _, th := range t.Thresholds {
		if score >= th.MinScore {
			return th
		}
	}
	// Scores below every minimum land in the lowest bucket.
	return t.Thresholds[len(t.Thresholds)-1]
}

// Clone returns a deep copy suitable for modification before a swap.
func (t *Tables) Clone() *Tables {
	c := &Tables{
		Profiles:             make(map[SecurityType]SecurityProfile, len(t.Profiles)),
		SignalRanges:         append([]SignalRange(nil), t.SignalRanges...),
		FrequencyCorrections: append([]FrequencyCorrection(nil), t.FrequencyCorrections...),
		Thresholds:           append([]ThreatThreshold(nil), t.Thresholds...),
		Keywords: SecurityKeywords{
			WPA3: append([]string(nil), t.Keywords.WPA3...),
			WPA2: append([]string(nil), t.Keywords.WPA2...),
			WPA:  append([]string(nil), t.Keywords.WPA...),
			WEP:  append([]string(nil), t.Keywords.WEP...),
			WPS:  append([]string(nil), t.Keywords.WPS...),
			None: append([]string(nil), t.Keywords.None...),
		},
		Propagation: t.Propagation,
		Bonuses:     t.Bonuses,
	}
	for k, v := range t.Profiles {
		v.AttackVectors = append([]string(nil), v.AttackVectors...)
		c.Profiles[k] = v
	}
	for _, cat := range t.SSIDCategories {
		cat.Patterns = append([]string(nil), cat.Patterns...)
		cat.Vectors = append([]string(nil), cat.Vectors...)
		cat.compiled = append([]*regexp.Regexp(nil), cat.compiled...)
		c.SSIDCategories = append(c.SSIDCategories, cat)
	}
	return c
}
