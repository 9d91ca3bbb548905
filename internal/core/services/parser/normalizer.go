package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
)

// Normalizer converts raw text fields into typed values.
type Normalizer struct {
	tables ports.TablesProvider
}

// NewNormalizer creates a normalizer reading security keywords from tables.
func NewNormalizer(tables ports.TablesProvider) *Normalizer {
	return &Normalizer{tables: tables}
}

// Normalize validates and types one block. Only an invalid BSSID rejects a
// block; numeric failures fall back to the missing-field defaults.
func (n *Normalizer) Normalize(block domain.RawFieldBlock) (domain.NormalizedFields, error) {
	bssid, ok := domain.CanonicalBSSID(block.BSSID)
	if !ok {
		return domain.NormalizedFields{}, fmt.Errorf("%w: bssid %q", domain.ErrRejected, block.BSSID)
	}

	nf := domain.NormalizedFields{
		BSSID:        bssid,
		SignalDBm:    domain.MissingSignalDBm,
		FrequencyMHz: domain.UnknownFrequencyMHz,
	}

	if isHiddenSSID(block.SSID) {
		nf.Hidden = true
	} else {
		nf.SSID = block.SSID
	}

	if sig, ok := parseFinite(block.Signal); ok {
		nf.SignalDBm = sig
	} else {
		nf.SignalMissing = true
	}

	if f, ok := parseFinite(block.Frequency); ok {
		if block.FrequencyGHz {
			f *= 1000
		}
		if mhz := int(math.Round(f)); mhz > 0 {
			nf.FrequencyMHz = mhz
		}
	}
	if nf.FrequencyMHz == domain.UnknownFrequencyMHz {
		nf.FrequencyMissing = true
	}
	nf.Channel = ChannelForFrequency(nf.FrequencyMHz)

	nf.Security = ClassifySecurity(block.SecurityLines, n.tables.Current().Keywords)
	return nf, nil
}

// ChannelForFrequency maps a frequency to its channel number, or nil when the
// frequency is outside the 2.4 GHz and (simplified) 5 GHz ranges.
func ChannelForFrequency(freq int) *int {
	switch {
	case freq == 2484:
		return domain.IntPtr(14)
	case freq >= 2412 && freq < 2484:
		ch := (freq-2412)/5 + 1
		if ch > 13 {
			return nil
		}
		return domain.IntPtr(ch)
	case freq >= 5170 && freq <= 5825:
		return domain.IntPtr((freq - 5000) / 5)
	default:
		return nil
	}
}

// ClassifySecurity applies the fixed precedence WPA3 > WPA2/RSN > WPA > WEP/Privacy > WPS.
// No lines or an explicit "none" marker means Open; anything else is Unknown.
func ClassifySecurity(lines []string, kw domain.SecurityKeywords) domain.SecurityType {
	if len(lines) == 0 {
		return domain.SecurityOpen
	}

	text := strings.ToLower(strings.Join(lines, "\n"))
	ordered := []struct {
		st   domain.SecurityType
		keys []string
	}{
		{domain.SecurityWPA3, kw.WPA3},
		{domain.SecurityWPA2, kw.WPA2},
		{domain.SecurityWPA, kw.WPA},
		{domain.SecurityWEP, kw.WEP},
		{domain.SecurityWPS, kw.WPS},
	}
	for _, o := range ordered {
		if containsAny(text, o.keys) {
			return o.st
		}
	}
	if containsAny(text, kw.None) {
		return domain.SecurityOpen
	}
	return domain.SecurityUnknown
}

func containsAny(lowerText string, keys []string) bool {
	for _, k := range keys {
		if k != "" && strings.Contains(lowerText, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// isHiddenSSID treats empty names and names made only of NUL bytes or their
// "\x00" escapes as hidden.
func isHiddenSSID(ssid string) bool {
	s := strings.ReplaceAll(ssid, `\x00`, "")
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s) == ""
}

func parseFinite(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
