package parser

import (
	"regexp"
	"strings"
)

// Example block (iw dev wlan0 scan):
//
//	BSS aa:bb:cc:dd:ee:ff(on wlan0) -- associated
//		freq: 2437
//		capability: ESS Privacy ShortSlotTime (0x0411)
//		signal: -45.00 dBm
//		SSID: TestNet
//		RSN:	 * Version: 1
//			 * Authentication suites: PSK
//		WPA:	 * Version: 1
var (
	scanBSSRegex      = regexp.MustCompile(`^BSS\s+(.*)$`)
	macInTextRegex    = regexp.MustCompile(`(?:^|[^:0-9A-Fa-f])([0-9A-Fa-f]{2}(?::[0-9A-Fa-f]{2}){5})(?:$|[^:0-9A-Fa-f])`)
	scanSignalRegex   = regexp.MustCompile(`^signal:\s*(\S+)\s*dBm`)
	scanFreqRegex     = regexp.MustCompile(`^freq:\s*(\S+)`)
	scanSecurityRegex = regexp.MustCompile(`\b(RSN|WPA|WPA2|WPA3|WEP|Privacy|WPS|SAE)\b`)
)

type scanDialect struct{}

func (scanDialect) boundary(line string) (string, bool) {
	// Block markers start at column 0; "BSS Load:" and friends are indented.
	m := scanBSSRegex.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return findMAC(m[1]), true
}

func (scanDialect) field(b *blockBuilder, line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}

	if v, ok := strings.CutPrefix(trimmed, "SSID:"); ok {
		if !b.block.HasSSID {
			b.block.HasSSID = true
			b.block.SSID = strings.TrimSpace(v)
		}
		return
	}
	if m := scanSignalRegex.FindStringSubmatch(trimmed); m != nil {
		setOnce(&b.block.Signal, m[1])
		return
	}
	if m := scanFreqRegex.FindStringSubmatch(trimmed); m != nil {
		setOnce(&b.block.Frequency, m[1])
		return
	}
	// Tokens are case-sensitive here: "RSN:", "WPA:", "capability: ESS Privacy".
	if scanSecurityRegex.MatchString(trimmed) {
		b.block.SecurityLines = append(b.block.SecurityLines, trimmed)
	}
}
