package parser

import (
	"regexp"
	"strings"
)

// Example block (iwlist wlan0 scan):
//
//	Cell 01 - Address: AA:BB:CC:DD:EE:FF
//	          Frequency:2.437 GHz (Channel 6)
//	          Quality=70/70  Signal level=-40 dBm
//	          Encryption key:on
//	          ESSID:"TestNet"
//	          IE: IEEE 802.11i/WPA2 Version 1
//	              Authentication Suites (1) : PSK
var (
	listCellRegex   = regexp.MustCompile(`^\s*Cell\s+\d+\s*-\s*Address:\s*(.*)$`)
	listESSIDRegex  = regexp.MustCompile(`^ESSID:"(.*)"`)
	listSignalRegex = regexp.MustCompile(`Signal level\s*[=:]\s*(\S+)\s*dBm`)
	listFreqRegex   = regexp.MustCompile(`^Frequency\s*[:=]\s*(\S+)\s*GHz`)
)

// listSecurityMarkers are matched as plain, case-sensitive substrings.
var listSecurityMarkers = []string{
	"Encryption key:",
	"WPA",
	"WEP",
	"Authentication Suites",
	"IEEE 802.11i",
	"SAE",
}

type listDialect struct{}

func (listDialect) boundary(line string) (string, bool) {
	m := listCellRegex.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return findMAC(m[1]), true
}

func (listDialect) field(b *blockBuilder, line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}

	if m := listESSIDRegex.FindStringSubmatch(trimmed); m != nil {
		if !b.block.HasSSID {
			b.block.HasSSID = true
			b.block.SSID = m[1]
		}
		return
	}
	// Quality and signal share one line.
	if m := listSignalRegex.FindStringSubmatch(trimmed); m != nil {
		setOnce(&b.block.Signal, m[1])
		return
	}
	if m := listFreqRegex.FindStringSubmatch(trimmed); m != nil {
		if b.block.Frequency == "" {
			b.block.Frequency = m[1]
			b.block.FrequencyGHz = true
		}
		return
	}
	for _, marker := range listSecurityMarkers {
		if strings.Contains(trimmed, marker) {
			b.block.SecurityLines = append(b.block.SecurityLines, trimmed)
			return
		}
	}
}
