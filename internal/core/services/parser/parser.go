// Package parser turns raw scanning tool output into typed per-network fields.
//
// Two grammars are supported and kept apart on purpose: the "scan" dialect
// produced by `iw dev <iface> scan` and the "list" dialect produced by
// `iwlist <iface> scan`. Each has its own block marker and field patterns.
package parser

import (
	"fmt"
	"strings"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/telemetry"
)

// maxLineSize bounds the part of a line handed to the field patterns.
// Longer lines (vendor IE dumps) are cut, never dropped.
const maxLineSize = 1 << 20

// blockBuilder accumulates fields for the block currently being read.
type blockBuilder struct {
	block    domain.RawFieldBlock
	headless bool
}

// lineParser consumes one line of a block. boundary reports whether the line
// starts a new block and, if so, the BSSID text it carries.
type lineParser interface {
	boundary(line string) (bssid string, ok bool)
	field(b *blockBuilder, line string)
}

// Parse splits raw into blocks using the given dialect and extracts their fields.
// Blocks without a BSSID are dropped. Block order follows the input.
func Parse(raw string, dialect domain.Dialect) ([]domain.RawFieldBlock, error) {
	var lp lineParser
	switch dialect {
	case domain.DialectScan:
		lp = scanDialect{}
	case domain.DialectList:
		lp = listDialect{}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDialect, dialect)
	}

	var (
		blocks  []domain.RawFieldBlock
		current *blockBuilder
		dropped int
	)

	flush := func() {
		if current == nil {
			return
		}
		switch {
		case current.block.BSSID != "":
			blocks = append(blocks, current.block)
		case current.headless && isEmptyBlock(current.block):
			// preamble only
		default:
			dropped++
		}
		current = nil
	}

	for line := range strings.Lines(raw) {
		line = strings.TrimRight(line, "\r\n")
		if len(line) > maxLineSize {
			line = line[:maxLineSize]
		}
		if bssid, ok := lp.boundary(line); ok {
			flush()
			current = &blockBuilder{block: domain.RawFieldBlock{BSSID: bssid}}
			continue
		}
		if current == nil {
			// Text before the first marker (headers, "Scan completed" lines).
			current = &blockBuilder{headless: true}
		}
		lp.field(current, line)
	}
	flush()

	if dropped > 0 {
		telemetry.BlocksDropped.WithLabelValues(string(dialect), "missing_bssid").Add(float64(dropped))
	}
	telemetry.BlocksParsed.WithLabelValues(string(dialect)).Add(float64(len(blocks)))

	return blocks, nil
}

// isEmptyBlock reports whether a block carries no network fields at all.
func isEmptyBlock(b domain.RawFieldBlock) bool {
	return !b.HasSSID && b.Signal == "" && b.Frequency == "" && len(b.SecurityLines) == 0
}

// findMAC returns the first standalone six-octet address in s. Longer
// colon-hex runs are not cut down to six octets.
func findMAC(s string) string {
	m := macInTextRegex.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// setOnce stores v in dst unless a value was already captured.
func setOnce(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
