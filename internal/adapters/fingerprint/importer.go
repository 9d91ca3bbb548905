package fingerprint

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Registry sources
const (
	SourceIEEE      = "ieee"
	SourceWireshark = "wireshark"

	IEEEOUIURL      = "https://standards-oui.ieee.org/oui/oui.csv"
	WiresharkOUIURL = "https://www.wireshark.org/download/automated/data/manuf"

	// RefreshInterval is how old the registry may get before an update is due.
	RefreshInterval = 30 * 24 * time.Hour
)

var hexPrefixRegex = regexp.MustCompile(`^[0-9A-F]{2}:[0-9A-F]{2}:[0-9A-F]{2}$`)

// ParseIEEECSV reads the IEEE MA-L CSV export
// (Registry,Assignment,Organization Name,Organization Address).
func ParseIEEECSV(r io.Reader, now time.Time) ([]OUIEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var entries []OUIEntry
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, err
		}
		if len(record) < 3 {
			continue
		}

		prefix := normalizePrefix(record[1])
		vendor := strings.TrimSpace(record[2])
		if prefix == "" || vendor == "" {
			continue
		}
		e := OUIEntry{
			Prefix:      prefix,
			Vendor:      vendor,
			VendorShort: extractShortVendor(vendor),
			LastUpdated: now,
		}
		if len(record) >= 4 {
			e.Address = strings.TrimSpace(record[3])
			e.Country = countryFromAddress(e.Address)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ParseManuf reads the Wireshark manuf file (PREFIX<tab>Short<tab>Long).
// Entries for sub-allocations ("XX:XX:XX:X0:00:00/28") are skipped.
func ParseManuf(r io.Reader, now time.Time) ([]OUIEntry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var entries []OUIEntry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 || strings.Contains(parts[0], "/") {
			continue
		}

		prefix := normalizePrefix(parts[0])
		short := strings.TrimSpace(parts[1])
		vendor := short
		if len(parts) >= 3 {
			vendor = strings.TrimSpace(parts[2])
		}
		if prefix == "" || vendor == "" {
			continue
		}
		entries = append(entries, OUIEntry{
			Prefix:      prefix,
			Vendor:      vendor,
			VendorShort: short,
			LastUpdated: now,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}
	return entries, nil
}

// ParseIEEEText reads the legacy oui.txt format ("XX-XX-XX   (hex)\tVendor").
func ParseIEEEText(r io.Reader, now time.Time) ([]OUIEntry, error) {
	scanner := bufio.NewScanner(r)
	var entries []OUIEntry
	for scanner.Scan() {
		before, after, found := strings.Cut(scanner.Text(), "(hex)")
		if !found {
			continue
		}
		prefix := normalizePrefix(before)
		vendor := strings.TrimSpace(after)
		if prefix == "" || vendor == "" {
			continue
		}
		entries = append(entries, OUIEntry{
			Prefix:      prefix,
			Vendor:      vendor,
			VendorShort: extractShortVendor(vendor),
			LastUpdated: now,
		})
	}
	return entries, scanner.Err()
}

// Fetch downloads and parses a registry source.
func Fetch(ctx context.Context, client *http.Client, source string) ([]OUIEntry, error) {
	return FetchURL(ctx, client, "", source)
}

// FetchURL downloads source from url, or from the source's default
// location when url is empty.
func FetchURL(ctx context.Context, client *http.Client, url, source string) ([]OUIEntry, error) {
	var (
		defaultURL string
		parse      func(io.Reader, time.Time) ([]OUIEntry, error)
	)
	switch source {
	case SourceIEEE:
		defaultURL, parse = IEEEOUIURL, ParseIEEECSV
	case SourceWireshark:
		defaultURL, parse = WiresharkOUIURL, ParseManuf
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	if url == "" {
		url = defaultURL
	}
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP status %d from %s", resp.StatusCode, url)
	}
	return parse(resp.Body, time.Now().UTC())
}

// ImportFile parses a local registry file. The format is chosen by source.
func ImportFile(r io.Reader, source string, now time.Time) ([]OUIEntry, error) {
	switch source {
	case SourceIEEE:
		return ParseIEEECSV(r, now)
	case SourceWireshark:
		return ParseManuf(r, now)
	case "txt":
		return ParseIEEEText(r, now)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
}

// normalizePrefix converts various MAC prefix formats to XX:XX:XX
func normalizePrefix(prefix string) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	prefix = strings.NewReplacer("-", "", ":", "", ".", "", " ", "").Replace(prefix)
	if len(prefix) < 6 {
		return ""
	}
	out := prefix[0:2] + ":" + prefix[2:4] + ":" + prefix[4:6]
	if !hexPrefixRegex.MatchString(out) {
		return ""
	}
	return out
}

var shortVendorSuffixes = []string{
	" Co., Ltd.", " Inc.", " Inc", " Corporation", " Corp.", " Corp",
	" Ltd.", " Ltd", " Limited", " Co.", " LLC", " GmbH", " S.A.", " AG",
}

// extractShortVendor extracts a short vendor name from the registered one
func extractShortVendor(vendor string) string {
	vendor = strings.TrimSpace(vendor)
	for _, s := range shortVendorSuffixes {
		vendor = strings.TrimSuffix(vendor, s)
	}
	if idx := strings.Index(vendor, ","); idx > 0 {
		vendor = vendor[:idx]
	}
	return strings.TrimSpace(vendor)
}

// countryFromAddress takes the trailing ISO country code of an IEEE address.
func countryFromAddress(addr string) string {
	fields := strings.Fields(addr)
	if len(fields) == 0 {
		return ""
	}
	last := fields[len(fields)-1]
	if len(last) == 2 && strings.ToUpper(last) == last {
		return last
	}
	return ""
}
