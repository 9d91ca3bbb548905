package fingerprint

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxVendorNameRunes = 50

var corporateSuffixes = []string{
	", INC.", ", INC", ", LLC", ", LTD.", ", LTD",
	", CORP.", ", CORP", ", CO.", ", CO",
	"CORPORATION", "INCORPORATED", "LIMITED",
}

// canonicalVendors replaces any name starting with the key.
var canonicalVendors = []struct {
	prefix string
	name   string
}{
	{"apple", "Apple Inc."},
	{"cisco", "Cisco Systems"},
	{"microsoft", "Microsoft Corporation"},
}

// CleanVendorName turns a registry organization name into a display name.
// At most one corporate suffix is removed before title casing.
func CleanVendorName(vendor string) string {
	vendor = strings.TrimSpace(vendor)
	if vendor == "" {
		return ""
	}

	upper := strings.ToUpper(vendor)
	for _, suffix := range corporateSuffixes {
		if strings.HasSuffix(upper, suffix) {
			vendor = strings.TrimSpace(vendor[:len(vendor)-len(suffix)])
			break
		}
	}

	vendor = cases.Title(language.Und).String(vendor)

	lower := strings.ToLower(vendor)
	for _, c := range canonicalVendors {
		if strings.HasPrefix(lower, c.prefix) {
			return c.name
		}
	}

	if utf8.RuneCountInString(vendor) > maxVendorNameRunes {
		vendor = string([]rune(vendor)[:maxVendorNameRunes])
	}
	return vendor
}
