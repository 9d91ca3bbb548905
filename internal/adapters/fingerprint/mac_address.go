package fingerprint

import (
	"fmt"
	"net"
	"strings"
)

// MACAddress is a validated hardware address.
type MACAddress struct {
	address net.HardwareAddr
}

// ParseMAC accepts "XX:XX:XX:XX:XX:XX", "XX-XX-XX-XX-XX-XX", Cisco dotted
// notation and bare 12-digit hex.
func ParseMAC(s string) (MACAddress, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MACAddress{}, ErrEmptyMAC
	}

	normalized := strings.ReplaceAll(s, "-", ":")
	if len(normalized) == 12 && !strings.ContainsAny(normalized, ":.") {
		parts := make([]string, 0, 6)
		for i := 0; i < 12; i += 2 {
			parts = append(parts, normalized[i:i+2])
		}
		normalized = strings.Join(parts, ":")
	}

	hw, err := net.ParseMAC(normalized)
	if err != nil || len(hw) != 6 {
		return MACAddress{}, &ValidationError{Field: "mac", Value: s, Err: ErrInvalidMAC}
	}
	return MACAddress{address: hw}, nil
}

// MustParseMAC parses a MAC address and panics on error. Test helper.
func MustParseMAC(s string) MACAddress {
	mac, err := ParseMAC(s)
	if err != nil {
		panic(fmt.Sprintf("invalid MAC address %q: %v", s, err))
	}
	return mac
}

// OUI returns the vendor prefix as "XX:XX:XX".
func (m MACAddress) OUI() string {
	if len(m.address) < 3 {
		return ""
	}
	return fmt.Sprintf("%02X:%02X:%02X", m.address[0], m.address[1], m.address[2])
}

// IsLocallyAdministered reports whether the LAA bit is set. Access points
// commonly use such addresses for secondary SSIDs.
func (m MACAddress) IsLocallyAdministered() bool {
	return len(m.address) > 0 && m.address[0]&0x02 != 0
}

// String returns "XX:XX:XX:XX:XX:XX".
func (m MACAddress) String() string {
	return strings.ToUpper(m.address.String())
}

// IsValid reports whether the address was parsed.
func (m MACAddress) IsValid() bool {
	return len(m.address) > 0
}
