package domain

import (
	"errors"
)

// WiFiBand represents a typed string for frequency bands.
type WiFiBand string

const (
	Band24GHz WiFiBand = "2.4GHz"
	Band5GHz  WiFiBand = "5GHz"
	Band6GHz  WiFiBand = "6GHz"
)

// Domain Errors for network interfaces.
var (
	ErrInvalidInterfaceName = errors.New("invalid interface name")
	ErrInvalidMAC           = errors.New("invalid MAC address")
)

// InterfaceCapabilities helps the UI know what an interface supports.
type InterfaceCapabilities struct {
	SupportedBands  []WiFiBand `json:"supported_bands"`
	Channels        []int      `json:"channels,omitempty"`
	SupportsMonitor bool       `json:"supports_monitor"`
}

// InterfaceInfo represents a wireless interface and its state.
type InterfaceInfo struct {
	Name         string                `json:"name"`
	MAC          string                `json:"mac"`
	Phy          string                `json:"phy,omitempty"`
	Mode         string                `json:"mode,omitempty"` // managed, monitor, AP...
	OperState    string                `json:"operstate"`      // up, down, dormant, unknown
	Source       string                `json:"source"`         // which probe discovered it
	Capabilities InterfaceCapabilities `json:"capabilities"`
}

// NewInterfaceInfo is the factory for creating valid InterfaceInfo entities.
// An empty MAC is allowed because some drivers hide it until the link is up.
func NewInterfaceInfo(name, mac string) (*InterfaceInfo, error) {
	if !IsValidInterface(name) {
		return nil, ErrInvalidInterfaceName
	}

	if mac != "" && !IsValidMAC(mac) {
		return nil, ErrInvalidMAC
	}

	return &InterfaceInfo{
		Name:      name,
		MAC:       NormalizeMAC(mac),
		OperState: "unknown",
	}, nil
}

// IsUp reports whether the kernel considers the link usable for scanning.
func (i *InterfaceInfo) IsUp() bool {
	return i.OperState == "up" || i.OperState == "dormant"
}
