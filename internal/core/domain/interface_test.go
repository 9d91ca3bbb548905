package domain

import (
	"testing"
)

func TestNewInterfaceInfo(t *testing.T) {
	tests := []struct {
		name    string
		iface   string
		mac     string
		wantErr error
	}{
		{
			name:    "valid interface",
			iface:   "wlan0",
			mac:     "00:11:22:33:44:55",
			wantErr: nil,
		},
		{
			name:    "hidden mac",
			iface:   "wlan1",
			mac:     "",
			wantErr: nil,
		},
		{
			name:    "invalid name",
			iface:   "invalid!name",
			mac:     "00:11:22:33:44:55",
			wantErr: ErrInvalidInterfaceName,
		},
		{
			name:    "invalid mac",
			iface:   "wlan0",
			mac:     "invalid-mac",
			wantErr: ErrInvalidMAC,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := NewInterfaceInfo(tt.iface, tt.mac)
			if err != tt.wantErr {
				t.Errorf("NewInterfaceInfo() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr == nil {
				if info.Name != tt.iface {
					t.Errorf("info.Name = %v, want %v", info.Name, tt.iface)
				}
				if info.MAC != NormalizeMAC(tt.mac) {
					t.Errorf("info.MAC = %v, want %v", info.MAC, tt.mac)
				}
				if info.IsUp() {
					t.Errorf("new interface should not report up before operstate is read")
				}
			}
		})
	}
}
