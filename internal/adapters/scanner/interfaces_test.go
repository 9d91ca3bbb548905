package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

func readTestdata(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

// fakeSysfs builds a /sys/class/net lookalike.
func fakeSysfs(t *testing.T, ifaces map[string]map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, attrs := range ifaces {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for attr, value := range attrs {
			path := filepath.Join(dir, attr)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
			if value == "" {
				require.NoError(t, os.MkdirAll(path, 0o755))
				continue
			}
			require.NoError(t, os.WriteFile(path, []byte(value+"\n"), 0o644))
		}
	}
	return root
}

func TestParseIwDev(t *testing.T) {
	ifaces := ParseIwDev(readTestdata(t, "iw_dev.txt"))
	require.Len(t, ifaces, 2)

	assert.Equal(t, "wlan1", ifaces[0].Name)
	assert.Equal(t, "phy1", ifaces[0].Phy)
	assert.Equal(t, "monitor", ifaces[0].Mode)
	assert.Equal(t, "00:C0:CA:11:22:33", ifaces[0].MAC)

	assert.Equal(t, "wlan0", ifaces[1].Name)
	assert.Equal(t, "phy0", ifaces[1].Phy)
	assert.Equal(t, "managed", ifaces[1].Mode)
	assert.Equal(t, "3C:F9:D3:AA:BB:CC", ifaces[1].MAC)
	assert.Equal(t, SourceIw, ifaces[1].Source)
}

func TestParseIwconfig(t *testing.T) {
	ifaces := ParseIwconfig(readTestdata(t, "iwconfig.txt"))
	require.Len(t, ifaces, 2)

	assert.Equal(t, "wlan0", ifaces[0].Name)
	assert.Equal(t, "managed", ifaces[0].Mode)
	assert.Equal(t, "wlan1", ifaces[1].Name)
	assert.Equal(t, "monitor", ifaces[1].Mode)
	assert.Equal(t, SourceIwconfig, ifaces[1].Source)
}

func TestParsePhyInfo(t *testing.T) {
	caps := ParsePhyInfo(readTestdata(t, "phy_info.txt"))

	assert.True(t, caps.SupportsMonitor)
	assert.Equal(t, []domain.WiFiBand{domain.Band24GHz, domain.Band5GHz}, caps.SupportedBands)
	assert.Equal(t, []int{1, 6, 36, 40}, caps.Channels)
}

func TestParsePhyInfo_NoMonitor(t *testing.T) {
	caps := ParsePhyInfo("Supported interface modes:\n\t * managed\n\t * AP\nBand 1:\n\tFrequencies:\n\t\t* 2412 MHz [1] (20.0 dBm)\n")
	assert.False(t, caps.SupportsMonitor)
	assert.Equal(t, []domain.WiFiBand{domain.Band24GHz}, caps.SupportedBands)
}

func TestListInterfaces_FromIw(t *testing.T) {
	useHelper(t)
	sys := fakeSysfs(t, map[string]map[string]string{
		"wlan0": {"operstate": "up", "address": "3c:f9:d3:aa:bb:cc", "wireless": ""},
		"wlan1": {"operstate": "down", "wireless": ""},
	})
	d := NewDiscovery(Config{SysClassNet: sys}, nil)

	ifaces, err := d.ListInterfaces(context.Background())
	require.NoError(t, err)
	require.Len(t, ifaces, 2)

	byName := map[string]domain.InterfaceInfo{}
	for _, i := range ifaces {
		byName[i.Name] = i
	}
	assert.Equal(t, "up", byName["wlan0"].OperState)
	wlan0 := byName["wlan0"]
	assert.True(t, wlan0.IsUp())
	assert.Equal(t, "down", byName["wlan1"].OperState)
	assert.True(t, byName["wlan0"].Capabilities.SupportsMonitor)
	assert.Contains(t, byName["wlan0"].Capabilities.SupportedBands, domain.Band5GHz)
}

func TestListInterfaces_FallsBackToSysfs(t *testing.T) {
	sys := fakeSysfs(t, map[string]map[string]string{
		"wlp2s0": {"operstate": "dormant", "address": "aa:bb:cc:00:11:22", "wireless": ""},
		"eth0":   {"operstate": "up"},
	})
	d := NewDiscovery(Config{
		IwPath:       "/nonexistent/wifiradar/iw",
		IwconfigPath: "/nonexistent/wifiradar/iwconfig",
		SysClassNet:  sys,
	}, nil)

	ifaces, err := d.ListInterfaces(context.Background())
	require.NoError(t, err)
	require.Len(t, ifaces, 1)
	assert.Equal(t, "wlp2s0", ifaces[0].Name)
	assert.Equal(t, SourceSysfs, ifaces[0].Source)
	assert.Equal(t, "AA:BB:CC:00:11:22", ifaces[0].MAC)
	assert.True(t, ifaces[0].IsUp())
}

func TestListInterfaces_Cancelled(t *testing.T) {
	d := NewDiscovery(Config{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.ListInterfaces(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
