package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestParse_ScanDialect(t *testing.T) {
	blocks, err := Parse(readFixture(t, "iw_scan.txt"), domain.DialectScan)
	require.NoError(t, err)
	require.Len(t, blocks, 4)

	first := blocks[0]
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", first.BSSID)
	assert.True(t, first.HasSSID)
	assert.Equal(t, "TestNet", first.SSID)
	assert.Equal(t, "-45.00", first.Signal)
	assert.Equal(t, "2437", first.Frequency)
	assert.False(t, first.FrequencyGHz)
	require.Len(t, first.SecurityLines, 3)
	assert.Contains(t, first.SecurityLines[0], "Privacy")
	assert.Contains(t, first.SecurityLines[1], "RSN")
	assert.Contains(t, first.SecurityLines[2], "WPA")

	open := blocks[1]
	assert.Equal(t, "00:13:c4:01:02:03", open.BSSID)
	assert.True(t, open.HasSSID)
	assert.Empty(t, open.SSID)
	assert.Empty(t, open.SecurityLines)

	assert.Equal(t, "5180.0", blocks[2].Frequency)
	assert.Contains(t, blocks[2].SecurityLines, "* Authentication suites: SAE")

	partial := blocks[3]
	assert.Empty(t, partial.Signal)
	assert.Empty(t, partial.Frequency)
}

func TestParse_ListDialect(t *testing.T) {
	blocks, err := Parse(readFixture(t, "iwlist_scan.txt"), domain.DialectList)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	first := blocks[0]
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", first.BSSID)
	assert.Equal(t, "TestNet", first.SSID)
	assert.Equal(t, "-45", first.Signal)
	assert.Equal(t, "2.437", first.Frequency)
	assert.True(t, first.FrequencyGHz)
	assert.Equal(t, []string{
		"Encryption key:on",
		"IE: IEEE 802.11i/WPA2 Version 1",
		"Authentication Suites (1) : PSK",
	}, first.SecurityLines)

	assert.True(t, blocks[1].HasSSID)
	assert.Empty(t, blocks[1].SSID)
	assert.Equal(t, []string{"Encryption key:off"}, blocks[1].SecurityLines)

	assert.Equal(t, "linksys", blocks[2].SSID)
}

func TestParse_DialectsAreNotMerged(t *testing.T) {
	blocks, err := Parse(readFixture(t, "iwlist_scan.txt"), domain.DialectScan)
	require.NoError(t, err)
	assert.Empty(t, blocks, "list output has no BSS markers")

	blocks, err = Parse(readFixture(t, "iw_scan.txt"), domain.DialectList)
	require.NoError(t, err)
	assert.Empty(t, blocks, "scan output has no Cell markers")
}

func TestParse_DropsBlocksWithoutBSSID(t *testing.T) {
	raw := "BSS (on wlan0)\n" +
		"\tfreq: 2412\n" +
		"\tsignal: -40.00 dBm\n" +
		"\tSSID: Ghost\n" +
		"BSS 02:00:00:00:00:01(on wlan0)\n" +
		"\tfreq: 2462\n" +
		"\tsignal: -60.00 dBm\n" +
		"\tSSID: Real\n"

	blocks, err := Parse(raw, domain.DialectScan)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Real", blocks[0].SSID)
}

func TestParse_PreservesOrder(t *testing.T) {
	raw := "BSS 02:00:00:00:00:03(on wlan0)\n\tSSID: c\n" +
		"BSS 02:00:00:00:00:01(on wlan0)\n\tSSID: a\n" +
		"BSS 02:00:00:00:00:02(on wlan0)\n\tSSID: b\n"

	blocks, err := Parse(raw, domain.DialectScan)
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, "c", blocks[0].SSID)
	assert.Equal(t, "a", blocks[1].SSID)
	assert.Equal(t, "b", blocks[2].SSID)
}

func TestParse_UnknownDialect(t *testing.T) {
	_, err := Parse("BSS 02:00:00:00:00:01", domain.Dialect("nmcli"))
	assert.ErrorIs(t, err, domain.ErrUnknownDialect)
}

func TestParse_EmptyInput(t *testing.T) {
	blocks, err := Parse("", domain.DialectScan)
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestParse_SSIDContainingTokenIsNotSecurity(t *testing.T) {
	raw := "BSS 02:00:00:00:00:01(on wlan0)\n\tSSID: MyWPA RSN Lounge\n\tsignal: -50.00 dBm\n"

	blocks, err := Parse(raw, domain.DialectScan)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Empty(t, blocks[0].SecurityLines)
}

func TestParse_OverlongLineKeepsLaterBlocks(t *testing.T) {
	dump := "\tVendor specific: OUI 00:50:f2, data: " + strings.Repeat("dd ", 400_000) + "\n"
	raw := "BSS aa:bb:cc:dd:ee:01(on wlan0)\n\tSSID: first\n\tsignal: -40.00 dBm\n" +
		dump +
		"BSS aa:bb:cc:dd:ee:02(on wlan0)\n\tSSID: second\n\tsignal: -55.00 dBm\n"

	blocks, err := Parse(raw, domain.DialectScan)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "aa:bb:cc:dd:ee:01", blocks[0].BSSID)
	assert.Equal(t, "aa:bb:cc:dd:ee:02", blocks[1].BSSID)
	assert.Equal(t, "second", blocks[1].SSID)
	assert.Equal(t, "-55.00", blocks[1].Signal)
}

func TestParse_RejectsMalformedMarkerAddress(t *testing.T) {
	tests := []struct {
		name    string
		dialect domain.Dialect
		raw     string
		want    []string
	}{
		{
			name:    "scan seven octets",
			dialect: domain.DialectScan,
			raw:     "BSS 00:11:22:33:44:55:66(on wlan0)\n\tSSID: bad\nBSS 02:00:00:00:00:01(on wlan0)\n\tSSID: good\n",
			want:    []string{"02:00:00:00:00:01"},
		},
		{
			name:    "scan octet glued to extra hex",
			dialect: domain.DialectScan,
			raw:     "BSS 00:11:22:33:44:556(on wlan0)\n\tSSID: bad\n",
			want:    nil,
		},
		{
			name:    "scan standard marker",
			dialect: domain.DialectScan,
			raw:     "BSS 00:11:22:33:44:55(on wlan0) -- associated\n\tSSID: ok\n",
			want:    []string{"00:11:22:33:44:55"},
		},
		{
			name:    "list seven octets",
			dialect: domain.DialectList,
			raw:     "          Cell 01 - Address: 00:11:22:33:44:55:66\n                    ESSID:\"bad\"\n",
			want:    nil,
		},
		{
			name:    "list standard marker",
			dialect: domain.DialectList,
			raw:     "          Cell 01 - Address: 00:11:22:33:44:55\n                    ESSID:\"ok\"\n",
			want:    []string{"00:11:22:33:44:55"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, err := Parse(tt.raw, tt.dialect)
			require.NoError(t, err)
			var got []string
			for _, b := range blocks {
				got = append(got, b.BSSID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
