package scanner

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

// Discovery sources, reported in InterfaceInfo.Source.
const (
	SourceIw       = "iw"
	SourceIwconfig = "iwconfig"
	SourceSysfs    = "sysfs"
)

// probeTimeout bounds each discovery command.
const probeTimeout = 5 * time.Second

var (
	// Example: * 2412 MHz [1] (20.0 dBm)
	// Example: * 5180.0 MHz [36] (disabled)
	reFrequency = regexp.MustCompile(`^\*\s+([0-9]+)(?:\.[0-9]+)?\s+MHz\s+\[([0-9]+)\]`)
	reMode      = regexp.MustCompile(`Mode:(\S+)`)
)

// Discovery enumerates wireless interfaces. It implements ports.InterfaceLister.
type Discovery struct {
	cfg    Config
	logger *slog.Logger
}

// NewDiscovery creates an interface discovery probe.
func NewDiscovery(cfg Config, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{cfg: cfg.withDefaults(), logger: logger}
}

// ListInterfaces returns the wireless interfaces found by the first probe that
// reports any: iw dev, then iwconfig, then sysfs. Each result is enriched with
// link state, hardware address and phy capabilities where available.
func (d *Discovery) ListInterfaces(ctx context.Context) ([]domain.InterfaceInfo, error) {
	probes := []struct {
		source string
		list   func(context.Context) ([]domain.InterfaceInfo, error)
	}{
		{SourceIw, d.fromIw},
		{SourceIwconfig, d.fromIwconfig},
		{SourceSysfs, d.fromSysfs},
	}

	var found []domain.InterfaceInfo
	for _, p := range probes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ifaces, err := p.list(ctx)
		if err != nil {
			d.logger.Debug("Interface probe failed", "source", p.source, "error", err)
			continue
		}
		if len(ifaces) > 0 {
			found = ifaces
			break
		}
	}

	for i := range found {
		d.enrich(ctx, &found[i])
	}
	return found, nil
}

func (d *Discovery) fromIw(ctx context.Context) ([]domain.InterfaceInfo, error) {
	out, _, err := runCommand(ctx, probeTimeout, d.cfg.IwPath, "dev")
	if err != nil {
		return nil, err
	}
	return ParseIwDev(out), nil
}

func (d *Discovery) fromIwconfig(ctx context.Context) ([]domain.InterfaceInfo, error) {
	// iwconfig exits non-zero when some interfaces lack wireless extensions
	out, _, err := runCommand(ctx, probeTimeout, d.cfg.IwconfigPath)
	if out == "" && err != nil {
		return nil, err
	}
	return ParseIwconfig(out), nil
}

func (d *Discovery) fromSysfs(context.Context) ([]domain.InterfaceInfo, error) {
	entries, err := os.ReadDir(d.cfg.SysClassNet)
	if err != nil {
		return nil, err
	}
	var ifaces []domain.InterfaceInfo
	for _, e := range entries {
		name := e.Name()
		if _, err := os.Stat(filepath.Join(d.cfg.SysClassNet, name, "wireless")); err != nil {
			continue
		}
		info, err := domain.NewInterfaceInfo(name, "")
		if err != nil {
			continue
		}
		info.Source = SourceSysfs
		ifaces = append(ifaces, *info)
	}
	return ifaces, nil
}

func (d *Discovery) enrich(ctx context.Context, info *domain.InterfaceInfo) {
	base := filepath.Join(d.cfg.SysClassNet, info.Name)

	if state, ok := readSysfs(filepath.Join(base, "operstate")); ok {
		info.OperState = state
	}
	if info.MAC == "" {
		if mac, ok := readSysfs(filepath.Join(base, "address")); ok && domain.IsValidMAC(mac) {
			info.MAC = domain.NormalizeMAC(mac)
		}
	}
	if info.Phy == "" {
		if phy, ok := readSysfs(filepath.Join(base, "phy80211", "name")); ok {
			info.Phy = phy
		}
	}
	if info.Phy == "" {
		return
	}

	out, _, err := runCommand(ctx, probeTimeout, d.cfg.IwPath, "phy", info.Phy, "info")
	if err != nil {
		d.logger.Debug("Phy capability probe failed", "interface", info.Name, "phy", info.Phy, "error", err)
		return
	}
	info.Capabilities = ParsePhyInfo(out)
}

func readSysfs(path string) (string, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Debug("Failed to read sysfs attribute", "path", path, "error", err)
		}
		return "", false
	}
	v := strings.TrimSpace(string(b))
	return v, v != ""
}

// ParseIwDev extracts interfaces from `iw dev` output:
//
//	phy#0
//		Interface wlan0
//			addr 00:11:22:33:44:55
//			type managed
func ParseIwDev(out string) []domain.InterfaceInfo {
	var (
		ifaces     []domain.InterfaceInfo
		currentPhy string
		current    *domain.InterfaceInfo
	)
	flush := func() {
		if current != nil {
			ifaces = append(ifaces, *current)
			current = nil
		}
	}

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		key, value, _ := strings.Cut(line, " ")
		switch {
		case strings.HasPrefix(line, "phy#"):
			flush()
			// "phy#0" is addressed as "phy0" by `iw phy`
			currentPhy = strings.Replace(line, "#", "", 1)
		case key == "Interface":
			flush()
			info, err := domain.NewInterfaceInfo(strings.TrimSpace(value), "")
			if err != nil {
				continue
			}
			info.Phy = currentPhy
			info.Source = SourceIw
			current = info
		case current == nil:
		case key == "addr" && domain.IsValidMAC(value):
			current.MAC = domain.NormalizeMAC(value)
		case key == "type":
			current.Mode = strings.TrimSpace(value)
		}
	}
	flush()
	return ifaces
}

// ParseIwconfig extracts wireless interfaces from `iwconfig` output. Only
// interfaces reporting "IEEE 802.11" are returned.
func ParseIwconfig(out string) []domain.InterfaceInfo {
	var (
		ifaces  []domain.InterfaceInfo
		current *domain.InterfaceInfo
	)
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		raw := sc.Text()
		if raw == "" {
			continue
		}
		// Interface headers start in column zero; details are indented.
		if raw[0] != ' ' && raw[0] != '\t' {
			current = nil
			fields := strings.Fields(raw)
			if len(fields) == 0 || !strings.Contains(raw, "IEEE 802.11") {
				continue
			}
			info, err := domain.NewInterfaceInfo(fields[0], "")
			if err != nil {
				continue
			}
			info.Source = SourceIwconfig
			ifaces = append(ifaces, *info)
			current = &ifaces[len(ifaces)-1]
		}
		if current != nil {
			if m := reMode.FindStringSubmatch(raw); m != nil {
				current.Mode = strings.ToLower(m[1])
			}
		}
	}
	return ifaces
}

// ParsePhyInfo reads the enabled channels and interface modes from
// `iw phy <phy> info` output.
func ParsePhyInfo(out string) domain.InterfaceCapabilities {
	var (
		caps    domain.InterfaceCapabilities
		section string
	)
	bands := map[domain.WiFiBand]bool{}

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "*") {
			// Lists are introduced by a header ending with ':'
			section = ""
			switch line {
			case "Frequencies:":
				section = "freq"
			case "Supported interface modes:":
				section = "modes"
			}
			continue
		}

		switch section {
		case "freq":
			if strings.Contains(line, "(disabled)") {
				continue
			}
			m := reFrequency.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			freq, _ := strconv.Atoi(m[1])
			ch, _ := strconv.Atoi(m[2])
			if band, ok := domain.BandForFrequency(freq); ok {
				bands[band] = true
			}
			caps.Channels = append(caps.Channels, ch)
		case "modes":
			if strings.TrimSpace(strings.TrimPrefix(line, "*")) == "monitor" {
				caps.SupportsMonitor = true
			}
		}
	}

	for _, b := range []domain.WiFiBand{domain.Band24GHz, domain.Band5GHz, domain.Band6GHz} {
		if bands[b] {
			caps.SupportedBands = append(caps.SupportedBands, b)
		}
	}
	caps.Channels = slices.Compact(caps.Channels)
	return caps
}
