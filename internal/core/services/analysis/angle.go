package analysis

import (
	"hash/fnv"
	"math"
)

// channelAngleStep spreads networks on different channels around the radar.
const channelAngleStep = 13.7

// Angle returns a stable display angle in [0, 360) for a BSSID.
// It is a layout hint only and carries no bearing information.
func Angle(bssid string, channel *int) float64 {
	if bssid == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(bssid))
	angle := float64(h.Sum32() % 360)
	if channel != nil {
		angle += float64(*channel) * channelAngleStep
	}
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	angle = math.Round(angle*10) / 10
	if angle >= 360 {
		return 0
	}
	return angle
}
