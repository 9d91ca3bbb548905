package analysis

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
)

const (
	lightSpeed = 299792458.0 // m/s

	// Blend weights. Log-normal dominates as the most realistic indoor model.
	weightFSPL      = 0.3
	weightLogNormal = 0.5
	weightITU       = 0.2

	formulaFallbackM = 50.0
	formulaFloorM    = 0.1
	minDistanceM     = 0.5
	maxDistanceM     = 2000.0

	ituFloorLossDB = 15.0 // single floor penetration

	referenceSignalDBm = -30.0 // last-resort rule: -30 dBm at 1 m, 6 dB doubles
)

// DistanceEstimator blends three path-loss models into one distance estimate.
type DistanceEstimator struct {
	noise ports.NoiseSource
}

// NewDistanceEstimator creates an estimator. noise may be nil, which keeps
// estimates deterministic.
func NewDistanceEstimator(noise ports.NoiseSource) *DistanceEstimator {
	return &DistanceEstimator{noise: noise}
}

// Estimate returns the corrected distance in meters, clamped to [0.5, 2000] and
// rounded to one decimal. A failing formula falls back to 50 m on its own.
func (e *DistanceEstimator) Estimate(t *domain.Tables, signalDBm float64, freqMHz int) float64 {
	tx := EstimateTxPower(freqMHz)

	fspl := fsplDistance(signalDBm, freqMHz, tx)
	logNormal := logNormalDistance(signalDBm, freqMHz, tx, t.Propagation)
	itu := ituIndoorDistance(signalDBm, freqMHz, tx)

	combined := weightFSPL*fspl + weightLogNormal*logNormal + weightITU*itu
	if !finitePositive(combined) {
		return clampDistance(lastResortDistance(signalDBm))
	}

	corrected := applyCorrections(t, combined, signalDBm, freqMHz)
	if e.noise != nil {
		corrected *= e.noise.Factor()
	}
	if !finitePositive(corrected) {
		return clampDistance(lastResortDistance(signalDBm))
	}
	return clampDistance(corrected)
}

// EstimateTxPower guesses the transmit power from the band.
func EstimateTxPower(freqMHz int) float64 {
	switch {
	case freqMHz >= 2400 && freqMHz <= 2500:
		return 20.0
	case freqMHz >= 5000 && freqMHz <= 6000:
		return 23.0
	default:
		return 20.0
	}
}

// fsplDistance solves PL = 20log10(d) + 20log10(f) + 20log10(4π/c) for d.
func fsplDistance(signalDBm float64, freqMHz int, txDBm float64) float64 {
	if freqMHz <= 0 {
		return formulaFallbackM
	}
	pathLoss := txDBm - signalDBm
	constant := 20 * math.Log10(4*math.Pi/lightSpeed)
	freqLoss := 20 * math.Log10(float64(freqMHz)*1e6)
	return guardFormula(math.Pow(10, (pathLoss-freqLoss-constant)/20))
}

// logNormalDistance solves PL(d) = PL(d0) + 10·n·log10(d/d0) for d.
func logNormalDistance(signalDBm float64, freqMHz int, txDBm float64, p domain.Propagation) float64 {
	if p.PathLossExponent == 0 || p.ReferenceDistance <= 0 {
		return formulaFallbackM
	}
	pathLoss := txDBm - signalDBm
	refLoss := p.ReferenceLoss
	if float64(freqMHz)/1000.0 > 5.0 {
		refLoss += 5
	}
	return guardFormula(p.ReferenceDistance * math.Pow(10, (pathLoss-refLoss)/(10*p.PathLossExponent)))
}

// ituIndoorDistance solves the ITU-R P.1238 indoor model
// L = 20log10(f) + N·log10(d) + Lf - 28 for d.
func ituIndoorDistance(signalDBm float64, freqMHz int, txDBm float64) float64 {
	if freqMHz <= 0 {
		return formulaFallbackM
	}
	pathLoss := txDBm - signalDBm
	n := 28.0
	if float64(freqMHz)/1000.0 >= 5.0 {
		n = 30.0
	}
	freqTerm := 20 * math.Log10(float64(freqMHz))
	return guardFormula(math.Pow(10, (pathLoss-freqTerm-ituFloorLossDB+28)/n))
}

// applyCorrections runs the signal range, frequency band and environment
// multipliers in that order.
func applyCorrections(t *domain.Tables, distance, signalDBm float64, freqMHz int) float64 {
	if r, ok := t.SignalRangeFor(signalDBm); ok {
		distance *= r.Multiplier
	}
	if fc, ok := t.FrequencyCorrectionFor(freqMHz); ok {
		distance *= fc.Multiplier
	}
	switch {
	case signalDBm < -80:
		distance *= 1.5
	case signalDBm > -40:
		distance *= 0.8
	}
	return distance
}

// lastResortDistance applies "every 6 dB doubles distance" from -30 dBm at 1 m.
func lastResortDistance(signalDBm float64) float64 {
	if math.IsNaN(signalDBm) {
		return formulaFallbackM
	}
	if signalDBm >= referenceSignalDBm {
		return 1.0
	}
	return math.Pow(2, (referenceSignalDBm-signalDBm)/6.0)
}

func guardFormula(d float64) float64 {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return formulaFallbackM
	}
	return math.Max(formulaFloorM, d)
}

func clampDistance(d float64) float64 {
	if math.IsNaN(d) {
		d = formulaFallbackM
	}
	d = math.Max(minDistanceM, math.Min(maxDistanceM, d))
	return math.Round(d*10) / 10
}

func finitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// SignalQuality describes a signal strength in words.
func SignalQuality(signalDBm float64) string {
	switch {
	case signalDBm >= -30:
		return "Excellent"
	case signalDBm >= -50:
		return "Very Good"
	case signalDBm >= -60:
		return "Good"
	case signalDBm >= -70:
		return "Fair"
	case signalDBm >= -80:
		return "Poor"
	default:
		return "Very Poor"
	}
}

// MaxRange estimates the distance at which the signal fades to -100 dBm.
func (e *DistanceEstimator) MaxRange(t *domain.Tables, freqMHz int) float64 {
	return e.Estimate(t, -100, freqMHz)
}

// CalculationInfo explains the inputs of a distance estimate.
type CalculationInfo struct {
	SignalDBm     float64 `json:"signal_dbm"`
	FrequencyMHz  int     `json:"frequency_mhz"`
	TxPowerDBm    float64 `json:"estimated_tx_power_dbm"`
	PathLossDB    float64 `json:"path_loss_db"`
	SignalQuality string  `json:"signal_quality"`
	Band          string  `json:"frequency_band"`
	DistanceM     float64 `json:"distance_m"`
}

// Explain returns the intermediate values behind Estimate.
func (e *DistanceEstimator) Explain(t *domain.Tables, signalDBm float64, freqMHz int) CalculationInfo {
	tx := EstimateTxPower(freqMHz)
	band := "Other"
	if b, ok := domain.BandForFrequency(freqMHz); ok {
		band = string(b)
	}
	return CalculationInfo{
		SignalDBm:     signalDBm,
		FrequencyMHz:  freqMHz,
		TxPowerDBm:    tx,
		PathLossDB:    tx - signalDBm,
		SignalQuality: SignalQuality(signalDBm),
		Band:          band,
		DistanceM:     e.Estimate(t, signalDBm, freqMHz),
	}
}

// UniformNoise multiplies estimates by a factor drawn from [1-spread, 1+spread].
// It simulates the jitter some displays expect; it is never enabled by default.
type UniformNoise struct {
	mu     sync.Mutex
	rng    *rand.Rand
	spread float64
}

// NewUniformNoise creates a seeded noise source.
func NewUniformNoise(spread float64, seed uint64) *UniformNoise {
	return &UniformNoise{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		spread: spread,
	}
}

// Factor returns the next jitter multiplier.
func (n *UniformNoise) Factor() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return 1 + (n.rng.Float64()*2-1)*n.spread
}
