package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

type constNoise float64

func (c constNoise) Factor() float64 { return float64(c) }

func TestEstimate_ScenarioTestNet(t *testing.T) {
	tables := domain.DefaultTables()
	d := NewDistanceEstimator(nil).Estimate(tables, -45, 2437)

	assert.GreaterOrEqual(t, d, 5.0)
	assert.LessOrEqual(t, d, 40.0)
	assert.Equal(t, math.Round(d*10)/10, d, "rounded to one decimal")
}

func TestEstimate_MonotonicInSignal(t *testing.T) {
	tables := domain.DefaultTables()
	est := NewDistanceEstimator(nil)

	for _, freq := range []int{0, 2412, 2437, 2484, 5180, 5825, 6000} {
		prev := math.Inf(1)
		for s := -100.0; s <= 0; s += 0.5 {
			d := est.Estimate(tables, s, freq)
			require.LessOrEqual(t, d, prev, "freq %d: distance grew at signal %.1f", freq, s)
			prev = d
		}
	}
}

func TestEstimate_AlwaysClamped(t *testing.T) {
	tables := domain.DefaultTables()
	est := NewDistanceEstimator(nil)

	signals := []float64{-200, -120, -100, -80.5, -40, -10, 0, 15, 60, math.Inf(-1), math.Inf(1), math.NaN()}
	freqs := []int{-5, 0, 1, 900, 2412, 5180, 60000}
	for _, s := range signals {
		for _, f := range freqs {
			d := est.Estimate(tables, s, f)
			assert.GreaterOrEqual(t, d, minDistanceM, "signal %v freq %d", s, f)
			assert.LessOrEqual(t, d, maxDistanceM, "signal %v freq %d", s, f)
		}
	}
}

func TestEstimate_BadFormulaFallsBackPerFormula(t *testing.T) {
	// Unknown frequency breaks FSPL and ITU only; log-normal still contributes.
	tables := domain.DefaultTables()
	assert.Equal(t, formulaFallbackM, fsplDistance(-50, 0, 20))
	assert.Equal(t, formulaFallbackM, ituIndoorDistance(-50, 0, 20))
	assert.NotEqual(t, formulaFallbackM, logNormalDistance(-50, 0, 20, tables.Propagation))

	tables.Propagation.PathLossExponent = 0
	assert.Equal(t, formulaFallbackM, logNormalDistance(-50, 2437, 20, tables.Propagation))

	d := NewDistanceEstimator(nil).Estimate(tables, -50, 2437)
	assert.True(t, d >= minDistanceM && d <= maxDistanceM)
}

func TestLastResortDistance(t *testing.T) {
	assert.Equal(t, 1.0, lastResortDistance(-30))
	assert.Equal(t, 1.0, lastResortDistance(-10))
	assert.InDelta(t, 2.0, lastResortDistance(-36), 1e-9)
	assert.InDelta(t, 4.0, lastResortDistance(-42), 1e-9)
	assert.Equal(t, formulaFallbackM, lastResortDistance(math.NaN()))
}

func TestEstimate_NoiseIsInjectable(t *testing.T) {
	tables := domain.DefaultTables()
	base := NewDistanceEstimator(nil).Estimate(tables, -65, 2437)

	doubled := NewDistanceEstimator(constNoise(2)).Estimate(tables, -65, 2437)
	assert.InDelta(t, base*2, doubled, 0.2)

	same := NewDistanceEstimator(nil).Estimate(tables, -65, 2437)
	assert.Equal(t, base, same, "default estimator is deterministic")
}

func TestUniformNoise_Bounds(t *testing.T) {
	n := NewUniformNoise(0.2, 42)
	for i := 0; i < 1000; i++ {
		f := n.Factor()
		assert.GreaterOrEqual(t, f, 0.8)
		assert.LessOrEqual(t, f, 1.2)
	}
}

func TestEstimateTxPower(t *testing.T) {
	assert.Equal(t, 20.0, EstimateTxPower(2437))
	assert.Equal(t, 23.0, EstimateTxPower(5180))
	assert.Equal(t, 20.0, EstimateTxPower(0))
}

func TestSignalQuality(t *testing.T) {
	tests := map[float64]string{
		-20:  "Excellent",
		-30:  "Excellent",
		-45:  "Very Good",
		-55:  "Good",
		-65:  "Fair",
		-75:  "Poor",
		-95:  "Very Poor",
		-100: "Very Poor",
	}
	for signal, want := range tests {
		assert.Equal(t, want, SignalQuality(signal), "signal %v", signal)
	}
}

func TestExplain(t *testing.T) {
	tables := domain.DefaultTables()
	est := NewDistanceEstimator(nil)

	info := est.Explain(tables, -60, 5180)
	assert.Equal(t, 23.0, info.TxPowerDBm)
	assert.Equal(t, 83.0, info.PathLossDB)
	assert.Equal(t, "5GHz", info.Band)
	assert.Equal(t, "Good", info.SignalQuality)
	assert.Equal(t, est.Estimate(tables, -60, 5180), info.DistanceM)

	assert.Equal(t, "Other", est.Explain(tables, -60, 0).Band)
	assert.Equal(t, est.Estimate(tables, -100, 2437), est.MaxRange(tables, 2437))
}
