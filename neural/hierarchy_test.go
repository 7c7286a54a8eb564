package neural

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func testConfig() Config {
	return Config{
		N1: 7, N2: 32, N3: 1,
		EtaRep:            0.02,
		EtaW:              0.001,
		Momentum:          0.9,
		WeightDecay:       0.001,
		MaxWeightValue:    5,
		MaxPrecisionValue: 1000,
		MaxErrorValue:     10,
		InitialPi1:        0.01,
		InitialPi2:        1.0,
	}
}

func newTestHierarchy(t *testing.T, cfg Config, seed int64) *Hierarchy {
	t.Helper()
	h, err := NewHierarchy(cfg, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return h
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func TestXavierInit(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ws := NewWeightSet(rng, 64, 128, 32)

	tests := []struct {
		name string
		data []float32
		want float64
	}{
		{"W32", ws.W32.Data, math.Sqrt(2.0 / (128 + 32))},
		{"W21", ws.W21.Data, math.Sqrt(2.0 / (64 + 128))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stat.StdDev(toFloat64(tt.data), nil)
			assert.InDelta(t, tt.want, got, 0.1)
		})
	}

	for i := 0; i < ws.W21.Rows; i++ {
		for j := 0; j < ws.W21.Cols; j++ {
			require.Equal(t, ws.W21.Data[i*ws.W21.Stride+j], ws.W21T.Data[j*ws.W21T.Stride+i])
		}
	}
}

func TestComputeErrorsClipping(t *testing.T) {
	tests := []struct {
		name string
		obs  float32
		want float32
	}{
		{"large positive", 100, 10},
		{"large negative", -100, -10},
		{"positive infinity", float32(math.Inf(1)), 10},
		{"negative infinity", float32(math.Inf(-1)), -10},
		{"nan", float32(math.NaN()), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHierarchy(t, testConfig(), 1)
			obs := make([]float32, 7)
			for i := range obs {
				obs[i] = tt.obs
			}
			h.Predict()
			h.ComputeErrors(obs)
			for i, e := range h.State.E1 {
				assert.Equal(t, tt.want, e, "E1[%d]", i)
			}
			for i, e := range h.State.E2 {
				assert.False(t, math.IsNaN(float64(e)), "E2[%d]", i)
				assert.LessOrEqual(t, math.Abs(float64(e)), 10.0)
			}
		})
	}
}

func TestComputeErrorsLengthMismatchPanics(t *testing.T) {
	h := newTestHierarchy(t, testConfig(), 1)
	assert.Panics(t, func() { h.ComputeErrors(make([]float32, 3)) })
}

func TestRepresentationClipping(t *testing.T) {
	cfg := testConfig()
	cfg.EtaRep = 0.5
	cfg.MaxWeightValue = 1
	h := newTestHierarchy(t, cfg, 2)

	pi1 := make([]float32, cfg.N1)
	pi2 := make([]float32, cfg.N2)
	for i := range pi1 {
		pi1[i] = 100
	}
	for i := range pi2 {
		pi2[i] = 100
	}
	h.SetPrecision(pi1, pi2)

	obs := []float32{10, -10, 10, -10, 10, -10, 10}
	for range 20 {
		h.Step(obs)
		for _, layer := range [][]float32{h.State.R1, h.State.R2, h.State.R3} {
			for _, r := range layer {
				require.LessOrEqual(t, math.Abs(float64(r)), RepresentationLimit)
			}
		}
		for _, e := range append(append([]float32(nil), h.State.E1...), h.State.E2...) {
			require.LessOrEqual(t, math.Abs(float64(e)), float64(cfg.MaxErrorValue))
		}
		for _, w := range append(append([]float32(nil), h.Weights.W21.Data...), h.Weights.W32.Data...) {
			require.LessOrEqual(t, math.Abs(float64(w)), float64(cfg.MaxWeightValue))
		}
	}
}

func TestFreezeStopsLearning(t *testing.T) {
	h := newTestHierarchy(t, testConfig(), 3)
	obs := []float32{1, 2, 3, -1, -2, -3, 1}
	h.Step(obs) // non-zero state and momentum

	w21 := append([]float32(nil), h.Weights.W21.Data...)
	w32 := append([]float32(nil), h.Weights.W32.Data...)
	r1 := append([]float32(nil), h.State.R1...)
	r2 := append([]float32(nil), h.State.R2...)

	h.Freeze()
	require.True(t, h.Frozen())
	for range 10 {
		h.Step(obs)
		h.UpdateRepresentations()
		h.UpdateWeights()
	}
	assert.Equal(t, w21, h.Weights.W21.Data)
	assert.Equal(t, w32, h.Weights.W32.Data)
	assert.Equal(t, r1, h.State.R1)
	assert.Equal(t, r2, h.State.R2)

	// Errors are still computed while frozen.
	assert.InDelta(t, float64(obs[0]-h.State.Pred1[0]), float64(h.State.E1[0]), 1e-6)

	h.Unfreeze()
	h.Step(obs)
	assert.NotEqual(t, w21, h.Weights.W21.Data)
}

// ΣR² is zero at construction and can only grow from there, so descent is
// measured from a displaced belief state: beliefs relax under the top-down
// pull while the sensory drive stays weak.
func TestFreeEnergyDescent(t *testing.T) {
	obs := []float32{1, 2, 3, -1, -2, -3, 1}
	for seed := int64(0); seed < 20; seed++ {
		h := newTestHierarchy(t, testConfig(), seed)
		rng := rand.New(rand.NewSource(seed + 1000))
		for _, layer := range [][]float32{h.State.R1, h.State.R2, h.State.R3} {
			for i := range layer {
				layer[i] = float32(rng.NormFloat64())
			}
		}

		fe := make([]float64, 100)
		for i := range fe {
			h.Step(obs)
			fe[i] = h.FreeEnergy()
		}

		early := stat.Mean(fe[:10], nil)
		late := stat.Mean(fe[90:], nil)
		assert.Less(t, late, 0.8*early, "seed %d: early %.3f late %.3f", seed, early, late)

		ma := make([]float64, len(fe)-9)
		for i := range ma {
			ma[i] = stat.Mean(fe[i:i+10], nil)
		}
		increases := 0
		for i := 1; i < len(ma); i++ {
			if ma[i] > ma[i-1] {
				increases++
			}
		}
		assert.LessOrEqual(t, float64(increases)/float64(len(ma)-1), 0.3, "seed %d", seed)
	}
}

func TestFreeEnergyGrowsFromRest(t *testing.T) {
	h := newTestHierarchy(t, testConfig(), 3)
	obs := []float32{1, 2, 3, -1, -2, -3, 1}
	require.Zero(t, h.FreeEnergy())
	for i := 0; i < 100; i++ {
		h.Step(obs)
	}
	assert.Greater(t, h.FreeEnergy(), 0.0)
}

func TestTopDownPullTowardPrediction(t *testing.T) {
	h := newTestHierarchy(t, testConfig(), 5)
	// Zero W21 and R3 so E1 = 0 and Pred2 = 0, leaving only the E2 term.
	for i := range h.Weights.W21.Data {
		h.Weights.W21.Data[i] = 0
	}
	h.Weights.refreshTransposes()
	h.State.R2[0] = 1

	h.Predict()
	h.ComputeErrors(make([]float32, len(h.State.R1)))
	require.InDelta(t, 1, float64(h.State.E2[0]), 1e-6)
	h.UpdateRepresentations()

	want := 1 - h.cfg.EtaRep*h.pi2[0]
	assert.InDelta(t, float64(want), float64(h.State.R2[0]), 1e-6)
	assert.Less(t, h.State.R2[0], float32(1))
}

func TestFreeEnergyIsSquaredNorm(t *testing.T) {
	h := newTestHierarchy(t, testConfig(), 4)
	h.State.R1[0] = 2
	h.State.R2[3] = -3
	h.State.R3[0] = 1
	assert.InDelta(t, 14.0, h.FreeEnergy(), 1e-9)
}

func TestPredictionErrorEnergy(t *testing.T) {
	h := newTestHierarchy(t, testConfig(), 5)
	h.State.E1[0] = 2 // π1 = 0.01
	h.State.E2[0] = 3 // π2 = 1
	assert.InDelta(t, 0.5*(0.01*4+9), h.PredictionErrorEnergy(), 1e-6)
}

func TestSetPrecisionClamps(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPrecisionValue = 50
	h := newTestHierarchy(t, cfg, 6)

	pi1 := make([]float32, cfg.N1)
	pi2 := make([]float32, cfg.N2)
	pi1[0] = 500
	pi1[1] = -1
	pi1[2] = float32(math.NaN())
	pi2[0] = 3
	h.SetPrecision(pi1, pi2)

	got1, got2 := h.Precision()
	assert.Equal(t, float32(50), got1[0])
	assert.Equal(t, float32(minPrecision), got1[1])
	assert.Equal(t, float32(minPrecision), got1[2])
	assert.Equal(t, float32(3), got2[0])

	got1[0] = 7 // copies, not views
	again, _ := h.Precision()
	assert.Equal(t, float32(50), again[0])
}

func TestResetStateKeepsWeights(t *testing.T) {
	h := newTestHierarchy(t, testConfig(), 8)
	obs := []float32{1, 2, 3, -1, -2, -3, 1}
	for range 5 {
		h.Step(obs)
	}
	w := append([]float32(nil), h.Weights.W21.Data...)
	h.ResetState()
	assert.Zero(t, h.FreeEnergy())
	assert.Equal(t, w, h.Weights.W21.Data)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero n2", func(c *Config) { c.N2 = 0 }, "n2"},
		{"zero eta_rep", func(c *Config) { c.EtaRep = 0 }, "eta_rep"},
		{"momentum one", func(c *Config) { c.Momentum = 1 }, "momentum"},
		{"decay of one", func(c *Config) { c.WeightDecay = 1 }, "weight_decay"},
		{"negative decay", func(c *Config) { c.WeightDecay = -0.1 }, "weight_decay"},
		{"infinite weight ceiling", func(c *Config) { c.MaxWeightValue = float32(math.Inf(1)) }, "max_weight_value"},
		{"pi above ceiling", func(c *Config) { c.InitialPi2 = 2000 }, "initial_pi2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	require.NoError(t, testConfig().Validate())
	_, err := NewHierarchy(Config{}, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}
