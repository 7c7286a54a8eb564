// Package neural implements the three-layer predictive-coding hierarchy
// that drives interception, plus its motor and planning variants.
package neural

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// minPrecision keeps precision strictly positive.
const minPrecision = 1e-6

// Policy customizes a hierarchy's step. Variants install one at construction.
type Policy interface {
	// BeforeStep runs before Predict with the observation about to be used.
	BeforeStep(h *Hierarchy, obs []float32)
	// AfterPredict runs after Predict and before errors are computed.
	AfterPredict(h *Hierarchy)
	// AfterWeightUpdate runs after every non-frozen weight update.
	AfterWeightUpdate(h *Hierarchy)
}

// Hierarchy is one predictive-coding stack: R3 predicts R2, R2 predicts R1.
type Hierarchy struct {
	cfg     Config
	State   LayerState
	Weights WeightSet

	pi1, pi2 []float32

	policy Policy
	frozen bool
	pinned bool // R1 was set from the observation this step

	// Scratch buffers reused every step.
	wE1, wE2 []float32 // precision-weighted errors
	up2, up3 []float32 // errors propagated through the transposes
}

// NewHierarchy validates cfg and returns a hierarchy with Xavier weights,
// zero beliefs and the configured initial precision.
func NewHierarchy(cfg Config, rng *rand.Rand) (*Hierarchy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newHierarchy(cfg, rng), nil
}

func newHierarchy(cfg Config, rng *rand.Rand) *Hierarchy {
	h := &Hierarchy{
		cfg:     cfg,
		State:   newLayerState(cfg.N1, cfg.N2, cfg.N3),
		Weights: NewWeightSet(rng, cfg.N1, cfg.N2, cfg.N3),
		pi1:     make([]float32, cfg.N1),
		pi2:     make([]float32, cfg.N2),
		wE1:     make([]float32, cfg.N1),
		wE2:     make([]float32, cfg.N2),
		up2:     make([]float32, cfg.N2),
		up3:     make([]float32, cfg.N3),
	}
	for i := range h.pi1 {
		h.pi1[i] = cfg.InitialPi1
	}
	for i := range h.pi2 {
		h.pi2[i] = cfg.InitialPi2
	}
	return h
}

// Config returns the configuration the hierarchy was built with.
func (h *Hierarchy) Config() Config { return h.cfg }

// Predict writes the top-down predictions Pred2 = W32·R3 and Pred1 = W21·R2.
func (h *Hierarchy) Predict() {
	s := &h.State
	blas32.Gemv(blas.NoTrans, 1, h.Weights.W32, vec(s.R3), 0, vec(s.Pred2))
	blas32.Gemv(blas.NoTrans, 1, h.Weights.W21, vec(s.R2), 0, vec(s.Pred1))
}

// ComputeErrors sets E1 = obs − Pred1 and E2 = R2 − Pred2, replacing NaN
// with zero and clipping to ±MaxErrorValue.
func (h *Hierarchy) ComputeErrors(obs []float32) {
	h.checkObservation(obs)
	s := &h.State
	limit := h.cfg.MaxErrorValue
	for i, o := range obs {
		s.E1[i] = clampFinite(o-s.Pred1[i], limit)
	}
	for i, r := range s.R2 {
		s.E2[i] = clampFinite(r-s.Pred2[i], limit)
	}
}

// UpdateRepresentations moves each layer to reduce its weighted mismatch:
//
//	R1 += η·(π1⊙E1)
//	R2 += η·(W21ᵀ(π1⊙E1) − π2⊙E2)
//	R3 += η·(W32ᵀ(π2⊙E2))
//
// then clips every belief to ±RepresentationLimit. R1 is left alone on a
// step where it was pinned to the observation. No-op while frozen.
func (h *Hierarchy) UpdateRepresentations() {
	if h.frozen {
		return
	}
	s := &h.State
	eta := h.cfg.EtaRep

	for i, e := range s.E1 {
		h.wE1[i] = h.pi1[i] * e
	}
	for i, e := range s.E2 {
		h.wE2[i] = h.pi2[i] * e
	}
	blas32.Gemv(blas.NoTrans, 1, h.Weights.W21T, vec(h.wE1), 0, vec(h.up2))
	blas32.Gemv(blas.NoTrans, 1, h.Weights.W32T, vec(h.wE2), 0, vec(h.up3))

	if !h.pinned {
		blas32.Axpy(eta, vec(h.wE1), vec(s.R1))
	}
	blas32.Axpy(eta, vec(h.up2), vec(s.R2))
	// E2 = R2 − Pred2, so subtracting π2⊙E2 pulls R2 toward Pred2.
	blas32.Axpy(-eta, vec(h.wE2), vec(s.R2))
	blas32.Axpy(eta, vec(h.up3), vec(s.R3))

	clampAll(s.R1, RepresentationLimit)
	clampAll(s.R2, RepresentationLimit)
	clampAll(s.R3, RepresentationLimit)
}

// UpdateWeights applies one momentum-blended Hebbian step to both weight
// matrices, shrinks them by WeightDecay, clips them to ±MaxWeightValue and
// rebuilds the transposes. No-op while frozen.
//
// The clip is an addition to the plain Hebbian rule, which leaves
// MaxWeightValue as an advisory ceiling only.
func (h *Hierarchy) UpdateWeights() {
	if h.frozen {
		return
	}
	w := &h.Weights
	h.learn(w.W21, w.M21, h.State.E1, h.State.R2)
	h.learn(w.W32, w.M32, h.State.E2, h.State.R3)
	w.refreshTransposes()
	if h.policy != nil {
		h.policy.AfterWeightUpdate(h)
	}
}

// learn computes M = μ·M + (1−μ)·ηW·e rᵀ, then W += M − λ·W.
func (h *Hierarchy) learn(W, M blas32.General, e, r []float32) {
	c := &h.cfg
	blas32.Scal(c.Momentum, flat(M))
	blas32.Ger((1-c.Momentum)*c.EtaW, vec(e), vec(r), M)
	blas32.Scal(1-c.WeightDecay, flat(W))
	blas32.Axpy(1, flat(M), flat(W))
	clampAll(W.Data, c.MaxWeightValue)
}

// Step runs one full timestep: predict, errors, representations, weights.
func (h *Hierarchy) Step(obs []float32) {
	if h.policy != nil {
		h.policy.BeforeStep(h, obs)
	}
	h.Predict()
	if h.policy != nil {
		h.policy.AfterPredict(h)
	}
	h.ComputeErrors(obs)
	h.UpdateRepresentations()
	h.UpdateWeights()
	h.pinned = false
}

// pinSensory sets R1 to the observation and keeps it there for this step.
// Freezing gates learning, not sensing, so pinning happens while frozen too.
func (h *Hierarchy) pinSensory(obs []float32) {
	h.checkObservation(obs)
	for i, o := range obs {
		h.State.R1[i] = clampFinite(o, RepresentationLimit)
	}
	h.pinned = true
}

// FreeEnergy returns ΣR1² + ΣR2² + ΣR3². It is a belief-magnitude proxy,
// not the precision-weighted error functional; see PredictionErrorEnergy.
func (h *Hierarchy) FreeEnergy() float64 {
	s := &h.State
	var fe float64
	for _, r := range [][]float32{s.R1, s.R2, s.R3} {
		fe += float64(blas32.Dot(vec(r), vec(r)))
	}
	return fe
}

// PredictionErrorEnergy returns ½Σπ1·E1² + ½Σπ2·E2².
func (h *Hierarchy) PredictionErrorEnergy() float64 {
	var sum float64
	for i, e := range h.State.E1 {
		sum += float64(h.pi1[i] * e * e)
	}
	for i, e := range h.State.E2 {
		sum += float64(h.pi2[i] * e * e)
	}
	return 0.5 * sum
}

// Freeze stops representation and weight updates. Predict and
// ComputeErrors keep running.
func (h *Hierarchy) Freeze() { h.frozen = true }

// Unfreeze resumes learning.
func (h *Hierarchy) Unfreeze() { h.frozen = false }

// Frozen reports whether learning is disabled.
func (h *Hierarchy) Frozen() bool { return h.frozen }

// Precision returns copies of π1 and π2.
func (h *Hierarchy) Precision() (pi1, pi2 []float32) {
	return append([]float32(nil), h.pi1...), append([]float32(nil), h.pi2...)
}

// SetPrecision copies pi1 and pi2 in, clamped to (0, MaxPrecisionValue].
func (h *Hierarchy) SetPrecision(pi1, pi2 []float32) {
	if len(pi1) != len(h.pi1) || len(pi2) != len(h.pi2) {
		panic(fmt.Sprintf("neural: precision lengths %d/%d, want %d/%d",
			len(pi1), len(pi2), len(h.pi1), len(h.pi2)))
	}
	ceiling := h.cfg.MaxPrecisionValue
	for i, p := range pi1 {
		h.pi1[i] = clampPrecision(p, ceiling)
	}
	for i, p := range pi2 {
		h.pi2[i] = clampPrecision(p, ceiling)
	}
}

func clampPrecision(p, ceiling float32) float32 {
	switch {
	case p != p || p < minPrecision:
		return minPrecision
	case p > ceiling:
		return ceiling
	}
	return p
}

// ResetState zeroes beliefs, predictions and errors, keeping the weights.
func (h *Hierarchy) ResetState() {
	h.State.Reset()
	h.pinned = false
}

func (h *Hierarchy) checkObservation(obs []float32) {
	if len(obs) != h.cfg.N1 {
		panic(fmt.Sprintf("neural: observation has %d elements, want %d", len(obs), h.cfg.N1))
	}
}
