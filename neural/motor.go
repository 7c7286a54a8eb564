package neural

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// goalEpsilon is the distance below which a goal is considered reached.
	goalEpsilon = 1e-6
	// commandEpsilon is the predicted speed below which the command falls
	// back to the sensed velocity.
	commandEpsilon = 1e-6
)

// Motor is a hierarchy whose sensory layer carries proprioception.
// R1 is pinned to the observation each step rather than nudged toward it.
type Motor struct {
	*Hierarchy
	slots    Slots
	gain     float32
	maxSpeed float32

	goal    r3.Vec
	hasGoal bool
}

// NewMotor validates cfg and builds a motor hierarchy.
func NewMotor(cfg MotorConfig, rng *rand.Rand) (*Motor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Motor{
		Hierarchy: newHierarchy(cfg.Hierarchy, rng),
		slots:     cfg.Slots,
		gain:      cfg.Gain,
		maxSpeed:  cfg.MaxSpeed,
	}
	m.policy = motorPolicy{m}
	return m, nil
}

type motorPolicy struct{ m *Motor }

func (p motorPolicy) BeforeStep(h *Hierarchy, obs []float32) { h.pinSensory(obs) }

func (p motorPolicy) AfterPredict(*Hierarchy) {
	if p.m.hasGoal {
		p.m.imposeGoal()
	}
}

func (p motorPolicy) AfterWeightUpdate(*Hierarchy) {}

// Slots returns the semantic index map.
func (m *Motor) Slots() Slots { return m.slots }

// SetPositionObservation writes the sensed position into the position slots.
func (m *Motor) SetPositionObservation(p r3.Vec) { writeVec(m.State.R1, m.slots.Pos, p) }

// SetVelocityObservation writes the sensed velocity into the velocity slots.
func (m *Motor) SetVelocityObservation(v r3.Vec) { writeVec(m.State.R1, m.slots.Vel, v) }

// SetBiasObservation writes the constant bias input.
func (m *Motor) SetBiasObservation(b float32) {
	m.State.R1[m.slots.Bias] = clampFinite(b, RepresentationLimit)
}

// Observation returns a copy of R1 as assembled by the Set*Observation calls.
func (m *Motor) Observation() []float32 {
	return append([]float32(nil), m.State.R1...)
}

// SetTargetPosition imposes goal as a top-down prior: the predicted
// velocity becomes the unit vector from the sensed position toward goal and
// the predicted position becomes goal. The prior is re-imposed after every
// Predict until ClearTarget.
func (m *Motor) SetTargetPosition(goal r3.Vec) {
	m.goal = goal
	m.hasGoal = true
	m.imposeGoal()
}

// ClearTarget stops imposing the goal prior.
func (m *Motor) ClearTarget() { m.hasGoal = false }

// Target returns the current goal and whether one is set.
func (m *Motor) Target() (r3.Vec, bool) { return m.goal, m.hasGoal }

func (m *Motor) imposeGoal() {
	pos := readVec(m.State.R1, m.slots.Pos)
	d := r3.Sub(m.goal, pos)
	dist := r3.Norm(d)
	if dist <= goalEpsilon {
		return
	}
	writeVec(m.State.Pred1, m.slots.Vel, r3.Scale(1/dist, d))
	writeVec(m.State.Pred1, m.slots.Pos, m.goal)
}

// ExtractMotorCommand returns the velocity command for the physics step:
// the predicted velocity (or the sensed one when the prediction is ~0),
// scaled by the gain and clamped per axis to ±MaxSpeed.
func (m *Motor) ExtractMotorCommand() r3.Vec {
	v := readVec(m.State.Pred1, m.slots.Vel)
	if r3.Norm(v) < commandEpsilon {
		v = readVec(m.State.R1, m.slots.Vel)
	}
	v = r3.Scale(float64(m.gain), v)
	limit := float64(m.maxSpeed)
	return r3.Vec{
		X: clamp64(v.X, limit),
		Y: clamp64(v.Y, limit),
		Z: clamp64(v.Z, limit),
	}
}

func readVec(data []float32, idx [3]int) r3.Vec {
	return r3.Vec{X: float64(data[idx[0]]), Y: float64(data[idx[1]]), Z: float64(data[idx[2]])}
}

func writeVec(data []float32, idx [3]int, v r3.Vec) {
	data[idx[0]] = clampFinite(float32(v.X), RepresentationLimit)
	data[idx[1]] = clampFinite(float32(v.Y), RepresentationLimit)
	data[idx[2]] = clampFinite(float32(v.Z), RepresentationLimit)
}

func clamp64(x, limit float64) float64 {
	if x != x {
		return 0
	}
	if x > limit {
		return limit
	}
	if x < -limit {
		return -limit
	}
	return x
}
