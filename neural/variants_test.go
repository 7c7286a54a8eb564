package neural

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func testMotorConfig() MotorConfig {
	return MotorConfig{
		Hierarchy: testConfig(),
		Slots:     Slots{Pos: [3]int{0, 1, 2}, Vel: [3]int{3, 4, 5}, Bias: 6},
		Gain:      2,
		MaxSpeed:  3,
	}
}

func newTestMotor(t *testing.T, seed int64) *Motor {
	t.Helper()
	m, err := NewMotor(testMotorConfig(), rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return m
}

func TestMotorPinsSensoryLayer(t *testing.T) {
	m := newTestMotor(t, 1)
	m.SetPositionObservation(r3.Vec{X: 1, Y: 2, Z: 3})
	m.SetVelocityObservation(r3.Vec{X: -1, Y: -2, Z: -3})
	m.SetBiasObservation(1)
	obs := m.Observation()

	for range 5 {
		m.Step(obs)
		assert.Equal(t, obs, m.State.R1)
	}
	assert.Equal(t, []float32{1, 2, 3, -1, -2, -3, 1}, obs)
}

func TestMotorPinsWhileFrozen(t *testing.T) {
	m := newTestMotor(t, 2)
	m.Freeze()
	obs := []float32{0.5, 0, 0, 1, 0, 0, 1}
	m.Step(obs)
	assert.Equal(t, obs, m.State.R1)
}

func TestExtractMotorCommand(t *testing.T) {
	tests := []struct {
		name   string
		pred   r3.Vec
		sensed r3.Vec
		want   r3.Vec
	}{
		{"scaled prediction", r3.Vec{X: 0.5, Y: -0.25, Z: 0}, r3.Vec{X: 9}, r3.Vec{X: 1, Y: -0.5, Z: 0}},
		{"clamped per axis", r3.Vec{X: 5, Y: -5, Z: 1}, r3.Vec{}, r3.Vec{X: 3, Y: -3, Z: 2}},
		{"fallback to sensed velocity", r3.Vec{}, r3.Vec{X: 1, Y: 0, Z: -0.5}, r3.Vec{X: 2, Y: 0, Z: -1}},
		{"both zero", r3.Vec{}, r3.Vec{}, r3.Vec{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMotor(t, 3)
			writeVec(m.State.Pred1, m.Slots().Vel, tt.pred)
			m.SetVelocityObservation(tt.sensed)
			got := m.ExtractMotorCommand()
			assert.InDelta(t, tt.want.X, got.X, 1e-6)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-6)
			assert.InDelta(t, tt.want.Z, got.Z, 1e-6)
		})
	}
}

func TestMotorGoalPrior(t *testing.T) {
	m := newTestMotor(t, 4)
	m.SetPositionObservation(r3.Vec{})
	m.SetTargetPosition(r3.Vec{X: 3, Y: 4})

	checkPrior := func() {
		t.Helper()
		vel := readVec(m.State.Pred1, m.Slots().Vel)
		pos := readVec(m.State.Pred1, m.Slots().Pos)
		assert.InDelta(t, 0.6, vel.X, 1e-6)
		assert.InDelta(t, 0.8, vel.Y, 1e-6)
		assert.InDelta(t, 0.0, vel.Z, 1e-6)
		assert.InDelta(t, 3.0, pos.X, 1e-6)
		assert.InDelta(t, 4.0, pos.Y, 1e-6)
	}
	checkPrior()

	// Predict would overwrite Pred1; the goal is re-imposed.
	m.Step(m.Observation())
	checkPrior()

	cmd := m.ExtractMotorCommand()
	assert.InDelta(t, 1.2, cmd.X, 1e-5)
	assert.InDelta(t, 1.6, cmd.Y, 1e-5)

	m.ClearTarget()
	_, ok := m.Target()
	assert.False(t, ok)
	m.Step(m.Observation())
	vel := readVec(m.State.Pred1, m.Slots().Vel)
	assert.Greater(t, math.Abs(vel.X-0.6), 1e-3)
}

func TestMotorGoalReached(t *testing.T) {
	m := newTestMotor(t, 5)
	m.SetPositionObservation(r3.Vec{X: 1, Y: 1})
	before := append([]float32(nil), m.State.Pred1...)
	m.SetTargetPosition(r3.Vec{X: 1, Y: 1})
	assert.Equal(t, before, m.State.Pred1)
}

func TestMotorConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MotorConfig)
		field  string
	}{
		{"overlapping slots", func(c *MotorConfig) { c.Slots.Vel[0] = 1 }, "slots.vel[0]"},
		{"bias out of range", func(c *MotorConfig) { c.Slots.Bias = 7 }, "slots.bias"},
		{"negative index", func(c *MotorConfig) { c.Slots.Pos[2] = -1 }, "slots.pos[2]"},
		{"zero gain", func(c *MotorConfig) { c.Gain = 0 }, "gain"},
		{"zero max speed", func(c *MotorConfig) { c.MaxSpeed = 0 }, "max_speed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testMotorConfig()
			tt.mutate(&cfg)
			_, err := NewMotor(cfg, rand.New(rand.NewSource(1)))
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func testPlannerConfig() PlannerConfig {
	return PlannerConfig{Hierarchy: testConfig(), Pos: [3]int{0, 1, 2}, NTasks: 3}
}

func newTestPlanner(t *testing.T, seed int64) *Planner {
	t.Helper()
	p, err := NewPlanner(testPlannerConfig(), rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return p
}

func snapshot(ws *WeightSet) WeightSet { return ws.Clone() }

func TestPlannerTaskIsolation(t *testing.T) {
	p := newTestPlanner(t, 1)
	require.Equal(t, 1, p.Task())

	obs := []float32{1, 2, 3, -1, -2, -3, 1}
	for range 20 {
		p.Step(obs)
	}
	task1 := snapshot(&p.Weights)

	require.NoError(t, p.SetTask(2))
	assert.NotEqual(t, task1.W21.Data, p.Weights.W21.Data)
	for range 20 {
		p.Step([]float32{-3, 0, 3, 1, 1, 1, 1})
	}
	task2 := snapshot(&p.Weights)

	require.NoError(t, p.SetTask(1))
	assert.Equal(t, task1, p.Weights)

	require.NoError(t, p.SetTask(2))
	assert.Equal(t, task2, p.Weights)
}

func TestPlannerFrozenTaskUnchanged(t *testing.T) {
	p := newTestPlanner(t, 2)
	before := snapshot(&p.Weights)
	p.Freeze()
	for range 5 {
		p.Step([]float32{1, 1, 1, 1, 1, 1, 1})
	}
	require.NoError(t, p.SetTask(3))
	require.NoError(t, p.SetTask(1))
	assert.Equal(t, before, p.Weights)
}

func TestPlannerSetTaskRange(t *testing.T) {
	p := newTestPlanner(t, 3)
	for _, idx := range []int{0, -1, 4} {
		assert.Error(t, p.SetTask(idx), "task %d", idx)
	}
	assert.Equal(t, 1, p.Task())
	assert.Equal(t, 3, p.NumTasks())
}

func TestPlannerTargetSlots(t *testing.T) {
	p := newTestPlanner(t, 4)
	p.SetTargetObservation(r3.Vec{X: 1, Y: -2, Z: 20})
	obs := p.Observation()
	assert.Equal(t, []float32{1, -2, RepresentationLimit}, obs[:3])

	p.Predict()
	got := p.PredictTargetPosition()
	assert.InDelta(t, float64(p.State.Pred1[0]), got.X, 1e-9)
	assert.InDelta(t, float64(p.State.Pred1[2]), got.Z, 1e-9)
}

func TestPlannerConfigValidate(t *testing.T) {
	cfg := testPlannerConfig()
	cfg.NTasks = 0
	_, err := NewPlanner(cfg, rand.New(rand.NewSource(1)))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "n_tasks", verr.Field)

	cfg = testPlannerConfig()
	cfg.Pos[1] = 0
	_, err = NewPlanner(cfg, rand.New(rand.NewSource(1)))
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "pos[1]", verr.Field)
}
