package neural

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Planner is a hierarchy that tracks a target and keeps one weight set per
// task. Exactly one task is active; its weights are the working weights and
// every update is written back to that task only.
type Planner struct {
	*Hierarchy
	pos  [3]int
	bank []WeightSet
	task int // 1-based
}

// NewPlanner validates cfg and builds a planner with NTasks independently
// initialized weight sets. Task 1 is active.
func NewPlanner(cfg PlannerConfig, rng *rand.Rand) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := newHierarchy(cfg.Hierarchy, rng)
	bank := make([]WeightSet, cfg.NTasks)
	bank[0] = h.Weights.Clone()
	for i := 1; i < cfg.NTasks; i++ {
		bank[i] = NewWeightSet(rng, cfg.Hierarchy.N1, cfg.Hierarchy.N2, cfg.Hierarchy.N3)
	}
	p := &Planner{Hierarchy: h, pos: cfg.Pos, bank: bank, task: 1}
	h.policy = plannerPolicy{p}
	return p, nil
}

type plannerPolicy struct{ p *Planner }

func (plannerPolicy) BeforeStep(*Hierarchy, []float32) {}
func (plannerPolicy) AfterPredict(*Hierarchy)          {}

func (pp plannerPolicy) AfterWeightUpdate(h *Hierarchy) {
	pp.p.bank[pp.p.task-1].CopyFrom(&h.Weights)
}

// SetTask makes task idx (1-based) active by loading its weights, transposes
// and momentum into the working set.
func (p *Planner) SetTask(idx int) error {
	if idx < 1 || idx > len(p.bank) {
		return fmt.Errorf("neural: task %d outside [1,%d]", idx, len(p.bank))
	}
	p.Weights.CopyFrom(&p.bank[idx-1])
	p.task = idx
	return nil
}

// Task returns the active task index.
func (p *Planner) Task() int { return p.task }

// NumTasks returns the size of the task bank.
func (p *Planner) NumTasks() int { return len(p.bank) }

// SetTargetObservation writes the sensed target position into the position slots.
func (p *Planner) SetTargetObservation(pos r3.Vec) { writeVec(p.State.R1, p.pos, pos) }

// PredictTargetPosition reads the hierarchy's predicted target position.
func (p *Planner) PredictTargetPosition() r3.Vec { return readVec(p.State.Pred1, p.pos) }

// Observation returns a copy of R1 for passing to Step.
func (p *Planner) Observation() []float32 {
	return append([]float32(nil), p.State.R1...)
}
