package neural

import (
	"fmt"
	"math"
)

// RepresentationLimit bounds every belief component after an update.
const RepresentationLimit = 10.0

// Config holds the immutable parameters of one hierarchy instance.
type Config struct {
	N1 int `yaml:"n1"` // sensory layer width
	N2 int `yaml:"n2"`
	N3 int `yaml:"n3"`

	EtaRep      float32 `yaml:"eta_rep"`      // representation step size
	EtaW        float32 `yaml:"eta_w"`        // weight learning rate
	Momentum    float32 `yaml:"momentum"`     // [0,1)
	WeightDecay float32 `yaml:"weight_decay"` // L2 coefficient: W -= WeightDecay*W per update

	MaxWeightValue    float32 `yaml:"max_weight_value"`
	MaxPrecisionValue float32 `yaml:"max_precision_value"`
	MaxErrorValue     float32 `yaml:"max_error_value"`

	InitialPi1 float32 `yaml:"initial_pi1"`
	InitialPi2 float32 `yaml:"initial_pi2"`
}

// ValidationError reports a configuration field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("neural: %s %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func positive(x float32) bool {
	return x > 0 && !math.IsInf(float64(x), 0)
}

// Validate checks dimensions, rates and ceilings.
func (c Config) Validate() error {
	switch {
	case c.N1 <= 0:
		return invalid("n1", "must be > 0, got %d", c.N1)
	case c.N2 <= 0:
		return invalid("n2", "must be > 0, got %d", c.N2)
	case c.N3 <= 0:
		return invalid("n3", "must be > 0, got %d", c.N3)
	case !positive(c.EtaRep):
		return invalid("eta_rep", "must be > 0, got %v", c.EtaRep)
	case !positive(c.EtaW):
		return invalid("eta_w", "must be > 0, got %v", c.EtaW)
	case !(c.Momentum >= 0 && c.Momentum < 1):
		return invalid("momentum", "must be in [0,1), got %v", c.Momentum)
	case !(c.WeightDecay >= 0 && c.WeightDecay < 1):
		return invalid("weight_decay", "is a regularization coefficient (W -= weight_decay*W) and must be in [0,1), got %v", c.WeightDecay)
	case !positive(c.MaxWeightValue):
		return invalid("max_weight_value", "must be > 0, got %v", c.MaxWeightValue)
	case !positive(c.MaxPrecisionValue):
		return invalid("max_precision_value", "must be > 0, got %v", c.MaxPrecisionValue)
	case !positive(c.MaxErrorValue):
		return invalid("max_error_value", "must be > 0, got %v", c.MaxErrorValue)
	case !positive(c.InitialPi1) || c.InitialPi1 > c.MaxPrecisionValue:
		return invalid("initial_pi1", "must be in (0, max_precision_value], got %v", c.InitialPi1)
	case !positive(c.InitialPi2) || c.InitialPi2 > c.MaxPrecisionValue:
		return invalid("initial_pi2", "must be in (0, max_precision_value], got %v", c.InitialPi2)
	}
	return nil
}

// Slots maps semantic quantities onto indices of the sensory layer.
type Slots struct {
	Pos  [3]int `yaml:"pos"`
	Vel  [3]int `yaml:"vel"`
	Bias int    `yaml:"bias"`
}

// Validate requires every index to lie in [0,n1) and no two slots to share one.
func (s Slots) Validate(n1 int) error {
	labels := []string{"slots.pos[0]", "slots.pos[1]", "slots.pos[2]",
		"slots.vel[0]", "slots.vel[1]", "slots.vel[2]", "slots.bias"}
	idx := []int{s.Pos[0], s.Pos[1], s.Pos[2], s.Vel[0], s.Vel[1], s.Vel[2], s.Bias}
	return validateIndices(n1, labels, idx)
}

func validateIndices(n1 int, labels []string, idx []int) error {
	seen := make(map[int]string, len(idx))
	for i, v := range idx {
		if v < 0 || v >= n1 {
			return invalid(labels[i], "index %d outside [0,%d)", v, n1)
		}
		if prev, ok := seen[v]; ok {
			return invalid(labels[i], "index %d already used by %s", v, prev)
		}
		seen[v] = labels[i]
	}
	return nil
}

// MotorConfig configures a Motor hierarchy.
type MotorConfig struct {
	Hierarchy Config  `yaml:",inline"`
	Slots     Slots   `yaml:"slots"`
	Gain      float32 `yaml:"gain"`      // scales the predicted velocity into a command
	MaxSpeed  float32 `yaml:"max_speed"` // per-axis command limit
}

// Validate checks the hierarchy, the slot map and the command limits.
func (c MotorConfig) Validate() error {
	if err := c.Hierarchy.Validate(); err != nil {
		return err
	}
	if err := c.Slots.Validate(c.Hierarchy.N1); err != nil {
		return err
	}
	if !positive(c.Gain) {
		return invalid("gain", "must be > 0, got %v", c.Gain)
	}
	if !positive(c.MaxSpeed) {
		return invalid("max_speed", "must be > 0, got %v", c.MaxSpeed)
	}
	return nil
}

// PlannerConfig configures a Planner hierarchy.
type PlannerConfig struct {
	Hierarchy Config `yaml:",inline"`
	Pos       [3]int `yaml:"pos"` // target position slots
	NTasks    int    `yaml:"n_tasks"`
}

// Validate checks the hierarchy, the target slots and the task count.
func (c PlannerConfig) Validate() error {
	if err := c.Hierarchy.Validate(); err != nil {
		return err
	}
	labels := []string{"pos[0]", "pos[1]", "pos[2]"}
	if err := validateIndices(c.Hierarchy.N1, labels, c.Pos[:]); err != nil {
		return err
	}
	if c.NTasks < 1 {
		return invalid("n_tasks", "must be >= 1, got %d", c.NTasks)
	}
	return nil
}
