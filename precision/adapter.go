// Package precision adapts per-channel confidence weights from the recent
// history of prediction errors.
package precision

import (
	"fmt"
	"math"
)

// Channel identifies one precision vector.
type Channel int

const (
	MotorL1 Channel = iota
	MotorL2
	PlanningL1
	PlanningL2
	NumChannels
)

var channelNames = [NumChannels]string{"motor_l1", "motor_l2", "planning_l1", "planning_l2"}

func (c Channel) String() string {
	if c < 0 || c >= NumChannels {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelNames[c]
}

// Adaptation factor limits per call.
const (
	MinFactor = 0.5
	MaxFactor = 2.0
)

// DefaultWindow is the history length used when Config.Window is zero.
const DefaultWindow = 50

// Bounds is the closed interval a channel's precision is kept in.
type Bounds struct {
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

// Config holds the adaptation law parameters.
type Config struct {
	Window    int     `yaml:"window"`    // RMS samples kept per channel
	Threshold float32 `yaml:"threshold"` // smoothed RMS at which precision holds steady
	Alpha     float32 `yaml:"alpha"`     // adaptation gain

	MotorL1    Bounds `yaml:"motor_l1"`
	MotorL2    Bounds `yaml:"motor_l2"`
	PlanningL1 Bounds `yaml:"planning_l1"`
	PlanningL2 Bounds `yaml:"planning_l2"`
}

// Bounds returns the configured interval for ch.
func (c Config) Bounds(ch Channel) Bounds {
	switch ch {
	case MotorL1:
		return c.MotorL1
	case MotorL2:
		return c.MotorL2
	case PlanningL1:
		return c.PlanningL1
	case PlanningL2:
		return c.PlanningL2
	}
	panic(fmt.Sprintf("precision: unknown %v", ch))
}

// Validate checks the window, gain, threshold and every channel interval.
func (c Config) Validate() error {
	if c.Window < 0 {
		return fmt.Errorf("precision: window must be >= 0, got %d", c.Window)
	}
	if !(c.Alpha > 0) || math.IsInf(float64(c.Alpha), 0) {
		return fmt.Errorf("precision: alpha must be > 0, got %v", c.Alpha)
	}
	if !(c.Threshold >= 0) || math.IsInf(float64(c.Threshold), 0) {
		return fmt.Errorf("precision: threshold must be >= 0, got %v", c.Threshold)
	}
	for ch := Channel(0); ch < NumChannels; ch++ {
		b := c.Bounds(ch)
		if !(b.Min > 0) || !(b.Max >= b.Min) || math.IsInf(float64(b.Max), 0) {
			return fmt.Errorf("precision: %v bounds must satisfy 0 < min <= max, got [%v, %v]", ch, b.Min, b.Max)
		}
	}
	return nil
}

// Adapter turns a stream of RMS prediction errors into bounded multiplicative
// precision updates, independently per channel. All channels share one write
// index so their histories stay aligned in time.
type Adapter struct {
	cfg    Config
	window int

	history [NumChannels][]float32
	filled  [NumChannels][]bool
	count   [NumChannels]int
	last    [NumChannels]float32 // most recent smoothed RMS
	index   int
}

// New validates cfg and returns an adapter with empty histories.
func New(cfg Config) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := cfg.Window
	if w == 0 {
		w = DefaultWindow
	}
	a := &Adapter{cfg: cfg, window: w}
	for ch := range a.history {
		a.history[ch] = make([]float32, w)
		a.filled[ch] = make([]bool, w)
	}
	return a, nil
}

// Adapt records the RMS of errs for ch and rescales pi in place:
//
//	factor = 1 + α·(threshold − smoothed)   when smoothed < threshold
//	factor = 1 − α·(smoothed − threshold)   otherwise
//
// with factor clamped to [MinFactor, MaxFactor] and every pi element clamped
// to the channel bounds afterwards. It returns the factor applied.
func (a *Adapter) Adapt(ch Channel, pi, errs []float32) float32 {
	rms := RMS(errs)
	a.history[ch][a.index] = rms
	if !a.filled[ch][a.index] {
		a.filled[ch][a.index] = true
		a.count[ch]++
	}

	var sum float64
	for i, ok := range a.filled[ch] {
		if ok {
			sum += float64(a.history[ch][i])
		}
	}
	smoothed := float32(sum / float64(a.count[ch]))
	a.last[ch] = smoothed

	var factor float32
	if smoothed < a.cfg.Threshold {
		factor = 1 + a.cfg.Alpha*(a.cfg.Threshold-smoothed)
	} else {
		factor = 1 - a.cfg.Alpha*(smoothed-a.cfg.Threshold)
	}
	factor = clamp(factor, MinFactor, MaxFactor)

	b := a.cfg.Bounds(ch)
	for i, p := range pi {
		if p != p {
			p = b.Min
		}
		pi[i] = clamp(p*factor, b.Min, b.Max)
	}
	return factor
}

// StepHistory advances the shared write index. Call once per tick after
// every channel has been adapted.
func (a *Adapter) StepHistory() {
	a.index = (a.index + 1) % a.window
}

// Smoothed returns the smoothed RMS from the last Adapt call on ch.
func (a *Adapter) Smoothed(ch Channel) float32 { return a.last[ch] }

// Count returns how many history slots of ch hold a sample.
func (a *Adapter) Count(ch Channel) int { return a.count[ch] }

// Window returns the history length.
func (a *Adapter) Window() int { return a.window }

// Reset clears every history.
func (a *Adapter) Reset() {
	for ch := range a.history {
		clear(a.history[ch])
		clear(a.filled[ch])
		a.count[ch] = 0
		a.last[ch] = 0
	}
	a.index = 0
}

// RMS returns sqrt(mean(errs²)), or 0 for an empty slice. Non-finite
// elements are ignored.
func RMS(errs []float32) float32 {
	var sum float64
	n := 0
	for _, e := range errs {
		x := float64(e)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		sum += x * x
		n++
	}
	if n == 0 {
		return 0
	}
	return float32(math.Sqrt(sum / float64(n)))
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
