package telemetry

// TickSample holds the per-tick quantities averaged into WindowStats.
type TickSample struct {
	MotorFE, PlanningFE          float64
	MotorPE, PlanningPE          float64
	MotorRMSL1, MotorRMSL2       float64
	PlanningRMSL1, PlanningRMSL2 float64
	MotorPi1, MotorPi2           float64
	PlanningPi1, PlanningPi2     float64
	PredError                    float64
}

func (s *TickSample) add(o TickSample) {
	s.MotorFE += o.MotorFE
	s.PlanningFE += o.PlanningFE
	s.MotorPE += o.MotorPE
	s.PlanningPE += o.PlanningPE
	s.MotorRMSL1 += o.MotorRMSL1
	s.MotorRMSL2 += o.MotorRMSL2
	s.PlanningRMSL1 += o.PlanningRMSL1
	s.PlanningRMSL2 += o.PlanningRMSL2
	s.MotorPi1 += o.MotorPi1
	s.MotorPi2 += o.MotorPi2
	s.PlanningPi1 += o.PlanningPi1
	s.PlanningPi2 += o.PlanningPi2
	s.PredError += o.PredError
}

// Collector accumulates ticks and trials within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	ticks   int
	sum     TickSample
	catches int
	misses  int
	dists   []float64

	// Run totals
	totalCatches int
	totalTrials  int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordTick adds one tick's sample to the window.
func (c *Collector) RecordTick(s TickSample) {
	c.ticks++
	c.sum.add(s)
}

// RecordTrial records a finished trial.
func (c *Collector) RecordTrial(r TrialRecord) {
	if r.Caught() {
		c.catches++
		c.totalCatches++
	} else {
		c.misses++
	}
	c.totalTrials++
	c.dists = append(c.dists, r.MinDistance)
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, task int, motorFrozen bool) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,
		Task:            task,
		MotorFrozen:     motorFrozen,
		Trials:          c.catches + c.misses,
		Catches:         c.catches,
		Misses:          c.misses,
	}
	if stats.Trials > 0 {
		stats.CatchRate = float64(c.catches) / float64(stats.Trials)
	}
	stats.DistMean, stats.DistStd, stats.DistP10, stats.DistP50, stats.DistP90 = ComputeDistStats(c.dists)

	if c.ticks > 0 {
		n := float64(c.ticks)
		s := c.sum
		stats.MotorFE = s.MotorFE / n
		stats.PlanningFE = s.PlanningFE / n
		stats.MotorPE = s.MotorPE / n
		stats.PlanningPE = s.PlanningPE / n
		stats.MotorRMSL1 = s.MotorRMSL1 / n
		stats.MotorRMSL2 = s.MotorRMSL2 / n
		stats.PlanningRMSL1 = s.PlanningRMSL1 / n
		stats.PlanningRMSL2 = s.PlanningRMSL2 / n
		stats.MotorPi1 = s.MotorPi1 / n
		stats.MotorPi2 = s.MotorPi2 / n
		stats.PlanningPi1 = s.PlanningPi1 / n
		stats.PlanningPi2 = s.PlanningPi2 / n
		stats.PredError = s.PredError / n
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.ticks = 0
	c.sum = TickSample{}
	c.catches = 0
	c.misses = 0
	c.dists = c.dists[:0]

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}

// CatchRate returns the catch rate over every trial recorded so far.
func (c *Collector) CatchRate() float64 {
	if c.totalTrials == 0 {
		return 0
	}
	return float64(c.totalCatches) / float64(c.totalTrials)
}

// TotalTrials returns how many trials have been recorded.
func (c *Collector) TotalTrials() int { return c.totalTrials }
