package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`
	Task            int     `csv:"task"`
	MotorFrozen     bool    `csv:"motor_frozen"`

	// Trials finished during the window
	Trials    int     `csv:"trials"`
	Catches   int     `csv:"catches"`
	Misses    int     `csv:"misses"`
	CatchRate float64 `csv:"catch_rate"`

	// Closest hand-to-ball approach per finished trial
	DistMean float64 `csv:"dist_mean"`
	DistStd  float64 `csv:"dist_std"`
	DistP10  float64 `csv:"dist_p10"`
	DistP50  float64 `csv:"dist_p50"`
	DistP90  float64 `csv:"dist_p90"`

	// Per-tick means over the window
	MotorFE       float64 `csv:"motor_fe"`
	PlanningFE    float64 `csv:"planning_fe"`
	MotorPE       float64 `csv:"motor_pe"`
	PlanningPE    float64 `csv:"planning_pe"`
	MotorRMSL1    float64 `csv:"motor_rms_l1"`
	MotorRMSL2    float64 `csv:"motor_rms_l2"`
	PlanningRMSL1 float64 `csv:"planning_rms_l1"`
	PlanningRMSL2 float64 `csv:"planning_rms_l2"`
	MotorPi1      float64 `csv:"motor_pi1"`
	MotorPi2      float64 `csv:"motor_pi2"`
	PlanningPi1   float64 `csv:"planning_pi1"`
	PlanningPi2   float64 `csv:"planning_pi2"`
	PredError     float64 `csv:"pred_error"` // planner target prediction vs true ball position
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistStats calculates mean, population std, and percentiles.
func ComputeDistStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	std = stat.PopStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("task", s.Task),
		slog.Bool("motor_frozen", s.MotorFrozen),
		slog.Int("trials", s.Trials),
		slog.Int("catches", s.Catches),
		slog.Int("misses", s.Misses),
		slog.Float64("catch_rate", s.CatchRate),
		slog.Float64("dist_mean", s.DistMean),
		slog.Float64("dist_p50", s.DistP50),
		slog.Float64("motor_fe", s.MotorFE),
		slog.Float64("planning_fe", s.PlanningFE),
		slog.Float64("motor_pe", s.MotorPE),
		slog.Float64("planning_pe", s.PlanningPE),
		slog.Float64("motor_pi1", s.MotorPi1),
		slog.Float64("planning_pi1", s.PlanningPi1),
		slog.Float64("pred_error", s.PredError),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"task", s.Task,
		"motor_frozen", s.MotorFrozen,
		"trials", s.Trials,
		"catches", s.Catches,
		"misses", s.Misses,
		"catch_rate", s.CatchRate,
		"dist_mean", s.DistMean,
		"dist_p10", s.DistP10,
		"dist_p50", s.DistP50,
		"dist_p90", s.DistP90,
		"motor_fe", s.MotorFE,
		"planning_fe", s.PlanningFE,
		"motor_pe", s.MotorPE,
		"planning_pe", s.PlanningPE,
		"motor_rms_l1", s.MotorRMSL1,
		"motor_rms_l2", s.MotorRMSL2,
		"planning_rms_l1", s.PlanningRMSL1,
		"planning_rms_l2", s.PlanningRMSL2,
		"motor_pi1", s.MotorPi1,
		"motor_pi2", s.MotorPi2,
		"planning_pi1", s.PlanningPi1,
		"planning_pi2", s.PlanningPi2,
		"pred_error", s.PredError,
	)
}
