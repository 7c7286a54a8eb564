package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistStats(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	mean, std, p10, p50, p90 := ComputeDistStats(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	// Population std of 0.1..1.0
	if math.Abs(std-0.2872) > 0.001 {
		t.Errorf("std = %v, want ~0.287", std)
	}
	if math.Abs(p10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", p10)
	}
	if math.Abs(p50-0.55) > 0.01 {
		t.Errorf("p50 = %v, want ~0.55", p50)
	}
	if math.Abs(p90-0.91) > 0.01 {
		t.Errorf("p90 = %v, want ~0.91", p90)
	}
}

func TestComputeDistStatsUnsorted(t *testing.T) {
	values := []float64{3, 1, 2}
	_, _, p10, _, p90 := ComputeDistStats(values)
	if p10 >= p90 {
		t.Errorf("p10 %v should be below p90 %v", p10, p90)
	}
	if values[0] != 3 {
		t.Error("input slice was reordered")
	}
}

func TestComputeDistStatsEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeDistStats([]float64{})

	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.0, 0.1)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("window ticks = %d, want 10", c.WindowDurationTicks())
	}

	for i := 0; i < 4; i++ {
		c.RecordTick(TickSample{MotorFE: float64(i), PlanningPi1: 2, PredError: 0.5})
	}
	c.RecordTrial(TrialRecord{Outcome: OutcomeCaught, MinDistance: 0.2})
	c.RecordTrial(TrialRecord{Outcome: OutcomeTimeout, MinDistance: 1.0})
	c.RecordTrial(TrialRecord{Outcome: OutcomeCaught, MinDistance: 0.3})

	if c.ShouldFlush(9) {
		t.Error("should not flush before the window ends")
	}
	if !c.ShouldFlush(10) {
		t.Error("should flush at the window end")
	}

	s := c.Flush(10, 2, true)
	if s.Trials != 3 || s.Catches != 2 || s.Misses != 1 {
		t.Errorf("trials/catches/misses = %d/%d/%d, want 3/2/1", s.Trials, s.Catches, s.Misses)
	}
	if math.Abs(s.CatchRate-2.0/3.0) > 1e-9 {
		t.Errorf("catch rate = %v, want 2/3", s.CatchRate)
	}
	if math.Abs(s.MotorFE-1.5) > 1e-9 {
		t.Errorf("motor fe = %v, want 1.5", s.MotorFE)
	}
	if s.PlanningPi1 != 2 || s.PredError != 0.5 {
		t.Errorf("planning pi1 = %v, pred error = %v", s.PlanningPi1, s.PredError)
	}
	if math.Abs(s.DistMean-0.5) > 1e-9 {
		t.Errorf("dist mean = %v, want 0.5", s.DistMean)
	}
	if s.Task != 2 || !s.MotorFrozen {
		t.Errorf("task = %d, frozen = %v", s.Task, s.MotorFrozen)
	}
	if math.Abs(s.SimTimeSec-1.0) > 1e-9 {
		t.Errorf("sim time = %v, want 1.0", s.SimTimeSec)
	}

	// Next window starts empty
	if c.ShouldFlush(15) {
		t.Error("window should restart at the last flush")
	}
	next := c.Flush(20, 2, false)
	if next.Trials != 0 || next.MotorFE != 0 || next.CatchRate != 0 {
		t.Errorf("window not reset: %+v", next)
	}

	// Run totals survive flushes
	if c.TotalTrials() != 3 {
		t.Errorf("total trials = %d, want 3", c.TotalTrials())
	}
	if math.Abs(c.CatchRate()-2.0/3.0) > 1e-9 {
		t.Errorf("run catch rate = %v, want 2/3", c.CatchRate())
	}
}

func TestNewCollectorMinimumWindow(t *testing.T) {
	c := NewCollector(0.001, 0.02)
	if c.WindowDurationTicks() != 1 {
		t.Errorf("window ticks = %d, want 1", c.WindowDurationTicks())
	}
}
