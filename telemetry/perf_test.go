package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhasePlanning)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseMotor)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.Ticks != 5 {
		t.Errorf("ticks = %d, want 5", stats.Ticks)
	}
	if stats.AvgTick <= 0 {
		t.Error("expected positive average tick duration")
	}
	if stats.PhaseAvg[PhasePlanning] <= 0 || stats.PhaseAvg[PhaseMotor] <= 0 {
		t.Errorf("phase averages not tracked: %v", stats.PhaseAvg)
	}
	if stats.PhaseAvg[PhasePhysics] != 0 {
		t.Errorf("physics never ran, got %v", stats.PhaseAvg[PhasePhysics])
	}
	if stats.P90Tick < stats.AvgTick/2 || stats.MaxTick < stats.P90Tick {
		t.Errorf("p90 %v / max %v inconsistent with avg %v", stats.P90Tick, stats.MaxTick, stats.AvgTick)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseObserve)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.Ticks != 5 {
		t.Errorf("window holds %d ticks, want 5", stats.Ticks)
	}
	if stats.AvgTick <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhasePrecision)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhasePhysics)
		time.Sleep(2 * time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	fast := stats.PhasePct[PhasePrecision]
	slow := stats.PhasePct[PhasePhysics]
	if slow <= fast {
		t.Errorf("expected physics (%v%%) > precision (%v%%)", slow, fast)
	}
	if slow > 100.5 {
		t.Errorf("phase share %v%% exceeds the tick", slow)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()
	if stats.AvgTick != 0 || stats.Ticks != 0 {
		t.Errorf("expected zero stats for empty collector, got %+v", stats)
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseTelemetry.String() != "telemetry" {
		t.Errorf("PhaseTelemetry = %q", PhaseTelemetry)
	}
	if Phase(99).String() != "unknown" {
		t.Errorf("Phase(99) = %q", Phase(99))
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	var s PerfStats
	s.AvgTick = 250 * time.Microsecond
	s.PhasePct[PhaseMotor] = 40
	s.PhasePct[PhasePhysics] = 10

	row := s.ToCSV(600)
	if row.WindowEnd != 600 || row.AvgTickUS != 250 {
		t.Errorf("window_end = %d, avg_tick_us = %d", row.WindowEnd, row.AvgTickUS)
	}
	if row.MotorPct != 40 || row.PhysicsPct != 10 || row.PlanningPct != 0 {
		t.Errorf("phase pct = motor %v physics %v planning %v", row.MotorPct, row.PhysicsPct, row.PlanningPct)
	}
}
