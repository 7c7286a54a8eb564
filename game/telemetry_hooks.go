package game

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/intercept/telemetry"
)

// recordTick samples energies, precisions and the planner's error.
func (g *Game) recordTick() {
	s := &g.sample
	s.MotorFE = g.motor.FreeEnergy()
	s.PlanningFE = g.planner.FreeEnergy()
	s.MotorPE = g.motor.PredictionErrorEnergy()
	s.PlanningPE = g.planner.PredictionErrorEnergy()

	mp1, mp2 := g.motor.Precision()
	pp1, pp2 := g.planner.Precision()
	s.MotorPi1, s.MotorPi2 = mean32(mp1), mean32(mp2)
	s.PlanningPi1, s.PlanningPi2 = mean32(pp1), mean32(pp2)

	bp, _, _, _ := g.bodies.Get(g.ball)
	s.PredError = r3.Norm(r3.Sub(g.predicted, bp.Vec()))

	g.collector.RecordTick(*s)
}

// recordTrial fans a finished trial out to the collector, callbacks and sinks.
func (g *Game) recordTrial(rec telemetry.TrialRecord) {
	g.collector.RecordTrial(rec)

	if g.trialCallback != nil {
		g.trialCallback(rec)
	}
	if g.logStats {
		slog.Info("trial", "trial", rec)
	}
	if err := g.outputManager.WriteTrial(rec); err != nil {
		slog.Error("failed to write trial", "error", err)
	}
	if g.results != nil {
		if err := g.results.InsertTrial(g.runID, rec); err != nil {
			slog.Error("failed to store trial", "error", err)
		}
	}
}

// flushTelemetry checks if the stats window should be flushed.
func (g *Game) flushTelemetry() {
	// The tick counter advances after this phase
	now := g.tick + 1
	if !g.collector.ShouldFlush(now) {
		return
	}

	stats := g.collector.Flush(now, g.task, g.motor.Frozen())
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

func mean32(xs []float32) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += float64(x)
	}
	return sum / float64(len(xs))
}
