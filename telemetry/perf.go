package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one stage of a simulation tick.
type Phase int

// Tick phases in execution order.
const (
	PhaseObserve Phase = iota
	PhasePlanning
	PhaseMotor
	PhasePrecision
	PhasePhysics
	PhaseTrials
	PhaseTelemetry
	NumPhases
)

var phaseNames = [NumPhases]string{
	"observe", "planning", "motor", "precision", "physics", "trials", "telemetry",
}

func (p Phase) String() string {
	if p < 0 || p >= NumPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// tickTiming is the timing of one tick.
type tickTiming struct {
	total  time.Duration
	phases [NumPhases]time.Duration
}

// PerfCollector times tick phases over a rolling window of ticks.
type PerfCollector struct {
	ring    []tickTiming
	next    int
	filled  int
	current tickTiming

	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
}

// NewPerfCollector creates a collector averaging over window ticks.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 120
	}
	return &PerfCollector{ring: make([]tickTiming, window)}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = tickTiming{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase >= 0 && p.phase < NumPhases {
		p.current.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// EndTick closes the running phase and stores the tick in the window.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.current.total = now.Sub(p.tickStart)

	p.ring[p.next] = p.current
	p.next = (p.next + 1) % len(p.ring)
	if p.filled < len(p.ring) {
		p.filled++
	}
}

// PerfStats aggregates the window.
type PerfStats struct {
	AvgTick        time.Duration
	P90Tick        time.Duration
	MaxTick        time.Duration
	TicksPerSecond float64
	Ticks          int

	PhaseAvg [NumPhases]time.Duration
	PhasePct [NumPhases]float64 // share of the average tick, 0-100
}

// Stats summarizes the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	var s PerfStats
	if p.filled == 0 {
		return s
	}
	s.Ticks = p.filled

	totals := make([]float64, p.filled)
	var phaseSum [NumPhases]time.Duration
	for i, t := range p.ring[:p.filled] {
		totals[i] = float64(t.total)
		for ph, d := range t.phases {
			phaseSum[ph] += d
		}
	}

	s.AvgTick = time.Duration(stat.Mean(totals, nil))
	slices.Sort(totals)
	s.P90Tick = time.Duration(Percentile(totals, 0.9))
	s.MaxTick = time.Duration(totals[len(totals)-1])
	if s.AvgTick > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTick)
	}

	n := time.Duration(p.filled)
	for ph := range NumPhases {
		s.PhaseAvg[ph] = phaseSum[ph] / n
		if s.AvgTick > 0 {
			s.PhasePct[ph] = 100 * float64(s.PhaseAvg[ph]) / float64(s.AvgTick)
		}
	}
	return s
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("p90_tick_us", s.P90Tick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
	}
	for ph := range NumPhases {
		if s.PhasePct[ph] >= 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(s.PhasePct[ph]*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// LogStats logs the window summary.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	P90TickUS    int64   `csv:"p90_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	ObservePct   float64 `csv:"observe_pct"`
	PlanningPct  float64 `csv:"planning_pct"`
	MotorPct     float64 `csv:"motor_pct"`
	PrecisionPct float64 `csv:"precision_pct"`
	PhysicsPct   float64 `csv:"physics_pct"`
	TrialsPct    float64 `csv:"trials_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for gocsv.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTick.Microseconds(),
		P90TickUS:    s.P90Tick.Microseconds(),
		MaxTickUS:    s.MaxTick.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		ObservePct:   s.PhasePct[PhaseObserve],
		PlanningPct:  s.PhasePct[PhasePlanning],
		MotorPct:     s.PhasePct[PhaseMotor],
		PrecisionPct: s.PhasePct[PhasePrecision],
		PhysicsPct:   s.PhasePct[PhasePhysics],
		TrialsPct:    s.PhasePct[PhaseTrials],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
