package game

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/intercept/systems"
	"github.com/pthm-cable/intercept/telemetry"
)

// View is a read-only snapshot of the state the viewer draws.
type View struct {
	Tick        int32
	Arena       systems.Arena
	Ball        r3.Vec
	BallRadius  float64
	Player      r3.Vec
	Hand        r3.Vec
	CatchRadius float64
	Observed    r3.Vec // delayed, noisy ball position
	Predicted   r3.Vec // planner's ball estimate
	Goal        r3.Vec
	Command     r3.Vec

	Task           int
	Profile        string
	Trial          int
	CatchRate      float64
	MotorFrozen    bool
	PlanningFrozen bool
	Paused         bool
	Speed          int
	Sample         telemetry.TickSample
}

// View returns a snapshot of the current state.
func (g *Game) View() View {
	bp, _, bb, _ := g.bodies.Get(g.ball)
	pp, _, _, _ := g.bodies.Get(g.player)
	return View{
		Tick:           g.tick,
		Arena:          g.physics.Arena(),
		Ball:           bp.Vec(),
		BallRadius:     bb.Radius,
		Player:         pp.Vec(),
		Hand:           g.hand(),
		CatchRadius:    g.cfg.Catch.Radius,
		Observed:       g.ballObs,
		Predicted:      g.predicted,
		Goal:           g.goal,
		Command:        g.command,
		Task:           g.task,
		Profile:        g.profile().Name,
		Trial:          g.trialCount + 1,
		CatchRate:      g.collector.CatchRate(),
		MotorFrozen:    g.motor.Frozen(),
		PlanningFrozen: g.planner.Frozen(),
		Paused:         g.paused,
		Speed:          g.speed,
		Sample:         g.sample,
	}
}

// TogglePause pauses or resumes Update.
func (g *Game) TogglePause() { g.paused = !g.paused }

// Paused reports whether Update is paused.
func (g *Game) Paused() bool { return g.paused }

// ToggleMotorFreeze freezes or unfreezes motor learning by hand. The
// scheduled freeze block still applies while unfrozen by hand.
func (g *Game) ToggleMotorFreeze() {
	g.manualFreeze = !g.manualFreeze
	g.applyFreeze()
}

// TogglePlanningFreeze freezes or unfreezes planning learning. No task
// block freezes the planner, so this is the only switch.
func (g *Game) TogglePlanningFreeze() {
	if g.planner.Frozen() {
		g.planner.Unfreeze()
	} else {
		g.planner.Freeze()
	}
}

// SetSpeed sets ticks per Update, clamped to [1, MaxSpeed].
func (g *Game) SetSpeed(n int) {
	g.speed = max(1, min(n, MaxSpeed))
}

// Speed returns ticks per Update.
func (g *Game) Speed() int { return g.speed }
