package game

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/intercept/config"
	"github.com/pthm-cable/intercept/systems"
	"github.com/pthm-cable/intercept/telemetry"
)

// trialState tracks the launch in progress.
type trialState struct {
	startTick   int32
	minDistance float64
	speed       float64
	elevation   float64
	azimuth     float64
}

// profile returns the launch profile of the active task.
func (g *Game) profile() config.LaunchProfile {
	return g.cfg.Tasks.Profiles[g.task-1]
}

// startTrial resets the ball, player and beliefs and launches a new ball
// from the active task's profile.
func (g *Game) startTrial() {
	c := g.cfg
	p := g.profile()

	speed := uniform(g.rng.Float64(), p.SpeedMin, p.SpeedMax)
	elevation := uniform(g.rng.Float64(), p.ElevationMin, p.ElevationMax)
	azimuth := g.aimAzimuth() + uniform(g.rng.Float64(), -p.AzimuthSpread, p.AzimuthSpread)

	bp, bv, _, _ := g.bodies.Get(g.ball)
	bp.Set(r3.Vec{X: c.Ball.LaunchX, Y: c.Ball.LaunchY, Z: c.Ball.LaunchZ})
	bv.Set(systems.LaunchVelocity(speed, elevation, azimuth))

	pp, pv, _, _ := g.bodies.Get(g.player)
	pp.Set(r3.Vec{X: c.Player.StartX, Y: c.Player.StartY})
	pv.Set(r3.Vec{})

	g.ballPos.Reset()
	g.ballVel.Reset()
	g.playerPos.Reset()
	g.playerVel.Reset()

	g.motor.ResetState()
	g.motor.ClearTarget()
	g.planner.ResetState()

	g.trial = trialState{
		startTick:   g.tick,
		minDistance: math.Inf(1),
		speed:       speed,
		elevation:   elevation,
		azimuth:     azimuth,
	}
}

// aimAzimuth returns the azimuth, in degrees, from the launch point to the aim point.
func (g *Game) aimAzimuth() float64 {
	b := g.cfg.Ball
	return math.Atan2(b.Aim[1]-b.LaunchY, b.Aim[0]-b.LaunchX) * 180 / math.Pi
}

func uniform(u, lo, hi float64) float64 { return lo + u*(hi-lo) }

// updateTrial scores the trial in progress and relaunches when it ends.
func (g *Game) updateTrial() {
	outcome, done := g.trialOutcome()
	if !done {
		return
	}
	g.endTrial(outcome)
	g.startTrial()
}

// trialOutcome checks the end conditions in order: catch, ball at rest, timeout.
func (g *Game) trialOutcome() (string, bool) {
	bp, bv, body, _ := g.bodies.Get(g.ball)
	ball := bp.Vec()

	d := r3.Norm(r3.Sub(ball, g.hand()))
	if d < g.trial.minDistance {
		g.trial.minDistance = d
	}

	switch {
	case systems.Intercepted(ball, g.hand(), g.cfg.Catch.Radius):
		return telemetry.OutcomeCaught, true
	case systems.OnGround(ball, bv.Vec(), body.Radius) && r3.Norm(bv.Vec()) < g.cfg.Catch.RestSpeed:
		return telemetry.OutcomeRest, true
	case g.tick+1-g.trial.startTick >= g.cfg.Derived.TrialTimeoutTicks:
		return telemetry.OutcomeTimeout, true
	}
	return "", false
}

// endTrial records the finished trial and advances the task schedule.
func (g *Game) endTrial(outcome string) {
	g.trialCount++
	rec := telemetry.TrialRecord{
		Trial:       g.trialCount,
		Task:        g.task,
		Profile:     g.profile().Name,
		StartTick:   g.trial.startTick,
		EndTick:     g.tick + 1,
		Outcome:     outcome,
		MinDistance: g.trial.minDistance,
		LaunchSpeed: g.trial.speed,
		Elevation:   g.trial.elevation,
		Azimuth:     g.trial.azimuth,
		MotorFrozen: g.motor.Frozen(),
	}
	g.recordTrial(rec)

	g.trialsInBlock++
	if g.trialsInBlock >= g.cfg.Tasks.TrialsPerBlock {
		g.trialsInBlock = 0
		g.switchTask(g.task%g.planner.NumTasks() + 1)
	}
}

// switchTask activates a planning weight set and its launch profile.
func (g *Game) switchTask(task int) {
	if task == g.task {
		return
	}
	if err := g.planner.SetTask(task); err != nil {
		slog.Error("task switch failed", "task", task, "error", err)
		return
	}
	prev := g.task
	g.task = task
	g.applyFreeze()
	slog.Info("task switch",
		"tick", g.tick,
		"from", prev,
		"to", task,
		"profile", g.profile().Name,
		"motor_frozen", g.motor.Frozen(),
	)
}

// applyFreeze freezes the motor hierarchy during the configured task block
// or while frozen by hand.
func (g *Game) applyFreeze() {
	freeze := g.manualFreeze || (g.cfg.Tasks.FreezeMotorTask != 0 && g.task == g.cfg.Tasks.FreezeMotorTask)
	if freeze {
		g.motor.Freeze()
	} else {
		g.motor.Unfreeze()
	}
}
