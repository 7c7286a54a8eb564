package game

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/intercept/neural"
	"github.com/pthm-cable/intercept/precision"
	"github.com/pthm-cable/intercept/telemetry"
)

// step runs a single tick. Planning always runs before motor.
func (g *Game) step() {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseObserve)
	playerObs, playerVObs := g.observe()

	g.perfCollector.StartPhase(telemetry.PhasePlanning)
	g.updatePlanning()

	g.perfCollector.StartPhase(telemetry.PhaseMotor)
	g.updateMotor(playerObs, playerVObs)

	g.perfCollector.StartPhase(telemetry.PhasePrecision)
	g.updatePrecision()

	g.perfCollector.StartPhase(telemetry.PhasePhysics)
	g.applyCommand()
	g.physics.Update()

	g.perfCollector.StartPhase(telemetry.PhaseTrials)
	g.updateTrial()

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.recordTick()
	g.flushTelemetry()

	g.perfCollector.EndTick()
	g.tick++
}

// observe pushes the true ball and player state through the delay lines and
// adds sensory noise. The ball observation is stored for planning; the
// player's own state is returned for the motor hierarchy.
func (g *Game) observe() (pos, vel r3.Vec) {
	bp, bv, _, _ := g.bodies.Get(g.ball)
	pp, pv, _, _ := g.bodies.Get(g.player)

	g.ballObs = g.noise.Position(g.ballPos.Push(bp.Vec()))
	g.ballVObs = g.noise.Velocity(g.ballVel.Push(bv.Vec()))
	pos = g.noise.Position(g.playerPos.Push(pp.Vec()))
	vel = g.noise.Velocity(g.playerVel.Push(pv.Vec()))
	return pos, vel
}

// updatePlanning infers the ball position and derives the player's goal.
func (g *Game) updatePlanning() {
	g.planner.SetTargetObservation(g.ballObs)
	g.planner.Step(g.planner.Observation())
	g.predicted = g.planner.PredictTargetPosition()

	// Lead the prediction by the sensory delay, then project to the ground.
	lead := float64(g.cfg.Sensory.DelayTicks) * g.cfg.Physics.DT
	goal := r3.Add(g.predicted, r3.Scale(lead, g.ballVObs))
	goal.Z = 0
	g.goal = goal
}

// updateMotor steps the motor hierarchy toward the goal and extracts the command.
func (g *Game) updateMotor(pos, vel r3.Vec) {
	g.motor.SetPositionObservation(pos)
	g.motor.SetVelocityObservation(vel)
	g.motor.SetBiasObservation(g.cfg.Sensory.Bias)
	g.motor.SetTargetPosition(g.goal)
	g.motor.Step(g.motor.Observation())
	g.command = g.motor.ExtractMotorCommand()
}

// updatePrecision rescales every channel's precision from its error history.
func (g *Game) updatePrecision() {
	g.sample.MotorRMSL1, g.sample.MotorRMSL2 = adaptHierarchy(g.adapter, g.motor.Hierarchy, precision.MotorL1, precision.MotorL2)
	g.sample.PlanningRMSL1, g.sample.PlanningRMSL2 = adaptHierarchy(g.adapter, g.planner.Hierarchy, precision.PlanningL1, precision.PlanningL2)
	g.adapter.StepHistory()
}

// adaptHierarchy adapts both layers of h and returns their smoothed RMS errors.
func adaptHierarchy(a *precision.Adapter, h *neural.Hierarchy, l1, l2 precision.Channel) (float64, float64) {
	pi1, pi2 := h.Precision()
	a.Adapt(l1, pi1, h.State.E1)
	a.Adapt(l2, pi2, h.State.E2)
	h.SetPrecision(pi1, pi2)
	return float64(a.Smoothed(l1)), float64(a.Smoothed(l2))
}

// applyCommand sets the player's velocity from the motor command.
func (g *Game) applyCommand() {
	_, vel, _, _ := g.bodies.Get(g.player)
	cmd := g.command
	cmd.Z = 0
	vel.Set(cmd)
}

// hand returns the catching point above the player.
func (g *Game) hand() r3.Vec {
	pos, _, _, _ := g.bodies.Get(g.player)
	h := pos.Vec()
	h.Z = g.cfg.Player.ReachHeight
	return h
}
