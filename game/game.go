// Package game runs the interception simulation: one ball, one player, and
// the planning and motor hierarchies that drive the player.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/intercept/components"
	"github.com/pthm-cable/intercept/config"
	"github.com/pthm-cable/intercept/neural"
	"github.com/pthm-cable/intercept/precision"
	"github.com/pthm-cable/intercept/results"
	"github.com/pthm-cable/intercept/systems"
	"github.com/pthm-cable/intercept/telemetry"
)

// MaxSpeed is the largest simulation speed multiplier.
const MaxSpeed = 10

// Options configures a new game.
type Options struct {
	Seed           int64
	Headless       bool
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	OutputDir      string  // empty disables CSV output
	StepsPerUpdate int     // ticks per UpdateHeadless call
	Config         *config.Config
	StatsCallback  func(telemetry.WindowStats)
	TrialCallback  func(telemetry.TrialRecord)
	Results        *results.Store // optional; owned by the caller
	RunLabel       string
}

// Game holds the complete simulation state.
type Game struct {
	cfg *config.Config
	rng *rand.Rand

	world   *ecs.World
	bodies  *ecs.Map4[components.Position, components.Velocity, components.Body, components.Role]
	ball    ecs.Entity
	player  ecs.Entity
	physics *systems.PhysicsSystem

	motor   *neural.Motor
	planner *neural.Planner
	adapter *precision.Adapter

	// Sensory pathway
	ballPos, ballVel     *systems.DelayBuffer[r3.Vec]
	playerPos, playerVel *systems.DelayBuffer[r3.Vec]
	noise                *systems.SensoryNoise

	// Per-tick intermediates, kept for telemetry and the viewer
	ballObs   r3.Vec
	ballVObs  r3.Vec
	predicted r3.Vec
	goal      r3.Vec
	command   r3.Vec
	sample    telemetry.TickSample

	trial         trialState
	trialCount    int
	trialsInBlock int
	task          int
	manualFreeze  bool

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	results       *results.Store
	runID         string
	statsCallback func(telemetry.WindowStats)
	trialCallback func(telemetry.TrialRecord)
	logStats      bool

	// State
	tick           int32
	paused         bool
	speed          int
	stepsPerUpdate int
	headless       bool
}

// NewGameWithOptions creates a game, spawns the ball and player, and
// launches the first trial.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	motor, err := neural.NewMotor(cfg.Motor, rng)
	if err != nil {
		return nil, fmt.Errorf("motor: %w", err)
	}
	planner, err := neural.NewPlanner(cfg.Planning, rng)
	if err != nil {
		return nil, fmt.Errorf("planning: %w", err)
	}
	adapter, err := precision.New(cfg.Precision)
	if err != nil {
		return nil, err
	}

	world := ecs.NewWorld()
	a := cfg.Arena
	arena := systems.Arena{
		HalfWidth:       a.HalfWidth,
		HalfDepth:       a.HalfDepth,
		Ceiling:         a.Ceiling,
		Gravity:         a.Gravity,
		Restitution:     a.Restitution,
		Friction:        a.Friction,
		WallRestitution: a.WallRestitution,
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	delay := cfg.Sensory.DelayTicks
	g := &Game{
		cfg:            cfg,
		rng:            rng,
		world:          world,
		bodies:         ecs.NewMap4[components.Position, components.Velocity, components.Body, components.Role](world),
		physics:        systems.NewPhysicsSystem(world, arena, cfg.Physics.DT),
		motor:          motor,
		planner:        planner,
		adapter:        adapter,
		ballPos:        systems.NewDelayBuffer[r3.Vec](delay),
		ballVel:        systems.NewDelayBuffer[r3.Vec](delay),
		playerPos:      systems.NewDelayBuffer[r3.Vec](delay),
		playerVel:      systems.NewDelayBuffer[r3.Vec](delay),
		noise:          systems.NewSensoryNoise(cfg.Sensory.PosNoise, cfg.Sensory.VelNoise, uint64(opts.Seed)),
		task:           1,
		collector:      telemetry.NewCollector(statsWindow, cfg.Physics.DT),
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		results:        opts.Results,
		statsCallback:  opts.StatsCallback,
		trialCallback:  opts.TrialCallback,
		logStats:       opts.LogStats,
		speed:          1,
		stepsPerUpdate: steps,
		headless:       opts.Headless,
	}

	g.spawnEntities()

	if err := g.openOutputs(opts); err != nil {
		return nil, err
	}

	g.applyFreeze()
	g.startTrial()

	slog.Info("game created",
		"seed", opts.Seed,
		"run_id", g.runID,
		"tasks", planner.NumTasks(),
		"delay_ticks", delay,
		"headless", opts.Headless,
	)

	return g, nil
}

// spawnEntities creates the ball and the player.
func (g *Game) spawnEntities() {
	c := g.cfg
	ballPos := components.Position{X: c.Ball.LaunchX, Y: c.Ball.LaunchY, Z: c.Ball.LaunchZ}
	ballVel := components.Velocity{}
	ballBody := components.Body{Radius: c.Ball.Radius}
	ballRole := components.Role{Kind: components.KindBall}
	g.ball = g.bodies.NewEntity(&ballPos, &ballVel, &ballBody, &ballRole)

	playerPos := components.Position{X: c.Player.StartX, Y: c.Player.StartY}
	playerVel := components.Velocity{}
	playerBody := components.Body{Radius: c.Player.Radius}
	playerRole := components.Role{Kind: components.KindPlayer}
	g.player = g.bodies.NewEntity(&playerPos, &playerVel, &playerBody, &playerRole)
}

// openOutputs sets up CSV output and the results store run.
func (g *Game) openOutputs(opts Options) error {
	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return err
	}
	g.outputManager = om
	if err := om.WriteConfig(g.cfg); err != nil {
		om.Close()
		return fmt.Errorf("writing config snapshot: %w", err)
	}

	if g.results != nil {
		id, err := g.results.CreateRun(om.RunID(), opts.Seed, opts.RunLabel)
		if err != nil {
			om.Close()
			return err
		}
		g.runID = id
	} else {
		g.runID = om.RunID()
	}
	return nil
}

// Update runs speed ticks unless paused. Used by the viewer loop.
func (g *Game) Update() {
	if g.paused {
		return
	}
	for i := 0; i < g.speed; i++ {
		g.step()
	}
}

// UpdateHeadless runs StepsPerUpdate ticks without rendering.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// Unload flushes outputs and records the run result.
func (g *Game) Unload() {
	if g.results != nil && g.runID != "" {
		if err := g.results.FinishRun(g.runID, g.tick, g.collector.CatchRate()); err != nil {
			slog.Error("failed to finish run", "error", err)
		}
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	slog.Info("game finished",
		"run_id", g.runID,
		"tick", g.tick,
		"trials", g.collector.TotalTrials(),
		"catch_rate", g.collector.CatchRate(),
	)
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 { return g.tick }

// Task returns the active task index (1-based).
func (g *Game) Task() int { return g.task }

// Trials returns how many trials have finished.
func (g *Game) Trials() int { return g.trialCount }

// CatchRate returns the catch rate over all finished trials.
func (g *Game) CatchRate() float64 { return g.collector.CatchRate() }

// RunID returns the run identifier, empty when neither output nor results are enabled.
func (g *Game) RunID() string { return g.runID }

// Motor returns the motor hierarchy.
func (g *Game) Motor() *neural.Motor { return g.motor }

// Planner returns the planning hierarchy.
func (g *Game) Planner() *neural.Planner { return g.planner }

// Config returns the configuration the game runs with.
func (g *Game) Config() *config.Config { return g.cfg }
