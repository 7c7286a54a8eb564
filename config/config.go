// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/intercept/neural"
	"github.com/pthm-cable/intercept/precision"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig         `yaml:"screen"`
	Arena     ArenaConfig          `yaml:"arena"`
	Physics   PhysicsConfig        `yaml:"physics"`
	Ball      BallConfig           `yaml:"ball"`
	Player    PlayerConfig         `yaml:"player"`
	Catch     CatchConfig          `yaml:"catch"`
	Sensory   SensoryConfig        `yaml:"sensory"`
	Motor     neural.MotorConfig   `yaml:"motor"`
	Planning  neural.PlannerConfig `yaml:"planning"`
	Precision precision.Config     `yaml:"precision"`
	Tasks     TasksConfig          `yaml:"tasks"`
	Telemetry TelemetryConfig      `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// ArenaConfig describes the box the ball and player live in.
// x and y are horizontal, z is up; the ground is z = 0.
type ArenaConfig struct {
	HalfWidth       float64 `yaml:"half_width"` // |x| limit
	HalfDepth       float64 `yaml:"half_depth"` // |y| limit
	Ceiling         float64 `yaml:"ceiling"`
	Gravity         float64 `yaml:"gravity"`
	Restitution     float64 `yaml:"restitution"`      // vertical speed kept on a ground bounce
	Friction        float64 `yaml:"friction"`         // horizontal speed kept on a ground bounce
	WallRestitution float64 `yaml:"wall_restitution"` // normal speed kept on a wall bounce
}

// PhysicsConfig holds the integrator step.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"` // seconds per tick
}

// BallConfig holds ball parameters.
type BallConfig struct {
	Radius  float64    `yaml:"radius"`
	LaunchX float64    `yaml:"launch_x"`
	LaunchY float64    `yaml:"launch_y"`
	LaunchZ float64    `yaml:"launch_z"`
	Aim     [2]float64 `yaml:"aim"` // ground point the launch azimuth is centred on
}

// PlayerConfig holds player parameters.
type PlayerConfig struct {
	Radius      float64 `yaml:"radius"`
	StartX      float64 `yaml:"start_x"`
	StartY      float64 `yaml:"start_y"`
	ReachHeight float64 `yaml:"reach_height"` // height of the catching hand above the ground
}

// CatchConfig holds trial outcome parameters.
type CatchConfig struct {
	Radius       float64 `yaml:"radius"`        // hand-to-ball distance that counts as a catch
	TrialTimeout float64 `yaml:"trial_timeout"` // seconds before a trial is scored a miss
	RestSpeed    float64 `yaml:"rest_speed"`    // ball speed on the ground below which it is at rest
}

// SensoryConfig holds visuomotor latency and noise.
type SensoryConfig struct {
	DelayTicks int     `yaml:"delay_ticks"`
	PosNoise   float64 `yaml:"pos_noise"` // position noise sigma (0 disables)
	VelNoise   float64 `yaml:"vel_noise"` // velocity noise sigma (0 disables)
	Bias       float32 `yaml:"bias"`      // constant written into the motor bias slot
}

// LaunchProfile describes how balls are launched during one task.
type LaunchProfile struct {
	Name          string  `yaml:"name"`
	SpeedMin      float64 `yaml:"speed_min"`
	SpeedMax      float64 `yaml:"speed_max"`
	ElevationMin  float64 `yaml:"elevation_min"`  // degrees above horizontal
	ElevationMax  float64 `yaml:"elevation_max"`  // degrees above horizontal
	AzimuthSpread float64 `yaml:"azimuth_spread"` // degrees either side of the aim line
}

// TasksConfig holds the task schedule. Task i (1-based) launches with
// Profiles[i-1] and trains planning weight set i.
type TasksConfig struct {
	TrialsPerBlock  int             `yaml:"trials_per_block"`
	FreezeMotorTask int             `yaml:"freeze_motor_task"` // task during which motor learning is frozen (0 = never)
	Profiles        []LaunchProfile `yaml:"profiles"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds per stats window
	PerfWindow  int     `yaml:"perf_window"`  // ticks in the perf rolling window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TrialTimeoutTicks int32
	StatsWindowTicks  int32
	NumTasks          int
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks every section. Hierarchy and precision sections are
// delegated to their packages.
func (c *Config) Validate() error {
	if err := c.Motor.Validate(); err != nil {
		return fmt.Errorf("motor: %w", err)
	}
	if err := c.Planning.Validate(); err != nil {
		return fmt.Errorf("planning: %w", err)
	}
	if err := c.Precision.Validate(); err != nil {
		return err
	}

	a := c.Arena
	switch {
	case c.Physics.DT <= 0:
		return fmt.Errorf("physics.dt must be > 0, got %v", c.Physics.DT)
	case a.HalfWidth <= 0 || a.HalfDepth <= 0 || a.Ceiling <= 0:
		return fmt.Errorf("arena dimensions must be > 0")
	case a.Gravity < 0:
		return fmt.Errorf("arena.gravity must be >= 0, got %v", a.Gravity)
	case !unit(a.Restitution) || !unit(a.Friction) || !unit(a.WallRestitution):
		return fmt.Errorf("arena restitution and friction must be in [0,1]")
	case c.Ball.Radius <= 0 || c.Player.Radius <= 0:
		return fmt.Errorf("ball and player radius must be > 0")
	case c.Catch.Radius <= 0:
		return fmt.Errorf("catch.radius must be > 0, got %v", c.Catch.Radius)
	case c.Catch.TrialTimeout <= 0:
		return fmt.Errorf("catch.trial_timeout must be > 0, got %v", c.Catch.TrialTimeout)
	case c.Sensory.DelayTicks < 0:
		return fmt.Errorf("sensory.delay_ticks must be >= 0, got %d", c.Sensory.DelayTicks)
	case c.Sensory.PosNoise < 0 || c.Sensory.VelNoise < 0:
		return fmt.Errorf("sensory noise must be >= 0")
	case c.Tasks.TrialsPerBlock < 1:
		return fmt.Errorf("tasks.trials_per_block must be >= 1, got %d", c.Tasks.TrialsPerBlock)
	case len(c.Tasks.Profiles) != c.Planning.NTasks:
		return fmt.Errorf("tasks.profiles has %d entries, planning.n_tasks is %d", len(c.Tasks.Profiles), c.Planning.NTasks)
	case c.Tasks.FreezeMotorTask < 0 || c.Tasks.FreezeMotorTask > c.Planning.NTasks:
		return fmt.Errorf("tasks.freeze_motor_task %d outside [0,%d]", c.Tasks.FreezeMotorTask, c.Planning.NTasks)
	}

	for i, p := range c.Tasks.Profiles {
		if p.SpeedMin <= 0 || p.SpeedMax < p.SpeedMin {
			return fmt.Errorf("tasks.profiles[%d] (%s): need 0 < speed_min <= speed_max", i, p.Name)
		}
		if p.ElevationMin < 0 || p.ElevationMax > 90 || p.ElevationMax < p.ElevationMin {
			return fmt.Errorf("tasks.profiles[%d] (%s): need 0 <= elevation_min <= elevation_max <= 90", i, p.Name)
		}
		if p.AzimuthSpread < 0 {
			return fmt.Errorf("tasks.profiles[%d] (%s): azimuth_spread must be >= 0", i, p.Name)
		}
	}
	return nil
}

func unit(x float64) bool { return x >= 0 && x <= 1 }

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.TrialTimeoutTicks = int32(c.Catch.TrialTimeout / c.Physics.DT)
	if c.Derived.TrialTimeoutTicks < 1 {
		c.Derived.TrialTimeoutTicks = 1
	}
	c.Derived.StatsWindowTicks = int32(c.Telemetry.StatsWindow / c.Physics.DT)
	if c.Derived.StatsWindowTicks < 1 {
		c.Derived.StatsWindowTicks = 1
	}
	c.Derived.NumTasks = c.Planning.NTasks
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Clone returns a deep copy, used to give each optimizer evaluation its
// own configuration.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Tasks.Profiles = append([]LaunchProfile(nil), c.Tasks.Profiles...)
	return &cp
}
