package telemetry

import "log/slog"

// Trial outcomes.
const (
	OutcomeCaught  = "caught"
	OutcomeTimeout = "timeout"
	OutcomeRest    = "rest" // ball came to rest on the ground
)

// TrialRecord describes one finished launch.
type TrialRecord struct {
	Trial       int     `csv:"trial"`
	Task        int     `csv:"task"`
	Profile     string  `csv:"profile"`
	StartTick   int32   `csv:"start_tick"`
	EndTick     int32   `csv:"end_tick"`
	Outcome     string  `csv:"outcome"`
	MinDistance float64 `csv:"min_distance"` // closest hand-to-ball approach
	LaunchSpeed float64 `csv:"launch_speed"`
	Elevation   float64 `csv:"elevation"`
	Azimuth     float64 `csv:"azimuth"`
	MotorFrozen bool    `csv:"motor_frozen"`
}

// Caught reports whether the trial ended in a catch.
func (r TrialRecord) Caught() bool { return r.Outcome == OutcomeCaught }

// Ticks returns the trial length.
func (r TrialRecord) Ticks() int32 { return r.EndTick - r.StartTick }

// LogValue implements slog.LogValuer for structured logging.
func (r TrialRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("trial", r.Trial),
		slog.Int("task", r.Task),
		slog.String("profile", r.Profile),
		slog.String("outcome", r.Outcome),
		slog.Int("ticks", int(r.Ticks())),
		slog.Float64("min_distance", r.MinDistance),
	)
}
