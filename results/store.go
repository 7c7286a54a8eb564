// Package results persists run and optimizer outcomes in SQLite.
package results

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/intercept/telemetry"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	seed        INTEGER NOT NULL,
	label       TEXT,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	ticks       INTEGER,
	catch_rate  REAL
);

CREATE TABLE IF NOT EXISTS trials (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	trial        INTEGER NOT NULL,
	task         INTEGER NOT NULL,
	profile      TEXT NOT NULL,
	start_tick   INTEGER NOT NULL,
	end_tick     INTEGER NOT NULL,
	outcome      TEXT NOT NULL,
	min_distance REAL NOT NULL,
	launch_speed REAL NOT NULL,
	elevation    REAL NOT NULL,
	azimuth      REAL NOT NULL,
	motor_frozen INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS trials_run ON trials(run_id, task);

CREATE TABLE IF NOT EXISTS evaluations (
	eval_id       TEXT PRIMARY KEY,
	study         TEXT NOT NULL,
	fitness       REAL NOT NULL,
	catch_rate    REAL NOT NULL,
	mean_distance REAL NOT NULL,
	params_json   TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
`

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("results: not found")

// Store manages run results in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database and creates the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Pragmas are per connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Run is one simulation run.
type Run struct {
	RunID      string
	Seed       int64
	Label      string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress
	Ticks      int32
	CatchRate  float64
}

// CreateRun records the start of a run. An empty runID gets a fresh uuid.
func (s *Store) CreateRun(runID string, seed int64, label string) (string, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, seed, label, started_at) VALUES (?, ?, ?, ?)`,
		runID, seed, label, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

// FinishRun records the final tick count and catch rate.
func (s *Store) FinishRun(runID string, ticks int32, catchRate float64) error {
	res, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, ticks = ?, catch_rate = ? WHERE run_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), ticks, catchRate, runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// GetRun loads one run.
func (s *Store) GetRun(runID string) (Run, error) {
	var (
		r        Run
		label    sql.NullString
		started  string
		finished sql.NullString
		ticks    sql.NullInt64
		rate     sql.NullFloat64
	)
	err := s.db.QueryRow(
		`SELECT run_id, seed, label, started_at, finished_at, ticks, catch_rate FROM runs WHERE run_id = ?`,
		runID,
	).Scan(&r.RunID, &r.Seed, &label, &started, &finished, &ticks, &rate)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	r.Label = label.String
	r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	if finished.Valid {
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
	}
	r.Ticks = int32(ticks.Int64)
	r.CatchRate = rate.Float64
	return r, nil
}

const insertTrial = `INSERT INTO trials
	(run_id, trial, task, profile, start_tick, end_tick, outcome, min_distance, launch_speed, elevation, azimuth, motor_frozen)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func trialArgs(runID string, r telemetry.TrialRecord) []any {
	frozen := 0
	if r.MotorFrozen {
		frozen = 1
	}
	return []any{
		runID, r.Trial, r.Task, r.Profile, r.StartTick, r.EndTick, r.Outcome,
		r.MinDistance, r.LaunchSpeed, r.Elevation, r.Azimuth, frozen,
	}
}

// InsertTrial records one finished trial.
func (s *Store) InsertTrial(runID string, r telemetry.TrialRecord) error {
	if _, err := s.db.Exec(insertTrial, trialArgs(runID, r)...); err != nil {
		return fmt.Errorf("insert trial: %w", err)
	}
	return nil
}

// InsertTrials records a batch of trials in one transaction.
func (s *Store) InsertTrials(runID string, records []telemetry.TrialRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertTrial)
	if err != nil {
		return fmt.Errorf("prepare trial: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(trialArgs(runID, r)...); err != nil {
			return fmt.Errorf("insert trial %d: %w", r.Trial, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// TaskSummary aggregates the trials of one task within a run.
type TaskSummary struct {
	Task         int
	Trials       int
	Catches      int
	CatchRate    float64
	MeanDistance float64
}

// TaskSummaries returns per-task aggregates for a run, ordered by task.
func (s *Store) TaskSummaries(runID string) ([]TaskSummary, error) {
	rows, err := s.db.Query(
		`SELECT task, COUNT(*), SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), AVG(min_distance)
		 FROM trials WHERE run_id = ? GROUP BY task ORDER BY task`,
		telemetry.OutcomeCaught, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var out []TaskSummary
	for rows.Next() {
		var ts TaskSummary
		if err := rows.Scan(&ts.Task, &ts.Trials, &ts.Catches, &ts.MeanDistance); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if ts.Trials > 0 {
			ts.CatchRate = float64(ts.Catches) / float64(ts.Trials)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// Evaluation is one optimizer fitness evaluation.
type Evaluation struct {
	EvalID       string
	Study        string
	Fitness      float64
	CatchRate    float64
	MeanDistance float64
	Params       map[string]float64
	CreatedAt    time.Time
}

// InsertEvaluation records an optimizer evaluation. An empty EvalID gets a fresh uuid.
func (s *Store) InsertEvaluation(e Evaluation) (string, error) {
	if e.EvalID == "" {
		e.EvalID = uuid.NewString()
	}
	params, err := json.Marshal(e.Params)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO evaluations (eval_id, study, fitness, catch_rate, mean_distance, params_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.EvalID, e.Study, e.Fitness, e.CatchRate, e.MeanDistance, string(params),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert evaluation: %w", err)
	}
	return e.EvalID, nil
}

// BestEvaluations returns the lowest-fitness evaluations of a study.
func (s *Store) BestEvaluations(study string, limit int) ([]Evaluation, error) {
	rows, err := s.db.Query(
		`SELECT eval_id, study, fitness, catch_rate, mean_distance, params_json, created_at
		 FROM evaluations WHERE study = ? ORDER BY fitness ASC, mean_distance ASC LIMIT ?`,
		study, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		var (
			e       Evaluation
			params  string
			created string
		)
		if err := rows.Scan(&e.EvalID, &e.Study, &e.Fitness, &e.CatchRate, &e.MeanDistance, &params, &created); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &e.Params); err != nil {
			return nil, fmt.Errorf("unmarshal params: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
