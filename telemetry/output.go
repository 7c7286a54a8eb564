package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/pthm-cable/intercept/config"
)

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir    string
	runID  string
	files  map[string]*os.File
	header map[string]bool
}

// Output file names inside the run directory.
const (
	TelemetryFile = "telemetry.csv"
	TrialsFile    = "trials.csv"
	PerfFile      = "perf.csv"
	ConfigFile    = "config.yaml"
)

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{
		dir:    dir,
		runID:  uuid.NewString(),
		files:  make(map[string]*os.File),
		header: make(map[string]bool),
	}

	for _, name := range []string{TelemetryFile, TrialsFile, PerfFile} {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", name, err)
		}
		om.files[name] = f
	}

	return om, nil
}

// RunID returns the identifier generated for this run.
func (om *OutputManager) RunID() string {
	if om == nil {
		return ""
	}
	return om.runID
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, ConfigFile))
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.write(TelemetryFile, []WindowStats{stats})
}

// WriteTrial writes a finished trial to trials.csv.
func (om *OutputManager) WriteTrial(r TrialRecord) error {
	if om == nil {
		return nil
	}
	return om.write(TrialsFile, []TrialRecord{r})
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	return om.write(PerfFile, []PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// write appends records to the named file, emitting the header on first use.
func (om *OutputManager) write(name string, records any) error {
	f := om.files[name]
	var err error
	if !om.header[name] {
		err = gocsv.Marshal(records, f)
		om.header[name] = err == nil
	} else {
		err = gocsv.MarshalWithoutHeaders(records, f)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for name, f := range om.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(om.files, name)
	}
	return firstErr
}
