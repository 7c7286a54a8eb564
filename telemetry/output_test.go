package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/intercept/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatal(err)
	}
	if om != nil {
		t.Fatal("expected nil manager for empty dir")
	}
	// Nil receivers are no-ops
	if err := om.WriteTrial(TrialRecord{}); err != nil {
		t.Error(err)
	}
	if om.RunID() != "" || om.Dir() != "" {
		t.Error("nil manager should report empty id and dir")
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	if len(om.RunID()) != 36 {
		t.Errorf("run id %q is not a uuid", om.RunID())
	}

	trials := []TrialRecord{
		{Trial: 1, Task: 1, Profile: "lob", Outcome: OutcomeCaught, MinDistance: 0.2},
		{Trial: 2, Task: 1, Profile: "lob", Outcome: OutcomeTimeout, MinDistance: 1.4},
		{Trial: 3, Task: 2, Profile: "drive", Outcome: OutcomeRest, MinDistance: 0.9, MotorFrozen: true},
	}
	for _, r := range trials {
		if err := om.WriteTrial(r); err != nil {
			t.Fatalf("WriteTrial: %v", err)
		}
	}
	if err := om.WriteTelemetry(WindowStats{WindowEndTick: 500, Catches: 1}); err != nil {
		t.Fatalf("WriteTelemetry: %v", err)
	}
	if err := om.WritePerf(PerfStats{AvgTick: time.Millisecond}, 500); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteConfig(config.Defaults()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, TrialsFile))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var got []TrialRecord
	if err := gocsv.UnmarshalFile(f, &got); err != nil {
		t.Fatalf("reading trials.csv: %v", err)
	}
	if len(got) != len(trials) {
		t.Fatalf("read %d trials, want %d", len(got), len(trials))
	}
	if got[2].Profile != "drive" || !got[2].MotorFrozen || got[0].Caught() != true {
		t.Errorf("unexpected rows: %+v", got)
	}

	if _, err := config.Load(filepath.Join(dir, ConfigFile)); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}
