package storage

import (
	"testing"

	"github.com/marel-k/fuselab/internal/telemetry"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	records := []telemetry.Record{
		{Tick: 0, ComputeMs: 0.4, TruthTheta: 1.5708, EstTheta: -1.0, NoisyY1: 1.2, TruthY1: 1.0, EstY1: -0.84},
		{Tick: 1, ComputeMs: 0.3, TruthTheta: 1.5708, EstTheta: 0.2, NoisyY1: 0.6, TruthY1: 1.0, EstY1: 0.2},
	}
	meta := RunMetadata{Seed: 7, Dt: 0.1, PeriodMs: 100, Ticks: 2, Resets: 1, Mode: "angles"}

	runID, err := st.Save(meta, records)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Seed != 7 || loaded.Resets != 1 || loaded.Mode != "angles" {
		t.Errorf("metadata mismatch: %+v", loaded)
	}

	got, err := st.LoadRecords(runID)
	if err != nil {
		t.Fatalf("load records: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[1].Tick != 1 || got[1].EstTheta != 0.2 {
		t.Errorf("record mismatch: %+v", got[1])
	}
}

func TestSaveGeneratesDistinctRunIDs(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		runID, err := st.Save(RunMetadata{Ticks: i}, nil)
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		if seen[runID] {
			t.Fatalf("duplicate run id: %s", runID)
		}
		seen[runID] = true
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 5 {
		t.Errorf("expected 5 runs, got %d", len(runs))
	}
}

func TestListEmptyDir(t *testing.T) {
	st := New(t.TempDir() + "/missing")

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestListSkipsForeignEntries(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, err := st.Save(RunMetadata{}, nil); err != nil {
		t.Fatalf("save: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}
