package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/marel-k/fuselab/internal/telemetry"
)

// Store persists fusion runs under a base directory, one subdirectory per
// run holding metadata.json and telemetry.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Seed      int64     `json:"seed"`
	Dt        float64   `json:"dt"`
	PeriodMs  int       `json:"period_ms"`
	Ticks     int       `json:"ticks"`
	Resets    int       `json:"resets"`
	Mode      string    `json:"mode"`
}

func (s *Store) Save(meta RunMetadata, records []telemetry.Record) (string, error) {
	// Nanosecond resolution keeps rapid back-to-back saves from colliding.
	runID := fmt.Sprintf("fusion_%d", time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "telemetry.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := []string{"tick", "compute_ms", "truth_theta", "est_theta", "noisy_y1", "truth_y1", "est_y1"}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.Tick),
			strconv.FormatFloat(rec.ComputeMs, 'f', 6, 64),
			strconv.FormatFloat(rec.TruthTheta, 'f', 6, 64),
			strconv.FormatFloat(rec.EstTheta, 'f', 6, 64),
			strconv.FormatFloat(rec.NoisyY1, 'f', 6, 64),
			strconv.FormatFloat(rec.TruthY1, 'f', 6, 64),
			strconv.FormatFloat(rec.EstY1, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadRecords(runID string) ([]telemetry.Record, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "telemetry.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return []telemetry.Record{}, nil
	}

	records := make([]telemetry.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != 7 {
			continue
		}

		tick, err := strconv.Atoi(row[0])
		if err != nil {
			continue
		}

		vals := make([]float64, 6)
		ok := true
		for i, field := range row[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}

		records = append(records, telemetry.Record{
			Tick:       tick,
			ComputeMs:  vals[0],
			TruthTheta: vals[1],
			EstTheta:   vals[2],
			NoisyY1:    vals[3],
			TruthY1:    vals[4],
			EstY1:      vals[5],
		})
	}

	return records, nil
}
