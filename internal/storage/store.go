package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/san-kum/chemgaloo/internal/reactor"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "traces.csv"
	indexFile    = "index.db"
)

var (
	ErrNotInitialized = errors.New("storage: store not initialized")
	ErrNotFound       = errors.New("storage: run not found")
	// ErrNoTrace is returned for runs without a time series, such as CSTR solves.
	ErrNoTrace = errors.New("storage: run has no trace")
)

// Kind is the reactor that produced a run.
type Kind string

const (
	KindBatch Kind = "batch"
	KindCSTR  Kind = "cstr"
)

type RunMetadata struct {
	ID        string    `json:"id"`
	Scenario  string    `json:"scenario"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Species   []string  `json:"species"`
	Dt        float64   `json:"dt"`

	// Batch runs.
	Steps    int                `json:"steps,omitempty"`
	Source   string             `json:"source,omitempty"`
	Combine  string             `json:"combine,omitempty"`
	Expired  bool               `json:"expired,omitempty"`
	Recorded []float64          `json:"recorded,omitempty"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`

	// CSTR runs.
	MeanResidence float64   `json:"mean_residence,omitempty"`
	Iterations    int       `json:"iterations,omitempty"`
	MicroSteps    int       `json:"micro_steps,omitempty"`
	Score         float64   `json:"score,omitempty"`
	Converged     bool      `json:"converged,omitempty"`
	Outflow       []float64 `json:"outflow,omitempty"`
}

// Store keeps one directory per run under baseDir and indexes runs in a SQLite table.
type Store struct {
	baseDir string
	db      *sql.DB
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", filepath.Join(s.baseDir, indexFile))
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return fmt.Errorf("create runs table: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// SaveBatch writes a batch trace and returns the new run id.
func (s *Store) SaveBatch(scenario string, cfg reactor.BatchConfig, trace *reactor.Trace) (string, error) {
	meta := RunMetadata{
		Scenario: scenario,
		Kind:     KindBatch,
		Species:  trace.Species,
		Dt:       cfg.Dt,
		Steps:    trace.Steps(),
		Source:   cfg.Source.String(),
		Combine:  cfg.Combine.String(),
		Expired:  trace.Expired,
		Recorded: trace.Recorded,
		Metrics:  trace.Metrics,
	}
	return s.save(&meta, trace)
}

// SaveCSTR writes a steady-state result and returns the new run id.
func (s *Store) SaveCSTR(scenario string, cfg reactor.CSTRConfig, res *reactor.CSTRResult) (string, error) {
	meta := RunMetadata{
		Scenario:      scenario,
		Kind:          KindCSTR,
		Species:       res.Species,
		Dt:            cfg.Dt,
		MeanResidence: cfg.MeanResidence,
		Iterations:    res.Iterations,
		MicroSteps:    res.MicroSteps,
		Score:         res.Score,
		Converged:     res.Converged,
		Outflow:       res.Outflow,
	}
	return s.save(&meta, nil)
}

func (s *Store) save(meta *RunMetadata, trace *reactor.Trace) (string, error) {
	if s.db == nil {
		return "", ErrNotInitialized
	}

	meta.ID = uuid.Must(uuid.NewV7()).String()
	meta.Timestamp = time.Now().UTC()

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	// A run is either indexed with its files on disk or absent entirely.
	if err := s.writeRun(runDir, meta, trace); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return meta.ID, nil
}

func (s *Store) writeRun(runDir string, meta *RunMetadata, trace *reactor.Trace) error {
	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	if trace != nil {
		csvFile, err := os.Create(filepath.Join(runDir, traceFile))
		if err != nil {
			return err
		}
		defer csvFile.Close()

		if err := WriteCSV(csvFile, trace); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(
		`INSERT INTO runs (id, scenario, kind, created_at, payload) VALUES (?, ?, ?, ?, ?)`,
		meta.ID, meta.Scenario, string(meta.Kind), meta.Timestamp.UnixNano(), payload,
	); err != nil {
		return fmt.Errorf("index run: %w", err)
	}
	return nil
}

// List returns indexed runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	if s.db == nil {
		return nil, ErrNotInitialized
	}

	rows, err := s.db.Query(`SELECT payload FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var meta RunMetadata
		if err := json.Unmarshal(payload, &meta); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrace rebuilds a batch trace from its CSV and metadata.
func (s *Store) LoadTrace(runID string) (*reactor.Trace, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	if meta.Kind != KindBatch {
		return nil, fmt.Errorf("%w: %s is a %s run", ErrNoTrace, runID, meta.Kind)
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	trace, err := ReadCSV(file)
	if err != nil {
		return nil, err
	}
	trace.Expired = meta.Expired
	trace.Recorded = meta.Recorded
	trace.Metrics = meta.Metrics
	if trace.Metrics == nil {
		trace.Metrics = make(map[string]float64)
	}
	return trace, nil
}
