package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/chemgaloo/internal/detector"
	"github.com/san-kum/chemgaloo/internal/kinetics"
	"github.com/san-kum/chemgaloo/internal/reactor"
)

func decayTrace() *reactor.Trace {
	return &reactor.Trace{
		Species: []string{"A", "B"},
		Times:   []float64{0, 0.5, 1},
		Concentrations: [][]float64{
			{1, 0.5, 0.25},
			{0, 0.5, 0.75},
		},
		Expired:  false,
		Recorded: []float64{0.5},
		Metrics:  map[string]float64{"conversion_A": 0.75},
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestWriteCSVGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, decayTrace()))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "decay_trace", buf.Bytes())
}

func TestReadCSVRejectsMissingHeader(t *testing.T) {
	_, err := ReadCSV(bytes.NewBufferString("0,1,0\n"))
	require.Error(t, err)
}

func TestStoreSaveBatch(t *testing.T) {
	st := newStore(t)
	cfg := reactor.BatchConfig{Dt: 0.5, Steps: 10, Source: kinetics.Cached, Combine: detector.Accumulate}

	runID, err := st.SaveBatch("decay", cfg, decayTrace())
	require.NoError(t, err)

	parsed, err := uuid.Parse(runID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, "decay", meta.Scenario)
	assert.Equal(t, KindBatch, meta.Kind)
	assert.Equal(t, 2, meta.Steps)
	assert.Equal(t, "accumulate", meta.Combine)
	assert.False(t, meta.Expired)
	assert.Equal(t, 0.75, meta.Metrics["conversion_A"])

	trace, err := st.LoadTrace(runID)
	require.NoError(t, err)
	assert.Equal(t, decayTrace(), trace)
}

func TestStoreSaveRemovesRunDirWhenIndexFails(t *testing.T) {
	st := newStore(t)
	_, err := st.db.Exec(`DROP TABLE runs`)
	require.NoError(t, err)

	_, err = st.SaveBatch("decay", reactor.BatchConfig{Dt: 0.5, Steps: 10}, decayTrace())
	require.ErrorContains(t, err, "index run")

	entries, err := os.ReadDir(st.baseDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, e.IsDir(), "run dir %s left behind", e.Name())
	}
}

func TestStoreSaveCSTR(t *testing.T) {
	st := newStore(t)
	cfg := reactor.CSTRConfig{Dt: 0.01, MeanResidence: 3}
	res := &reactor.CSTRResult{
		Species:    []string{"A", "B"},
		Outflow:    []float64{0.4, 1.6},
		Iterations: 4,
		MicroSteps: 300,
		Score:      1e-8,
		Converged:  true,
	}

	runID, err := st.SaveCSTR("cstr", cfg, res)
	require.NoError(t, err)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, KindCSTR, meta.Kind)
	assert.True(t, meta.Converged)
	assert.Equal(t, []float64{0.4, 1.6}, meta.Outflow)
	assert.Equal(t, 300, meta.MicroSteps)

	_, err = st.LoadTrace(runID)
	require.ErrorIs(t, err, ErrNoTrace)
	assert.NoFileExists(t, filepath.Join(st.baseDir, runID, traceFile))
}

func TestStoreList(t *testing.T) {
	st := newStore(t)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	first, err := st.SaveBatch("first", reactor.BatchConfig{Dt: 0.5}, decayTrace())
	require.NoError(t, err)
	second, err := st.SaveCSTR("second", reactor.CSTRConfig{Dt: 0.01}, &reactor.CSTRResult{Species: []string{"A"}})
	require.NoError(t, err)

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first, runs[0].ID)
	assert.Equal(t, second, runs[1].ID)
	assert.Equal(t, KindCSTR, runs[1].Kind)
}

func TestStoreIndexSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	require.NoError(t, st.Init())
	runID, err := st.SaveBatch("decay", reactor.BatchConfig{Dt: 0.5}, decayTrace())
	require.NoError(t, err)
	require.NoError(t, st.Close())

	reopened := New(dir)
	require.NoError(t, reopened.Init())
	defer reopened.Close()

	runs, err := reopened.List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
}

func TestStoreNotInitialized(t *testing.T) {
	st := New(t.TempDir())

	_, err := st.SaveBatch("decay", reactor.BatchConfig{}, decayTrace())
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = st.List()
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestStoreLoadMissing(t *testing.T) {
	st := newStore(t)
	_, err := st.Load("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExportJSON(t *testing.T) {
	meta := &RunMetadata{ID: "run-1", Scenario: "decay", Kind: KindBatch, Species: []string{"A", "B"}}

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, meta, decayTrace()))

	var got ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.Run.ID)
	assert.Equal(t, []float64{0, 0.5, 1}, got.Times)
	assert.Equal(t, []float64{0, 0.5, 0.75}, got.Concentrations[1])

	buf.Reset()
	require.NoError(t, ExportJSON(&buf, meta, nil))
	assert.NotContains(t, buf.String(), "concentrations")
}

func TestExportJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, ExportJSON(f, &RunMetadata{ID: "run-2"}, decayTrace()))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id": "run-2"`)
}
