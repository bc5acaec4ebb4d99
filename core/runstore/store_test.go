package runstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/energyplan/core/report"
	"github.com/kilianp07/energyplan/core/solver"
)

func record(id string, ts time.Time, st solver.Status, obj float64) RunRecord {
	return FromReport(report.Report{
		RunID:     id,
		Status:    st,
		SolvedAt:  ts,
		Objective: obj,
		Beta:      0.95,
		Kappa:     20,
		Scenarios: []report.Scenario{{Name: "Low", Cost: obj / 2}},
	})
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, record("a", base, solver.StatusOptimal, 100)))
	require.NoError(t, s.Append(ctx, record("b", base.Add(time.Hour), solver.StatusInfeasible, 0)))
	require.NoError(t, s.Append(ctx, record("c", base.Add(2*time.Hour), solver.StatusOptimal, 300)))

	all, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, 150.0, all[2].Report.Scenarios[0].Cost)
	assert.True(t, all[0].Timestamp.Equal(base))

	optimal := solver.StatusOptimal
	opt, err := s.Query(ctx, Query{Status: &optimal})
	require.NoError(t, err)
	require.Len(t, opt, 2)
	assert.Equal(t, "c", opt[1].ID)

	window, err := s.Query(ctx, Query{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, solver.StatusInfeasible, window[0].Status)

	last, err := s.Query(ctx, Query{Limit: 2})
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "b", last[0].ID)
	assert.Equal(t, "c", last[1].ID)
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestJSONLStore_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	s, err := NewJSONLStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), record("a", time.Now(), solver.StatusOptimal, 1)))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	recs, err := s.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestSQLiteStore_DuplicateID(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	rec := record("same", time.Now(), solver.StatusOptimal, 1)
	require.NoError(t, s.Append(context.Background(), rec))
	assert.Error(t, s.Append(context.Background(), rec))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Config{})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(Config{Backend: "jsonl", Path: filepath.Join(dir, "r.jsonl")})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	s, err = Open(Config{Backend: "sqlite", Path: filepath.Join(dir, "r.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(Config{Backend: "postgres"})
	assert.Error(t, err)
}

func TestConfig_Defaults(t *testing.T) {
	c := Config{Backend: "sqlite"}
	c.SetDefaults()
	assert.Equal(t, "runs.db", c.Path)
	assert.NoError(t, c.Validate())
	assert.Error(t, Config{Backend: "csv"}.Validate())
}
