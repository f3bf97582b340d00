package iocache

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/gitfixes/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStoreSQLite(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	start := time.Now().Add(-2 * time.Second)
	runID, err := store.BeginRun(start, map[string]any{"revision": "v6.1..v6.2"})
	require.NoError(t, err)
	assert.Positive(t, runID)

	matches := []schema.MatchResult{
		{CommitID: "aaaa", Owner: "alice@example.com", Subject: "Fix one", Stable: true},
		{CommitID: "bbbb", Owner: "bob@example.com", Subject: "Fix two", SourcePath: "p/x.patch"},
	}
	for i, m := range matches {
		require.NoError(t, store.RecordMatch(runID, i, m))
	}
	require.NoError(t, store.EndRun(runID, time.Now(), 120, len(matches)))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	assert.Equal(t, int32(120), run.TotalCommits)
	assert.Equal(t, int32(2), run.TotalMatches)
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDurationMs)
	assert.GreaterOrEqual(t, *run.RunDurationMs, int32(2000))
	require.NotNil(t, run.ConfigParams)
	assert.JSONEq(t, `{"revision":"v6.1..v6.2"}`, *run.ConfigParams)

	stored, err := store.GetAllMatches()
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "aaaa", stored[0].CommitID)
	assert.True(t, stored[0].Stable)
	assert.Nil(t, stored[0].SourcePath)
	require.NotNil(t, stored[1].SourcePath)
	assert.Equal(t, "p/x.patch", *stored[1].SourcePath)
	assert.Equal(t, int32(1), stored[1].Position)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalRuns)
	assert.Equal(t, runID, status.LastRunID)
	assert.Equal(t, 2, status.TotalMatches)
	assert.Equal(t, int64(2), status.TableSizes[matchesTable])
	assert.WithinDuration(t, start, status.OldestRunTime, time.Millisecond)
}

func TestHistoryStoreMultipleRuns(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	first, err := store.BeginRun(time.Now(), nil)
	require.NoError(t, err)
	second, err := store.BeginRun(time.Now(), nil)
	require.NoError(t, err)
	assert.Greater(t, second, first)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Nil(t, runs[1].EndTime, "unfinished runs have no end time")

	assert.Error(t, store.EndRun(999, time.Now(), 0, 0), "unknown run")
}

func TestHistoryStoreNone(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	id, err := store.BeginRun(time.Now(), nil)
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, store.RecordMatch(id, 0, schema.MatchResult{}))
	assert.NoError(t, store.EndRun(id, time.Now(), 1, 1))

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
}

func TestExportHistory(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	var out bytes.Buffer
	prefix := filepath.Join(t.TempDir(), "export")
	assert.ErrorContains(t, ExportHistory(&out, store, prefix), "no run history")
	assert.Error(t, ExportHistory(&out, store, ""))
	assert.Error(t, ExportHistory(&out, nil, prefix))

	runID, err := store.BeginRun(time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordMatch(runID, 0, schema.MatchResult{CommitID: "aaaa", Owner: "o", Subject: "s"}))
	require.NoError(t, store.EndRun(runID, time.Now(), 3, 1))

	require.NoError(t, ExportHistory(&out, store, prefix))
	assert.FileExists(t, prefix+".runs.parquet")
	assert.FileExists(t, prefix+".matches.parquet")
	assert.Contains(t, out.String(), "Exported 1 matches")
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	PrintCacheStatus(&out, schema.CacheStatus{Backend: "none"})
	assert.Contains(t, out.String(), "Connected: false")
	assert.NotContains(t, out.String(), "Total Entries")

	out.Reset()
	PrintHistoryStatus(&out, schema.HistoryStatus{
		Backend:    "sqlite",
		Connected:  true,
		TotalRuns:  2,
		TableSizes: map[string]int64{matchesTable: 5, runsTable: 2},
	})
	assert.Contains(t, out.String(), "Total Runs: 2")
	assert.Contains(t, out.String(), "  gitfixes_matches: 5 rows\n  gitfixes_runs: 2 rows\n")
}
