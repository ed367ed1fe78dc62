package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempomat/internal/config"
	"github.com/roach88/tempomat/internal/control"
	"github.com/roach88/tempomat/internal/trace"
)

// recordTestRun records a short drive under the given run ID and
// closes the store again.
func recordTestRun(t *testing.T, dbPath, runID string) {
	t.Helper()

	st, err := trace.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	ctrl := control.New(config.Default())
	rec, err := trace.NewRecorder(ctx, st, ctrl, trace.NewFixedGenerator(runID))
	require.NoError(t, err)

	script := []control.Inputs{
		{On: true, Speed: 100},
		{Speed: 100},
		{Brake: 40, Speed: 100},
		{Resume: true, Speed: 100},
	}
	for _, in := range script {
		_, err := rec.Tick(ctx, in)
		require.NoError(t, err)
	}
}

func TestReplayMissingDatabaseFlag(t *testing.T) {
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")

	st, err := trace.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No runs found")
}

func TestReplayFaithfulRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	recordTestRun(t, dbPath, "run-1")

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "✓ Run: run-1 (4 ticks)")
	assert.Contains(t, out, "All runs replayed identically")
}

func TestReplaySpecificRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	recordTestRun(t, dbPath, "run-1")
	recordTestRun(t, dbPath, "run-2")

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--run", "run-2"})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "run-2")
	assert.NotContains(t, out, "run-1")
}

func TestReplayDetectsTampering(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	recordTestRun(t, dbPath, "run-1")

	// Corrupt one recorded output behind the store's back.
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE ticks SET state = 2 WHERE run_id = 'run-1' AND seq = 2`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out := buf.String()
	assert.Contains(t, out, "✗ Run: run-1")
	assert.Contains(t, out, "tick 2 diverged")
}

func TestReplayJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	recordTestRun(t, dbPath, "run-1")

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result ReplayResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.True(t, result.AllDeterministic)
	require.Len(t, result.Runs, 1)
	assert.Equal(t, 4, result.Runs[0].Ticks)
}
