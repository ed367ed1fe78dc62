package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempomat/internal/trace"
)

const cruiseScenarioYAML = `name: cruise-at-100
ticks:
  - inputs: {on: true, speed: 100}
  - inputs: {speed: 100}
    repeat: 2
  - inputs: {off: true, speed: 100}
`

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunMissingScenarioFile(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunTextOutput(t *testing.T) {
	path := writeScenarioFile(t, cruiseScenarioYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Scenario: cruise-at-100")
	assert.Contains(t, out, "[1] state=1 throttle=0 cruise=100 going_on")
	assert.Contains(t, out, "[4] state=0")
	assert.Contains(t, out, "4 tick(s) evaluated")
}

func TestRunJSONOutput(t *testing.T) {
	path := writeScenarioFile(t, cruiseScenarioYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var report RunReport
	require.NoError(t, json.Unmarshal(data, &report))

	assert.Equal(t, "cruise-at-100", report.Scenario)
	require.Len(t, report.Ticks, 4)
	assert.Equal(t, int64(1), report.Ticks[0].State)
	assert.True(t, report.Ticks[0].GoingOn)
	assert.Equal(t, int64(0), report.Ticks[3].State)
}

func TestRunRecordsToDatabase(t *testing.T) {
	path := writeScenarioFile(t, cruiseScenarioYAML)
	dbPath := filepath.Join(t.TempDir(), "trace.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--db", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Run ID: ")

	st, err := trace.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	records, err := st.ReadRun(ctx, runs[0])
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestRunRejectsInvalidScenario(t *testing.T) {
	path := writeScenarioFile(t, "name: broken\nticks: []\n")

	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load scenario")
}
