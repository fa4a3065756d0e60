package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var casesDir = filepath.Join("..", "harness", "testdata", "cases")

func TestTestCommandPasses(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), casesDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ valid-minimal")
	assert.Contains(t, out, "✓ fail-fast")
	assert.Contains(t, out, "0 failed")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), casesDir, "--filter", "missing-*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Total)
	for _, c := range resp.Data.Cases {
		assert.Contains(t, c.Name, "missing-")
		assert.True(t, c.Pass, c.Name)
	}
}

func TestTestCommandFailingCase(t *testing.T) {
	dir := t.TempDir()
	content := `name: wrong-expectation
description: "Claims a charge without due date is fine"
files:
  mc_env: |
    {"stage_seq": ["CC"], "CC": ["C1"]}
  cast: |
    {"cast_seq": ["CA1"], "CA1": ["CH1"]}
  duedate: |
    {}
  pt: |
    ch_id,mc_id,pt
    CH1,C1,5
expect:
  valid: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(content), 0o644))

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong-expectation")
	assert.Contains(t, out, "valid: got false, want true")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No cases found.\n", out)
}

func TestTestCommandInvalidCase(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: x\n"), 0o644))

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E008]")
}
