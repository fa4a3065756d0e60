package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
)

func sampleJSON(t *testing.T, out string) SampleResult {
	t.Helper()
	var resp struct {
		Status string       `json:"status"`
		Data   SampleResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestSampleWritesValidInstance(t *testing.T) {
	outDir := t.TempDir()

	out, err := execute(t, NewSampleCommand(&RootOptions{Format: "json"}),
		instancesDir, "scc_01", "--metadata", metadataPath, "--seed", "7", "--out", outDir, "--as", "sub_01")
	require.NoError(t, err)

	result := sampleJSON(t, out)
	assert.Equal(t, "sub_01", result.Instance)
	assert.NotEmpty(t, result.Casts)
	assert.LessOrEqual(t, len(result.Casts), 2)
	assert.Equal(t, filepath.Join(outDir, "sub_01_pt.csv"), result.Files.ProcessingTime)

	sub, err := instance.Load(outDir, "sub_01")
	require.NoError(t, err)
	assert.Equal(t, result.Casts, sub.CastIDs())
	assert.Equal(t, result.Charges, len(sub.Charges()))

	fp, err := sub.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, result.Fingerprint, fp)
}

func TestSampleDeterministic(t *testing.T) {
	run := func() SampleResult {
		out, err := execute(t, NewSampleCommand(&RootOptions{Format: "json"}),
			instancesDir, "scc_01", "--metadata", metadataPath, "--seed", "42", "--out", t.TempDir())
		require.NoError(t, err)
		return sampleJSON(t, out)
	}

	a, b := run(), run()
	assert.Equal(t, "scc_01_sample", a.Instance)
	assert.Equal(t, a.Casts, b.Casts)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
}

func TestSampleText(t *testing.T) {
	outDir := t.TempDir()
	out, err := execute(t, NewSampleCommand(&RootOptions{Format: "text"}),
		instancesDir, "scc_02", "--metadata", metadataPath, "--out", outDir, "--as", "tiny")
	require.NoError(t, err)
	assert.Equal(t, "✓ wrote tiny (1 casts, 2 charges) to "+outDir+"\n", out)
}

func TestSampleNoWindow(t *testing.T) {
	dir := t.TempDir()
	meta := filepath.Join(dir, "limits.json")
	require.NoError(t, os.WriteFile(meta, []byte(`{
  "input_prefix": "scc_",
  "input_index_list": [1],
  "cast_lth_min": 4,
  "cast_lth_max": 5,
  "limit_by_casts": true,
  "cast_count_min": 1,
  "cast_count_max": 2
}`), 0o644))

	out, err := execute(t, NewSampleCommand(&RootOptions{Format: "text"}),
		instancesDir, "scc_01", "--metadata", meta, "--out", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E007]")
}

func TestSampleBothPolicies(t *testing.T) {
	dir := t.TempDir()
	meta := filepath.Join(dir, "limits.json")
	require.NoError(t, os.WriteFile(meta, []byte(`{
  "input_prefix": "scc_",
  "input_index_list": [1],
  "cast_lth_min": 1,
  "cast_lth_max": 5,
  "limit_by_casts": true,
  "limit_by_charges": true,
  "cast_count_min": 1,
  "cast_count_max": 2
}`), 0o644))

	out, err := execute(t, NewSampleCommand(&RootOptions{Format: "text"}),
		instancesDir, "scc_01", "--metadata", meta, "--out", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "choose one among two limiting policies")
}

func TestSampleRequiresMetadata(t *testing.T) {
	_, err := execute(t, NewSampleCommand(&RootOptions{Format: "text"}), instancesDir, "scc_01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata")
}

func TestSampleKeepsMetadataLayout(t *testing.T) {
	src, err := instance.Load(instancesDir, "scc_02")
	require.NoError(t, err)

	header := instance.Header{Charge: "charge", Machine: "machine", Time: "time"}
	srcDir := t.TempDir()
	_, err = instance.Write(srcDir, "scc_02", src, instance.WithHeader(header), instance.WithEncoding("euc-kr"))
	require.NoError(t, err)

	meta := filepath.Join(srcDir, "layout.json")
	require.NoError(t, os.WriteFile(meta, []byte(`{
  "input_prefix": "scc_",
  "input_index_list": [2],
  "processtime_header": ["charge", "machine", "time"],
  "i_encoding": "euc-kr",
  "cast_lth_min": 1,
  "cast_lth_max": 5,
  "limit_by_casts": true,
  "cast_count_min": 1,
  "cast_count_max": 1
}`), 0o644))

	outDir := t.TempDir()
	out, err := execute(t, NewSampleCommand(&RootOptions{Format: "json"}),
		srcDir, "scc_02", "--metadata", meta, "--out", outDir, "--as", "sub")
	require.NoError(t, err)
	result := sampleJSON(t, out)

	sub, err := instance.Load(outDir, "sub", instance.WithHeader(header), instance.WithEncoding("euc-kr"))
	require.NoError(t, err)
	assert.Equal(t, result.Casts, sub.CastIDs())

	_, err = instance.Load(outDir, "sub")
	assert.Error(t, err)
}
