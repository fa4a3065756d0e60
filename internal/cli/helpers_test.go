package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// instancesDir holds the sample instances shipped with the repository.
var instancesDir = filepath.Join("..", "..", "testdata", "instances")

var metadataPath = filepath.Join(instancesDir, "input_metadata.json")

const (
	smallEnv  = `{"stage_seq": ["EAF", "CC"], "EAF": ["EAF1"], "CC": ["CC1"]}`
	smallCast = `{"cast_seq": ["CA1"], "CA1": ["CH1", "CH2"]}`
	smallDue  = `{"CH1": 100, "CH2": 150}`
	smallPT   = "ch_id,mc_id,pt\nCH1,EAF1,60\nCH1,CC1,45\nCH2,EAF1,65\nCH2,CC1,45\n"
)

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeInstance writes the four files of name into dir.
func writeInstance(t *testing.T, dir, name, env, cast, due, pt string) {
	t.Helper()
	files := map[string]string{
		name + "_mc_env.json":  env,
		name + "_cast.json":    cast,
		name + "_duedate.json": due,
		name + "_pt.csv":       pt,
	}
	for file, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
	}
}

// writeMetadata writes a metadata file listing indices 1 and 2 with the
// prefix "scc_" and returns its path.
func writeMetadata(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "input_metadata.json")
	content := `{
  "input_directory": ".",
  "input_prefix": "scc_",
  "suffix_digits": 2,
  "input_index_list": [1, 2],
  "cast_lth_min": 1,
  "cast_lth_max": 5,
  "limit_by_casts": true,
  "cast_count_min": 1,
  "cast_count_max": 1
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
