package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCase(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "case.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCase_ValidFile(t *testing.T) {
	path := writeCase(t, `
name: simple
description: "One charge"
routing: derived
mode: fail-fast
files:
  mc_env: |
    {"stage_seq": ["CC"], "CC": ["C1"]}
  cast: |
    {"cast_seq": ["CA1"], "CA1": ["CH1"]}
  duedate: |
    {"CH1": 10}
  pt: |
    ch_id,mc_id,pt
    CH1,C1,5
expect:
  valid: true
  charges: [CH1]
`)

	c, err := LoadCase(path)
	require.NoError(t, err)

	assert.Equal(t, "simple", c.Name)
	assert.Equal(t, "derived", c.Routing)
	assert.Equal(t, "fail-fast", c.Mode)
	assert.Contains(t, c.Files.MachineEnv, `"stage_seq"`)
	assert.Contains(t, c.Files.ProcessingTime, "CH1,C1,5")
	assert.True(t, c.Expect.Valid)
	assert.Equal(t, []string{"CH1"}, c.Expect.Charges)
}

func TestLoadCase_MissingFile(t *testing.T) {
	_, err := LoadCase(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read case file")
}

func TestLoadCase_UnknownField(t *testing.T) {
	path := writeCase(t, `
name: typo
description: "Misspelled key"
expect:
  valid: false
  violation: [E307]
`)

	_, err := LoadCase(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadCase_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing name",
			content: "description: x\nexpect:\n  valid: true\n",
			want:    "name is required",
		},
		{
			name:    "missing description",
			content: "name: x\nexpect:\n  valid: true\n",
			want:    "description is required",
		},
		{
			name:    "bad routing",
			content: "name: x\ndescription: x\nrouting: some\nexpect:\n  valid: true\n",
			want:    "routing must be all or derived",
		},
		{
			name:    "bad mode",
			content: "name: x\ndescription: x\nmode: lazy\nexpect:\n  valid: true\n",
			want:    "mode must be collect or fail-fast",
		},
		{
			name:    "valid with errors",
			content: "name: x\ndescription: x\nexpect:\n  valid: true\n  violations: [E301]\n",
			want:    "a valid case cannot list errors",
		},
		{
			name:    "invalid without errors",
			content: "name: x\ndescription: x\nexpect:\n  valid: false\n",
			want:    "needs parse_error or violations",
		},
		{
			name:    "both error kinds",
			content: "name: x\ndescription: x\nexpect:\n  valid: false\n  parse_error: E202\n  violations: [E301]\n",
			want:    "exclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCase(writeCase(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadCases_DuplicateName(t *testing.T) {
	dir := t.TempDir()
	body := "name: same\ndescription: x\nexpect:\n  valid: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(body), 0o644))

	_, err := LoadCases(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `case name "same"`)
}

func TestLoadCases_Sorted(t *testing.T) {
	cases, err := LoadCases("testdata/cases")
	require.NoError(t, err)
	require.NotEmpty(t, cases)

	assert.Equal(t, "all-routing-requires-stage", cases[0].Name)
	for _, c := range cases {
		assert.NotEmpty(t, c.Description, c.Name)
	}
}
