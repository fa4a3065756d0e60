package instance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDir = "../../testdata/instances"

// writeInstance writes the four files of name into dir. Empty contents
// leave the file out.
func writeInstance(t *testing.T, dir, name, mcEnv, cast, due, pt string) FileSet {
	t.Helper()
	files := DefaultNaming.FileSet(dir, name)
	for path, content := range map[string]string{
		files.MachineEnv:     mcEnv,
		files.Cast:           cast,
		files.DueDate:        due,
		files.ProcessingTime: pt,
	} {
		if content == "" {
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return files
}

const (
	validEnv  = `{"stage_seq":["EAF","CC"],"EAF":["E1","E2"],"CC":["C1"]}`
	validCast = `{"cast_seq":["CA1","CA2"],"CA1":["CH1","CH2"],"CA2":["CH3"]}`
	validDue  = `{"CH1":100,"CH2":150,"CH3":120}`
	validPT   = "ch_id,mc_id,pt\nCH1,E1,60\nCH1,C1,40\nCH2,E2,65\nCH2,C1,45\nCH3,E1,70\nCH3,C1,50\n"
)

func validParts() Parts {
	return Parts{
		Env: MachineEnvironment{
			StageSeq: []string{"EAF", "CC"},
			Machines: map[string][]string{"EAF": {"E1", "E2"}, "CC": {"C1"}},
		},
		Casts: CastSet{
			CastSeq: []string{"CA1", "CA2"},
			Charges: map[string][]string{"CA1": {"CH1", "CH2"}, "CA2": {"CH3"}},
		},
		DueDates: DueDates{"CH1": 100, "CH2": 150, "CH3": 120},
		ProcessingTimes: ProcessingTimes{
			"CH1": {"E1": 60, "C1": 40},
			"CH2": {"E2": 65, "C1": 45},
			"CH3": {"E1": 70, "C1": 50},
		},
	}
}
