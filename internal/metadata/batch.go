package metadata

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
)

// Entry is the outcome of loading one indexed instance.
type Entry struct {
	Index    int
	Name     string
	Files    instance.FileSet
	Instance *instance.Instance // nil when Err is set
	Err      error
}

// CheckInputReading decodes the files of every indexed instance without
// cross-file validation and returns the first failure.
func (m *Metadata) CheckInputReading(log zerolog.Logger) error {
	for _, idx := range m.InputIndexList {
		if _, err := instance.ReadParts(m.FileSet(idx), m.Options()...); err != nil {
			return fmt.Errorf("instance %s: %w", m.ProbName(idx), err)
		}
	}
	log.Info().Int("instances", len(m.InputIndexList)).Msgf("Reading all %d input files is OK", len(m.InputIndexList))
	return nil
}

// Each loads the indexed instances in input_index_list order and calls fn
// for each. Load failures are passed to fn in Entry.Err; a non-nil error
// returned by fn stops the iteration and is returned.
func (m *Metadata) Each(fn func(Entry) error, opts ...instance.Option) error {
	for _, idx := range m.InputIndexList {
		e := Entry{Index: idx, Name: m.ProbName(idx), Files: m.FileSet(idx)}
		e.Instance, e.Err = m.LoadInstance(idx, opts...)
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}
