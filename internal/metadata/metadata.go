// Package metadata loads the input metadata file describing a set of
// instances: where they live, how their files are named, how they are
// encoded and the size limits used when sampling sub-instances.
package metadata

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
	"github.com/MSOLab/scc-process-scheduling-instances/internal/sampler"
)

// EnvPrefix marks environment variables that override metadata keys,
// e.g. SCC_INPUT_DIRECTORY.
const EnvPrefix = "SCC_"

// Metadata mirrors the input_metadata.json document.
type Metadata struct {
	InputDirectory string `json:"input_directory"`
	InputPrefix    string `json:"input_prefix"`
	SuffixDigits   int    `json:"suffix_digits"`
	InputIndexList []int  `json:"input_index_list"`

	MachineEnvSuffix     string   `json:"mc_env_suffix"`
	MachineEnvExtension  string   `json:"mc_env_extension"`
	CastSuffix           string   `json:"cast_suffix"`
	CastExtension        string   `json:"cast_extension"`
	DueDateSuffix        string   `json:"duedate_suffix"`
	DueDateExtension     string   `json:"duedate_extension"`
	ProcessTimeSuffix    string   `json:"processtime_suffix"`
	ProcessTimeExtension string   `json:"processtime_extension"`
	ProcessTimeHeader    []string `json:"processtime_header"`
	Encoding             string   `json:"i_encoding"`

	CastLengthMin  int  `json:"cast_lth_min"`
	CastLengthMax  int  `json:"cast_lth_max"`
	LimitByCasts   bool `json:"limit_by_casts"`
	CastCountMin   *int `json:"cast_count_min"`
	CastCountMax   *int `json:"cast_count_max"`
	LimitByCharges bool `json:"limit_by_charges"`
	ChargeCountMin *int `json:"charge_count_min"`
	ChargeCountMax *int `json:"charge_count_max"`

	// baseDir resolves a relative input_directory.
	baseDir string
}

// Load reads a metadata file (.json, .yaml or .yml) and applies SCC_*
// environment overrides. A relative input_directory is resolved against the
// directory of the metadata file.
func Load(path string) (*Metadata, error) {
	k := koanf.New(".")
	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported metadata format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load metadata %s: %w", path, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load metadata overrides: %w", err)
	}

	var m Metadata
	if err := k.UnmarshalWithConf("", &m, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", path, err)
	}
	m.baseDir = filepath.Dir(path)
	m.SetDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("metadata %s: %w", path, err)
	}
	return &m, nil
}

// SetDefaults fills unset naming fields with the published layout.
func (m *Metadata) SetDefaults() {
	def := instance.DefaultNaming
	setDefault(&m.MachineEnvSuffix, def.MachineEnvSuffix)
	setDefault(&m.MachineEnvExtension, def.MachineEnvExt)
	setDefault(&m.CastSuffix, def.CastSuffix)
	setDefault(&m.CastExtension, def.CastExt)
	setDefault(&m.DueDateSuffix, def.DueDateSuffix)
	setDefault(&m.DueDateExtension, def.DueDateExt)
	setDefault(&m.ProcessTimeSuffix, def.ProcessingTimeSuffix)
	setDefault(&m.ProcessTimeExtension, def.ProcessingTimeExt)
	setDefault(&m.Encoding, instance.DefaultEncoding)
	if len(m.ProcessTimeHeader) == 0 {
		h := instance.DefaultHeader
		m.ProcessTimeHeader = []string{h.Charge, h.Machine, h.Time}
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Validate checks the fields needed to locate and read instances.
func (m *Metadata) Validate() error {
	var errs []error
	if m.SuffixDigits < 0 {
		errs = append(errs, fmt.Errorf("suffix_digits must not be negative, got %d", m.SuffixDigits))
	}
	if len(m.ProcessTimeHeader) != 3 {
		errs = append(errs, fmt.Errorf("processtime_header needs 3 names (charge, machine, time), got %d", len(m.ProcessTimeHeader)))
	}
	if _, err := htmlindex.Get(m.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("i_encoding %q is not a known encoding", m.Encoding))
	}
	seen := make(map[int]bool, len(m.InputIndexList))
	for _, idx := range m.InputIndexList {
		if seen[idx] {
			errs = append(errs, fmt.Errorf("input_index_list repeats index %d", idx))
		}
		seen[idx] = true
	}
	return errors.Join(errs...)
}

// Dir returns the directory holding the instance files.
func (m *Metadata) Dir() string {
	if filepath.IsAbs(m.InputDirectory) {
		return m.InputDirectory
	}
	return filepath.Join(m.baseDir, m.InputDirectory)
}

// ProbName returns the instance name of index idx: the prefix followed by the
// index zero-padded to suffix_digits.
func (m *Metadata) ProbName(idx int) string {
	return fmt.Sprintf("%s%0*d", m.InputPrefix, m.SuffixDigits, idx)
}

// Naming returns the file naming described by the metadata.
func (m *Metadata) Naming() instance.Naming {
	return instance.Naming{
		MachineEnvSuffix:     m.MachineEnvSuffix,
		MachineEnvExt:        m.MachineEnvExtension,
		CastSuffix:           m.CastSuffix,
		CastExt:              m.CastExtension,
		DueDateSuffix:        m.DueDateSuffix,
		DueDateExt:           m.DueDateExtension,
		ProcessingTimeSuffix: m.ProcessTimeSuffix,
		ProcessingTimeExt:    m.ProcessTimeExtension,
	}
}

// Header returns the processing-time column names.
func (m *Metadata) Header() instance.Header {
	return instance.Header{
		Charge:  m.ProcessTimeHeader[0],
		Machine: m.ProcessTimeHeader[1],
		Time:    m.ProcessTimeHeader[2],
	}
}

// FileSet returns the four file paths of index idx.
func (m *Metadata) FileSet(idx int) instance.FileSet {
	return m.Naming().FileSet(m.Dir(), m.ProbName(idx))
}

// Options returns loader options for the naming, header and encoding.
func (m *Metadata) Options() []instance.Option {
	return []instance.Option{
		instance.WithNaming(m.Naming()),
		instance.WithHeader(m.Header()),
		instance.WithEncoding(m.Encoding),
	}
}

// LoadInstance loads the instance of index idx.
func (m *Metadata) LoadInstance(idx int, opts ...instance.Option) (*instance.Instance, error) {
	return instance.Load(m.Dir(), m.ProbName(idx), append(m.Options(), opts...)...)
}

// Limits returns the sampling limits after checking that exactly one
// limiting policy is selected and that its bounds are defined.
func (m *Metadata) Limits() (sampler.Limits, error) {
	lim := sampler.Limits{CastLengthMin: m.CastLengthMin, CastLengthMax: m.CastLengthMax}

	if m.LimitByCasts == m.LimitByCharges {
		return lim, errors.New("choose one among two limiting policies: casts or charges")
	}

	lo, hi := m.CastCountMin, m.CastCountMax
	loKey, hiKey := "cast_count_min", "cast_count_max"
	lim.Policy = sampler.ByCasts
	if m.LimitByCharges {
		lo, hi = m.ChargeCountMin, m.ChargeCountMax
		loKey, hiKey = "charge_count_min", "charge_count_max"
		lim.Policy = sampler.ByCharges
	}

	var undefined []string
	if lo == nil {
		undefined = append(undefined, loKey)
	}
	if hi == nil {
		undefined = append(undefined, hiKey)
	}
	if len(undefined) > 0 {
		return lim, fmt.Errorf("%s not defined in input metadata", strings.Join(undefined, " "))
	}

	lim.Min, lim.Max = *lo, *hi
	if err := lim.Validate(); err != nil {
		return lim, err
	}
	return lim, nil
}
