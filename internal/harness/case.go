package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
)

// Case is one validation case.
type Case struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Routing is "all" or "derived"; empty means all.
	Routing string `yaml:"routing,omitempty"`

	// Mode is "collect" or "fail-fast"; empty means collect.
	Mode string `yaml:"mode,omitempty"`

	Files  Files  `yaml:"files"`
	Expect Expect `yaml:"expect"`
}

// Files holds the inline file contents. Empty entries are not written.
type Files struct {
	MachineEnv     string `yaml:"mc_env,omitempty"`
	Cast           string `yaml:"cast,omitempty"`
	DueDate        string `yaml:"duedate,omitempty"`
	ProcessingTime string `yaml:"pt,omitempty"`
}

// Expect is the expected outcome of loading the case.
type Expect struct {
	Valid      bool     `yaml:"valid"`
	ParseError string   `yaml:"parse_error,omitempty"`
	Violations []string `yaml:"violations,omitempty"`
	Charges    []string `yaml:"charges,omitempty"`
}

var validModes = []string{"", "collect", "fail-fast"}

// LoadCase reads and parses a case file. Unknown fields are rejected so
// typos fail loudly.
func LoadCase(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}

	var c Case
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateCase(&c); err != nil {
		return nil, fmt.Errorf("invalid case %s: %w", path, err)
	}
	return &c, nil
}

// LoadCases loads every *.yaml case in dir, sorted by file name.
func LoadCases(dir string) ([]*Case, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)

	cases := make([]*Case, 0, len(paths))
	names := make(map[string]string, len(paths))
	for _, p := range paths {
		c, err := LoadCase(p)
		if err != nil {
			return nil, err
		}
		if prev, dup := names[c.Name]; dup {
			return nil, fmt.Errorf("case name %q used by %s and %s", c.Name, prev, p)
		}
		names[c.Name] = p
		cases = append(cases, c)
	}
	return cases, nil
}

func validateCase(c *Case) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, ok := instance.ParseRouting(c.Routing); !ok {
		return fmt.Errorf("routing must be all or derived, got %q", c.Routing)
	}
	if !slices.Contains(validModes, c.Mode) {
		return fmt.Errorf("mode must be collect or fail-fast, got %q", c.Mode)
	}
	if c.Expect.Valid && (c.Expect.ParseError != "" || len(c.Expect.Violations) > 0) {
		return fmt.Errorf("expect: a valid case cannot list errors")
	}
	if !c.Expect.Valid && c.Expect.ParseError == "" && len(c.Expect.Violations) == 0 {
		return fmt.Errorf("expect: an invalid case needs parse_error or violations")
	}
	if c.Expect.ParseError != "" && len(c.Expect.Violations) > 0 {
		return fmt.Errorf("expect: parse_error and violations are exclusive")
	}
	return nil
}

func (c *Case) options() []instance.Option {
	routing, _ := instance.ParseRouting(c.Routing)
	mode := instance.ModeCollectAll
	if c.Mode == "fail-fast" {
		mode = instance.ModeFailFast
	}
	return []instance.Option{instance.WithRouting(routing), instance.WithMode(mode)}
}
