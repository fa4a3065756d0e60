package instance

import (
	"github.com/rs/zerolog"
)

// DefaultEncoding is used when no encoding option is given.
const DefaultEncoding = "utf-8"

type options struct {
	routing  Routing
	mode     Mode
	encoding string
	naming   Naming
	header   Header
	logger   zerolog.Logger
}

// Option configures Load, LoadFiles and New.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		routing:  RoutingAll,
		mode:     ModeCollectAll,
		encoding: DefaultEncoding,
		naming:   DefaultNaming,
		header:   DefaultHeader,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithRouting selects how required stages are determined.
func WithRouting(r Routing) Option { return func(o *options) { o.routing = r } }

// WithMode selects fail-fast or collect-all violation reporting.
func WithMode(m Mode) Option { return func(o *options) { o.mode = m } }

// WithEncoding sets the text encoding of the files (WHATWG label, e.g.
// "utf-8" or "euc-kr").
func WithEncoding(name string) Option {
	return func(o *options) {
		if name != "" {
			o.encoding = name
		}
	}
}

// WithNaming overrides the file suffixes and extensions.
func WithNaming(n Naming) Option { return func(o *options) { o.naming = n } }

// WithHeader overrides the processing-time CSV column names.
func WithHeader(h Header) Option { return func(o *options) { o.header = h } }

// WithLogger sets the logger used for debug output.
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.logger = l } }

// Load reads instance name from dir, validates it and returns it.
func Load(dir, name string, opts ...Option) (*Instance, error) {
	o := newOptions(opts)
	return loadFiles(name, o.naming.FileSet(dir, name), o, opts)
}

// LoadFiles reads an instance from explicit paths.
func LoadFiles(name string, files FileSet, opts ...Option) (*Instance, error) {
	return loadFiles(name, files, newOptions(opts), opts)
}

// ReadParts decodes the four files without cross-file validation.
func ReadParts(files FileSet, opts ...Option) (Parts, error) {
	return readParts(files, newOptions(opts))
}

func loadFiles(name string, files FileSet, o options, opts []Option) (*Instance, error) {
	log := o.logger.With().Str("instance", name).Logger()

	parts, err := readParts(files, o)
	if err != nil {
		log.Debug().Err(err).Msg("read failed")
		return nil, err
	}

	inst, err := New(name, parts, opts...)
	if err != nil {
		log.Debug().Err(err).Msg("validation failed")
		return nil, err
	}

	log.Debug().
		Int("stages", len(parts.Env.StageSeq)).
		Int("casts", len(parts.Casts.CastSeq)).
		Int("charges", len(inst.castOf)).
		Str("routing", o.routing.String()).
		Msg("instance loaded")
	return inst, nil
}

func readParts(files FileSet, o options) (Parts, error) {
	env, err := ReadMachineEnvironment(files.MachineEnv, o.encoding)
	if err != nil {
		return Parts{}, err
	}
	casts, err := ReadCasts(files.Cast, o.encoding)
	if err != nil {
		return Parts{}, err
	}
	due, err := ReadDueDates(files.DueDate, o.encoding)
	if err != nil {
		return Parts{}, err
	}
	pt, err := ReadProcessingTimes(files.ProcessingTime, o.encoding, o.header)
	if err != nil {
		return Parts{}, err
	}
	return Parts{Env: env, Casts: casts, DueDates: due, ProcessingTimes: pt}, nil
}
