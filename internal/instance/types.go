package instance

import (
	"maps"
	"path/filepath"
	"slices"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/canon"
)

// Reserved keys in the machine environment and cast documents.
const (
	StageSeqKey = "stage_seq"
	CastSeqKey  = "cast_seq"
)

// FileKind names one of the four files of an instance.
type FileKind string

const (
	FileMachineEnv     FileKind = "mc_env"
	FileCast           FileKind = "cast"
	FileDueDate        FileKind = "duedate"
	FileProcessingTime FileKind = "pt"
)

// Routing decides which stages a charge is required to visit.
type Routing int

const (
	// RoutingAll requires every stage in stage_seq for every charge.
	RoutingAll Routing = iota
	// RoutingDerived requires the stages a charge has processing-time rows
	// for. The last stage (casting) is always required.
	RoutingDerived
)

func (r Routing) String() string {
	switch r {
	case RoutingAll:
		return "all"
	case RoutingDerived:
		return "derived"
	default:
		return "unknown"
	}
}

// ParseRouting maps "all" or "derived" to a Routing.
func ParseRouting(s string) (Routing, bool) {
	switch s {
	case "all", "":
		return RoutingAll, true
	case "derived":
		return RoutingDerived, true
	default:
		return RoutingAll, false
	}
}

// Mode controls how many violations a failed load reports.
type Mode int

const (
	// ModeCollectAll reports every violation found.
	ModeCollectAll Mode = iota
	// ModeFailFast reports only the first violation.
	ModeFailFast
)

// MachineEnvironment is the content of the *_mc_env.json file.
type MachineEnvironment struct {
	StageSeq []string
	Machines map[string][]string // stage id -> machine ids
}

// CastSet is the content of the *_cast.json file.
type CastSet struct {
	CastSeq []string
	Charges map[string][]string // cast id -> ordered charge ids
}

// DueDates maps charge id to due date.
type DueDates map[string]int

// ProcessingTimes maps charge id -> machine id -> processing time.
type ProcessingTimes map[string]map[string]int

// Parts groups the four decoded files of an instance.
type Parts struct {
	Env             MachineEnvironment
	Casts           CastSet
	DueDates        DueDates
	ProcessingTimes ProcessingTimes
}

// Clone returns a deep copy.
func (p Parts) Clone() Parts {
	out := Parts{
		Env: MachineEnvironment{
			StageSeq: slices.Clone(p.Env.StageSeq),
			Machines: make(map[string][]string, len(p.Env.Machines)),
		},
		Casts: CastSet{
			CastSeq: slices.Clone(p.Casts.CastSeq),
			Charges: make(map[string][]string, len(p.Casts.Charges)),
		},
		DueDates:        maps.Clone(p.DueDates),
		ProcessingTimes: make(ProcessingTimes, len(p.ProcessingTimes)),
	}
	for k, v := range p.Env.Machines {
		out.Env.Machines[k] = slices.Clone(v)
	}
	for k, v := range p.Casts.Charges {
		out.Casts.Charges[k] = slices.Clone(v)
	}
	for k, v := range p.ProcessingTimes {
		out.ProcessingTimes[k] = maps.Clone(v)
	}
	if out.DueDates == nil {
		out.DueDates = DueDates{}
	}
	return out
}

// Naming describes how an instance name maps to its four file names.
type Naming struct {
	MachineEnvSuffix     string
	MachineEnvExt        string
	CastSuffix           string
	CastExt              string
	DueDateSuffix        string
	DueDateExt           string
	ProcessingTimeSuffix string
	ProcessingTimeExt    string
}

// DefaultNaming is the layout used by the published dataset.
var DefaultNaming = Naming{
	MachineEnvSuffix:     "_mc_env",
	MachineEnvExt:        ".json",
	CastSuffix:           "_cast",
	CastExt:              ".json",
	DueDateSuffix:        "_duedate",
	DueDateExt:           ".json",
	ProcessingTimeSuffix: "_pt",
	ProcessingTimeExt:    ".csv",
}

// FileSet holds the paths of the four files of one instance.
type FileSet struct {
	MachineEnv     string `json:"mc_env"`
	Cast           string `json:"cast"`
	DueDate        string `json:"duedate"`
	ProcessingTime string `json:"pt"`
}

// FileSet returns the paths of instance name inside dir.
func (n Naming) FileSet(dir, name string) FileSet {
	prefix := filepath.Join(dir, name)
	return FileSet{
		MachineEnv:     prefix + n.MachineEnvSuffix + n.MachineEnvExt,
		Cast:           prefix + n.CastSuffix + n.CastExt,
		DueDate:        prefix + n.DueDateSuffix + n.DueDateExt,
		ProcessingTime: prefix + n.ProcessingTimeSuffix + n.ProcessingTimeExt,
	}
}

// Path returns the path of the given file kind.
func (fs FileSet) Path(kind FileKind) string {
	switch kind {
	case FileMachineEnv:
		return fs.MachineEnv
	case FileCast:
		return fs.Cast
	case FileDueDate:
		return fs.DueDate
	case FileProcessingTime:
		return fs.ProcessingTime
	default:
		return ""
	}
}

// Header names the processing-time CSV columns.
type Header struct {
	Charge  string
	Machine string
	Time    string
}

// DefaultHeader is ch_id,mc_id,pt.
var DefaultHeader = Header{Charge: "ch_id", Machine: "mc_id", Time: "pt"}

// Instance is a validated SCC instance.
type Instance struct {
	Name    string
	Routing Routing

	parts   Parts
	stageOf map[string]string // machine id -> stage id
	castOf  map[string]string // charge id -> cast id
}

// New validates parts and returns an Instance holding a private copy.
// Violations are returned as *ReferentialIntegrityError.
func New(name string, parts Parts, opts ...Option) (*Instance, error) {
	o := newOptions(opts)
	p := parts.Clone()

	if violations := Validate(p, o.routing); len(violations) > 0 {
		if o.mode == ModeFailFast {
			violations = violations[:1]
		}
		return nil, &ReferentialIntegrityError{Instance: name, Violations: violations}
	}

	inst := &Instance{
		Name:    name,
		Routing: o.routing,
		parts:   p,
		stageOf: make(map[string]string),
		castOf:  make(map[string]string),
	}
	for stage, machines := range p.Env.Machines {
		for _, m := range machines {
			inst.stageOf[m] = stage
		}
	}
	for _, castID := range p.Casts.CastSeq {
		for _, ch := range p.Casts.Charges[castID] {
			inst.castOf[ch] = castID
		}
	}
	return inst, nil
}

// Parts returns a deep copy of the decoded files.
func (inst *Instance) Parts() Parts {
	return inst.parts.Clone()
}

// Stages returns the stage ids in processing order.
func (inst *Instance) Stages() []string {
	return slices.Clone(inst.parts.Env.StageSeq)
}

// Machines returns the machine ids of a stage.
func (inst *Instance) Machines(stage string) []string {
	return slices.Clone(inst.parts.Env.Machines[stage])
}

// MachineCount returns the number of machines across all stages.
func (inst *Instance) MachineCount() int {
	return len(inst.stageOf)
}

// StageOf returns the stage a machine belongs to.
func (inst *Instance) StageOf(machine string) (string, bool) {
	s, ok := inst.stageOf[machine]
	return s, ok
}

// CastIDs returns the cast ids in cast_seq order.
func (inst *Instance) CastIDs() []string {
	return slices.Clone(inst.parts.Casts.CastSeq)
}

// Cast returns the ordered charges of a cast.
func (inst *Instance) Cast(id string) ([]string, bool) {
	charges, ok := inst.parts.Casts.Charges[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(charges), true
}

// CastOf returns the cast a charge belongs to.
func (inst *Instance) CastOf(charge string) (string, bool) {
	c, ok := inst.castOf[charge]
	return c, ok
}

// Charges returns every charge in cast order.
func (inst *Instance) Charges() []string {
	out := make([]string, 0, len(inst.castOf))
	for _, castID := range inst.parts.Casts.CastSeq {
		out = append(out, inst.parts.Casts.Charges[castID]...)
	}
	return out
}

// DueDate returns the due date of a charge.
func (inst *Instance) DueDate(charge string) (int, bool) {
	d, ok := inst.parts.DueDates[charge]
	return d, ok
}

// StageTimes returns machine id -> processing time for a charge at a stage.
// Only machines with a row for the charge are present.
func (inst *Instance) StageTimes(charge, stage string) map[string]int {
	out := make(map[string]int)
	rows := inst.parts.ProcessingTimes[charge]
	for _, m := range inst.parts.Env.Machines[stage] {
		if pt, ok := rows[m]; ok {
			out[m] = pt
		}
	}
	return out
}

// Route returns the stages the charge has processing-time rows for, in
// stage order.
func (inst *Instance) Route(charge string) []string {
	return route(inst.parts, charge)
}

// RequiredStages returns the stages the charge must visit under the
// instance routing.
func (inst *Instance) RequiredStages(charge string) []string {
	return requiredStages(inst.parts, charge, inst.Routing)
}

// Fingerprint is a content hash of the instance, independent of its name,
// file layout and JSON key order.
func (inst *Instance) Fingerprint() (string, error) {
	p := inst.parts
	return canon.Fingerprint(canon.DomainInstance, map[string]any{
		"stage_seq":        p.Env.StageSeq,
		"machines":         p.Env.Machines,
		"cast_seq":         p.Casts.CastSeq,
		"casts":            p.Casts.Charges,
		"due_dates":        map[string]int(p.DueDates),
		"processing_times": map[string]map[string]int(p.ProcessingTimes),
	})
}

func route(p Parts, charge string) []string {
	rows := p.ProcessingTimes[charge]
	var out []string
	for _, stage := range p.Env.StageSeq {
		for _, m := range p.Env.Machines[stage] {
			if _, ok := rows[m]; ok {
				out = append(out, stage)
				break
			}
		}
	}
	return out
}

func requiredStages(p Parts, charge string, routing Routing) []string {
	if routing == RoutingAll || len(p.Env.StageSeq) == 0 {
		return uniq(p.Env.StageSeq)
	}
	stages := route(p, charge)
	last := p.Env.StageSeq[len(p.Env.StageSeq)-1]
	if !slices.Contains(stages, last) {
		stages = append(stages, last)
	}
	return stages
}
