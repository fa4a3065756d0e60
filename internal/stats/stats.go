// Package stats summarises an instance: sizes, cast lengths, processing
// times per stage and due dates.
package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
)

// Dist describes a sample of values.
type Dist struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// StageStats are the processing-time statistics of one stage, taken over
// every (charge, machine) row whose machine belongs to the stage.
type StageStats struct {
	Stage    string `json:"stage"`
	Machines int    `json:"machines"`
	Charges  int    `json:"charges"`
	Times    Dist   `json:"processing_time"`
}

// Summary is the statistical profile of an instance.
type Summary struct {
	Name       string       `json:"name"`
	Stages     int          `json:"stages"`
	Machines   int          `json:"machines"`
	Casts      int          `json:"casts"`
	Charges    int          `json:"charges"`
	CastLength Dist         `json:"cast_length"`
	DueDate    Dist         `json:"due_date"`
	PerStage   []StageStats `json:"per_stage"`
}

// Summarize computes the summary of inst.
func Summarize(inst *instance.Instance) Summary {
	charges := inst.Charges()
	s := Summary{
		Name:     inst.Name,
		Stages:   len(inst.Stages()),
		Machines: inst.MachineCount(),
		Casts:    len(inst.CastIDs()),
		Charges:  len(charges),
	}

	lengths := make([]float64, 0, s.Casts)
	for _, id := range inst.CastIDs() {
		c, _ := inst.Cast(id)
		lengths = append(lengths, float64(len(c)))
	}
	s.CastLength = describe(lengths)

	due := make([]float64, 0, len(charges))
	for _, ch := range charges {
		if d, ok := inst.DueDate(ch); ok {
			due = append(due, float64(d))
		}
	}
	s.DueDate = describe(due)

	for _, stage := range inst.Stages() {
		st := StageStats{Stage: stage, Machines: len(inst.Machines(stage))}
		var times []float64
		for _, ch := range charges {
			rows := inst.StageTimes(ch, stage)
			if len(rows) > 0 {
				st.Charges++
			}
			for _, m := range inst.Machines(stage) {
				if pt, ok := rows[m]; ok {
					times = append(times, float64(pt))
				}
			}
		}
		st.Times = describe(times)
		s.PerStage = append(s.PerStage, st)
	}
	return s
}

// describe returns the distribution of xs. StdDev is the sample standard
// deviation and is zero for fewer than two values.
func describe(xs []float64) Dist {
	if len(xs) == 0 {
		return Dist{}
	}
	d := Dist{
		Count: len(xs),
		Min:   floats.Min(xs),
		Max:   floats.Max(xs),
		Mean:  stat.Mean(xs, nil),
	}
	if len(xs) > 1 {
		d.StdDev = stat.StdDev(xs, nil)
	}
	return d
}
