// Package sampler draws smaller instances out of a large one by selecting a
// contiguous window of casts, within the problem-size limits of a
// metadata file.
package sampler

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
)

// Policy selects which quantity the size limits bound.
type Policy int

const (
	ByCasts Policy = iota + 1
	ByCharges
)

func (p Policy) String() string {
	switch p {
	case ByCasts:
		return "casts"
	case ByCharges:
		return "charges"
	default:
		return "none"
	}
}

// Limits bounds the size of a sampled instance.
// CastLengthMax of 0 leaves cast length unbounded.
type Limits struct {
	CastLengthMin int
	CastLengthMax int
	Policy        Policy
	Min           int
	Max           int
}

// ErrNoWindow is returned when no window of eligible casts fits the limits.
var ErrNoWindow = errors.New("no cast window satisfies the size limits")

// Validate checks that the limits are usable.
func (l Limits) Validate() error {
	if l.Policy != ByCasts && l.Policy != ByCharges {
		return fmt.Errorf("limits: choose one limiting policy: casts or charges")
	}
	if l.Min < 1 {
		return fmt.Errorf("limits: %s minimum must be at least 1, got %d", l.Policy, l.Min)
	}
	if l.Max < l.Min {
		return fmt.Errorf("limits: %s maximum %d is below minimum %d", l.Policy, l.Max, l.Min)
	}
	if l.CastLengthMin < 0 || (l.CastLengthMax > 0 && l.CastLengthMax < l.CastLengthMin) {
		return fmt.Errorf("limits: invalid cast length range %d..%d", l.CastLengthMin, l.CastLengthMax)
	}
	return nil
}

func (l Limits) eligible(length int) bool {
	if length < l.CastLengthMin {
		return false
	}
	return l.CastLengthMax == 0 || length <= l.CastLengthMax
}

// window is a half-open range over the eligible cast list.
type window struct{ from, to int }

// Sample returns a new instance named name holding a random contiguous
// window of eligible casts of src. The machine environment is kept whole.
// The same seed always yields the same sample.
func Sample(src *instance.Instance, name string, lim Limits, seed uint64) (*instance.Instance, error) {
	if err := lim.Validate(); err != nil {
		return nil, err
	}

	var casts []string
	var lengths []int
	for _, id := range src.CastIDs() {
		charges, _ := src.Cast(id)
		if lim.eligible(len(charges)) {
			casts = append(casts, id)
			lengths = append(lengths, len(charges))
		}
	}

	var windows []window
	for from := range casts {
		total := 0
		for to := from + 1; to <= len(casts); to++ {
			size := to - from
			if lim.Policy == ByCharges {
				total += lengths[to-1]
				size = total
			}
			if size > lim.Max {
				break
			}
			if size >= lim.Min {
				windows = append(windows, window{from, to})
			}
		}
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("sample %s from %s: %w", name, src.Name, ErrNoWindow)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	w := windows[rng.IntN(len(windows))]

	return restrict(src, name, casts[w.from:w.to])
}

// restrict builds an instance from the given casts of src.
func restrict(src *instance.Instance, name string, castIDs []string) (*instance.Instance, error) {
	all := src.Parts()
	parts := instance.Parts{
		Env: all.Env,
		Casts: instance.CastSet{
			CastSeq: castIDs,
			Charges: make(map[string][]string, len(castIDs)),
		},
		DueDates:        make(instance.DueDates),
		ProcessingTimes: make(instance.ProcessingTimes),
	}
	for _, id := range castIDs {
		charges := all.Casts.Charges[id]
		parts.Casts.Charges[id] = charges
		for _, ch := range charges {
			parts.DueDates[ch] = all.DueDates[ch]
			parts.ProcessingTimes[ch] = all.ProcessingTimes[ch]
		}
	}
	return instance.New(name, parts, instance.WithRouting(src.Routing))
}
