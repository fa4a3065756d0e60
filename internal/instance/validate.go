package instance

import (
	"fmt"
	"slices"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/canon"
)

// Validate checks the cross-file invariants of parts and returns every
// violation, sorted by code and location. An empty result means parts form
// a valid instance under the given routing.
func Validate(p Parts, routing Routing) []Violation {
	var vs []Violation
	add := func(v Violation) { vs = append(vs, v) }

	stageOf := checkMachineEnvironment(p.Env, add)
	castOf := checkCasts(p.Casts, add)

	// Due dates: both directions between the cast charges and the due file.
	for _, castID := range p.Casts.CastSeq {
		for _, ch := range uniq(p.Casts.Charges[castID]) {
			if castOf[ch] != castID {
				continue
			}
			if _, ok := p.DueDates[ch]; !ok {
				add(Violation{Code: ErrCodeNoDueDate, File: FileDueDate, Cast: castID, Charge: ch,
					Message: fmt.Sprintf("charge %s in cast file has no due date", ch)})
			}
		}
	}
	for _, ch := range canon.SortedKeys(p.DueDates) {
		if _, ok := castOf[ch]; !ok {
			add(Violation{Code: ErrCodeUnknownDueCharge, File: FileDueDate, Charge: ch,
				Message: fmt.Sprintf("charge %s in due date file belongs to no cast", ch)})
		}
	}

	// Processing-time rows must name known charges and machines.
	for _, ch := range canon.SortedKeys(p.ProcessingTimes) {
		rows := p.ProcessingTimes[ch]
		if _, ok := castOf[ch]; !ok {
			add(Violation{Code: ErrCodeUnknownPTCharge, File: FileProcessingTime, Charge: ch,
				Message: fmt.Sprintf("charge %s in processing-time file belongs to no cast", ch)})
		}
		for _, m := range canon.SortedKeys(rows) {
			if _, ok := stageOf[m]; !ok {
				add(Violation{Code: ErrCodeUnknownMachine, File: FileProcessingTime, Charge: ch, Machine: m,
					Message: fmt.Sprintf("charge %s in processing-time file refers to unknown machine %s", ch, m)})
			}
			if rows[m] < 0 {
				add(Violation{Code: ErrCodeNegativeTime, File: FileProcessingTime, Charge: ch, Machine: m, Stage: stageOf[m],
					Message: fmt.Sprintf("charge %s has negative processing time %d on machine %s", ch, rows[m], m)})
			}
		}
	}

	// Every cast charge needs a time at each required stage.
	for _, castID := range p.Casts.CastSeq {
		for _, ch := range uniq(p.Casts.Charges[castID]) {
			if castOf[ch] != castID {
				continue
			}
			if routing == RoutingDerived && len(route(p, ch)) == 0 {
				add(Violation{Code: ErrCodeEmptyRoute, File: FileProcessingTime, Cast: castID, Charge: ch,
					Message: fmt.Sprintf("charge %s in cast file has no processing-time entry at any stage", ch)})
			}
			rows := p.ProcessingTimes[ch]
			for _, stage := range requiredStages(p, ch, routing) {
				if len(p.Env.Machines[stage]) == 0 {
					continue // reported as E301
				}
				if !hasStageRow(rows, p.Env.Machines[stage]) {
					add(Violation{Code: ErrCodeMissingTime, File: FileProcessingTime, Cast: castID, Charge: ch, Stage: stage,
						Message: fmt.Sprintf("charge %s in cast file has no processing-time entry for stage %s", ch, stage)})
				}
			}
		}
	}

	sortViolations(vs)
	return vs
}

// checkMachineEnvironment returns machine id -> stage id for the stages in
// stage_seq. A machine listed twice keeps its first stage.
func checkMachineEnvironment(env MachineEnvironment, add func(Violation)) map[string]string {
	stageOf := make(map[string]string)
	seen := make(map[string]bool, len(env.StageSeq))

	for _, stage := range env.StageSeq {
		if seen[stage] {
			add(Violation{Code: ErrCodeDuplicateStage, File: FileMachineEnv, Stage: stage,
				Message: fmt.Sprintf("stage %s appears more than once in %s", stage, StageSeqKey)})
			continue
		}
		seen[stage] = true

		machines, ok := env.Machines[stage]
		if !ok || len(machines) == 0 {
			add(Violation{Code: ErrCodeStageNoMachines, File: FileMachineEnv, Stage: stage,
				Message: fmt.Sprintf("stage %s in machine environment file has no machines", stage)})
			continue
		}
		for _, m := range machines {
			if prev, dup := stageOf[m]; dup {
				add(Violation{Code: ErrCodeMachineTwice, File: FileMachineEnv, Stage: stage, Machine: m,
					Message: fmt.Sprintf("machine %s is listed at stage %s and again at stage %s", m, prev, stage)})
				continue
			}
			stageOf[m] = stage
		}
	}

	for _, stage := range canon.SortedKeys(env.Machines) {
		if !seen[stage] {
			add(Violation{Code: ErrCodeUnlistedStage, File: FileMachineEnv, Stage: stage,
				Message: fmt.Sprintf("stage %s in machine environment file is missing from %s", stage, StageSeqKey)})
		}
	}
	return stageOf
}

// checkCasts returns charge id -> cast id. A charge listed in several casts
// keeps the first cast in cast_seq order.
func checkCasts(casts CastSet, add func(Violation)) map[string]string {
	castOf := make(map[string]string)
	seen := make(map[string]bool, len(casts.CastSeq))

	for _, castID := range casts.CastSeq {
		if seen[castID] {
			add(Violation{Code: ErrCodeDuplicateCast, File: FileCast, Cast: castID,
				Message: fmt.Sprintf("cast %s appears more than once in %s", castID, CastSeqKey)})
			continue
		}
		seen[castID] = true

		charges, ok := casts.Charges[castID]
		if !ok {
			add(Violation{Code: ErrCodeCastKey, File: FileCast, Cast: castID,
				Message: fmt.Sprintf("cast %s is listed in %s but has no charge list", castID, CastSeqKey)})
			continue
		}
		if len(charges) == 0 {
			add(Violation{Code: ErrCodeEmptyCast, File: FileCast, Cast: castID,
				Message: fmt.Sprintf("cast %s has no charges", castID)})
			continue
		}

		inCast := make(map[string]bool, len(charges))
		for _, ch := range charges {
			if inCast[ch] {
				add(Violation{Code: ErrCodeDuplicateInCast, File: FileCast, Cast: castID, Charge: ch,
					Message: fmt.Sprintf("charge %s appears more than once in cast %s", ch, castID)})
				continue
			}
			inCast[ch] = true

			if prev, dup := castOf[ch]; dup {
				add(Violation{Code: ErrCodeChargeInTwoCasts, File: FileCast, Cast: castID, Charge: ch,
					Message: fmt.Sprintf("charge %s belongs to cast %s and cast %s", ch, prev, castID)})
				continue
			}
			castOf[ch] = castID
		}
	}

	for _, castID := range canon.SortedKeys(casts.Charges) {
		if !seen[castID] {
			add(Violation{Code: ErrCodeCastKey, File: FileCast, Cast: castID,
				Message: fmt.Sprintf("cast %s in cast file is missing from %s", castID, CastSeqKey)})
		}
	}
	return castOf
}

func hasStageRow(rows map[string]int, machines []string) bool {
	for _, m := range machines {
		if _, ok := rows[m]; ok {
			return true
		}
	}
	return false
}

// uniq drops repeated ids, keeping first occurrences in order.
func uniq(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
