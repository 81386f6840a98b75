// Package resultio serializes an allocator.Result into the stable output
// schema delivered to the persistence/presentation collaborator
// (spec.md §6 "Outputs from the core").
package resultio

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/cockroachdb/errors"

	"walkability/internal/allocator"
)

// IterationRecord is one trace entry in the wire format (spec.md §6:
// "(iteration, category, candidate_id, delta, running_average)").
type IterationRecord struct {
	Iteration      int     `json:"iteration"`
	Category       string  `json:"category"`
	CandidateID    int64   `json:"candidate_id"`
	Delta          float64 `json:"delta"`
	RunningAverage float64 `json:"running_average"`
}

// Solution is the full wire-format output of one optimization run.
type Solution struct {
	Allocation           map[string][]int64 `json:"allocation"`             // category -> candidate ids
	ResidentScores       map[int64]float64   `json:"resident_scores"`       // building_id -> score
	Trace                []IterationRecord   `json:"iteration_trace"`
	InfeasibleCategories []string            `json:"infeasible_categories"`
	FinalAverage         float64             `json:"final_average"`
}

// FromResult converts an allocator.Result into the wire-format Solution,
// sorting every map-derived slice for deterministic output byte-for-byte
// across runs with identical inputs (spec.md §8 property 8).
func FromResult(r *allocator.Result) *Solution {
	allocation := make(map[string][]int64, len(r.Allocation))
	for category, ids := range r.Allocation {
		list := make([]int64, 0, len(ids))
		for id := range ids {
			list = append(list, id)
		}
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
		allocation[string(category)] = list
	}

	trace := make([]IterationRecord, len(r.Trace))
	for i, rec := range r.Trace {
		trace[i] = IterationRecord{
			Iteration:      rec.Iteration,
			Category:       string(rec.Category),
			CandidateID:    rec.CandidateID,
			Delta:          rec.Delta,
			RunningAverage: rec.RunningAverage,
		}
	}

	infeasible := make([]string, len(r.InfeasibleCategories))
	for i, c := range r.InfeasibleCategories {
		infeasible[i] = string(c)
	}
	sort.Strings(infeasible)

	return &Solution{
		Allocation:           allocation,
		ResidentScores:       r.ResidentScores,
		Trace:                trace,
		InfeasibleCategories: infeasible,
		FinalAverage:         r.FinalAverage,
	}
}

// WriteJSON writes a Solution as pretty-printed JSON.
func WriteJSON(w io.Writer, s *Solution) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return errors.Wrap(err, "encode solution JSON")
	}
	return nil
}
