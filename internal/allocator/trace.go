package allocator

import "walkability/internal/model"

// IterationRecord is one committed greedy-selection event (spec.md §4.3
// step 4, §6 "Iteration trace": "(iteration, category, candidate_id, delta,
// running_average)"). CandidateID is the external candidate_id, not the
// internal snapped node id.
type IterationRecord struct {
	Iteration      int
	Category       model.Category
	CandidateID    int64
	Delta          float64
	RunningAverage float64
}

// Allocation maps category -> set of candidate ids chosen to host a newly
// built amenity of that category (spec.md §6: "Selected allocation S: map
// category -> list of candidate ids"). Candidate id, not snapped node id.
type Allocation map[model.Category]map[int64]struct{}

// Result is the Allocator's output (spec.md §4.3 "Output", §6 "Outputs from
// the core").
type Result struct {
	Allocation           Allocation
	ResidentScores       map[int64]float64 // building_id -> score
	Trace                []IterationRecord
	InfeasibleCategories []model.Category
	FinalAverage         float64
}
