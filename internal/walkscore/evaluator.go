// Package walkscore implements the WalkScore Evaluator: a stateless function
// over a fixed Fabric mapping a resident and a hypothetical allocation set
// to a 0-100 score (spec.md §4.2). It holds a read-only handle to the
// Fabric and the category weighting tables; it owns no mutable state.
package walkscore

import (
	"sort"

	"walkability/internal/fabric"
	"walkability/internal/model"
)

// Evaluator computes WalkScore(r, S) = PWL(L(r, S)) for a fixed Fabric.
type Evaluator struct {
	f     *fabric.Fabric
	table *WeightingTable
	pwl   *PWL
	// existing is L_c: existing-amenity node ids per category, captured once
	// at construction since the Fabric is immutable for its lifetime.
	existing map[model.Category][]model.NodeID
}

// NewEvaluator binds an Evaluator to a Fabric, weighting table, PWL, and the
// existing-amenity sets per category.
func NewEvaluator(f *fabric.Fabric, table *WeightingTable, pwl *PWL, existing map[model.Category][]model.NodeID) *Evaluator {
	return &Evaluator{f: f, table: table, pwl: pwl, existing: existing}
}

// WeightedDistance computes L(r, S) — the sum of every category's
// contribution, with no normalization by total weight (spec.md §4.2: "the
// category weights already carry the intended scale; this is a deliberate,
// testable contract").
func (e *Evaluator) WeightedDistance(resident model.NodeID, s model.AllocationSet) float64 {
	dInf := e.f.DInfinity()
	var total float64

	for _, category := range e.table.order {
		w := e.table.entries[category]

		switch w.Kind {
		case model.KindPlain:
			total += w.CategoryWeight * e.nearestDistance(resident, category, s, dInf)
		case model.KindDepth:
			total += w.CategoryWeight * e.depthContribution(resident, category, w.RankWeights, s, dInf)
		}
	}
	return total
}

// nearestDistance returns the distance from resident to the nearest
// instance of category across existing amenities and any hypothetical
// allocation, or D∞ if there is none.
func (e *Evaluator) nearestDistance(resident model.NodeID, category model.Category, s model.AllocationSet, dInf float64) float64 {
	best := dInf
	found := false

	for _, node := range e.existing[category] {
		d := e.f.Distance(resident, node)
		if !found || d < best {
			best = d
			found = true
		}
	}
	for node := range s[category] {
		d := e.f.Distance(resident, node)
		if !found || d < best {
			best = d
			found = true
		}
	}
	if !found {
		return dInf
	}
	return best
}

// depthContribution returns Σ_{p=1..r} w_p · d_p for a depth category,
// padding missing ranks with D∞ (spec.md §3, §4.2).
func (e *Evaluator) depthContribution(resident model.NodeID, category model.Category, rankWeights []float64, s model.AllocationSet, dInf float64) float64 {
	n := len(e.existing[category]) + len(s[category])
	distances := make([]float64, 0, n)

	for _, node := range e.existing[category] {
		distances = append(distances, e.f.Distance(resident, node))
	}
	for node := range s[category] {
		distances = append(distances, e.f.Distance(resident, node))
	}
	sort.Float64s(distances)

	var contribution float64
	for p, wp := range rankWeights {
		if p < len(distances) {
			contribution += wp * distances[p]
		} else {
			contribution += wp * dInf
		}
	}
	return contribution
}

// Score returns WalkScore(r, S) = PWL(L(r, S)).
func (e *Evaluator) Score(resident model.NodeID, s model.AllocationSet) float64 {
	return e.pwl.Score(e.WeightedDistance(resident, s))
}
