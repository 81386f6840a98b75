package walkscore

import (
	"sort"

	"github.com/cockroachdb/errors"

	"walkability/internal/model"
)

// WeightingTable is the read-only category weighting table the Evaluator
// binds to for its lifetime (spec.md §3 "Category weighting", §4.2). Entries
// are validated eagerly at construction — mismatched or negative weights are
// configuration errors, never silently defaulted (spec.md §9 Open
// Questions: "missing category weight is a configuration error, not a
// silent default").
type WeightingTable struct {
	entries map[model.Category]model.CategoryWeighting
	// order is the deterministic iteration order over categories, fixed at
	// construction, so that WeightedDistance sums terms in the same order
	// on every run (spec.md §8 property 8: determinism).
	order []model.Category
}

// NewWeightingTable validates and builds a WeightingTable.
func NewWeightingTable(weightings []model.CategoryWeighting) (*WeightingTable, error) {
	if len(weightings) == 0 {
		return nil, errors.Wrap(model.ErrConfigInvalid, "weighting table must have at least one category")
	}

	entries := make(map[model.Category]model.CategoryWeighting, len(weightings))
	order := make([]model.Category, 0, len(weightings))

	for _, w := range weightings {
		if _, dup := entries[w.Category]; dup {
			return nil, errors.Wrapf(model.ErrConfigInvalid, "duplicate weighting entry for category %q", w.Category)
		}
		if w.CategoryWeight < 0 {
			return nil, errors.Wrapf(model.ErrConfigInvalid, "category %q has negative category_weight %f", w.Category, w.CategoryWeight)
		}
		switch w.Kind {
		case model.KindPlain:
			if len(w.RankWeights) != 0 {
				return nil, errors.Wrapf(model.ErrConfigInvalid, "plain category %q must not declare rank_weights", w.Category)
			}
		case model.KindDepth:
			if len(w.RankWeights) == 0 {
				return nil, errors.Wrapf(model.ErrConfigInvalid, "depth category %q requires at least one rank weight", w.Category)
			}
			for p, rw := range w.RankWeights {
				if rw < 0 {
					return nil, errors.Wrapf(model.ErrConfigInvalid, "depth category %q has negative rank weight at rank %d", w.Category, p+1)
				}
			}
		default:
			return nil, errors.Wrapf(model.ErrConfigInvalid, "category %q has unknown kind", w.Category)
		}
		entries[w.Category] = w
		order = append(order, w.Category)
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	return &WeightingTable{entries: entries, order: order}, nil
}

// Get returns the weighting entry for a category, if defined.
func (t *WeightingTable) Get(c model.Category) (model.CategoryWeighting, bool) {
	w, ok := t.entries[c]
	return w, ok
}

// Categories returns every category in the table, in deterministic order.
func (t *WeightingTable) Categories() []model.Category {
	return append([]model.Category(nil), t.order...)
}

// Has reports whether a category is defined in the table.
func (t *WeightingTable) Has(c model.Category) bool {
	_, ok := t.entries[c]
	return ok
}
