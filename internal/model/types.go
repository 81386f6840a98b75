// Package model holds the core entity types shared by the Fabric, Evaluator,
// and Allocator: network nodes and edges, residential buildings, existing
// amenities, candidate sites, and category weighting.
package model

// NodeID is a stable network node identifier.
type NodeID int64

// NodeTag classifies a network node. The tag is carried for provenance only:
// graph.Build does not read it, and every node passed to it takes part in
// routing whatever its tag.
type NodeTag string

// TagNetwork marks a pure road/path node.
const TagNetwork NodeTag = "network"

// Node is a network node carrying its WGS84 position and classification.
type Node struct {
	ID  NodeID
	Lat float64
	Lon float64
	Tag NodeTag
}

// Edge is an unordered, symmetric pair of node ids with a positive length.
type Edge struct {
	From   NodeID
	To     NodeID
	Length float64 // meters, > 0
}

// Building is a residential building snapped to a network node. Multiple
// buildings may share a node. Lat/Lon are retained for presentation only.
type Building struct {
	ID     int64
	Node   NodeID
	Lat    float64
	Lon    float64
}

// Category identifies an amenity category (e.g. "grocery", "restaurant").
type Category string

// Amenity is an existing amenity of a given category snapped to a node.
type Amenity struct {
	ID       int64
	Category Category
	Node     NodeID
}

// Candidate is a candidate site eligible to host newly-allocated amenities.
type Candidate struct {
	ID       int64
	Node     NodeID
	Capacity int32 // max amenities of any category combination hosted here
}

// CategoryKind distinguishes plain (nearest-only) from depth (top-r) scoring.
type CategoryKind int

const (
	// KindPlain scores only the nearest amenity of the category.
	KindPlain CategoryKind = iota
	// KindDepth scores the top-r nearest amenities with per-rank weights.
	KindDepth
)

// CategoryWeighting is the tagged-variant descriptor for one category's
// contribution to a resident's weighted distance (spec.md §3, §4.2).
type CategoryWeighting struct {
	Category      Category
	Kind          CategoryKind
	CategoryWeight float64
	// RankWeights holds w_1..w_r for depth categories; empty for plain.
	RankWeights []float64
}

// AllocationSet maps category -> set of candidate node ids chosen to host a
// newly-built amenity of that category (spec.md §3).
type AllocationSet map[Category]map[NodeID]struct{}

// NewAllocationSet returns an empty allocation set for the given categories.
func NewAllocationSet(categories []Category) AllocationSet {
	s := make(AllocationSet, len(categories))
	for _, c := range categories {
		s[c] = make(map[NodeID]struct{})
	}
	return s
}

// Clone returns a deep copy of the allocation set.
func (s AllocationSet) Clone() AllocationSet {
	out := make(AllocationSet, len(s))
	for c, nodes := range s {
		cp := make(map[NodeID]struct{}, len(nodes))
		for n := range nodes {
			cp[n] = struct{}{}
		}
		out[c] = cp
	}
	return out
}

// Count returns the number of candidates allocated to category c.
func (s AllocationSet) Count(c Category) int {
	return len(s[c])
}

// CandidateTotals returns, for every node appearing in any category, the
// number of categories it has been allocated across — the left-hand side of
// the per-candidate capacity invariant Σ_c 1{j ∈ S[c]} ≤ capacity_j. The
// Allocator does not call it; it tracks remaining capacity separately.
func (s AllocationSet) CandidateTotals() map[NodeID]int {
	totals := make(map[NodeID]int)
	for _, nodes := range s {
		for n := range nodes {
			totals[n]++
		}
	}
	return totals
}
