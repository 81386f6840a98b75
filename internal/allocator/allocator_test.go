package allocator

import (
	"context"
	"testing"

	"walkability/internal/fabric"
	"walkability/internal/graph"
	"walkability/internal/model"
	"walkability/internal/walkscore"
)

// buildLine builds a straight line of n nodes, step meters apart, ids 1..n.
func buildLine(t *testing.T, n int, step float64) (*graph.Graph, *fabric.Fabric) {
	t.Helper()
	var nodes []model.Node
	for i := 1; i <= n; i++ {
		nodes = append(nodes, model.Node{ID: model.NodeID(i)})
	}
	var edges []model.Edge
	for i := 1; i < n; i++ {
		edges = append(edges, model.Edge{From: model.NodeID(i), To: model.NodeID(i + 1), Length: step})
	}
	g, err := graph.Build(nodes, edges)
	if err != nil {
		t.Fatalf("graph.Build: %v", err)
	}

	var all []uint32
	for i := uint32(0); i < g.NumNodes; i++ {
		all = append(all, i)
	}
	fab, err := fabric.Build(g, all, all, fabric.BuildOptions{DInfinity: 2400, Parallelism: 2})
	if err != nil {
		t.Fatalf("fabric.Build: %v", err)
	}
	return g, fab
}

func newSingleCategoryEvaluator(t *testing.T, fab *fabric.Fabric, existing map[model.Category][]model.NodeID) *walkscore.Evaluator {
	t.Helper()
	table, err := walkscore.NewWeightingTable([]model.CategoryWeighting{
		{Category: "grocery", Kind: model.KindPlain, CategoryWeight: 1.0},
	})
	if err != nil {
		t.Fatalf("NewWeightingTable: %v", err)
	}
	pwl, err := walkscore.NewPWL(walkscore.DefaultBreakpoints, walkscore.DefaultValues)
	if err != nil {
		t.Fatalf("NewPWL: %v", err)
	}
	return walkscore.NewEvaluator(fab, table, pwl, existing)
}

func TestAllocatorBasicSelection(t *testing.T) {
	_, fab := buildLine(t, 7, 300)
	eval := newSingleCategoryEvaluator(t, fab, nil)

	buildings := []model.Building{
		{ID: 1, Node: 1},
		{ID: 2, Node: 1},
		{ID: 3, Node: 7},
	}
	candidates := []model.Candidate{
		{ID: 1, Node: 2, Capacity: 1},
		{ID: 2, Node: 3, Capacity: 1},
		{ID: 3, Node: 5, Capacity: 1},
		{ID: 4, Node: 6, Capacity: 1},
	}

	a, err := New(fab, eval, buildings, candidates, Options{
		K:          1,
		Categories: []model.Category{"grocery"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := a.Optimize(context.Background())
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if len(result.Trace) != 1 {
		t.Fatalf("len(Trace) = %d, want 1", len(result.Trace))
	}
	if len(result.Allocation["grocery"]) != 1 {
		t.Fatalf("len(Allocation[grocery]) = %d, want 1", len(result.Allocation["grocery"]))
	}
	// Node 2 has the largest delta: it is 300m from both buildings at node 1
	// and 1500m from building 3 at node 7. This test checks only that the
	// resulting average strictly improves and that no committed delta is
	// negative, not which candidate wins.
	if result.FinalAverage <= 0 {
		t.Errorf("FinalAverage = %f, want > 0 after adding a grocery with no prior amenities", result.FinalAverage)
	}
	for _, rec := range result.Trace {
		if rec.Delta < 0 {
			t.Errorf("iteration %d has negative delta %f", rec.Iteration, rec.Delta)
		}
	}
}

func TestAllocatorDeterministicTiebreak(t *testing.T) {
	// Symmetric line: a single building at the center, two equidistant
	// candidates on either side. Both deltas are bit-identical; the lower
	// candidate_id must win (spec.md §4.3 step 2), independent of which one
	// happens to sit on the lower-numbered node: candidate 1 is deliberately
	// placed on the higher node (5) here.
	_, fab := buildLine(t, 7, 300)
	eval := newSingleCategoryEvaluator(t, fab, nil)

	buildings := []model.Building{{ID: 1, Node: 4}}
	candidates := []model.Candidate{
		{ID: 1, Node: 5, Capacity: 1},
		{ID: 2, Node: 3, Capacity: 1},
	}

	a, err := New(fab, eval, buildings, candidates, Options{
		K:                     1,
		Categories:            []model.Category{"grocery"},
		DeterministicTiebreak: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := a.Optimize(context.Background())
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(result.Trace) != 1 {
		t.Fatalf("len(Trace) = %d, want 1", len(result.Trace))
	}
	if result.Trace[0].CandidateID != 1 {
		t.Errorf("selected candidate_id = %d, want 1 (lower candidate_id on exact tie, regardless of node id)", result.Trace[0].CandidateID)
	}
}

func TestAllocatorInfeasibility(t *testing.T) {
	_, fab := buildLine(t, 5, 300)
	eval := newSingleCategoryEvaluator(t, fab, nil)

	buildings := []model.Building{{ID: 1, Node: 1}}
	candidates := []model.Candidate{{ID: 1, Node: 3, Capacity: 1}}

	a, err := New(fab, eval, buildings, candidates, Options{
		K:          2, // budget exceeds available candidate capacity
		Categories: []model.Category{"grocery"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := a.Optimize(context.Background())
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(result.InfeasibleCategories) != 1 || result.InfeasibleCategories[0] != "grocery" {
		t.Errorf("InfeasibleCategories = %v, want [grocery]", result.InfeasibleCategories)
	}
	if len(result.Trace) != 1 {
		t.Errorf("len(Trace) = %d, want 1 (only one candidate could ever be committed)", len(result.Trace))
	}
}

func TestAllocatorRejectsOutOfComponentCandidate(t *testing.T) {
	// Two disjoint components: 1-2-10 and the isolated node 11. A candidate
	// snapped to the smaller component must fail Prepare as a data integrity
	// error.
	nodes := []model.Node{{ID: 1}, {ID: 2}, {ID: 10}, {ID: 11}}
	g, err := graph.Build(nodes, []model.Edge{
		{From: 1, To: 2, Length: 100},
		{From: 1, To: 10, Length: 100},
	})
	if err != nil {
		t.Fatalf("graph.Build: %v", err)
	}

	var all []uint32
	for i := uint32(0); i < g.NumNodes; i++ {
		all = append(all, i)
	}
	fab, err := fabric.Build(g, all, all, fabric.BuildOptions{DInfinity: 2400, Parallelism: 1})
	if err != nil {
		t.Fatalf("fabric.Build: %v", err)
	}
	eval := newSingleCategoryEvaluator(t, fab, nil)

	buildings := []model.Building{{ID: 1, Node: 1}}
	candidates := []model.Candidate{{ID: 1, Node: 11, Capacity: 1}} // isolated node

	a, err := New(fab, eval, buildings, candidates, Options{
		K:          1,
		Categories: []model.Category{"grocery"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := a.Prepare(context.Background()); err == nil {
		t.Fatal("expected Prepare to fail for an out-of-component candidate")
	}
}

func TestAllocatorCacheMatchesDirectEvaluation(t *testing.T) {
	_, fab := buildLine(t, 5, 300)
	eval := newSingleCategoryEvaluator(t, fab, nil)

	buildings := []model.Building{{ID: 1, Node: 1}, {ID: 2, Node: 5}}
	candidates := []model.Candidate{{ID: 1, Node: 3, Capacity: 2}}

	a, err := New(fab, eval, buildings, candidates, Options{
		K:          1,
		Categories: []model.Category{"grocery"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := a.Optimize(context.Background())
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	// result.Allocation reports candidate_id, not snapped node id
	// (spec.md §6); the direct-evaluation reference uses the allocator's
	// own internal, node-keyed allocation set a.s instead.
	for _, b := range buildings {
		want := eval.Score(b.Node, a.s)
		got := result.ResidentScores[b.ID]
		if got != want {
			t.Errorf("ResidentScores[%d] = %f, want %f (direct evaluation against final allocation)", b.ID, got, want)
		}
	}
}

func TestAllocatorLocalityOfDelta(t *testing.T) {
	// spec.md §8 property 5: for candidate j and resident u outside N_j,
	// score(u, S ∪ {c -> j}) must equal score(u, S) exactly -- this is the
	// property that justifies bounding each delta's work to N_j instead of
	// recomputing every resident's score on every candidate considered.
	_, fab := buildLine(t, 20, 500)
	eval := newSingleCategoryEvaluator(t, fab, nil)

	buildings := []model.Building{{ID: 1, Node: 1}}
	// Node 9 is 4000m from node 1 along the line -- farther than both the
	// default neighborhood radius (3000m) and D_infinity (2400m), so
	// distance(1, 9) is already clamped to D_infinity before and after.
	candidates := []model.Candidate{{ID: 7, Node: 9, Capacity: 1}}

	a, err := New(fab, eval, buildings, candidates, Options{
		K:          1,
		Categories: []model.Category{"grocery"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	for _, n := range a.neighborhood[model.NodeID(9)] {
		if n == 1 {
			t.Fatalf("building's node 1 unexpectedly falls inside candidate 9's neighborhood; test setup invalid")
		}
	}

	before := eval.Score(1, a.s)
	hypothetical := a.withAdded("grocery", 9)
	after := eval.Score(1, hypothetical)
	if before != after {
		t.Errorf("score(u, S) = %f, score(u, S + candidate) = %f; want equal since u lies outside the candidate's neighborhood", before, after)
	}

	// The bounded delta computation must agree with the full recompute
	// above to floating tolerance (spec.md §8 scenario E).
	if delta := a.pairDelta("grocery", 9); delta < -1e-9 || delta > 1e-9 {
		t.Errorf("pairDelta for an out-of-neighborhood candidate = %f, want ~0", delta)
	}
}
