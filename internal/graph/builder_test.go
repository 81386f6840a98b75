package graph

import (
	"testing"

	"walkability/internal/model"
)

func TestBuildSimpleGraph(t *testing.T) {
	nodes := []model.Node{
		{ID: 100, Lat: 1.0, Lon: 103.0},
		{ID: 200, Lat: 1.1, Lon: 103.0},
		{ID: 300, Lat: 1.0, Lon: 103.1},
	}
	edges := []model.Edge{
		{From: 100, To: 200, Length: 1000},
		{From: 200, To: 300, Length: 2000},
		{From: 300, To: 100, Length: 3000},
	}

	g, err := Build(nodes, edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if g.NumNodes != 3 {
		t.Fatalf("NumNodes = %d, want 3", g.NumNodes)
	}
	if g.NumEdges != 6 {
		t.Fatalf("NumEdges = %d, want 6 (undirected, both directions)", g.NumEdges)
	}

	// Every node should have exactly 2 outgoing edges (undirected triangle).
	for i := uint32(0); i < g.NumNodes; i++ {
		start, end := g.EdgesFrom(i)
		if end-start != 2 {
			t.Errorf("node %d has %d edges, want 2", i, end-start)
		}
	}

	var totalWeight float64
	for _, w := range g.Weight {
		totalWeight += w
	}
	if totalWeight != 12000 {
		t.Errorf("total weight = %f, want 12000", totalWeight)
	}
}

func TestBuildEmptyGraph(t *testing.T) {
	g, err := Build(nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.NumNodes != 0 || g.NumEdges != 0 {
		t.Errorf("expected empty graph, got %d nodes, %d edges", g.NumNodes, g.NumEdges)
	}
}

func TestBuildDuplicateNodeID(t *testing.T) {
	nodes := []model.Node{
		{ID: 1, Lat: 1.0, Lon: 103.0},
		{ID: 1, Lat: 1.1, Lon: 103.1},
	}
	if _, err := Build(nodes, nil); err == nil {
		t.Fatal("expected error for duplicate node id, got nil")
	}
}

func TestBuildNonPositiveEdgeLength(t *testing.T) {
	nodes := []model.Node{{ID: 1}, {ID: 2}}
	edges := []model.Edge{{From: 1, To: 2, Length: 0}}
	if _, err := Build(nodes, edges); err == nil {
		t.Fatal("expected error for non-positive edge length, got nil")
	}
}

func TestBuildEdgeReferencesUnknownNode(t *testing.T) {
	nodes := []model.Node{{ID: 1}}
	edges := []model.Edge{{From: 1, To: 99, Length: 10}}
	if _, err := Build(nodes, edges); err == nil {
		t.Fatal("expected error for edge referencing unknown node, got nil")
	}
}

func TestBuildCSRInvariants(t *testing.T) {
	nodes := []model.Node{{ID: 10}, {ID: 20}, {ID: 30}, {ID: 40}}
	edges := []model.Edge{
		{From: 10, To: 20, Length: 100},
		{From: 10, To: 30, Length: 200},
		{From: 10, To: 40, Length: 300},
	}

	g, err := Build(nodes, edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for i := uint32(1); i <= g.NumNodes; i++ {
		if g.FirstOut[i] < g.FirstOut[i-1] {
			t.Errorf("FirstOut[%d]=%d < FirstOut[%d]=%d — not monotonic", i, g.FirstOut[i], i-1, g.FirstOut[i-1])
		}
	}
	if g.FirstOut[g.NumNodes] != g.NumEdges {
		t.Errorf("FirstOut[%d]=%d != NumEdges=%d", g.NumNodes, g.FirstOut[g.NumNodes], g.NumEdges)
	}
	for i, h := range g.Head {
		if h >= g.NumNodes {
			t.Errorf("Head[%d]=%d >= NumNodes=%d", i, h, g.NumNodes)
		}
	}
}

func TestIndexRoundTrip(t *testing.T) {
	nodes := []model.Node{{ID: 7}, {ID: 9}}
	g, err := Build(nodes, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	idx, ok := g.Index(7)
	if !ok {
		t.Fatal("Index(7) not found")
	}
	if g.IndexToID[idx] != 7 {
		t.Errorf("IndexToID[%d] = %d, want 7", idx, g.IndexToID[idx])
	}
	if _, ok := g.Index(404); ok {
		t.Error("Index(404) found, want absent")
	}
}
