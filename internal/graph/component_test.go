package graph

import (
	"testing"

	"walkability/internal/model"
)

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(5)

	for i := range uint32(5) {
		if uf.Find(i) != i {
			t.Errorf("Find(%d) = %d, want %d", i, uf.Find(i), i)
		}
	}

	uf.Union(0, 1)
	if uf.Find(0) != uf.Find(1) {
		t.Error("0 and 1 should be in same set")
	}

	uf.Union(2, 3)
	if uf.Find(2) != uf.Find(3) {
		t.Error("2 and 3 should be in same set")
	}

	if uf.Find(0) == uf.Find(2) {
		t.Error("0 and 2 should be in different sets")
	}

	uf.Union(1, 3)
	if uf.Find(0) != uf.Find(3) {
		t.Error("0 and 3 should now be in same set")
	}
}

func TestLargestComponent(t *testing.T) {
	// Component 1: 10-20-30 (3 nodes). Component 2: 40-50 (2 nodes).
	nodes := []model.Node{{ID: 10}, {ID: 20}, {ID: 30}, {ID: 40}, {ID: 50}}
	edges := []model.Edge{
		{From: 10, To: 20, Length: 100},
		{From: 20, To: 30, Length: 200},
		{From: 40, To: 50, Length: 300},
	}

	g, err := Build(nodes, edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	largest := LargestComponent(g)
	if len(largest) != 3 {
		t.Fatalf("LargestComponent has %d nodes, want 3", len(largest))
	}
}

func TestInLargestComponent(t *testing.T) {
	nodes := []model.Node{{ID: 10}, {ID: 20}, {ID: 30}, {ID: 40}, {ID: 50}}
	edges := []model.Edge{
		{From: 10, To: 20, Length: 100},
		{From: 20, To: 30, Length: 200},
		{From: 40, To: 50, Length: 300},
	}

	g, err := Build(nodes, edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	member := InLargestComponent(g)
	if len(member) != int(g.NumNodes) {
		t.Fatalf("len(member) = %d, want %d", len(member), g.NumNodes)
	}

	count := 0
	for _, m := range member {
		if m {
			count++
		}
	}
	if count != 3 {
		t.Errorf("membership count = %d, want 3", count)
	}

	idx40, _ := g.Index(40)
	if member[idx40] {
		t.Error("node 40 should not be in the largest component")
	}
	idx10, _ := g.Index(10)
	if !member[idx10] {
		t.Error("node 10 should be in the largest component")
	}
}

func TestLargestComponentEmptyGraph(t *testing.T) {
	g, err := Build(nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if nodes := LargestComponent(g); nodes != nil {
		t.Errorf("expected nil for empty graph, got %v", nodes)
	}
}
