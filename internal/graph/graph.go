// Package graph holds the pedestrian network in Compressed Sparse Row form,
// adapted from the teacher's directed routing graph into an undirected one:
// every edge is materialized in both directions at build time, so a single
// CSR walk enumerates all neighbors regardless of which endpoint the edge
// was declared from (spec.md §3: "Edges are symmetric").
package graph

import "walkability/internal/model"

// Graph is an undirected graph in CSR format. NumNodes and NumEdges count
// the compacted internal index space; Head/Weight have length 2*|edges| in
// source data since every edge appears twice (once per direction).
type Graph struct {
	NumNodes uint32
	NumEdges uint32
	FirstOut []uint32 // len: NumNodes + 1
	Head     []uint32 // len: NumEdges; neighbor node for each adjacency entry
	Weight   []float64 // len: NumEdges; length in meters

	NodeLat []float64 // len: NumNodes
	NodeLon []float64 // len: NumNodes
	NodeTag []model.NodeTag

	// IDToIndex maps the external stable NodeID to the compact internal index.
	IDToIndex map[model.NodeID]uint32
	// IndexToID is the inverse of IDToIndex.
	IndexToID []model.NodeID
}

// EdgesFrom returns the range of adjacency indices for node u.
func (g *Graph) EdgesFrom(u uint32) (start, end uint32) {
	return g.FirstOut[u], g.FirstOut[u+1]
}

// Index returns the compact internal index for a node id, and whether it
// exists in the graph.
func (g *Graph) Index(id model.NodeID) (uint32, bool) {
	idx, ok := g.IDToIndex[id]
	return idx, ok
}
