// Package fabric owns the undirected pedestrian graph and the materialized
// shortest-path distance from every residential-snapped node to every
// candidate and existing-amenity snapped node (spec.md §4.1). Once built, a
// Fabric is treated as immutable and is shared read-only across the
// Evaluator and Allocator.
package fabric

import (
	"go.uber.org/zap"

	"walkability/internal/graph"
	"walkability/internal/model"
)

// Fabric provides O(1) distance lookups and neighborhood queries over a
// built distance matrix. distance() never fails; unreachable pairs return
// DInfinity (spec.md §4.1 "Failure semantics").
type Fabric struct {
	g         *graph.Graph
	dInfinity float64

	// dist is keyed by packKey(min(u,v), max(u,v)) over internal node
	// indices, so a lookup is symmetric by construction (spec.md §8
	// property 1) rather than merely by convention.
	dist map[uint64]float64

	residents   []uint32 // internal indices of all residential snapped nodes, N
	sinks       []uint32 // internal indices of all sink nodes, M ∪ ⋃L_c
	residentIdx *geoIndex

	log *zap.SugaredLogger
}

// DInfinity is the sentinel distance used when no reachable instance exists.
func (f *Fabric) DInfinity() float64 { return f.dInfinity }

// Distance returns the shortest-path length in meters between u and v, or
// DInfinity if no materialized path shorter than DInfinity exists between
// them. u and v may be given in either order.
func (f *Fabric) Distance(u, v model.NodeID) float64 {
	ui, ok := f.g.Index(u)
	if !ok {
		return f.dInfinity
	}
	vi, ok := f.g.Index(v)
	if !ok {
		return f.dInfinity
	}
	return f.distanceIdx(ui, vi)
}

func (f *Fabric) distanceIdx(ui, vi uint32) float64 {
	if ui == vi {
		return 0
	}
	if d, ok := f.dist[packKey(ui, vi)]; ok {
		return d
	}
	return f.dInfinity
}

// Residents returns every residential snapped node id, N.
func (f *Fabric) Residents() []model.NodeID {
	return f.toIDs(f.residents)
}

// Sinks returns every sink node id (candidates ∪ existing amenities),
// M ∪ ⋃L_c.
func (f *Fabric) Sinks() []model.NodeID {
	return f.toIDs(f.sinks)
}

func (f *Fabric) toIDs(indices []uint32) []model.NodeID {
	out := make([]model.NodeID, len(indices))
	for i, idx := range indices {
		out[i] = f.g.IndexToID[idx]
	}
	return out
}

// CandidatesWithin returns every resident node within radius network meters
// of candidateNode — the contract behind the Allocator's neighborhood index
// N_j (spec.md §4.1, §4.3). The geographic pre-filter
// (internal/fabric/geoindex.go) narrows the search before confirming each
// candidate with the exact materialized distance, so the result is exact,
// never approximate. A pair with no materialized path shorter than
// DInfinity counts as out of range, so residents at DInfinity or farther are
// never returned, even when radius exceeds DInfinity.
func (f *Fabric) CandidatesWithin(candidateNode model.NodeID, radius float64) []model.NodeID {
	ci, ok := f.g.Index(candidateNode)
	if !ok {
		return nil
	}
	lat, lon := f.g.NodeLat[ci], f.g.NodeLon[ci]
	nearby := f.residentIdx.within(lat, lon, radius)

	out := make([]model.NodeID, 0, len(nearby))
	for _, ri := range nearby {
		if d := f.distanceIdx(ri, ci); d < f.dInfinity && d <= radius {
			out = append(out, f.g.IndexToID[ri])
		}
	}
	return out
}

// Graph exposes the underlying network graph, e.g. for the Allocator's
// connectivity checks during Prepare.
func (f *Fabric) Graph() *graph.Graph { return f.g }
