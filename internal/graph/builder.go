package graph

import (
	"sort"

	"github.com/cockroachdb/errors"

	"walkability/internal/model"
)

// Build creates a CSR Graph from network nodes and edges, the way the
// teacher's pkg/graph/builder.go compacts OSM node ids into a dense index
// space, except every edge is inserted in both directions since this graph
// is undirected (spec.md §3).
func Build(nodes []model.Node, edges []model.Edge) (*Graph, error) {
	idToIndex := make(map[model.NodeID]uint32, len(nodes))
	indexToID := make([]model.NodeID, 0, len(nodes))
	nodeLat := make([]float64, 0, len(nodes))
	nodeLon := make([]float64, 0, len(nodes))
	nodeTag := make([]model.NodeTag, 0, len(nodes))

	for _, n := range nodes {
		if _, exists := idToIndex[n.ID]; exists {
			return nil, errors.Wrapf(model.ErrDataIntegrity, "duplicate node id %d", n.ID)
		}
		idToIndex[n.ID] = uint32(len(indexToID))
		indexToID = append(indexToID, n.ID)
		nodeLat = append(nodeLat, n.Lat)
		nodeLon = append(nodeLon, n.Lon)
		nodeTag = append(nodeTag, n.Tag)
	}

	numNodes := uint32(len(indexToID))

	type compactEdge struct {
		from, to uint32
		weight   float64
	}

	compact := make([]compactEdge, 0, len(edges)*2)
	for _, e := range edges {
		if e.Length <= 0 {
			return nil, errors.Wrapf(model.ErrDataIntegrity, "edge %d-%d has non-positive length %f", e.From, e.To, e.Length)
		}
		fromIdx, ok := idToIndex[e.From]
		if !ok {
			return nil, errors.Wrapf(model.ErrDataIntegrity, "edge references unknown node %d", e.From)
		}
		toIdx, ok := idToIndex[e.To]
		if !ok {
			return nil, errors.Wrapf(model.ErrDataIntegrity, "edge references unknown node %d", e.To)
		}
		compact = append(compact, compactEdge{from: fromIdx, to: toIdx, weight: e.Length})
		compact = append(compact, compactEdge{from: toIdx, to: fromIdx, weight: e.Length})
	}

	sort.Slice(compact, func(i, j int) bool {
		if compact[i].from != compact[j].from {
			return compact[i].from < compact[j].from
		}
		return compact[i].to < compact[j].to
	})

	numEdges := uint32(len(compact))
	firstOut := make([]uint32, numNodes+1)
	head := make([]uint32, numEdges)
	weight := make([]float64, numEdges)

	for i, e := range compact {
		head[i] = e.to
		weight[i] = e.weight
	}
	for _, e := range compact {
		firstOut[e.from+1]++
	}
	for i := uint32(1); i <= numNodes; i++ {
		firstOut[i] += firstOut[i-1]
	}

	return &Graph{
		NumNodes:  numNodes,
		NumEdges:  numEdges,
		FirstOut:  firstOut,
		Head:      head,
		Weight:    weight,
		NodeLat:   nodeLat,
		NodeLon:   nodeLon,
		NodeTag:   nodeTag,
		IDToIndex: idToIndex,
		IndexToID: indexToID,
	}, nil
}
