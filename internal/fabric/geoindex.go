package fabric

import (
	"github.com/tidwall/rtree"

	"walkability/internal/geo"
	"walkability/internal/graph"
)

// geoIndex is a geographic bounding-box pre-filter over resident node
// coordinates, backed by github.com/tidwall/rtree — a dependency present in
// the teacher's go.mod but never imported by the teacher itself. Network
// distance is always ≥ great-circle distance, so a resident outside a
// candidate's geographic bounding box for radius r can never be within r
// network meters of it; this prunes the CandidatesWithin scan to a small
// geographic neighborhood before the exact materialized-distance check.
type geoIndex struct {
	tree rtree.RTreeG[uint32]
}

// buildGeoIndex indexes every resident's internal node index by its
// (lon, lat) position. rtree is 2D-agnostic about axis order; we use
// (lon, lat) throughout for consistency with planar x/y convention.
func buildGeoIndex(g *graph.Graph, residents []uint32) *geoIndex {
	idx := &geoIndex{}
	for _, ni := range residents {
		pt := [2]float64{g.NodeLon[ni], g.NodeLat[ni]}
		idx.tree.Insert(pt, pt, ni)
	}
	return idx
}

// within returns resident internal indices whose geographic bounding box
// around (lat, lon) at radiusMeters intersects the query point — a superset
// of the true within-radius set, to be confirmed by exact network distance.
func (idx *geoIndex) within(lat, lon, radiusMeters float64) []uint32 {
	dLat := geo.MetersToDegreesLat(radiusMeters)
	dLon := geo.MetersToDegreesLon(radiusMeters, lat)
	min := [2]float64{lon - dLon, lat - dLat}
	max := [2]float64{lon + dLon, lat + dLat}

	var out []uint32
	idx.tree.Search(min, max, func(_, _ [2]float64, data uint32) bool {
		out = append(out, data)
		return true
	})
	return out
}
