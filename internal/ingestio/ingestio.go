// Package ingestio loads the stable input schema (spec.md §6 "Inputs to
// the core") from a JSON scenario fixture. Real OSM/GIS ingestion is an
// external collaborator's responsibility and out of scope (spec.md §1); this
// package is the test-harness and CLI loader that stands in for it, reading
// the same wire shape the ingest collaborator is contracted to produce.
package ingestio

import (
	"encoding/json"
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"walkability/internal/model"
)

// NodeInput mirrors spec.md §6's network node tuple.
type NodeInput struct {
	ID  int64   `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// EdgeInput mirrors spec.md §6's network edge tuple.
type EdgeInput struct {
	FromID   int64   `json:"from_id"`
	ToID     int64   `json:"to_id"`
	LengthM  float64 `json:"length_m"`
}

// BuildingInput mirrors spec.md §6's residential building tuple.
type BuildingInput struct {
	BuildingID     int64   `json:"building_id"`
	SnappedNodeID  int64   `json:"snapped_node_id"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
}

// AmenityInput mirrors spec.md §6's existing amenity tuple.
type AmenityInput struct {
	AmenityID     int64  `json:"amenity_id"`
	Category      string `json:"category"`
	SnappedNodeID int64  `json:"snapped_node_id"`
}

// CandidateInput mirrors spec.md §6's candidate site tuple.
type CandidateInput struct {
	CandidateID   int64 `json:"candidate_id"`
	SnappedNodeID int64 `json:"snapped_node_id"`
	Capacity      int32 `json:"capacity"`
}

// WeightingInput mirrors spec.md §6's per-category weighting tuple.
type WeightingInput struct {
	Category       string    `json:"category"`
	Kind           string    `json:"kind"` // "plain" | "depth"
	CategoryWeight float64   `json:"category_weight"`
	RankWeights    []float64 `json:"rank_weights,omitempty"`
}

// ScoringConfigInput mirrors spec.md §6's scoring config tuple.
type ScoringConfigInput struct {
	Breakpoints []float64 `json:"breakpoints"`
	Values      []float64 `json:"values"`
}

// Scenario is the full set of stable inputs for one optimization run.
type Scenario struct {
	Nodes      []NodeInput      `json:"nodes"`
	Edges      []EdgeInput      `json:"edges"`
	Buildings  []BuildingInput  `json:"buildings"`
	Amenities  []AmenityInput   `json:"amenities"`
	Candidates []CandidateInput `json:"candidates"`
	Weightings []WeightingInput `json:"weightings"`
	Scoring    ScoringConfigInput `json:"scoring"`
}

// Load reads a Scenario from a JSON file at path.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open scenario file %q", path)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a Scenario from an arbitrary reader, e.g. for embedding test
// fixtures without touching the filesystem.
func Decode(r io.Reader) (*Scenario, error) {
	var s Scenario
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, errors.Wrap(err, "decode scenario JSON")
	}
	return &s, nil
}

// ToModel converts every scenario section into its internal/model
// representation in one pass, leaving category weighting validation to
// internal/walkscore (which enforces the eager-validation contract).
func (s *Scenario) ToModel() (nodes []model.Node, edges []model.Edge, buildings []model.Building, amenities []model.Amenity, candidates []model.Candidate, weightings []model.CategoryWeighting) {
	nodes = make([]model.Node, len(s.Nodes))
	for i, n := range s.Nodes {
		nodes[i] = model.Node{ID: model.NodeID(n.ID), Lat: n.Lat, Lon: n.Lon, Tag: model.TagNetwork}
	}

	edges = make([]model.Edge, len(s.Edges))
	for i, e := range s.Edges {
		edges[i] = model.Edge{From: model.NodeID(e.FromID), To: model.NodeID(e.ToID), Length: e.LengthM}
	}

	buildings = make([]model.Building, len(s.Buildings))
	for i, b := range s.Buildings {
		buildings[i] = model.Building{ID: b.BuildingID, Node: model.NodeID(b.SnappedNodeID), Lat: b.Lat, Lon: b.Lon}
	}

	amenities = make([]model.Amenity, len(s.Amenities))
	for i, am := range s.Amenities {
		amenities[i] = model.Amenity{ID: am.AmenityID, Category: model.Category(am.Category), Node: model.NodeID(am.SnappedNodeID)}
	}

	candidates = make([]model.Candidate, len(s.Candidates))
	for i, c := range s.Candidates {
		candidates[i] = model.Candidate{ID: c.CandidateID, Node: model.NodeID(c.SnappedNodeID), Capacity: c.Capacity}
	}

	weightings = make([]model.CategoryWeighting, len(s.Weightings))
	for i, w := range s.Weightings {
		kind := model.KindPlain
		if w.Kind == "depth" {
			kind = model.KindDepth
		}
		weightings[i] = model.CategoryWeighting{
			Category:       model.Category(w.Category),
			Kind:           kind,
			CategoryWeight: w.CategoryWeight,
			RankWeights:    w.RankWeights,
		}
	}

	return
}

// ExistingByCategory groups existing amenity node ids by category, the
// shape internal/walkscore.Evaluator expects for L_c.
func ExistingByCategory(amenities []model.Amenity) map[model.Category][]model.NodeID {
	out := make(map[model.Category][]model.NodeID)
	for _, a := range amenities {
		out[a.Category] = append(out[a.Category], a.Node)
	}
	return out
}
