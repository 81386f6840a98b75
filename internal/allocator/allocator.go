// Package allocator implements the Greedy Allocator: the optimization driver
// that selects, per iteration, the (category, candidate) pair maximizing the
// population-average WalkScore improvement, under per-category budget k and
// per-candidate capacity constraints (spec.md §4.3).
package allocator

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"walkability/internal/fabric"
	"walkability/internal/model"
	"walkability/internal/progress"
	"walkability/internal/walkscore"
)

// State is the Allocator's lifecycle state (spec.md §4.3 "State machine").
type State int

const (
	StateReady State = iota
	StatePrepared
	StateIterating
	StateDone
)

// Options configures a single optimize() call (spec.md §4.3 "Inputs").
type Options struct {
	K                     int
	Categories            []model.Category
	NeighborhoodRadiusM   float64 // default 3000m
	DeterministicTiebreak bool    // not read: ties always go to category index, then candidate id
	Parallelism           int
	Logger                *zap.SugaredLogger
	Progress              progress.Sink
}

func (o *Options) withDefaults() {
	if o.NeighborhoodRadiusM <= 0 {
		o.NeighborhoodRadiusM = 3000
	}
	if o.Parallelism <= 0 {
		o.Parallelism = 1
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
	if o.Progress == nil {
		o.Progress = progress.NullSink{}
	}
}

// Allocator owns a mutable allocation set S and a mutable per-node score
// cache; both live for a single optimize(k) call (spec.md §3 "Lifecycle").
// It holds a read-only handle to the Evaluator plus its private mutable
// state — no external reader may observe that state mid-iteration
// (spec.md §5).
type Allocator struct {
	eval *walkscore.Evaluator
	fab  *fabric.Fabric
	opts Options

	state State

	candidates   []model.Candidate
	remainingCap map[model.NodeID]int32
	neighborhood map[model.NodeID][]model.NodeID // N_j, keyed by candidate node id

	buildings       []model.Building
	buildingCountAt map[model.NodeID]int
	totalBuildings  int

	// candidateIDByNode recovers the external candidate_id for a candidate's
	// snapped node, since S and the score cache are keyed by node internally
	// (spec.md §3, §4.3) but S's output contract reports candidate_id
	// (spec.md §6). Safe because New rejects two candidates sharing a node.
	candidateIDByNode map[model.NodeID]int64

	s      model.AllocationSet
	counts map[model.Category]int

	cache map[model.NodeID]float64 // C, keyed by snapped node id
}

// New constructs an Allocator in state Ready. buildings and candidates must
// reference nodes that exist in fab's largest connected component; this is
// verified during Prepare.
func New(fab *fabric.Fabric, eval *walkscore.Evaluator, buildings []model.Building, candidates []model.Candidate, opts Options) (*Allocator, error) {
	opts.withDefaults()

	if opts.K <= 0 {
		return nil, errors.Wrap(model.ErrConfigInvalid, "k must be >= 1")
	}
	if len(opts.Categories) == 0 {
		return nil, errors.Wrap(model.ErrConfigInvalid, "category set must not be empty")
	}
	if len(candidates) == 0 {
		return nil, errors.Wrap(model.ErrEmptyCandidateSet, "no candidate sites provided")
	}

	remainingCap := make(map[model.NodeID]int32, len(candidates))
	candidateIDByNode := make(map[model.NodeID]int64, len(candidates))
	for _, c := range candidates {
		if c.Capacity < 1 {
			return nil, errors.Wrapf(model.ErrConfigInvalid, "candidate %d has capacity < 1", c.ID)
		}
		if _, dup := remainingCap[c.Node]; dup {
			return nil, errors.Wrapf(model.ErrDataIntegrity, "multiple candidate sites snapped to node %d", c.Node)
		}
		remainingCap[c.Node] = c.Capacity
		candidateIDByNode[c.Node] = c.ID
	}

	buildingCountAt := make(map[model.NodeID]int, len(buildings))
	for _, b := range buildings {
		buildingCountAt[b.Node]++
	}

	return &Allocator{
		eval:              eval,
		fab:               fab,
		opts:              opts,
		state:             StateReady,
		candidates:        append([]model.Candidate(nil), candidates...),
		remainingCap:      remainingCap,
		candidateIDByNode: candidateIDByNode,
		buildings:         append([]model.Building(nil), buildings...),
		buildingCountAt:   buildingCountAt,
		totalBuildings:    len(buildings),
		s:                 model.NewAllocationSet(opts.Categories),
		counts:            make(map[model.Category]int, len(opts.Categories)),
	}, nil
}

// Optimize runs Prepare then Iterate to completion, returning the final
// Result. Cancellation is honored at iteration boundaries only; on
// cancellation no results are emitted (spec.md §5, §7).
func (a *Allocator) Optimize(ctx context.Context) (*Result, error) {
	if err := a.Prepare(ctx); err != nil {
		return nil, err
	}
	return a.Iterate(ctx)
}

// State returns the Allocator's current lifecycle state.
func (a *Allocator) State() State { return a.state }

func (a *Allocator) averageNow() float64 {
	if a.totalBuildings == 0 {
		return 0
	}
	var sum float64
	for node, score := range a.cache {
		sum += score * float64(a.buildingCountAt[node])
	}
	return sum / float64(a.totalBuildings)
}

// categoryIndex returns the tie-break index of a category — its position in
// the Options.Categories slice (spec.md §4.3 step 2: "Ties are broken by
// category index, then candidate id").
func (a *Allocator) categoryIndex(c model.Category) int {
	for i, cat := range a.opts.Categories {
		if cat == c {
			return i
		}
	}
	return len(a.opts.Categories)
}

// sortedCandidateNodes returns candidate node ids in ascending order, for
// the deterministic fallback iteration order used when computing deltas.
func (a *Allocator) sortedCandidateNodes() []model.NodeID {
	nodes := make([]model.NodeID, len(a.candidates))
	for i, c := range a.candidates {
		nodes[i] = c.Node
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}
