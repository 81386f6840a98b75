package allocator

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"walkability/internal/graph"
	"walkability/internal/model"
)

// Prepare validates data integrity against the Fabric's largest connected
// component, builds the neighborhood index N_j per candidate, and
// initializes the per-node score cache C from the empty allocation set
// (spec.md §4.1 construction protocol step 1, §4.3 "Preparation").
//
// N_j is built in parallel, one goroutine per candidate, since each
// candidate's neighborhood query is independent of every other's
// (spec.md §5: "construction of N_j for distinct candidates touches
// disjoint output slots and may run concurrently").
func (a *Allocator) Prepare(ctx context.Context) error {
	if a.state != StateReady {
		return errors.Newf("allocator: Prepare called in state %d, want Ready", a.state)
	}

	g := a.fab.Graph()
	inComponent := graph.InLargestComponent(g)
	member := func(node model.NodeID) bool {
		idx, ok := g.Index(node)
		return ok && inComponent[idx]
	}

	for _, c := range a.candidates {
		if !member(c.Node) {
			return errors.Wrapf(model.ErrDataIntegrity, "candidate site at node %d is outside the network's largest connected component", c.Node)
		}
	}
	for node, count := range a.buildingCountAt {
		if count > 0 && !member(node) {
			return errors.Wrapf(model.ErrDataIntegrity, "%d building(s) snapped to node %d, outside the network's largest connected component", count, node)
		}
	}

	neighborhood := make(map[model.NodeID][]model.NodeID, len(a.candidates))
	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.opts.Parallelism)

	for _, c := range a.candidates {
		c := c
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			residents := a.fab.CandidatesWithin(c.Node, a.opts.NeighborhoodRadiusM)
			mu.Lock()
			neighborhood[c.Node] = residents
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.ErrCancelled
		}
		return err
	}

	a.neighborhood = neighborhood

	a.cache = make(map[model.NodeID]float64, len(a.buildingCountAt))
	for node := range a.buildingCountAt {
		a.cache[node] = a.eval.Score(node, a.s)
	}

	a.state = StatePrepared
	return nil
}
