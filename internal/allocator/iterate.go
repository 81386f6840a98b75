package allocator

import (
	"context"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"walkability/internal/model"
)

// negativeDeltaTolerance absorbs floating-point noise around zero; a delta
// below this is a genuine regression and trips InvariantViolation. Adding a
// candidate can only ever shorten or preserve a resident's nearest/top-r
// distances, so the population-average score is monotone non-decreasing
// (spec.md §8 property 6).
const negativeDeltaTolerance = -1e-9

// candidatePair is one (category, candidate node) choice under
// consideration during a single iteration.
type candidatePair struct {
	category      model.Category
	categoryIndex int
	node          model.NodeID
	candidateID   int64
	delta         float64
}

// Iterate runs the greedy selection loop to completion from the Prepared
// state, returning the final Result (spec.md §4.3 steps 2-5).
func (a *Allocator) Iterate(ctx context.Context) (*Result, error) {
	if a.state != StatePrepared {
		return nil, errors.Newf("allocator: Iterate called in state %d, want Prepared", a.state)
	}
	a.state = StateIterating

	var (
		trace        []IterationRecord
		infeasible   []model.Category
		average      = a.averageNow()
		active       = append([]model.Category(nil), a.opts.Categories...)
		iteration    = 0
	)

	for len(active) > 0 {
		select {
		case <-ctx.Done():
			return nil, model.ErrCancelled
		default:
		}

		pairs := a.candidatePairs(active)
		if len(pairs) == 0 {
			a.opts.Logger.Warnw("categories infeasible: no candidate capacity left", "categories", active)
			infeasible = append(infeasible, active...)
			active = nil
			break
		}

		if err := a.computeDeltas(ctx, pairs); err != nil {
			return nil, err
		}

		best := pickBest(pairs)

		if best.delta < negativeDeltaTolerance {
			model.InvariantViolation("selected delta %f for category %q candidate node %d is negative beyond tolerance", best.delta, best.category, best.node)
		}

		a.commit(best)
		average += best.delta
		iteration++
		trace = append(trace, IterationRecord{
			Iteration:      iteration,
			Category:       best.category,
			CandidateID:    best.candidateID,
			Delta:          best.delta,
			RunningAverage: average,
		})
		a.opts.Progress.Report("iterate", float64(iteration)/float64(iteration+remainingSlots(a, active)), 0)

		active = a.stillActive(active)
	}

	a.state = StateDone
	return &Result{
		Allocation:           a.allocationByCandidateID(),
		ResidentScores:       nodeScoresToBuildings(a),
		Trace:                trace,
		InfeasibleCategories: infeasible,
		FinalAverage:         average,
	}, nil
}

// allocationByCandidateID translates the internal, node-keyed allocation
// set a.s into the external candidate_id-keyed output contract
// (spec.md §6: "Selected allocation S: map category -> list of candidate
// ids").
func (a *Allocator) allocationByCandidateID() Allocation {
	out := make(Allocation, len(a.s))
	for c, nodes := range a.s {
		ids := make(map[int64]struct{}, len(nodes))
		for node := range nodes {
			ids[a.candidateIDByNode[node]] = struct{}{}
		}
		out[c] = ids
	}
	return out
}

// candidatePairs enumerates every (category, candidate) choice still open
// for the given active categories: candidates with remaining capacity not
// already hosting that category.
func (a *Allocator) candidatePairs(active []model.Category) []*candidatePair {
	var pairs []*candidatePair
	for _, c := range active {
		idx := a.categoryIndex(c)
		already := a.s[c]
		for _, node := range a.sortedCandidateNodes() {
			if a.remainingCap[node] <= 0 {
				continue
			}
			if _, taken := already[node]; taken {
				continue
			}
			pairs = append(pairs, &candidatePair{
				category:      c,
				categoryIndex: idx,
				node:          node,
				candidateID:   a.candidateIDByNode[node],
			})
		}
	}
	return pairs
}

// computeDeltas fills in pair.delta for every pair concurrently. Each
// worker writes only its own pair's delta field — disjoint slots, no
// shared-write races (spec.md §5).
func (a *Allocator) computeDeltas(ctx context.Context, pairs []*candidatePair) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.opts.Parallelism)

	for _, p := range pairs {
		p := p
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			p.delta = a.pairDelta(p.category, p.node)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.ErrCancelled
		}
		return err
	}
	return nil
}

// pairDelta computes the population-average score improvement from adding
// node to category's allocation, restricted to the candidate's neighborhood
// N_j — every resident outside it has zero score sensitivity to this
// addition given the configured D∞ horizon (spec.md §4.3 "Locality").
func (a *Allocator) pairDelta(category model.Category, node model.NodeID) float64 {
	if a.totalBuildings == 0 {
		return 0
	}
	hypothetical := a.withAdded(category, node)

	var sum float64
	for _, resident := range a.neighborhood[node] {
		count := a.buildingCountAt[resident]
		if count == 0 {
			continue
		}
		newScore := a.eval.Score(resident, hypothetical)
		sum += float64(count) * (newScore - a.cache[resident])
	}
	return sum / float64(a.totalBuildings)
}

// withAdded returns an allocation set identical to a.s except that node has
// been added to category — sharing every other category's map by reference
// so the hypothetical construction stays cheap (spec.md §4.3: "a hypothetical
// S' built by a single-category clone, never a full deep copy").
func (a *Allocator) withAdded(category model.Category, node model.NodeID) model.AllocationSet {
	out := make(model.AllocationSet, len(a.s))
	for c, nodes := range a.s {
		if c != category {
			out[c] = nodes
			continue
		}
		cp := make(map[model.NodeID]struct{}, len(nodes)+1)
		for n := range nodes {
			cp[n] = struct{}{}
		}
		cp[node] = struct{}{}
		out[c] = cp
	}
	return out
}

// commit applies the winning pair to the live allocation set, consumes one
// unit of the candidate's capacity, and recomputes exact scores (not delta
// application) for every resident in the candidate's neighborhood
// (spec.md §4.3 step 4: "commit recomputes C[u] exactly; deltas are a
// selection heuristic, never a substitute for the ground truth").
func (a *Allocator) commit(best *candidatePair) {
	if a.s[best.category] == nil {
		a.s[best.category] = make(map[model.NodeID]struct{})
	}
	a.s[best.category][best.node] = struct{}{}
	a.remainingCap[best.node]--
	a.counts[best.category]++

	for _, resident := range a.neighborhood[best.node] {
		a.cache[resident] = a.eval.Score(resident, a.s)
	}
}

// stillActive drops categories that have reached k from the active set.
func (a *Allocator) stillActive(active []model.Category) []model.Category {
	out := active[:0]
	for _, c := range active {
		if a.counts[c] < a.opts.K {
			out = append(out, c)
		}
	}
	return append([]model.Category(nil), out...)
}

// pickBest selects the pair with maximum delta; ties are broken by category
// index, then candidate id (spec.md §4.3 step 2: "Ties are broken by
// category index, then candidate id"), not by the internal snapped node id.
func pickBest(pairs []*candidatePair) *candidatePair {
	best := pairs[0]
	for _, p := range pairs[1:] {
		if p.delta > best.delta {
			best = p
			continue
		}
		if p.delta == best.delta {
			if p.categoryIndex < best.categoryIndex {
				best = p
				continue
			}
			if p.categoryIndex == best.categoryIndex && p.candidateID < best.candidateID {
				best = p
			}
		}
	}
	return best
}

func remainingSlots(a *Allocator, active []model.Category) int {
	total := 0
	for _, c := range active {
		total += a.opts.K - a.counts[c]
	}
	return total
}

// nodeScoresToBuildings expands the per-node score cache into a
// per-building result (spec.md §6 "Outputs from the core": scores are
// reported per building, not per node, since multiple buildings may share
// a snapped node).
func nodeScoresToBuildings(a *Allocator) map[int64]float64 {
	out := make(map[int64]float64, len(a.buildings))
	for _, b := range a.buildings {
		out[b.ID] = a.cache[b.Node]
	}
	return out
}
