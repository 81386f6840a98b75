package fabric

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"walkability/internal/graph"
	"walkability/internal/progress"
)

// BuildOptions configures Fabric construction (spec.md §6 knobs).
type BuildOptions struct {
	DInfinity   float64 // default 2400m
	Parallelism int     // worker count for Fabric construction
	Logger      *zap.SugaredLogger
	Progress    progress.Sink
}

func (o *BuildOptions) withDefaults() {
	if o.DInfinity <= 0 {
		o.DInfinity = 2400
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

type sourceSinkDist struct {
	source uint32
	sink   uint32
	dist   float64
}

// Build materializes the Distance Fabric's sparse shortest-path matrix from
// every resident node to every sink node (candidates ∪ existing amenities),
// following spec.md §4.1's construction protocol and §5's concurrency model:
// a fixed-size worker pool (github.com/panjf2000/ants/v2) partitions the
// resident set into disjoint chunks; each worker computes its chunk's
// results into a private batch; batches are drained by a single goroutine
// that is the sole writer into the shared distance store (no worker ever
// observes another worker's partial output).
func Build(g *graph.Graph, residents []uint32, sinks []uint32, opts BuildOptions) (*Fabric, error) {
	opts.withDefaults()

	if g.NumNodes == 0 {
		return nil, errors.New("cannot build distance fabric over an empty graph")
	}

	isSink := make([]bool, g.NumNodes)
	for _, t := range sinks {
		isSink[t] = true
	}
	numSinks := len(sinks)

	dist := make(map[uint64]float64, len(residents)*8)

	resultsCh := make(chan []sourceSinkDist, opts.Parallelism*2)
	var mergeWG sync.WaitGroup
	mergeWG.Add(1)
	go func() {
		defer mergeWG.Done()
		for batch := range resultsCh {
			for _, r := range batch {
				if r.dist >= opts.DInfinity {
					continue
				}
				dist[packKey(r.source, r.sink)] = r.dist
			}
		}
	}()

	pool, err := ants.NewPool(opts.Parallelism)
	if err != nil {
		close(resultsCh)
		mergeWG.Wait()
		return nil, errors.Wrap(err, "create fabric construction worker pool")
	}
	defer pool.Release()

	chunks := partition(residents, opts.Parallelism)
	opts.Logger.Infow("fabric construction starting", "residents", len(residents), "sinks", numSinks, "chunks", len(chunks))

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error
	var completed int
	var completedMu sync.Mutex

	total := len(chunks)
	for _, chunk := range chunks {
		chunk := chunk
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			local := make([]sourceSinkDist, 0, len(chunk))
			for _, s := range chunk {
				hits := dijkstraToSinks(g, s, isSink, numSinks, opts.DInfinity)
				for _, h := range hits {
					local = append(local, sourceSinkDist{source: s, sink: h.node, dist: h.dist})
				}
			}
			resultsCh <- local

			completedMu.Lock()
			completed++
			frac := float64(completed) / float64(total)
			completedMu.Unlock()
			opts.Progress.Report("fabric_construction", frac, 0)
		})
		if submitErr != nil {
			wg.Done()
			errMu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			errMu.Unlock()
		}
	}

	wg.Wait()
	close(resultsCh)
	mergeWG.Wait()

	if firstErr != nil {
		return nil, errors.Wrap(firstErr, "dispatch fabric construction worker")
	}

	opts.Logger.Infow("fabric construction complete", "materialized_pairs", len(dist))

	return &Fabric{
		g:           g,
		dInfinity:   opts.DInfinity,
		dist:        dist,
		residents:   append([]uint32(nil), residents...),
		sinks:       append([]uint32(nil), sinks...),
		residentIdx: buildGeoIndex(g, residents),
		log:         opts.Logger,
	}, nil
}

// partition splits nodes into up to n disjoint, contiguous chunks.
func partition(nodes []uint32, n int) [][]uint32 {
	if n <= 0 {
		n = 1
	}
	if len(nodes) == 0 {
		return nil
	}
	if n > len(nodes) {
		n = len(nodes)
	}
	chunkSize := (len(nodes) + n - 1) / n
	chunks := make([][]uint32, 0, n)
	for start := 0; start < len(nodes); start += chunkSize {
		end := start + chunkSize
		if end > len(nodes) {
			end = len(nodes)
		}
		chunks = append(chunks, nodes[start:end])
	}
	return chunks
}

func packKey(a, b uint32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}
