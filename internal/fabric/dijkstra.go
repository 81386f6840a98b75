package fabric

import (
	"math"

	"walkability/internal/graph"
)

// minHeap is a concrete-typed binary min-heap over (node, dist) pairs,
// carried from the teacher's pkg/routing/dijkstra.go MinHeap — avoiding the
// interface-boxing overhead of container/heap matters here even more than
// in the teacher's live-query path, since Fabric construction runs one
// Dijkstra per resident.
type minHeap struct {
	items []pqItem
}

type pqItem struct {
	node uint32
	dist float64
}

func (h *minHeap) Len() int { return len(h.items) }

func (h *minHeap) Push(node uint32, dist float64) {
	h.items = append(h.items, pqItem{node, dist})
	h.siftUp(len(h.items) - 1)
}

func (h *minHeap) Pop() pqItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *minHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].dist >= h.items[parent].dist {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *minHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.items[left].dist < h.items[smallest].dist {
			smallest = left
		}
		if right < n && h.items[right].dist < h.items[smallest].dist {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// sinkHit is one materialized (source, sink) result from a single-source run.
type sinkHit struct {
	node uint32
	dist float64
}

// dijkstraToSinks runs single-source Dijkstra from source, stopping once the
// frontier distance exceeds cutoff or every sink has been settled — spec.md
// §4.1: "run single-source shortest-paths ... limited to sinks T". Nodes
// farther than cutoff are never relaxed into the result set, which is what
// bounds construction cost to the dataset's actual walkable locality instead
// of the whole graph diameter.
func dijkstraToSinks(g *graph.Graph, source uint32, isSink []bool, numSinks int, cutoff float64) []sinkHit {
	n := g.NumNodes
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[source] = 0
	visited := make([]bool, n)

	h := &minHeap{items: make([]pqItem, 0, 64)}
	h.Push(source, 0)

	var hits []sinkHit
	remaining := numSinks
	if isSink[source] {
		remaining-- // the source is never recorded as its own hit
	}

	for h.Len() > 0 {
		item := h.Pop()
		u := item.node
		if visited[u] {
			continue
		}
		if item.dist > dist[u] {
			continue
		}
		if item.dist > cutoff {
			break
		}
		visited[u] = true

		if isSink[u] && u != source {
			hits = append(hits, sinkHit{node: u, dist: item.dist})
			remaining--
			if remaining == 0 {
				break
			}
		}

		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			if visited[v] {
				continue
			}
			nd := item.dist + g.Weight[e]
			if nd < dist[v] {
				dist[v] = nd
				h.Push(v, nd)
			}
		}
	}
	return hits
}
