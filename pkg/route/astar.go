// Package route implements the routing engine: baseline A* shortest
// path and the penalty-driven novelty search layered on top of it.
//
// A precomputed speedup structure (contraction hierarchies and the like)
// is deliberately not used: the novelty search re-runs the search under
// a different walked-edge penalty on every bisection step, and shortcuts
// contracted under one cost function are invalid under another.
package route

import (
	"math"

	"github.com/twhume/openstreetmap-router/pkg/edgekey"
	"github.com/twhume/openstreetmap-router/pkg/geo"
	"github.com/twhume/openstreetmap-router/pkg/graph"
)

const noParent = int32(-1)

// pqItem is a priority-queue entry: (f, g, seq, idx).
type pqItem struct {
	F   float64
	G   float64
	Seq uint64
	Idx int32
}

// less reports whether a has higher priority (pops first) than b: lower
// f-score wins; on a tie, the more recently inserted entry (higher seq)
// wins.
func less(a, b pqItem) bool {
	if a.F != b.F {
		return a.F < b.F
	}
	return a.Seq > b.Seq
}

// minHeap is a concrete-typed binary min-heap over pqItem.
type minHeap struct {
	items []pqItem
}

func (h *minHeap) Len() int { return len(h.items) }

func (h *minHeap) Push(it pqItem) {
	h.items = append(h.items, it)
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
		if !less(h.items[i], h.items[parent]) {
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
		if left < n && less(h.items[left], h.items[smallest]) {
			smallest = left
		}
		if right < n && less(h.items[right], h.items[smallest]) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// edgeCost returns the relaxation cost of the directed edge u->v with
// unpenalized weight w: w*penalty if the canonical edge is in walked,
// else w unchanged. penalty == 1.0 or a nil walked set short-circuits to
// the unpenalized weight (the baseline-search case).
func edgeCost(g *graph.Graph, u, v int32, w float32, penalty float64, walked map[edgekey.Key]struct{}) float64 {
	if walked == nil || penalty == 1.0 {
		return float64(w)
	}
	key := edgekey.Of(g.NodeIDs[u], g.NodeIDs[v])
	if _, ok := walked[key]; ok {
		return float64(w) * penalty
	}
	return float64(w)
}

// astarSearch runs A* from src to tgt over g, inflating the cost of
// walked edges by penalty during relaxation. It returns the came_from
// parent-pointer array and whether tgt was reached. The heuristic is
// haversine distance to tgt, admissible and consistent for unpenalized
// great-circle edge weights; consistency under penalty inflation is not
// required since only unpenalized distance is reported.
func astarSearch(g *graph.Graph, src, tgt int32, penalty float64, walked map[edgekey.Key]struct{}) ([]int32, bool) {
	n := g.NumNodes()
	cameFrom := make([]int32, n)
	gScore := make([]float64, n)
	for i := range cameFrom {
		cameFrom[i] = noParent
		gScore[i] = math.Inf(1)
	}
	gScore[src] = 0

	tgtLat := float64(g.NodeLats[tgt])
	tgtLon := float64(g.NodeLons[tgt])
	h := func(idx int32) float64 {
		return geo.Haversine(float64(g.NodeLats[idx]), float64(g.NodeLons[idx]), tgtLat, tgtLon)
	}

	var seq uint64
	pq := &minHeap{}
	pq.Push(pqItem{F: h(src), G: 0, Seq: seq, Idx: src})

	for pq.Len() > 0 {
		item := pq.Pop()
		if item.G > gScore[item.Idx] {
			continue // stale entry, a better g_score was already found
		}
		if item.Idx == tgt {
			return cameFrom, true
		}
		targets, weights := g.Neighbors(item.Idx)
		for i, v := range targets {
			cost := edgeCost(g, item.Idx, v, weights[i], penalty, walked)
			newG := item.G + cost
			if newG < gScore[v] {
				gScore[v] = newG
				cameFrom[v] = item.Idx
				seq++
				pq.Push(pqItem{F: newG + h(v), G: newG, Seq: seq, Idx: v})
			}
		}
	}
	return cameFrom, false
}

// reconstructIndices walks came_from from tgt back to src (or the
// sentinel) and returns the index path in traversal order.
func reconstructIndices(cameFrom []int32, src, tgt int32) []int32 {
	var rev []int32
	cur := tgt
	for {
		rev = append(rev, cur)
		if cur == src {
			break
		}
		parent := cameFrom[cur]
		if parent == noParent {
			break
		}
		cur = parent
	}
	path := make([]int32, len(rev))
	for i, idx := range rev {
		path[len(rev)-1-i] = idx
	}
	return path
}
