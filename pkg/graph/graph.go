// Package graph implements the compact walkable graph: an immutable CSR
// adjacency store with per-edge street-name/highway-class metadata, plus
// nearest-node snapping.
package graph

import (
	"math"
	"sort"
	"sync"

	"github.com/twhume/openstreetmap-router/pkg/apierr"
)

// Graph is the immutable compact walkable graph. Every undirected edge is
// materialized twice in the CSR adjacency, once per direction, with
// identical attributes. Within one node's neighbor slice, targets are
// strictly ascending.
type Graph struct {
	NodeIDs  []int64   // len N, strictly ascending
	NodeLats []float32 // len N
	NodeLons []float32 // len N

	AdjOffsets []int32 // len N+1, AdjOffsets[0]=0, AdjOffsets[N]=2E
	AdjTargets []int32 // len 2E, ascending and distinct within a slice
	AdjWeights []float32

	EdgeNameIndices    []uint16 // len 2E, index into NameTable
	EdgeHighwayIndices []uint8  // len 2E, index into HighwayTable

	NameTable    []string // [0] == "", rest sorted ascending
	HighwayTable []string // [0] == "", rest sorted ascending

	idOrder map[int64]int32 // built once at construction

	kdOnce sync.Once
	kd     *kdTree // built lazily on first FindNearestNode call
}

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() int { return len(g.NodeIDs) }

// NumDirectedEdges returns the number of directed adjacency slots (2E).
func (g *Graph) NumDirectedEdges() int { return len(g.AdjTargets) }

// Neighbors returns zero-copy borrowed views into node idx's adjacency:
// the target node indices and the parallel edge weights.
func (g *Graph) Neighbors(idx int32) (targets []int32, weights []float32) {
	start, end := g.AdjOffsets[idx], g.AdjOffsets[idx+1]
	return g.AdjTargets[start:end], g.AdjWeights[start:end]
}

// IdxForOSMID resolves an OSM node id to its dense index, or
// KindUnknownNode if absent.
func (g *Graph) IdxForOSMID(osmID int64) (int32, error) {
	if g.idOrder != nil {
		if idx, ok := g.idOrder[osmID]; ok {
			return idx, nil
		}
		return 0, apierr.New(apierr.KindUnknownNode, "osm id not found in graph")
	}
	// Fallback: binary search since NodeIDs is sorted.
	i := sort.Search(len(g.NodeIDs), func(i int) bool { return g.NodeIDs[i] >= osmID })
	if i < len(g.NodeIDs) && g.NodeIDs[i] == osmID {
		return int32(i), nil
	}
	return 0, apierr.New(apierr.KindUnknownNode, "osm id not found in graph")
}

// buildIDIndex builds the osm_id -> idx hash map once; called by the
// builder right after compilation, and reconstructed on load.
func (g *Graph) buildIDIndex() {
	g.idOrder = make(map[int64]int32, len(g.NodeIDs))
	for i, id := range g.NodeIDs {
		g.idOrder[id] = int32(i)
	}
}

// edgeSlot locates the directed slot u->v in u's neighbor slice via
// binary search over the sorted targets. Returns -1 if absent.
func (g *Graph) edgeSlot(u, v int32) int {
	start, end := g.AdjOffsets[u], g.AdjOffsets[u+1]
	targets := g.AdjTargets[start:end]
	i := sort.Search(len(targets), func(i int) bool { return targets[i] >= v })
	if i < len(targets) && targets[i] == v {
		return int(start) + i
	}
	return -1
}

// EdgeName returns the street name for the edge u->v, or ("", false) if
// the name is unknown, empty, or metadata tables are absent.
func (g *Graph) EdgeName(u, v int32) (string, bool) {
	if len(g.NameTable) == 0 || g.EdgeNameIndices == nil {
		return "", false
	}
	slot := g.edgeSlot(u, v)
	if slot < 0 {
		return "", false
	}
	idx := g.EdgeNameIndices[slot]
	if idx == 0 {
		return "", false
	}
	return g.NameTable[idx], true
}

// EdgeWeight returns the unpenalized weight (meters) of the edge u->v, or
// (0, false) if no such edge exists.
func (g *Graph) EdgeWeight(u, v int32) (float64, bool) {
	slot := g.edgeSlot(u, v)
	if slot < 0 {
		return 0, false
	}
	return float64(g.AdjWeights[slot]), true
}

// EdgeHighway returns the highway class for the edge u->v, or ("", false)
// if unknown or metadata tables are absent.
func (g *Graph) EdgeHighway(u, v int32) (string, bool) {
	if len(g.HighwayTable) == 0 || g.EdgeHighwayIndices == nil {
		return "", false
	}
	slot := g.edgeSlot(u, v)
	if slot < 0 {
		return "", false
	}
	idx := g.EdgeHighwayIndices[slot]
	if idx == 0 {
		return "", false
	}
	return g.HighwayTable[idx], true
}

// FindNearestNode returns the node index minimizing haversine distance to
// (lat, lon), along with that distance in meters. The nearest-node index
// is built lazily, once, on first call.
func (g *Graph) FindNearestNode(lat, lon float64) (int32, float64, error) {
	if len(g.NodeIDs) == 0 {
		return 0, 0, apierr.New(apierr.KindInvalidCoord, "nearest-node query on empty graph")
	}
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return 0, 0, apierr.New(apierr.KindInvalidCoord, "NaN coordinate")
	}
	g.kdOnce.Do(func() {
		g.kd = buildKDTree(g.NodeLats, g.NodeLons)
	})
	idx, dist := g.kd.nearest(g.NodeLats, g.NodeLons, lat, lon)
	return idx, dist, nil
}

// Validate checks the graph's structural invariants: sorted node ids,
// monotonic offsets, sorted loop-free neighbor slices, finite weights,
// in-range metadata indices, and a reciprocal slot with the same weight
// and metadata indices for every directed slot. Used after a fresh build
// and after a binary load.
func (g *Graph) Validate() error {
	n := len(g.NodeIDs)
	if len(g.NodeLats) != n || len(g.NodeLons) != n {
		return apierr.New(apierr.KindMalformedGraph, "node parallel arrays length mismatch")
	}
	if len(g.AdjOffsets) != n+1 {
		return apierr.New(apierr.KindMalformedGraph, "adj_offsets length != N+1")
	}
	for i := 1; i < n; i++ {
		if g.NodeIDs[i-1] >= g.NodeIDs[i] {
			return apierr.New(apierr.KindMalformedGraph, "node_ids not strictly ascending")
		}
	}
	if g.AdjOffsets[0] != 0 {
		return apierr.New(apierr.KindMalformedGraph, "adj_offsets[0] != 0")
	}
	for i := 0; i < n; i++ {
		if g.AdjOffsets[i] > g.AdjOffsets[i+1] {
			return apierr.New(apierr.KindMalformedGraph, "adj_offsets not monotonic")
		}
	}
	twoE := int(g.AdjOffsets[n])
	if len(g.AdjTargets) != twoE || len(g.AdjWeights) != twoE {
		return apierr.New(apierr.KindMalformedGraph, "adjacency array length != adj_offsets[N]")
	}
	for u := 0; u < n; u++ {
		start, end := g.AdjOffsets[u], g.AdjOffsets[u+1]
		prev := int32(-1)
		for i := start; i < end; i++ {
			tgt := g.AdjTargets[i]
			if tgt == int32(u) {
				return apierr.New(apierr.KindMalformedGraph, "self-loop present")
			}
			if tgt <= prev {
				return apierr.New(apierr.KindMalformedGraph, "neighbor slice not strictly ascending")
			}
			prev = tgt
			w := g.AdjWeights[i]
			if w < 0 || math.IsInf(float64(w), 0) || math.IsNaN(float64(w)) {
				return apierr.New(apierr.KindMalformedGraph, "edge weight not finite/non-negative")
			}
		}
	}
	if len(g.EdgeNameIndices) > 0 {
		for _, idx := range g.EdgeNameIndices {
			if int(idx) >= len(g.NameTable) {
				return apierr.New(apierr.KindMalformedGraph, "name_idx out of range")
			}
		}
	}
	if len(g.EdgeHighwayIndices) > 0 {
		for _, idx := range g.EdgeHighwayIndices {
			if int(idx) >= len(g.HighwayTable) {
				return apierr.New(apierr.KindMalformedGraph, "highway_idx out of range")
			}
		}
	}
	// Reciprocal slot check.
	hasNames := len(g.EdgeNameIndices) == twoE
	hasHighways := len(g.EdgeHighwayIndices) == twoE
	for u := 0; u < n; u++ {
		start := int(g.AdjOffsets[u])
		targets, weights := g.Neighbors(int32(u))
		for i, v := range targets {
			slot := g.edgeSlot(v, int32(u))
			if slot < 0 {
				return apierr.New(apierr.KindMalformedGraph, "missing reciprocal slot")
			}
			if g.AdjWeights[slot] != weights[i] {
				return apierr.New(apierr.KindMalformedGraph, "reciprocal slot weight mismatch")
			}
			if hasNames && g.EdgeNameIndices[slot] != g.EdgeNameIndices[start+i] {
				return apierr.New(apierr.KindMalformedGraph, "reciprocal slot name_idx mismatch")
			}
			if hasHighways && g.EdgeHighwayIndices[slot] != g.EdgeHighwayIndices[start+i] {
				return apierr.New(apierr.KindMalformedGraph, "reciprocal slot highway_idx mismatch")
			}
		}
	}
	return nil
}

