package route

import (
	"github.com/twhume/openstreetmap-router/pkg/apierr"
	"github.com/twhume/openstreetmap-router/pkg/graph"
)

// Path is a route expressed over OSM node ids, carrying its total
// unpenalized distance and its edges in traversal order.
type Path struct {
	Indices  []int32
	OSMIDs   []int64
	Edges    [][2]int64 // (osm_id_u, osm_id_v) pairs, traversal order
	Distance float64    // meters, sum of unpenalized edge weights
}

// pathFromIndices builds a Path from an index-space route, summing the
// graph's unpenalized edge weights regardless of what penalty (if any)
// drove the search that produced indices.
func pathFromIndices(g *graph.Graph, indices []int32) (*Path, error) {
	p := &Path{
		Indices: indices,
		OSMIDs:  make([]int64, len(indices)),
	}
	for i, idx := range indices {
		p.OSMIDs[i] = g.NodeIDs[idx]
	}
	for i := 0; i < len(indices)-1; i++ {
		u, v := indices[i], indices[i+1]
		w, ok := g.EdgeWeight(u, v)
		if !ok {
			return nil, apierr.New(apierr.KindMalformedGraph, "reconstructed path references a missing edge")
		}
		p.Distance += w
		p.Edges = append(p.Edges, [2]int64{p.OSMIDs[i], p.OSMIDs[i+1]})
	}
	return p, nil
}

// ShortestPath computes the unpenalized A* shortest path between two OSM
// node ids. If src == tgt, returns the single-node path with distance 0.
func ShortestPath(g *graph.Graph, srcOSM, tgtOSM int64) (*Path, error) {
	src, err := g.IdxForOSMID(srcOSM)
	if err != nil {
		return nil, err
	}
	tgt, err := g.IdxForOSMID(tgtOSM)
	if err != nil {
		return nil, err
	}
	if src == tgt {
		return &Path{Indices: []int32{src}, OSMIDs: []int64{srcOSM}, Distance: 0}, nil
	}
	cameFrom, found := astarSearch(g, src, tgt, 1.0, nil)
	if !found {
		return nil, apierr.New(apierr.KindNoPath, "no path between source and target")
	}
	return pathFromIndices(g, reconstructIndices(cameFrom, src, tgt))
}
