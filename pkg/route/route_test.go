package route

import (
	"math"
	"testing"

	"github.com/twhume/openstreetmap-router/pkg/edgekey"
	"github.com/twhume/openstreetmap-router/pkg/geo"
	"github.com/twhume/openstreetmap-router/pkg/graph"
)

// triangleGraph builds a small triangle: nodes 1, 2, 3 with edges 1-2
// (~111.32m), 2-3 (~157.43m), 1-3 (~111.32m).
func triangleGraph() *graph.Graph {
	coords := map[int64]graph.LatLon{
		1: {Lat: 0.000, Lon: 0.000},
		2: {Lat: 0.000, Lon: 0.001},
		3: {Lat: 0.001, Lon: 0.000},
	}
	ways := []graph.Way{
		{Tags: map[string]string{"highway": "residential", "name": "A Street"}, NodeRefs: []int64{1, 2}},
		{Tags: map[string]string{"highway": "residential", "name": "B Street"}, NodeRefs: []int64{2, 3}},
		{Tags: map[string]string{"highway": "residential", "name": "C Street"}, NodeRefs: []int64{1, 3}},
	}
	return graph.Build(ways, coords, graph.BBox{})
}

func approxEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestNoveltyRouteEmptyHistoryReplaysShortestPath(t *testing.T) {
	g := triangleGraph()
	result, err := NoveltyRoute(g, nil, 1, 3, DefaultMinNovelty, DefaultMaxOverhead)
	if err != nil {
		t.Fatalf("NoveltyRoute: %v", err)
	}
	if len(result.Path.OSMIDs) != 2 || result.Path.OSMIDs[0] != 1 || result.Path.OSMIDs[1] != 3 {
		t.Fatalf("path = %v, want [1 3]", result.Path.OSMIDs)
	}
	if !approxEqual(result.Path.Distance, 111.32, 1.0) {
		t.Errorf("distance = %f, want ~111.32", result.Path.Distance)
	}
	if result.Novelty != 1.0 {
		t.Errorf("novelty = %f, want 1.0", result.Novelty)
	}
	if result.Overhead != 0.0 {
		t.Errorf("overhead = %f, want 0.0", result.Overhead)
	}
}

func TestNoveltyRouteRecordForcesDetour(t *testing.T) {
	g := triangleGraph()
	walked := map[edgekey.Key]struct{}{edgekey.Of(1, 3): {}}

	result, err := NoveltyRoute(g, walked, 1, 3, 0.5, 1.5)
	if err != nil {
		t.Fatalf("NoveltyRoute: %v", err)
	}
	if len(result.Path.OSMIDs) != 3 || result.Path.OSMIDs[0] != 1 || result.Path.OSMIDs[1] != 2 || result.Path.OSMIDs[2] != 3 {
		t.Fatalf("path = %v, want [1 2 3]", result.Path.OSMIDs)
	}
	if !approxEqual(result.Path.Distance, 268.75, 1.0) {
		t.Errorf("distance = %f, want ~268.75", result.Path.Distance)
	}
	if result.Novelty != 1.0 {
		t.Errorf("novelty = %f, want 1.0", result.Novelty)
	}
	if !approxEqual(result.Overhead, 1.414, 0.01) {
		t.Errorf("overhead = %f, want ~1.414", result.Overhead)
	}
}

func TestNoveltyRouteFallsBackWhenOverheadTooStrict(t *testing.T) {
	g := triangleGraph()
	walked := map[edgekey.Key]struct{}{edgekey.Of(1, 3): {}}

	result, err := NoveltyRoute(g, walked, 1, 3, 0.5, 0.25)
	if err != nil {
		t.Fatalf("NoveltyRoute: %v", err)
	}
	if len(result.Path.OSMIDs) != 2 || result.Path.OSMIDs[0] != 1 || result.Path.OSMIDs[1] != 3 {
		t.Fatalf("path = %v, want baseline [1 3]", result.Path.OSMIDs)
	}
	if result.Novelty != 0.0 {
		t.Errorf("novelty = %f, want 0.0", result.Novelty)
	}
	if result.Overhead != 0.0 {
		t.Errorf("overhead = %f, want 0.0", result.Overhead)
	}
}

func TestShortestPathSameNode(t *testing.T) {
	g := triangleGraph()
	path, err := ShortestPath(g, 1, 1)
	if err != nil {
		t.Fatalf("ShortestPath: %v", err)
	}
	if len(path.OSMIDs) != 1 || path.OSMIDs[0] != 1 || path.Distance != 0 {
		t.Fatalf("path = %+v, want single-node [1] at distance 0", path)
	}
}

func TestShortestPathUnknownNode(t *testing.T) {
	g := triangleGraph()
	if _, err := ShortestPath(g, 1, 999); err == nil {
		t.Fatal("expected UnknownNode error")
	}
}

func TestAStarAdmissibility(t *testing.T) {
	g := triangleGraph()
	for u := int32(0); u < int32(g.NumNodes()); u++ {
		targets, weights := g.Neighbors(u)
		for i, v := range targets {
			h := geo.Haversine(float64(g.NodeLats[u]), float64(g.NodeLons[u]), float64(g.NodeLats[v]), float64(g.NodeLons[v]))
			if weights[i]+1e-3 < float32(h) {
				t.Errorf("edge (%d,%d) weight %f < haversine %f, violates admissibility", u, v, weights[i], h)
			}
		}
	}
}
