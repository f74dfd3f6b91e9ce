package graph

import (
	"math"
	"testing"
)

func TestFindNearestNode(t *testing.T) {
	ways, coords := triangleWays()
	g := Build(ways, coords, BBox{})

	idx, dist, err := g.FindNearestNode(0.0001, 0.0001)
	if err != nil {
		t.Fatalf("FindNearestNode: %v", err)
	}
	if dist < 0 {
		t.Errorf("dist = %f, want >= 0", dist)
	}
	// The query point is close to node 1 (0,0).
	idx1, _ := g.IdxForOSMID(1)
	if idx != idx1 {
		t.Errorf("nearest = %d, want node 1's index %d", idx, idx1)
	}
}

func TestFindNearestNodeEmptyGraph(t *testing.T) {
	g := Build(nil, map[int64]LatLon{}, BBox{})
	if _, _, err := g.FindNearestNode(0, 0); err == nil {
		t.Fatal("expected InvalidCoord error on empty graph")
	}
}

func TestFindNearestNodeNaN(t *testing.T) {
	ways, coords := triangleWays()
	g := Build(ways, coords, BBox{})
	if _, _, err := g.FindNearestNode(math.NaN(), 0); err == nil {
		t.Fatal("expected InvalidCoord error for NaN")
	}
}

func TestIdxForOSMIDUnknown(t *testing.T) {
	ways, coords := triangleWays()
	g := Build(ways, coords, BBox{})
	if _, err := g.IdxForOSMID(9999); err == nil {
		t.Fatal("expected UnknownNode error")
	}
}

func TestEdgeMetadataMissingReturnsFalse(t *testing.T) {
	coords := map[int64]LatLon{1: {0, 0}, 2: {0, 0.001}}
	ways := []Way{{Tags: map[string]string{"highway": "residential"}, NodeRefs: []int64{1, 2}}}
	g := Build(ways, coords, BBox{})
	idx1, _ := g.IdxForOSMID(1)
	idx2, _ := g.IdxForOSMID(2)
	if name, ok := g.EdgeName(idx1, idx2); ok || name != "" {
		t.Errorf("EdgeName with no name tag = %q, %v; want \"\", false", name, ok)
	}
	if hw, ok := g.EdgeHighway(idx1, idx2); !ok || hw != "residential" {
		t.Errorf("EdgeHighway = %q, %v; want residential, true", hw, ok)
	}
}

func TestEdgeWeight(t *testing.T) {
	ways, coords := triangleWays()
	g := Build(ways, coords, BBox{})
	idx1, _ := g.IdxForOSMID(1)
	idx2, _ := g.IdxForOSMID(2)
	w, ok := g.EdgeWeight(idx1, idx2)
	if !ok {
		t.Fatal("EdgeWeight(1,2) not found")
	}
	if w < 111 || w > 112 {
		t.Errorf("EdgeWeight(1,2) = %f, want ~111.32", w)
	}
	if _, ok := g.EdgeWeight(idx1, idx1); ok {
		t.Error("EdgeWeight on non-adjacent pair should be (_, false)")
	}
}

func TestNearestNodeManyPoints(t *testing.T) {
	coords := make(map[int64]LatLon, 30)
	var ways []Way
	for i := int64(1); i <= 30; i++ {
		coords[i] = LatLon{Lat: float64(i) * 0.001, Lon: float64(i) * 0.0005}
		if i > 1 {
			ways = append(ways, Way{
				Tags:     map[string]string{"highway": "residential"},
				NodeRefs: []int64{i - 1, i},
			})
		}
	}
	g := Build(ways, coords, BBox{})
	idx, _, err := g.FindNearestNode(0.015, 0.0075)
	if err != nil {
		t.Fatalf("FindNearestNode: %v", err)
	}
	wantIdx, _ := g.IdxForOSMID(15)
	if idx != wantIdx {
		t.Errorf("nearest = %d, want %d (node 15)", idx, wantIdx)
	}
}
