package graph

import (
	"os"
	"path/filepath"
	"testing"
)

// yShapeWays builds a 4-node Y-shape: hub node 2 connects to 1, 3, 4.
func yShapeWays() ([]Way, map[int64]LatLon) {
	coords := map[int64]LatLon{
		1: {Lat: 0.000, Lon: 0.000},
		2: {Lat: 0.001, Lon: 0.000},
		3: {Lat: 0.002, Lon: 0.001},
		4: {Lat: 0.002, Lon: -0.001},
	}
	ways := []Way{
		{Tags: map[string]string{"highway": "footway", "name": "Stem"}, NodeRefs: []int64{1, 2}},
		{Tags: map[string]string{"highway": "path", "name": "Left Branch"}, NodeRefs: []int64{2, 3}},
		{Tags: map[string]string{"highway": "path", "name": "Right Branch"}, NodeRefs: []int64{2, 4}},
	}
	return ways, coords
}

func TestBinaryRoundTrip(t *testing.T) {
	ways, coords := yShapeWays()
	g := Build(ways, coords, BBox{})

	path := filepath.Join(t.TempDir(), "graph.bin")
	if err := WriteBinary(path, g); err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}

	loaded, err := ReadBinary(path)
	if err != nil {
		t.Fatalf("ReadBinary: %v", err)
	}
	if err := loaded.Validate(); err != nil {
		t.Fatalf("loaded graph invalid: %v", err)
	}

	if loaded.NumNodes() != g.NumNodes() || loaded.NumDirectedEdges() != g.NumDirectedEdges() {
		t.Fatalf("shape mismatch: loaded N=%d E=%d, want N=%d E=%d",
			loaded.NumNodes(), loaded.NumDirectedEdges(), g.NumNodes(), g.NumDirectedEdges())
	}
	for i := range g.NodeIDs {
		if loaded.NodeIDs[i] != g.NodeIDs[i] {
			t.Errorf("NodeIDs[%d] = %d, want %d", i, loaded.NodeIDs[i], g.NodeIDs[i])
		}
		if loaded.NodeLats[i] != g.NodeLats[i] || loaded.NodeLons[i] != g.NodeLons[i] {
			t.Errorf("coords[%d] mismatch", i)
		}
	}
	for i := range g.AdjTargets {
		if loaded.AdjTargets[i] != g.AdjTargets[i] || loaded.AdjWeights[i] != g.AdjWeights[i] {
			t.Errorf("adjacency[%d] mismatch", i)
		}
		if loaded.EdgeNameIndices[i] != g.EdgeNameIndices[i] || loaded.EdgeHighwayIndices[i] != g.EdgeHighwayIndices[i] {
			t.Errorf("edge metadata[%d] mismatch", i)
		}
	}
}

func TestBinaryRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	if err := os.WriteFile(path, []byte("NOTGarbageHeaderBytes12345678901"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadBinary(path); err == nil {
		t.Fatal("expected error for bad magic")
	}
}
