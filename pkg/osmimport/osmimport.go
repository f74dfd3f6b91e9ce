// Package osmimport is a thin two-pass adapter from an OSM PBF extract
// to the graph builder's Way/LatLon inputs: ways first to discover
// which nodes are referenced by walkable ways, then node coordinates
// for only those nodes.
package osmimport

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"github.com/twhume/openstreetmap-router/pkg/graph"
)

// wayInfo holds a way's tags and referenced node ids collected in pass 1.
type wayInfo struct {
	tags     map[string]string
	nodeRefs []int64
}

// Parse reads an OSM PBF extract and returns the walkable ways and node
// coordinates the graph builder needs. rs is read twice (ways, then
// nodes), so it must support seeking back to the start.
func Parse(ctx context.Context, rs io.ReadSeeker, bbox graph.BBox) ([]graph.Way, map[int64]graph.LatLon, error) {
	referenced := make(map[int64]struct{})
	var ways []wayInfo

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		if len(w.Nodes) < 2 {
			continue
		}
		tags := tagsToMap(w.Tags)
		if !graph.IsWalkable(tags) {
			continue
		}
		nodeRefs := make([]int64, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeRefs[i] = int64(wn.ID)
			referenced[int64(wn.ID)] = struct{}{}
		}
		ways = append(ways, wayInfo{tags: tags, nodeRefs: nodeRefs})
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()
	slog.Info("osm import: pass 1 complete", "walkable_ways", len(ways), "referenced_nodes", len(referenced))

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	coords := make(map[int64]graph.LatLon, len(referenced))
	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		id := int64(n.ID)
		if _, needed := referenced[id]; !needed {
			continue
		}
		coords[id] = graph.LatLon{Lat: n.Lat, Lon: n.Lon}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()
	slog.Info("osm import: pass 2 complete", "node_coords", len(coords))

	builderWays := make([]graph.Way, len(ways))
	for i, w := range ways {
		builderWays[i] = graph.Way{Tags: w.tags, NodeRefs: w.nodeRefs}
	}
	return builderWays, coords, nil
}

func tagsToMap(tags osm.Tags) map[string]string {
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		m[t.Key] = t.Value
	}
	return m
}
