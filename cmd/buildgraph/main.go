// Command buildgraph compiles an OSM PBF extract into the compact
// walkable-graph binary the router serves from.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/twhume/openstreetmap-router/pkg/graph"
	"github.com/twhume/openstreetmap-router/pkg/osmimport"
)

func main() {
	input := flag.String("input", "", "Path to .osm.pbf file")
	output := flag.String("output", "graph.bin", "Output binary graph file path")
	bboxFlag := flag.String("bbox", "", "Bounding box filter: minLat,minLon,maxLat,maxLon")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: buildgraph --input <file.osm.pbf> [--output graph.bin] [--bbox minLat,minLon,maxLat,maxLon]")
		os.Exit(1)
	}

	var bbox graph.BBox
	if *bboxFlag != "" {
		var minLat, minLon, maxLat, maxLon float64
		if _, err := fmt.Sscanf(*bboxFlag, "%f,%f,%f,%f", &minLat, &minLon, &maxLat, &maxLon); err != nil {
			slog.Error("invalid bbox format (expected minLat,minLon,maxLat,maxLon)", "err", err)
			os.Exit(1)
		}
		bbox = graph.BBox{MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon}
		slog.Info("using bounding box filter", "minLat", minLat, "maxLat", maxLat, "minLon", minLon, "maxLon", maxLon)
	}

	start := time.Now()

	f, err := os.Open(*input)
	if err != nil {
		slog.Error("failed to open input file", "err", err)
		os.Exit(1)
	}
	defer f.Close()

	slog.Info("parsing OSM data", "path", *input)
	ways, coords, err := osmimport.Parse(context.Background(), f, bbox)
	if err != nil {
		slog.Error("failed to parse OSM data", "err", err)
		os.Exit(1)
	}
	slog.Info("parsed OSM data", "walkable_ways", len(ways), "nodes", len(coords))

	slog.Info("building graph")
	g := graph.Build(ways, coords, bbox)
	if err := g.Validate(); err != nil {
		slog.Error("built graph failed invariant validation", "err", err)
		os.Exit(1)
	}
	slog.Info("graph built", "nodes", g.NumNodes(), "directed_edges", g.NumDirectedEdges())

	slog.Info("writing binary", "path", *output)
	if err := graph.WriteBinary(*output, g); err != nil {
		slog.Error("failed to write binary", "err", err)
		os.Exit(1)
	}

	info, _ := os.Stat(*output)
	slog.Info("done", "elapsed", time.Since(start).Round(time.Second), "output", *output, "size_mb", float64(info.Size())/(1024*1024))
}
