// Command route is a one-shot CLI walking-route query: load a compiled
// graph and the walk-history store, snap two lat,lon points, run the
// novelty-route procedure, and print the result plus turn-by-turn
// directions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/twhume/openstreetmap-router/pkg/config"
	"github.com/twhume/openstreetmap-router/pkg/graph"
	"github.com/twhume/openstreetmap-router/pkg/history"
	"github.com/twhume/openstreetmap-router/pkg/instructions"
	"github.com/twhume/openstreetmap-router/pkg/route"
)

func main() {
	from := flag.String("from", "", "Start point as 'lat,lon'")
	to := flag.String("to", "", "End point as 'lat,lon'")
	graphPath := flag.String("graph", "", "Path to graph binary (overrides config)")
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	minNovelty := flag.Float64("min-novelty", 0, "Minimum novelty fraction (0 = use config default)")
	maxOverhead := flag.Float64("max-overhead", 0, "Maximum overhead vs shortest path (0 = use config default)")
	record := flag.Bool("record-walk", false, "Record the resulting route as walked")
	flag.Parse()

	if *from == "" || *to == "" {
		fmt.Fprintln(os.Stderr, "Usage: route --from lat,lon --to lat,lon [--graph graph.bin] [--record-walk]")
		os.Exit(1)
	}
	startLat, startLon, err := parseLatLon(*from)
	if err != nil {
		slog.Error("invalid --from", "err", err)
		os.Exit(1)
	}
	endLat, endLon, err := parseLatLon(*to)
	if err != nil {
		slog.Error("invalid --to", "err", err)
		os.Exit(1)
	}

	cfg := config.DefaultRouter()
	if *configPath != "" {
		loaded, err := config.LoadRouter(*configPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *graphPath != "" {
		cfg.GraphPath = *graphPath
	}
	if *minNovelty > 0 {
		cfg.MinNovelty = *minNovelty
	}
	if *maxOverhead > 0 {
		cfg.MaxOverhead = *maxOverhead
	}

	fmt.Println("Loading graph...")
	g, err := graph.ReadBinary(cfg.GraphPath)
	if err != nil {
		slog.Error("failed to load graph", "err", err)
		os.Exit(1)
	}

	srcIdx, srcDist, err := g.FindNearestNode(startLat, startLon)
	if err != nil {
		slog.Error("failed to snap start point", "err", err)
		os.Exit(1)
	}
	tgtIdx, tgtDist, err := g.FindNearestNode(endLat, endLon)
	if err != nil {
		slog.Error("failed to snap end point", "err", err)
		os.Exit(1)
	}
	fmt.Printf("  Start: node %d (%.0fm from input)\n", g.NodeIDs[srcIdx], srcDist)
	fmt.Printf("  End:   node %d (%.0fm from input)\n", g.NodeIDs[tgtIdx], tgtDist)

	ctx := context.Background()
	store, err := history.Open(ctx, cfg.HistoryPath)
	if err != nil {
		slog.Error("failed to open history store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	walked, err := store.GetWalkedEdges(ctx)
	if err != nil {
		slog.Error("failed to load walk history", "err", err)
		os.Exit(1)
	}
	fmt.Printf("  Walk history: %d edges previously walked\n", len(walked))

	fmt.Printf("\nRouting (min_novelty=%.2f, max_overhead=%.2f)...\n", cfg.MinNovelty, cfg.MaxOverhead)
	result, err := route.NoveltyRoute(g, walked, g.NodeIDs[srcIdx], g.NodeIDs[tgtIdx], cfg.MinNovelty, cfg.MaxOverhead)
	if err != nil {
		slog.Error("no route found", "err", err)
		os.Exit(1)
	}

	fmt.Println("\nRoute found:")
	fmt.Printf("  Distance:  %.0fm (%.2fkm)\n", result.Path.Distance, result.Path.Distance/1000)
	fmt.Printf("  Shortest:  %.0fm\n", result.ShortestDistance)
	fmt.Printf("  Overhead:  %.1f%%\n", result.Overhead*100)
	fmt.Printf("  Novelty:   %.1f%%\n", result.Novelty*100)
	fmt.Printf("  Edges:     %d\n", len(result.Path.Edges))

	walkMinutes := result.Path.Distance / 1000 / 5 * 60
	fmt.Printf("  Est. time: %.0f min\n", walkMinutes)

	steps := instructions.Synthesize(g, result.Path)
	if len(steps) > 0 {
		fmt.Println("\nTurn-by-turn directions:")
		for i, s := range steps {
			if s.Direction == instructions.DirArrive {
				fmt.Printf("  %d. %s\n", i+1, s.Text)
			} else {
				fmt.Printf("  %d. %s  (%.0fm)\n", i+1, s.Text, s.Distance)
			}
		}
	}

	if *record {
		if err := store.RecordWalk(ctx, result.Path.Edges); err != nil {
			slog.Error("failed to record walk", "err", err)
			os.Exit(1)
		}
		fmt.Println("\nRoute recorded as walked.")
	}
}

func parseLatLon(s string) (lat, lon float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid lat,lon format: %q (expected e.g. 37.7955,-122.3937)", s)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lat,lon format: %q", s)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lat,lon format: %q", s)
	}
	return lat, lon, nil
}
