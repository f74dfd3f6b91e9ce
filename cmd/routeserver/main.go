// Command routeserver loads a compiled walkable graph and an embedded
// walk-history store, then serves novelty-weighted route queries over
// HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/twhume/openstreetmap-router/pkg/apiserver"
	"github.com/twhume/openstreetmap-router/pkg/config"
	"github.com/twhume/openstreetmap-router/pkg/graph"
	"github.com/twhume/openstreetmap-router/pkg/history"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional, overlays defaults)")
	graphPath := flag.String("graph", "", "Path to preprocessed graph binary (overrides config)")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	flag.Parse()

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
	if *port != 0 {
		cfg.Port = *port
	}

	start := time.Now()

	slog.Info("loading graph", "path", cfg.GraphPath)
	g, err := graph.ReadBinary(cfg.GraphPath)
	if err != nil {
		slog.Error("failed to load graph", "err", err)
		os.Exit(1)
	}
	slog.Info("graph loaded", "nodes", g.NumNodes(), "directed_edges", g.NumDirectedEdges())

	store, err := history.Open(context.Background(), cfg.HistoryPath)
	if err != nil {
		slog.Error("failed to open history store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	handlers := apiserver.NewHandlers(g, store, cfg.MinNovelty, cfg.MaxOverhead)

	addr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port)
	srvCfg := apiserver.DefaultConfig(addr)
	srvCfg.CORSOrigin = *corsOrigin
	srv := apiserver.NewServer(srvCfg, handlers)

	slog.Info("ready", "elapsed", time.Since(start).Round(time.Millisecond))

	if err := apiserver.ListenAndServe(srv); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
