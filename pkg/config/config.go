// Package config is the YAML-backed configuration layer shared by the
// router's command-line entrypoints.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Router holds all configuration needed to build a graph, serve routes,
// and record walk history.
type Router struct {
	// Graph source.
	GraphPath string `yaml:"graph_path"`

	// Walk history store.
	HistoryPath string `yaml:"history_path"`

	// Novelty search defaults, overridable per-request.
	MinNovelty  float64 `yaml:"min_novelty"`
	MaxOverhead float64 `yaml:"max_overhead"`

	// HTTP server.
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Logging.
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
}

// DefaultRouter returns a Router config with sensible defaults.
func DefaultRouter() Router {
	return Router{
		GraphPath:   "data/graph.bin",
		HistoryPath: "data/walk_history.db",
		MinNovelty:  0.3,
		MaxOverhead: 0.25,
		BindAddress: "0.0.0.0",
		Port:        8080,
		LogLevel:    "info",
	}
}

// LoadRouter loads router config from a YAML file, overlaying it onto
// the defaults. If the file doesn't exist, returns the defaults as-is.
func LoadRouter(path string) (Router, error) {
	cfg := DefaultRouter()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
