// Package apiserver exposes the novelty-weighted pedestrian router over
// HTTP: a net/http ServeMux, a concurrency-limiting semaphore, and JSON
// request and response bodies, serving route queries with turn-by-turn
// instructions and optional walk-history recording.
package apiserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"mime"
	"net/http"

	"github.com/twhume/openstreetmap-router/pkg/apierr"
	"github.com/twhume/openstreetmap-router/pkg/graph"
	"github.com/twhume/openstreetmap-router/pkg/history"
	"github.com/twhume/openstreetmap-router/pkg/instructions"
	"github.com/twhume/openstreetmap-router/pkg/route"
)

// Handlers holds the HTTP handlers and the dependencies they route against.
type Handlers struct {
	graph       *graph.Graph
	history     *history.Store
	minNovelty  float64
	maxOverhead float64
}

// NewHandlers constructs Handlers over a loaded graph and an open history
// store, using the given defaults for min_novelty/max_overhead when a
// request omits them.
func NewHandlers(g *graph.Graph, h *history.Store, minNovelty, maxOverhead float64) *Handlers {
	return &Handlers{graph: g, history: h, minNovelty: minNovelty, maxOverhead: maxOverhead}
}

// HandleRoute handles POST /api/v1/route: snaps start/end to the nearest
// graph nodes, runs the novelty-route procedure, synthesizes turn-by-turn
// instructions, and optionally records the route into the walk history.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}
	if err := validateCoord(req.Start); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "start")
		return
	}
	if err := validateCoord(req.End); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "end")
		return
	}

	minNovelty, maxOverhead := h.minNovelty, h.maxOverhead
	if req.MinNovelty != nil {
		minNovelty = *req.MinNovelty
	}
	if req.MaxOverhead != nil {
		maxOverhead = *req.MaxOverhead
	}

	srcIdx, _, err := h.graph.FindNearestNode(req.Start.Lat, req.Start.Lon)
	if err != nil {
		writeRouteErr(w, err)
		return
	}
	tgtIdx, _, err := h.graph.FindNearestNode(req.End.Lat, req.End.Lon)
	if err != nil {
		writeRouteErr(w, err)
		return
	}
	srcOSM := h.graph.NodeIDs[srcIdx]
	tgtOSM := h.graph.NodeIDs[tgtIdx]

	walked, err := h.history.GetWalkedEdges(r.Context())
	if err != nil {
		writeRouteErr(w, err)
		return
	}

	result, err := route.NoveltyRoute(h.graph, walked, srcOSM, tgtOSM, minNovelty, maxOverhead)
	if err != nil {
		writeRouteErr(w, err)
		return
	}

	if req.Record {
		if err := h.history.RecordWalk(r.Context(), result.Path.Edges); err != nil {
			writeRouteErr(w, err)
			return
		}
	}

	resp := buildRouteResponse(h.graph, result)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func buildRouteResponse(g *graph.Graph, result *route.Result) RouteResponse {
	p := result.Path
	coords := make([]CoordJSON, len(p.Indices))
	for i, idx := range p.Indices {
		coords[i] = CoordJSON{
			Lat:    float64(g.NodeLats[idx]),
			Lon:    float64(g.NodeLons[idx]),
			NodeID: p.OSMIDs[i],
		}
	}

	steps := instructions.Synthesize(g, p)
	instrs := make([]InstructionJSON, len(steps))
	for i, s := range steps {
		instrs[i] = InstructionJSON{
			Instruction:       s.Text,
			StreetName:        s.Name,
			StreetDescription: s.EffectiveName,
			Distance:          s.Distance,
			TurnDirection:     string(s.Direction),
			TurnAngle:         s.TurnAngle,
			StartLat:          s.StartLat,
			StartLon:          s.StartLon,
		}
	}

	return RouteResponse{
		DistanceM:         p.Distance,
		ShortestDistanceM: result.ShortestDistance,
		OverheadPct:       result.Overhead * 100,
		NoveltyPct:        result.Novelty * 100,
		NumEdges:          len(p.Edges),
		Coordinates:       coords,
		Edges:             p.Edges,
		Instructions:      instrs,
	}
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.history.Stats(r.Context())
	if err != nil {
		writeRouteErr(w, err)
		return
	}
	resp := StatsResponse{
		NumNodes:            h.graph.NumNodes(),
		NumDirectedEdges:    h.graph.NumDirectedEdges(),
		UniqueEdgesWalked:   stats.UniqueEdgesWalked,
		TotalEdgeTraversals: stats.TotalEdgeTraversals,
		AvgWalksPerEdge:     stats.AvgWalksPerEdge,
		MaxWalksSingleEdge:  stats.MaxWalksSingleEdge,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func validateCoord(ll LatLngJSON) error {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lon) || math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lon, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	if ll.Lat < -90 || ll.Lat > 90 || ll.Lon < -180 || ll.Lon > 180 {
		return errors.New("coordinates out of range")
	}
	return nil
}

// writeRouteErr maps an apierr.RouteError kind to its HTTP status and
// machine-readable code.
func writeRouteErr(w http.ResponseWriter, err error) {
	var re *apierr.RouteError
	if !errors.As(err, &re) {
		slog.Error("unclassified routing error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	switch re.Kind {
	case apierr.KindUnknownNode, apierr.KindInvalidCoord:
		writeError(w, http.StatusUnprocessableEntity, "point_too_far_from_road", "")
	case apierr.KindNoPath:
		writeError(w, http.StatusNotFound, "no_route_found", "")
	case apierr.KindHistoryUnavailable:
		slog.Error("history store error", "err", err)
		writeError(w, http.StatusServiceUnavailable, "history_unavailable", "")
	case apierr.KindMalformedGraph:
		slog.Error("malformed graph error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	default:
		slog.Error("unclassified routing error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Field: field})
}
