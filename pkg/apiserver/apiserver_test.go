package apiserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/twhume/openstreetmap-router/pkg/graph"
	"github.com/twhume/openstreetmap-router/pkg/history"
)

// triangleGraph builds a small triangle: nodes 1,2,3 with edges 1-2,
// 2-3, 1-3.
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

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	g := triangleGraph()
	path := filepath.Join(t.TempDir(), "walk_history.db")
	store, err := history.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewHandlers(g, store, 0.3, 0.25)
}

func TestHandleRouteSuccess(t *testing.T) {
	h := newTestHandlers(t)

	body := `{"start":{"lat":0.0,"lon":0.0},"end":{"lat":0.001,"lon":0.0}}`
	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}
	var resp RouteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.NumEdges != 1 {
		t.Errorf("NumEdges = %d, want 1", resp.NumEdges)
	}
	if len(resp.Instructions) != 2 {
		t.Errorf("len(Instructions) = %d, want 2 (head + arrive)", len(resp.Instructions))
	}
}

func TestHandleRouteRecordsWalk(t *testing.T) {
	h := newTestHandlers(t)

	body := `{"start":{"lat":0.0,"lon":0.0},"end":{"lat":0.001,"lon":0.0},"record":true}`
	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}

	walked, err := h.history.GetWalkedEdges(context.Background())
	if err != nil {
		t.Fatalf("GetWalkedEdges: %v", err)
	}
	if len(walked) != 1 {
		t.Fatalf("len(walked) = %d, want 1", len(walked))
	}
}

func TestHandleRouteInvalidJSON(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleRouteMissingContentType(t *testing.T) {
	h := newTestHandlers(t)

	body := `{"start":{"lat":0.0,"lon":0.0},"end":{"lat":0.001,"lon":0.0}}`
	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleRouteOutOfBounds(t *testing.T) {
	h := newTestHandlers(t)

	body := `{"start":{"lat":91.0,"lon":0.0},"end":{"lat":0.001,"lon":0.0}}`
	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	var resp HealthResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want 'ok'", resp.Status)
	}
}

func TestHandleStats(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	var resp StatsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.NumNodes != 3 {
		t.Errorf("NumNodes = %d, want 3", resp.NumNodes)
	}
}
