package apiserver

// RouteRequest is the JSON body for POST /api/v1/route.
type RouteRequest struct {
	Start       LatLngJSON `json:"start"`
	End         LatLngJSON `json:"end"`
	MinNovelty  *float64   `json:"min_novelty,omitempty"`
	MaxOverhead *float64   `json:"max_overhead,omitempty"`
	Record      bool       `json:"record,omitempty"`
}

// LatLngJSON represents a lat/lon pair in JSON.
type LatLngJSON struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CoordJSON is one point along a returned route.
type CoordJSON struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	NodeID int64   `json:"node_id"`
}

// InstructionJSON is one turn-by-turn step of a returned route.
type InstructionJSON struct {
	Instruction       string  `json:"instruction"`
	StreetName        string  `json:"street_name"`
	StreetDescription string  `json:"street_description"`
	Distance          float64 `json:"distance"`
	TurnDirection     string  `json:"turn_direction"`
	TurnAngle         float64 `json:"turn_angle"`
	StartLat          float64 `json:"start_lat"`
	StartLon          float64 `json:"start_lon"`
}

// RouteResponse is the JSON response for a successful route query.
type RouteResponse struct {
	DistanceM         float64           `json:"distance_m"`
	ShortestDistanceM float64           `json:"shortest_distance_m"`
	OverheadPct       float64           `json:"overhead_pct"`
	NoveltyPct        float64           `json:"novelty_pct"`
	NumEdges          int               `json:"num_edges"`
	Coordinates       []CoordJSON       `json:"coordinates"`
	Edges             [][2]int64        `json:"edges"`
	Instructions      []InstructionJSON `json:"instructions,omitempty"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumNodes            int     `json:"num_nodes"`
	NumDirectedEdges    int     `json:"num_directed_edges"`
	UniqueEdgesWalked   int     `json:"unique_edges_walked"`
	TotalEdgeTraversals int     `json:"total_edge_traversals"`
	AvgWalksPerEdge     float64 `json:"avg_walks_per_edge"`
	MaxWalksSingleEdge  int     `json:"max_walks_single_edge"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
