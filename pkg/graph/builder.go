package graph

import (
	"sort"

	"github.com/twhume/openstreetmap-router/pkg/geo"
)

// Way is a single OSM way as the builder consumes it: tags plus the
// ordered list of node refs.
type Way struct {
	Tags     map[string]string
	NodeRefs []int64
}

// LatLon is a node's coordinates.
type LatLon struct {
	Lat, Lon float64
}

// BBox is an inclusive geographic bounding box filter.
type BBox struct {
	MinLat, MaxLat, MinLon, MaxLon float64
}

// IsZero reports whether the bbox is unset (no filtering).
func (b BBox) IsZero() bool {
	return b == BBox{}
}

// Contains reports whether (lat, lon) is inside the bbox, inclusive.
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// walkableHighways is the set of highway tag values that make a way
// walkable.
var walkableHighways = map[string]bool{
	"footway": true, "path": true, "pedestrian": true, "residential": true,
	"living_street": true, "tertiary": true, "secondary": true, "primary": true,
	"trunk": true, "steps": true, "cycleway": true, "unclassified": true,
	"service": true, "track": true, "tertiary_link": true, "secondary_link": true,
	"primary_link": true,
}

var excludedHighways = map[string]bool{
	"motorway": true, "motorway_link": true,
}

// IsWalkable reports whether a way with the given tags is walkable.
// Exported so callers that scan raw OSM data (pkg/osmimport) can
// discard non-walkable ways before materializing their node refs,
// without duplicating the predicate.
func IsWalkable(tags map[string]string) bool {
	return isWalkable(tags)
}

// isWalkable: a way is walkable iff its highway class is in the walkable
// set, foot=no never holds, and access=private/no is overridden by an
// explicit foot permission.
func isWalkable(tags map[string]string) bool {
	hw, ok := tags["highway"]
	if !ok || hw == "" {
		return false
	}
	if !walkableHighways[hw] {
		return false
	}
	if excludedHighways[hw] {
		return false
	}
	if tags["foot"] == "no" {
		return false
	}
	access := tags["access"]
	if access == "private" || access == "no" {
		switch tags["foot"] {
		case "yes", "designated", "permissive":
			// override holds, way stays walkable
		default:
			return false
		}
	}
	return true
}

// buildEdge is an undirected edge as accumulated during the build, keyed
// by the canonical (min, max) osm_id pair.
type buildEdge struct {
	a, b    int64 // a < b
	weight  float64
	name    string
	highway string
}

// Build compiles a stream of walkable ways plus node coordinates into a
// compact CSR Graph. Parallel ways over the same node pair are
// deduplicated by minimum length.
func Build(ways []Way, coords map[int64]LatLon, bbox BBox) *Graph {
	useBBox := !bbox.IsZero()
	edges := make(map[[2]int64]*buildEdge)

	for _, w := range ways {
		if !isWalkable(w.Tags) {
			continue
		}
		name := w.Tags["name"]
		highway := w.Tags["highway"]

		for i := 0; i < len(w.NodeRefs)-1; i++ {
			n1, n2 := w.NodeRefs[i], w.NodeRefs[i+1]
			if n1 == n2 {
				continue // self-loop, discarded
			}
			c1, ok1 := coords[n1]
			c2, ok2 := coords[n2]
			if !ok1 || !ok2 {
				continue
			}
			if useBBox && (!bbox.Contains(c1.Lat, c1.Lon) || !bbox.Contains(c2.Lat, c2.Lon)) {
				continue
			}

			a, b := n1, n2
			if a > b {
				a, b = b, a
			}
			weight := geo.Haversine(c1.Lat, c1.Lon, c2.Lat, c2.Lon)

			key := [2]int64{a, b}
			if existing, ok := edges[key]; ok {
				if weight < existing.weight {
					existing.weight = weight
					existing.name = name
					existing.highway = highway
				}
				continue
			}
			edges[key] = &buildEdge{a: a, b: b, weight: weight, name: name, highway: highway}
		}
	}

	// Collect surviving nodes (endpoints of at least one surviving edge).
	nodeSet := make(map[int64]struct{})
	for _, e := range edges {
		nodeSet[e.a] = struct{}{}
		nodeSet[e.b] = struct{}{}
	}
	nodeIDs := make([]int64, 0, len(nodeSet))
	for id := range nodeSet {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })

	idxOf := make(map[int64]int32, len(nodeIDs))
	for i, id := range nodeIDs {
		idxOf[id] = int32(i)
	}

	n := len(nodeIDs)
	nodeLats := make([]float32, n)
	nodeLons := make([]float32, n)
	for i, id := range nodeIDs {
		c := coords[id]
		nodeLats[i] = float32(c.Lat)
		nodeLons[i] = float32(c.Lon)
	}

	// Build name/highway string tables: distinct non-empty values, sorted
	// ascending, with "" prepended at index 0.
	nameTable, nameIdx := buildStringTable(collectDistinct(edges, func(e *buildEdge) string { return e.name }))
	highwayTable, highwayIdx := buildStringTable(collectDistinct(edges, func(e *buildEdge) string { return e.highway }))

	// Count degrees, prefix-sum into adj_offsets.
	degree := make([]int32, n)
	for _, e := range edges {
		degree[idxOf[e.a]]++
		degree[idxOf[e.b]]++
	}
	adjOffsets := make([]int32, n+1)
	for i := 0; i < n; i++ {
		adjOffsets[i+1] = adjOffsets[i] + degree[i]
	}
	twoE := adjOffsets[n]

	adjTargets := make([]int32, twoE)
	adjWeights := make([]float32, twoE)
	edgeNameIdx := make([]uint16, twoE)
	edgeHighwayIdx := make([]uint8, twoE)

	cursor := make([]int32, n)
	copy(cursor, adjOffsets[:n])

	place := func(u, v int32, weight float32, nameI uint16, hwI uint8) {
		pos := cursor[u]
		adjTargets[pos] = v
		adjWeights[pos] = weight
		edgeNameIdx[pos] = nameI
		edgeHighwayIdx[pos] = hwI
		cursor[u]++
	}

	for _, e := range edges {
		ua, ub := idxOf[e.a], idxOf[e.b]
		w := float32(e.weight)
		nameI := uint16(nameIdx[e.name])
		hwI := uint8(highwayIdx[e.highway])
		place(ua, ub, w, nameI, hwI)
		place(ub, ua, w, nameI, hwI)
	}

	// Sort each node's neighbor slice jointly by target index.
	for u := 0; u < n; u++ {
		start, end := adjOffsets[u], adjOffsets[u+1]
		sortNeighborSlice(adjTargets[start:end], adjWeights[start:end], edgeNameIdx[start:end], edgeHighwayIdx[start:end])
	}

	g := &Graph{
		NodeIDs:            nodeIDs,
		NodeLats:           nodeLats,
		NodeLons:           nodeLons,
		AdjOffsets:         adjOffsets,
		AdjTargets:         adjTargets,
		AdjWeights:         adjWeights,
		EdgeNameIndices:    edgeNameIdx,
		EdgeHighwayIndices: edgeHighwayIdx,
		NameTable:          nameTable,
		HighwayTable:       highwayTable,
	}
	g.buildIDIndex()
	return g
}

func collectDistinct(edges map[[2]int64]*buildEdge, sel func(*buildEdge) string) []string {
	set := make(map[string]struct{})
	for _, e := range edges {
		v := sel(e)
		if v != "" {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// buildStringTable prepends "" at index 0 and returns the table plus a
// value->index lookup (with "" mapping to 0).
func buildStringTable(distinctSorted []string) ([]string, map[string]int) {
	table := make([]string, 0, len(distinctSorted)+1)
	table = append(table, "")
	idx := make(map[string]int, len(distinctSorted)+1)
	idx[""] = 0
	for i, v := range distinctSorted {
		table = append(table, v)
		idx[v] = i + 1
	}
	return table, idx
}

// sortNeighborSlice sorts a node's neighbor slice by ascending target,
// carrying the three parallel metadata arrays along with it.
func sortNeighborSlice(targets []int32, weights []float32, names []uint16, hws []uint8) {
	n := len(targets)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return targets[order[i]] < targets[order[j]] })

	tgtCopy := append([]int32(nil), targets...)
	wCopy := append([]float32(nil), weights...)
	nCopy := append([]uint16(nil), names...)
	hCopy := append([]uint8(nil), hws...)
	for i, o := range order {
		targets[i] = tgtCopy[o]
		weights[i] = wCopy[o]
		names[i] = nCopy[o]
		hws[i] = hCopy[o]
	}
}
