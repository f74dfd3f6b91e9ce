package graph

import (
	"math"
	"sort"

	"github.com/twhume/openstreetmap-router/pkg/geo"
)

const earthRadiusMeters = 6_371_000.0

// kdTree is a 2-D k-d tree over node coordinates linearized to meters on
// a local tangent plane (x = lat_rad*R, y = lon_rad*R*cos(mean_lat_rad)).
// The projected axes drive the splits and the subtree-pruning bound;
// candidates are ranked by geo.EquirectangularDist and the k=min(10,N)
// best are re-ranked by true haversine distance, which eliminates the
// projection's distortion at metropolitan extents.
type kdTree struct {
	idx        []int32 // node indices, reordered to match the kd-tree layout
	x, y       []float64
	lats, lons []float64
	nodes      []kdNode
	root       int
	cosMeanLat float64 // projection scale, fixed at build time
}

type kdNode struct {
	point int // index into idx/x/y
	axis  int // 0 = x, 1 = y
	left  int // index into nodes, -1 if absent
	right int
}

func buildKDTree(lats, lons []float32) *kdTree {
	n := len(lats)
	if n == 0 {
		return &kdTree{}
	}

	var meanLat float64
	for _, lat := range lats {
		meanLat += float64(lat)
	}
	meanLat /= float64(n)
	meanLatRad := meanLat * math.Pi / 180
	cosMeanLat := math.Cos(meanLatRad)

	t := &kdTree{
		idx:        make([]int32, n),
		x:          make([]float64, n),
		y:          make([]float64, n),
		lats:       make([]float64, n),
		lons:       make([]float64, n),
		cosMeanLat: cosMeanLat,
	}
	for i := 0; i < n; i++ {
		latRad := float64(lats[i]) * math.Pi / 180
		lonRad := float64(lons[i]) * math.Pi / 180
		t.idx[i] = int32(i)
		t.x[i] = latRad * earthRadiusMeters
		t.y[i] = lonRad * earthRadiusMeters * cosMeanLat
		t.lats[i] = float64(lats[i])
		t.lons[i] = float64(lons[i])
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	t.nodes = make([]kdNode, n)
	t.root = t.build(order, 0)
	return t
}

// build recursively partitions order[] (indices into t.idx/x/y) into a
// balanced kd-tree. t.nodes is allocated to n entries and addressed by
// the point index each subtree root lands on after the median split.
func (t *kdTree) build(order []int, depth int) int {
	if len(order) == 0 {
		return -1
	}
	axis := depth % 2
	sort.Slice(order, func(i, j int) bool {
		if axis == 0 {
			return t.x[order[i]] < t.x[order[j]]
		}
		return t.y[order[i]] < t.y[order[j]]
	})
	mid := len(order) / 2
	point := order[mid]

	left := t.build(order[:mid], depth+1)
	right := t.build(order[mid+1:], depth+1)

	t.nodes[point] = kdNode{point: point, axis: axis, left: left, right: right}
	return point
}

// nearest returns the node index (into the original graph arrays) and
// true haversine distance closest to (lat, lon). Collects k=min(10,N)
// candidates under the equirectangular metric, then re-ranks by
// haversine.
func (t *kdTree) nearest(lats, lons []float32, lat, lon float64) (int32, float64) {
	n := len(t.idx)
	if n == 0 {
		return 0, math.Inf(1)
	}

	qx := lat * math.Pi / 180 * earthRadiusMeters
	qy := lon * math.Pi / 180 * earthRadiusMeters * t.cosMeanLat

	k := 10
	if n < k {
		k = n
	}

	cands := t.kNearest(lat, lon, qx, qy, k)

	bestIdx := cands[0]
	bestDist := geo.Haversine(lat, lon, float64(lats[bestIdx]), float64(lons[bestIdx]))
	for _, c := range cands[1:] {
		d := geo.Haversine(lat, lon, float64(lats[c]), float64(lons[c]))
		if d < bestDist {
			bestDist = d
			bestIdx = c
		}
	}
	return t.idx[bestIdx], bestDist
}

type heapItem struct {
	point int
	dist  float64 // meters, equirectangular
}

// kNearest returns the (point index into t.idx/x/y) of up to k nearest
// neighbors to the query under geo.EquirectangularDist, via a bounded
// worst-out candidate list over a recursive kd-tree descent. A far
// subtree is skipped when the projected distance to the split plane
// already exceeds the worst kept candidate.
func (t *kdTree) kNearest(qLat, qLon, qx, qy float64, k int) []int {
	heap := make([]heapItem, 0, k)

	var visit func(node int)
	visit = func(node int) {
		if node < 0 {
			return
		}
		nd := t.nodes[node]
		d := geo.EquirectangularDist(qLat, qLon, t.lats[nd.point], t.lons[nd.point])

		if len(heap) < k {
			heap = append(heap, heapItem{nd.point, d})
			sort.Slice(heap, func(i, j int) bool { return heap[i].dist < heap[j].dist })
		} else if d < heap[len(heap)-1].dist {
			heap[len(heap)-1] = heapItem{nd.point, d}
			sort.Slice(heap, func(i, j int) bool { return heap[i].dist < heap[j].dist })
		}

		splitVal := t.x[nd.point]
		qv := qx
		if nd.axis == 1 {
			splitVal = t.y[nd.point]
			qv = qy
		}
		diff := math.Abs(qv - splitVal)

		near, far := nd.left, nd.right
		if qv >= splitVal {
			near, far = nd.right, nd.left
		}

		visit(near)
		if len(heap) < k || diff < heap[len(heap)-1].dist {
			visit(far)
		}
	}
	visit(t.root)

	out := make([]int, len(heap))
	for i, h := range heap {
		out[i] = h.point
	}
	return out
}
