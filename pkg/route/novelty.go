package route

import (
	"github.com/twhume/openstreetmap-router/pkg/apierr"
	"github.com/twhume/openstreetmap-router/pkg/edgekey"
	"github.com/twhume/openstreetmap-router/pkg/graph"
)

// DefaultMinNovelty and DefaultMaxOverhead are the default novelty-route
// thresholds. NoveltyRoute does not apply them itself: it always uses
// the thresholds its caller passes.
const (
	DefaultMinNovelty  = 0.3
	DefaultMaxOverhead = 0.25
)

var fallbackPenalties = []float64{1.5, 2.0, 3.0, 5.0, 8.0}

// Result is a novelty-route outcome.
type Result struct {
	Path             *Path
	ShortestDistance float64
	Novelty          float64
	Overhead         float64
}

// novelty is |{e in path.Edges : key(e) not in walked}| / |path.Edges|,
// with the empty-path convention of 1.0.
func novelty(edges [][2]int64, walked map[edgekey.Key]struct{}) float64 {
	if len(edges) == 0 {
		return 1.0
	}
	novel := 0
	for _, e := range edges {
		if _, ok := walked[edgekey.Of(e[0], e[1])]; !ok {
			novel++
		}
	}
	return float64(novel) / float64(len(edges))
}

// overhead is (distance - base)/base for base > 0, else 0.
func overhead(distance, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return (distance - base) / base
}

// penalizedAStar runs A* with walked edges inflated by penalty,
// reporting the path's true unpenalized distance. Returns (nil, false)
// if src/tgt are disconnected.
func penalizedAStar(g *graph.Graph, src, tgt int32, penalty float64, walked map[edgekey.Key]struct{}) (*Path, bool) {
	cameFrom, found := astarSearch(g, src, tgt, penalty, walked)
	if !found {
		return nil, false
	}
	path, err := pathFromIndices(g, reconstructIndices(cameFrom, src, tgt))
	if err != nil {
		return nil, false
	}
	return path, true
}

// NoveltyRoute finds a walking route from srcOSM to tgtOSM that prefers
// edges absent from walked, without costing much more than the shortest
// path. It brackets a penalty multiplier by doubling, bisects it for ten
// rounds to trade novelty against overhead, and falls back to a fixed
// penalty sweep (then the baseline) when bisection finds nothing
// acceptable.
func NoveltyRoute(g *graph.Graph, walked map[edgekey.Key]struct{}, srcOSM, tgtOSM int64, minNovelty, maxOverhead float64) (*Result, error) {
	src, err := g.IdxForOSMID(srcOSM)
	if err != nil {
		return nil, err
	}
	tgt, err := g.IdxForOSMID(tgtOSM)
	if err != nil {
		return nil, err
	}

	// Baseline.
	baseline, ok := penalizedAStar(g, src, tgt, 1.0, nil)
	if !ok {
		return nil, apierr.New(apierr.KindNoPath, "no path between source and target")
	}
	baseNovelty := novelty(baseline.Edges, walked)

	// Early exit.
	if baseNovelty >= minNovelty || len(walked) == 0 {
		return &Result{Path: baseline, ShortestDistance: baseline.Distance, Novelty: baseNovelty, Overhead: 0}, nil
	}

	var best *Path
	bestNovelty := baseNovelty

	// Upper-bound search: double the penalty until it yields a novel
	// enough path, at most 5 iterations.
	lo, hi := 1.0, 10.0
	for i := 0; i < 5; i++ {
		path, ok := penalizedAStar(g, src, tgt, hi, walked)
		if !ok {
			hi = (lo + hi) / 2
			continue
		}
		if novelty(path.Edges, walked) >= minNovelty {
			break
		}
		hi *= 2
		if hi > 100 {
			break
		}
	}

	// Bisection, exactly 10 iterations.
	for i := 0; i < 10; i++ {
		mid := (lo + hi) / 2
		path, ok := penalizedAStar(g, src, tgt, mid, walked)
		if !ok {
			hi = mid
			continue
		}
		nov := novelty(path.Edges, walked)
		ovh := overhead(path.Distance, baseline.Distance)
		if ovh <= maxOverhead && nov > bestNovelty {
			best = path
			bestNovelty = nov
		}
		switch {
		case nov < minNovelty:
			lo = mid
		case ovh > maxOverhead:
			hi = mid
		default:
			lo = mid
		}
	}

	// Fallback sweep.
	if best == nil || bestNovelty < minNovelty {
		for _, p := range fallbackPenalties {
			path, ok := penalizedAStar(g, src, tgt, p, walked)
			if !ok {
				continue
			}
			nov := novelty(path.Edges, walked)
			ovh := overhead(path.Distance, baseline.Distance)
			if ovh <= maxOverhead && nov > bestNovelty {
				best = path
				bestNovelty = nov
			}
		}
	}

	// Give up gracefully.
	if best == nil {
		return &Result{Path: baseline, ShortestDistance: baseline.Distance, Novelty: baseNovelty, Overhead: 0}, nil
	}
	return &Result{
		Path:             best,
		ShortestDistance: baseline.Distance,
		Novelty:          bestNovelty,
		Overhead:         overhead(best.Distance, baseline.Distance),
	}, nil
}
