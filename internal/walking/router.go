package walking

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/transitplan/journeyplanner/internal/geo"
)

// Speeds, as spec.md §6.
const (
	FastWalkKMH = 5.0
	SlowWalkKMH = 3.0
)

func kmhToMPS(kmh float64) float64 { return kmh * 1000.0 / 3600.0 }

// Options configures the two walking speeds used by Route.
type Options struct {
	FastWalkMPS float64 // on-graph portion, default 5 km/h
	SlowWalkMPS float64 // off-graph end stubs and straight-line fallback, default 3 km/h
}

// DefaultOptions matches spec.md §6's configuration defaults.
func DefaultOptions() Options {
	return Options{FastWalkMPS: kmhToMPS(FastWalkKMH), SlowWalkMPS: kmhToMPS(SlowWalkKMH)}
}

// Router answers "how do I walk from p1 to p2" queries over a pedestrian
// street graph.
type Router struct {
	graph PedestrianGraph
	opts  Options
}

// NewRouter builds a WalkingRouter over the given pedestrian graph.
func NewRouter(g PedestrianGraph, opts Options) *Router {
	return &Router{graph: g, opts: opts}
}

// Result is a walking leg: its polyline and estimated duration.
type Result struct {
	Polyline    orb.LineString
	DurationSec int
}

// Route implements spec.md §4.3: snap both endpoints to the pedestrian
// graph, walk the shortest path between the snapped nodes plus two end
// stubs, or fall back to a straight line between p1 and p2 if snapping or
// pathfinding doesn't help.
func (r *Router) Route(p1, p2 orb.Point) Result {
	straightLine := func() Result {
		d := geo.Distance(p1, p2)
		return Result{
			Polyline:    orb.LineString{p1, p2},
			DurationSec: int(math.Ceil(d / r.opts.SlowWalkMPS)),
		}
	}

	if r.graph == nil {
		return straightLine()
	}

	n1, ok1 := r.graph.NearestNode(p1)
	n2, ok2 := r.graph.NearestNode(p2)
	if !ok1 || !ok2 {
		return straightLine()
	}
	if n1 == n2 {
		return straightLine()
	}

	nodePath, graphLen, ok := shortestPath(r.graph, n1, n2)
	if !ok {
		return straightLine()
	}

	n1Pos, _ := r.graph.NodePosition(n1)
	n2Pos, _ := r.graph.NodePosition(n2)

	poly := make(orb.LineString, 0, len(nodePath)+2)
	poly = append(poly, p1)
	for _, n := range nodePath {
		pos, _ := r.graph.NodePosition(n)
		poly = append(poly, pos)
	}
	poly = append(poly, p2)

	stub1 := geo.Distance(p1, n1Pos)
	stub2 := geo.Distance(p2, n2Pos)

	durationSec := stub1/r.opts.SlowWalkMPS + graphLen/r.opts.FastWalkMPS + stub2/r.opts.SlowWalkMPS

	return Result{
		Polyline:    poly,
		DurationSec: int(math.Ceil(durationSec)),
	}
}
