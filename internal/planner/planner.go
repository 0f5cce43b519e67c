// Package planner orchestrates one user query: boarding-set and drop-off
// resolution via SpatialIndex, PathSearch invocation, Segmenter
// post-processing, and the forbidden-line alternatives loop, per
// spec.md §4.6.
package planner

import (
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/transitplan/journeyplanner/internal/geo"
	"github.com/transitplan/journeyplanner/internal/models"
	"github.com/transitplan/journeyplanner/internal/search"
	"github.com/transitplan/journeyplanner/internal/segmenter"
	"github.com/transitplan/journeyplanner/internal/transitgraph"
)

// Options carries the configuration keys of spec.md §6 that govern
// planning.
type Options struct {
	WalkSpeedTransferMPS float64
	MaxWalkSeconds       int
	MaxAlternatives      int
	Heuristic            search.Heuristic
}

// DefaultOptions matches spec.md §6's defaults.
func DefaultOptions() Options {
	return Options{
		WalkSpeedTransferMPS: 5000.0 / 3600.0,
		MaxWalkSeconds:       300,
		MaxAlternatives:      3,
		Heuristic:            search.NewEuclidean(),
	}
}

func (o Options) maxWalkDistance() float64 {
	return float64(o.MaxWalkSeconds) * o.WalkSpeedTransferMPS
}

// Planner ties SpatialIndex, PathSearch, and Segmenter together into the
// `plan` and `plan_stop_to_stop` operations of spec.md §6.
type Planner struct {
	graph *transitgraph.Graph
	engine *search.Engine
	seg    *segmenter.Segmenter
	opts   Options
}

// New builds a Planner. seg must be built over the same graph.
func New(g *transitgraph.Graph, seg *segmenter.Segmenter, opts Options) *Planner {
	return &Planner{graph: g, engine: search.New(g), seg: seg, opts: opts}
}

// Plan implements the `plan` operation: origin and destination are
// geographic (lon, lat) points; the result is sorted ascending by total
// time, possibly empty.
func (p *Planner) Plan(originLonLat, destLonLat orb.Point) ([]models.Alternative, error) {
	originPoint := geo.Project(originLonLat)
	destPoint := geo.Project(destLonLat)

	boarding, err := p.boardingSet(originPoint)
	if err != nil {
		return nil, err
	}

	dropoff, ok := p.graph.SpatialIndex().Nearest(destPoint)
	if !ok {
		return nil, models.ErrNotReachable
	}

	forbidden := make(map[string]bool)
	var results []models.Alternative

	remaining := p.opts.MaxAlternatives
	if remaining <= 0 {
		remaining = 3
	}

	for remaining > 0 {
		raw := p.engine.SearchFromVirtualOrigin(boarding, dropoff, search.Options{
			Heuristic:      p.opts.Heuristic,
			ForbiddenLines: forbidden,
		})
		if !raw.Reachable() {
			break
		}

		raw.Nodes = append(raw.Nodes, models.PathNode{
			State: models.SearchState{StopID: models.StopDestination, IncomingLine: models.LineWalk},
		})

		itinerary := p.seg.Segment(raw, originPoint, destPoint)
		results = append(results, models.Alternative{Itinerary: itinerary, TotalTime: itinerary.TotalTime})

		nextLine := ""
		for _, lid := range itinerary.LinesUsed() {
			if !forbidden[lid] {
				nextLine = lid
				break
			}
		}
		if nextLine == "" {
			break
		}
		forbidden[nextLine] = true
		remaining--
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalTime < results[j].TotalTime
	})

	return results, nil
}

// PlanStopToStop implements the `plan_stop_to_stop` testing operation of
// spec.md §6: a direct search between two real stops, bypassing boarding-
// set resolution.
func (p *Planner) PlanStopToStop(s, d string) models.RawPath {
	return p.engine.SearchFromStop(s, d, search.Options{Heuristic: p.opts.Heuristic})
}

// boardingSet resolves spec.md §4.6 step 1: the nearest stop plus every
// stop within max_walk_seconds*walk_speed meters, each paired with its
// walk duration from origin. Falls back to the single nearest stop if
// none are within threshold (NoBoardingCandidate, spec.md §7).
func (p *Planner) boardingSet(originPoint orb.Point) ([]models.BoardingCandidate, error) {
	idx := p.graph.SpatialIndex()

	within := idx.Within(originPoint, p.opts.maxWalkDistance())
	if len(within) > 0 {
		out := make([]models.BoardingCandidate, 0, len(within))
		for _, stopID := range within {
			stop, _ := p.graph.StopPosition(stopID)
			d := geo.Distance(originPoint, stop.Position)
			walkSec := int(math.Round(d / p.opts.WalkSpeedTransferMPS))
			out = append(out, models.BoardingCandidate{StopID: stopID, WalkTimeSec: walkSec})
		}
		return out, nil
	}

	nearest, ok := idx.Nearest(originPoint)
	if !ok {
		return nil, models.ErrNoBoardingCandidate
	}
	stop, _ := p.graph.StopPosition(nearest)
	d := geo.Distance(originPoint, stop.Position)
	walkSec := int(math.Round(d / p.opts.WalkSpeedTransferMPS))
	return []models.BoardingCandidate{{StopID: nearest, WalkTimeSec: walkSec}}, nil
}
