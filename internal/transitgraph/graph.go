// Package transitgraph builds and serves the directed transit multigraph:
// ride edges along each line's stop sequence, plus walk-transfer edges
// between nearby stops. Built once at startup; read-only during search.
package transitgraph

import (
	"fmt"
	"math"

	"github.com/transitplan/journeyplanner/internal/geo"
	"github.com/transitplan/journeyplanner/internal/models"
	"github.com/transitplan/journeyplanner/internal/spatial"
)

// Options configures walk-transfer edge generation.
type Options struct {
	WalkSpeedTransferMPS float64 // meters/second, default 1.389 (5 km/h)
	MaxWalkSeconds       int     // default 300
}

// DefaultOptions matches spec.md §6's configuration defaults.
func DefaultOptions() Options {
	return Options{WalkSpeedTransferMPS: 5000.0 / 3600.0, MaxWalkSeconds: 300}
}

func (o Options) maxWalkDistance() float64 {
	return float64(o.MaxWalkSeconds) * o.WalkSpeedTransferMPS
}

// Graph is the read-only transit multigraph. Safe for concurrent reads
// from multiple queries once Build has returned.
type Graph struct {
	stops   map[string]models.Stop
	lines   map[string]models.Line
	edges   map[string][]models.TransitEdge // from stop id -> outgoing edges
	spatial *spatial.Index
}

// Build constructs the graph from normalized Stop and Line tables,
// following spec.md §4.2: one ride edge per consecutive stop pair per
// line, plus symmetric walk-transfer edges between every stop pair within
// MaxWalkSeconds found via the spatial index.
func Build(stops []models.Stop, lines []models.Line, opts Options) (*Graph, error) {
	g := &Graph{
		stops: make(map[string]models.Stop, len(stops)),
		lines: make(map[string]models.Line, len(lines)),
		edges: make(map[string][]models.TransitEdge),
	}

	for _, s := range stops {
		g.stops[s.ID] = s
	}

	for _, l := range lines {
		if len(l.StopSequence) < 2 {
			return nil, fmt.Errorf("%w: line %s has fewer than 2 stops", models.ErrDataConsistency, l.ID)
		}
		if len(l.PerHopTravelSeconds) != len(l.StopSequence)-1 {
			return nil, fmt.Errorf("%w: line %s per-hop travel times length mismatch", models.ErrDataConsistency, l.ID)
		}
		g.lines[l.ID] = l

		for i := 0; i < len(l.StopSequence)-1; i++ {
			from, to := l.StopSequence[i], l.StopSequence[i+1]
			if _, ok := g.stops[from]; !ok {
				return nil, fmt.Errorf("%w: line %s references unknown stop %s", models.ErrDataConsistency, l.ID, from)
			}
			if _, ok := g.stops[to]; !ok {
				return nil, fmt.Errorf("%w: line %s references unknown stop %s", models.ErrDataConsistency, l.ID, to)
			}
			edge := models.TransitEdge{
				Kind:       models.EdgeRide,
				From:       from,
				To:         to,
				LineID:     l.ID,
				TravelTime: l.PerHopTravelSeconds[i],
				Headway:    l.MeanHeadwaySeconds,
			}
			g.edges[from] = append(g.edges[from], edge)
		}
	}

	g.deriveServedLines()
	g.spatial = spatial.Build(stops)
	g.addWalkTransferEdges(opts)

	return g, nil
}

func (g *Graph) deriveServedLines() {
	servedBy := make(map[string]map[string]bool)
	for _, l := range g.lines {
		for _, sid := range l.StopSequence {
			if servedBy[sid] == nil {
				servedBy[sid] = make(map[string]bool)
			}
			servedBy[sid][l.ID] = true
		}
	}
	for sid, stop := range g.stops {
		var lines []string
		for lid := range servedBy[sid] {
			lines = append(lines, lid)
		}
		stop.ServedLines = lines
		g.stops[sid] = stop
	}
}

// addWalkTransferEdges adds, for every ordered pair of distinct stops (u,
// v) within MaxWalkDistance, a directed walk-transfer edge u->v. The
// SpatialIndex.Within query bounds the candidate set per stop so
// construction stays near-linear in stop density rather than O(n^2).
func (g *Graph) addWalkTransferEdges(opts Options) {
	maxDist := opts.maxWalkDistance()
	if maxDist <= 0 {
		return
	}

	for uid, u := range g.stops {
		candidates := g.spatial.Within(u.Position, maxDist)
		for _, vid := range candidates {
			if vid == uid {
				continue
			}
			v := g.stops[vid]
			d := geo.Distance(u.Position, v.Position)
			if d <= 0 || d > maxDist {
				continue
			}
			travel := int(math.Round(d / opts.WalkSpeedTransferMPS))
			g.edges[uid] = append(g.edges[uid], models.TransitEdge{
				Kind:       models.EdgeWalkTransfer,
				From:       uid,
				To:         vid,
				LineID:     models.LineWalk,
				TravelTime: travel,
				Headway:    0,
			})
		}
	}
}

// Neighbors returns all outgoing edges of stopID, including parallels.
func (g *Graph) Neighbors(stopID string) []models.TransitEdge {
	return g.edges[stopID]
}

// EdgeBetween returns every edge directly connecting u to v.
func (g *Graph) EdgeBetween(u, v string) []models.TransitEdge {
	var out []models.TransitEdge
	for _, e := range g.edges[u] {
		if e.To == v {
			out = append(out, e)
		}
	}
	return out
}

// StopPosition returns the metric position of a stop.
func (g *Graph) StopPosition(stopID string) (models.Stop, bool) {
	s, ok := g.stops[stopID]
	return s, ok
}

// LineMetadata returns the Line record for a line id.
func (g *Graph) LineMetadata(lineID string) (models.Line, bool) {
	l, ok := g.lines[lineID]
	return l, ok
}

// SpatialIndex exposes the graph's stop spatial index for boarding-set and
// drop-off resolution.
func (g *Graph) SpatialIndex() *spatial.Index {
	return g.spatial
}

// Stops returns every stop in the graph (order unspecified).
func (g *Graph) Stops() []models.Stop {
	out := make([]models.Stop, 0, len(g.stops))
	for _, s := range g.stops {
		out = append(out, s)
	}
	return out
}
