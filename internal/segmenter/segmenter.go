// Package segmenter folds a raw (stop, incoming-line) state path into a
// presentation-ready Itinerary of mode-homogeneous segments, per
// spec.md §4.5.
package segmenter

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/transitplan/journeyplanner/internal/geo"
	"github.com/transitplan/journeyplanner/internal/models"
	"github.com/transitplan/journeyplanner/internal/transitgraph"
	"github.com/transitplan/journeyplanner/internal/walking"
)

// Segmenter turns a RawPath into an Itinerary. It depends only on the
// TransitGraph's read-only lookups and a WalkingRouter, so it can be
// unit-tested on synthetic paths without a live service, per spec.md §9.
type Segmenter struct {
	graph  *transitgraph.Graph
	walker *walking.Router
}

// New builds a Segmenter over the given graph and walking router.
func New(g *transitgraph.Graph, walker *walking.Router) *Segmenter {
	return &Segmenter{graph: g, walker: walker}
}

// hop is one edge of the raw path, carrying enough context to group
// consecutive same-line hops into one ride segment.
type hop struct {
	from, to string
	line     string // real line id, or models.LineWalk
}

// Segment folds path into an Itinerary. originPoint/destPoint are the
// user's true (unsnapped) coordinates, used as the real endpoints of the
// leading/trailing walking segments instead of the virtual-origin/
// drop-off stop positions.
func (s *Segmenter) Segment(path models.RawPath, originPoint, destPoint orb.Point) models.Itinerary {
	if !path.Reachable() {
		return models.Itinerary{}
	}

	hops := buildHops(path)
	groups := groupHops(hops)

	var segments []models.Segment
	for i, grp := range groups {
		isFirst := i == 0
		isLast := i == len(groups)-1

		if grp.line == models.LineWalk {
			segments = append(segments, s.walkSegment(grp, isFirst, isLast, originPoint, destPoint))
		} else {
			segments = append(segments, s.rideSegment(grp))
		}
	}

	segments = coalesceWalks(segments, s)

	total := 0
	for _, seg := range segments {
		total += seg.DurationSec + seg.HeadwaySec
	}

	return models.Itinerary{Segments: segments, TotalTime: total}
}

// buildHops converts consecutive state pairs into hops carrying the line
// that was used to reach the second state (the incoming line of the
// destination endpoint describes the edge just traversed).
func buildHops(path models.RawPath) []hop {
	nodes := path.Nodes
	hops := make([]hop, 0, len(nodes)-1)
	for i := 0; i < len(nodes)-1; i++ {
		to := nodes[i+1]
		hops = append(hops, hop{from: nodes[i].State.StopID, to: to.State.StopID, line: to.State.IncomingLine})
	}
	return hops
}

type hopGroup struct {
	line  string // models.LineWalk or a real line id
	stops []string
}

// groupHops scans left-to-right, starting a new group whenever the line
// changes (real->real, real->WALK, WALK->real), per spec.md §4.5 step 1.
func groupHops(hops []hop) []hopGroup {
	var groups []hopGroup
	for _, h := range hops {
		if len(groups) == 0 || groups[len(groups)-1].line != h.line {
			groups = append(groups, hopGroup{line: h.line, stops: []string{h.from, h.to}})
		} else {
			groups[len(groups)-1].stops = append(groups[len(groups)-1].stops, h.to)
		}
	}
	return groups
}

// rideSegment computes per-hop deltas, summed duration, median headway,
// and trimmed polyline for one ride group, per spec.md §4.5 step 2.
func (s *Segmenter) rideSegment(grp hopGroup) models.Segment {
	line, ok := s.graph.LineMetadata(grp.line)
	if !ok {
		// DataConsistency: referenced line missing from tables. Degrade
		// gracefully rather than abort.
		return models.Segment{Kind: models.EdgeRide, LineID: grp.line, Stops: grp.stops}
	}

	deltas := make([]*int, 0, len(grp.stops)-1)
	headways := make([]int, 0, len(grp.stops)-1)
	duration := 0

	for i := 0; i < len(grp.stops)-1; i++ {
		from, to := grp.stops[i], grp.stops[i+1]
		edges := s.graph.EdgeBetween(from, to)
		var matched *models.TransitEdge
		for j := range edges {
			if edges[j].Kind == models.EdgeRide && edges[j].LineID == grp.line {
				matched = &edges[j]
				break
			}
		}
		if matched == nil {
			// Non-adjacent stops within a ride segment: mark unknown
			// rather than abort, per spec.md §7 DataConsistency.
			deltas = append(deltas, nil)
			continue
		}
		d := matched.TravelTime
		deltas = append(deltas, &d)
		duration += matched.TravelTime
		headways = append(headways, matched.Headway)
	}

	firstPos, _ := s.graph.StopPosition(grp.stops[0])
	lastPos, _ := s.graph.StopPosition(grp.stops[len(grp.stops)-1])

	poly := trimLine(line.Polyline, firstPos.Position, lastPos.Position)

	return models.Segment{
		Kind:         models.EdgeRide,
		LineID:       grp.line,
		Stops:        grp.stops,
		PerHopDeltas: deltas,
		Polyline:     poly,
		From:         firstPos.Position,
		To:           lastPos.Position,
		DurationSec:  duration,
		HeadwaySec:   median(headways),
	}
}

// trimLine projects the segment's first/last stop onto the line's full
// polyline and extracts the arc between them, swapping distances if the
// line runs backwards relative to the projection order, per
// original_source's trim_shape_between_stops. Falls back to the untrimmed
// polyline on any failure, per spec.md §7's local-recovery rule.
func trimLine(full orb.LineString, first, last orb.Point) orb.LineString {
	if len(full) < 2 {
		return full
	}
	d1 := geo.ProjectOntoLine(full, first)
	d2 := geo.ProjectOntoLine(full, last)
	trimmed := geo.Substring(full, d1, d2)
	if len(trimmed) < 2 {
		return full
	}
	return trimmed
}

func median(xs []int) int {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]int(nil), xs...)
	sort.Ints(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// walkSegment replaces the raw inter-stop abstraction with a real
// WalkingRouter call, per spec.md §4.5 step 3. Leading/trailing walk
// groups use the true user origin/destination point instead of the
// virtual-origin/drop-off stop's snapped position.
func (s *Segmenter) walkSegment(grp hopGroup, isFirst, isLast bool, originPoint, destPoint orb.Point) models.Segment {
	from := grp.stops[0]
	to := grp.stops[len(grp.stops)-1]

	var fromPoint, toPoint orb.Point
	if isFirst && from == models.StopOrigin {
		fromPoint = originPoint
	} else if fp, ok := s.graph.StopPosition(from); ok {
		fromPoint = fp.Position
	}
	if isLast && to == models.StopDestination {
		toPoint = destPoint
	} else if tp, ok := s.graph.StopPosition(to); ok {
		toPoint = tp.Position
	}

	result := s.walker.Route(fromPoint, toPoint)

	return models.Segment{
		Kind:        models.EdgeWalkTransfer,
		Stops:       []string{from, to},
		Polyline:    result.Polyline,
		From:        fromPoint,
		To:          toPoint,
		DurationSec: result.DurationSec,
		HeadwaySec:  0,
	}
}

// coalesceWalks merges any two adjacent walking segments produced by
// trimming, per spec.md §4.5 step 4 and §3's invariant that a returned
// Itinerary never contains two consecutive Walk segments.
func coalesceWalks(segments []models.Segment, s *Segmenter) []models.Segment {
	var out []models.Segment
	for _, seg := range segments {
		if len(out) > 0 && out[len(out)-1].Kind == models.EdgeWalkTransfer && seg.Kind == models.EdgeWalkTransfer {
			prev := out[len(out)-1]
			merged := s.walker.Route(prev.From, seg.To)
			out[len(out)-1] = models.Segment{
				Kind:        models.EdgeWalkTransfer,
				Stops:       append(prev.Stops, seg.Stops[1:]...),
				Polyline:    merged.Polyline,
				From:        prev.From,
				To:          seg.To,
				DurationSec: merged.DurationSec,
				HeadwaySec:  0,
			}
			continue
		}
		out = append(out, seg)
	}
	return out
}
