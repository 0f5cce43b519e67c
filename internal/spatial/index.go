// Package spatial implements SpatialIndex: nearest-stop and
// within-radius queries over stop positions in the metric projection.
package spatial

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"

	"github.com/transitplan/journeyplanner/internal/geo"
	"github.com/transitplan/journeyplanner/internal/models"
)

// pointEntry implements orb.Pointer so a Stop can live directly in the
// quadtree.
type pointEntry struct {
	stopID string
	pos    orb.Point
}

func (e pointEntry) Point() orb.Point { return e.pos }

// Index answers nearest/within queries over a fixed set of stops. Built
// once at startup from the loaded Stop table; read-only thereafter.
type Index struct {
	qt    *quadtree.Quadtree
	stops map[string]orb.Point
}

// Build constructs a SpatialIndex over the given stops. The bound is
// computed from the stop positions themselves, matching the orb/quadtree
// API which requires an explicit bounding box at construction time.
func Build(stops []models.Stop) *Index {
	bound := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0, 0}}
	for i, s := range stops {
		if i == 0 {
			bound = orb.Bound{Min: s.Position, Max: s.Position}
		} else {
			bound = bound.Extend(s.Position)
		}
	}
	// Guard against a degenerate (zero-area) bound with a single stop.
	bound = bound.Pad(1.0)

	qt := quadtree.New(bound)
	idx := &Index{qt: qt, stops: make(map[string]orb.Point, len(stops))}
	for _, s := range stops {
		_ = qt.Add(pointEntry{stopID: s.ID, pos: s.Position})
		idx.stops[s.ID] = s.Position
	}
	return idx
}

// Nearest returns the stop id with minimum Euclidean distance to point.
// Ties are broken by smaller stop_id in lexicographic order, as spec'd.
func (idx *Index) Nearest(point orb.Point) (string, bool) {
	if idx.qt == nil || len(idx.stops) == 0 {
		return "", false
	}

	best := idx.qt.Matching(point, func(p orb.Pointer) bool { return true })
	if best == nil {
		return "", false
	}
	bestID := best.(pointEntry).stopID
	bestDist := geo.Distance(point, best.(pointEntry).Point())

	// Matching returns a single nearest candidate; break ties against any
	// other stop at exactly the same distance by scanning (rare in
	// practice, but required for determinism under coincident stops).
	for id, pos := range idx.stops {
		d := geo.Distance(point, pos)
		if d < bestDist || (d == bestDist && id < bestID) {
			bestDist = d
			bestID = id
		}
	}
	return bestID, true
}

// Within returns every stop id whose position lies within radius meters
// of point, sorted by ascending distance then stop_id for determinism.
func (idx *Index) Within(point orb.Point, radius float64) []string {
	bound := orb.Bound{
		Min: orb.Point{point[0] - radius, point[1] - radius},
		Max: orb.Point{point[0] + radius, point[1] + radius},
	}

	type hit struct {
		id   string
		dist float64
	}
	var hits []hit

	for _, pointer := range idx.qt.InBound(nil, bound) {
		e := pointer.(pointEntry)
		d := geo.Distance(point, e.pos)
		if d <= radius {
			hits = append(hits, hit{id: e.stopID, dist: d})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].id < hits[j].id
	})

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.id
	}
	return out
}
