// Package geo holds the projection and distance primitives shared by the
// spatial index, the transit graph, the walking router, and the segmenter.
// Everything downstream works in the Web Mercator (EPSG:3857) metric
// projection; geographic (lon/lat) coordinates are converted at the edge.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// EarthRadiusMeters is used for haversine distance on raw lon/lat input.
const EarthRadiusMeters = 6371000.0

// Project converts a geographic point (lon, lat) to the metric Web
// Mercator projection used throughout the engine.
func Project(lonLat orb.Point) orb.Point {
	return project.Mercator.ToPlanar(lonLat)
}

// Unproject converts a projected point back to geographic (lon, lat).
func Unproject(xy orb.Point) orb.Point {
	return project.Mercator.ToGeo(xy)
}

// Distance is the Euclidean distance between two points already in the
// metric projection.
func Distance(a, b orb.Point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return math.Sqrt(dx*dx + dy*dy)
}

// HaversineMeters computes great-circle distance between two geographic
// (lon, lat) points in meters. Used where raw lon/lat input must be
// compared before projection (e.g. stop deduplication during GTFS
// ingestion).
func HaversineMeters(a, b orb.Point) float64 {
	lat1 := a[1] * math.Pi / 180
	lat2 := b[1] * math.Pi / 180
	dLat := (b[1] - a[1]) * math.Pi / 180
	dLon := (b[0] - a[0]) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ProjectOntoLine returns the arc-length distance (in the line's own
// metric units) at which point p's nearest projection onto line ls falls,
// measured from ls's first vertex. Mirrors shapely's
// LineString.project(point).
func ProjectOntoLine(ls orb.LineString, p orb.Point) float64 {
	if len(ls) == 0 {
		return 0
	}
	if len(ls) == 1 {
		return 0
	}

	bestDist := math.Inf(1)
	bestArc := 0.0
	arc := 0.0

	for i := 0; i < len(ls)-1; i++ {
		a, b := ls[i], ls[i+1]
		segLen := Distance(a, b)
		t, distToSeg := closestPointParam(a, b, p)
		arcAtT := arc + t*segLen
		if distToSeg < bestDist {
			bestDist = distToSeg
			bestArc = arcAtT
		}
		arc += segLen
	}

	return bestArc
}

// closestPointParam returns the parametric position t in [0,1] of the
// closest point to p on segment a-b, and the distance from p to that
// closest point.
func closestPointParam(a, b, p orb.Point) (t, dist float64) {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return 0, Distance(a, p)
	}
	t = ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := orb.Point{a[0] + t*dx, a[1] + t*dy}
	return t, Distance(closest, p)
}

// Substring extracts the portion of line ls between arc-length distances
// start and end (measured from ls's first vertex), mirroring shapely's
// LineString.substring(). If start > end the two are swapped, matching the
// "line runs backwards relative to projection order" rule: callers must
// swap start/end themselves if they want to detect that case; Substring
// always returns a forward-ordered result between min(start,end) and
// max(start,end).
func Substring(ls orb.LineString, start, end float64) orb.LineString {
	if start > end {
		start, end = end, start
	}
	if len(ls) < 2 {
		return ls
	}

	var out orb.LineString
	arc := 0.0
	started := false

	for i := 0; i < len(ls)-1; i++ {
		a, b := ls[i], ls[i+1]
		segLen := Distance(a, b)
		segStart := arc
		segEnd := arc + segLen

		if segEnd >= start && !started {
			frac := 0.0
			if segLen > 0 {
				frac = (start - segStart) / segLen
			}
			out = append(out, lerp(a, b, frac))
			started = true
		}
		if started && segEnd > start {
			if segEnd <= end {
				out = append(out, b)
			} else {
				frac := 0.0
				if segLen > 0 {
					frac = (end - segStart) / segLen
				}
				out = append(out, lerp(a, b, frac))
				break
			}
		}
		arc = segEnd
		if arc >= end {
			break
		}
	}

	if len(out) < 2 {
		return ls
	}
	return out
}

func lerp(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
}

// Length returns the total arc length of a LineString in its own metric
// units.
func Length(ls orb.LineString) float64 {
	total := 0.0
	for i := 0; i < len(ls)-1; i++ {
		total += Distance(ls[i], ls[i+1])
	}
	return total
}
