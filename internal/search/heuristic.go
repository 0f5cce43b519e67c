package search

import (
	"github.com/paulmach/orb"

	"github.com/transitplan/journeyplanner/internal/geo"
)

// Heuristic is the "heuristic as policy" capability object from
// spec.md §9: a single estimate(from, to) -> seconds operation the search
// engine is polymorphic over.
type Heuristic interface {
	Estimate(from, to orb.Point) float64
}

// Euclidean is the default admissible heuristic: straight-line distance
// divided by an upper bound on any mode's speed.
type Euclidean struct {
	VMaxMPS float64
}

// NewEuclidean builds the default heuristic with v_max = 55 km/h, as
// spec.md §4.4.
func NewEuclidean() Euclidean {
	return Euclidean{VMaxMPS: 55000.0 / 3600.0}
}

func (e Euclidean) Estimate(from, to orb.Point) float64 {
	return geo.Distance(from, to) / e.VMaxMPS
}

// Zero always returns 0, reducing PathSearch to plain Dijkstra.
type Zero struct{}

func (Zero) Estimate(orb.Point, orb.Point) float64 { return 0 }
