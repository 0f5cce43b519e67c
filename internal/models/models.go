// Package models defines the shared data types for the journey planner:
// the Stop/Line network, the per-query search state space, and the
// itineraries returned to callers.
package models

import "github.com/paulmach/orb"

// ModeClass is the presentation mode of a transit line.
type ModeClass int

const (
	ModeTrain ModeClass = 0
	ModeBRT   ModeClass = 1
	ModeTram  ModeClass = 2
	ModeBus   ModeClass = 3
)

// Sentinel line markers used as SearchState.IncomingLine values.
const (
	LineWalk   = "WALK"
	LineOrigin = "NONE"
)

// Sentinel stop identifiers for the virtual origin/destination anchors.
const (
	StopOrigin      = "ORIGIN"
	StopDestination = "DESTINATION"
)

// Stop is a physical transit stop. Immutable once the TransitGraph is built.
type Stop struct {
	ID          string
	Name        string
	Position    orb.Point // metric projection (meters)
	Lat, Lon    float64
	ServedLines []string // derived during graph construction
}

// Line is an ordered sequence of stops served by one vehicle direction.
type Line struct {
	ID                  string
	ShortName           string
	LongName            string
	DirectionHeadsign   string
	Mode                ModeClass
	ColorHex            string
	StopSequence        []string // stop ids, in order, len >= 2
	PerHopTravelSeconds []int    // len(StopSequence)-1
	MeanHeadwaySeconds  int
	Polyline            orb.LineString // metric projection
}

// StopIndex returns the position of stopID within the line's stop
// sequence, or -1 if the line does not serve that stop.
func (l *Line) StopIndex(stopID string) int {
	for i, id := range l.StopSequence {
		if id == stopID {
			return i
		}
	}
	return -1
}

// EdgeKind distinguishes a scheduled ride hop from a walking transfer.
type EdgeKind int

const (
	EdgeRide EdgeKind = iota
	EdgeWalkTransfer
)

// TransitEdge is a directed edge of the TransitGraph. Ride edges carry a
// real LineID; walk-transfer edges carry models.LineWalk and a zero
// headway.
type TransitEdge struct {
	Kind       EdgeKind
	From       string
	To         string
	LineID     string // real line id, or LineWalk
	TravelTime int    // seconds
	Headway    int    // seconds; 0 for walk-transfer edges
}

// SearchState identifies a node of the expanded (stop, incoming-line)
// search graph.
type SearchState struct {
	StopID       string
	IncomingLine string
}

// PathNode is one hop of a raw PathSearch result, before segmentation.
type PathNode struct {
	State SearchState
	Cost  int // cumulative g-cost at this state
}

// RawPath is the ordered state sequence PathSearch returns, plus its total
// cost. Empty when the destination is unreachable.
type RawPath struct {
	Nodes []PathNode
	Cost  int
}

// Reachable reports whether the search produced a usable path.
func (p RawPath) Reachable() bool {
	return len(p.Nodes) > 0
}

// Segment is one leg of an Itinerary: either a walk or a ride on one line.
type Segment struct {
	Kind         EdgeKind
	LineID       string // empty for walk segments
	Stops        []string
	PerHopDeltas []*int // nil entry means "unknown" (DataConsistency)
	Polyline     orb.LineString
	From, To     orb.Point
	DurationSec  int
	HeadwaySec   int // 0 for walk
}

// Itinerary is an ordered, presentation-ready list of segments.
type Itinerary struct {
	Segments  []Segment
	TotalTime int // seconds: sum of segment durations + segment headways
}

// LinesUsed returns the set of real transit line ids appearing in ride
// segments of the itinerary.
func (it Itinerary) LinesUsed() []string {
	seen := make(map[string]bool)
	var lines []string
	for _, seg := range it.Segments {
		if seg.Kind == EdgeRide && seg.LineID != "" && !seen[seg.LineID] {
			seen[seg.LineID] = true
			lines = append(lines, seg.LineID)
		}
	}
	return lines
}

// Alternative pairs a computed Itinerary with its presentation total time,
// as returned by Planner.Plan.
type Alternative struct {
	Itinerary Itinerary
	TotalTime int
}

// BoardingCandidate is one entry of a Planner's boarding set: a stop
// reachable from the user's origin by a short walk, with the walk
// duration.
type BoardingCandidate struct {
	StopID      string
	WalkTimeSec int
}
