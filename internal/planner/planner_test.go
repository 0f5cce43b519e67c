package planner

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitplan/journeyplanner/internal/geo"
	"github.com/transitplan/journeyplanner/internal/models"
	"github.com/transitplan/journeyplanner/internal/search"
	"github.com/transitplan/journeyplanner/internal/segmenter"
	"github.com/transitplan/journeyplanner/internal/transitgraph"
	"github.com/transitplan/journeyplanner/internal/walking"
)

func stopAt(id string, x, y float64) models.Stop {
	return models.Stop{ID: id, Position: orb.Point{x, y}}
}

func lineOf(id string, stops []string, hop, headway int) models.Line {
	hops := make([]int, len(stops)-1)
	for i := range hops {
		hops[i] = hop
	}
	poly := make(orb.LineString, len(stops))
	for i := range stops {
		poly[i] = orb.Point{float64(i) * 100, 0}
	}
	return models.Line{ID: id, StopSequence: stops, PerHopTravelSeconds: hops, MeanHeadwaySeconds: headway, Polyline: poly}
}

// lonLatAt returns the geographic coordinate that projects exactly back to
// the given metric point, so test fixtures can exercise Plan's lon/lat
// entry point against stops placed at convenient metric positions.
func lonLatAt(x, y float64) orb.Point {
	return geo.Unproject(orb.Point{x, y})
}

// newTestPlanner disables walk-transfer edges and boarding-radius walking
// (MaxWalkSeconds: 0) so these fixtures exercise ride lines deterministically:
// boardingSet always falls back to the single nearest stop rather than
// letting a short walk shortcut the line network.
func newTestPlanner(stops []models.Stop, lines []models.Line, maxAlts int) *Planner {
	g, err := transitgraph.Build(stops, lines, transitgraph.Options{WalkSpeedTransferMPS: 5000.0 / 3600.0, MaxWalkSeconds: 0})
	if err != nil {
		panic(err)
	}
	seg := segmenter.New(g, walking.NewRouter(nil, walking.DefaultOptions()))
	return New(g, seg, Options{
		WalkSpeedTransferMPS: 5000.0 / 3600.0,
		MaxWalkSeconds:       0,
		MaxAlternatives:      maxAlts,
		Heuristic:            search.Zero{},
	})
}

// S1: origin at A, destination at C, single alternative riding L1 straight
// through.
func TestPlanLinearRide(t *testing.T) {
	stops := []models.Stop{stopAt("A", 0, 0), stopAt("B", 100, 0), stopAt("C", 200, 0)}
	lines := []models.Line{lineOf("L1", []string{"A", "B", "C"}, 120, 300)}
	p := newTestPlanner(stops, lines, 3)

	alts, err := p.Plan(lonLatAt(0, 0), lonLatAt(200, 0))
	require.NoError(t, err)
	require.Len(t, alts, 1)
	assert.Equal(t, []string{"L1"}, alts[0].Itinerary.LinesUsed())
}

// S4: destination unreachable once the only connecting line is removed.
func TestPlanUnreachableYieldsEmptyAlternatives(t *testing.T) {
	stops := []models.Stop{stopAt("A", 0, 0), stopAt("E", 1000, 0)}
	p := newTestPlanner(stops, nil, 3)

	alts, err := p.Plan(lonLatAt(0, 0), lonLatAt(1000, 0))
	require.NoError(t, err)
	assert.Empty(t, alts)
}

// S5: two disjoint lines from A to E; the second alternative forbids the
// line used by the first and both are sorted by total time.
func TestPlanAlternativeDiversityAndOrdering(t *testing.T) {
	stops := []models.Stop{stopAt("A", 0, 0), stopAt("E", 400, 0)}
	lines := []models.Line{
		lineOf("L1", []string{"A", "E"}, 100, 200),
		lineOf("L3", []string{"A", "E"}, 150, 300),
	}
	p := newTestPlanner(stops, lines, 3)

	alts, err := p.Plan(lonLatAt(0, 0), lonLatAt(400, 0))
	require.NoError(t, err)
	require.Len(t, alts, 2)

	// Invariant 7: total_time is non-decreasing across alternatives.
	assert.LessOrEqual(t, alts[0].TotalTime, alts[1].TotalTime)

	// Invariant 6: consecutive alternatives are not subset-equal in lines used.
	linesA := alts[0].Itinerary.LinesUsed()
	linesB := alts[1].Itinerary.LinesUsed()
	assert.NotEqual(t, linesA, linesB)
}

// S6: origin within walking distance of two boarding stops (B and C);
// the itinerary using whichever stop yields the lower overall cost wins,
// even though both are reachable.
func TestPlanPicksCheaperBoardingOption(t *testing.T) {
	stops := []models.Stop{
		stopAt("B", 50, 0),
		stopAt("C", -50, 0),
		stopAt("E", 10050, 0),
		stopAt("F", -10050, 0),
	}
	lines := []models.Line{
		lineOf("LSLOW", []string{"B", "F"}, 5000, 300), // long, slow hop from B
		lineOf("LFAST", []string{"C", "F"}, 100, 300),  // short hop from C
	}
	// Origin point itself is not a graph stop: give boardingSet a 60s
	// (~83m) walk radius so both B and C qualify as candidates.
	g, err := transitgraph.Build(stops, lines, transitgraph.Options{WalkSpeedTransferMPS: 5000.0 / 3600.0, MaxWalkSeconds: 0})
	require.NoError(t, err)
	seg := segmenter.New(g, walking.NewRouter(nil, walking.DefaultOptions()))
	p := New(g, seg, Options{
		WalkSpeedTransferMPS: 5000.0 / 3600.0,
		MaxWalkSeconds:       60,
		MaxAlternatives:      3,
		Heuristic:            search.Zero{},
	})

	alts, err := p.Plan(lonLatAt(0, 0), lonLatAt(-10050, 0))
	require.NoError(t, err)
	require.NotEmpty(t, alts)
	assert.Equal(t, []string{"LFAST"}, alts[0].Itinerary.LinesUsed())
}

func TestPlanStopToStop(t *testing.T) {
	stops := []models.Stop{stopAt("A", 0, 0), stopAt("B", 100, 0), stopAt("C", 200, 0)}
	lines := []models.Line{lineOf("L1", []string{"A", "B", "C"}, 120, 300)}
	p := newTestPlanner(stops, lines, 3)

	path := p.PlanStopToStop("A", "C")
	require.True(t, path.Reachable())
	assert.Equal(t, 120+300+120, path.Cost) // two hops plus the initial boarding headway
}
