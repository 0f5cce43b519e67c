package gtfsingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitplan/journeyplanner/internal/models"
)

func TestInferMode(t *testing.T) {
	tests := []struct {
		name  string
		route models.GTFSRoute
		want  models.ModeClass
	}{
		{"BRT keyword wins over bus route_type", models.GTFSRoute{ShortName: "BRT 1", RouteType: 3}, models.ModeBRT},
		{"tram keyword", models.GTFSRoute{LongName: "Tram Line", RouteType: 3}, models.ModeTram},
		{"rail keyword", models.GTFSRoute{LongName: "Regional Train", RouteType: 3}, models.ModeTrain},
		{"route_type tram", models.GTFSRoute{RouteType: 0}, models.ModeTram},
		{"route_type subway", models.GTFSRoute{RouteType: 1}, models.ModeBRT},
		{"route_type rail", models.GTFSRoute{RouteType: 2}, models.ModeTrain},
		{"route_type bus", models.GTFSRoute{RouteType: 3}, models.ModeBus},
		{"route_type funicular", models.GTFSRoute{RouteType: 7}, models.ModeTram},
		{"unknown route_type defaults to bus", models.GTFSRoute{RouteType: 99}, models.ModeBus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferMode(tt.route))
		})
	}
}

func TestValidateAndCleanStops(t *testing.T) {
	stops := []models.GTFSStop{
		{StopID: "A", Lat: 40.0, Lon: -73.0},
		{StopID: "BAD_LAT", Lat: 200, Lon: -73.0},
		{StopID: "BAD_LON", Lat: 40.0, Lon: 300},
		{StopID: "NULL_ISLAND", Lat: 0, Lon: 0},
	}
	cleaned := ValidateAndCleanStops(stops)
	require.Len(t, cleaned, 1)
	assert.Equal(t, "A", cleaned[0].StopID)
}

func TestDeduplicateStops(t *testing.T) {
	stops := []models.GTFSStop{
		{StopID: "A", Lat: 40.0000, Lon: -73.0000},
		{StopID: "A2", Lat: 40.00005, Lon: -73.0000}, // a few meters from A
		{StopID: "B", Lat: 41.0000, Lon: -73.0000},   // far away
	}
	kept, mapping := DeduplicateStops(stops, 30)
	require.Len(t, kept, 2)
	assert.Equal(t, "A", mapping["A2"])
	assert.Equal(t, "B", mapping["B"])
}

func TestParseTimeToSeconds(t *testing.T) {
	t.Run("parses a normal time", func(t *testing.T) {
		secs, err := ParseTimeToSeconds("01:02:03")
		require.NoError(t, err)
		assert.Equal(t, 3723, secs)
	})

	t.Run("parses next-day service past 24:00", func(t *testing.T) {
		secs, err := ParseTimeToSeconds("25:00:00")
		require.NoError(t, err)
		assert.Equal(t, 25*3600, secs)
	})

	t.Run("rejects an empty string", func(t *testing.T) {
		_, err := ParseTimeToSeconds("")
		assert.Error(t, err)
	})

	t.Run("rejects a malformed string", func(t *testing.T) {
		_, err := ParseTimeToSeconds("not-a-time")
		assert.Error(t, err)
	})
}

func TestAverageHops(t *testing.T) {
	out := averageHops([][]int{{100, 200}, {120, 180}})
	assert.Equal(t, []int{110, 190}, out)
}

func TestAverageHopsFloorsAtOneSecond(t *testing.T) {
	out := averageHops([][]int{{0, 0}})
	assert.Equal(t, []int{1, 1}, out)
}

func TestDeriveHeadway(t *testing.T) {
	t.Run("single trip falls back to the default", func(t *testing.T) {
		assert.Equal(t, 3600, deriveHeadway([]int{100}))
	})

	t.Run("averages gaps between sorted departures", func(t *testing.T) {
		assert.Equal(t, 300, deriveHeadway([]int{0, 300, 600, 900}))
	})
}

// BuildTables end-to-end: two trips of the same route/direction/pattern
// should fold into one Line with averaged hops and a derived headway.
func TestBuildTablesGroupsTripsIntoOneLine(t *testing.T) {
	feed := &Feed{
		Stops: []models.GTFSStop{
			{StopID: "A", StopName: "Stop A", Lat: 40.0, Lon: -73.0},
			{StopID: "B", StopName: "Stop B", Lat: 40.01, Lon: -73.0},
			{StopID: "C", StopName: "Stop C", Lat: 40.02, Lon: -73.0},
		},
		Routes: []models.GTFSRoute{
			{RouteID: "R1", ShortName: "1", RouteType: 3},
		},
		Trips: []models.GTFSTrip{
			{RouteID: "R1", TripID: "T1", Direction: 0},
			{RouteID: "R1", TripID: "T2", Direction: 0},
		},
		StopTimes: []models.GTFSStopTime{
			{TripID: "T1", StopID: "A", StopSequence: 1, DepartureTime: "08:00:00"},
			{TripID: "T1", StopID: "B", StopSequence: 2, DepartureTime: "08:02:00"},
			{TripID: "T1", StopID: "C", StopSequence: 3, DepartureTime: "08:04:00"},
			{TripID: "T2", StopID: "A", StopSequence: 1, DepartureTime: "08:10:00"},
			{TripID: "T2", StopID: "B", StopSequence: 2, DepartureTime: "08:12:30"},
			{TripID: "T2", StopID: "C", StopSequence: 3, DepartureTime: "08:14:30"},
		},
	}

	stops, lines, err := BuildTables(feed, 0)
	require.NoError(t, err)
	require.Len(t, stops, 3)
	require.Len(t, lines, 1)

	line := lines[0]
	assert.Equal(t, "R1:0", line.ID)
	assert.Equal(t, []string{"A", "B", "C"}, line.StopSequence)
	assert.Equal(t, []int{135, 120}, line.PerHopTravelSeconds) // (120+150)/2, (120+120)/2
	assert.Equal(t, 600, line.MeanHeadwaySeconds)               // 08:10 - 08:00
	require.Len(t, line.Polyline, 3)

	var stopA models.Stop
	for _, s := range stops {
		if s.ID == "A" {
			stopA = s
		}
	}
	assert.Contains(t, stopA.ServedLines, "R1:0")
}
