package gtfsingest

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/transitplan/journeyplanner/internal/geo"
	"github.com/transitplan/journeyplanner/internal/models"
)

// InferMode determines a line's presentation mode from its GTFS route,
// preferring keyword matches in the route name over the raw route_type
// code (some feeds mislabel BRT corridors as route_type=3).
func InferMode(route models.GTFSRoute) models.ModeClass {
	name := strings.ToUpper(route.ShortName + " " + route.LongName)

	if strings.Contains(name, "BRT") || strings.Contains(name, "RAPID") {
		return models.ModeBRT
	}
	if strings.Contains(name, "TRAM") {
		return models.ModeTram
	}
	if strings.Contains(name, "TRAIN") || strings.Contains(name, "RAIL") || strings.Contains(name, "TER") {
		return models.ModeTrain
	}

	switch route.RouteType {
	case 0: // tram, streetcar, light rail
		return models.ModeTram
	case 1: // subway, metro
		return models.ModeBRT
	case 2: // rail
		return models.ModeTrain
	case 3: // bus
		return models.ModeBus
	case 5, 6, 7: // cable tram, aerial lift, funicular
		return models.ModeTram
	}

	return models.ModeBus
}

// ValidateAndCleanStops drops stops with out-of-range or null-island
// coordinates.
func ValidateAndCleanStops(stops []models.GTFSStop) []models.GTFSStop {
	cleaned := make([]models.GTFSStop, 0, len(stops))
	for _, s := range stops {
		if s.Lat < -90 || s.Lat > 90 {
			logger.Sugar().Warnf("invalid latitude for stop %s: %f", s.StopID, s.Lat)
			continue
		}
		if s.Lon < -180 || s.Lon > 180 {
			logger.Sugar().Warnf("invalid longitude for stop %s: %f", s.StopID, s.Lon)
			continue
		}
		if s.Lat == 0 && s.Lon == 0 {
			logger.Sugar().Warnf("stop %s has null island coordinates, skipping", s.StopID)
			continue
		}
		cleaned = append(cleaned, s)
	}
	return cleaned
}

// DeduplicateStops collapses stops within thresholdMeters of an
// already-kept stop, returning the survivors and an old-id -> kept-id
// mapping covering every input stop. BuildTables does not use the
// mapping: stop_times that reference a collapsed stop are dropped.
func DeduplicateStops(stops []models.GTFSStop, thresholdMeters float64) ([]models.GTFSStop, map[string]string) {
	kept := make([]models.GTFSStop, 0, len(stops))
	skip := make(map[int]bool)
	mapping := make(map[string]string)

	for i := 0; i < len(stops); i++ {
		if skip[i] {
			continue
		}
		cur := stops[i]
		kept = append(kept, cur)
		mapping[cur.StopID] = cur.StopID

		for j := i + 1; j < len(stops); j++ {
			if skip[j] {
				continue
			}
			d := geo.HaversineMeters(orb.Point{cur.Lon, cur.Lat}, orb.Point{stops[j].Lon, stops[j].Lat})
			if d < thresholdMeters {
				skip[j] = true
				mapping[stops[j].StopID] = cur.StopID
			}
		}
	}
	return kept, mapping
}

// ParseTimeToSeconds converts a GTFS HH:MM:SS timestamp (hours may exceed
// 24 for next-day service) into seconds since midnight.
func ParseTimeToSeconds(timeStr string) (int, error) {
	if timeStr == "" {
		return 0, fmt.Errorf("empty time string")
	}
	parts := strings.Split(timeStr, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid time format: %s", timeStr)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q: %w", timeStr, err)
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q: %w", timeStr, err)
	}
	s, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q: %w", timeStr, err)
	}
	return h*3600 + m*60 + s, nil
}

// tripStopTime is a stop_times row resolved to an absolute second offset,
// sorted by stop_sequence within its trip.
type tripStopTime struct {
	stopID   string
	sequence int
	seconds  int
}

// BuildTables normalizes a parsed feed into the Stop/Line rows the
// TransitGraph loader consumes. stopDedupeMeters of 0 disables
// deduplication.
func BuildTables(feed *Feed, stopDedupeMeters float64) ([]models.Stop, []models.Line, error) {
	cleanStops := ValidateAndCleanStops(feed.Stops)
	if stopDedupeMeters > 0 {
		cleanStops, _ = DeduplicateStops(cleanStops, stopDedupeMeters)
	}

	stopByID := make(map[string]models.GTFSStop, len(cleanStops))
	for _, s := range cleanStops {
		stopByID[s.StopID] = s
	}

	routeByID := make(map[string]models.GTFSRoute, len(feed.Routes))
	for _, r := range feed.Routes {
		routeByID[r.RouteID] = r
	}

	tripByID := make(map[string]models.GTFSTrip, len(feed.Trips))
	for _, t := range feed.Trips {
		tripByID[t.TripID] = t
	}

	tripStopTimes := make(map[string][]tripStopTime)
	for _, st := range feed.StopTimes {
		if _, ok := stopByID[st.StopID]; !ok {
			continue // dropped by cleaning/dedup
		}
		secs, err := ParseTimeToSeconds(firstNonEmpty(st.DepartureTime, st.ArrivalTime))
		if err != nil {
			logger.Sugar().Warnf("skipping stop_time with unparseable time: trip=%s stop=%s: %v", st.TripID, st.StopID, err)
			continue
		}
		tripStopTimes[st.TripID] = append(tripStopTimes[st.TripID], tripStopTime{
			stopID:   st.StopID,
			sequence: st.StopSequence,
			seconds:  secs,
		})
	}
	for tripID := range tripStopTimes {
		times := tripStopTimes[tripID]
		sort.Slice(times, func(i, j int) bool { return times[i].sequence < times[j].sequence })
		tripStopTimes[tripID] = times
	}

	servedLines := make(map[string][]string) // stopID -> lineIDs
	lines, err := buildLines(feed, tripByID, routeByID, tripStopTimes, servedLines)
	if err != nil {
		return nil, nil, err
	}

	stops := make([]models.Stop, 0, len(cleanStops))
	stopPos := make(map[string]orb.Point, len(cleanStops))
	for _, s := range cleanStops {
		pos := geo.Project(orb.Point{s.Lon, s.Lat})
		stopPos[s.StopID] = pos
		stops = append(stops, models.Stop{
			ID:          s.StopID,
			Name:        s.StopName,
			Position:    pos,
			Lat:         s.Lat,
			Lon:         s.Lon,
			ServedLines: servedLines[s.StopID],
		})
	}

	for i := range lines {
		ls := make(orb.LineString, 0, len(lines[i].StopSequence))
		for _, stopID := range lines[i].StopSequence {
			if p, ok := stopPos[stopID]; ok {
				ls = append(ls, p)
			}
		}
		lines[i].Polyline = ls
	}

	return stops, lines, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// tripShape is one observed stop sequence + per-hop travel times for a
// route+direction, keyed by its concatenated stop sequence so that trips
// sharing the same pattern contribute to the same Line's headway.
type tripShape struct {
	stopSeq   []string
	hopTimes  [][]int // one slice of per-hop seconds per observed trip
	headways  []int   // successive departure deltas at the first stop, across trips
	firstSecs []int   // first-stop departure second, per trip, for headway derivation
}

func buildLines(
	feed *Feed,
	tripByID map[string]models.GTFSTrip,
	routeByID map[string]models.GTFSRoute,
	tripStopTimes map[string][]tripStopTime,
	servedLines map[string][]string,
) ([]models.Line, error) {
	// Group trips by (route_id, direction_id, stop pattern) so that a
	// single Line represents one physical shape served at some frequency,
	// not one row per scheduled trip.
	shapes := make(map[string]*tripShape)
	shapeRoute := make(map[string]string)
	shapeDir := make(map[string]int)

	tripIDs := make([]string, 0, len(tripStopTimes))
	for tripID := range tripStopTimes {
		tripIDs = append(tripIDs, tripID)
	}
	sort.Strings(tripIDs)

	for _, tripID := range tripIDs {
		times := tripStopTimes[tripID]
		if len(times) < 2 {
			continue
		}
		trip, ok := tripByID[tripID]
		if !ok {
			continue
		}

		stopSeq := make([]string, len(times))
		hops := make([]int, len(times)-1)
		for i, t := range times {
			stopSeq[i] = t.stopID
		}
		for i := 1; i < len(times); i++ {
			delta := times[i].seconds - times[i-1].seconds
			if delta < 0 {
				delta = 0
			}
			hops[i-1] = delta
		}

		key := fmt.Sprintf("%s|%d|%s", trip.RouteID, trip.Direction, strings.Join(stopSeq, ">"))
		sh, ok := shapes[key]
		if !ok {
			sh = &tripShape{stopSeq: stopSeq}
			shapes[key] = sh
			shapeRoute[key] = trip.RouteID
			shapeDir[key] = trip.Direction
		}
		sh.hopTimes = append(sh.hopTimes, hops)
		sh.firstSecs = append(sh.firstSecs, times[0].seconds)
	}

	keys := make([]string, 0, len(shapes))
	for k := range shapes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]models.Line, 0, len(keys))
	for _, key := range keys {
		sh := shapes[key]
		routeID := shapeRoute[key]
		route := routeByID[routeID]
		dir := shapeDir[key]

		lineID := fmt.Sprintf("%s:%d", routeID, dir)
		perHop := averageHops(sh.hopTimes)
		headway := deriveHeadway(sh.firstSecs)

		lines = append(lines, models.Line{
			ID:                  lineID,
			ShortName:           route.ShortName,
			LongName:            route.LongName,
			DirectionHeadsign:   "",
			Mode:                InferMode(route),
			ColorHex:            route.RouteColor,
			StopSequence:        sh.stopSeq,
			PerHopTravelSeconds: perHop,
			MeanHeadwaySeconds:  headway,
		})

		for _, stopID := range sh.stopSeq {
			servedLines[stopID] = appendUnique(servedLines[stopID], lineID)
		}
	}

	_ = feed
	return lines, nil
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

// averageHops element-wise averages per-hop travel times across all
// observed trips for a shape, rounding to the nearest second.
func averageHops(hopTimes [][]int) []int {
	if len(hopTimes) == 0 {
		return nil
	}
	n := len(hopTimes[0])
	sums := make([]float64, n)
	for _, hops := range hopTimes {
		for i := 0; i < n && i < len(hops); i++ {
			sums[i] += float64(hops[i])
		}
	}
	out := make([]int, n)
	for i, sum := range sums {
		out[i] = int(math.Round(sum / float64(len(hopTimes))))
		if out[i] < 1 {
			out[i] = 1
		}
	}
	return out
}

// deriveHeadway computes the mean gap between successive first-stop
// departures across a shape's observed trips, in seconds. A single trip
// has no observable headway; it falls back to a conservative default
// so it is still schedulable as a boardable line.
func deriveHeadway(firstSecs []int) int {
	if len(firstSecs) < 2 {
		return 3600
	}
	sorted := append([]int(nil), firstSecs...)
	sort.Ints(sorted)

	var sum, count int
	for i := 1; i < len(sorted); i++ {
		delta := sorted[i] - sorted[i-1]
		if delta <= 0 {
			continue
		}
		sum += delta
		count++
	}
	if count == 0 {
		return 3600
	}
	return sum / count
}
