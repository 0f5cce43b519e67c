// Package gtfsingest parses GTFS feeds and normalizes them into the
// Stop/Line tables the TransitGraph consumes (spec.md §6's external
// collaborators). GTFS ingestion itself is explicitly out of the core's
// scope (spec.md §1), but the service still needs a producer for those
// tables, so this package adapts the teacher's GTFS importer to emit the
// new Stop/Line shape instead of (stop,route) graph rows.
package gtfsingest

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/transitplan/journeyplanner/internal/models"
)

var logger = zap.NewNop()

// SetLogger wires a structured logger for ingestion warnings; the default
// is a no-op logger so tests don't need to configure one.
func SetLogger(l *zap.Logger) { logger = l }

// Feed is a parsed, un-normalized GTFS feed.
type Feed struct {
	Agencies  []models.GTFSAgency
	Stops     []models.GTFSStop
	Routes    []models.GTFSRoute
	Trips     []models.GTFSTrip
	StopTimes []models.GTFSStopTime
}

// ParseZip extracts and parses a GTFS ZIP file into a Feed.
func ParseZip(zipPath string) (*Feed, error) {
	tempDir, err := os.MkdirTemp("", "gtfs-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := extractZip(zipPath, tempDir); err != nil {
		return nil, fmt.Errorf("failed to extract zip: %w", err)
	}

	feed := &Feed{}

	if agencies, err := ParseAgencies(filepath.Join(tempDir, "agency.txt")); err == nil {
		feed.Agencies = agencies
		logger.Info("parsed agencies", zap.Int("count", len(agencies)))
	} else {
		logger.Warn("failed to parse agencies", zap.Error(err))
	}

	stops, err := ParseStops(filepath.Join(tempDir, "stops.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse stops (required): %w", err)
	}
	feed.Stops = stops
	logger.Info("parsed stops", zap.Int("count", len(stops)))

	routes, err := ParseRoutes(filepath.Join(tempDir, "routes.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse routes (required): %w", err)
	}
	feed.Routes = routes
	logger.Info("parsed routes", zap.Int("count", len(routes)))

	trips, err := ParseTrips(filepath.Join(tempDir, "trips.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse trips (required): %w", err)
	}
	feed.Trips = trips
	logger.Info("parsed trips", zap.Int("count", len(trips)))

	stopTimes, err := ParseStopTimes(filepath.Join(tempDir, "stop_times.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse stop_times (required): %w", err)
	}
	feed.StopTimes = stopTimes
	logger.Info("parsed stop_times", zap.Int("count", len(stopTimes)))

	return feed, nil
}

func ParseAgencies(filePath string) ([]models.GTFSAgency, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	csvReader := csv.NewReader(file)
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := makeColumnMap(header)

	var agencies []models.GTFSAgency
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("skipping malformed agency row", zap.Error(err))
			continue
		}
		agencies = append(agencies, models.GTFSAgency{
			AgencyID:   getField(record, colMap, "agency_id"),
			AgencyName: getField(record, colMap, "agency_name"),
			AgencyURL:  getField(record, colMap, "agency_url"),
			Timezone:   getField(record, colMap, "agency_timezone"),
		})
	}
	return agencies, nil
}

func ParseStops(filePath string) ([]models.GTFSStop, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	csvReader := csv.NewReader(file)
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := makeColumnMap(header)

	var stops []models.GTFSStop
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("skipping malformed stop row", zap.Error(err))
			continue
		}

		stopID := getField(record, colMap, "stop_id")
		latStr := getField(record, colMap, "stop_lat")
		lonStr := getField(record, colMap, "stop_lon")
		if stopID == "" || latStr == "" || lonStr == "" {
			logger.Warn("skipping stop with missing required fields", zap.String("stop_id", stopID))
			continue
		}

		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			logger.Warn("invalid latitude", zap.String("stop_id", stopID), zap.Error(err))
			continue
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			logger.Warn("invalid longitude", zap.String("stop_id", stopID), zap.Error(err))
			continue
		}

		stops = append(stops, models.GTFSStop{
			StopID:   stopID,
			StopName: getField(record, colMap, "stop_name"),
			Lat:      lat,
			Lon:      lon,
		})
	}
	return stops, nil
}

func ParseRoutes(filePath string) ([]models.GTFSRoute, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	csvReader := csv.NewReader(file)
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := makeColumnMap(header)

	var routes []models.GTFSRoute
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("skipping malformed route row", zap.Error(err))
			continue
		}

		routeID := getField(record, colMap, "route_id")
		if routeID == "" {
			continue
		}
		routeType, _ := strconv.Atoi(getField(record, colMap, "route_type"))

		routes = append(routes, models.GTFSRoute{
			RouteID:    routeID,
			AgencyID:   getField(record, colMap, "agency_id"),
			ShortName:  getField(record, colMap, "route_short_name"),
			LongName:   getField(record, colMap, "route_long_name"),
			RouteType:  routeType,
			RouteColor: getField(record, colMap, "route_color"),
		})
	}
	return routes, nil
}

func ParseTrips(filePath string) ([]models.GTFSTrip, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	csvReader := csv.NewReader(file)
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := makeColumnMap(header)

	var trips []models.GTFSTrip
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("skipping malformed trip row", zap.Error(err))
			continue
		}

		tripID := getField(record, colMap, "trip_id")
		routeID := getField(record, colMap, "route_id")
		if tripID == "" || routeID == "" {
			continue
		}
		direction, _ := strconv.Atoi(getField(record, colMap, "direction_id"))

		trips = append(trips, models.GTFSTrip{
			RouteID:   routeID,
			ServiceID: getField(record, colMap, "service_id"),
			TripID:    tripID,
			Headsign:  getField(record, colMap, "trip_headsign"),
			Direction: direction,
		})
	}
	return trips, nil
}

func ParseStopTimes(filePath string) ([]models.GTFSStopTime, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	csvReader := csv.NewReader(file)
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := makeColumnMap(header)

	var stopTimes []models.GTFSStopTime
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("skipping malformed stop_time row", zap.Error(err))
			continue
		}

		tripID := getField(record, colMap, "trip_id")
		stopID := getField(record, colMap, "stop_id")
		seqStr := getField(record, colMap, "stop_sequence")
		if tripID == "" || stopID == "" || seqStr == "" {
			continue
		}
		sequence, err := strconv.Atoi(seqStr)
		if err != nil {
			logger.Warn("invalid stop_sequence", zap.String("trip_id", tripID), zap.Error(err))
			continue
		}

		stopTimes = append(stopTimes, models.GTFSStopTime{
			TripID:        tripID,
			ArrivalTime:   getField(record, colMap, "arrival_time"),
			DepartureTime: getField(record, colMap, "departure_time"),
			StopID:        stopID,
			StopSequence:  sequence,
		})
	}
	return stopTimes, nil
}

func makeColumnMap(header []string) map[string]int {
	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.TrimSpace(col)] = i
	}
	return colMap
}

func getField(record []string, colMap map[string]int, fieldName string) string {
	if idx, ok := colMap[fieldName]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func extractZip(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return err
		}

		destPath := filepath.Join(destDir, filepath.Base(file.Name))
		outFile, err := os.Create(destPath)
		if err != nil {
			rc.Close()
			return err
		}

		_, err = io.Copy(outFile, rc)
		rc.Close()
		outFile.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
