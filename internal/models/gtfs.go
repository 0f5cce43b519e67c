package models

import "time"

// Raw GTFS row types, produced by ingestion and normalized into Stop/Line
// rows consumed by the TransitGraph loader.

type GTFSAgency struct {
	AgencyID   string
	AgencyName string
	AgencyURL  string
	Timezone   string
}

type GTFSStop struct {
	StopID   string
	StopName string
	Lat      float64
	Lon      float64
}

type GTFSRoute struct {
	RouteID    string
	AgencyID   string
	ShortName  string
	LongName   string
	RouteType  int
	RouteColor string
}

type GTFSTrip struct {
	RouteID   string
	ServiceID string
	TripID    string
	Headsign  string
	Direction int
}

type GTFSStopTime struct {
	TripID        string
	ArrivalTime   string
	DepartureTime string
	StopID        string
	StopSequence  int
}

// ImportLog records one GTFS ingestion run.
type ImportLog struct {
	ID          int64
	AgencyID    string
	StartedAt   time.Time
	CompletedAt *time.Time
	Status      string
	StopsCount  int
	LinesCount  int
	ErrorMsg    string
}
