package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/transitplan/journeyplanner/internal/models"
)

const batchSize = 1000

// Schema creates the Stop/Line/ImportLog tables if they don't already
// exist. Stop/Line are the durable source of truth the graph loader reads
// back at startup; the in-memory graph itself is never persisted.
const Schema = `
CREATE TABLE IF NOT EXISTS stop (
	stop_id      TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	lat          DOUBLE PRECISION NOT NULL,
	lon          DOUBLE PRECISION NOT NULL,
	served_lines JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS line (
	line_id                TEXT PRIMARY KEY,
	short_name             TEXT NOT NULL,
	long_name              TEXT NOT NULL,
	direction_headsign     TEXT NOT NULL DEFAULT '',
	mode                   INT NOT NULL,
	color_hex              TEXT NOT NULL DEFAULT '',
	stop_sequence          JSONB NOT NULL,
	per_hop_travel_seconds JSONB NOT NULL,
	mean_headway_seconds   INT NOT NULL
);

CREATE TABLE IF NOT EXISTS import_log (
	id            BIGSERIAL PRIMARY KEY,
	agency_id     TEXT NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ,
	status        TEXT NOT NULL,
	stops_count   INT NOT NULL DEFAULT 0,
	lines_count   INT NOT NULL DEFAULT 0,
	error_msg     TEXT NOT NULL DEFAULT ''
);
`

// EnsureSchema applies Schema against the pool.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}

// ReplaceStopsAndLines truncates and repopulates the stop/line tables
// inside a single transaction, so a reader never observes a half-written
// ingestion run.
func ReplaceStopsAndLines(ctx context.Context, pool *pgxpool.Pool, stops []models.Stop, lines []models.Line) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE TABLE stop, line"); err != nil {
		return fmt.Errorf("truncate stop/line: %w", err)
	}

	if err := batchInsertStops(ctx, tx, stops); err != nil {
		return err
	}
	if err := batchInsertLines(ctx, tx, lines); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func batchInsertStops(ctx context.Context, tx pgx.Tx, stops []models.Stop) error {
	batch := &pgx.Batch{}
	for _, s := range stops {
		served, err := json.Marshal(s.ServedLines)
		if err != nil {
			return fmt.Errorf("marshal served_lines for stop %s: %w", s.ID, err)
		}
		batch.Queue(`
			INSERT INTO stop (stop_id, name, lat, lon, served_lines)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (stop_id) DO UPDATE SET
				name = EXCLUDED.name, lat = EXCLUDED.lat, lon = EXCLUDED.lon,
				served_lines = EXCLUDED.served_lines
		`, s.ID, s.Name, s.Lat, s.Lon, served)

		if batch.Len() >= batchSize {
			if err := execBatch(ctx, tx, batch); err != nil {
				return err
			}
			batch = &pgx.Batch{}
		}
	}
	if batch.Len() > 0 {
		return execBatch(ctx, tx, batch)
	}
	return nil
}

func batchInsertLines(ctx context.Context, tx pgx.Tx, lines []models.Line) error {
	batch := &pgx.Batch{}
	for _, l := range lines {
		stopSeq, err := json.Marshal(l.StopSequence)
		if err != nil {
			return fmt.Errorf("marshal stop_sequence for line %s: %w", l.ID, err)
		}
		perHop, err := json.Marshal(l.PerHopTravelSeconds)
		if err != nil {
			return fmt.Errorf("marshal per_hop_travel_seconds for line %s: %w", l.ID, err)
		}
		batch.Queue(`
			INSERT INTO line (line_id, short_name, long_name, direction_headsign, mode, color_hex, stop_sequence, per_hop_travel_seconds, mean_headway_seconds)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (line_id) DO UPDATE SET
				short_name = EXCLUDED.short_name, long_name = EXCLUDED.long_name,
				direction_headsign = EXCLUDED.direction_headsign, mode = EXCLUDED.mode,
				color_hex = EXCLUDED.color_hex, stop_sequence = EXCLUDED.stop_sequence,
				per_hop_travel_seconds = EXCLUDED.per_hop_travel_seconds,
				mean_headway_seconds = EXCLUDED.mean_headway_seconds
		`, l.ID, l.ShortName, l.LongName, l.DirectionHeadsign, int(l.Mode), l.ColorHex, stopSeq, perHop, l.MeanHeadwaySeconds)

		if batch.Len() >= batchSize {
			if err := execBatch(ctx, tx, batch); err != nil {
				return err
			}
			batch = &pgx.Batch{}
		}
	}
	if batch.Len() > 0 {
		return execBatch(ctx, tx, batch)
	}
	return nil
}

func execBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec %d/%d: %w", i+1, batch.Len(), err)
		}
	}
	return nil
}

// LoadStopsAndLines reads back the full Stop/Line tables, in preparation
// for building the in-memory TransitGraph.
func LoadStopsAndLines(ctx context.Context, pool *pgxpool.Pool) ([]models.Stop, []models.Line, error) {
	stopRows, err := pool.Query(ctx, `SELECT stop_id, name, lat, lon, served_lines FROM stop`)
	if err != nil {
		return nil, nil, fmt.Errorf("query stops: %w", err)
	}
	var stops []models.Stop
	for stopRows.Next() {
		var s models.Stop
		var served []byte
		if err := stopRows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lon, &served); err != nil {
			stopRows.Close()
			return nil, nil, fmt.Errorf("scan stop: %w", err)
		}
		if err := json.Unmarshal(served, &s.ServedLines); err != nil {
			stopRows.Close()
			return nil, nil, fmt.Errorf("unmarshal served_lines for stop %s: %w", s.ID, err)
		}
		stops = append(stops, s)
	}
	stopRows.Close()
	if err := stopRows.Err(); err != nil {
		return nil, nil, err
	}

	lineRows, err := pool.Query(ctx, `
		SELECT line_id, short_name, long_name, direction_headsign, mode, color_hex,
		       stop_sequence, per_hop_travel_seconds, mean_headway_seconds
		FROM line
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("query lines: %w", err)
	}
	var lines []models.Line
	for lineRows.Next() {
		var l models.Line
		var mode int
		var stopSeq, perHop []byte
		if err := lineRows.Scan(&l.ID, &l.ShortName, &l.LongName, &l.DirectionHeadsign, &mode,
			&l.ColorHex, &stopSeq, &perHop, &l.MeanHeadwaySeconds); err != nil {
			lineRows.Close()
			return nil, nil, fmt.Errorf("scan line: %w", err)
		}
		l.Mode = models.ModeClass(mode)
		if err := json.Unmarshal(stopSeq, &l.StopSequence); err != nil {
			lineRows.Close()
			return nil, nil, fmt.Errorf("unmarshal stop_sequence for line %s: %w", l.ID, err)
		}
		if err := json.Unmarshal(perHop, &l.PerHopTravelSeconds); err != nil {
			lineRows.Close()
			return nil, nil, fmt.Errorf("unmarshal per_hop_travel_seconds for line %s: %w", l.ID, err)
		}
		lines = append(lines, l)
	}
	lineRows.Close()
	if err := lineRows.Err(); err != nil {
		return nil, nil, err
	}

	return stops, lines, nil
}

// StartImportLog inserts a new in-progress import_log row and returns its id.
func StartImportLog(ctx context.Context, pool *pgxpool.Pool, agencyID string) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO import_log (agency_id, started_at, status)
		VALUES ($1, $2, 'running')
		RETURNING id
	`, agencyID, time.Now()).Scan(&id)
	return id, err
}

// CompleteImportLog marks an import_log row as finished, recording the
// resulting counts or an error message.
func CompleteImportLog(ctx context.Context, pool *pgxpool.Pool, id int64, stopsCount, linesCount int, importErr error) error {
	status := "success"
	msg := ""
	if importErr != nil {
		status = "failed"
		msg = importErr.Error()
	}
	_, err := pool.Exec(ctx, `
		UPDATE import_log
		SET completed_at = $2, status = $3, stops_count = $4, lines_count = $5, error_msg = $6
		WHERE id = $1
	`, id, time.Now(), status, stopsCount, linesCount, msg)
	return err
}
