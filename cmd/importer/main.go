// Command importer loads a GTFS ZIP feed into the stop/line tables the
// API server reads at startup.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/transitplan/journeyplanner/internal/config"
	"github.com/transitplan/journeyplanner/internal/db"
	"github.com/transitplan/journeyplanner/internal/gtfsingest"
	"github.com/transitplan/journeyplanner/internal/logging"
)

func main() {
	agencyID := flag.String("agency-id", "", "agency id for this GTFS feed (required)")
	gtfsPath := flag.String("gtfs", "", "path to GTFS ZIP file (required)")
	dedupeThreshold := flag.Float64("dedupe-threshold", 30.0, "stop deduplication threshold in meters")
	flag.Parse()

	if *agencyID == "" || *gtfsPath == "" {
		fmt.Println("usage: importer --agency-id=<id> --gtfs=<path.zip> [--dedupe-threshold=30]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger := logging.New()
	defer logger.Sync()
	gtfsingest.SetLogger(logger)

	if _, err := os.Stat(*gtfsPath); os.IsNotExist(err) {
		logger.Fatal("GTFS file not found", zap.String("path", *gtfsPath))
	}

	cfg := config.Load()
	pool, err := db.Get(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("failed to apply schema", zap.Error(err))
	}

	logID, err := db.StartImportLog(ctx, pool, *agencyID)
	if err != nil {
		logger.Fatal("failed to start import log", zap.Error(err))
	}

	stopsCount, linesCount, err := runImport(ctx, logger, pool, *gtfsPath, *dedupeThreshold)
	if completeErr := db.CompleteImportLog(ctx, pool, logID, stopsCount, linesCount, err); completeErr != nil {
		logger.Warn("failed to finalize import log", zap.Error(completeErr))
	}
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}

	logger.Info("import completed", zap.Int("stops", stopsCount), zap.Int("lines", linesCount))
}

func runImport(ctx context.Context, logger *zap.Logger, pool *pgxpool.Pool, gtfsPath string, dedupeThreshold float64) (int, int, error) {
	logger.Info("parsing GTFS feed", zap.String("path", gtfsPath))
	feed, err := gtfsingest.ParseZip(gtfsPath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse GTFS: %w", err)
	}

	logger.Info("normalizing feed into stop/line tables")
	stops, lines, err := gtfsingest.BuildTables(feed, dedupeThreshold)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to normalize feed: %w", err)
	}

	logger.Info("writing stop/line tables", zap.Int("stops", len(stops)), zap.Int("lines", len(lines)))
	if err := db.ReplaceStopsAndLines(ctx, pool, stops, lines); err != nil {
		return 0, 0, fmt.Errorf("failed to persist tables: %w", err)
	}

	return len(stops), len(lines), nil
}
