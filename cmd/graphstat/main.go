// Command graphstat loads the stop/line tables, builds the in-memory
// transit graph exactly as the API server does at startup, and reports
// its size — a smoke test for a freshly imported feed before pointing a
// server at it.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/transitplan/journeyplanner/internal/config"
	"github.com/transitplan/journeyplanner/internal/db"
	"github.com/transitplan/journeyplanner/internal/logging"
	"github.com/transitplan/journeyplanner/internal/models"
	"github.com/transitplan/journeyplanner/internal/transitgraph"
)

func main() {
	logger := logging.New()
	defer logger.Sync()

	cfg := config.Load()
	pool, err := db.Get(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	stops, lines, err := db.LoadStopsAndLines(ctx, pool)
	if err != nil {
		logger.Fatal("failed to load stop/line tables", zap.Error(err))
	}

	if len(stops) == 0 || len(lines) == 0 {
		fmt.Println("no data found: run the importer first")
		os.Exit(1)
	}

	opts := transitgraph.Options{
		WalkSpeedTransferMPS: cfg.WalkSpeedTransferMPS(),
		MaxWalkSeconds:       cfg.MaxWalkSeconds,
	}
	g, err := transitgraph.Build(stops, lines, opts)
	if err != nil {
		logger.Fatal("failed to build graph", zap.Error(err))
	}

	rideEdges, walkEdges := countEdges(g, stops)

	fmt.Println("graph statistics:")
	fmt.Printf("  stops:      %d\n", len(stops))
	fmt.Printf("  lines:      %d\n", len(lines))
	fmt.Printf("  ride edges: %d\n", rideEdges)
	fmt.Printf("  walk edges: %d\n", walkEdges)
}

func countEdges(g *transitgraph.Graph, stops []models.Stop) (ride, walk int) {
	for _, s := range stops {
		for _, e := range g.Neighbors(s.ID) {
			if e.Kind == models.EdgeRide {
				ride++
			} else {
				walk++
			}
		}
	}
	return ride, walk
}
