// Command api serves the journey planning HTTP surface: `plan`,
// `plan_stop_to_stop`, and a health check, backed by an in-memory transit
// graph loaded from Postgres at startup.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/transitplan/journeyplanner/internal/api"
	"github.com/transitplan/journeyplanner/internal/cache"
	"github.com/transitplan/journeyplanner/internal/config"
	"github.com/transitplan/journeyplanner/internal/db"
	"github.com/transitplan/journeyplanner/internal/logging"
	"github.com/transitplan/journeyplanner/internal/middleware"
	"github.com/transitplan/journeyplanner/internal/models"
	"github.com/transitplan/journeyplanner/internal/planner"
	"github.com/transitplan/journeyplanner/internal/search"
	"github.com/transitplan/journeyplanner/internal/segmenter"
	"github.com/transitplan/journeyplanner/internal/transitgraph"
	"github.com/transitplan/journeyplanner/internal/validate"
	"github.com/transitplan/journeyplanner/internal/walking"
)

func main() {
	logger := logging.New()
	defer logger.Sync()
	logger.Info("starting journey planner API")

	cfg := config.Load()

	pool, err := db.Get(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("database connection established")

	rdb, err := cache.Get(cfg)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer cache.Close()
	logger.Info("redis connection established")

	stops, lines, err := db.LoadStopsAndLines(context.Background(), pool)
	if err != nil {
		logger.Fatal("failed to load stop/line tables", zap.Error(err))
	}

	graphOpts := transitgraph.Options{
		WalkSpeedTransferMPS: cfg.WalkSpeedTransferMPS(),
		MaxWalkSeconds:       cfg.MaxWalkSeconds,
	}
	g, err := transitgraph.Build(stops, lines, graphOpts)
	if err != nil {
		logger.Fatal("failed to build transit graph", zap.Error(err))
	}
	logger.Info("transit graph loaded", zap.Int("stops", len(stops)), zap.Int("lines", len(lines)))

	walkRouter := walking.NewRouter(walking.NewInMemoryGraph(), walking.Options{
		FastWalkMPS: cfg.WalkSpeedTransferMPS(),
		SlowWalkMPS: cfg.WalkSpeedSlowMPS(),
	})
	seg := segmenter.New(g, walkRouter)

	var heuristic search.Heuristic = search.NewEuclidean()
	if cfg.Heuristic == config.HeuristicZero {
		heuristic = search.Zero{}
	}

	p := planner.New(g, seg, planner.Options{
		WalkSpeedTransferMPS: cfg.WalkSpeedTransferMPS(),
		MaxWalkSeconds:       cfg.MaxWalkSeconds,
		MaxAlternatives:      cfg.MaxAlternatives,
		Heuristic:            heuristic,
	})

	app := &api.App{
		Planner: p,
		Graph:   g,
		Cfg:     cfg,
		Logger:  logger,
		Area:    serviceArea(stops),
	}

	fiberApp := fiber.New(fiber.Config{
		AppName:      "journey planner",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: errorHandler(logger),
	})

	fiberApp.Use(recover.New())
	fiberApp.Use(middleware.RequestID())
	fiberApp.Use(middleware.RequestLog(logger))
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	fiberApp.Use(middleware.RateLimit(rdb, 10))

	fiberApp.Get("/health", app.Health)
	fiberApp.Get("/v2/plan", middleware.RequireAPIKey(), app.Plan)
	fiberApp.Get("/v2/plan/stops", middleware.RequireAPIKey(), app.PlanStopToStop)

	fiberApp.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "endpoint not found"})
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		logger.Info("shutting down gracefully")
		if err := fiberApp.Shutdown(); err != nil {
			logger.Warn("error during shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	logger.Info("listening", zap.String("addr", addr))
	if err := fiberApp.Listen(addr); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		logger.Error("request error", zap.Error(err), zap.String("path", c.Path()))
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}

// serviceArea derives a bounding box from the loaded stops so Plan
// requests can be rejected early when they fall well outside the network.
func serviceArea(stops []models.Stop) validate.ServiceArea {
	if len(stops) == 0 {
		return validate.ServiceArea{MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180}
	}
	area := validate.ServiceArea{MinLat: stops[0].Lat, MaxLat: stops[0].Lat, MinLon: stops[0].Lon, MaxLon: stops[0].Lon}
	for _, s := range stops[1:] {
		if s.Lat < area.MinLat {
			area.MinLat = s.Lat
		}
		if s.Lat > area.MaxLat {
			area.MaxLat = s.Lat
		}
		if s.Lon < area.MinLon {
			area.MinLon = s.Lon
		}
		if s.Lon > area.MaxLon {
			area.MaxLon = s.Lon
		}
	}
	return area
}
