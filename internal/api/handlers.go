// Package api implements the HTTP surface of spec.md §6's external
// interfaces: `plan`, `plan_stop_to_stop`, and a health check, over Fiber.
package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/transitplan/journeyplanner/internal/cache"
	"github.com/transitplan/journeyplanner/internal/config"
	"github.com/transitplan/journeyplanner/internal/models"
	"github.com/transitplan/journeyplanner/internal/planner"
	"github.com/transitplan/journeyplanner/internal/transitgraph"
	"github.com/transitplan/journeyplanner/internal/validate"

	"github.com/paulmach/orb"
)

// App bundles the dependencies every handler needs.
type App struct {
	Planner *planner.Planner
	Graph   *transitgraph.Graph
	Cfg     *config.Config
	Logger  *zap.Logger
	Area    validate.ServiceArea
}

// Health reports liveness: the graph is loaded and non-empty.
func (a *App) Health(c *fiber.Ctx) error {
	stopCount := len(a.Graph.Stops())
	if stopCount == 0 {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
			"reason": "graph has no stops loaded",
		})
	}
	return c.JSON(fiber.Map{
		"status": "ok",
		"stops":  stopCount,
	})
}

// planResponse is the JSON shape of the `plan` operation's result.
type planResponse struct {
	Alternatives []models.Alternative `json:"alternatives"`
}

// Plan implements GET /v2/plan?from_lat=&from_lon=&to_lat=&to_lon=&alternatives=.
func (a *App) Plan(c *fiber.Ctx) error {
	req, err := parsePlanRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := validate.Validate(req, a.Area); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ctx := c.Context()
	alternatives := req.Alternatives
	if alternatives <= 0 {
		alternatives = a.Cfg.MaxAlternatives
	}

	key := cache.PlanKey(req.FromLat, req.FromLon, req.ToLat, req.ToLon, alternatives)

	if alts, err := cache.GetPlan(ctx, a.Cfg, key); err == nil && alts != nil {
		c.Locals("cache_hit", true)
		return c.JSON(planResponse{Alternatives: alts})
	}

	acquired, lockErr := cache.AcquireLock(ctx, a.Cfg, cache.LockKey(key), a.Cfg.CacheMutexTTL)
	if lockErr == nil && !acquired {
		if alts, err := cache.WaitForLock(ctx, a.Cfg, key, a.Cfg.CacheMutexTTL); err == nil && alts != nil {
			c.Locals("cache_hit", true)
			return c.JSON(planResponse{Alternatives: alts})
		}
	}
	if lockErr == nil && acquired {
		defer cache.ReleaseLock(ctx, a.Cfg, cache.LockKey(key))
	}

	alts, err := a.Planner.Plan(orb.Point{req.FromLon, req.FromLat}, orb.Point{req.ToLon, req.ToLat})
	if err != nil {
		return planError(c, err)
	}

	if lockErr == nil {
		_ = cache.SetPlan(ctx, a.Cfg, key, alts, a.Cfg.CacheTTL)
	}

	return c.JSON(planResponse{Alternatives: alts})
}

// PlanStopToStop implements GET /v2/plan/stops?from_stop=&to_stop=, the
// diagnostic stop-to-stop search of spec.md §6.
func (a *App) PlanStopToStop(c *fiber.Ctx) error {
	req := validate.StopToStopRequest{
		FromStopID: c.Query("from_stop"),
		ToStopID:   c.Query("to_stop"),
	}

	known := make(map[string]bool)
	for _, s := range a.Graph.Stops() {
		known[s.ID] = true
	}

	if err := validate.ValidateStopToStop(req, known); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	raw := a.Planner.PlanStopToStop(req.FromStopID, req.ToStopID)
	if !raw.Reachable() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": models.ErrNotReachable.Error()})
	}

	return c.JSON(fiber.Map{"path": raw})
}

func parsePlanRequest(c *fiber.Ctx) (validate.PlanRequest, error) {
	var req validate.PlanRequest
	var err error

	if req.FromLat, err = strconv.ParseFloat(c.Query("from_lat"), 64); err != nil {
		return req, models.ErrInvalidInput
	}
	if req.FromLon, err = strconv.ParseFloat(c.Query("from_lon"), 64); err != nil {
		return req, models.ErrInvalidInput
	}
	if req.ToLat, err = strconv.ParseFloat(c.Query("to_lat"), 64); err != nil {
		return req, models.ErrInvalidInput
	}
	if req.ToLon, err = strconv.ParseFloat(c.Query("to_lon"), 64); err != nil {
		return req, models.ErrInvalidInput
	}

	if raw := c.Query("alternatives"); raw != "" {
		alts, err := strconv.Atoi(raw)
		if err != nil {
			return req, models.ErrInvalidInput
		}
		req.Alternatives = alts
	}

	return req, nil
}

func planError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrNotReachable), errors.Is(err, models.ErrNoBoardingCandidate):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
