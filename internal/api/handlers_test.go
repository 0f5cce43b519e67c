package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitplan/journeyplanner/internal/models"
	"github.com/transitplan/journeyplanner/internal/planner"
	"github.com/transitplan/journeyplanner/internal/search"
	"github.com/transitplan/journeyplanner/internal/segmenter"
	"github.com/transitplan/journeyplanner/internal/transitgraph"
	"github.com/transitplan/journeyplanner/internal/validate"
	"github.com/transitplan/journeyplanner/internal/walking"

	"github.com/paulmach/orb"
)

func lineFixture(id string, stops []string, hop, headway int) models.Line {
	hops := make([]int, len(stops)-1)
	for i := range hops {
		hops[i] = hop
	}
	return models.Line{ID: id, StopSequence: stops, PerHopTravelSeconds: hops, MeanHeadwaySeconds: headway}
}

func testApp(t *testing.T, stops []models.Stop, lines []models.Line) *App {
	g, err := transitgraph.Build(stops, lines, transitgraph.Options{})
	require.NoError(t, err)
	seg := segmenter.New(g, walking.NewRouter(nil, walking.DefaultOptions()))
	p := planner.New(g, seg, planner.Options{MaxAlternatives: 3, Heuristic: search.Zero{}})
	return &App{Planner: p, Graph: g, Area: validate.ServiceArea{MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180}}
}

func TestHealthReportsOKWithStops(t *testing.T) {
	stops := []models.Stop{{ID: "A", Position: orb.Point{0, 0}}}
	app := testApp(t, stops, nil)

	fiberApp := fiber.New()
	fiberApp.Get("/health", app.Health)

	resp, err := fiberApp.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHealthReportsDegradedWithNoStops(t *testing.T) {
	app := testApp(t, nil, nil)

	fiberApp := fiber.New()
	fiberApp.Get("/health", app.Health)

	resp, err := fiberApp.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestPlanStopToStopEndToEnd(t *testing.T) {
	stops := []models.Stop{{ID: "A", Position: orb.Point{0, 0}}, {ID: "B", Position: orb.Point{100, 0}}, {ID: "C", Position: orb.Point{200, 0}}}
	lines := []models.Line{lineFixture("L1", []string{"A", "B", "C"}, 120, 300)}
	app := testApp(t, stops, lines)

	fiberApp := fiber.New()
	fiberApp.Get("/v2/plan/stops", app.PlanStopToStop)

	resp, err := fiberApp.Test(httptest.NewRequest("GET", "/v2/plan/stops?from_stop=A&to_stop=C", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Contains(t, payload, "path")
}

func TestPlanStopToStopRejectsUnknownStop(t *testing.T) {
	stops := []models.Stop{{ID: "A", Position: orb.Point{0, 0}}}
	app := testApp(t, stops, nil)

	fiberApp := fiber.New()
	fiberApp.Get("/v2/plan/stops", app.PlanStopToStop)

	resp, err := fiberApp.Test(httptest.NewRequest("GET", "/v2/plan/stops?from_stop=A&to_stop=ZZZ", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPlanStopToStopRejectsUnreachable(t *testing.T) {
	stops := []models.Stop{{ID: "A", Position: orb.Point{0, 0}}, {ID: "B", Position: orb.Point{100, 0}}}
	app := testApp(t, stops, nil) // no lines: A and B are mutually unreachable

	fiberApp := fiber.New()
	fiberApp.Get("/v2/plan/stops", app.PlanStopToStop)

	resp, err := fiberApp.Test(httptest.NewRequest("GET", "/v2/plan/stops?from_stop=A&to_stop=B", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestParsePlanRequest(t *testing.T) {
	fiberApp := fiber.New()
	var captured validate.PlanRequest
	var captureErr error
	fiberApp.Get("/plan", func(c *fiber.Ctx) error {
		captured, captureErr = parsePlanRequest(c)
		return c.SendStatus(fiber.StatusOK)
	})

	t.Run("parses well-formed query params", func(t *testing.T) {
		url := "/plan?from_lat=40.1&from_lon=-73.9&to_lat=40.8&to_lon=-73.2&alternatives=2"
		_, err := fiberApp.Test(httptest.NewRequest("GET", url, nil))
		require.NoError(t, err)
		require.NoError(t, captureErr)
		assert.Equal(t, 40.1, captured.FromLat)
		assert.Equal(t, 2, captured.Alternatives)
	})

	t.Run("rejects a non-numeric coordinate", func(t *testing.T) {
		url := "/plan?from_lat=oops&from_lon=-73.9&to_lat=40.8&to_lon=-73.2"
		_, err := fiberApp.Test(httptest.NewRequest("GET", url, nil))
		require.NoError(t, err)
		assert.ErrorIs(t, captureErr, models.ErrInvalidInput)
	})

	t.Run("rejects a non-numeric alternatives count", func(t *testing.T) {
		url := "/plan?from_lat=40.1&from_lon=-73.9&to_lat=40.8&to_lon=-73.2&alternatives=oops"
		_, err := fiberApp.Test(httptest.NewRequest("GET", url, nil))
		require.NoError(t, err)
		assert.ErrorIs(t, captureErr, models.ErrInvalidInput)
	})
}

func TestPlanErrorMapsToStatusCode(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{models.ErrNotReachable, fiber.StatusNotFound},
		{models.ErrNoBoardingCandidate, fiber.StatusNotFound},
		{models.ErrInvalidInput, fiber.StatusBadRequest},
		{fmt.Errorf("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		fiberApp := fiber.New()
		fiberApp.Get("/x", func(c *fiber.Ctx) error {
			return planError(c, tt.err)
		})
		resp, err := fiberApp.Test(httptest.NewRequest("GET", "/x", nil))
		require.NoError(t, err)
		assert.Equal(t, tt.wantStatus, resp.StatusCode)
	}
}
