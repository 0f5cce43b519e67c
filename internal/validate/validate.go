// Package validate implements the InvalidInput checks of spec.md §7:
// coordinates must lie within the service area and request parameters
// must be well-formed before reaching the core.
package validate

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/transitplan/journeyplanner/internal/models"
)

var v = validator.New()

// PlanRequest is the validated shape of a `plan` query.
type PlanRequest struct {
	FromLat float64 `validate:"required,latitude"`
	FromLon float64 `validate:"required,longitude"`
	ToLat   float64 `validate:"required,latitude"`
	ToLon   float64 `validate:"required,longitude"`
	// Alternatives is validated and becomes part of the plan cache key. It
	// does not change how many alternatives the Planner computes; that is
	// always the configured max_alternatives.
	Alternatives int `validate:"gte=0,lte=10"`
}

// ServiceArea is an axis-aligned lon/lat bounding box; origin and
// destination must fall within it.
type ServiceArea struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether (lat, lon) falls inside the bounding box.
func (a ServiceArea) Contains(lat, lon float64) bool {
	return lat >= a.MinLat && lat <= a.MaxLat && lon >= a.MinLon && lon <= a.MaxLon
}

// Validate checks struct tags, then checks both endpoints against
// the service bounding box — the struct-tag pass alone can't express
// "within this specific metro area's box", so it's a second explicit step.
func Validate(req PlanRequest, area ServiceArea) error {
	if err := v.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if !area.Contains(req.FromLat, req.FromLon) {
		return fmt.Errorf("%w: origin outside service area", models.ErrInvalidInput)
	}
	if !area.Contains(req.ToLat, req.ToLon) {
		return fmt.Errorf("%w: destination outside service area", models.ErrInvalidInput)
	}
	return nil
}

// StopToStopRequest is the validated shape of a `plan_stop_to_stop` query.
type StopToStopRequest struct {
	FromStopID string `validate:"required"`
	ToStopID   string `validate:"required"`
}

// ValidateStopToStop checks that both stop ids are present and resolve
// against the graph's known stop set.
func ValidateStopToStop(req StopToStopRequest, knownStops map[string]bool) error {
	if err := v.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if !knownStops[req.FromStopID] {
		return fmt.Errorf("%w: unknown stop id %q", models.ErrInvalidInput, req.FromStopID)
	}
	if !knownStops[req.ToStopID] {
		return fmt.Errorf("%w: unknown stop id %q", models.ErrInvalidInput, req.ToStopID)
	}
	return nil
}
