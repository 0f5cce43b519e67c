package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/transitplan/journeyplanner/internal/models"
)

func sampleArea() ServiceArea {
	return ServiceArea{MinLat: 40, MaxLat: 41, MinLon: -74, MaxLon: -73}
}

func TestServiceAreaContains(t *testing.T) {
	area := sampleArea()
	assert.True(t, area.Contains(40.5, -73.5))
	assert.False(t, area.Contains(42, -73.5))
	assert.False(t, area.Contains(40.5, -75))
}

func TestValidatePlanRequest(t *testing.T) {
	area := sampleArea()

	t.Run("accepts a well-formed in-area request", func(t *testing.T) {
		req := PlanRequest{FromLat: 40.1, FromLon: -73.9, ToLat: 40.8, ToLon: -73.2, Alternatives: 3}
		assert.NoError(t, Validate(req, area))
	})

	t.Run("rejects missing coordinates", func(t *testing.T) {
		req := PlanRequest{ToLat: 40.8, ToLon: -73.2}
		err := Validate(req, area)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("rejects an origin outside the service area", func(t *testing.T) {
		req := PlanRequest{FromLat: 10, FromLon: 10, ToLat: 40.8, ToLon: -73.2}
		err := Validate(req, area)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("rejects alternatives above the cap", func(t *testing.T) {
		req := PlanRequest{FromLat: 40.1, FromLon: -73.9, ToLat: 40.8, ToLon: -73.2, Alternatives: 11}
		err := Validate(req, area)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestValidateStopToStop(t *testing.T) {
	known := map[string]bool{"A": true, "B": true}

	t.Run("accepts known stops", func(t *testing.T) {
		err := ValidateStopToStop(StopToStopRequest{FromStopID: "A", ToStopID: "B"}, known)
		assert.NoError(t, err)
	})

	t.Run("rejects an unknown stop id", func(t *testing.T) {
		err := ValidateStopToStop(StopToStopRequest{FromStopID: "A", ToStopID: "ZZZ"}, known)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("rejects an empty stop id", func(t *testing.T) {
		err := ValidateStopToStop(StopToStopRequest{FromStopID: "", ToStopID: "B"}, known)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}
