package spatial

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitplan/journeyplanner/internal/models"
)

func sampleStops() []models.Stop {
	return []models.Stop{
		{ID: "A", Position: orb.Point{0, 0}},
		{ID: "B", Position: orb.Point{100, 0}},
		{ID: "C", Position: orb.Point{0, 100}},
		{ID: "D", Position: orb.Point{1000, 1000}},
	}
}

func TestNearest(t *testing.T) {
	idx := Build(sampleStops())

	t.Run("returns closest stop", func(t *testing.T) {
		id, ok := idx.Nearest(orb.Point{5, 2})
		require.True(t, ok)
		assert.Equal(t, "A", id)
	})

	t.Run("breaks ties lexicographically", func(t *testing.T) {
		stops := []models.Stop{
			{ID: "Z", Position: orb.Point{10, 0}},
			{ID: "A", Position: orb.Point{-10, 0}},
		}
		idx := Build(stops)
		id, ok := idx.Nearest(orb.Point{0, 0})
		require.True(t, ok)
		assert.Equal(t, "A", id)
	})

	t.Run("empty index", func(t *testing.T) {
		idx := Build(nil)
		_, ok := idx.Nearest(orb.Point{0, 0})
		assert.False(t, ok)
	})
}

func TestWithin(t *testing.T) {
	idx := Build(sampleStops())

	hits := idx.Within(orb.Point{0, 0}, 150)
	assert.Equal(t, []string{"A", "B", "C"}, hits)

	hits = idx.Within(orb.Point{0, 0}, 10)
	assert.Equal(t, []string{"A"}, hits)

	hits = idx.Within(orb.Point{5000, 5000}, 1)
	assert.Empty(t, hits)
}
