package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestProjectUnprojectRoundTrip(t *testing.T) {
	lonLat := orb.Point{2.3522, 48.8566} // Paris
	proj := Project(lonLat)
	back := Unproject(proj)

	assert.InDelta(t, lonLat[0], back[0], 1e-6)
	assert.InDelta(t, lonLat[1], back[1], 1e-6)
}

func TestHaversineMeters(t *testing.T) {
	// Roughly 111.2km per degree of latitude at the equator.
	a := orb.Point{0, 0}
	b := orb.Point{0, 1}
	d := HaversineMeters(a, b)
	assert.InDelta(t, 111195.0, d, 500)
}

func TestProjectOntoLineEndpoints(t *testing.T) {
	ls := orb.LineString{{0, 0}, {10, 0}, {20, 0}}

	t.Run("projects onto first vertex", func(t *testing.T) {
		d := ProjectOntoLine(ls, orb.Point{0, 0})
		assert.InDelta(t, 0, d, 1e-9)
	})

	t.Run("projects onto midpoint", func(t *testing.T) {
		d := ProjectOntoLine(ls, orb.Point{10, 0})
		assert.InDelta(t, 10, d, 1e-9)
	})

	t.Run("projects off-line point onto nearest segment", func(t *testing.T) {
		d := ProjectOntoLine(ls, orb.Point{15, 5})
		assert.InDelta(t, 15, d, 1e-9)
	})
}

func TestSubstring(t *testing.T) {
	ls := orb.LineString{{0, 0}, {10, 0}, {20, 0}}

	t.Run("extracts a middle range", func(t *testing.T) {
		sub := Substring(ls, 5, 15)
		assert.Len(t, sub, 3)
		assert.InDelta(t, 5, sub[0][0], 1e-9)
		assert.InDelta(t, 15, sub[len(sub)-1][0], 1e-9)
	})

	t.Run("swaps reversed start/end", func(t *testing.T) {
		sub := Substring(ls, 15, 5)
		assert.InDelta(t, 5, sub[0][0], 1e-9)
		assert.InDelta(t, 15, sub[len(sub)-1][0], 1e-9)
	})
}

func TestLength(t *testing.T) {
	ls := orb.LineString{{0, 0}, {3, 4}}
	assert.InDelta(t, 5.0, Length(ls), 1e-9)
}

func TestDistance(t *testing.T) {
	d := Distance(orb.Point{0, 0}, orb.Point{3, 4})
	assert.Equal(t, 5.0, math.Round(d))
}
