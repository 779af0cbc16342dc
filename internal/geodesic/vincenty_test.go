package geodesic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceMeters_Coincident(t *testing.T) {
	d := DistanceMeters(10.0, 57.0, 10.0, 57.0)
	assert.Equal(t, 0.0, d)
}

func TestDistanceMeters_KnownPair(t *testing.T) {
	// Aalborg to Copenhagen, roughly 240 km apart (reference within ~1%).
	d := DistanceMeters(9.9217, 57.0488, 12.5683, 55.6761)
	require.InDelta(t, 240000, d, 5000)
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	a := DistanceMeters(10.0, 57.0, 10.01, 57.01)
	b := DistanceMeters(10.01, 57.01, 10.0, 57.0)
	assert.InDelta(t, a, b, 1e-6)
}

func TestDistanceMeters_ShortHop(t *testing.T) {
	// ~111m of latitude per 0.001 degree near the equator-ish band.
	d := DistanceMeters(10.0, 57.0, 10.0, 57.001)
	assert.False(t, math.IsNaN(d))
	assert.Greater(t, d, 50.0)
	assert.Less(t, d, 150.0)
}
