package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealane-data/aistrace/internal/aisconfig"
	"github.com/sealane-data/aistrace/internal/aismodel"
)

func knots(v float64) *float64 { return &v }

func sogless(mmsi uint32, x, y, t float64) aismodel.AisPoint {
	return aismodel.AisPoint{MMSI: mmsi, X: x, Y: y, T: t}
}

func TestSegment_PureTransit(t *testing.T) {
	cfg := aisconfig.EmptyThresholds()
	var points []aismodel.AisPoint
	for i := 0; i < 12; i++ {
		points = append(points, aismodel.AisPoint{
			MMSI: 1,
			X:    10.0 + float64(i)*0.05,
			Y:    57.0,
			T:    float64(i * 600),
			SOG:  knots(15),
		})
	}

	result := Segment(points, cfg)
	require.Len(t, result.Stops, 0)
	require.Len(t, result.Trajectories, 1)
	assert.Len(t, result.Trajectories[0].Polyline, 12)
}

func TestSegment_PureMooring(t *testing.T) {
	cfg := aisconfig.EmptyThresholds()
	var points []aismodel.AisPoint
	for i := 0; i < 12; i++ {
		points = append(points, aismodel.AisPoint{
			MMSI: 2,
			X:    10.0 + float64(i%3)*0.0001,
			Y:    57.0 + float64(i%2)*0.0001,
			T:    float64(i * 600),
			SOG:  knots(0.1),
		})
	}

	result := Segment(points, cfg)
	require.Len(t, result.Trajectories, 0)
	require.Len(t, result.Stops, 1)
	assert.Equal(t, uint32(2), result.Stops[0].MMSI)
}

func TestSegment_OutlierRejected(t *testing.T) {
	cfg := aisconfig.EmptyThresholds()
	points := []aismodel.AisPoint{
		sogless(3, 10.0, 57.0, 0),
		sogless(3, 10.01, 57.0, 600),
		sogless(3, 50.0, 20.0, 660), // impossible jump: outlier
		sogless(3, 10.02, 57.0, 1200),
		sogless(3, 10.03, 57.0, 1800),
		sogless(3, 10.04, 57.0, 2400),
		sogless(3, 10.05, 57.0, 3000),
		sogless(3, 10.06, 57.0, 3600),
		sogless(3, 10.07, 57.0, 4200),
		sogless(3, 10.08, 57.0, 4800),
		sogless(3, 10.09, 57.0, 5400),
		sogless(3, 10.10, 57.0, 6000),
	}
	for i := range points {
		points[i].SOG = knots(15)
	}

	result := Segment(points, cfg)
	require.Len(t, result.Trajectories, 1)
	// the outlier point must not appear in the emitted polyline
	for _, v := range result.Trajectories[0].Polyline {
		assert.NotEqual(t, 50.0, v.X)
	}
}

func TestSegment_DuplicateTimestampDropped(t *testing.T) {
	cfg := aisconfig.EmptyThresholds()
	points := []aismodel.AisPoint{
		{MMSI: 4, X: 10.0, Y: 57.0, T: 0, SOG: knots(15)},
		{MMSI: 4, X: 10.01, Y: 57.0, T: 600, SOG: knots(15)},
		{MMSI: 4, X: 99.0, Y: 10.0, T: 600, SOG: knots(15)}, // duplicate T, discarded
		{MMSI: 4, X: 10.02, Y: 57.0, T: 1200, SOG: knots(15)},
		{MMSI: 4, X: 10.03, Y: 57.0, T: 1800, SOG: knots(15)},
		{MMSI: 4, X: 10.04, Y: 57.0, T: 2400, SOG: knots(15)},
		{MMSI: 4, X: 10.05, Y: 57.0, T: 3000, SOG: knots(15)},
		{MMSI: 4, X: 10.06, Y: 57.0, T: 3600, SOG: knots(15)},
		{MMSI: 4, X: 10.07, Y: 57.0, T: 4200, SOG: knots(15)},
		{MMSI: 4, X: 10.08, Y: 57.0, T: 4800, SOG: knots(15)},
		{MMSI: 4, X: 10.09, Y: 57.0, T: 5400, SOG: knots(15)},
		{MMSI: 4, X: 10.10, Y: 57.0, T: 6000, SOG: knots(15)},
	}

	result := Segment(points, cfg)
	require.Len(t, result.Trajectories, 1)
	for _, v := range result.Trajectories[0].Polyline {
		assert.NotEqual(t, 99.0, v.X)
	}
}

func TestSegment_EmptyInput(t *testing.T) {
	result := Segment(nil, aisconfig.EmptyThresholds())
	assert.Empty(t, result.Trajectories)
	assert.Empty(t, result.Stops)
}

func TestMergeStops_CombinesNearbyAdjacentRuns(t *testing.T) {
	a := []aismodel.AisPoint{
		{X: 10.0, Y: 57.0, T: 0}, {X: 10.0001, Y: 57.0, T: 100}, {X: 10.0, Y: 57.0001, T: 200},
	}
	b := []aismodel.AisPoint{
		{X: 10.0002, Y: 57.0001, T: 500}, {X: 10.0001, Y: 57.0, T: 600}, {X: 10.0, Y: 57.0, T: 700},
	}
	merged := mergeStops([][]aismodel.AisPoint{a, b}, 250, 3600)
	require.Len(t, merged, 1)
	assert.Len(t, merged[0], 6)
}

func TestMergeStops_KeepsDistantRunsSeparate(t *testing.T) {
	a := []aismodel.AisPoint{{X: 10.0, Y: 57.0, T: 0}, {X: 10.0, Y: 57.0, T: 100}}
	b := []aismodel.AisPoint{{X: 80.0, Y: 10.0, T: 200}, {X: 80.0, Y: 10.0, T: 300}}
	merged := mergeStops([][]aismodel.AisPoint{a, b}, 250, 3600)
	require.Len(t, merged, 2)
}

func TestConvexHull_RejectsCollinearPoints(t *testing.T) {
	pts := []aismodel.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}
	_, ok := convexHull(pts)
	assert.False(t, ok)
}

func TestConvexHull_SquareIsSimple(t *testing.T) {
	pts := []aismodel.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0.5, Y: 0.5}}
	ring, ok := convexHull(pts)
	require.True(t, ok)
	require.GreaterOrEqual(t, len(ring), 4)
	assert.Equal(t, ring[0], ring[len(ring)-1])
}

func TestRepairStops_BridgesTwoTrajectories(t *testing.T) {
	cfg := aisconfig.EmptyThresholds()
	trajA := []aismodel.AisPoint{{X: 10.0, Y: 57.0, T: 0}, {X: 10.01, Y: 57.0, T: 600}}
	trajB := []aismodel.AisPoint{{X: 10.03, Y: 57.0, T: 1800}, {X: 10.04, Y: 57.0, T: 2400}}
	rejectedStop := []aismodel.AisPoint{{X: 10.02, Y: 57.0, T: 1200}}

	out := repairStops([][]aismodel.AisPoint{trajA, trajB}, [][]aismodel.AisPoint{rejectedStop}, cfg)
	require.Len(t, out, 1)
	assert.Len(t, out[0], 5)
}

func TestRepairStops_OrphanDroppedWhenTooShort(t *testing.T) {
	cfg := aisconfig.EmptyThresholds()
	rejectedStop := []aismodel.AisPoint{{X: 40.0, Y: 5.0, T: 1_000_000}}
	out := repairStops(nil, [][]aismodel.AisPoint{rejectedStop}, cfg)
	assert.Len(t, out, 0)
}
