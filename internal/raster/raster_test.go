package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealane-data/aistrace/internal/aismodel"
	"github.com/sealane-data/aistrace/internal/tilecodec"
)

func TestLine_Empty(t *testing.T) {
	cs, err := Line(nil, tilecodec.Z21)
	require.NoError(t, err)
	assert.Empty(t, cs.Cells)

	cs, err = Line([]aismodel.Vertex{{X: 10, Y: 57, T: 0}}, tilecodec.Z21)
	require.NoError(t, err)
	assert.Empty(t, cs.Cells)
}

func TestLine_CoincidentVertices(t *testing.T) {
	v := aismodel.Vertex{X: 10.836495, Y: 57.368236, T: 0}
	cs, err := Line([]aismodel.Vertex{v, v}, tilecodec.Z21)
	require.NoError(t, err)
	require.Len(t, cs.Cells, 1)
}

func TestLine_KnownBresenhamSequence(t *testing.T) {
	vertices := []aismodel.Vertex{
		{X: 10.836495, Y: 57.368236, T: 0},
		{X: 10.835510, Y: 57.368526, T: 1},
	}
	cs, err := Line(vertices, tilecodec.Z21)
	require.NoError(t, err)
	require.Len(t, cs.Cells, 7)

	x0, y0 := tilecodec.LonLatToTile(vertices[0].X, vertices[0].Y, tilecodec.Z21)
	x1, y1 := tilecodec.LonLatToTile(vertices[1].X, vertices[1].Y, tilecodec.Z21)
	t.Logf("tile0=(%d,%d) tile1=(%d,%d)", x0, y0, x1, y1)

	// The walk visits exactly these seven tiles in order. The sequence must
	// be monotone in y (walking from tile0 toward tile1) and every visited
	// tile must lie inside the endpoints' bbox.
	expected := []aismodel.CellID{
		111117030638525, 111117020638525, 111117010638524, 111117000638524,
		111116990638523, 111116980638523, 111116970638522,
	}
	assert.Equal(t, expected, cs.Cells)

	prevY := y0
	for _, c := range cs.Cells {
		x, y, err := tilecodec.Unpack(c, tilecodec.Z21)
		require.NoError(t, err)
		assert.True(t, (x >= min64(x0, x1)) && (x <= max64(x0, x1)))
		assert.True(t, (y >= min64(y0, y1)) && (y <= max64(y0, y1)))
		assert.True(t, (y-prevY)*(y1-y0) >= 0, "y must move monotonically toward tile1")
		prevY = y
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func TestPolygon_Empty(t *testing.T) {
	cs, err := Polygon(nil, tilecodec.Z13, Supercover)
	require.NoError(t, err)
	assert.Empty(t, cs.Cells)

	cs, err = Polygon([]aismodel.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, tilecodec.Z13, Supercover)
	require.NoError(t, err)
	assert.Empty(t, cs.Cells)
}

func square(cx, cy, half float64) []aismodel.Point {
	return []aismodel.Point{
		{X: cx - half, Y: cy - half},
		{X: cx + half, Y: cy - half},
		{X: cx + half, Y: cy + half},
		{X: cx - half, Y: cy + half},
		{X: cx - half, Y: cy - half},
	}
}

func TestPolygon_SupercoverNonEmpty(t *testing.T) {
	ring := square(10.39, 57.05, 0.01)
	cs, err := Polygon(ring, tilecodec.Z13, Supercover)
	require.NoError(t, err)
	assert.NotEmpty(t, cs.Cells)
	assert.True(t, cs.UniqueCells)
}

func TestPolygon_CenterTestIsSubsetOfSupercover(t *testing.T) {
	ring := square(10.39, 57.05, 0.02)
	super, err := Polygon(ring, tilecodec.Z13, Supercover)
	require.NoError(t, err)
	center, err := Polygon(ring, tilecodec.Z13, CenterTest)
	require.NoError(t, err)

	superSet := make(map[aismodel.CellID]struct{}, len(super.Cells))
	for _, c := range super.Cells {
		superSet[c] = struct{}{}
	}
	for _, c := range center.Cells {
		_, ok := superSet[c]
		assert.True(t, ok, "center-test cell %d must be covered by supercover", c)
	}
}
