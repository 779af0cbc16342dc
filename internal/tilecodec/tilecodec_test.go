package tilecodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for _, zoom := range []Zoom{Z13, Z17, Z21} {
		n := int64(1) << uint(zoom)
		cases := []struct{ x, y int64 }{
			{0, 0},
			{n - 1, n - 1},
			{n / 2, n / 3},
		}
		for _, c := range cases {
			cell, err := Pack(c.x, c.y, zoom)
			require.NoError(t, err)
			x, y, err := Unpack(cell, zoom)
			require.NoError(t, err)
			assert.Equal(t, c.x, x, "zoom %d x", zoom)
			assert.Equal(t, c.y, y, "zoom %d y", zoom)
		}
	}
}

func TestEncodeKnownPoints(t *testing.T) {
	cell, err := Encode(10.383365, 57.056374, Z21)
	require.NoError(t, err)
	assert.Equal(t, int64(111_090_630_641_880), int64(cell))

	cell, err = Encode(-123.120231, 49.290563, Z21)
	require.NoError(t, err)
	assert.Equal(t, int64(103_313_480_717_620), int64(cell))
}

func TestPackRejectsOutOfRange(t *testing.T) {
	_, err := Pack(1<<13, 0, Z13)
	assert.Error(t, err)
}

func TestPackRejectsUnsupportedZoom(t *testing.T) {
	_, err := Pack(0, 0, Zoom(9))
	assert.Error(t, err)
}

func TestClampLatAndWrapLon(t *testing.T) {
	assert.Equal(t, 85.0511, clampLat(89))
	assert.Equal(t, -85.0511, clampLat(-89))
	assert.InDelta(t, 179.0, wrapLon(179), 1e-9)
	assert.InDelta(t, -179.0, wrapLon(181), 1e-9)
}
