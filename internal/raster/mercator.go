package raster

import (
	"math"

	"github.com/sealane-data/aistrace/internal/tilecodec"
)

const piVal = math.Pi

// exp2 returns 2^zoom as a float64, the tile-grid width/height at that zoom.
func exp2(zoom tilecodec.Zoom) float64 {
	return math.Exp2(float64(zoom))
}

// atanSinh is the inverse Gudermannian term used to invert the forward
// Web-Mercator y formula back to a latitude in radians.
func atanSinh(x float64) float64 {
	return math.Atan(math.Sinh(x))
}
