// Package tilecodec converts between (lon, lat, zoom), integer Web-Mercator
// slippy tile coordinates, and packed decimal-digit-oriented CellIDs.
//
// The packing is deliberately decimal (not bitwise) so CellIDs stay
// human-readable, per spec.md §4.3.
package tilecodec

import (
	"fmt"
	"math"

	"github.com/sealane-data/aistrace/internal/aismodel"
)

// Zoom is one of the supported Web-Mercator zoom levels.
type Zoom int

const (
	Z13 Zoom = 13
	Z17 Zoom = 17
	Z21 Zoom = 21
)

// packing holds the decimal offset and per-axis multiplier for a zoom
// scheme: cell = offset + x*mult + y, valid while x, y < mult.
type packing struct {
	offset int64
	mult   int64
}

var packings = map[Zoom]packing{
	Z13: {offset: 100_000_000, mult: 10_000},
	Z17: {offset: 100_000_000_000, mult: 1_000_000},
	Z21: {offset: 100_000_000_000_000, mult: 10_000_000},
}

// ErrUnsupportedZoom is returned for any zoom outside {13, 17, 21}.
type ErrUnsupportedZoom struct{ Zoom Zoom }

func (e ErrUnsupportedZoom) Error() string {
	return fmt.Sprintf("tilecodec: unsupported zoom %d", int(e.Zoom))
}

// LonLatToTile projects (lon, lat) in degrees to integer tile coordinates
// at the given zoom, clamping latitude to [-85.0511, 85.0511] and wrapping
// longitude into [-180, 180) first.
func LonLatToTile(lon, lat float64, zoom Zoom) (x, y int64) {
	lat = clampLat(lat)
	lon = wrapLon(lon)

	n := math.Exp2(float64(zoom))
	x = int64(math.Floor((lon + 180) / 360 * n))
	latRad := lat * math.Pi / 180
	y = int64(math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n))

	max := int64(n) - 1
	if x < 0 {
		x = 0
	} else if x > max {
		x = max
	}
	if y < 0 {
		y = 0
	} else if y > max {
		y = max
	}
	return x, y
}

func clampLat(lat float64) float64 {
	const limit = 85.0511
	if lat > limit {
		return limit
	}
	if lat < -limit {
		return -limit
	}
	return lat
}

func wrapLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// Pack packs tile coordinates (x, y) at the given zoom into a CellID using
// the decimal scheme documented in spec.md §4.3.
func Pack(x, y int64, zoom Zoom) (aismodel.CellID, error) {
	p, ok := packings[zoom]
	if !ok {
		return 0, ErrUnsupportedZoom{zoom}
	}
	if x < 0 || y < 0 || x >= p.mult || y >= p.mult {
		return 0, fmt.Errorf("tilecodec: tile (%d,%d) out of range for zoom %d", x, y, zoom)
	}
	return aismodel.CellID(p.offset + x*p.mult + y), nil
}

// Unpack reverses Pack: raw = cell - offset; x = raw/mult; y = raw%mult,
// using integer division so the round-trip is exact.
func Unpack(cell aismodel.CellID, zoom Zoom) (x, y int64, err error) {
	p, ok := packings[zoom]
	if !ok {
		return 0, 0, ErrUnsupportedZoom{zoom}
	}
	raw := int64(cell) - p.offset
	if raw < 0 {
		return 0, 0, fmt.Errorf("tilecodec: cell %d below offset for zoom %d", cell, zoom)
	}
	x = raw / p.mult
	y = raw % p.mult
	return x, y, nil
}

// Encode converts (lon, lat) directly to a packed CellID at the given zoom.
func Encode(lon, lat float64, zoom Zoom) (aismodel.CellID, error) {
	x, y := LonLatToTile(lon, lat, zoom)
	return Pack(x, y, zoom)
}
