// Package raster rasterizes trajectory polylines and stop/area polygons
// into ordered sequences of tile CellIDs.
package raster

import (
	"github.com/sealane-data/aistrace/internal/aismodel"
	"github.com/sealane-data/aistrace/internal/tilecodec"
)

// PolygonMode selects how a polygon's covering tiles are chosen.
type PolygonMode int

const (
	// Supercover keeps every tile whose geographic rectangle intersects
	// the polygon. This is the reference contract for stop polygons.
	Supercover PolygonMode = iota
	// CenterTest keeps a tile only if its center lies inside the polygon.
	CenterTest
)

func (m PolygonMode) String() string {
	switch m {
	case CenterTest:
		return "center-test"
	default:
		return "supercover"
	}
}

// Line rasterizes a polyline into a CellString by walking a 2D Bresenham
// line between each consecutive pair of vertices' tile coordinates, in
// traversal order, with no cross-segment deduplication.
//
// Edge cases: an empty or single-vertex polyline yields an empty
// CellString; a degenerate segment whose endpoints share a tile yields
// exactly one cell for that segment.
func Line(vertices []aismodel.Vertex, zoom tilecodec.Zoom) (aismodel.CellString, error) {
	if len(vertices) < 2 {
		return aismodel.NewCellString(nil), nil
	}

	var cells []aismodel.CellID
	for i := 0; i < len(vertices)-1; i++ {
		x0, y0 := tilecodec.LonLatToTile(vertices[i].X, vertices[i].Y, zoom)
		x1, y1 := tilecodec.LonLatToTile(vertices[i+1].X, vertices[i+1].Y, zoom)

		for _, xy := range bresenham(x0, y0, x1, y1) {
			cell, err := tilecodec.Pack(xy[0], xy[1], zoom)
			if err != nil {
				return aismodel.CellString{}, err
			}
			cells = append(cells, cell)
		}
	}
	return aismodel.NewCellString(cells), nil
}

// bresenham returns every tile visited walking from (x0,y0) to (x1,y1)
// inclusive, in traversal order, using the classical integer line
// algorithm (dx, dy, sx=sign(x1-x0), sy=sign(y1-y0), err=dx-dy).
func bresenham(x0, y0, x1, y1 int64) [][2]int64 {
	dx := abs64(x1 - x0)
	dy := -abs64(y1 - y0)
	sx := sign64(x1 - x0)
	sy := sign64(y1 - y0)
	errv := dx + dy

	var out [][2]int64
	x, y := x0, y0
	for {
		out = append(out, [2]int64{x, y})
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * errv
		if e2 > dy {
			errv += dy
			x += sx
		}
		if e2 < dx {
			errv += dx
			y += sy
		}
	}
	return out
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func sign64(v int64) int64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Polygon rasterizes a closed ring into a CellString covering its bounding
// box at the given zoom, keeping each tile per mode. Emission order is
// row-major: y ascending within x ascending.
//
// Edge case: fewer than 3 points yields an empty CellString.
func Polygon(ring []aismodel.Point, zoom tilecodec.Zoom, mode PolygonMode) (aismodel.CellString, error) {
	if len(ring) < 3 {
		return aismodel.NewCellString(nil), nil
	}

	minX, minY, maxX, maxY := boundingBox(ring)
	x0, y0 := tilecodec.LonLatToTile(minX, maxY, zoom) // max lat -> smaller tile y
	x1, y1 := tilecodec.LonLatToTile(maxX, minY, zoom)
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}

	var cells []aismodel.CellID
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			keep, err := tileKept(x, y, zoom, ring, mode)
			if err != nil {
				return aismodel.CellString{}, err
			}
			if !keep {
				continue
			}
			cell, err := tilecodec.Pack(x, y, zoom)
			if err != nil {
				return aismodel.CellString{}, err
			}
			cells = append(cells, cell)
		}
	}
	return aismodel.NewCellString(cells), nil
}

func boundingBox(ring []aismodel.Point) (minX, minY, maxX, maxY float64) {
	minX, minY = ring[0].X, ring[0].Y
	maxX, maxY = ring[0].X, ring[0].Y
	for _, p := range ring[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return
}

func tileKept(x, y int64, zoom tilecodec.Zoom, ring []aismodel.Point, mode PolygonMode) (bool, error) {
	rect, err := tileRect(x, y, zoom)
	if err != nil {
		return false, err
	}
	switch mode {
	case CenterTest:
		cx, cy := (rect[0]+rect[2])/2, (rect[1]+rect[3])/2
		return pointInPolygon(cx, cy, ring), nil
	default: // Supercover
		return rectIntersectsPolygon(rect, ring), nil
	}
}

// tileRect returns [minLon, minLat, maxLon, maxLat] for a tile, derived by
// inverse-projecting its four corners through the forward formula's
// neighbors (tile (x,y) and tile (x+1,y+1) at the same zoom).
func tileRect(x, y int64, zoom tilecodec.Zoom) ([4]float64, error) {
	lon0, lat0 := tileCorner(x, y, zoom)
	lon1, lat1 := tileCorner(x+1, y+1, zoom)
	minLon, maxLon := lon0, lon1
	if minLon > maxLon {
		minLon, maxLon = maxLon, minLon
	}
	minLat, maxLat := lat0, lat1
	if minLat > maxLat {
		minLat, maxLat = maxLat, minLat
	}
	return [4]float64{minLon, minLat, maxLon, maxLat}, nil
}

func tileCorner(x, y int64, zoom tilecodec.Zoom) (lon, lat float64) {
	n := exp2(zoom)
	lon = float64(x)/n*360 - 180
	latRad := atanSinh(piVal * (1 - 2*float64(y)/n))
	lat = latRad * 180 / piVal
	return
}

func pointInPolygon(x, y float64, ring []aismodel.Point) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := ring[i], ring[j]
		if (pi.Y > y) != (pj.Y > y) {
			xIntersect := (pj.X-pi.X)*(y-pi.Y)/(pj.Y-pi.Y) + pi.X
			if x < xIntersect {
				inside = !inside
			}
		}
	}
	return inside
}

// rectIntersectsPolygon reports whether the tile rectangle [minLon, minLat,
// maxLon, maxLat] intersects the polygon's interior or boundary: true if
// any rectangle corner is inside the polygon, any polygon vertex is inside
// the rectangle, or any rectangle edge crosses any polygon edge.
func rectIntersectsPolygon(rect [4]float64, ring []aismodel.Point) bool {
	minLon, minLat, maxLon, maxLat := rect[0], rect[1], rect[2], rect[3]
	corners := []aismodel.Point{
		{X: minLon, Y: minLat}, {X: maxLon, Y: minLat},
		{X: maxLon, Y: maxLat}, {X: minLon, Y: maxLat},
	}
	for _, c := range corners {
		if pointInPolygon(c.X, c.Y, ring) {
			return true
		}
	}
	for _, p := range ring {
		if p.X >= minLon && p.X <= maxLon && p.Y >= minLat && p.Y <= maxLat {
			return true
		}
	}
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if segmentIntersectsRect(ring[j], ring[i], rect) {
			return true
		}
	}
	return false
}

func segmentIntersectsRect(a, b aismodel.Point, rect [4]float64) bool {
	minLon, minLat, maxLon, maxLat := rect[0], rect[1], rect[2], rect[3]
	edges := [4][2]aismodel.Point{
		{{X: minLon, Y: minLat}, {X: maxLon, Y: minLat}},
		{{X: maxLon, Y: minLat}, {X: maxLon, Y: maxLat}},
		{{X: maxLon, Y: maxLat}, {X: minLon, Y: maxLat}},
		{{X: minLon, Y: maxLat}, {X: minLon, Y: minLat}},
	}
	for _, e := range edges {
		if segmentsIntersect(a, b, e[0], e[1]) {
			return true
		}
	}
	return false
}

func segmentsIntersect(p1, p2, p3, p4 aismodel.Point) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}
	return false
}

func cross(a, b, c aismodel.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, p aismodel.Point) bool {
	return min(a.X, b.X) <= p.X && p.X <= max(a.X, b.X) &&
		min(a.Y, b.Y) <= p.Y && p.Y <= max(a.Y, b.Y)
}
