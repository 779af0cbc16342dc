// Package aismodel defines the data model shared by the segmenter,
// rasterizer, and store adapters: AIS position reports and the
// trajectory/stop/cellstring products derived from them.
package aismodel

import "fmt"

// AisPoint is a single timestamped vessel position report.
//
// X and Y are WGS84 longitude/latitude in degrees. T is epoch seconds.
// SOG is speed over ground in knots, reported when the sensor provides it.
type AisPoint struct {
	MMSI uint32
	X    float64 // longitude
	Y    float64 // latitude
	T    float64 // epoch seconds
	SOG  *float64
}

// Valid reports whether the point satisfies the data-model invariants:
// latitude in [-85.0511, 85.0511], longitude in [-180, 180], t >= 0.
func (p AisPoint) Valid() bool {
	return p.Y >= -85.0511 && p.Y <= 85.0511 && p.X >= -180 && p.X <= 180 && p.T >= 0
}

// Vertex is a single (lon, lat, epoch-seconds) point on a trajectory line.
type Vertex struct {
	X, Y, T float64
}

// Trajectory is a moving episode: an ordered polyline whose M-ordinate is
// the source timestamp of each vertex.
type Trajectory struct {
	MMSI    uint32
	TStart  float64
	TEnd    float64
	Polyline []Vertex
}

// Stop is a stationary episode: the convex hull of its constituent points.
type Stop struct {
	MMSI    uint32
	TStart  float64
	TEnd    float64
	Polygon []Point // closed ring, first == last
}

// Point is a plain (lon, lat) pair, used for hulls and bounding boxes where
// no time ordinate is meaningful.
type Point struct {
	X, Y float64
}

// Target names which geometry kind a CellString was derived from.
type Target int

const (
	TargetTrajectory Target = iota
	TargetStop
	TargetArea
)

func (t Target) String() string {
	switch t {
	case TargetTrajectory:
		return "trajectory"
	case TargetStop:
		return "stop"
	case TargetArea:
		return "area"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// CellID is a packed 64-bit integer identifying a Web-Mercator slippy tile
// at a given zoom (see tilecodec for the packing scheme).
type CellID int64

// CellString is an ordered sequence of CellIDs plus a precomputed
// uniqueness flag.
type CellString struct {
	Cells       []CellID
	UniqueCells bool
}

// NewCellString derives UniqueCells by comparing the slice length to the
// size of its dedup set, per spec: "unique_cells is derived post-hoc."
func NewCellString(cells []CellID) CellString {
	seen := make(map[CellID]struct{}, len(cells))
	for _, c := range cells {
		seen[c] = struct{}{}
	}
	return CellString{Cells: cells, UniqueCells: len(seen) == len(cells)}
}

// AreaPolygon is a named, MMSI-independent polygon used for benchmarking
// the rasterizer outside the vessel pipeline.
type AreaPolygon struct {
	ID      int64
	Name    string
	Polygon []Point
}
