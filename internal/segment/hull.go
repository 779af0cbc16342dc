package segment

import (
	"sort"

	"github.com/sealane-data/aistrace/internal/aismodel"
)

// convexHull computes the convex hull of a point set via the monotone
// chain algorithm (Andrew's variant), returning a closed ring (first point
// repeated at the end) in counter-clockwise order. No geometry toolkit in
// the example corpus exposes a planar convex hull, so it is implemented
// directly, per spec.md §9's own guidance to "adopt monotone-chain hull"
// when the target language lacks one.
//
// ok is false when the input collapses to fewer than 3 distinct,
// non-collinear vertices (a line or a point) — the stop-validation
// "simple polygon" requirement.
func convexHull(points []aismodel.Point) (ring []aismodel.Point, ok bool) {
	pts := dedupe(points)
	if len(pts) < 3 {
		return nil, false
	}

	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	lower := buildChain(pts)
	upper := buildChain(reversed(pts))

	hull := make([]aismodel.Point, 0, len(lower)+len(upper))
	hull = append(hull, lower[:len(lower)-1]...)
	hull = append(hull, upper[:len(upper)-1]...)

	if len(hull) < 3 {
		return nil, false
	}
	if polygonArea(hull) == 0 {
		return nil, false
	}

	hull = append(hull, hull[0])
	return hull, true
}

func buildChain(pts []aismodel.Point) []aismodel.Point {
	chain := make([]aismodel.Point, 0, len(pts))
	for _, p := range pts {
		for len(chain) >= 2 && cross2(chain[len(chain)-2], chain[len(chain)-1], p) <= 0 {
			chain = chain[:len(chain)-1]
		}
		chain = append(chain, p)
	}
	return chain
}

func cross2(o, a, b aismodel.Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func dedupe(points []aismodel.Point) []aismodel.Point {
	seen := make(map[aismodel.Point]struct{}, len(points))
	out := make([]aismodel.Point, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func reversed(pts []aismodel.Point) []aismodel.Point {
	out := make([]aismodel.Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// polygonArea returns twice the signed area (shoelace) of an open ring;
// used only to test for zero area (collinear degenerate hull).
func polygonArea(ring []aismodel.Point) float64 {
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return sum
}
