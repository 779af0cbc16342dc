package segment

import (
	"github.com/sealane-data/aistrace/internal/aismodel"
	"github.com/sealane-data/aistrace/internal/geodesic"
)

// mbrAreaSqMeters returns the geodesic area of the minimum bounding
// rectangle of a point set: the great-ellipsoid width (measured along the
// southern edge, at minY) times the height (measured along the western
// edge, at minX), each via geodesic.DistanceMeters so every distance
// computation in the segmenter shares one ellipsoidal model.
func mbrAreaSqMeters(points []aismodel.Point) float64 {
	minX, minY, maxX, maxY := pointBoundingBox(points)
	width := geodesic.DistanceMeters(minX, minY, maxX, minY)
	height := geodesic.DistanceMeters(minX, minY, minX, maxY)
	return width * height
}

func pointBoundingBox(points []aismodel.Point) (minX, minY, maxX, maxY float64) {
	minX, minY = points[0].X, points[0].Y
	maxX, maxY = points[0].X, points[0].Y
	for _, p := range points[1:] {
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
