// Package area benchmarks the rasterizer against named, MMSI-independent
// polygons (harbor limits, anchorage zones) instead of vessel stops,
// producing a cell count per zoom/mode combination and an HTML report.
package area

import (
	"context"
	"fmt"

	"github.com/sealane-data/aistrace/internal/raster"
	"github.com/sealane-data/aistrace/internal/store"
	"github.com/sealane-data/aistrace/internal/tilecodec"
)

// Result is one polygon's cellstring count at one zoom/mode.
type Result struct {
	PolygonID   int64
	PolygonName string
	Zoom        tilecodec.Zoom
	Mode        raster.PolygonMode
	CellCount   int
	UniqueCells bool
}

// Benchmark rasterizes every stored area polygon at every zoom under mode,
// persisting each cellstring and returning the per-zoom counts for
// reporting.
func Benchmark(ctx context.Context, s store.Store, zooms []tilecodec.Zoom, mode raster.PolygonMode) ([]Result, error) {
	polygons, err := s.ListAreaPolygons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list area polygons: %w", err)
	}

	modeName := mode.String()

	var results []Result
	for _, p := range polygons {
		for _, z := range zooms {
			cs, err := raster.Polygon(p.Polygon, z, mode)
			if err != nil {
				return results, fmt.Errorf("rasterize area %q at zoom %d: %w", p.Name, z, err)
			}
			if err := s.InsertAreaCellString(ctx, p.ID, int(z), modeName, cs); err != nil {
				return results, fmt.Errorf("persist area cellstring for %q: %w", p.Name, err)
			}
			results = append(results, Result{
				PolygonID:   p.ID,
				PolygonName: p.Name,
				Zoom:        z,
				Mode:        mode,
				CellCount:   len(cs.Cells),
				UniqueCells: cs.UniqueCells,
			})
		}
	}
	return results, nil
}
