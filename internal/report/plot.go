package report

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/sealane-data/aistrace/internal/aismodel"
)

var (
	trajColor = color.RGBA{R: 30, G: 90, B: 200, A: 255}
	stopColor = color.RGBA{R: 200, G: 60, B: 30, A: 255}
)

// RenderGeometryPNG draws one vessel's trajectories (as lines) and stops
// (as closed polygons) over a single lon/lat plot, in the same
// plot.New/plotter.NewLine/Save idiom the teacher uses for its lidar grid
// diagnostics.
func RenderGeometryPNG(mmsi uint32, trajs []aismodel.Trajectory, stops []aismodel.Stop, outputDir string) (string, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("MMSI %d - trajectories and stops", mmsi)
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"

	for i, t := range trajs {
		pts := make(plotter.XYs, len(t.Polyline))
		for j, v := range t.Polyline {
			pts[j] = plotter.XY{X: v.X, Y: v.Y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", fmt.Errorf("trajectory %d line: %w", i, err)
		}
		line.Color = trajColor
		line.Width = vg.Points(1)
		p.Add(line)
		if i == 0 {
			p.Legend.Add("trajectory", line)
		}
	}

	for i, s := range stops {
		pts := make(plotter.XYs, len(s.Polygon))
		for j, v := range s.Polygon {
			pts[j] = plotter.XY{X: v.X, Y: v.Y}
		}
		poly, err := plotter.NewLine(pts)
		if err != nil {
			return "", fmt.Errorf("stop %d polygon: %w", i, err)
		}
		poly.Color = stopColor
		poly.Width = vg.Points(1.5)
		p.Add(poly)
		if i == 0 {
			p.Legend.Add("stop", poly)
		}
	}

	outPath := filepath.Join(outputDir, fmt.Sprintf("mmsi_%d_geometry.png", mmsi))
	if err := p.Save(12*vg.Inch, 8*vg.Inch, outPath); err != nil {
		return "", fmt.Errorf("save geometry plot: %w", err)
	}
	return outPath, nil
}
