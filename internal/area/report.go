package area

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTMLReport builds a grouped bar chart of cell counts per polygon,
// one series per zoom, in the same go-echarts idiom as the teacher's debug
// traffic/cluster charts.
func RenderHTMLReport(results []Result) (string, error) {
	names, byZoomThenName := groupByZoom(results)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "960px", Height: "540px"}),
		charts.WithTitleOpts(opts.Title{Title: "Area Polygon Cellstring Counts", Subtitle: fmt.Sprintf("%d polygon(s)", len(names))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names)

	zooms := sortedZooms(byZoomThenName)
	for _, z := range zooms {
		counts := byZoomThenName[z]
		data := make([]opts.BarData, 0, len(names))
		for _, name := range names {
			data = append(data, opts.BarData{Value: counts[name]})
		}
		bar.AddSeries(fmt.Sprintf("z%d", z), data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	}

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return "", fmt.Errorf("render area benchmark chart: %w", err)
	}
	return buf.String(), nil
}

func groupByZoom(results []Result) (names []string, byZoom map[int]map[string]int) {
	seenName := make(map[string]struct{})
	byZoom = make(map[int]map[string]int)
	for _, r := range results {
		if _, ok := seenName[r.PolygonName]; !ok {
			seenName[r.PolygonName] = struct{}{}
			names = append(names, r.PolygonName)
		}
		z := int(r.Zoom)
		if byZoom[z] == nil {
			byZoom[z] = make(map[string]int)
		}
		byZoom[z][r.PolygonName] = r.CellCount
	}
	sort.Strings(names)
	return names, byZoom
}

func sortedZooms(byZoom map[int]map[string]int) []int {
	zooms := make([]int, 0, len(byZoom))
	for z := range byZoom {
		zooms = append(zooms, z)
	}
	sort.Ints(zooms)
	return zooms
}
