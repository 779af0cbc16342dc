package area

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealane-data/aistrace/internal/aismodel"
	"github.com/sealane-data/aistrace/internal/raster"
	"github.com/sealane-data/aistrace/internal/store"
	"github.com/sealane-data/aistrace/internal/tilecodec"
)

type fakeAreaStore struct {
	polygons []aismodel.AreaPolygon
	inserted int
}

func (f *fakeAreaStore) ListMMSIs(ctx context.Context) ([]uint32, error) { return nil, nil }
func (f *fakeAreaStore) PointsForMMSI(ctx context.Context, mmsi uint32) ([]aismodel.AisPoint, error) {
	return nil, nil
}
func (f *fakeAreaStore) BeginBatch(ctx context.Context, kind string) (store.BatchTx, error) {
	return nil, nil
}
func (f *fakeAreaStore) ListAreaPolygons(ctx context.Context) ([]aismodel.AreaPolygon, error) {
	return f.polygons, nil
}
func (f *fakeAreaStore) UpsertAreaPolygon(ctx context.Context, name string, polygon []aismodel.Point) (int64, error) {
	return 0, nil
}
func (f *fakeAreaStore) InsertAreaCellString(ctx context.Context, areaID int64, zoom int, mode string, cs aismodel.CellString) error {
	f.inserted++
	return nil
}

var _ store.Store = (*fakeAreaStore)(nil)

func TestBenchmark_ProducesOneResultPerZoom(t *testing.T) {
	fs := &fakeAreaStore{polygons: []aismodel.AreaPolygon{
		{ID: 1, Name: "harbor-a", Polygon: []aismodel.Point{
			{X: 10.38, Y: 57.05}, {X: 10.40, Y: 57.05}, {X: 10.40, Y: 57.07}, {X: 10.38, Y: 57.07}, {X: 10.38, Y: 57.05},
		}},
	}}

	results, err := Benchmark(context.Background(), fs, []tilecodec.Zoom{tilecodec.Z13, tilecodec.Z17}, raster.Supercover)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 2, fs.inserted)
	for _, r := range results {
		assert.Equal(t, "harbor-a", r.PolygonName)
		assert.Greater(t, r.CellCount, 0)
	}
}

func TestRenderHTMLReport_ProducesNonEmptyHTML(t *testing.T) {
	results := []Result{
		{PolygonID: 1, PolygonName: "harbor-a", Zoom: tilecodec.Z13, Mode: raster.Supercover, CellCount: 4},
		{PolygonID: 1, PolygonName: "harbor-a", Zoom: tilecodec.Z17, Mode: raster.Supercover, CellCount: 40},
	}
	html, err := RenderHTMLReport(results)
	require.NoError(t, err)
	assert.NotEmpty(t, html)
	assert.Contains(t, html, "harbor-a")
}
