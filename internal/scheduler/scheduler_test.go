package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealane-data/aistrace/internal/aisconfig"
	"github.com/sealane-data/aistrace/internal/aismodel"
	"github.com/sealane-data/aistrace/internal/store"
)

// fakeStore is an in-memory store.Store used only to exercise the
// scheduler's batching and concurrency without a real database.
type fakeStore struct {
	mu     sync.Mutex
	points map[uint32][]aismodel.AisPoint

	trajs []aismodel.Trajectory
	stops []aismodel.Stop
	cells int
}

var _ store.Store = (*fakeStore)(nil)

func (f *fakeStore) ListMMSIs(ctx context.Context) ([]uint32, error) {
	var out []uint32
	for mmsi := range f.points {
		out = append(out, mmsi)
	}
	return out, nil
}

func (f *fakeStore) PointsForMMSI(ctx context.Context, mmsi uint32) ([]aismodel.AisPoint, error) {
	return f.points[mmsi], nil
}

func (f *fakeStore) BeginBatch(ctx context.Context, kind string) (store.BatchTx, error) {
	return &fakeBatchTx{store: f}, nil
}

func (f *fakeStore) ListAreaPolygons(ctx context.Context) ([]aismodel.AreaPolygon, error) {
	return nil, nil
}

func (f *fakeStore) UpsertAreaPolygon(ctx context.Context, name string, polygon []aismodel.Point) (int64, error) {
	return 0, nil
}

func (f *fakeStore) InsertAreaCellString(ctx context.Context, areaID int64, zoom int, mode string, cs aismodel.CellString) error {
	return nil
}

type fakeBatchTx struct {
	store *fakeStore
}

var _ store.BatchTx = (*fakeBatchTx)(nil)

func (b *fakeBatchTx) InsertTrajectories(trajs []aismodel.Trajectory) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	b.store.trajs = append(b.store.trajs, trajs...)
	return nil
}

func (b *fakeBatchTx) InsertStops(stops []aismodel.Stop) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	b.store.stops = append(b.store.stops, stops...)
	return nil
}

func (b *fakeBatchTx) InsertCellString(target aismodel.Target, sourceID int64, zoom int, cs aismodel.CellString) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	b.store.cells++
	return nil
}

func (b *fakeBatchTx) Commit(mmsiCount int) error { return nil }
func (b *fakeBatchTx) Rollback() error            { return nil }

func knotsPtr(v float64) *float64 { return &v }

func straightLineTrack(mmsi uint32, n int) []aismodel.AisPoint {
	var pts []aismodel.AisPoint
	for i := 0; i < n; i++ {
		pts = append(pts, aismodel.AisPoint{
			MMSI: mmsi,
			X:    10.0 + float64(i)*0.05,
			Y:    57.0,
			T:    float64(i * 600),
			SOG:  knotsPtr(15),
		})
	}
	return pts
}

func TestRunSegmenter_BatchesAcrossMMSIs(t *testing.T) {
	fs := &fakeStore{points: map[uint32][]aismodel.AisPoint{}}
	for mmsi := uint32(1); mmsi <= 5; mmsi++ {
		fs.points[mmsi] = straightLineTrack(mmsi, 12)
	}

	driver := aisconfig.DefaultDriverConfig()
	driver.SegmenterBatch = 2
	driver.MaxWorkers = 2

	sched := New(fs, driver, aisconfig.EmptyThresholds())
	stats, err := sched.RunSegmenter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.MMSIsProcessed)
	assert.Equal(t, 5, stats.TrajectoriesMade)
	assert.Len(t, fs.trajs, 5)
}

func TestRunRasterizer_CoversAllZoomsPerTarget(t *testing.T) {
	fs := &fakeStore{points: map[uint32][]aismodel.AisPoint{}}
	driver := aisconfig.DefaultDriverConfig()
	driver.Zooms = []aisconfig.ZoomLevel{aisconfig.Zoom13, aisconfig.Zoom21}
	driver.RasterizerBatch = 10

	sched := New(fs, driver, aisconfig.EmptyThresholds())
	targets := []RasterizeTarget{
		{
			Target:   aismodel.TargetTrajectory,
			SourceID: 1,
			Vertices: []aismodel.Vertex{{X: 10.0, Y: 57.0, T: 0}, {X: 10.01, Y: 57.001, T: 600}},
		},
	}
	written, err := sched.RunRasterizer(context.Background(), targets)
	require.NoError(t, err)
	assert.Equal(t, 2, written) // one cellstring per configured zoom
	assert.Equal(t, 2, fs.cells)
}
