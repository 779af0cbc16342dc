// Package scheduler drives the segmenter and rasterizer phases over a
// goroutine worker pool, batching work so each batch commits as one
// transaction. This mirrors the teacher's periodic worker pattern
// (internal/db.TransitWorker / TransitController) but trades its
// ticker-driven polling for a one-shot batch sweep suited to bulk
// reprocessing of a vessel-position archive.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sealane-data/aistrace/internal/aisconfig"
	"github.com/sealane-data/aistrace/internal/aismodel"
	"github.com/sealane-data/aistrace/internal/monitoring"
	"github.com/sealane-data/aistrace/internal/raster"
	"github.com/sealane-data/aistrace/internal/segment"
	"github.com/sealane-data/aistrace/internal/store"
	"github.com/sealane-data/aistrace/internal/tilecodec"
	"github.com/sealane-data/aistrace/internal/timeutil"
)

// Stats summarizes one scheduler run.
type Stats struct {
	MMSIsProcessed   int
	TrajectoriesMade int
	StopsMade        int
	Errors           []error
	Elapsed          time.Duration
}

// Scheduler owns the store, driver configuration, and segmentation
// thresholds used across a full batch run. Clock is swappable for tests
// that need deterministic elapsed-time reporting.
type Scheduler struct {
	Store      store.Store
	Driver     aisconfig.DriverConfig
	Thresholds *aisconfig.Thresholds
	Clock      timeutil.Clock
}

func New(s store.Store, driver aisconfig.DriverConfig, thresholds *aisconfig.Thresholds) *Scheduler {
	return &Scheduler{Store: s, Driver: driver, Thresholds: thresholds, Clock: timeutil.RealClock{}}
}

type mmsiResult struct {
	mmsi  uint32
	trajs []aismodel.Trajectory
	stops []aismodel.Stop
	err   error
}

// RunSegmenter segments every vessel's point history into trajectories and
// stops, processing MMSIs concurrently within each batch and committing one
// transaction per batch.
func (s *Scheduler) RunSegmenter(ctx context.Context) (stats Stats, err error) {
	clock := s.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	start := clock.Now()
	defer func() { stats.Elapsed = clock.Since(start) }()

	mmsis, err := s.Store.ListMMSIs(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list mmsis: %w", err)
	}

	for _, batch := range chunkUint32(mmsis, s.Driver.SegmenterBatch) {
		results := s.segmentBatch(ctx, batch)

		tx, err := s.Store.BeginBatch(ctx, "segmenter")
		if err != nil {
			return stats, fmt.Errorf("begin segmenter batch: %w", err)
		}

		var batchErr error
		for _, r := range results {
			if r.err != nil {
				stats.Errors = append(stats.Errors, fmt.Errorf("mmsi %d: %w", r.mmsi, r.err))
				continue
			}
			if len(r.trajs) > 0 {
				if err := tx.InsertTrajectories(r.trajs); err != nil {
					batchErr = err
					break
				}
			}
			if len(r.stops) > 0 {
				if err := tx.InsertStops(r.stops); err != nil {
					batchErr = err
					break
				}
			}
			stats.TrajectoriesMade += len(r.trajs)
			stats.StopsMade += len(r.stops)
			stats.MMSIsProcessed++
		}

		if batchErr != nil {
			tx.Rollback()
			return stats, fmt.Errorf("segmenter batch failed: %w", batchErr)
		}
		if err := tx.Commit(len(batch)); err != nil {
			return stats, fmt.Errorf("commit segmenter batch: %w", err)
		}
		monitoring.Logf("segmenter batch committed: %d mmsis, %d trajectories, %d stops so far",
			stats.MMSIsProcessed, stats.TrajectoriesMade, stats.StopsMade)
	}

	return stats, nil
}

// segmentBatch fans a batch of MMSIs out across the worker pool and
// collects results in input order.
func (s *Scheduler) segmentBatch(ctx context.Context, mmsis []uint32) []mmsiResult {
	results := make([]mmsiResult, len(mmsis))
	jobs := make(chan int, len(mmsis))
	for i := range mmsis {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	workers := s.Driver.MaxWorkers
	if workers > len(mmsis) {
		workers = len(mmsis)
	}
	if workers < 1 {
		workers = 1
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				mmsi := mmsis[i]
				points, err := s.Store.PointsForMMSI(ctx, mmsi)
				if err != nil {
					results[i] = mmsiResult{mmsi: mmsi, err: err}
					continue
				}
				res := segment.Segment(points, s.Thresholds)
				results[i] = mmsiResult{mmsi: mmsi, trajs: res.Trajectories, stops: res.Stops}
			}
		}()
	}
	wg.Wait()
	return results
}

// RasterizeTarget is one trajectory or stop row awaiting rasterization.
type RasterizeTarget struct {
	Target   aismodel.Target
	SourceID int64
	Vertices []aismodel.Vertex // for TargetTrajectory
	Polygon  []aismodel.Point  // for TargetStop / TargetArea
}

type rasterResult struct {
	target RasterizeTarget
	zoom   tilecodec.Zoom
	cs     aismodel.CellString
	err    error
}

// RunRasterizer converts a slice of trajectory/stop rows into cellstrings
// at every configured zoom, in batches of Driver.RasterizerBatch rows, each
// batch committed as one transaction.
func (s *Scheduler) RunRasterizer(ctx context.Context, targets []RasterizeTarget) (int, error) {
	mode := raster.Supercover
	if s.Driver.PolygonMode == aisconfig.ModeCenterTest {
		mode = raster.CenterTest
	}

	written := 0
	for _, batch := range chunkTargets(targets, s.Driver.RasterizerBatch) {
		results := s.rasterizeBatch(batch, mode)

		tx, err := s.Store.BeginBatch(ctx, "rasterizer")
		if err != nil {
			return written, fmt.Errorf("begin rasterizer batch: %w", err)
		}
		var batchErr error
		for _, r := range results {
			if r.err != nil {
				monitoring.Logf("rasterize %s source %d zoom %d: %v", r.target.Target, r.target.SourceID, r.zoom, r.err)
				continue
			}
			if err := tx.InsertCellString(r.target.Target, r.target.SourceID, int(r.zoom), r.cs); err != nil {
				batchErr = err
				break
			}
			written++
		}
		if batchErr != nil {
			tx.Rollback()
			return written, fmt.Errorf("rasterizer batch failed: %w", batchErr)
		}
		if err := tx.Commit(len(batch)); err != nil {
			return written, fmt.Errorf("commit rasterizer batch: %w", err)
		}
	}
	return written, nil
}

func (s *Scheduler) rasterizeBatch(batch []RasterizeTarget, mode raster.PolygonMode) []rasterResult {
	type job struct {
		t RasterizeTarget
		z tilecodec.Zoom
	}
	var jobList []job
	for _, t := range batch {
		for _, z := range s.Driver.Zooms {
			jobList = append(jobList, job{t: t, z: tilecodec.Zoom(z)})
		}
	}

	results := make([]rasterResult, len(jobList))
	jobsCh := make(chan int, len(jobList))
	for i := range jobList {
		jobsCh <- i
	}
	close(jobsCh)

	var wg sync.WaitGroup
	workers := s.Driver.MaxWorkers
	if workers > len(jobList) {
		workers = len(jobList)
	}
	if workers < 1 {
		workers = 1
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobsCh {
				j := jobList[i]
				var cs aismodel.CellString
				var err error
				switch j.t.Target {
				case aismodel.TargetTrajectory:
					cs, err = raster.Line(j.t.Vertices, j.z)
				default:
					cs, err = raster.Polygon(j.t.Polygon, j.z, mode)
				}
				results[i] = rasterResult{target: j.t, zoom: j.z, cs: cs, err: err}
			}
		}()
	}
	wg.Wait()
	return results
}

func chunkUint32(items []uint32, size int) [][]uint32 {
	if size < 1 {
		size = 1
	}
	var out [][]uint32
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}

func chunkTargets(items []RasterizeTarget, size int) [][]RasterizeTarget {
	if size < 1 {
		size = 1
	}
	var out [][]RasterizeTarget
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}
