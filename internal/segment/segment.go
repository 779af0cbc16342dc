// Package segment implements the per-vessel sweep that partitions a
// time-ordered stream of position reports into trajectories (continuous
// transit) and stops (stationary episodes), per the segmentation policy:
// classify each point against the previous one, merge adjacent stop
// candidates, validate stops against shape/duration/count thresholds, and
// repair rejected stops back into the surrounding trajectories before
// trajectories are finalized.
//
// Segment is a pure function: no I/O, no clock, no globals. The caller
// (internal/scheduler) owns fetching points per MMSI and persisting the
// result, mirroring how the teacher keeps its clustering math free of
// database and network concerns.
package segment

import (
	"github.com/sealane-data/aistrace/internal/aisconfig"
	"github.com/sealane-data/aistrace/internal/aismodel"
	"github.com/sealane-data/aistrace/internal/geodesic"
)

// Result is one MMSI's segmentation output.
type Result struct {
	Trajectories []aismodel.Trajectory
	Stops        []aismodel.Stop
}

// Segment partitions points (which must already be sorted ascending by T
// and share a single MMSI) into trajectories and stops under cfg's
// thresholds.
func Segment(points []aismodel.AisPoint, cfg *aisconfig.Thresholds) Result {
	if len(points) == 0 {
		return Result{}
	}
	if cfg == nil {
		cfg = aisconfig.EmptyThresholds()
	}
	mmsi := points[0].MMSI

	candTrajs, candStops := sweep(points, cfg)
	merged := mergeStops(candStops, cfg.GetDMergeMeters(), cfg.GetTMergeSeconds())
	validStops, rejected := validateStops(mmsi, merged, cfg)
	candTrajs = repairStops(candTrajs, rejected, cfg)
	trajs := emitTrajectories(mmsi, candTrajs, cfg)

	return Result{Trajectories: trajs, Stops: validStops}
}

// sweep runs the single left-to-right classification pass described in
// the segmentation policy, producing ordered candidate trajectory and
// stop point-runs. Points that are exact-duplicate timestamps or implied-
// speed outliers are silently dropped, never appearing in either output.
func sweep(points []aismodel.AisPoint, cfg *aisconfig.Thresholds) (candTrajs, candStops [][]aismodel.AisPoint) {
	vStop := cfg.GetVStopKnots()
	dStop := cfg.GetDStopMeters()
	tStop := cfg.GetTStopSeconds()
	vTraj := cfg.GetVTrajKnots()
	tGap := cfg.GetTGapSeconds()

	var curTraj, curStop []aismodel.AisPoint
	var prev aismodel.AisPoint
	hasPrev := false

	flushTraj := func() {
		if len(curTraj) > 1 {
			candTrajs = append(candTrajs, curTraj)
			curTraj = nil
		}
	}
	flushStop := func() {
		if len(curStop) > 1 {
			candStops = append(candStops, curStop)
			curStop = nil
		}
	}

	for _, p := range points {
		if !hasPrev {
			if p.SOG != nil && *p.SOG < vStop {
				curStop = append(curStop, p)
			} else {
				curTraj = append(curTraj, p)
			}
			prev = p
			hasPrev = true
			continue
		}

		if p.T == prev.T {
			// duplicate timestamp: discard, prev unchanged
			continue
		}

		dt := p.T - prev.T
		dd := geodesic.DistanceMeters(prev.X, prev.Y, p.X, p.Y)
		vHat := impliedSpeedKnots(dd, dt)
		v := vHat
		if p.SOG != nil {
			v = *p.SOG
		}

		if v < vStop && dt < tStop && dd < dStop {
			curStop = append(curStop, p)
			flushTraj()
			prev = p
			continue
		}

		outlier := vHat >= vTraj
		switch {
		case outlier:
			// dropped; cur_traj untouched
		case dt >= tGap:
			flushTraj()
			curTraj = []aismodel.AisPoint{p}
		default:
			curTraj = append(curTraj, p)
		}
		flushStop()

		if outlier {
			continue
		}
		prev = p
	}

	flushTraj()
	flushStop()
	return candTrajs, candStops
}

// impliedSpeedKnots returns the implied speed over ground between two
// points given the great-ellipsoid distance and elapsed time.
func impliedSpeedKnots(distMeters, dtSeconds float64) float64 {
	if dtSeconds <= 0 {
		return 0
	}
	const metersPerSecondToKnots = 1 / 0.514444
	return (distMeters / dtSeconds) * metersPerSecondToKnots
}

// mergeStops combines consecutive candidate stops whose centroids lie
// within dMerge meters and whose time gap is under tMerge seconds, in a
// single left-to-right pass.
func mergeStops(candStops [][]aismodel.AisPoint, dMerge, tMerge float64) [][]aismodel.AisPoint {
	if len(candStops) == 0 {
		return nil
	}
	merged := make([][]aismodel.AisPoint, 0, len(candStops))
	merged = append(merged, append([]aismodel.AisPoint{}, candStops[0]...))

	for _, cand := range candStops[1:] {
		last := merged[len(merged)-1]
		dt := cand[0].T - last[len(last)-1].T
		cx1, cy1 := centroid(last)
		cx2, cy2 := centroid(cand)
		dd := geodesic.DistanceMeters(cx1, cy1, cx2, cy2)
		if dt < tMerge && dd < dMerge {
			merged[len(merged)-1] = append(last, cand...)
		} else {
			merged = append(merged, append([]aismodel.AisPoint{}, cand...))
		}
	}
	return merged
}

func centroid(points []aismodel.AisPoint) (x, y float64) {
	for _, p := range points {
		x += p.X
		y += p.Y
	}
	n := float64(len(points))
	return x / n, y / n
}

// validateStops tests each merged candidate against the count, duration,
// simple-hull, and MBR-area thresholds, returning the stops that pass as
// finished Stop values and the point-runs that fail for repair.
func validateStops(mmsi uint32, merged [][]aismodel.AisPoint, cfg *aisconfig.Thresholds) (valid []aismodel.Stop, rejected [][]aismodel.AisPoint) {
	nStop := cfg.GetNStop()
	deltaTStop := cfg.GetDeltaTStopSeconds()
	aMbr := cfg.GetAMbrSqMeters()

	for _, m := range merged {
		tStart, tEnd := m[0].T, m[len(m)-1].T
		if len(m) < nStop || (tEnd-tStart) < deltaTStop {
			rejected = append(rejected, m)
			continue
		}

		ring, ok := convexHull(toPoints(m))
		if !ok {
			rejected = append(rejected, m)
			continue
		}
		if mbrAreaSqMeters(toPoints(m)) > aMbr {
			rejected = append(rejected, m)
			continue
		}

		valid = append(valid, aismodel.Stop{
			MMSI:    mmsi,
			TStart:  tStart,
			TEnd:    tEnd,
			Polygon: ring,
		})
	}
	return valid, rejected
}

func toPoints(points []aismodel.AisPoint) []aismodel.Point {
	out := make([]aismodel.Point, len(points))
	for i, p := range points {
		out[i] = aismodel.Point{X: p.X, Y: p.Y}
	}
	return out
}

func toVertices(points []aismodel.AisPoint) []aismodel.Vertex {
	out := make([]aismodel.Vertex, len(points))
	for i, p := range points {
		out[i] = aismodel.Vertex{X: p.X, Y: p.Y, T: p.T}
	}
	return out
}

// canConnect reports whether a trajectory may validly bridge from point a
// to point b: a must precede b, within tGap seconds, at an implied speed
// under vTraj.
func canConnect(a, b aismodel.AisPoint, tGap, vTraj float64) bool {
	dt := b.T - a.T
	if dt <= 0 {
		return false
	}
	dd := geodesic.DistanceMeters(a.X, a.Y, b.X, b.Y)
	return dt <= tGap && impliedSpeedKnots(dd, dt) <= vTraj
}

// repairStops attempts to splice each rejected stop candidate back into
// the surrounding trajectories under four cases: bridge (joins two
// trajectories through the rejected run), append (extends a preceding
// trajectory), prepend (extends a following trajectory), or orphan (the
// run becomes its own trajectory if long enough, else it is dropped).
func repairStops(trajs, rejected [][]aismodel.AisPoint, cfg *aisconfig.Thresholds) [][]aismodel.AisPoint {
	tGap := cfg.GetTGapSeconds()
	vTraj := cfg.GetVTrajKnots()
	nTraj := cfg.GetNTraj()

	for _, s := range rejected {
		if !internallyConnected(s, tGap, vTraj) {
			continue
		}

		aIdx, bIdx := -1, -1
		for i, t := range trajs {
			if len(t) == 0 {
				continue
			}
			if aIdx == -1 && canConnect(t[len(t)-1], s[0], tGap, vTraj) {
				aIdx = i
			}
		}
		for i, t := range trajs {
			if len(t) == 0 {
				continue
			}
			if canConnect(s[len(s)-1], t[0], tGap, vTraj) {
				bIdx = i
				break
			}
		}

		switch {
		case aIdx != -1 && bIdx != -1 && aIdx != bIdx:
			bridged := append(append([]aismodel.AisPoint{}, trajs[aIdx]...), s...)
			bridged = append(bridged, trajs[bIdx]...)
			lo, hi := aIdx, bIdx
			if lo > hi {
				lo, hi = hi, lo
			}
			trajs[lo] = bridged
			trajs = append(trajs[:hi], trajs[hi+1:]...)
		case aIdx != -1:
			trajs[aIdx] = append(trajs[aIdx], s...)
		case bIdx != -1:
			trajs[bIdx] = append(append([]aismodel.AisPoint{}, s...), trajs[bIdx]...)
		default:
			if len(s) >= nTraj {
				trajs = append(trajs, s)
			}
		}
	}
	return trajs
}

func internallyConnected(run []aismodel.AisPoint, tGap, vTraj float64) bool {
	for i := 0; i+1 < len(run); i++ {
		if !canConnect(run[i], run[i+1], tGap, vTraj) {
			return false
		}
	}
	return true
}

// emitTrajectories finalizes candidate trajectories that meet the minimum
// point count and span a non-zero time interval.
func emitTrajectories(mmsi uint32, trajs [][]aismodel.AisPoint, cfg *aisconfig.Thresholds) []aismodel.Trajectory {
	nTraj := cfg.GetNTraj()
	var out []aismodel.Trajectory
	for _, t := range trajs {
		if len(t) < nTraj {
			continue
		}
		tStart, tEnd := t[0].T, t[len(t)-1].T
		if tEnd <= tStart {
			continue
		}
		out = append(out, aismodel.Trajectory{
			MMSI:     mmsi,
			TStart:   tStart,
			TEnd:     tEnd,
			Polyline: toVertices(t),
		})
	}
	return out
}
