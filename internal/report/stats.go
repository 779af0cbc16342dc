// Package report summarizes segmented trajectories and stops with
// gonum/stat descriptive statistics and renders debug geometry plots with
// gonum/plot, in the same two-library split the teacher uses for its
// lidar grid diagnostics.
package report

import (
	"gonum.org/v1/gonum/stat"

	"github.com/sealane-data/aistrace/internal/aismodel"
	"github.com/sealane-data/aistrace/internal/geodesic"
	"github.com/sealane-data/aistrace/internal/units"
)

// knotsToMPS converts knots to meters per second, the unit units.ConvertSpeed
// expects as its source measurement.
const knotsToMPS = 0.514444

// SpeedIn converts a fleet-wide mean trajectory speed into the requested
// display unit (units.MPS, units.MPH, units.KMPH, or units.KPH), falling
// back to m/s for an unrecognized unit string.
func (fs FleetSummary) SpeedIn(unit string) float64 {
	return units.ConvertSpeed(fs.MeanTrajSpeedKn*knotsToMPS, unit)
}

// Summary holds descriptive statistics over one MMSI's segmentation
// output, used for the debug admin routes and the CLI's end-of-run report.
type Summary struct {
	MMSI uint32

	TrajectoryCount int
	MeanTrajSpeedKn float64
	StdDevTrajSpeed float64

	StopCount        int
	MeanStopDuration float64
	StdDevStopDur    float64
}

// Summarize computes the mean and standard deviation of trajectory speed
// (derived from polyline length over duration) and stop duration for one
// vessel's segmentation result. Inputs with fewer than two samples yield a
// zero-valued stddev (stat.StdDev itself returns NaN for a single sample).
func Summarize(mmsi uint32, trajs []aismodel.Trajectory, stops []aismodel.Stop) Summary {
	s := Summary{MMSI: mmsi, TrajectoryCount: len(trajs), StopCount: len(stops)}

	if len(trajs) > 0 {
		speeds := make([]float64, len(trajs))
		for i, t := range trajs {
			speeds[i] = trajectorySpeedKnots(t)
		}
		s.MeanTrajSpeedKn = stat.Mean(speeds, nil)
		if len(speeds) > 1 {
			s.StdDevTrajSpeed = stat.StdDev(speeds, nil)
		}
	}

	if len(stops) > 0 {
		durations := make([]float64, len(stops))
		for i, st := range stops {
			durations[i] = st.TEnd - st.TStart
		}
		s.MeanStopDuration = stat.Mean(durations, nil)
		if len(durations) > 1 {
			s.StdDevStopDur = stat.StdDev(durations, nil)
		}
	}

	return s
}

// trajectorySpeedKnots returns a trajectory's average speed over ground,
// computed as total geodesic polyline length divided by elapsed time.
func trajectorySpeedKnots(t aismodel.Trajectory) float64 {
	dt := t.TEnd - t.TStart
	if dt <= 0 || len(t.Polyline) < 2 {
		return 0
	}
	var meters float64
	for i := 1; i < len(t.Polyline); i++ {
		a, b := t.Polyline[i-1], t.Polyline[i]
		meters += geodesic.DistanceMeters(a.X, a.Y, b.X, b.Y)
	}
	mps := meters / dt
	return mps / 0.514444
}

// FleetSummary aggregates per-MMSI summaries into run-wide totals, the
// shape the CLI prints after a segmenter pass.
type FleetSummary struct {
	VesselsProcessed  int
	TotalTrajectories int
	TotalStops        int
	MeanTrajSpeedKn   float64
	MeanStopDuration  float64
}

// Aggregate combines per-MMSI summaries, weighting the fleet-wide means by
// each vessel's sample count, so each mean is taken over every trajectory
// (or stop) in the fleet rather than as a flat mean-of-means; vessels with
// more samples therefore weigh more.
func Aggregate(summaries []Summary) FleetSummary {
	var fs FleetSummary
	var trajSpeedWeighted, stopDurWeighted float64

	for _, s := range summaries {
		fs.VesselsProcessed++
		fs.TotalTrajectories += s.TrajectoryCount
		fs.TotalStops += s.StopCount
		trajSpeedWeighted += s.MeanTrajSpeedKn * float64(s.TrajectoryCount)
		stopDurWeighted += s.MeanStopDuration * float64(s.StopCount)
	}

	if fs.TotalTrajectories > 0 {
		fs.MeanTrajSpeedKn = trajSpeedWeighted / float64(fs.TotalTrajectories)
	}
	if fs.TotalStops > 0 {
		fs.MeanStopDuration = stopDurWeighted / float64(fs.TotalStops)
	}
	return fs
}
