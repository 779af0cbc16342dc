// Package aisconfig carries the tunable thresholds for the segmenter and
// the top-level driver configuration, loaded from a JSON file the same way
// the teacher's tuning config is loaded: validated extension, size cap,
// then unmarshalled with defaults for anything omitted.
package aisconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultThresholdsPath is the conventional location for a thresholds
// override file; every field is optional and falls back to the spec's
// documented default.
const DefaultThresholdsPath = "config/thresholds.defaults.json"

// Thresholds holds every tunable constant from spec.md §4.1's table.
// Pointer fields distinguish "not set" (use default) from an explicit
// override, mirroring the teacher's TuningConfig.
type Thresholds struct {
	VStopKnots       *float64 `json:"v_stop_knots,omitempty"`
	DStopMeters      *float64 `json:"d_stop_meters,omitempty"`
	TStopSeconds     *float64 `json:"t_stop_seconds,omitempty"`
	NStop            *int     `json:"n_stop,omitempty"`
	DeltaTStopSecond *float64 `json:"delta_t_stop_seconds,omitempty"`
	DMergeMeters     *float64 `json:"d_merge_meters,omitempty"`
	TMergeSeconds    *float64 `json:"t_merge_seconds,omitempty"`
	AMbrSqMeters     *float64 `json:"a_mbr_sq_meters,omitempty"`
	VTrajKnots       *float64 `json:"v_traj_knots,omitempty"`
	TGapSeconds      *float64 `json:"t_gap_seconds,omitempty"`
	NTraj            *int     `json:"n_traj,omitempty"`
}

// EmptyThresholds returns a Thresholds with every field nil; all Get*
// accessors then return the spec defaults.
func EmptyThresholds() *Thresholds { return &Thresholds{} }

// LoadThresholds loads threshold overrides from a JSON file. Fields absent
// from the file keep their spec default, so partial override files are
// safe.
func LoadThresholds(path string) (*Thresholds, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("thresholds file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat thresholds file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("thresholds file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read thresholds file: %w", err)
	}

	cfg := EmptyThresholds()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse thresholds JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	return cfg, nil
}

// Validate rejects non-positive values for fields that must be positive.
func (c *Thresholds) Validate() error {
	positive := map[string]*float64{
		"v_stop_knots":          c.VStopKnots,
		"d_stop_meters":         c.DStopMeters,
		"t_stop_seconds":        c.TStopSeconds,
		"delta_t_stop_seconds":  c.DeltaTStopSecond,
		"d_merge_meters":        c.DMergeMeters,
		"t_merge_seconds":       c.TMergeSeconds,
		"a_mbr_sq_meters":       c.AMbrSqMeters,
		"v_traj_knots":          c.VTrajKnots,
		"t_gap_seconds":         c.TGapSeconds,
	}
	for name, v := range positive {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
	}
	if c.NStop != nil && *c.NStop < 1 {
		return fmt.Errorf("n_stop must be >= 1, got %d", *c.NStop)
	}
	if c.NTraj != nil && *c.NTraj < 1 {
		return fmt.Errorf("n_traj must be >= 1, got %d", *c.NTraj)
	}
	return nil
}

// GetVStopKnots returns v_stop, or its spec default of 1.0 kn.
func (c *Thresholds) GetVStopKnots() float64 { return orDefault(c.VStopKnots, 1.0) }

// GetDStopMeters returns d_stop, or its spec default of 250 m.
func (c *Thresholds) GetDStopMeters() float64 { return orDefault(c.DStopMeters, 250) }

// GetTStopSeconds returns t_stop, or its spec default of 5400 s.
func (c *Thresholds) GetTStopSeconds() float64 { return orDefault(c.TStopSeconds, 5400) }

// GetNStop returns n_stop, or its spec default of 10.
func (c *Thresholds) GetNStop() int { return orDefaultInt(c.NStop, 10) }

// GetDeltaTStopSeconds returns Δt_stop, or its spec default of 5400 s.
func (c *Thresholds) GetDeltaTStopSeconds() float64 { return orDefault(c.DeltaTStopSecond, 5400) }

// GetDMergeMeters returns d_merge, or its spec default of 250 m.
func (c *Thresholds) GetDMergeMeters() float64 { return orDefault(c.DMergeMeters, 250) }

// GetTMergeSeconds returns t_merge, or its spec default of 3600 s.
func (c *Thresholds) GetTMergeSeconds() float64 { return orDefault(c.TMergeSeconds, 3600) }

// GetAMbrSqMeters returns A_mbr, or its spec default of 5e6 m^2.
func (c *Thresholds) GetAMbrSqMeters() float64 { return orDefault(c.AMbrSqMeters, 5e6) }

// GetVTrajKnots returns v_traj, or its spec default of 50 kn.
func (c *Thresholds) GetVTrajKnots() float64 { return orDefault(c.VTrajKnots, 50) }

// GetTGapSeconds returns t_gap, or its spec default of 3600 s.
func (c *Thresholds) GetTGapSeconds() float64 { return orDefault(c.TGapSeconds, 3600) }

// GetNTraj returns n_traj, or its spec default of 10.
func (c *Thresholds) GetNTraj() int { return orDefaultInt(c.NTraj, 10) }

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func orDefaultInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
