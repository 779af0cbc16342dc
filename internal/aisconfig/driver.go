package aisconfig

import (
	"fmt"
	"runtime"
)

// ZoomLevel is one of the three zooms this module is wired for.
type ZoomLevel int

const (
	Zoom13 ZoomLevel = 13
	Zoom17 ZoomLevel = 17
	Zoom21 ZoomLevel = 21
)

// PolygonMode names the rasterizer's polygon covering strategy, exposed as
// a driver-level configuration option per spec.md §6.
type PolygonMode string

const (
	ModeSupercover PolygonMode = "supercover"
	ModeCenterTest PolygonMode = "center-test"
)

// DriverConfig is the top-level process configuration: database
// connection, worker pool sizing, batch sizes, zoom set, and polygon mode.
// All fields are set at process start (spec.md §6).
type DriverConfig struct {
	DBPath          string
	MaxWorkers      int
	SegmenterBatch  int
	RasterizerBatch int
	Zooms           []ZoomLevel
	PolygonMode     PolygonMode
	AdminListenAddr string
}

// DefaultDriverConfig returns the spec's documented defaults: worker pool
// sized min(cpu_count, 12), segmenter batches of 100, rasterizer batches of
// 5000, the canonical z13+z21 zoom pair, and supercover polygon mode.
func DefaultDriverConfig() DriverConfig {
	workers := runtime.NumCPU()
	if workers > 12 {
		workers = 12
	}
	if workers < 1 {
		workers = 1
	}
	return DriverConfig{
		MaxWorkers:      workers,
		SegmenterBatch:  100,
		RasterizerBatch: 5000,
		Zooms:           []ZoomLevel{Zoom13, Zoom21},
		PolygonMode:     ModeSupercover,
		AdminListenAddr: ":8090",
	}
}

// Validate checks the configuration is runnable. Per spec.md §6 exit codes,
// a missing DBPath is the one condition the driver must treat as exit code 1.
func (c DriverConfig) Validate() error {
	if c.DBPath == "" {
		return ErrNoConnectionString
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("max workers must be >= 1, got %d", c.MaxWorkers)
	}
	if c.SegmenterBatch < 1 || c.RasterizerBatch < 1 {
		return fmt.Errorf("batch sizes must be >= 1")
	}
	if len(c.Zooms) == 0 {
		return fmt.Errorf("at least one zoom level must be configured")
	}
	for _, z := range c.Zooms {
		switch z {
		case Zoom13, Zoom17, Zoom21:
		default:
			return fmt.Errorf("unsupported zoom level %d", z)
		}
	}
	switch c.PolygonMode {
	case ModeSupercover, ModeCenterTest:
	default:
		return fmt.Errorf("unsupported polygon mode %q", c.PolygonMode)
	}
	return nil
}

// ErrNoConnectionString is returned by Validate when DBPath is empty; the
// driver maps this to exit code 1.
var ErrNoConnectionString = fmt.Errorf("no database connection string configured")
