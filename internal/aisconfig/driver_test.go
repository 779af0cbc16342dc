package aisconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDriverConfig_IsRunnable(t *testing.T) {
	cfg := DefaultDriverConfig()
	cfg.DBPath = "aistrace.db"
	require.NoError(t, cfg.Validate())
	assert.GreaterOrEqual(t, cfg.MaxWorkers, 1)
	assert.LessOrEqual(t, cfg.MaxWorkers, 12)
	assert.Equal(t, []ZoomLevel{Zoom13, Zoom21}, cfg.Zooms)
	assert.Equal(t, ModeSupercover, cfg.PolygonMode)
}

func TestValidate_MissingDBPathReturnsErrNoConnectionString(t *testing.T) {
	cfg := DefaultDriverConfig()
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrNoConnectionString)
}

func TestValidate_RejectsUnsupportedZoom(t *testing.T) {
	cfg := DefaultDriverConfig()
	cfg.DBPath = "aistrace.db"
	cfg.Zooms = []ZoomLevel{14}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnsupportedPolygonMode(t *testing.T) {
	cfg := DefaultDriverConfig()
	cfg.DBPath = "aistrace.db"
	cfg.PolygonMode = "nearest"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveBatchSizes(t *testing.T) {
	cfg := DefaultDriverConfig()
	cfg.DBPath = "aistrace.db"
	cfg.SegmenterBatch = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsEmptyZoomSet(t *testing.T) {
	cfg := DefaultDriverConfig()
	cfg.DBPath = "aistrace.db"
	cfg.Zooms = nil
	assert.Error(t, cfg.Validate())
}
