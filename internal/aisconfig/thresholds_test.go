package aisconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyThresholds_AccessorsReturnSpecDefaults(t *testing.T) {
	c := EmptyThresholds()
	assert.Equal(t, 1.0, c.GetVStopKnots())
	assert.Equal(t, 250.0, c.GetDStopMeters())
	assert.Equal(t, 5400.0, c.GetTStopSeconds())
	assert.Equal(t, 10, c.GetNStop())
	assert.Equal(t, 5e6, c.GetAMbrSqMeters())
	assert.Equal(t, 50.0, c.GetVTrajKnots())
	assert.Equal(t, 10, c.GetNTraj())
}

func TestLoadThresholds_PartialOverrideKeepsOtherDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v_stop_knots": 2.5, "n_stop": 20}`), 0o644))

	cfg, err := LoadThresholds(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.GetVStopKnots())
	assert.Equal(t, 20, cfg.GetNStop())
	assert.Equal(t, 250.0, cfg.GetDStopMeters(), "untouched field should keep its spec default")
}

func TestLoadThresholds_RejectsNonJSONExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.txt")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	_, err := LoadThresholds(path)
	assert.Error(t, err)
}

func TestLoadThresholds_RejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.json")
	big := make([]byte, 2*1024*1024)
	for i := range big {
		big[i] = ' '
	}
	require.NoError(t, os.WriteFile(path, big, 0o644))

	_, err := LoadThresholds(path)
	assert.Error(t, err)
}

func TestLoadThresholds_RejectsNonPositiveOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v_stop_knots": -1}`), 0o644))

	_, err := LoadThresholds(path)
	assert.Error(t, err)
}

func TestLoadThresholds_RejectsMissingFile(t *testing.T) {
	_, err := LoadThresholds(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
