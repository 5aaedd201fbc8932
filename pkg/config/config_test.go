package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"gelquant/internal/models"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), cfg.Settings)
	assert.GreaterOrEqual(t, cfg.Processing.NumCores, 1)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "gelquant.yaml")

	cfg := DefaultConfig()
	cfg.Settings.BackgroundSubtractionMethod = Median
	cfg.Settings.NoiseFloor = HistogramFloor
	cfg.Settings.NumLanes = 12
	require.NoError(t, SaveConfig(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backgroundSubtractionMethod: median")
	assert.Contains(t, string(data), "noiseFloor: histogram")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Settings, loaded.Settings)
}

func TestPartialConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("settings:\n  numLanes: 4\n  laneMargin: 80\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Settings.NumLanes)
	assert.Equal(t, 50.0, cfg.Settings.LaneMargin, "margin is clamped")
	assert.Equal(t, RollingBall, cfg.Settings.BackgroundSubtractionMethod)
	assert.Equal(t, 10, cfg.Settings.MinPeakDistance)
}

func TestUnknownBackgroundMethodFails(t *testing.T) {
	var s GelSettings
	err := yaml.Unmarshal([]byte("backgroundSubtractionMethod: tophat\n"), &s)
	assert.Error(t, err)
}

func TestNormalizedClampsRanges(t *testing.T) {
	s := GelSettings{NumLanes: 0, LaneDetectionSensitivity: 9, ROILeft: -5, ROIRight: 140}.Normalized()
	assert.Equal(t, 1, s.NumLanes)
	assert.Equal(t, 2.0, s.LaneDetectionSensitivity)
	assert.Equal(t, 0.0, s.ROILeft)
	assert.Equal(t, 100.0, s.ROIRight)
	assert.Equal(t, 2.0, s.BandBoundarySigma)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	doc := `
excluded:
  - {kind: detected, lane: 0, seq: 2}
mainBand:
  - lane: 1
    band: {kind: manual, lane: 1, seq: 0}
userBands:
  - {lane: 1, seq: 0, yPeak: 40, yStart: 35, yEnd: 45}
adjustments:
  - band: {kind: detected, lane: 0, seq: 1}
    yStart: 10
    yEnd: 20
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	o, err := LoadOverrides(path)
	require.NoError(t, err)

	assert.True(t, o.ExcludedBandIDs[models.BandID{Kind: models.Detected, Lane: 0, Seq: 2}])
	assert.Equal(t, models.BandID{Kind: models.Manual, Lane: 1, Seq: 0}, o.MainBandOverride[1])
	require.Len(t, o.UserBands[1], 1)
	assert.True(t, o.UserBands[1][0].IsManual)
	assert.Equal(t, models.BandWindow{YStart: 10, YEnd: 20},
		o.BandAdjustments[models.BandID{Kind: models.Detected, Lane: 0, Seq: 1}])
}

func TestLoadOverridesRejectsUnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("excluded:\n  - {kind: ghost, lane: 0, seq: 0}\n"), 0644))
	_, err := LoadOverrides(path)
	assert.Error(t, err)
}

func TestSaveOverridesRoundTrip(t *testing.T) {
	o := models.NewManualOverrides()
	o.ExcludedBandIDs[models.BandID{Kind: models.Detected, Lane: 2, Seq: 1}] = true
	o.ExcludedBandIDs[models.BandID{Kind: models.Manual, Lane: 0, Seq: 0}] = true
	o.MainBandOverride[2] = models.BandID{Kind: models.Detected, Lane: 2, Seq: 0}
	o.UserBands[0] = []models.Band{{
		ID:        models.BandID{Kind: models.Manual, Lane: 0, Seq: 0},
		LaneIndex: 0,
		YPeak:     30,
		YStart:    25,
		YEnd:      35,
		IsManual:  true,
	}}
	o.BandAdjustments[models.BandID{Kind: models.Detected, Lane: 1, Seq: 3}] = models.BandWindow{YStart: 4, YEnd: 9}

	path := filepath.Join(t.TempDir(), "edits", "overrides.yaml")
	require.NoError(t, SaveOverrides(o, path))

	loaded, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, o, loaded)

	// entries are written in a stable order
	f := NewOverridesFile(o)
	require.Len(t, f.Excluded, 2)
	assert.Equal(t, BandRef{Kind: "manual", Lane: 0, Seq: 0}, f.Excluded[0])
	assert.Equal(t, BandRef{Kind: "detected", Lane: 2, Seq: 1}, f.Excluded[1])
}
