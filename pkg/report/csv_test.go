package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gelquant/internal/models"
)

func lanes() []models.LaneData {
	return []models.LaneData{
		{
			Index:             0,
			Rect:              models.Rect{X: 4, Width: 20, Height: 100},
			TotalLaneVolume:   1000,
			MainBandVolume:    750,
			DegradationVolume: 250,
			IntegrityScore:    75,
			Bands: []models.Band{
				{ID: models.BandID{Kind: models.Detected, Lane: 0, Seq: 0}, YPeak: 30, YStart: 25, YEnd: 35, Volume: 750, RelativeMobility: 0.3, IsMainBand: true},
				{ID: models.BandID{Kind: models.Manual, Lane: 0, Seq: 2}, YPeak: 60, YStart: 58, YEnd: 62, Volume: 12.346, RelativeMobility: 0.6, IsExcluded: true},
			},
			Smears: []models.SmearRegion{{ID: 0, YStart: 70, YEnd: 95, Volume: 250}},
		},
		{Index: 1, Rect: models.Rect{X: 30, Width: 20, Height: 100}},
	}
}

func TestWriteLanes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLanes(&buf, lanes()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, laneHeader, rows[0])
	assert.Equal(t, []string{"1", "4", "20", "2", "1", "1000.00", "750.00", "250.00", "75.00"}, rows[1])
	assert.Equal(t, "0.00", rows[2][8])
}

func TestWriteBands(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBands(&buf, lanes()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "L0-D0", "detected", "30", "25", "35", "750.00", "0.3000", "true", "false"}, rows[1])
	assert.Equal(t, []string{"1", "L0-M2", "manual", "60", "58", "62", "12.35", "0.6000", "false", "true"}, rows[2])
}

func TestSaveCSV(t *testing.T) {
	dir := t.TempDir()
	lp, bp := filepath.Join(dir, "lanes.csv"), filepath.Join(dir, "bands.csv")
	require.NoError(t, SaveCSV(lp, bp, lanes()))

	data, err := os.ReadFile(bp)
	require.NoError(t, err)
	assert.Contains(t, string(data), "L0-M2")

	assert.Error(t, SaveCSV(filepath.Join(dir, "missing", "x.csv"), bp, lanes()))
}
