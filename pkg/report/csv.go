// Package report exports lane measurements as CSV tables.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gelquant/internal/models"
)

var laneHeader = []string{
	"lane", "x", "width", "bands", "smears",
	"total_volume", "main_band_volume", "degradation_volume", "integrity_score",
}

var bandHeader = []string{
	"lane", "band", "kind", "y_peak", "y_start", "y_end",
	"volume", "relative_mobility", "main", "excluded",
}

// WriteLanes writes one summary row per lane
func WriteLanes(w io.Writer, lanes []models.LaneData) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(laneHeader); err != nil {
		return err
	}
	for _, l := range lanes {
		row := []string{
			strconv.Itoa(l.Index + 1),
			strconv.Itoa(l.Rect.X),
			strconv.Itoa(l.Rect.Width),
			strconv.Itoa(len(l.Bands)),
			strconv.Itoa(len(l.Smears)),
			formatFloat(l.TotalLaneVolume),
			formatFloat(l.MainBandVolume),
			formatFloat(l.DegradationVolume),
			formatFloat(l.IntegrityScore),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBands writes one row per band, excluded bands included
func WriteBands(w io.Writer, lanes []models.LaneData) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(bandHeader); err != nil {
		return err
	}
	for _, l := range lanes {
		for _, b := range l.Bands {
			row := []string{
				strconv.Itoa(l.Index + 1),
				b.ID.String(),
				b.ID.Kind.String(),
				strconv.Itoa(b.YPeak),
				strconv.Itoa(b.YStart),
				strconv.Itoa(b.YEnd),
				formatFloat(b.Volume),
				strconv.FormatFloat(b.RelativeMobility, 'f', 4, 64),
				strconv.FormatBool(b.IsMainBand),
				strconv.FormatBool(b.IsExcluded),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the lane and band tables to lanesPath and bandsPath
func SaveCSV(lanesPath, bandsPath string, lanes []models.LaneData) error {
	if err := writeFile(lanesPath, lanes, WriteLanes); err != nil {
		return err
	}
	return writeFile(bandsPath, lanes, WriteBands)
}

func writeFile(path string, lanes []models.LaneData, write func(io.Writer, []models.LaneData) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f, lanes); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
