package visualization

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"gelquant/internal/models"
)

var (
	rawPlotColor        = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	backgroundPlotColor = color.RGBA{R: 230, G: 120, B: 0, A: 255}
	netPlotColor        = color.RGBA{R: 0, G: 90, B: 200, A: 255}
	modelPlotColor      = color.RGBA{R: 220, G: 30, B: 30, A: 255}
)

// ProfilePlot builds the density plot of one lane: net profile and fitted
// model, plus the smoothed profile and its baseline when showBackground is
// set. The x axis is the row within the lane.
func ProfilePlot(lane models.LaneData, showBackground bool) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Lane %d - Integrity %.1f%%", lane.Index+1, lane.IntegrityScore)
	p.X.Label.Text = "Row"
	p.Y.Label.Text = "Intensity"

	type series struct {
		name   string
		data   []float64
		color  color.Color
		dashed bool
	}
	all := []series{}
	if showBackground {
		all = append(all,
			series{"Smoothed", lane.SmoothedProfile, rawPlotColor, false},
			series{"Background", lane.BackgroundProfile, backgroundPlotColor, true},
		)
	}
	all = append(all,
		series{"Net", lane.NetProfile, netPlotColor, false},
		series{"Model", lane.ModelProfile, modelPlotColor, true},
	)

	for _, s := range all {
		if len(s.data) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.data))
		for i, v := range s.data {
			pts[i] = plotter.XY{X: float64(i), Y: v}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = s.color
		line.Width = vg.Points(1)
		if s.dashed {
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		}
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	if len(lane.Bands) > 0 {
		pts := make(plotter.XYs, 0, len(lane.Bands))
		for _, b := range lane.Bands {
			if b.YPeak < len(lane.NetProfile) {
				pts = append(pts, plotter.XY{X: float64(b.YPeak), Y: lane.NetProfile[b.YPeak]})
			}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = modelPlotColor
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
		p.Legend.Add("Bands", sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// SaveProfilePlots writes lane_NN_profile.png for every lane into outputDir
func SaveProfilePlots(lanes []models.LaneData, showBackground bool, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	for _, lane := range lanes {
		p, err := ProfilePlot(lane, showBackground)
		if err != nil {
			return fmt.Errorf("failed to plot lane %d: %w", lane.Index, err)
		}
		file := filepath.Join(outputDir, fmt.Sprintf("lane_%02d_profile.png", lane.Index))
		if err := p.Save(10*vg.Inch, 4*vg.Inch, file); err != nil {
			return fmt.Errorf("failed to save plot %s: %w", file, err)
		}
	}
	return nil
}
