// Package smear measures continuous degradation signal that the fitted band
// model does not explain.
package smear

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"gelquant/internal/models"
	"gelquant/pkg/config"
	"gelquant/pkg/signal"
)

const (
	histogramBins   = 64
	lowBinFraction  = 0.25 // the noise mode is searched in the lowest quarter of bins
	noiseMultiplier = 2.5
)

// Params controls region extraction
type Params struct {
	// NoiseTolerance is the fixed threshold used by config.ToleranceFloor
	NoiseTolerance float64

	// Floor selects the threshold derivation
	Floor config.NoiseFloorMode

	// MinWidth is exclusive: a run must be wider than this
	MinWidth int

	// Significance is how far the mean residual of a run must rise above
	// the threshold
	Significance float64
}

// ParamsFrom derives smear parameters from settings
func ParamsFrom(s config.GelSettings) Params {
	return Params{
		NoiseTolerance: s.NoiseTolerance,
		Floor:          s.NoiseFloor,
		MinWidth:       2 * s.MinPeakDistance,
		Significance:   s.ProminenceIntensity(),
	}
}

// Residual returns max(0, net - model)
func Residual(net, model []float64) []float64 {
	if len(model) != len(net) {
		padded := make([]float64, len(net))
		copy(padded, model)
		model = padded
	}
	return signal.ClampNonNegative(net, model)
}

// Threshold returns the residual level above which signal counts as smear
func Threshold(residual []float64, p Params) float64 {
	if p.Floor != config.HistogramFloor {
		return p.NoiseTolerance
	}
	return histogramFloor(residual)
}

// histogramFloor takes the most populated of the lowest quarter of a
// 64-bin residual histogram as the noise level and scales it by 2.5.
func histogramFloor(residual []float64) float64 {
	if len(residual) == 0 {
		return 0
	}
	top := floats.Max(residual)
	if top <= 0 {
		return 0
	}

	dividers := make([]float64, histogramBins+1)
	floats.Span(dividers, 0, top)
	// the top divider must be strictly greater than the largest value
	dividers[histogramBins] = top * (1 + 1e-9)
	sorted := append([]float64(nil), residual...)
	sort.Float64s(sorted)
	counts := stat.Histogram(nil, dividers, sorted, nil)

	low := int(histogramBins * lowBinFraction)
	mode := 0
	for k := 1; k < low; k++ {
		if counts[k] > counts[mode] {
			mode = k
		}
	}
	width := top / histogramBins
	return (float64(mode) + 0.5) * width * noiseMultiplier
}

// Analyze extracts smear regions from the residual of net over model. Runs
// above the threshold that are wider than MinWidth and whose mean clears
// threshold+Significance become regions, numbered from 0.
func Analyze(net, model []float64, p Params) []models.SmearRegion {
	residual := Residual(net, model)
	threshold := Threshold(residual, p)

	var regions []models.SmearRegion
	flush := func(start, end int) {
		width := end - start + 1
		if width <= p.MinWidth {
			return
		}
		run := residual[start : end+1]
		volume := floats.Sum(run)
		if volume/float64(width) <= threshold+p.Significance {
			return
		}
		regions = append(regions, models.SmearRegion{
			ID:     len(regions),
			YStart: start,
			YEnd:   end,
			Volume: volume,
		})
	}

	start := -1
	for i, r := range residual {
		switch {
		case r > threshold && start < 0:
			start = i
		case r <= threshold && start >= 0:
			flush(start, i-1)
			start = -1
		}
	}
	if start >= 0 {
		flush(start, len(residual)-1)
	}
	return regions
}
