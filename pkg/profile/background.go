package profile

import (
	"gelquant/pkg/config"
	"gelquant/pkg/signal"
)

// Background holds the working profile split into baseline and net signal.
// All three slices have the length of the raw profile.
type Background struct {
	// Smoothed is the raw profile after Gaussian smoothing
	Smoothed []float64

	// Baseline is the estimated background under Smoothed
	Baseline []float64

	// Net is max(0, Smoothed - Baseline)
	Net []float64
}

// SubtractBackground smooths raw with a kernel of settings.Smoothing samples
// and removes the baseline chosen by settings.BackgroundSubtractionMethod.
//
// The rolling ball is a 1-D grayscale opening along the lane axis: bands
// narrower than the ball are cut away and the broad floor under them is kept.
// The median window spans BackgroundRollingBallRadius samples in total, so
// each side reaches radius/2.
func SubtractBackground(raw []float64, settings config.GelSettings) Background {
	smoothed := signal.GaussianSmooth(raw, settings.Smoothing)

	var baseline []float64
	switch settings.BackgroundSubtractionMethod {
	case config.NoBackground:
		baseline = make([]float64, len(smoothed))
	case config.Median:
		baseline = signal.MedianFilter(smoothed, settings.BackgroundRollingBallRadius/2)
		baseline = signal.GaussianSmooth(baseline, settings.BackgroundSmoothing)
	default:
		baseline = signal.Opening(smoothed, settings.BackgroundRollingBallRadius)
		baseline = signal.GaussianSmooth(baseline, settings.BackgroundSmoothing)
	}

	return Background{
		Smoothed: smoothed,
		Baseline: baseline,
		Net:      signal.ClampNonNegative(smoothed, baseline),
	}
}
