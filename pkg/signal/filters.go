// Package signal provides the 1-D filters shared by lane segmentation and
// profile processing.
package signal

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// GaussianKernel returns a normalised kernel of the given radius.
// Sigma defaults to radius/2 when sigma <= 0.
func GaussianKernel(radius int, sigma float64) []float64 {
	if radius < 0 {
		radius = 0
	}
	if sigma <= 0 {
		sigma = math.Max(float64(radius)/2, 0.5)
	}
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

// Convolve applies kernel centred on each sample. Taps falling outside the
// data are dropped and the remaining weights renormalised, so edges are not
// pulled towards zero.
func Convolve(data, kernel []float64) []float64 {
	out := make([]float64, len(data))
	radius := len(kernel) / 2
	for i := range data {
		var sum, weight float64
		for k, w := range kernel {
			j := i + k - radius
			if j < 0 || j >= len(data) {
				continue
			}
			sum += data[j] * w
			weight += w
		}
		if weight > 0 {
			out[i] = sum / weight
		}
	}
	return out
}

// GaussianSmooth smooths data with a Gaussian whose kernel spans size samples.
// Sizes below 2 return a copy.
func GaussianSmooth(data []float64, size int) []float64 {
	if size < 2 || len(data) == 0 {
		return append([]float64(nil), data...)
	}
	return Convolve(data, GaussianKernel(size/2, 0))
}

// GaussianSmoothRadius smooths with an explicit kernel radius
func GaussianSmoothRadius(data []float64, radius int) []float64 {
	if radius < 1 || len(data) == 0 {
		return append([]float64(nil), data...)
	}
	return Convolve(data, GaussianKernel(radius, 0))
}

// MinFilter is a grayscale erosion with a window of radius samples on each side
func MinFilter(data []float64, radius int) []float64 {
	return windowReduce(data, radius, math.Min)
}

// MaxFilter is a grayscale dilation with a window of radius samples on each side
func MaxFilter(data []float64, radius int) []float64 {
	return windowReduce(data, radius, math.Max)
}

func windowReduce(data []float64, radius int, reduce func(a, b float64) float64) []float64 {
	out := make([]float64, len(data))
	for i := range data {
		lo, hi := i-radius, i+radius
		if lo < 0 {
			lo = 0
		}
		if hi > len(data)-1 {
			hi = len(data) - 1
		}
		v := data[lo]
		for j := lo + 1; j <= hi; j++ {
			v = reduce(v, data[j])
		}
		out[i] = v
	}
	return out
}

// Opening is erosion followed by dilation with the same radius. On a 1-D
// profile it removes peaks narrower than the window and keeps the baseline.
func Opening(data []float64, radius int) []float64 {
	return MaxFilter(MinFilter(data, radius), radius)
}

// MedianFilter replaces each sample with the median of its window
func MedianFilter(data []float64, radius int) []float64 {
	out := make([]float64, len(data))
	window := make([]float64, 0, 2*radius+1)
	for i := range data {
		lo, hi := i-radius, i+radius
		if lo < 0 {
			lo = 0
		}
		if hi > len(data)-1 {
			hi = len(data) - 1
		}
		window = append(window[:0], data[lo:hi+1]...)
		out[i] = median(window)
	}
	return out
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 0 {
		return (values[mid-1] + values[mid]) / 2
	}
	return values[mid]
}

// Normalize scales data so its maximum becomes 1. All-zero or empty input
// is returned as zeros.
func Normalize(data []float64) []float64 {
	out := append([]float64(nil), data...)
	if len(out) == 0 {
		return out
	}
	if max := floats.Max(out); max > 0 {
		floats.Scale(1/max, out)
	}
	return out
}

// ClampNonNegative returns max(0, a[i]-b[i]) elementwise
func ClampNonNegative(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		if d := a[i] - b[i]; d > 0 {
			out[i] = d
		}
	}
	return out
}
