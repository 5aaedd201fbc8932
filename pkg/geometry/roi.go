package geometry

import (
	"math"

	"gelquant/internal/models"
	"gelquant/pkg/gelimage"
)

const (
	roiSamples         = 200  // target samples per image side
	roiThresholdFactor = 0.8  // Otsu threshold is lowered to keep faint bands
	roiPadding         = 0.03 // fraction of the dimension added on each side
	roiMinRowFraction  = 0.01 // fraction of samples that must clear the threshold
)

// OtsuThreshold returns the bin that maximises the between-class variance
// of a 256-bin histogram. Pixels above the returned bin are foreground.
//
// When a range of splits share the maximum (two clean modes with nothing in
// between), the middle of that range is returned so the threshold sits
// between the modes rather than on one of them.
func OtsuThreshold(hist [256]float64) int {
	var total, sumAll float64
	for i, h := range hist {
		total += h
		sumAll += float64(i) * h
	}
	if total == 0 {
		return 0
	}

	var weightB, sumB float64
	best := -1.0
	first, last := 0, 0
	for t := 0; t < 256; t++ {
		weightB += hist[t]
		sumB += float64(t) * hist[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}

		meanB := sumB / weightB
		meanF := (sumAll - sumB) / weightF
		between := weightB * weightF * (meanB - meanF) * (meanB - meanF)

		tol := 1e-9 * math.Abs(best)
		switch {
		case between > best+tol:
			best, first, last = between, t, t
		case math.Abs(between-best) <= tol:
			last = t
		}
	}
	return (first + last) / 2
}

// AutoDetectROI finds the bounding box of the gel content and returns it as
// crop margins in percent of the full image. The threshold comes from Otsu's
// method on a sparse histogram; rows are scanned first and columns are then
// scanned only within the rows that were kept.
func AutoDetectROI(img *gelimage.ImageBuffer, invert bool) models.ROI {
	w, h := img.Width, img.Height
	if w == 0 || h == 0 {
		return models.ROI{}
	}

	step := min(w, h) / roiSamples
	if step < 1 {
		step = 1
	}

	var hist [256]float64
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			hist[bin(img.Intensity(x, y, invert))]++
		}
	}
	threshold := float64(OtsuThreshold(hist)) * roiThresholdFactor

	hits := func(x0, x1, y0, y1 int, horizontal bool) bool {
		count, n := 0, 0
		if horizontal {
			for x := x0; x < x1; x += step {
				if img.Intensity(x, y0, invert) > threshold {
					count++
				}
				n++
			}
		} else {
			for y := y0; y < y1; y += step {
				if img.Intensity(x0, y, invert) > threshold {
					count++
				}
				n++
			}
		}
		need := int(float64(n) * roiMinRowFraction)
		if need < 1 {
			need = 1
		}
		return count >= need
	}

	top, bottom := -1, -1
	for y := 0; y < h; y += step {
		if hits(0, w, y, y+1, true) {
			if top < 0 {
				top = y
			}
			bottom = y
		}
	}
	if top < 0 {
		return models.ROI{}
	}

	left, right := -1, -1
	for x := 0; x < w; x += step {
		if hits(x, x+1, top, bottom+1, false) {
			if left < 0 {
				left = x
			}
			right = x
		}
	}
	if left < 0 {
		return models.ROI{}
	}

	padX := float64(w) * roiPadding
	padY := float64(h) * roiPadding
	x0 := math.Max(0, float64(left)-padX)
	x1 := math.Min(float64(w), float64(right+1)+padX)
	y0 := math.Max(0, float64(top)-padY)
	y1 := math.Min(float64(h), float64(bottom+1)+padY)

	return clampROI(models.ROI{
		Top:    y0 / float64(h) * 100,
		Bottom: (float64(h) - y1) / float64(h) * 100,
		Left:   x0 / float64(w) * 100,
		Right:  (float64(w) - x1) / float64(w) * 100,
	})
}

func bin(v float64) int {
	b := int(v)
	if b < 0 {
		return 0
	}
	if b > 255 {
		return 255
	}
	return b
}

// clampROI keeps every margin within [0, 100]
func clampROI(r models.ROI) models.ROI {
	clamp := func(v float64) float64 {
		return math.Max(0, math.Min(100, v))
	}
	return models.ROI{Top: clamp(r.Top), Bottom: clamp(r.Bottom), Left: clamp(r.Left), Right: clamp(r.Right)}
}
