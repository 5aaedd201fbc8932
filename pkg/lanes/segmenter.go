// Package lanes partitions a cropped gel image into ordered lane rectangles.
package lanes

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"gelquant/internal/models"
	"gelquant/pkg/config"
	"gelquant/pkg/gelimage"
	"gelquant/pkg/signal"
)

const (
	sampleTop        = 0.10 // vertical band sampled for the column profile
	sampleBottom     = 0.90
	rowSamples       = 100 // target rows sampled per column
	maxSmoothRadius  = 30
	thresholdFactor  = 0.25
	minSeparationDiv = 35 // minimum lane separation is width/35
)

// Segment returns lane rectangles covering the full height of img, ordered
// left to right. Automatic detection is tried first when enabled; if it
// finds nothing the width is split into NumLanes equal lanes.
func Segment(img *gelimage.ImageBuffer, settings config.GelSettings) []models.Rect {
	if img.Width == 0 || img.Height == 0 {
		return nil
	}
	settings = settings.Normalized()

	if settings.AutoDetectLanes {
		if rects := Detect(img, settings); len(rects) > 0 {
			return rects
		}
	}
	return Uniform(img.Width, img.Height, settings.NumLanes, settings.LaneMargin)
}

// Uniform splits width into n equal lanes, each shrunk by margin percent
func Uniform(width, height, n int, margin float64) []models.Rect {
	if n < 1 || width == 0 || height == 0 {
		return nil
	}
	laneWidth := float64(width) / float64(n)
	rects := make([]models.Rect, 0, n)
	for i := 0; i < n; i++ {
		x0 := int(math.Round(float64(i) * laneWidth))
		x1 := int(math.Round(float64(i+1) * laneWidth))
		if x1 <= x0 {
			continue
		}
		rects = append(rects, shrink(x0, x1, height, margin))
	}
	return rects
}

// Detect finds lanes from the smoothed column profile. It returns nil when
// no column rises above the dynamic threshold.
func Detect(img *gelimage.ImageBuffer, settings config.GelSettings) []models.Rect {
	profile := ColumnProfile(img, settings.InvertImage)

	radius := img.Width / 20
	if radius > maxSmoothRadius {
		radius = maxSmoothRadius
	}
	profile = signal.GaussianSmoothRadius(profile, radius)

	centers := findCenters(profile, settings.LaneDetectionSensitivity, img.Width)
	if len(centers) == 0 {
		return nil
	}

	bounds := laneBounds(profile, centers)
	rects := make([]models.Rect, 0, len(bounds))
	for _, b := range bounds {
		rects = append(rects, shrink(b[0], b[1], img.Height, settings.LaneMargin))
	}
	return rects
}

// ColumnProfile scores every column by mean intensity plus mean vertical
// gradient over the middle 80% of the rows. Both terms are normalised to a
// maximum of 1. Lanes alternate bands and gaps and so score high on the
// gradient term even where their mean is close to the background.
func ColumnProfile(img *gelimage.ImageBuffer, invert bool) []float64 {
	y0 := int(float64(img.Height) * sampleTop)
	y1 := int(float64(img.Height) * sampleBottom)
	if y1 <= y0 {
		y0, y1 = 0, img.Height
	}
	stride := (y1 - y0) / rowSamples
	if stride < 1 {
		stride = 1
	}

	means := make([]float64, img.Width)
	edges := make([]float64, img.Width)
	for x := 0; x < img.Width; x++ {
		var sum, grad float64
		n := 0
		for y := y0; y < y1; y += stride {
			v := img.Intensity(x, y, invert)
			sum += v
			if y+1 < img.Height {
				grad += math.Abs(img.Intensity(x, y+1, invert) - v)
			}
			n++
		}
		means[x] = sum / float64(n)
		edges[x] = grad / float64(n)
	}

	means = signal.Normalize(means)
	edges = signal.Normalize(edges)
	score := make([]float64, img.Width)
	for x := range score {
		score[x] = 0.5*means[x] + 0.5*edges[x]
	}
	return score
}

// findCenters picks local maxima above avg + (max-avg)*k/sensitivity and
// keeps the taller of any two closer than width/35.
func findCenters(profile []float64, sensitivity float64, width int) []int {
	if len(profile) < 2 {
		return nil
	}
	avg := stat.Mean(profile, nil)
	max := floats.Max(profile)
	if max-floats.Min(profile) <= 1e-6 {
		return nil
	}
	threshold := avg + (max-avg)*thresholdFactor/sensitivity

	// A plateau counts as one maximum located at its middle.
	var candidates []int
	last := len(profile) - 1
	for i := 0; i <= last; {
		v := profile[i]
		j := i
		for j < last && profile[j+1] == v {
			j++
		}
		if v > threshold {
			leftOK := i == 0 || v > profile[i-1]
			rightOK := j == last || v > profile[j+1]
			if leftOK && rightOK {
				candidates = append(candidates, (i+j)/2)
			}
		}
		i = j + 1
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return profile[candidates[a]] > profile[candidates[b]]
	})

	minSep := width / minSeparationDiv
	if minSep < 1 {
		minSep = 1
	}
	var accepted []int
	for _, c := range candidates {
		keep := true
		for _, a := range accepted {
			if absInt(c-a) < minSep {
				keep = false
				break
			}
		}
		if keep {
			accepted = append(accepted, c)
		}
	}
	sort.Ints(accepted)
	return accepted
}

// laneBounds resolves [left, right) column ranges per centre. Neighbouring
// lanes split at the profile minimum between them; the outer edges of the
// first and last lane follow the profile down until it stops falling, at
// most half the median centre spacing away.
func laneBounds(profile []float64, centers []int) [][2]int {
	limit := len(profile) / 2
	if len(centers) > 1 {
		gaps := make([]float64, 0, len(centers)-1)
		for i := 1; i < len(centers); i++ {
			gaps = append(gaps, float64(centers[i]-centers[i-1]))
		}
		sort.Float64s(gaps)
		limit = int(stat.Quantile(0.5, stat.Empirical, gaps, nil) / 2)
	}

	valleys := make([]int, len(centers)-1)
	for i := range valleys {
		valleys[i] = valley(profile, centers[i], centers[i+1])
	}

	bounds := make([][2]int, len(centers))
	for i, c := range centers {
		left, right := 0, 0
		if i == 0 {
			left = descend(profile, c, -1, limit)
		} else {
			left = valleys[i-1]
		}
		if i == len(centers)-1 {
			right = descend(profile, c, 1, limit) + 1
		} else {
			right = valleys[i]
		}
		if right <= left {
			right = left + 1
		}
		bounds[i] = [2]int{left, right}
	}
	return bounds
}

func valley(profile []float64, a, b int) int {
	best := a
	for x := a; x <= b; x++ {
		if profile[x] < profile[best] {
			best = x
		}
	}
	return best
}

func descend(profile []float64, start, dir, limit int) int {
	x, steps := start, 0
	// leave the plateau the centre sits on first
	for ; steps < limit; steps++ {
		next := x + dir
		if next < 0 || next >= len(profile) || profile[next] != profile[start] {
			break
		}
		x = next
	}
	for ; steps < limit; steps++ {
		next := x + dir
		if next < 0 || next >= len(profile) || profile[next] >= profile[x] {
			break
		}
		x = next
	}
	return x
}

// shrink turns [x0, x1) into a full-height rect with margin percent of its
// width removed, split evenly between both sides.
func shrink(x0, x1, height int, margin float64) models.Rect {
	w := x1 - x0
	nw := int(math.Round(float64(w) * (1 - margin/100)))
	if nw < 1 {
		nw = 1
	}
	return models.Rect{X: x0 + (w-nw)/2, Y: 0, Width: nw, Height: height}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
