// Package geometry estimates the global corrections applied to a gel image
// before lanes are segmented: inversion, deskew angle and region of interest.
package geometry

import "gelquant/pkg/gelimage"

const (
	invertStride    = 10
	invertThreshold = 100.0
)

// ShouldInvert reports whether the gel has a bright background. It samples
// luminance on a 10-pixel grid over the central 20% x 20% of the image.
func ShouldInvert(img *gelimage.ImageBuffer) bool {
	w, h := img.Width, img.Height
	if w == 0 || h == 0 {
		return false
	}

	x0, x1 := w*2/5, w*3/5
	y0, y1 := h*2/5, h*3/5
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}

	var sum float64
	n := 0
	for y := y0; y < y1 && y < h; y += invertStride {
		for x := x0; x < x1 && x < w; x += invertStride {
			sum += img.Intensity(x, y, false)
			n++
		}
	}
	if n == 0 {
		return false
	}
	return sum/float64(n) > invertThreshold
}
