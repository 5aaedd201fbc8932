// Package profile turns lane rectangles into 1-D density profiles and
// separates each profile into baseline and net signal.
package profile

import (
	"gelquant/internal/models"
	"gelquant/pkg/gelimage"
)

// Build returns the per-row mean intensity across rect. The result has one
// sample per row of rect; rows outside the image are left at zero.
func Build(img *gelimage.ImageBuffer, rect models.Rect, invert bool) []float64 {
	if rect.Empty() {
		return nil
	}
	profile := make([]float64, rect.Height)

	x0, x1 := max(rect.X, 0), min(rect.X+rect.Width, img.Width)
	if x1 <= x0 {
		return profile
	}
	for row := range profile {
		y := rect.Y + row
		if y < 0 || y >= img.Height {
			continue
		}
		var sum float64
		for x := x0; x < x1; x++ {
			sum += img.Intensity(x, y, invert)
		}
		profile[row] = sum / float64(x1-x0)
	}
	return profile
}
