package gelimage

import "math"

// Luminance converts an RGB triple to Rec. 601 luma in [0, 255]
func Luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// Intensity samples pixel (x, y) as a scalar. With invert set, bright
// pixels read low so that dark bands on a light gel become positive peaks.
func (b *ImageBuffer) Intensity(x, y int, invert bool) float64 {
	i := (y*b.Width + x) * 4
	v := Luminance(b.Pix[i], b.Pix[i+1], b.Pix[i+2])
	if invert {
		return 255 - v
	}
	return v
}

// IntensityMap is a precomputed scalar plane of an ImageBuffer
type IntensityMap struct {
	Width  int
	Height int
	Values []float64
}

// IntensityMap samples every pixel once
func (b *ImageBuffer) IntensityMap(invert bool) *IntensityMap {
	m := &IntensityMap{Width: b.Width, Height: b.Height, Values: make([]float64, b.Width*b.Height)}
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			m.Values[y*b.Width+x] = b.Intensity(x, y, invert)
		}
	}
	return m
}

// At returns the value at integer coordinates
func (m *IntensityMap) At(x, y int) float64 {
	return m.Values[y*m.Width+x]
}

// Bilinear interpolates at fractional coordinates. ok is false outside the
// map.
func (m *IntensityMap) Bilinear(fx, fy float64) (v float64, ok bool) {
	if fx < 0 || fy < 0 || fx > float64(m.Width-1) || fy > float64(m.Height-1) {
		return 0, false
	}
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	x1, y1 := x0+1, y0+1
	if x1 >= m.Width {
		x1 = x0
	}
	if y1 >= m.Height {
		y1 = y0
	}
	tx, ty := fx-float64(x0), fy-float64(y0)

	top := m.At(x0, y0)*(1-tx) + m.At(x1, y0)*tx
	bottom := m.At(x0, y1)*(1-tx) + m.At(x1, y1)*tx
	return top*(1-ty) + bottom*ty, true
}
