// Package gelimage holds the immutable RGBA pixel buffer the analysis runs on,
// the intensity sampler and the crop/rotate transforms.
package gelimage

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"gelquant/internal/models"
)

// ErrInvalidImage is matched by errors.Is for every malformed buffer
var ErrInvalidImage = errors.New("invalid image buffer")

// InvalidImageError reports a pixel buffer whose length does not match its
// declared dimensions.
type InvalidImageError struct {
	Width  int
	Height int
	Len    int
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("invalid image buffer: %dx%d needs %d bytes, got %d",
		e.Width, e.Height, e.Width*e.Height*4, e.Len)
}

func (e *InvalidImageError) Unwrap() error {
	return ErrInvalidImage
}

// ImageBuffer is a row-major RGBA pixel buffer, 4 bytes per pixel.
// The analysis never writes to it; transforms return new buffers.
type ImageBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewImageBuffer wraps pix after checking its length against the dimensions
func NewImageBuffer(width, height int, pix []uint8) (*ImageBuffer, error) {
	b := &ImageBuffer{Width: width, Height: height, Pix: pix}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate returns an *InvalidImageError when the buffer is structurally broken
func (b *ImageBuffer) Validate() error {
	if b == nil {
		return &InvalidImageError{}
	}
	if b.Width < 0 || b.Height < 0 || len(b.Pix) != b.Width*b.Height*4 {
		return &InvalidImageError{Width: b.Width, Height: b.Height, Len: len(b.Pix)}
	}
	return nil
}

// FromImage copies any decoded image into a new buffer
func FromImage(img image.Image) *ImageBuffer {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return fromRGBA(rgba)
}

func fromRGBA(rgba *image.RGBA) *ImageBuffer {
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	pix := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		copy(pix[y*w*4:(y+1)*w*4], rgba.Pix[y*rgba.Stride:y*rgba.Stride+w*4])
	}
	return &ImageBuffer{Width: w, Height: h, Pix: pix}
}

// ToRGBA returns a copy of the buffer as an *image.RGBA
func (b *ImageBuffer) ToRGBA() *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(rgba.Pix, b.Pix)
	return rgba
}

// RGBA returns the channels of pixel (x, y)
func (b *ImageBuffer) RGBA(x, y int) (r, g, bl, a uint8) {
	i := (y*b.Width + x) * 4
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]
}

// Crop copies the part of the buffer covered by rect. The rectangle is
// clipped to the buffer first.
func (b *ImageBuffer) Crop(rect models.Rect) *ImageBuffer {
	x0, y0 := clampInt(rect.X, 0, b.Width), clampInt(rect.Y, 0, b.Height)
	x1, y1 := clampInt(rect.X+rect.Width, 0, b.Width), clampInt(rect.Y+rect.Height, 0, b.Height)
	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 {
		return &ImageBuffer{}
	}

	pix := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		src := ((y0+y)*b.Width + x0) * 4
		copy(pix[y*w*4:(y+1)*w*4], b.Pix[src:src+w*4])
	}
	return &ImageBuffer{Width: w, Height: h, Pix: pix}
}

// ROIRect converts percentage margins into a pixel rectangle. The result is
// empty when the margins leave no area.
func (b *ImageBuffer) ROIRect(roi models.ROI) models.Rect {
	x0 := int(float64(b.Width)*roi.Left/100 + 0.5)
	x1 := b.Width - int(float64(b.Width)*roi.Right/100+0.5)
	y0 := int(float64(b.Height)*roi.Top/100 + 0.5)
	y1 := b.Height - int(float64(b.Height)*roi.Bottom/100+0.5)
	if x1 <= x0 || y1 <= y0 {
		return models.Rect{}
	}
	return models.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
