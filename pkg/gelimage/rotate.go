package gelimage

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Rotation is a rotation by Angle degrees about a fixed centre.
//
// Positive angles turn image content clockwise on screen (y grows downwards).
// Rotate and the deskew search in package geometry both go through Source,
// so an angle scored by the search is exactly the angle Rotate applies.
type Rotation struct {
	Angle  float64
	cx, cy float64
	cos    float64
	sin    float64
}

// NewRotation builds a rotation about the centre of a width x height image
// in pixel-index coordinates.
func NewRotation(angle float64, width, height int) Rotation {
	rad := angle * math.Pi / 180
	return Rotation{
		Angle: angle,
		cx:    float64(width-1) / 2,
		cy:    float64(height-1) / 2,
		cos:   math.Cos(rad),
		sin:   math.Sin(rad),
	}
}

// Source maps a destination pixel of the rotated image back to the
// coordinate it is sampled from in the original image.
func (r Rotation) Source(x, y float64) (sx, sy float64) {
	dx, dy := x-r.cx, y-r.cy
	return r.cx + r.cos*dx + r.sin*dy, r.cy - r.sin*dx + r.cos*dy
}

// Affine returns the source-to-destination transform, the inverse of Source,
// in pixel-index coordinates (pixel centres on integers).
func (r Rotation) Affine() f64.Aff3 {
	return r.affineAbout(r.cx, r.cy)
}

// matrix is Affine for x/image/draw, which works in continuous coordinates
// where pixel centres sit at i+0.5.
func (r Rotation) matrix() f64.Aff3 {
	return r.affineAbout(r.cx+0.5, r.cy+0.5)
}

func (r Rotation) affineAbout(cx, cy float64) f64.Aff3 {
	return f64.Aff3{
		r.cos, -r.sin, cx - r.cos*cx + r.sin*cy,
		r.sin, r.cos, cy - r.sin*cx - r.cos*cy,
	}
}

// Rotate returns a new buffer of the same size holding the image rotated by
// angle degrees about its centre. Uncovered corners are filled with the mean
// border colour so they read as background.
func Rotate(b *ImageBuffer, angle float64) *ImageBuffer {
	if angle == 0 || b.Width == 0 || b.Height == 0 {
		return &ImageBuffer{Width: b.Width, Height: b.Height, Pix: append([]uint8(nil), b.Pix...)}
	}
	rot := NewRotation(angle, b.Width, b.Height)
	return fromRGBA(rotateRGBA(b.ToRGBA(), rot, b.borderColor()))
}

func rotateXDraw(src *image.RGBA, rot Rotation, fill color.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	xdraw.Draw(dst, dst.Bounds(), &image.Uniform{C: fill}, image.Point{}, xdraw.Src)
	xdraw.BiLinear.Transform(dst, rot.matrix(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

// borderColor averages the outermost ring of pixels
func (b *ImageBuffer) borderColor() color.RGBA {
	var sum [4]float64
	n := 0
	add := func(x, y int) {
		r, g, bl, a := b.RGBA(x, y)
		sum[0] += float64(r)
		sum[1] += float64(g)
		sum[2] += float64(bl)
		sum[3] += float64(a)
		n++
	}
	for x := 0; x < b.Width; x++ {
		add(x, 0)
		add(x, b.Height-1)
	}
	for y := 1; y < b.Height-1; y++ {
		add(0, y)
		add(b.Width-1, y)
	}
	if n == 0 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{
		R: uint8(sum[0]/float64(n) + 0.5),
		G: uint8(sum[1]/float64(n) + 0.5),
		B: uint8(sum[2]/float64(n) + 0.5),
		A: uint8(sum[3]/float64(n) + 0.5),
	}
}
