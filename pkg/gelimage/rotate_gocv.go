//go:build gocv
// +build gocv

package gelimage

import (
	"image"
	"image/color"
	"image/draw"
	"log"

	"gocv.io/x/gocv"
)

// rotateRGBA warps through OpenCV when built with -tags gocv. Any OpenCV
// failure falls back to the pure-Go path.
func rotateRGBA(src *image.RGBA, rot Rotation, fill color.RGBA) *image.RGBA {
	out, err := rotateGoCV(src, rot, fill)
	if err != nil {
		log.Printf("gocv rotation failed, using x/image: %v", err)
		return rotateXDraw(src, rot, fill)
	}
	return out
}

func rotateGoCV(src *image.RGBA, rot Rotation, fill color.RGBA) (*image.RGBA, error) {
	mat, err := gocv.ImageToMatRGBA(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	size := image.Pt(src.Rect.Dx(), src.Rect.Dy())

	// Same pixel-index transform as Source, so both builds rotate about the
	// exact centre.
	aff := rot.Affine()
	m := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	defer m.Close()
	for i, v := range aff {
		m.SetDoubleAt(i/3, i%3, v)
	}

	warped := gocv.NewMat()
	defer warped.Close()
	gocv.WarpAffineWithParams(mat, &warped, m, size, gocv.InterpolationLinear, gocv.BorderConstant, fill)

	img, err := warped.ToImage()
	if err != nil {
		return nil, err
	}
	out := image.NewRGBA(src.Rect)
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out, nil
}
