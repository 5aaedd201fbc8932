//go:build !gocv
// +build !gocv

package gelimage

import (
	"image"
	"image/color"
)

func rotateRGBA(src *image.RGBA, rot Rotation, fill color.RGBA) *image.RGBA {
	return rotateXDraw(src, rot, fill)
}
