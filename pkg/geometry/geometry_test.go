package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gelquant/pkg/gelimage"
)

func buffer(w, h int, value func(x, y int) uint8) *gelimage.ImageBuffer {
	pix := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := value(x, y)
			i := (y*w + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, 255
		}
	}
	return &gelimage.ImageBuffer{Width: w, Height: h, Pix: pix}
}

func TestShouldInvert(t *testing.T) {
	bright := buffer(100, 100, func(x, y int) uint8 { return 230 })
	dark := buffer(100, 100, func(x, y int) uint8 { return 15 })

	assert.True(t, ShouldInvert(bright))
	assert.False(t, ShouldInvert(dark))
	assert.False(t, ShouldInvert(&gelimage.ImageBuffer{}))
}

func TestOtsuTwoModes(t *testing.T) {
	var hist [256]float64
	hist[20] = 70
	hist[200] = 30

	th := OtsuThreshold(hist)
	assert.Greater(t, th, 20)
	assert.Less(t, th, 200)
}

func TestOtsuSpreadModes(t *testing.T) {
	var hist [256]float64
	for i := 30; i < 60; i++ {
		hist[i] = 10
	}
	for i := 170; i < 190; i++ {
		hist[i] = 5
	}
	th := OtsuThreshold(hist)
	assert.GreaterOrEqual(t, th, 59)
	assert.Less(t, th, 170)
}

func TestOtsuEmptyHistogram(t *testing.T) {
	var hist [256]float64
	assert.Equal(t, 0, OtsuThreshold(hist))
}

func TestAutoDetectROI(t *testing.T) {
	// bright block at x 50..150, y 20..80 of a 200x100 dark image
	img := buffer(200, 100, func(x, y int) uint8 {
		if x >= 50 && x < 150 && y >= 20 && y < 80 {
			return 180
		}
		return 10
	})

	roi := AutoDetectROI(img, false)
	assert.InDelta(t, 22, roi.Left, 2)
	assert.InDelta(t, 22, roi.Right, 2)
	assert.InDelta(t, 17, roi.Top, 2)
	assert.InDelta(t, 17, roi.Bottom, 2)
}

func TestAutoDetectROIInverted(t *testing.T) {
	// dark block on a light background reads as signal once inverted
	img := buffer(120, 120, func(x, y int) uint8 {
		if x >= 30 && x < 90 && y >= 30 && y < 90 {
			return 40
		}
		return 240
	})

	roi := AutoDetectROI(img, true)
	assert.InDelta(t, 22, roi.Left, 2)
	assert.InDelta(t, 22, roi.Top, 2)
}

func TestAutoDetectROIFlatImage(t *testing.T) {
	img := buffer(50, 50, func(x, y int) uint8 { return 0 })
	roi := AutoDetectROI(img, false)
	for _, v := range []float64{roi.Top, roi.Bottom, roi.Left, roi.Right} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

// tiltedLanes renders vertical lanes with horizontal bands, turned so that
// gelimage.Rotate(img, theta) straightens them again.
func tiltedLanes(size int, theta float64) *gelimage.ImageBuffer {
	rot := gelimage.NewRotation(-theta, size, size)
	return buffer(size, size, func(x, y int) uint8 {
		sx, sy := rot.Source(float64(x), float64(y))
		phase := math.Mod(sx+1000, 40)
		if phase < 10 || phase >= 30 {
			return 20
		}
		if math.Mod(sy+1000, 25) < 4 {
			return 250
		}
		return 170
	})
}

func TestBestRotationAngleRecoversTilt(t *testing.T) {
	for _, theta := range []float64{3.5, -5.2, 0, 7.3} {
		img := tiltedLanes(200, theta)
		got := BestRotationAngle(img)
		assert.InDelta(t, theta, got, 0.2, "tilt %.1f", theta)
	}
}

func TestBestRotationAngleStraightensImage(t *testing.T) {
	img := tiltedLanes(200, 4.2)
	angle := BestRotationAngle(img)
	require.InDelta(t, 4.2, angle, 0.2)

	// after correction, a second search finds nothing left to fix
	straight := gelimage.Rotate(img, angle)
	assert.InDelta(t, 0, BestRotationAngle(straight), 0.3)
}

func TestBestRotationAngleTinyImage(t *testing.T) {
	assert.Equal(t, 0.0, BestRotationAngle(buffer(4, 4, func(x, y int) uint8 { return 1 })))
}
