package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"gelquant/internal/models"
	"gelquant/pkg/gelimage"
)

// Overlay colours
var (
	laneColor     = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	bandColor     = color.RGBA{R: 0, G: 200, B: 80, A: 255}
	mainBandColor = color.RGBA{R: 230, G: 30, B: 30, A: 255}
	manualColor   = color.RGBA{R: 160, G: 60, B: 220, A: 255}
	excludedColor = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	smearColor    = color.RGBA{R: 255, G: 200, B: 0, A: 255}
)

// smearBarWidth is the width of the marker drawn along smear regions
const smearBarWidth = 3

// Viewer draws analysis results on top of the cropped gel image
type Viewer struct {
	// img is the rotated and cropped image the lanes refer to
	img *gelimage.ImageBuffer

	// lanes are the measured lanes in cropped-image coordinates
	lanes []models.LaneData
}

// NewViewer creates a viewer for the lanes measured on img
func NewViewer(img *gelimage.ImageBuffer, lanes []models.LaneData) *Viewer {
	return &Viewer{img: img, lanes: lanes}
}

// Overlay renders the gel with lane outlines, a line per band and a bar
// beside every smear region. The main band is red, manual bands purple and
// excluded bands grey.
func (v *Viewer) Overlay() *image.RGBA {
	out := v.img.ToRGBA()
	for _, lane := range v.lanes {
		r := lane.Rect
		drawRect(out, r.X, r.Y, r.X+r.Width-1, r.Y+r.Height-1, laneColor)

		for _, s := range lane.Smears {
			fillRect(out, r.X, r.Y+s.YStart, r.X+smearBarWidth-1, r.Y+s.YEnd, smearColor)
		}
		for _, b := range lane.Bands {
			y := r.Y + b.YPeak
			hline(out, r.X, r.X+r.Width-1, y, bandLineColor(b))
			// boundaries as short ticks on both sides
			for _, edge := range []int{r.Y + b.YStart, r.Y + b.YEnd} {
				hline(out, r.X, r.X+2, edge, bandLineColor(b))
				hline(out, r.X+r.Width-3, r.X+r.Width-1, edge, bandLineColor(b))
			}
		}
	}
	return out
}

// ExtractLane returns the pixels of one lane rectangle
func (v *Viewer) ExtractLane(index int) (image.Image, error) {
	if index < 0 || index >= len(v.lanes) {
		return nil, fmt.Errorf("lane %d out of range (have %d lanes)", index, len(v.lanes))
	}
	crop := v.img.Crop(v.lanes[index].Rect)
	if crop.Width == 0 || crop.Height == 0 {
		return nil, fmt.Errorf("lane %d has an empty rectangle", index)
	}
	return crop.ToRGBA(), nil
}

// SaveImage writes img as JPEG when filename ends in .jpg or .jpeg and as
// PNG otherwise
func (v *Viewer) SaveImage(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	default:
		return png.Encode(file, img)
	}
}

// SaveOverlay renders the overlay and writes it to filename
func (v *Viewer) SaveOverlay(filename string) error {
	return v.SaveImage(v.Overlay(), filename)
}

// SaveLaneSequence writes every lane as lane_NN.png into outputDir
func (v *Viewer) SaveLaneSequence(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for i := range v.lanes {
		img, err := v.ExtractLane(i)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("lane_%02d.png", i))
		if err := v.SaveImage(img, filename); err != nil {
			return err
		}
	}

	return nil
}

func bandLineColor(b models.Band) color.RGBA {
	switch {
	case b.IsExcluded:
		return excludedColor
	case b.IsMainBand:
		return mainBandColor
	case b.IsManual:
		return manualColor
	default:
		return bandColor
	}
}

func hline(img *image.RGBA, x0, x1, y int, c color.Color) {
	for x := x0; x <= x1; x++ {
		if (image.Point{X: x, Y: y}).In(img.Rect) {
			img.Set(x, y, c)
		}
	}
}

func vline(img *image.RGBA, x, y0, y1 int, c color.Color) {
	for y := y0; y <= y1; y++ {
		if (image.Point{X: x, Y: y}).In(img.Rect) {
			img.Set(x, y, c)
		}
	}
}

func drawRect(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	hline(img, x0, x1, y0, c)
	hline(img, x0, x1, y1, c)
	vline(img, x0, y0, y1, c)
	vline(img, x1, y0, y1, c)
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	r := image.Rect(x0, y0, x1+1, y1+1).Intersect(img.Rect)
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Over)
}
