package analysis

import (
	"gelquant/internal/models"
	"gelquant/pkg/config"
	"gelquant/pkg/gelimage"
	"gelquant/pkg/geometry"
)

// Geometry is the automatic correction suggested for an image
type Geometry struct {
	// Invert is true when the gel has a light background
	Invert bool

	// Angle is the deskew angle in degrees
	Angle float64

	// ROI is the crop detected on the image after rotation by Angle
	ROI models.ROI
}

// DetectGeometry runs the geometry detectors in order: inversion first,
// then the deskew angle, then the ROI on the straightened image.
func DetectGeometry(img *gelimage.ImageBuffer) (Geometry, error) {
	if err := img.Validate(); err != nil {
		return Geometry{}, err
	}

	g := Geometry{Invert: geometry.ShouldInvert(img)}
	g.Angle = geometry.BestRotationAngle(img)
	g.ROI = geometry.AutoDetectROI(gelimage.Rotate(img, g.Angle), g.Invert)
	return g, nil
}

// Apply returns settings with the detected geometry filled in
func (g Geometry) Apply(settings config.GelSettings) config.GelSettings {
	settings.InvertImage = g.Invert
	settings.RotationAngle = g.Angle
	return settings.WithROI(g.ROI)
}
