package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"gelquant/internal/models"
)

// BackgroundMethod selects how the lane baseline is estimated
type BackgroundMethod int

const (
	// RollingBall approximates a rolling ball with a 1-D morphological opening
	RollingBall BackgroundMethod = iota
	// Median uses a sliding median filter
	Median
	// NoBackground leaves the baseline at zero
	NoBackground
)

var backgroundMethodNames = map[BackgroundMethod]string{
	RollingBall:  "rollingBall",
	Median:       "median",
	NoBackground: "none",
}

func (m BackgroundMethod) String() string {
	if name, ok := backgroundMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("BackgroundMethod(%d)", int(m))
}

// ParseBackgroundMethod maps a configuration name to its method
func ParseBackgroundMethod(s string) (BackgroundMethod, error) {
	for m, name := range backgroundMethodNames {
		if name == s {
			return m, nil
		}
	}
	return RollingBall, fmt.Errorf("unknown background method %q", s)
}

// MarshalYAML implements yaml.Marshaler
func (m BackgroundMethod) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (m *BackgroundMethod) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseBackgroundMethod(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// NoiseFloorMode selects how the smear threshold is derived
type NoiseFloorMode int

const (
	// ToleranceFloor uses NoiseTolerance directly
	ToleranceFloor NoiseFloorMode = iota
	// HistogramFloor derives the threshold from the residual histogram
	HistogramFloor
)

func (m NoiseFloorMode) String() string {
	switch m {
	case ToleranceFloor:
		return "tolerance"
	case HistogramFloor:
		return "histogram"
	default:
		return fmt.Sprintf("NoiseFloorMode(%d)", int(m))
	}
}

// MarshalYAML implements yaml.Marshaler
func (m NoiseFloorMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (m *NoiseFloorMode) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "tolerance":
		*m = ToleranceFloor
	case "histogram":
		*m = HistogramFloor
	default:
		return fmt.Errorf("unknown noise floor mode %q", s)
	}
	return nil
}

// GelSettings are the per-run analysis settings. It is a plain value: the
// pipeline copies it and never modifies the caller's copy.
type GelSettings struct {
	// Lane segmentation
	AutoDetectLanes          bool    `yaml:"autoDetectLanes"`
	NumLanes                 int     `yaml:"numLanes"`
	LaneMargin               float64 `yaml:"laneMargin"`               // percent of lane width, 0..50
	LaneDetectionSensitivity float64 `yaml:"laneDetectionSensitivity"` // 0.5..2.0

	// Region of interest, percent cropped from each edge
	ROITop    float64 `yaml:"roiTop"`
	ROIBottom float64 `yaml:"roiBottom"`
	ROILeft   float64 `yaml:"roiLeft"`
	ROIRight  float64 `yaml:"roiRight"`

	// RotationAngle in degrees is applied before cropping
	RotationAngle float64 `yaml:"rotationAngle"`

	InvertImage bool `yaml:"invertImage"`

	// Background estimation
	BackgroundSubtractionMethod BackgroundMethod `yaml:"backgroundSubtractionMethod"`
	BackgroundRollingBallRadius int              `yaml:"backgroundRollingBallRadius"`
	BackgroundSmoothing         int              `yaml:"backgroundSmoothing"`

	// Peak detection
	MinPeakProminence float64 `yaml:"minPeakProminence"` // percent of 0..255
	Smoothing         int     `yaml:"smoothing"`
	MinPeakDistance   int     `yaml:"minPeakDistance"`
	NoiseTolerance    float64 `yaml:"noiseTolerance"`
	BandBoundarySigma float64 `yaml:"bandBoundarySigma"`

	// NoiseFloor picks the smear threshold derivation
	NoiseFloor NoiseFloorMode `yaml:"noiseFloor"`

	// ShowBackgroundProfile only affects display
	ShowBackgroundProfile bool `yaml:"showBackgroundProfile"`
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() GelSettings {
	return GelSettings{
		AutoDetectLanes:             true,
		NumLanes:                    8,
		LaneMargin:                  10,
		LaneDetectionSensitivity:    1.0,
		BackgroundSubtractionMethod: RollingBall,
		BackgroundRollingBallRadius: 50,
		BackgroundSmoothing:         5,
		MinPeakProminence:           5,
		Smoothing:                   3,
		MinPeakDistance:             10,
		NoiseTolerance:              5,
		BandBoundarySigma:           2.0,
		NoiseFloor:                  ToleranceFloor,
	}
}

// ROI returns the crop margins
func (s GelSettings) ROI() models.ROI {
	return models.ROI{Top: s.ROITop, Bottom: s.ROIBottom, Left: s.ROILeft, Right: s.ROIRight}
}

// WithROI returns a copy with the crop margins replaced
func (s GelSettings) WithROI(roi models.ROI) GelSettings {
	s.ROITop, s.ROIBottom, s.ROILeft, s.ROIRight = roi.Top, roi.Bottom, roi.Left, roi.Right
	return s
}

// ProminenceIntensity converts MinPeakProminence to intensity units
func (s GelSettings) ProminenceIntensity() float64 {
	return s.MinPeakProminence / 100 * 255
}

// Normalized clamps every field into its valid range. Out-of-range input is
// repaired rather than rejected.
func (s GelSettings) Normalized() GelSettings {
	if s.NumLanes < 1 {
		s.NumLanes = 1
	}
	s.LaneMargin = clampFloat(s.LaneMargin, 0, 50)
	if s.LaneDetectionSensitivity == 0 {
		s.LaneDetectionSensitivity = 1
	}
	s.LaneDetectionSensitivity = clampFloat(s.LaneDetectionSensitivity, 0.5, 2.0)
	s.ROITop = clampFloat(s.ROITop, 0, 100)
	s.ROIBottom = clampFloat(s.ROIBottom, 0, 100)
	s.ROILeft = clampFloat(s.ROILeft, 0, 100)
	s.ROIRight = clampFloat(s.ROIRight, 0, 100)
	if s.BackgroundSubtractionMethod < RollingBall || s.BackgroundSubtractionMethod > NoBackground {
		s.BackgroundSubtractionMethod = RollingBall
	}
	if s.BackgroundRollingBallRadius < 1 {
		s.BackgroundRollingBallRadius = 1
	}
	if s.BackgroundSmoothing < 0 {
		s.BackgroundSmoothing = 0
	}
	if s.Smoothing < 0 {
		s.Smoothing = 0
	}
	if s.MinPeakDistance < 0 {
		s.MinPeakDistance = 0
	}
	if s.MinPeakProminence < 0 {
		s.MinPeakProminence = 0
	}
	if s.NoiseTolerance < 0 {
		s.NoiseTolerance = 0
	}
	if s.BandBoundarySigma <= 0 {
		s.BandBoundarySigma = 2.0
	}
	if s.NoiseFloor != HistogramFloor {
		s.NoiseFloor = ToleranceFloor
	}
	return s
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
