package models

import "fmt"

// Rect is an integer pixel bounding box in cropped-image coordinates
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Empty reports whether the rectangle covers no pixels
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// ROI holds crop margins as percentages of the full image dimension,
// each measured inwards from its own edge.
type ROI struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// BandKind records where a band came from
type BandKind int

const (
	// Detected bands are produced by the peak detector
	Detected BandKind = iota
	// Manual bands are supplied by the caller through ManualOverrides
	Manual
)

// String returns the lower-case name of the kind
func (k BandKind) String() string {
	switch k {
	case Detected:
		return "detected"
	case Manual:
		return "manual"
	default:
		return fmt.Sprintf("BandKind(%d)", int(k))
	}
}

// BandID identifies a band by provenance, lane and sequence number.
// It is comparable and is used directly as a map key in ManualOverrides.
type BandID struct {
	Kind BandKind
	Lane int
	Seq  int
}

// String formats the id for display, e.g. "L2-D3" or "L0-M1"
func (id BandID) String() string {
	prefix := "D"
	if id.Kind == Manual {
		prefix = "M"
	}
	return fmt.Sprintf("L%d-%s%d", id.Lane, prefix, id.Seq)
}

// Band is a discrete peak in a lane's net profile
type Band struct {
	ID        BandID
	LaneIndex int

	// YPeak, YStart and YEnd are row indices into the lane profile.
	// 0 <= YStart <= YPeak <= YEnd < len(profile) always holds.
	YPeak  int
	YStart int
	YEnd   int

	// Volume is the integrated intensity attributed to the band
	Volume float64

	// RelativeMobility is YPeak normalised by the profile length
	RelativeMobility float64

	// Height and Sigma are the fitted Gaussian parameters.
	// They stay zero for manual bands.
	Height float64
	Sigma  float64

	IsMainBand bool
	IsExcluded bool
	IsManual   bool
}

// SmearRegion is a contiguous run of residual signal not explained by bands
type SmearRegion struct {
	ID     int
	YStart int
	YEnd   int
	Volume float64
}

// Center returns the midpoint row of the region
func (s SmearRegion) Center() float64 {
	return float64(s.YStart+s.YEnd) / 2
}

// LaneData is the full measurement record of one lane
type LaneData struct {
	// Index is the lane position, left to right
	Index int

	// Rect is the lane rectangle in cropped-image coordinates
	Rect Rect

	// RawProfile is the per-row mean intensity of the lane
	RawProfile []float64

	// SmoothedProfile is RawProfile after Gaussian smoothing; all downstream
	// steps work on it
	SmoothedProfile []float64

	// BackgroundProfile is the estimated baseline
	BackgroundProfile []float64

	// NetProfile is max(0, SmoothedProfile - BackgroundProfile)
	NetProfile []float64

	// ModelProfile is the sum of the fitted band Gaussians
	ModelProfile []float64

	Bands  []Band
	Smears []SmearRegion

	// TotalLaneVolume is the sum of the net profile
	TotalLaneVolume float64

	// MainBandVolume is the intact (banded) fraction of the lane signal
	MainBandVolume float64

	// DegradationVolume is the smear (degraded) fraction of the lane signal
	DegradationVolume float64

	// IntegrityScore is the intact percentage, in [0, 100]
	IntegrityScore float64
}

// MainBand returns the band marked as main, if any
func (l LaneData) MainBand() (Band, bool) {
	for _, b := range l.Bands {
		if b.IsMainBand {
			return b, true
		}
	}
	return Band{}, false
}

// BandWindow is a caller-supplied boundary override
type BandWindow struct {
	YStart int
	YEnd   int
}

// ManualOverrides carries user edits that are re-applied on every run.
// The core only reads it.
type ManualOverrides struct {
	// ExcludedBandIDs marks bands that keep their place in the output but
	// contribute no volume
	ExcludedBandIDs map[BandID]bool

	// MainBandOverride forces the main band of a lane
	MainBandOverride map[int]BandID

	// UserBands are manual bands per lane
	UserBands map[int][]Band

	// BandAdjustments replace the boundaries of individual bands
	BandAdjustments map[BandID]BandWindow
}

// NewManualOverrides returns overrides with all maps allocated
func NewManualOverrides() ManualOverrides {
	return ManualOverrides{
		ExcludedBandIDs:  make(map[BandID]bool),
		MainBandOverride: make(map[int]BandID),
		UserBands:        make(map[int][]Band),
		BandAdjustments:  make(map[BandID]BandWindow),
	}
}
