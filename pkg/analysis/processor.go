// Package analysis runs the full gel quantification pipeline: geometry
// correction, lane segmentation and the per-lane profile, band, smear and
// integrity measurements.
package analysis

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"gelquant/internal/models"
	"gelquant/pkg/aggregate"
	"gelquant/pkg/config"
	"gelquant/pkg/gelimage"
	"gelquant/pkg/lanes"
	"gelquant/pkg/peaks"
	"gelquant/pkg/profile"
	"gelquant/pkg/smear"
)

// Params holds the execution parameters of a Processor.
// They change how the work is scheduled, never what is computed.
type Params struct {
	// NumCores is the number of lanes analysed concurrently.
	// Values below 1 are treated as 1.
	NumCores int

	// Verbose prints one line per pipeline stage
	Verbose bool
}

// Result is the outcome of one Process call
type Result struct {
	// RunID identifies this run in logs and exported files
	RunID uuid.UUID

	// Generation is the Session generation that produced the result,
	// zero when Process is called directly
	Generation uint64

	// Crop is the ROI rectangle in the rotated image
	Crop models.Rect

	// Cropped is the rotated and cropped image the lane rectangles refer to
	Cropped *gelimage.ImageBuffer

	// Lanes are ordered by index, left to right
	Lanes []models.LaneData
}

// Processor analyses gel images. It keeps no state between calls and is
// safe for concurrent use.
type Processor struct {
	params Params
}

// NewProcessor creates a processor. A nil params uses a single core.
func NewProcessor(params *Params) *Processor {
	p := Params{NumCores: 1}
	if params != nil {
		p = *params
	}
	if p.NumCores < 1 {
		p.NumCores = 1
	}
	return &Processor{params: p}
}

// ProcessImage runs the pipeline on a single core and returns the lanes.
// A malformed image is the only error.
func ProcessImage(img *gelimage.ImageBuffer, settings config.GelSettings, overrides models.ManualOverrides) ([]models.LaneData, error) {
	res, err := NewProcessor(nil).Process(context.Background(), img, settings, overrides)
	if err != nil {
		return nil, err
	}
	return res.Lanes, nil
}

// Process runs the complete pipeline. Geometry (rotation, then crop) is
// applied to the whole image before any lane work starts; lanes are then
// measured independently on the worker pool.
//
// An ROI with no area yields a result without lanes. The only errors are an
// invalid image and cancellation of ctx.
func (p *Processor) Process(ctx context.Context, img *gelimage.ImageBuffer, settings config.GelSettings, overrides models.ManualOverrides) (*Result, error) {
	if err := img.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate image: %w", err)
	}
	settings = settings.Normalized()
	res := &Result{RunID: uuid.New(), Lanes: []models.LaneData{}}

	// Step 1: rotate
	p.logf(res, "Step 1: Rotating by %.1f degrees...", settings.RotationAngle)
	rotated := gelimage.Rotate(img, settings.RotationAngle)

	// Step 2: crop
	res.Crop = rotated.ROIRect(settings.ROI())
	if res.Crop.Empty() {
		p.logf(res, "Step 2: ROI has no area, nothing to analyse")
		return res, nil
	}
	res.Cropped = rotated.Crop(res.Crop)
	p.logf(res, "Step 2: Cropped to %dx%d at (%d,%d)",
		res.Crop.Width, res.Crop.Height, res.Crop.X, res.Crop.Y)

	// Step 3: lanes
	rects := lanes.Segment(res.Cropped, settings)
	p.logf(res, "Step 3: Found %d lanes", len(rects))

	// Step 4: per-lane measurements
	p.logf(res, "Step 4: Measuring lanes on %d workers...", p.params.NumCores)
	out, err := p.measureLanes(ctx, res.Cropped, rects, settings, overrides)
	if err != nil {
		return nil, err
	}
	res.Lanes = out
	return res, nil
}

// measureLanes fans lanes out to NumCores workers. Each worker writes only
// the slot of the lane it took, so the output keeps lane order.
func (p *Processor) measureLanes(ctx context.Context, img *gelimage.ImageBuffer, rects []models.Rect, settings config.GelSettings, overrides models.ManualOverrides) ([]models.LaneData, error) {
	out := make([]models.LaneData, len(rects))
	jobs := make(chan int)

	var wg sync.WaitGroup
	wg.Add(p.params.NumCores)
	for w := 0; w < p.params.NumCores; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = MeasureLane(img, i, rects[i], settings, overrides)
			}
		}()
	}

feed:
	for i := range rects {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MeasureLane runs profile extraction, background subtraction, band
// fitting, smear analysis and aggregation for one lane rectangle.
func MeasureLane(img *gelimage.ImageBuffer, index int, rect models.Rect, settings config.GelSettings, overrides models.ManualOverrides) models.LaneData {
	raw := profile.Build(img, rect, settings.InvertImage)
	bg := profile.SubtractBackground(raw, settings)
	fit := peaks.Detect(bg.Net, index, peaks.ParamsFrom(settings))
	smears := smear.Analyze(bg.Net, fit.Model, smear.ParamsFrom(settings))

	return aggregate.Lane(aggregate.Input{
		Index:      index,
		Rect:       rect,
		Raw:        raw,
		Smoothed:   bg.Smoothed,
		Background: bg.Baseline,
		Net:        bg.Net,
		Model:      fit.Model,
		Bands:      fit.Bands,
		Smears:     smears,
		Overrides:  overrides,
	})
}

func (p *Processor) logf(res *Result, format string, args ...interface{}) {
	if !p.params.Verbose {
		return
	}
	log.Printf("[%s] "+format, append([]interface{}{res.RunID.String()[:8]}, args...)...)
}
