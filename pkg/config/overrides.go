package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"gelquant/internal/models"
)

// BandRef is the YAML form of a models.BandID
type BandRef struct {
	Kind string `yaml:"kind"` // "detected" or "manual"
	Lane int    `yaml:"lane"`
	Seq  int    `yaml:"seq"`
}

// ID converts the reference to a band id
func (r BandRef) ID() (models.BandID, error) {
	switch r.Kind {
	case "detected", "":
		return models.BandID{Kind: models.Detected, Lane: r.Lane, Seq: r.Seq}, nil
	case "manual":
		return models.BandID{Kind: models.Manual, Lane: r.Lane, Seq: r.Seq}, nil
	default:
		return models.BandID{}, fmt.Errorf("unknown band kind %q", r.Kind)
	}
}

// RefOf converts a band id back to its YAML form
func RefOf(id models.BandID) BandRef {
	return BandRef{Kind: id.Kind.String(), Lane: id.Lane, Seq: id.Seq}
}

// MainBandRef forces the main band of one lane
type MainBandRef struct {
	Lane int     `yaml:"lane"`
	Band BandRef `yaml:"band"`
}

// UserBandRef is a manual band window
type UserBandRef struct {
	Lane   int `yaml:"lane"`
	Seq    int `yaml:"seq"`
	YPeak  int `yaml:"yPeak"`
	YStart int `yaml:"yStart"`
	YEnd   int `yaml:"yEnd"`
}

// AdjustmentRef replaces the window of one band
type AdjustmentRef struct {
	Band   BandRef `yaml:"band"`
	YStart int     `yaml:"yStart"`
	YEnd   int     `yaml:"yEnd"`
}

// OverridesFile is the on-disk form of models.ManualOverrides
type OverridesFile struct {
	Excluded    []BandRef       `yaml:"excluded,omitempty"`
	MainBand    []MainBandRef   `yaml:"mainBand,omitempty"`
	UserBands   []UserBandRef   `yaml:"userBands,omitempty"`
	Adjustments []AdjustmentRef `yaml:"adjustments,omitempty"`
}

// NewOverridesFile converts overrides into their file form. Entries are
// sorted so the same overrides always serialise identically.
func NewOverridesFile(o models.ManualOverrides) *OverridesFile {
	f := &OverridesFile{}

	for _, id := range sortedIDs(o.ExcludedBandIDs) {
		if o.ExcludedBandIDs[id] {
			f.Excluded = append(f.Excluded, RefOf(id))
		}
	}

	lanes := make([]int, 0, len(o.MainBandOverride))
	for lane := range o.MainBandOverride {
		lanes = append(lanes, lane)
	}
	sort.Ints(lanes)
	for _, lane := range lanes {
		f.MainBand = append(f.MainBand, MainBandRef{Lane: lane, Band: RefOf(o.MainBandOverride[lane])})
	}

	lanes = lanes[:0]
	for lane := range o.UserBands {
		lanes = append(lanes, lane)
	}
	sort.Ints(lanes)
	for _, lane := range lanes {
		for _, b := range o.UserBands[lane] {
			f.UserBands = append(f.UserBands, UserBandRef{
				Lane: lane, Seq: b.ID.Seq, YPeak: b.YPeak, YStart: b.YStart, YEnd: b.YEnd,
			})
		}
	}

	adjusted := make(map[models.BandID]bool, len(o.BandAdjustments))
	for id := range o.BandAdjustments {
		adjusted[id] = true
	}
	for _, id := range sortedIDs(adjusted) {
		w := o.BandAdjustments[id]
		f.Adjustments = append(f.Adjustments, AdjustmentRef{Band: RefOf(id), YStart: w.YStart, YEnd: w.YEnd})
	}
	return f
}

func sortedIDs(set map[models.BandID]bool) []models.BandID {
	ids := make([]models.BandID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if a.Lane != b.Lane {
			return a.Lane < b.Lane
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Seq < b.Seq
	})
	return ids
}

// Overrides converts the file form into ManualOverrides
func (f *OverridesFile) Overrides() (models.ManualOverrides, error) {
	o := models.NewManualOverrides()

	for _, ref := range f.Excluded {
		id, err := ref.ID()
		if err != nil {
			return o, fmt.Errorf("excluded band: %w", err)
		}
		o.ExcludedBandIDs[id] = true
	}
	for _, mb := range f.MainBand {
		id, err := mb.Band.ID()
		if err != nil {
			return o, fmt.Errorf("main band for lane %d: %w", mb.Lane, err)
		}
		o.MainBandOverride[mb.Lane] = id
	}
	for _, ub := range f.UserBands {
		o.UserBands[ub.Lane] = append(o.UserBands[ub.Lane], models.Band{
			ID:        models.BandID{Kind: models.Manual, Lane: ub.Lane, Seq: ub.Seq},
			LaneIndex: ub.Lane,
			YPeak:     ub.YPeak,
			YStart:    ub.YStart,
			YEnd:      ub.YEnd,
			IsManual:  true,
		})
	}
	for _, adj := range f.Adjustments {
		id, err := adj.Band.ID()
		if err != nil {
			return o, fmt.Errorf("band adjustment: %w", err)
		}
		o.BandAdjustments[id] = models.BandWindow{YStart: adj.YStart, YEnd: adj.YEnd}
	}
	return o, nil
}

// LoadOverrides reads an overrides file. A missing file yields empty overrides.
func LoadOverrides(path string) (models.ManualOverrides, error) {
	if path == "" {
		return models.NewManualOverrides(), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return models.NewManualOverrides(), nil
	}
	if err != nil {
		return models.ManualOverrides{}, fmt.Errorf("error reading overrides file: %w", err)
	}

	var f OverridesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return models.ManualOverrides{}, fmt.Errorf("error parsing overrides file: %w", err)
	}
	return f.Overrides()
}

// SaveOverrides writes overrides in the format LoadOverrides reads
func SaveOverrides(o models.ManualOverrides, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating overrides directory: %w", err)
	}

	data, err := yaml.Marshal(NewOverridesFile(o))
	if err != nil {
		return fmt.Errorf("error marshaling overrides: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing overrides file: %w", err)
	}
	return nil
}
