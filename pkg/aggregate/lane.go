// Package aggregate merges detected and manual bands of a lane, applies the
// caller's overrides and rolls the lane up into integrity figures.
package aggregate

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"gelquant/internal/models"
)

// Input is everything measured for one lane before aggregation
type Input struct {
	Index int
	Rect  models.Rect

	Raw        []float64
	Smoothed   []float64
	Background []float64
	Net        []float64
	Model      []float64

	Bands  []models.Band
	Smears []models.SmearRegion

	Overrides models.ManualOverrides
}

// Lane builds the final LaneData. Bands are merged with the lane's manual
// bands, sorted by peak, re-windowed by adjustments and marked by the
// exclusion set before the main band is chosen and volumes are rolled up.
func Lane(in Input) models.LaneData {
	lane := models.LaneData{
		Index:             in.Index,
		Rect:              in.Rect,
		RawProfile:        in.Raw,
		SmoothedProfile:   in.Smoothed,
		BackgroundProfile: in.Background,
		NetProfile:        in.Net,
		ModelProfile:      in.Model,
	}
	n := len(in.Net)
	if n == 0 {
		return lane
	}

	bands := make([]models.Band, 0, len(in.Bands)+len(in.Overrides.UserBands[in.Index]))
	bands = append(bands, in.Bands...)
	seqs := manualSeqs(in.Overrides.UserBands[in.Index])
	for i, ub := range in.Overrides.UserBands[in.Index] {
		bands = append(bands, manualBand(ub, in.Index, seqs[i], in.Net))
	}
	sort.SliceStable(bands, func(a, b int) bool {
		return bands[a].YPeak < bands[b].YPeak
	})

	for i := range bands {
		if w, ok := in.Overrides.BandAdjustments[bands[i].ID]; ok {
			bands[i] = adjust(bands[i], w, in.Net)
		}
		bands[i].IsExcluded = in.Overrides.ExcludedBandIDs[bands[i].ID]
		bands[i].IsMainBand = false
	}

	lane.Bands = bands
	lane.Smears = append([]models.SmearRegion(nil), in.Smears...)
	lane.TotalLaneVolume = floats.Sum(in.Net)

	mainIdx := selectMain(bands, in.Overrides, in.Index)
	if mainIdx < 0 {
		lane.DegradationVolume = lane.TotalLaneVolume
		return lane
	}
	bands[mainIdx].IsMainBand = true
	rollup(&lane, bands[mainIdx].YPeak)
	return lane
}

// manualSeqs keeps each manual band's own sequence number unless an earlier
// band of the lane already took it, in which case the next free one is used.
func manualSeqs(bands []models.Band) []int {
	seqs := make([]int, len(bands))
	used := make(map[int]bool, len(bands))
	for i, b := range bands {
		seq := b.ID.Seq
		for used[seq] {
			seq++
		}
		used[seq] = true
		seqs[i] = seq
	}
	return seqs
}

// manualBand normalises a caller-supplied band onto the lane. Its window is
// clamped to the profile and its volume is the direct sum of net over it.
func manualBand(b models.Band, lane, seq int, net []float64) models.Band {
	start, end := clampWindow(b.YStart, b.YEnd, len(net))
	peak := b.YPeak
	if peak < start || peak > end {
		peak = argmax(net, start, end)
	}
	return models.Band{
		ID:               models.BandID{Kind: models.Manual, Lane: lane, Seq: seq},
		LaneIndex:        lane,
		YPeak:            peak,
		YStart:           start,
		YEnd:             end,
		Volume:           floats.Sum(net[start : end+1]),
		RelativeMobility: float64(peak) / float64(len(net)),
		IsManual:         true,
	}
}

// adjust replaces the window of b. A peak left outside the new window moves
// to the window maximum.
func adjust(b models.Band, w models.BandWindow, net []float64) models.Band {
	start, end := clampWindow(w.YStart, w.YEnd, len(net))
	b.YStart, b.YEnd = start, end
	if b.YPeak < start || b.YPeak > end {
		b.YPeak = argmax(net, start, end)
		b.RelativeMobility = float64(b.YPeak) / float64(len(net))
	}
	b.Volume = floats.Sum(net[start : end+1])
	return b
}

// selectMain returns the index of the main band or -1. A forced id wins when
// it names a band that is present and not excluded.
func selectMain(bands []models.Band, o models.ManualOverrides, lane int) int {
	if id, ok := o.MainBandOverride[lane]; ok {
		for i, b := range bands {
			if b.ID == id && !b.IsExcluded {
				return i
			}
		}
	}
	best := -1
	for i, b := range bands {
		if b.IsExcluded {
			continue
		}
		if best < 0 || b.Volume > bands[best].Volume {
			best = i
		}
	}
	return best
}

// rollup splits band and smear volume at the main band's peak. Everything at
// or before it is intact signal, everything after it is degradation.
func rollup(lane *models.LaneData, mainPeak int) {
	var banded, degraded float64
	for _, b := range lane.Bands {
		if b.IsExcluded {
			continue
		}
		if b.YPeak <= mainPeak {
			banded += b.Volume
		} else {
			degraded += b.Volume
		}
	}
	for _, s := range lane.Smears {
		if s.Center() <= float64(mainPeak) {
			banded += s.Volume
		} else {
			degraded += s.Volume
		}
	}

	lane.MainBandVolume = banded
	lane.DegradationVolume = degraded
	if total := banded + degraded; total > 0 {
		lane.IntegrityScore = clamp(banded/total*100, 0, 100)
	}
}

func clampWindow(start, end, n int) (int, int) {
	if start > end {
		start, end = end, start
	}
	start = clampInt(start, 0, n-1)
	end = clampInt(end, 0, n-1)
	return start, end
}

func argmax(data []float64, start, end int) int {
	best := start
	for i := start + 1; i <= end; i++ {
		if data[i] > data[best] {
			best = i
		}
	}
	return best
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
