// Package peaks finds discrete bands in a net lane profile and fits one
// Gaussian per band.
package peaks

import (
	"sort"

	"gelquant/internal/models"
	"gelquant/pkg/config"
)

const (
	neighbourhood   = 2  // a candidate must exceed this many samples on each side
	prominenceReach = 50 // samples scanned on each side for the prominence minima
)

// Params are the detection thresholds, all in profile units
type Params struct {
	// NoiseTolerance is the floor a peak value must exceed
	NoiseTolerance float64

	// MinProminence is the minimum rise above the surrounding minima
	MinProminence float64

	// MinDistance is the minimum spacing between accepted peaks
	MinDistance int

	// BoundarySigma scales how far band boundaries may extend
	BoundarySigma float64
}

// ParamsFrom derives detection parameters from settings
func ParamsFrom(s config.GelSettings) Params {
	return Params{
		NoiseTolerance: s.NoiseTolerance,
		MinProminence:  s.ProminenceIntensity(),
		MinDistance:    s.MinPeakDistance,
		BoundarySigma:  s.BandBoundarySigma,
	}
}

// Result is the outcome of Detect for one lane
type Result struct {
	// Bands are ordered by peak position
	Bands []models.Band

	// Components are the fitted Gaussians, parallel to Bands
	Components []Gaussian

	// Model is the sum of Components evaluated over the profile
	Model []float64
}

// Detect locates bands in net, fits them and assigns volumes.
// Bands are numbered {Detected, lane, k} in position order.
func Detect(net []float64, lane int, p Params) Result {
	n := len(net)
	res := Result{Model: make([]float64, n)}
	if n == 0 {
		return res
	}

	positions := FindPeaks(net, p)
	if len(positions) == 0 {
		return res
	}

	comps := make([]Gaussian, len(positions))
	for k, pos := range positions {
		comps[k] = Gaussian{
			Center: float64(pos),
			Height: net[pos],
			Sigma:  estimateSigma(net, pos),
		}
	}
	refineHeights(net, comps)

	res.Components = comps
	res.Model = modelOf(comps, n)
	volumes := assignVolumes(net, comps, res.Model, p.NoiseTolerance)

	res.Bands = make([]models.Band, len(positions))
	for k, pos := range positions {
		start, end := boundaries(net, pos, comps[k], p)
		res.Bands[k] = models.Band{
			ID:               models.BandID{Kind: models.Detected, Lane: lane, Seq: k},
			LaneIndex:        lane,
			YPeak:            pos,
			YStart:           start,
			YEnd:             end,
			Volume:           volumes[k],
			RelativeMobility: float64(pos) / float64(n),
			Height:           comps[k].Height,
			Sigma:            comps[k].Sigma,
		}
	}
	return res
}

// FindPeaks returns accepted peak positions in ascending order. Candidates
// are strict local maxima over two neighbours on each side that clear the
// noise floor and the prominence bar; the distance filter then keeps the
// tallest of any group closer than MinDistance.
func FindPeaks(net []float64, p Params) []int {
	n := len(net)
	var candidates []int
	for i := neighbourhood; i < n-neighbourhood; i++ {
		v := net[i]
		if v <= p.NoiseTolerance {
			continue
		}
		isMax := true
		for d := 1; d <= neighbourhood; d++ {
			if v <= net[i-d] || v <= net[i+d] {
				isMax = false
				break
			}
		}
		if !isMax {
			continue
		}
		if Prominence(net, i) > p.MinProminence {
			candidates = append(candidates, i)
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return net[candidates[a]] > net[candidates[b]]
	})

	var accepted []int
	for _, c := range candidates {
		keep := true
		for _, a := range accepted {
			d := c - a
			if d < 0 {
				d = -d
			}
			if d <= p.MinDistance {
				keep = false
				break
			}
		}
		if keep {
			accepted = append(accepted, c)
		}
	}
	sort.Ints(accepted)
	return accepted
}

// Prominence is net[i] minus the higher of the minima found on either side.
// Each side is scanned up to 50 samples and stops at the first sample
// higher than net[i].
func Prominence(net []float64, i int) float64 {
	v := net[i]
	side := func(dir int) float64 {
		lowest := v
		for j := i + dir; j >= 0 && j < len(net) && absInt(j-i) <= prominenceReach; j += dir {
			if net[j] > v {
				break
			}
			if net[j] < lowest {
				lowest = net[j]
			}
		}
		return lowest
	}
	left, right := side(-1), side(1)
	if left > right {
		return v - left
	}
	return v - right
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
