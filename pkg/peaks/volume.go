package peaks

import "math"

const boundaryHeightFraction = 0.05

// assignVolumes splits the explained signal min(net, model) of every sample
// above the noise floor between components in proportion to their value
// there. Overlapping bands therefore share the signal they both explain.
func assignVolumes(net []float64, comps []Gaussian, model []float64, noise float64) []float64 {
	volumes := make([]float64, len(comps))
	for i, y := range net {
		if y <= noise || model[i] <= 0 {
			continue
		}
		explained := math.Min(y, model[i])
		for k, c := range comps {
			volumes[k] += explained * c.At(float64(i)) / model[i]
		}
	}
	return volumes
}

// boundaries walks outwards from pos while the profile stays above the
// adaptive threshold, keeps falling and stays within the sigma extent.
func boundaries(net []float64, pos int, c Gaussian, p Params) (start, end int) {
	threshold := math.Max(p.NoiseTolerance, c.Height*boundaryHeightFraction)
	extent := p.BoundarySigma * c.Sigma * 1.5

	start = pos
	for start > 0 && float64(pos-(start-1)) <= extent &&
		net[start-1] > threshold && net[start-1] <= net[start] {
		start--
	}
	end = pos
	for end < len(net)-1 && float64(end+1-pos) <= extent &&
		net[end+1] > threshold && net[end+1] <= net[end] {
		end++
	}
	return start, end
}
