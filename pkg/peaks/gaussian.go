package peaks

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	fwhmToSigma     = 2.355
	minSigma        = 1.0
	refineIters     = 20
	modelCutoffSigs = 6 // components are evaluated within this many sigmas
)

// Gaussian is one fitted band component
type Gaussian struct {
	Center float64
	Height float64
	Sigma  float64
}

// At evaluates the component at x
func (g Gaussian) At(x float64) float64 {
	d := x - g.Center
	if math.Abs(d) > modelCutoffSigs*g.Sigma {
		return 0
	}
	return g.Height * math.Exp(-d*d/(2*g.Sigma*g.Sigma))
}

// shape returns the unit-height component sampled over n points
func (g Gaussian) shape(n int) []float64 {
	unit := Gaussian{Center: g.Center, Height: 1, Sigma: g.Sigma}
	out := make([]float64, n)
	for i := range out {
		out[i] = unit.At(float64(i))
	}
	return out
}

// estimateSigma measures the full width at half maximum around pos, with
// linear interpolation at both crossings, and converts it to sigma.
func estimateSigma(net []float64, pos int) float64 {
	half := net[pos] / 2

	left := 0.0
	for j := pos - 1; j >= 0; j-- {
		if net[j] < half {
			left = float64(j) + (half-net[j])/(net[j+1]-net[j])
			break
		}
	}
	right := float64(len(net) - 1)
	for j := pos + 1; j < len(net); j++ {
		if net[j] < half {
			right = float64(j) - (half-net[j])/(net[j-1]-net[j])
			break
		}
	}

	sigma := (right - left) / fwhmToSigma
	if sigma < minSigma || math.IsNaN(sigma) {
		sigma = minSigma
	}
	return sigma
}

// refineHeights adjusts component heights by projected coordinate descent on
// the non-negative least-squares fit of their sum to net. Centres and widths
// stay at their initial estimates.
func refineHeights(net []float64, comps []Gaussian) {
	n := len(net)
	shapes := make([][]float64, len(comps))
	norms := make([]float64, len(comps))
	for k, c := range comps {
		shapes[k] = c.shape(n)
		norms[k] = floats.Dot(shapes[k], shapes[k])
	}

	residual := append([]float64(nil), net...)
	for k, c := range comps {
		floats.AddScaled(residual, -c.Height, shapes[k])
	}

	for iter := 0; iter < refineIters; iter++ {
		for k := range comps {
			if norms[k] == 0 {
				continue
			}
			h := comps[k].Height + floats.Dot(shapes[k], residual)/norms[k]
			if h < 0 {
				h = 0
			}
			floats.AddScaled(residual, comps[k].Height-h, shapes[k])
			comps[k].Height = h
		}
	}
}

func modelOf(comps []Gaussian, n int) []float64 {
	model := make([]float64, n)
	for _, c := range comps {
		for i := range model {
			model[i] += c.At(float64(i))
		}
	}
	return model
}
