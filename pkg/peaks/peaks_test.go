package peaks

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gelquant/internal/models"
	"gelquant/pkg/config"
)

func synth(n int, comps ...Gaussian) []float64 {
	out := make([]float64, n)
	for _, c := range comps {
		for i := range out {
			d := float64(i) - c.Center
			out[i] += c.Height * math.Exp(-d*d/(2*c.Sigma*c.Sigma))
		}
	}
	return out
}

func defaultParams() Params {
	return ParamsFrom(config.DefaultSettings())
}

func assertBandInvariants(t *testing.T, bands []models.Band, n int) {
	t.Helper()
	for _, b := range bands {
		assert.LessOrEqual(t, 0, b.YStart, b.ID.String())
		assert.LessOrEqual(t, b.YStart, b.YPeak, b.ID.String())
		assert.LessOrEqual(t, b.YPeak, b.YEnd, b.ID.String())
		assert.Less(t, b.YEnd, n, b.ID.String())
		assert.GreaterOrEqual(t, b.Volume, 0.0, b.ID.String())
	}
}

func TestTwoSeparatedBands(t *testing.T) {
	net := synth(200, Gaussian{50, 200, 3}, Gaussian{150, 100, 3})

	res := Detect(net, 3, defaultParams())
	require.Len(t, res.Bands, 2)
	assertBandInvariants(t, res.Bands, len(net))

	assert.InDelta(t, 50, res.Bands[0].YPeak, 1)
	assert.InDelta(t, 150, res.Bands[1].YPeak, 1)
	assert.InDelta(t, 2.0, res.Bands[0].Volume/res.Bands[1].Volume, 0.1)

	assert.Equal(t, models.BandID{Kind: models.Detected, Lane: 3, Seq: 0}, res.Bands[0].ID)
	assert.Equal(t, models.BandID{Kind: models.Detected, Lane: 3, Seq: 1}, res.Bands[1].ID)
	assert.Equal(t, 3, res.Bands[1].LaneIndex)
	assert.InDelta(t, 0.25, res.Bands[0].RelativeMobility, 1e-9)
	assert.InDelta(t, 0.75, res.Bands[1].RelativeMobility, 1e-9)
	assert.False(t, res.Bands[0].IsManual)

	// fitted parameters land near the generating ones
	assert.InDelta(t, 3, res.Components[0].Sigma, 0.3)
	assert.InDelta(t, 200, res.Components[0].Height, 10)
	require.Len(t, res.Model, len(net))
	assert.InDelta(t, net[50], res.Model[50], 10)
}

func TestVolumeMatchesGaussianIntegral(t *testing.T) {
	net := synth(120, Gaussian{60, 150, 4})
	res := Detect(net, 0, defaultParams())
	require.Len(t, res.Bands, 1)

	integral := 150 * 4 * math.Sqrt(2*math.Pi)
	assert.InDelta(t, integral, res.Bands[0].Volume, integral*0.05)
}

func TestFlatProfileHasNoBands(t *testing.T) {
	net := make([]float64, 100)
	for i := range net {
		net[i] = 10
	}
	res := Detect(net, 0, defaultParams())
	assert.Empty(t, res.Bands)
	assert.Len(t, res.Model, 100)
}

func TestEmptyProfile(t *testing.T) {
	res := Detect(nil, 0, defaultParams())
	assert.Empty(t, res.Bands)
	assert.Empty(t, res.Model)
}

func TestNoiseToleranceRejectsSmallPeak(t *testing.T) {
	net := synth(100, Gaussian{50, 20, 3})
	p := defaultParams()
	p.NoiseTolerance = 25
	assert.Empty(t, FindPeaks(net, p))

	p.NoiseTolerance = 5
	p.MinProminence = 0
	assert.Equal(t, []int{50}, FindPeaks(net, p))
}

func TestProminenceRejectsShoulderRipple(t *testing.T) {
	// a small ripple riding on a broad hill
	net := synth(200, Gaussian{100, 120, 30}, Gaussian{60, 4, 1.5})
	p := defaultParams()

	peaks := FindPeaks(net, p)
	assert.Equal(t, []int{100}, peaks)
	assert.Less(t, Prominence(net, 60), p.MinProminence)
}

func TestDistanceFilterKeepsTaller(t *testing.T) {
	net := synth(100, Gaussian{40, 100, 1.5}, Gaussian{47, 150, 1.5})
	p := defaultParams()
	p.MinDistance = 10

	assert.Equal(t, []int{47}, FindPeaks(net, p))

	p.MinDistance = 5
	assert.Equal(t, []int{40, 47}, FindPeaks(net, p))
}

func TestOverlappingBandsShareSignal(t *testing.T) {
	net := synth(150, Gaussian{65, 120, 4}, Gaussian{82, 120, 4})
	p := defaultParams()

	res := Detect(net, 0, p)
	require.Len(t, res.Bands, 2)
	assertBandInvariants(t, res.Bands, len(net))

	// equal components split their joint signal evenly
	assert.InDelta(t, 1.0, res.Bands[0].Volume/res.Bands[1].Volume, 0.05)

	var explained float64
	for i, y := range net {
		if y > p.NoiseTolerance {
			explained += math.Min(y, res.Model[i])
		}
	}
	assert.InDelta(t, explained, res.Bands[0].Volume+res.Bands[1].Volume, 1e-6)

	// the boundary between them stops at the valley
	assert.LessOrEqual(t, res.Bands[0].YEnd, 74)
	assert.GreaterOrEqual(t, res.Bands[1].YStart, 73)
}

func TestBoundariesRespectExtent(t *testing.T) {
	net := synth(200, Gaussian{100, 200, 5})
	p := defaultParams()
	p.BoundarySigma = 1

	res := Detect(net, 0, p)
	require.Len(t, res.Bands, 1)
	b := res.Bands[0]
	extent := p.BoundarySigma * res.Components[0].Sigma * 1.5
	assert.LessOrEqual(t, float64(b.YPeak-b.YStart), extent)
	assert.LessOrEqual(t, float64(b.YEnd-b.YPeak), extent)
	assert.Greater(t, b.YEnd, b.YStart)
}

func TestBandAtProfileEdge(t *testing.T) {
	net := synth(60, Gaussian{3, 100, 2})
	res := Detect(net, 0, defaultParams())
	require.Len(t, res.Bands, 1)
	assertBandInvariants(t, res.Bands, len(net))
	assert.Equal(t, 3, res.Bands[0].YPeak)
}

func TestRefineHeightsStaysNonNegative(t *testing.T) {
	net := synth(100, Gaussian{50, 100, 3})
	comps := []Gaussian{{50, 100, 3}, {52, 80, 3}}
	refineHeights(net, comps)
	for _, c := range comps {
		assert.GreaterOrEqual(t, c.Height, 0.0)
	}
	assert.InDelta(t, 100, comps[0].Height+comps[1].Height*math.Exp(-4.0/18), 5)
}
