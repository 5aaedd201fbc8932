package geometry

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"gelquant/pkg/gelimage"
)

const (
	rotationMargin = 0.12 // fraction cropped from each side before scoring
	coarseRange    = 8    // degrees, searched at 1 degree steps
	fineSteps      = 10   // +/- 1.0 degree around the coarse optimum at 0.1 degree
	fineStep       = 0.1
	scoreSamples   = 200 // target samples per window side
)

// BestRotationAngle searches for the deskew angle in degrees. Rotating the
// image with gelimage.Rotate by the returned angle aligns the lanes with the
// vertical axis and the bands with the horizontal one.
//
// Each candidate is scored by the population variance of the per-column
// projection of intensity plus vertical-gradient magnitude, sampled through
// the same coordinate mapping gelimage.Rotate uses. Straight lanes give the
// sharpest projection and so the highest variance.
func BestRotationAngle(img *gelimage.ImageBuffer) float64 {
	if img.Width < 8 || img.Height < 8 {
		return 0
	}
	s := newRotationScorer(img.IntensityMap(false))

	best, bestScore := 0.0, s.score(0)
	consider := func(angle float64) {
		score := s.score(angle)
		if better(score, bestScore, angle, best) {
			best, bestScore = angle, score
		}
	}

	for deg := -coarseRange; deg <= coarseRange; deg++ {
		if deg != 0 {
			consider(float64(deg))
		}
	}

	coarse := best
	for k := -fineSteps; k <= fineSteps; k++ {
		if k == 0 {
			continue
		}
		consider(math.Round((coarse+float64(k)*fineStep)*10) / 10)
	}
	return best
}

// better prefers the higher score and, on ties, the smaller correction
func better(score, bestScore, angle, best float64) bool {
	const eps = 1e-9
	if score > bestScore+eps*math.Abs(bestScore) {
		return true
	}
	if math.Abs(score-bestScore) <= eps*math.Abs(bestScore) {
		return math.Abs(angle) < math.Abs(best)
	}
	return false
}

type rotationScorer struct {
	m              *gelimage.IntensityMap
	x0, x1, y0, y1 int
	step           int
}

func newRotationScorer(m *gelimage.IntensityMap) *rotationScorer {
	mx := int(float64(m.Width) * rotationMargin)
	my := int(float64(m.Height) * rotationMargin)
	s := &rotationScorer{m: m, x0: mx, x1: m.Width - mx, y0: my, y1: m.Height - my}

	side := s.x1 - s.x0
	if h := s.y1 - s.y0; h < side {
		side = h
	}
	s.step = side / scoreSamples
	if s.step < 1 {
		s.step = 1
	}
	return s
}

func (s *rotationScorer) score(angle float64) float64 {
	rot := gelimage.NewRotation(angle, s.m.Width, s.m.Height)

	projection := make([]float64, 0, (s.x1-s.x0)/s.step+1)
	for x := s.x0; x < s.x1; x += s.step {
		var sum, grad float64
		n, ng := 0, 0
		prev, havePrev := 0.0, false
		for y := s.y0; y < s.y1; y += s.step {
			sx, sy := rot.Source(float64(x), float64(y))
			v, ok := s.m.Bilinear(sx, sy)
			if !ok {
				havePrev = false
				continue
			}
			sum += v
			n++
			if havePrev {
				grad += math.Abs(v - prev)
				ng++
			}
			prev, havePrev = v, true
		}
		if n == 0 {
			continue
		}
		col := sum / float64(n)
		if ng > 0 {
			col += grad / float64(ng)
		}
		projection = append(projection, col)
	}

	if len(projection) < 2 {
		return 0
	}
	return stat.PopVariance(projection, nil)
}
