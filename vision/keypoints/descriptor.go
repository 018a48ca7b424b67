package keypoints

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"go.viam.com/sift/rimage"
	"go.viam.com/sift/utils"
	"go.viam.com/sift/vision/scalespace"
)

// descriptorHistogram accumulates the gradients around the oriented keypoint kp into a
// spatial x spatial x angular histogram, flattened with the angular index fastest.
func descriptorHistogram(grad *rimage.VectorField2D, ss *scalespace.ScaleSpace, kp KeyPoint, cfg *DescriptorConfig) []float64 {
	nSpat, nAngl := cfg.SpatialBins, cfg.AngularBins
	h := make([]float64, nSpat*nSpat*nAngl)

	wD := cfg.SizeFactor * ss.RelativeScale(float64(kp.Q))
	sigmaD := 0.25 * wD
	rD := windowExtent * sigmaD
	rD2 := rD * rD
	w2 := 2 * sigmaD * sigmaD
	sinD, cosD := math.Sincos(kp.Orientation)
	spatOffset := 0.5 * float64(nSpat-1)

	uMin := utils.MaxInt(int(math.Floor(kp.X-rD)), 1)
	uMax := utils.MinInt(int(math.Ceil(kp.X+rD)), grad.Width()-2)
	vMin := utils.MaxInt(int(math.Floor(kp.Y-rD)), 1)
	vMax := utils.MinInt(int(math.Ceil(kp.Y+rD)), grad.Height()-2)
	for v := vMin; v <= vMax; v++ {
		for u := uMin; u <= uMax; u++ {
			dx, dy := float64(u)-kp.X, float64(v)-kp.Y
			r2 := dx*dx + dy*dy
			if r2 >= rD2 {
				continue
			}
			g := grad.GetVec2D(u, v)
			z := g.Magnitude() * math.Exp(-r2/w2)
			if z == 0 {
				continue
			}
			// canonical frame of the keypoint
			xc := (cosD*dx + sinD*dy) / wD
			yc := (-sinD*dx + cosD*dy) / wD
			phi := utils.ModTwoPi(g.Direction() - kp.Orientation)

			ii := float64(nSpat)*xc + spatOffset
			jj := float64(nSpat)*yc + spatOffset
			kk := phi * float64(nAngl) / (2 * math.Pi)
			accumulateTrilinear(h, nSpat, nAngl, ii, jj, kk, z)
		}
	}
	return h
}

// accumulateTrilinear spreads z over the 8 histogram cells around the continuous position
// (ii, jj, kk). Spatial cells outside the grid are dropped; angular cells wrap around.
func accumulateTrilinear(h []float64, nSpat, nAngl int, ii, jj, kk, z float64) {
	i0f, j0f, k0f := math.Floor(ii), math.Floor(jj), math.Floor(kk)
	i0, j0 := int(i0f), int(j0f)
	k0 := ((int(k0f) % nAngl) + nAngl) % nAngl
	a1, b1, c1 := ii-i0f, jj-j0f, kk-k0f
	wi := [2]float64{1 - a1, a1}
	wj := [2]float64{1 - b1, b1}
	wk := [2]float64{1 - c1, c1}
	for di := 0; di < 2; di++ {
		i := i0 + di
		if i < 0 || i >= nSpat {
			continue
		}
		for dj := 0; dj < 2; dj++ {
			j := j0 + dj
			if j < 0 || j >= nSpat {
				continue
			}
			for dk := 0; dk < 2; dk++ {
				k := (k0 + dk) % nAngl
				h[(i*nSpat+j)*nAngl+k] += z * wi[di] * wj[dj] * wk[dk]
			}
		}
	}
}

// normalizeFeatures normalizes h to unit length, clips every element at clip and normalizes
// again. A zero histogram is left unchanged.
func normalizeFeatures(h []float64, clip float64) {
	normalize := func() {
		if n := utils.VectorNorm(h, utils.NormL2); n > epsilon {
			floats.Scale(1/n, h)
		}
	}
	normalize()
	for i, v := range h {
		h[i] = math.Min(v, clip)
	}
	normalize()
}

// quantizeFeatures maps the normalized features to integers in [0, min(scale, 255)].
func quantizeFeatures(h []float64, scale float64) []int {
	out := make([]int, len(h))
	for i, v := range h {
		out[i] = utils.MinInt(int(math.Round(scale*v)), 255)
	}
	return out
}

// makeDescriptor computes the SIFT descriptor of the oriented keypoint kp.
func (d *SIFTDetector) makeDescriptor(grad *rimage.VectorField2D, ss *scalespace.ScaleSpace, kp KeyPoint) SIFTDescriptor {
	cfg := d.cfg.Descriptor
	h := descriptorHistogram(grad, ss, kp, cfg)
	normalizeFeatures(h, cfg.FeatureClip)
	return NewSIFTDescriptor(kp, quantizeFeatures(h, cfg.ScaleFactor))
}
