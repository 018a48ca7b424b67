package keypoints

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"go.viam.com/sift/rimage"
	"go.viam.com/sift/utils"
	"go.viam.com/sift/vision/scalespace"
)

const (
	// orientationWindowFactor is the width of the gaussian orientation window in units of the
	// keypoint level scale.
	orientationWindowFactor = 1.5
	// windowExtent is the radius of a gaussian window in units of its sigma.
	windowExtent = 2.5
)

// orientationHistogram accumulates the gaussian weighted gradients around kp into a circular
// histogram of the given number of bins covering [0, 2pi).
func orientationHistogram(grad *rimage.VectorField2D, ss *scalespace.ScaleSpace, kp KeyPoint, nBins int) []float64 {
	h := make([]float64, nBins)
	sigmaW := orientationWindowFactor * ss.RelativeScale(float64(kp.Q))
	rW := math.Max(1, windowExtent*sigmaW)
	rW2 := rW * rW
	w2 := 2 * sigmaW * sigmaW

	uMin := utils.MaxInt(int(math.Floor(kp.X-rW)), 1)
	uMax := utils.MinInt(int(math.Ceil(kp.X+rW)), grad.Width()-2)
	vMin := utils.MaxInt(int(math.Floor(kp.Y-rW)), 1)
	vMax := utils.MinInt(int(math.Ceil(kp.Y+rW)), grad.Height()-2)
	for v := vMin; v <= vMax; v++ {
		for u := uMin; u <= uMax; u++ {
			dx, dy := float64(u)-kp.X, float64(v)-kp.Y
			r2 := dx*dx + dy*dy
			if r2 >= rW2 {
				continue
			}
			g := grad.GetVec2D(u, v)
			z := g.Magnitude() * math.Exp(-r2/w2)
			if z == 0 {
				continue
			}
			kappa := float64(nBins) * g.Direction() / (2 * math.Pi)
			kf := math.Floor(kappa)
			alpha := kappa - kf
			k0 := ((int(kf) % nBins) + nBins) % nBins
			k1 := (k0 + 1) % nBins
			h[k0] += (1 - alpha) * z
			h[k1] += alpha * z
		}
	}
	return h
}

// smoothCircular applies the [1/4, 1/2, 1/4] filter to the circular histogram h, passes times.
func smoothCircular(h []float64, passes int) {
	n := len(h)
	tmp := make([]float64, n)
	for i := 0; i < passes; i++ {
		copy(tmp, h)
		for k := 0; k < n; k++ {
			h[k] = 0.25*tmp[(k+n-1)%n] + 0.5*tmp[k] + 0.25*tmp[(k+1)%n]
		}
	}
}

// dominantOrientations returns the interpolated angle of every local maximum of the circular
// histogram h that is larger than ratio times its global maximum.
func dominantOrientations(h []float64, ratio float64) []float64 {
	n := len(h)
	if n == 0 {
		return nil
	}
	hMax := floats.Max(h)
	if hMax <= 0 {
		return nil
	}
	var angles []float64
	for k := 0; k < n; k++ {
		hc := h[k]
		hp, hn := h[(k+n-1)%n], h[(k+1)%n]
		if hc <= ratio*hMax || hc <= hp || hc <= hn {
			continue
		}
		delta := 0.0
		den := 2 * (hp - 2*hc + hn)
		if math.Abs(den) > epsilon {
			delta = (hp - hn) / den
		}
		angles = append(angles, utils.ModTwoPi((float64(k)+delta)*2*math.Pi/float64(n)))
	}
	return angles
}

// assignOrientations returns one copy of kp per dominant gradient orientation of its neighborhood.
func (d *SIFTDetector) assignOrientations(grad *rimage.VectorField2D, ss *scalespace.ScaleSpace, kp KeyPoint) []KeyPoint {
	cfg := d.cfg.Orientation
	h := orientationHistogram(grad, ss, kp, cfg.Bins)
	smoothCircular(h, cfg.SmoothingPasses)
	if d.cfg.Detector.KeepOrientationHistograms {
		kp.OrientationHistogram = h
	}
	angles := dominantOrientations(h, cfg.DominantRatio)
	out := make([]KeyPoint, 0, len(angles))
	for _, phi := range angles {
		out = append(out, kp.WithOrientation(phi))
	}
	return out
}
