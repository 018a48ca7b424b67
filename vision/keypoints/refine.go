package keypoints

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"go.viam.com/sift/utils"
	"go.viam.com/sift/vision/scalespace"
)

// epsilon guards divisions and singular systems.
const epsilon = 1e-12

// cubeDerivatives returns the gradient and the hessian of the center of nh by central
// differences, ordered (x, y, scale).
func cubeDerivatives(nh *[3][3][3]float64) ([3]float64, [3][3]float64) {
	c := nh[1][1][1]
	grad := [3]float64{
		0.5 * (nh[1][1][2] - nh[1][1][0]),
		0.5 * (nh[1][2][1] - nh[1][0][1]),
		0.5 * (nh[2][1][1] - nh[0][1][1]),
	}
	dxx := nh[1][1][2] - 2*c + nh[1][1][0]
	dyy := nh[1][2][1] - 2*c + nh[1][0][1]
	dss := nh[2][1][1] - 2*c + nh[0][1][1]
	dxy := 0.25 * (nh[1][2][2] - nh[1][2][0] - nh[1][0][2] + nh[1][0][0])
	dxs := 0.25 * (nh[2][1][2] - nh[2][1][0] - nh[0][1][2] + nh[0][1][0])
	dys := 0.25 * (nh[2][2][1] - nh[2][0][1] - nh[0][2][1] + nh[0][0][1])
	hess := [3][3]float64{
		{dxx, dxy, dxs},
		{dxy, dyy, dys},
		{dxs, dys, dss},
	}
	return grad, hess
}

// solveDisplacement returns d = -H^-1 * grad, or false when H is singular.
func solveDisplacement(grad [3]float64, hess [3][3]float64) ([3]float64, bool) {
	h := mat.NewDense(3, 3, []float64{
		hess[0][0], hess[0][1], hess[0][2],
		hess[1][0], hess[1][1], hess[1][2],
		hess[2][0], hess[2][1], hess[2][2],
	})
	var lu mat.LU
	lu.Factorize(h)
	if math.Abs(lu.Det()) < epsilon {
		return [3]float64{}, false
	}
	var sol mat.VecDense
	if err := lu.SolveVecTo(&sol, false, mat.NewVecDense(3, grad[:])); err != nil {
		return [3]float64{}, false
	}
	return [3]float64{-sol.AtVec(0), -sol.AtVec(1), -sol.AtVec(2)}, true
}

// passesEdgeTest reports whether the spatial curvature ratio of hess does not exceed maxRatio.
func passesEdgeTest(hess [3][3]float64, maxRatio float64) bool {
	det := hess[0][0]*hess[1][1] - hess[0][1]*hess[0][1]
	if det <= 0 {
		return false
	}
	trace := hess[0][0] + hess[1][1]
	return trace*trace/det <= (maxRatio+1)*(maxRatio+1)/maxRatio
}

// refineKeyPoint fits a quadratic to the DoG around kp and moves it to the sub-pixel extremum.
// The lattice position may move by one pixel per iteration, but never across levels.
func (d *SIFTDetector) refineKeyPoint(dog *scalespace.ScaleSpace, kp KeyPoint) (KeyPoint, bool) {
	oct := dog.Octave(kp.P)
	below, center, above := oct.Level(kp.Q-1), oct.Level(kp.Q), oct.Level(kp.Q+1)
	cfg := d.cfg.Detector
	u, v := kp.U, kp.V
	for i := 0; i < cfg.MaxRefineIterations; i++ {
		if !oct.IsInside(u, v) {
			return kp, false
		}
		nh := scalespace.Neighborhood(below, center, above, u, v)
		grad, hess := cubeDerivatives(&nh)
		disp, ok := solveDisplacement(grad, hess)
		if !ok {
			return kp, false
		}
		dx, dy := disp[0], disp[1]
		if math.Abs(dx) < 0.5 && math.Abs(dy) < 0.5 {
			peak := nh[1][1][1] + 0.5*(grad[0]*disp[0]+grad[1]*disp[1]+grad[2]*disp[2])
			if math.Abs(peak) < cfg.PeakThreshold {
				return kp, false
			}
			if !passesEdgeTest(hess, cfg.MaxCurvatureRatio) {
				return kp, false
			}
			kp.U, kp.V = u, v
			kp.X, kp.Y = float64(u)+dx, float64(v)+dy
			f := dog.RealScaleFactor(kp.P)
			kp.XReal, kp.YReal = f*kp.X, f*kp.Y
			kp.Scale = dog.AbsoluteScale(kp.P, kp.Q)
			return kp, true
		}
		if math.Abs(dx) >= 0.5 {
			u += utils.SignInt(dx)
		}
		if math.Abs(dy) >= 0.5 {
			v += utils.SignInt(dy)
		}
	}
	return kp, false
}
