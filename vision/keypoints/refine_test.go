package keypoints

import (
	"context"
	"math"
	"testing"

	"go.viam.com/test"

	"go.viam.com/sift/logging"
)

// quadraticCube samples f(x, y, s) = a*x^2 + b*y^2 + c*s^2 + e*x*y + x0*x + y0*y + s0*s on
// the 3x3x3 grid centered on the origin.
func quadraticCube(a, b, c, e, x0, y0, s0 float64) [3][3][3]float64 {
	var nh [3][3][3]float64
	for k := 0; k < 3; k++ {
		for j := 0; j < 3; j++ {
			for i := 0; i < 3; i++ {
				x, y, s := float64(i-1), float64(j-1), float64(k-1)
				nh[k][j][i] = a*x*x + b*y*y + c*s*s + e*x*y + x0*x + y0*y + s0*s
			}
		}
	}
	return nh
}

func TestCubeDerivatives(t *testing.T) {
	nh := quadraticCube(1, 2, 3, 0.5, 0.1, -0.2, 0.3)
	grad, hess := cubeDerivatives(&nh)
	test.That(t, grad[0], test.ShouldAlmostEqual, 0.1, 1e-12)
	test.That(t, grad[1], test.ShouldAlmostEqual, -0.2, 1e-12)
	test.That(t, grad[2], test.ShouldAlmostEqual, 0.3, 1e-12)
	test.That(t, hess[0][0], test.ShouldAlmostEqual, 2, 1e-12)
	test.That(t, hess[1][1], test.ShouldAlmostEqual, 4, 1e-12)
	test.That(t, hess[2][2], test.ShouldAlmostEqual, 6, 1e-12)
	test.That(t, hess[0][1], test.ShouldAlmostEqual, 0.5, 1e-12)
	test.That(t, hess[1][0], test.ShouldAlmostEqual, 0.5, 1e-12)
	test.That(t, hess[0][2], test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, hess[1][2], test.ShouldAlmostEqual, 0, 1e-12)
}

func TestSolveDisplacement(t *testing.T) {
	// minimum of (x-0.2)^2 + 2(y+0.1)^2 + 3(s-0.3)^2
	nh := quadraticCube(1, 2, 3, 0, -0.4, 0.4, -1.8)
	grad, hess := cubeDerivatives(&nh)
	disp, ok := solveDisplacement(grad, hess)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, disp[0], test.ShouldAlmostEqual, 0.2, 1e-9)
	test.That(t, disp[1], test.ShouldAlmostEqual, -0.1, 1e-9)
	test.That(t, disp[2], test.ShouldAlmostEqual, 0.3, 1e-9)

	// flat along scale
	nh = quadraticCube(1, 2, 0, 0, 0.1, 0.1, 0)
	grad, hess = cubeDerivatives(&nh)
	_, ok = solveDisplacement(grad, hess)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestPassesEdgeTest(t *testing.T) {
	isotropic := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	test.That(t, passesEdgeTest(isotropic, 10), test.ShouldBeTrue)

	// ratio of principal curvatures 20 > 10
	edge := [3][3]float64{{20, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	test.That(t, passesEdgeTest(edge, 10), test.ShouldBeFalse)
	test.That(t, passesEdgeTest(edge, 30), test.ShouldBeTrue)

	// ratio exactly 10 sits on the threshold and is kept
	boundary := [3][3]float64{{10, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	test.That(t, passesEdgeTest(boundary, 10), test.ShouldBeTrue)
	test.That(t, passesEdgeTest(boundary, 9.9), test.ShouldBeFalse)

	saddle := [3][3]float64{{1, 0, 0}, {0, -1, 0}, {0, 0, 1}}
	test.That(t, passesEdgeTest(saddle, 10), test.ShouldBeFalse)
}

func TestRefineKeyPoints(t *testing.T) {
	d, err := NewSIFTDetector(nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	pyr, err := d.buildPyramid(context.Background(), blobImage(128, randomBlobs(5, 128, 10, 12)))
	test.That(t, err, test.ShouldBeNil)
	candidates, err := d.findExtrema(context.Background(), pyr.dog)
	test.That(t, err, test.ShouldBeNil)

	accepted := 0
	for _, c := range candidates {
		kp, ok := d.refineKeyPoint(pyr.dog, c)
		if !ok {
			continue
		}
		accepted++
		test.That(t, math.Abs(kp.X-float64(kp.U)), test.ShouldBeLessThan, 0.5)
		test.That(t, math.Abs(kp.Y-float64(kp.V)), test.ShouldBeLessThan, 0.5)
		test.That(t, kp.Q, test.ShouldEqual, c.Q)
		test.That(t, kp.P, test.ShouldEqual, c.P)
		test.That(t, pyr.dog.Octave(kp.P).IsInside(kp.U, kp.V), test.ShouldBeTrue)
		test.That(t, kp.Scale, test.ShouldEqual, pyr.dog.AbsoluteScale(kp.P, kp.Q))
	}
	test.That(t, accepted, test.ShouldBeGreaterThan, 0)
}

func TestRefineRejectsWeakPeaks(t *testing.T) {
	cfg := DefaultSIFTConfig()
	cfg.Detector.PeakThreshold = 100
	d, err := NewSIFTDetector(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	pyr, err := d.buildPyramid(context.Background(), squareImage(129, 21))
	test.That(t, err, test.ShouldBeNil)
	candidates, err := d.findExtrema(context.Background(), pyr.dog)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, candidates, test.ShouldNotBeEmpty)
	for _, c := range candidates {
		_, ok := d.refineKeyPoint(pyr.dog, c)
		test.That(t, ok, test.ShouldBeFalse)
	}
}
