package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestModTwoPi(t *testing.T) {
	for _, tc := range []struct {
		in       float64
		expected float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi / 2, 3 * math.Pi / 2},
		{5 * math.Pi, math.Pi},
		{-4 * math.Pi, 0},
		{-1e-18, 0},
	} {
		out := ModTwoPi(tc.in)
		test.That(t, out, test.ShouldAlmostEqual, tc.expected, 1e-12)
		test.That(t, out, test.ShouldBeGreaterThanOrEqualTo, 0)
		test.That(t, out, test.ShouldBeLessThan, 2*math.Pi)
	}
}

func TestClampAndSign(t *testing.T) {
	test.That(t, ClampInt(300, 0, 255), test.ShouldEqual, 255)
	test.That(t, SignInt(-0.7), test.ShouldEqual, -1)
	test.That(t, SignInt(0), test.ShouldEqual, 0)
	test.That(t, SignInt(3), test.ShouldEqual, 1)
	test.That(t, MaxInt(2, 3), test.ShouldEqual, 3)
	test.That(t, MinInt(2, 3), test.ShouldEqual, 2)
}
