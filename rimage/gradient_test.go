package rimage

import (
	"image"
	"math"
	"testing"

	"go.viam.com/test"
)

func TestCentralGradientField(t *testing.T) {
	// intensity grows by 2 per column and by 1 per row
	img := NewFloatGray(6, 5)
	for y := 0; y < 5; y++ {
		for x := 0; x < 6; x++ {
			img.Set(x, y, float64(2*x+y))
		}
	}
	vf := CentralGradientField(img)
	test.That(t, vf.Width(), test.ShouldEqual, 6)
	test.That(t, vf.Height(), test.ShouldEqual, 5)

	g := vf.Get(image.Point{2, 2})
	test.That(t, g.Magnitude(), test.ShouldAlmostEqual, math.Sqrt(5))
	test.That(t, g.Direction(), test.ShouldAlmostEqual, math.Atan2(1, 2))
	test.That(t, vf.MaxMagnitude(), test.ShouldAlmostEqual, math.Sqrt(5))

	// borders are left untouched
	test.That(t, vf.GetVec2D(0, 2).Magnitude(), test.ShouldEqual, 0.)
	test.That(t, vf.GetVec2D(5, 4).Magnitude(), test.ShouldEqual, 0.)
}

func TestGradientDirectionRange(t *testing.T) {
	// a bright spot in the middle makes every interior gradient point inward
	img := NewFloatGray(5, 5)
	img.Set(2, 2, 1)
	vf := CentralGradientField(img)

	test.That(t, vf.GetVec2D(1, 2).Direction(), test.ShouldAlmostEqual, 0.)
	test.That(t, vf.GetVec2D(2, 1).Direction(), test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, vf.GetVec2D(3, 2).Direction(), test.ShouldAlmostEqual, math.Pi)
	test.That(t, vf.GetVec2D(2, 3).Direction(), test.ShouldAlmostEqual, 3*math.Pi/2)
	for y := 1; y < 4; y++ {
		for x := 1; x < 4; x++ {
			d := vf.GetVec2D(x, y).Direction()
			test.That(t, d, test.ShouldBeGreaterThanOrEqualTo, 0)
			test.That(t, d, test.ShouldBeLessThan, 2*math.Pi)
		}
	}
}

func TestCentralGradientFieldLargeImage(t *testing.T) {
	const size = 400
	img := NewFloatGray(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, math.Sin(float64(x)/7)*math.Cos(float64(y)/11)*(1+float64(x*y)/(size*size)))
		}
	}

	for run := 0; run < 3; run++ {
		vf := CentralGradientField(img)
		maxMag := 0.
		for y := 1; y < size-1; y++ {
			for x := 1; x < size-1; x++ {
				dx := 0.5 * (img.At(x+1, y) - img.At(x-1, y))
				dy := 0.5 * (img.At(x, y+1) - img.At(x, y-1))
				mag := math.Hypot(dx, dy)
				maxMag = math.Max(maxMag, mag)
				test.That(t, vf.GetVec2D(x, y).Magnitude(), test.ShouldEqual, mag)
			}
		}
		test.That(t, vf.MaxMagnitude(), test.ShouldEqual, maxMag)
	}
}
