package rimage

import (
	"testing"

	"go.viam.com/test"
)

func rampImage(w, h int) *FloatGray {
	img := NewFloatGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, float64(y*w+x))
		}
	}
	return img
}

func TestNewFloatGrayFromData(t *testing.T) {
	img, err := NewFloatGrayFromData(3, 2, []float64{0, 1, 2, 3, 4, 5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.At(2, 1), test.ShouldEqual, 5.)
	test.That(t, img.Row(1), test.ShouldResemble, []float64{3, 4, 5})
	test.That(t, img.In(3, 0), test.ShouldBeFalse)
	test.That(t, img.In(2, 1), test.ShouldBeTrue)

	_, err = NewFloatGrayFromData(3, 3, []float64{0, 1})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewFloatGrayFromData(-1, 3, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDecimate(t *testing.T) {
	for _, size := range [][2]int{{10, 6}, {11, 7}, {2, 2}, {5, 3}} {
		img := rampImage(size[0], size[1])
		dec, err := img.Decimate()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, dec.Width(), test.ShouldEqual, size[0]/2)
		test.That(t, dec.Height(), test.ShouldEqual, size[1]/2)
		for y := 0; y < dec.Height(); y++ {
			for x := 0; x < dec.Width(); x++ {
				test.That(t, dec.At(x, y), test.ShouldEqual, img.At(2*x, 2*y))
			}
		}
	}
	_, err := rampImage(1, 8).Decimate()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCloneDoesNotAlias(t *testing.T) {
	img := rampImage(4, 4)
	clone := img.Clone()
	clone.Set(1, 1, -7)
	test.That(t, img.At(1, 1), test.ShouldEqual, 5.)
	test.That(t, clone.At(1, 1), test.ShouldEqual, -7.)
}

func TestSubtract(t *testing.T) {
	a := rampImage(4, 3)
	b := NewFloatGray(4, 3)
	for i := range b.Data() {
		b.Data()[i] = 1
	}
	diff, err := Subtract(a, b)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, diff.At(3, 2), test.ShouldEqual, 10.)
	test.That(t, a.At(3, 2), test.ShouldEqual, 11.)

	_, err = Subtract(a, NewFloatGray(3, 4))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDenseConversion(t *testing.T) {
	img := rampImage(5, 3)
	m := img.ToDense()
	r, c := m.Dims()
	test.That(t, r, test.ShouldEqual, 3)
	test.That(t, c, test.ShouldEqual, 5)
	test.That(t, m.At(2, 4), test.ShouldEqual, img.At(4, 2))
	test.That(t, FloatGrayFromDense(m), test.ShouldResemble, img)

	lo, hi := img.MinMax()
	test.That(t, lo, test.ShouldEqual, 0.)
	test.That(t, hi, test.ShouldEqual, 14.)
}
