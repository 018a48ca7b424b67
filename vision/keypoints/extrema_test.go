package keypoints

import (
	"context"
	"testing"

	"go.viam.com/test"

	"go.viam.com/sift/logging"
	"go.viam.com/sift/vision/scalespace"
)

func TestNeighborOffsets(t *testing.T) {
	for _, nb := range []NeighborhoodType{NB8, NB10, NB18, NB26} {
		offsets := neighborOffsets[nb]
		test.That(t, offsets, test.ShouldHaveLength, int(nb))
		below, above := 0, 0
		for _, o := range offsets {
			test.That(t, o, test.ShouldNotResemble, cubeOffset{1, 1, 1})
			switch o[0] {
			case 0:
				below++
			case 2:
				above++
			}
		}
		test.That(t, below, test.ShouldEqual, above)
	}
	test.That(t, neighborOffsets[NB10][0], test.ShouldResemble, cubeOffset{0, 1, 1})
}

func TestIsExtremum(t *testing.T) {
	var nh [3][3][3]float64
	for k := 0; k < 3; k++ {
		for j := 0; j < 3; j++ {
			for i := 0; i < 3; i++ {
				nh[k][j][i] = 1
			}
		}
	}
	nh[1][1][1] = 2
	test.That(t, isExtremum(&nh, neighborOffsets[NB26], 0), test.ShouldBeTrue)
	test.That(t, isExtremum(&nh, neighborOffsets[NB26], 0.5), test.ShouldBeTrue)
	test.That(t, isExtremum(&nh, neighborOffsets[NB26], 1), test.ShouldBeFalse)

	nh[1][1][1] = -2
	test.That(t, isExtremum(&nh, neighborOffsets[NB26], 0), test.ShouldBeTrue)

	// ties are never extrema
	nh[0][0][0] = -2
	test.That(t, isExtremum(&nh, neighborOffsets[NB26], 0), test.ShouldBeFalse)
	// but a corner below only counts for the full cube
	test.That(t, isExtremum(&nh, neighborOffsets[NB18], 0), test.ShouldBeTrue)
	nh[0][1][0] = -3
	test.That(t, isExtremum(&nh, neighborOffsets[NB18], 0), test.ShouldBeFalse)
	test.That(t, isExtremum(&nh, neighborOffsets[NB10], 0), test.ShouldBeTrue)
	nh[2][1][1] = -2.5
	test.That(t, isExtremum(&nh, neighborOffsets[NB10], 0), test.ShouldBeFalse)
	test.That(t, isExtremum(&nh, neighborOffsets[NB8], 0), test.ShouldBeTrue)
}

func TestFindExtrema(t *testing.T) {
	d, err := NewSIFTDetector(nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	img := blobImage(128, randomBlobs(11, 128, 10, 12))
	pyr, err := d.buildPyramid(context.Background(), img)
	test.That(t, err, test.ShouldBeNil)

	candidates, err := d.findExtrema(context.Background(), pyr.dog)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, candidates, test.ShouldNotBeEmpty)

	prev := candidates[0]
	for _, kp := range candidates {
		oct := pyr.dog.Octave(kp.P)
		test.That(t, oct.IsInside(kp.U, kp.V), test.ShouldBeTrue)
		test.That(t, kp.Q, test.ShouldBeGreaterThan, pyr.dog.BotLevel())
		test.That(t, kp.Q, test.ShouldBeLessThan, pyr.dog.TopLevel())

		// no 8-neighbor is more extreme
		lvl := oct.Level(kp.Q)
		c := lvl.At(kp.U, kp.V)
		isMax := lvl.At(kp.U+1, kp.V) < c
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				n := lvl.At(kp.U+dx, kp.V+dy)
				if isMax {
					test.That(t, n, test.ShouldBeLessThan, c)
				} else {
					test.That(t, n, test.ShouldBeGreaterThan, c)
				}
			}
		}

		// deterministic (p, q, v, u) order
		order := []int{kp.P - prev.P, kp.Q - prev.Q, kp.V - prev.V, kp.U - prev.U}
		for _, o := range order {
			if o != 0 {
				test.That(t, o, test.ShouldBeGreaterThan, 0)
				break
			}
		}
		prev = kp
	}

	again, err := d.findExtrema(context.Background(), pyr.dog)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again, test.ShouldResemble, candidates)
}

func TestFindExtremaCanceled(t *testing.T) {
	d, err := NewSIFTDetector(nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	g, err := scalespace.NewGaussianScaleSpace(squareImage(65, 11), nil, nil)
	test.That(t, err, test.ShouldBeNil)
	dog, err := scalespace.NewDoGScaleSpace(g)
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.findExtrema(ctx, dog)
	test.That(t, err, test.ShouldBeError, context.Canceled)
}
