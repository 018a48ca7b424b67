package rimage

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/sift/utils"
)

// BorderPad is used to define the type of padding at the image borders.
type BorderPad int

const (
	// BorderReflect mirrors the image about its edge pixel: ... 2 1 | 0 1 2 ...
	BorderReflect BorderPad = iota
	// BorderReplicate repeats the edge pixel: ... 0 0 | 0 1 2 ...
	BorderReplicate
	// BorderConstant pads with zeros.
	BorderConstant
)

// gaussianTruncation is the kernel half-width in units of sigma.
const gaussianTruncation = 4.0

// GaussianKernel returns a normalized 1-D gaussian kernel of the given sigma. The kernel has
// 2*ceil(4*sigma)+1 taps.
func GaussianKernel(sigma float64) ([]float64, error) {
	if sigma <= 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return nil, errors.Errorf("gaussian sigma must be positive, got %v", sigma)
	}
	khalf := int(math.Ceil(gaussianTruncation * sigma))
	ksz := khalf*2 + 1
	kern := make([]float64, ksz)
	var sum float64
	for i := 0; i < ksz; i++ {
		x := float64(i-khalf) / sigma
		kv := math.Exp(-0.5 * x * x)
		kern[i] = kv
		sum += kv
	}
	nfac := 1 / sum
	for i := range kern {
		kern[i] *= nfac
	}
	return kern, nil
}

// borderIndex maps a possibly out of range index onto [0, n) following the padding rule.
// ok is false when the sample should be treated as zero.
func borderIndex(i, n int, border BorderPad) (idx int, ok bool) {
	if i >= 0 && i < n {
		return i, true
	}
	switch border {
	case BorderConstant:
		return 0, false
	case BorderReplicate:
		return utils.ClampInt(i, 0, n-1), true
	default:
		if n == 1 {
			return 0, true
		}
		period := 2*n - 2
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - i
		}
		return i, true
	}
}

// ConvolveSeparableFloat convolves img in place with kernel along x and then along y.
// The kernel must have an odd number of taps and is anchored at its center.
func ConvolveSeparableFloat(img *FloatGray, kernel []float64, border BorderPad) error {
	if len(kernel)%2 != 1 {
		return errors.Errorf("kernel needs an odd number of taps, got %d", len(kernel))
	}
	if img.width == 0 || img.height == 0 {
		return nil
	}
	khalf := len(kernel) / 2
	w, h := img.width, img.height

	// rows
	err := utils.ParallelForEachIndex(context.Background(), h, func(y int) {
		row := img.Row(y)
		src := make([]float64, w)
		copy(src, row)
		for x := 0; x < w; x++ {
			sum := 0.0
			for k, kE := range kernel {
				if idx, ok := borderIndex(x+k-khalf, w, border); ok {
					sum += src[idx] * kE
				}
			}
			row[x] = sum
		}
	})
	if err != nil {
		return err
	}

	// columns
	return utils.ParallelForEachIndex(context.Background(), w, func(x int) {
		src := make([]float64, h)
		for y := 0; y < h; y++ {
			src[y] = img.data[img.kxy(x, y)]
		}
		for y := 0; y < h; y++ {
			sum := 0.0
			for k, kE := range kernel {
				if idx, ok := borderIndex(y+k-khalf, h, border); ok {
					sum += src[idx] * kE
				}
			}
			img.data[img.kxy(x, y)] = sum
		}
	})
}

// GaussianBlurFloat blurs img in place with a separable gaussian of the given sigma, mirroring
// the image at its borders.
func GaussianBlurFloat(img *FloatGray, sigma float64) error {
	kernel, err := GaussianKernel(sigma)
	if err != nil {
		return err
	}
	return ConvolveSeparableFloat(img, kernel, BorderReflect)
}
