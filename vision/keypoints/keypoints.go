// Package keypoints contains the implementation of scale invariant keypoints in an image:
// - SIFT keypoints detected as extrema of a difference-of-Gaussian scale space
// - SIFT descriptors built from oriented gradient histograms
// - ratio test matching of descriptor sets
package keypoints

import (
	"image"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/sift/utils"
)

// KeyPoint is a scale space extremum. A KeyPoint is a value: functions that change it return
// a modified copy.
type KeyPoint struct {
	// P and Q are the octave and level indices of the DoG level the keypoint was found on.
	P, Q int
	// U and V are the lattice coordinates in octave P.
	U, V int
	// X and Y are the refined coordinates in octave P.
	X, Y float64
	// XReal and YReal are X and Y mapped back to the input image.
	XReal, YReal float64
	// Scale is the absolute scale of level (P, Q).
	Scale float64
	// Orientation is the dominant gradient orientation in radians, in [0, 2pi).
	Orientation float64
	// OrientationHistogram is the smoothed orientation histogram, kept only for debugging.
	OrientationHistogram []float64
}

// WithOrientation returns a copy of kp with the given orientation.
func (kp KeyPoint) WithOrientation(orientation float64) KeyPoint {
	kp.Orientation = orientation
	return kp
}

// RealPoint returns the position of the keypoint in input image pixels, rounded to the nearest pixel.
func (kp KeyPoint) RealPoint() image.Point {
	return image.Point{int(math.Round(kp.XReal)), int(math.Round(kp.YReal))}
}

// SIFTDescriptor is the feature vector of an oriented keypoint, expressed in input image
// coordinates.
type SIFTDescriptor struct {
	X           float64
	Y           float64
	Scale       float64
	Orientation float64
	Features    []int
}

// NewSIFTDescriptor returns the descriptor of kp with the given features.
func NewSIFTDescriptor(kp KeyPoint, features []int) SIFTDescriptor {
	return SIFTDescriptor{
		X:           kp.XReal,
		Y:           kp.YReal,
		Scale:       kp.Scale,
		Orientation: kp.Orientation,
		Features:    features,
	}
}

// Len returns the number of features.
func (d *SIFTDescriptor) Len() int {
	return len(d.Features)
}

// FeatureVector returns the features as floats.
func (d *SIFTDescriptor) FeatureVector() []float64 {
	out := make([]float64, len(d.Features))
	for i, f := range d.Features {
		out[i] = float64(f)
	}
	return out
}

// Distance returns the distance between the feature vectors of d and other.
func (d *SIFTDescriptor) Distance(other *SIFTDescriptor, norm utils.NormType) (float64, error) {
	if d.Len() != other.Len() {
		return 0, errors.Errorf("descriptors have different lengths %d and %d", d.Len(), other.Len())
	}
	return utils.VectorDistance(d.FeatureVector(), other.FeatureVector(), norm)
}
