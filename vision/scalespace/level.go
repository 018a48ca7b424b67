// Package scalespace builds the hierarchical Gaussian and difference-of-Gaussian scale spaces
// used for scale invariant keypoint detection.
//
// A scale space is made of P octaves. Every octave holds the levels q in an inclusive index
// range [BotLevel, TopLevel] which may start below zero. Level q of octave p is tagged with the
// absolute scale sigma0 * 2^(p + q/Q). Octave p is sampled at 1/2^p of the input resolution.
package scalespace

import (
	"go.viam.com/sift/rimage"
)

// Level is one blurred (or differenced) image of an octave, tagged with its absolute scale.
type Level struct {
	*rimage.FloatGray
	absScale float64
}

// NewLevel wraps img as a level of the given absolute scale. The level owns img.
func NewLevel(img *rimage.FloatGray, absScale float64) *Level {
	return &Level{img, absScale}
}

// AbsoluteScale returns the absolute blur scale of the level.
func (l *Level) AbsoluteScale() float64 {
	return l.absScale
}

// Clone returns a deep copy of the level.
func (l *Level) Clone() *Level {
	return &Level{l.FloatGray.Clone(), l.absScale}
}

// Neighborhood returns the 3x3x3 cube of samples centered on (u, v) of level `center`, with the
// levels below and above it. Index order is [level][dy][dx], each in {0, 1, 2}.
// The caller must ensure (u, v) is an interior position.
func Neighborhood(below, center, above *Level, u, v int) [3][3][3]float64 {
	var nh [3][3][3]float64
	for k, l := range [3]*Level{below, center, above} {
		for j := 0; j < 3; j++ {
			row := l.Row(v + j - 1)
			nh[k][j][0] = row[u-1]
			nh[k][j][1] = row[u]
			nh[k][j][2] = row[u+1]
		}
	}
	return nh
}
