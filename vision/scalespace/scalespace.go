package scalespace

import (
	"math"

	"go.viam.com/sift/rimage"
)

// BlurFunc blurs img in place with a gaussian of the given sigma.
type BlurFunc func(img *rimage.FloatGray, sigma float64) error

// ScaleSpace is a hierarchical scale space: an ordered list of octaves that all share the
// same level range. It is read-only once built.
type ScaleSpace struct {
	samplingSigma   float64
	baseSigma       float64
	levelsPerOctave int
	botLevel        int
	topLevel        int
	octaves         []*Octave
}

// NumOctaves returns the number of octaves that were built.
func (ss *ScaleSpace) NumOctaves() int {
	return len(ss.octaves)
}

// LevelsPerOctave returns Q.
func (ss *ScaleSpace) LevelsPerOctave() int {
	return ss.levelsPerOctave
}

// BotLevel returns the lowest level index of every octave.
func (ss *ScaleSpace) BotLevel() int {
	return ss.botLevel
}

// TopLevel returns the highest level index of every octave.
func (ss *ScaleSpace) TopLevel() int {
	return ss.topLevel
}

// SamplingSigma returns the blur assumed in the input image.
func (ss *ScaleSpace) SamplingSigma() float64 {
	return ss.samplingSigma
}

// BaseSigma returns the absolute scale of level 0 of octave 0.
func (ss *ScaleSpace) BaseSigma() float64 {
	return ss.baseSigma
}

// Octave returns octave p, or nil if p is out of range.
func (ss *ScaleSpace) Octave(p int) *Octave {
	if p < 0 || p >= len(ss.octaves) {
		return nil
	}
	return ss.octaves[p]
}

// Level returns level q of octave p, or nil if either index is out of range.
func (ss *ScaleSpace) Level(p, q int) *Level {
	oct := ss.Octave(p)
	if oct == nil {
		return nil
	}
	return oct.Level(q)
}

// AbsoluteScale returns sigma0 * 2^(p + q/Q), the scale of level q of octave p measured in
// pixels of the input image.
func (ss *ScaleSpace) AbsoluteScale(p, q int) float64 {
	return ss.baseSigma * math.Pow(2, float64(p)+float64(q)/float64(ss.levelsPerOctave))
}

// RelativeScale returns sigma0 * 2^(q/Q), the scale of a (possibly fractional) level q measured
// in pixels of its own octave.
func (ss *ScaleSpace) RelativeScale(q float64) float64 {
	return ss.baseSigma * math.Pow(2, q/float64(ss.levelsPerOctave))
}

// RealScaleFactor returns 2^p, the factor that maps octave p coordinates back to the input image.
func (ss *ScaleSpace) RealScaleFactor(p int) float64 {
	return math.Ldexp(1, p)
}
