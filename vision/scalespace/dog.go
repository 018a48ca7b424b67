package scalespace

import (
	"github.com/pkg/errors"

	"go.viam.com/sift/rimage"
)

// NewDoGScaleSpace derives the difference-of-Gaussian scale space from g. Level q of octave p
// is G(p, q+1) - G(p, q) and keeps the absolute scale of G(p, q), so the level range is
// [g.BotLevel(), g.TopLevel()-1].
func NewDoGScaleSpace(g *ScaleSpace) (*ScaleSpace, error) {
	if g == nil {
		return nil, errors.New("cannot build a DoG scale space from a nil scale space")
	}
	if g.topLevel-g.botLevel < 1 {
		return nil, errors.Errorf("level range [%d, %d] is too small to difference", g.botLevel, g.topLevel)
	}
	d := &ScaleSpace{
		samplingSigma:   g.samplingSigma,
		baseSigma:       g.baseSigma,
		levelsPerOctave: g.levelsPerOctave,
		botLevel:        g.botLevel,
		topLevel:        g.topLevel - 1,
		octaves:         make([]*Octave, 0, len(g.octaves)),
	}
	for p, gOct := range g.octaves {
		oct, err := NewOctave(p, gOct.Width(), gOct.Height(), d.botLevel, d.topLevel)
		if err != nil {
			return nil, err
		}
		for q := d.botLevel; q <= d.topLevel; q++ {
			below, above := gOct.Level(q), gOct.Level(q+1)
			if below == nil || above == nil {
				return nil, errors.Errorf("octave %d is missing gaussian level %d or %d", p, q, q+1)
			}
			diff, err := rimage.Subtract(above.FloatGray, below.FloatGray)
			if err != nil {
				return nil, errors.Wrapf(err, "cannot difference levels %d and %d of octave %d", q+1, q, p)
			}
			if err := oct.SetLevel(q, NewLevel(diff, below.AbsoluteScale())); err != nil {
				return nil, err
			}
		}
		d.octaves = append(d.octaves, oct)
	}
	return d, nil
}
