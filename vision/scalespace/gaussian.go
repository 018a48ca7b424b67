package scalespace

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/sift/rimage"
	"go.viam.com/sift/utils"
)

// NewGaussianScaleSpace builds the hierarchical Gaussian scale space of img. The input is left
// untouched. When blur is nil, rimage.GaussianBlurFloat is used.
//
// Every level of an octave is blurred directly from the bottom level of that octave. Octave
// p+1 is seeded by decimating level Q+BotLevel of octave p, whose scale relative to the new
// octave is exactly the bottom scale.
func NewGaussianScaleSpace(img *rimage.FloatGray, cfg *Config, blur BlurFunc) (*ScaleSpace, error) {
	if img == nil {
		return nil, errors.New("cannot build a scale space from a nil image")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	if blur == nil {
		blur = rimage.GaussianBlurFloat
	}
	ss := &ScaleSpace{
		samplingSigma:   cfg.SamplingSigma,
		baseSigma:       cfg.BaseSigma,
		levelsPerOctave: cfg.LevelsPerOctave,
		botLevel:        cfg.BotLevel,
		topLevel:        cfg.TopLevel,
		octaves:         make([]*Octave, 0, cfg.Octaves),
	}

	sigmaB := cfg.relativeScale(float64(cfg.BotLevel))
	base := img.Clone()
	if err := blur(base, math.Sqrt(sigmaB*sigmaB-cfg.SamplingSigma*cfg.SamplingSigma)); err != nil {
		return nil, errors.Wrap(err, "cannot blur the bottom level of octave 0")
	}
	for p := 0; p < cfg.Octaves; p++ {
		if p > 0 {
			var err error
			// level Q+BotLevel halves to exactly the bottom scale; it is level Q-1 only when
			// BotLevel is -1.
			base, err = ss.octaves[p-1].Level(cfg.LevelsPerOctave + cfg.BotLevel).Decimate()
			if err != nil {
				return nil, errors.Wrapf(err, "cannot seed octave %d", p)
			}
		}
		oct, err := ss.buildOctave(p, base, blur)
		if err != nil {
			return nil, err
		}
		ss.octaves = append(ss.octaves, oct)
	}
	return ss, nil
}

// buildOctave blurs every level above the bottom one concurrently, since they only read base.
func (ss *ScaleSpace) buildOctave(p int, base *rimage.FloatGray, blur BlurFunc) (*Octave, error) {
	oct, err := NewOctave(p, base.Width(), base.Height(), ss.botLevel, ss.topLevel)
	if err != nil {
		return nil, err
	}
	if err := oct.SetLevel(ss.botLevel, NewLevel(base, ss.AbsoluteScale(p, ss.botLevel))); err != nil {
		return nil, err
	}
	sigmaB := ss.RelativeScale(float64(ss.botLevel))
	fs := make([]utils.SimpleFunc, 0, ss.topLevel-ss.botLevel)
	for q := ss.botLevel + 1; q <= ss.topLevel; q++ {
		q := q
		lvl := NewLevel(base.Clone(), ss.AbsoluteScale(p, q))
		sigmaQ := ss.RelativeScale(float64(q))
		if err := oct.SetLevel(q, lvl); err != nil {
			return nil, err
		}
		fs = append(fs, func(ctx context.Context) error {
			return errors.Wrapf(blur(lvl.FloatGray, math.Sqrt(sigmaQ*sigmaQ-sigmaB*sigmaB)),
				"cannot blur level %d of octave %d", q, p)
		})
	}
	if _, err := utils.RunInParallel(context.Background(), fs); err != nil {
		return nil, err
	}
	return oct, nil
}
