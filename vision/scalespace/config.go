package scalespace

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// Config holds the parameters of a hierarchical Gaussian scale space.
type Config struct {
	// SamplingSigma is the blur already present in the input image.
	SamplingSigma float64 `json:"sampling_sigma"`
	// BaseSigma is the absolute scale of level 0 of octave 0.
	BaseSigma float64 `json:"base_sigma"`
	// Octaves is the number of octaves P.
	Octaves int `json:"octaves"`
	// LevelsPerOctave is the number of levels Q needed to double the scale.
	LevelsPerOctave int `json:"levels_per_octave"`
	// BotLevel and TopLevel give the inclusive level range of every Gaussian octave.
	BotLevel int `json:"bot_level"`
	TopLevel int `json:"top_level"`
}

// DefaultConfig returns the classic SIFT scale space: 4 octaves of 3 levels with one extra
// level below and two above every octave.
func DefaultConfig() *Config {
	return &Config{
		SamplingSigma:   0.5,
		BaseSigma:       1.6,
		Octaves:         4,
		LevelsPerOctave: 3,
		BotLevel:        -1,
		TopLevel:        4,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	var errs error
	if cfg.SamplingSigma <= 0 {
		errs = multierr.Append(errs, errors.Errorf("sampling_sigma should be > 0, got %v", cfg.SamplingSigma))
	}
	if cfg.BaseSigma <= 0 {
		errs = multierr.Append(errs, errors.Errorf("base_sigma should be > 0, got %v", cfg.BaseSigma))
	}
	if cfg.Octaves < 1 {
		errs = multierr.Append(errs, errors.New("octaves should be >= 1"))
	}
	if cfg.LevelsPerOctave < 1 {
		errs = multierr.Append(errs, errors.New("levels_per_octave should be >= 1"))
	}
	if cfg.BotLevel >= cfg.TopLevel {
		errs = multierr.Append(errs, errors.Errorf("bot_level (%d) should be < top_level (%d)", cfg.BotLevel, cfg.TopLevel))
	} else if cfg.Octaves > 1 && cfg.LevelsPerOctave >= 1 && cfg.TopLevel-cfg.BotLevel < cfg.LevelsPerOctave {
		errs = multierr.Append(errs, errors.Errorf(
			"level range [%d, %d] must span at least levels_per_octave (%d) levels to seed the next octave",
			cfg.BotLevel, cfg.TopLevel, cfg.LevelsPerOctave))
	}
	if errs == nil && cfg.relativeScale(float64(cfg.BotLevel)) <= cfg.SamplingSigma {
		errs = errors.Errorf("the bottom level scale %v must exceed sampling_sigma %v",
			cfg.relativeScale(float64(cfg.BotLevel)), cfg.SamplingSigma)
	}
	if errs != nil {
		return utils.NewConfigValidationError(path, errs)
	}
	return nil
}

// relativeScale is the scale of level q measured in the pixels of its own octave.
func (cfg *Config) relativeScale(q float64) float64 {
	return cfg.BaseSigma * math.Pow(2, q/float64(cfg.LevelsPerOctave))
}
