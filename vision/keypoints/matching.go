package keypoints

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/floats"

	rutils "go.viam.com/sift/utils"
)

// MatchingConfig contains the parameters for matching descriptors.
type MatchingConfig struct {
	Norm rutils.NormType `json:"norm"`
	// RatioMax is the largest accepted ratio between the best and second best distance.
	RatioMax float64 `json:"ratio_max"`
	Sort     bool    `json:"sort"`
}

// DefaultMatchingConfig returns the L2 ratio test of Lowe with a 0.8 ratio, sorted by distance.
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		Norm:     rutils.NormL2,
		RatioMax: 0.8,
		Sort:     true,
	}
}

// Validate ensures all parts of the MatchingConfig are valid.
func (config *MatchingConfig) Validate(path string) error {
	var errs error
	if config.Norm < rutils.NormL2 || config.Norm > rutils.NormLInf {
		errs = multierr.Append(errs, errors.Errorf("unknown norm %d", int(config.Norm)))
	}
	if config.RatioMax <= 0 || config.RatioMax > 1 {
		errs = multierr.Append(errs, errors.New("ratio_max should be in (0, 1]"))
	}
	if errs != nil {
		return utils.NewConfigValidationError(path, errs)
	}
	return nil
}

// LoadMatchingConfiguration loads a MatchingConfig from a json file. Fields missing from the
// file keep their default value.
func LoadMatchingConfiguration(file string) (*MatchingConfig, error) {
	config := DefaultMatchingConfig()
	if err := loadJSON(file, config); err != nil {
		return nil, err
	}
	if err := config.Validate(file); err != nil {
		return nil, err
	}
	return config, nil
}

// SIFTMatch pairs a descriptor of the first set with its nearest neighbor in the second set.
type SIFTMatch struct {
	Descriptor1 *SIFTDescriptor
	Descriptor2 *SIFTDescriptor
	Distance    float64
}

// nearestTwo returns the indices and distances of the two nearest neighbors of a in set.
// An index is -1 when set is too small.
func nearestTwo(a *SIFTDescriptor, set []SIFTDescriptor, norm rutils.NormType) (int, float64, int, float64) {
	i1, i2 := -1, -1
	d1, d2 := math.Inf(1), math.Inf(1)
	fa := a.FeatureVector()
	fb := make([]float64, len(fa))
	order := norm.Order()
	for j := range set {
		for k, f := range set[j].Features {
			fb[k] = float64(f)
		}
		d := floats.Distance(fa, fb, order)
		switch {
		case d < d1:
			i2, d2 = i1, d1
			i1, d1 = j, d
		case d < d2:
			i2, d2 = j, d
		}
	}
	return i1, d1, i2, d2
}

// MatchSIFTDescriptors matches every descriptor of descs1 to its nearest neighbor in descs2
// and keeps the pairs that pass the ratio test. The matches point into the given slices.
func MatchSIFTDescriptors(
	ctx context.Context,
	descs1, descs2 []SIFTDescriptor,
	cfg *MatchingConfig,
) ([]SIFTMatch, error) {
	if cfg == nil {
		cfg = DefaultMatchingConfig()
	}
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	n := -1
	for _, set := range [][]SIFTDescriptor{descs1, descs2} {
		for i := range set {
			if n < 0 {
				n = set[i].Len()
			}
			if set[i].Len() != n {
				return nil, errors.Errorf("descriptors have different lengths %d and %d", n, set[i].Len())
			}
		}
	}

	found := make([]*SIFTMatch, len(descs1))
	err := rutils.GroupWorkParallel(
		ctx,
		len(descs1),
		nil,
		func(groupNum, groupSize, from, to int) (rutils.MemberWorkFunc, rutils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				a := &descs1[workNum]
				i1, d1, i2, d2 := nearestTwo(a, descs2, cfg.Norm)
				if i2 < 0 || d2 <= epsilon || d1/d2 >= cfg.RatioMax {
					return
				}
				found[workNum] = &SIFTMatch{Descriptor1: a, Descriptor2: &descs2[i1], Distance: d1}
			}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	matches := lo.FilterMap(found, func(m *SIFTMatch, _ int) (SIFTMatch, bool) {
		if m == nil {
			return SIFTMatch{}, false
		}
		return *m, true
	})
	if !cfg.Sort || len(matches) < 2 {
		return matches, nil
	}
	dists := lo.Map(matches, func(m SIFTMatch, _ int) float64 { return m.Distance })
	sortedIndices := make([]int, len(dists))
	floats.Argsort(dists, sortedIndices)
	sorted := make([]SIFTMatch, len(matches))
	for i, idx := range sortedIndices {
		sorted[i] = matches[idx]
	}
	return sorted, nil
}
