package keypoints

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/sift/vision/scalespace"
)

// NeighborhoodType is the number of 3-D neighbors a DoG sample is compared with when searching
// for extrema.
type NeighborhoodType int

const (
	// NB8 compares with the 8 neighbors of the same level.
	NB8 NeighborhoodType = 8
	// NB10 adds the samples directly below and above.
	NB10 NeighborhoodType = 10
	// NB18 adds the 4-connected neighbors below and above.
	NB18 NeighborhoodType = 18
	// NB26 compares with the full 3x3x3 cube.
	NB26 NeighborhoodType = 26
)

// Validate ensures the neighborhood is one of the supported types.
func (n NeighborhoodType) Validate() error {
	switch n {
	case NB8, NB10, NB18, NB26:
		return nil
	default:
		return errors.Errorf("neighborhood should be one of 8, 10, 18 or 26, got %d", int(n))
	}
}

// DetectorConfig contains the parameters of extremum detection and refinement.
type DetectorConfig struct {
	Neighborhood NeighborhoodType `json:"neighborhood"`
	// MagnitudeThreshold skips DoG samples with a smaller absolute value.
	MagnitudeThreshold float64 `json:"magnitude_threshold"`
	// ExtremumMargin is the amount by which a sample must beat all its neighbors.
	ExtremumMargin float64 `json:"extremum_margin"`
	// PeakThreshold rejects refined keypoints with a weaker interpolated response.
	PeakThreshold             float64 `json:"peak_threshold"`
	MaxRefineIterations       int     `json:"max_refine_iterations"`
	MaxCurvatureRatio         float64 `json:"max_curvature_ratio"`
	KeepOrientationHistograms bool    `json:"keep_orientation_histograms"`
}

// Validate ensures all parts of the DetectorConfig are valid.
func (config *DetectorConfig) Validate(path string) error {
	var errs error
	if err := config.Neighborhood.Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if config.MagnitudeThreshold < 0 {
		errs = multierr.Append(errs, errors.New("magnitude_threshold should be >= 0"))
	}
	if config.ExtremumMargin < 0 {
		errs = multierr.Append(errs, errors.New("extremum_margin should be >= 0"))
	}
	if config.PeakThreshold < 0 {
		errs = multierr.Append(errs, errors.New("peak_threshold should be >= 0"))
	}
	if config.MaxRefineIterations < 1 {
		errs = multierr.Append(errs, errors.New("max_refine_iterations should be >= 1"))
	}
	if config.MaxCurvatureRatio <= 0 {
		errs = multierr.Append(errs, errors.New("max_curvature_ratio should be > 0"))
	}
	if errs != nil {
		return utils.NewConfigValidationError(path, errs)
	}
	return nil
}

// OrientationConfig contains the parameters of dominant orientation assignment.
type OrientationConfig struct {
	Bins            int `json:"bins"`
	SmoothingPasses int `json:"smoothing_passes"`
	// DominantRatio is the fraction of the histogram maximum a peak must exceed.
	DominantRatio float64 `json:"dominant_ratio"`
}

// Validate ensures all parts of the OrientationConfig are valid.
func (config *OrientationConfig) Validate(path string) error {
	var errs error
	if config.Bins < 3 {
		errs = multierr.Append(errs, errors.New("bins should be >= 3"))
	}
	if config.SmoothingPasses < 0 {
		errs = multierr.Append(errs, errors.New("smoothing_passes should be >= 0"))
	}
	if config.DominantRatio <= 0 || config.DominantRatio > 1 {
		errs = multierr.Append(errs, errors.New("dominant_ratio should be in (0, 1]"))
	}
	if errs != nil {
		return utils.NewConfigValidationError(path, errs)
	}
	return nil
}

// DescriptorConfig contains the parameters of the SIFT descriptor.
type DescriptorConfig struct {
	SpatialBins int `json:"spatial_bins"`
	AngularBins int `json:"angular_bins"`
	// SizeFactor is the patch width in units of the keypoint level scale.
	SizeFactor  float64 `json:"size_factor"`
	FeatureClip float64 `json:"feature_clip"`
	ScaleFactor float64 `json:"scale_factor"`
}

// Validate ensures all parts of the DescriptorConfig are valid.
func (config *DescriptorConfig) Validate(path string) error {
	var errs error
	if config.SpatialBins < 1 {
		errs = multierr.Append(errs, errors.New("spatial_bins should be >= 1"))
	}
	if config.AngularBins < 1 {
		errs = multierr.Append(errs, errors.New("angular_bins should be >= 1"))
	}
	if config.SizeFactor <= 0 {
		errs = multierr.Append(errs, errors.New("size_factor should be > 0"))
	}
	if config.FeatureClip <= 0 || config.FeatureClip > 1 {
		errs = multierr.Append(errs, errors.New("feature_clip should be in (0, 1]"))
	}
	if config.ScaleFactor <= 0 {
		errs = multierr.Append(errs, errors.New("scale_factor should be > 0"))
	}
	if errs != nil {
		return utils.NewConfigValidationError(path, errs)
	}
	return nil
}

// SIFTConfig contains the parameters / configs needed to compute SIFT features.
type SIFTConfig struct {
	ScaleSpace  *scalespace.Config `json:"scale_space"`
	Detector    *DetectorConfig    `json:"detector"`
	Orientation *OrientationConfig `json:"orientation"`
	Descriptor  *DescriptorConfig  `json:"descriptor"`
}

// DefaultSIFTConfig returns the parameters of the classic SIFT detector with 128-element descriptors.
func DefaultSIFTConfig() *SIFTConfig {
	return &SIFTConfig{
		ScaleSpace: scalespace.DefaultConfig(),
		Detector: &DetectorConfig{
			Neighborhood:        NB26,
			MagnitudeThreshold:  0.01,
			ExtremumMargin:      0,
			PeakThreshold:       0.01,
			MaxRefineIterations: 5,
			MaxCurvatureRatio:   10,
		},
		Orientation: &OrientationConfig{
			Bins:            36,
			SmoothingPasses: 2,
			DominantRatio:   0.8,
		},
		Descriptor: &DescriptorConfig{
			SpatialBins: 4,
			AngularBins: 8,
			SizeFactor:  10,
			FeatureClip: 0.2,
			ScaleFactor: 512,
		},
	}
}

// Validate ensures all parts of the SIFTConfig are valid.
func (config *SIFTConfig) Validate(path string) error {
	if config.ScaleSpace == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "scale_space")
	}
	if config.Detector == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "detector")
	}
	if config.Orientation == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "orientation")
	}
	if config.Descriptor == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "descriptor")
	}
	if err := config.ScaleSpace.Validate(subPath(path, "scale_space")); err != nil {
		return err
	}
	// extrema need a DoG level both below and above them
	if config.ScaleSpace.TopLevel-config.ScaleSpace.BotLevel < 3 {
		return utils.NewConfigValidationError(subPath(path, "scale_space"),
			errors.New("top_level - bot_level should be >= 3 to leave an interior DoG level"))
	}
	return multierr.Combine(
		config.Detector.Validate(subPath(path, "detector")),
		config.Orientation.Validate(subPath(path, "orientation")),
		config.Descriptor.Validate(subPath(path, "descriptor")),
	)
}

// DescriptorLength returns the number of features of every descriptor.
func (config *SIFTConfig) DescriptorLength() int {
	return config.Descriptor.SpatialBins * config.Descriptor.SpatialBins * config.Descriptor.AngularBins
}

func subPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

// LoadSIFTConfiguration loads a SIFTConfig from a json file. Fields missing from the file
// keep their default value.
func LoadSIFTConfiguration(file string) (*SIFTConfig, error) {
	config := DefaultSIFTConfig()
	if err := loadJSON(file, config); err != nil {
		return nil, err
	}
	if err := config.Validate(file); err != nil {
		return nil, err
	}
	return config, nil
}

// NewSIFTConfigFromAttributes decodes a SIFTConfig from a generic attribute map, e.g. a section
// of a larger json document. Missing fields keep their default value; unknown fields are errors.
func NewSIFTConfigFromAttributes(attributes map[string]interface{}) (*SIFTConfig, error) {
	config := DefaultSIFTConfig()
	if err := decodeAttributes(attributes, config); err != nil {
		return nil, err
	}
	if err := config.Validate(""); err != nil {
		return nil, err
	}
	return config, nil
}

func loadJSON(file string, into interface{}) (err error) {
	filePath := filepath.Clean(file)
	//nolint:gosec
	configFile, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, configFile.Close())
	}()
	jsonParser := json.NewDecoder(configFile)
	jsonParser.DisallowUnknownFields()
	if err := jsonParser.Decode(into); err != nil {
		return errors.Wrapf(err, "cannot decode %q", file)
	}
	return nil
}

func decodeAttributes(attributes map[string]interface{}, into interface{}) error {
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           into,
		Metadata:         &md,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(attributes); err != nil {
		return err
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return errors.Errorf("unknown attributes: %s", strings.Join(md.Unused, ", "))
	}
	return nil
}
