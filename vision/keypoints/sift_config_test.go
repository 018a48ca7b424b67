package keypoints

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/sift/utils"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	test.That(t, os.WriteFile(path, []byte(content), 0o600), test.ShouldBeNil)
	return path
}

func TestDefaultSIFTConfig(t *testing.T) {
	cfg := DefaultSIFTConfig()
	test.That(t, cfg.Validate("sift"), test.ShouldBeNil)
	test.That(t, cfg.ScaleSpace.LevelsPerOctave, test.ShouldEqual, 3)
	test.That(t, cfg.Detector.Neighborhood, test.ShouldEqual, NB26)
	test.That(t, cfg.Orientation.Bins, test.ShouldEqual, 36)
	test.That(t, cfg.DescriptorLength(), test.ShouldEqual, 128)
}

func TestSIFTConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		modify func(cfg *SIFTConfig)
		errMsg string
	}{
		{"missing scale space", func(cfg *SIFTConfig) { cfg.ScaleSpace = nil }, `"scale_space" is required`},
		{"missing detector", func(cfg *SIFTConfig) { cfg.Detector = nil }, `"detector" is required`},
		{"missing orientation", func(cfg *SIFTConfig) { cfg.Orientation = nil }, `"orientation" is required`},
		{"missing descriptor", func(cfg *SIFTConfig) { cfg.Descriptor = nil }, `"descriptor" is required`},
		{"scale space", func(cfg *SIFTConfig) { cfg.ScaleSpace.BaseSigma = 0 }, "base_sigma"},
		{"no interior level", func(cfg *SIFTConfig) {
			cfg.ScaleSpace.Octaves = 1
			cfg.ScaleSpace.BotLevel = 0
			cfg.ScaleSpace.TopLevel = 2
		}, "interior DoG level"},
		{"neighborhood", func(cfg *SIFTConfig) { cfg.Detector.Neighborhood = 6 }, "neighborhood"},
		{"refine", func(cfg *SIFTConfig) { cfg.Detector.MaxRefineIterations = 0 }, "max_refine_iterations"},
		{"curvature", func(cfg *SIFTConfig) { cfg.Detector.MaxCurvatureRatio = 0 }, "max_curvature_ratio"},
		{"bins", func(cfg *SIFTConfig) { cfg.Orientation.Bins = 2 }, "bins"},
		{"ratio", func(cfg *SIFTConfig) { cfg.Orientation.DominantRatio = 1.2 }, "dominant_ratio"},
		{"clip", func(cfg *SIFTConfig) { cfg.Descriptor.FeatureClip = 0 }, "feature_clip"},
		{"spatial", func(cfg *SIFTConfig) { cfg.Descriptor.SpatialBins = 0 }, "spatial_bins"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultSIFTConfig()
			tc.modify(cfg)
			err := cfg.Validate("sift")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errMsg)
		})
	}

	// independent sections report together
	cfg := DefaultSIFTConfig()
	cfg.Detector.PeakThreshold = -1
	cfg.Descriptor.ScaleFactor = 0
	err := cfg.Validate("sift")
	test.That(t, err.Error(), test.ShouldContainSubstring, "peak_threshold")
	test.That(t, err.Error(), test.ShouldContainSubstring, "scale_factor")
}

func TestLoadSIFTConfiguration(t *testing.T) {
	path := writeConfigFile(t, `{
		"scale_space": {"octaves": 3},
		"detector": {"neighborhood": 18, "peak_threshold": 0.02},
		"descriptor": {"angular_bins": 4}
	}`)
	cfg, err := LoadSIFTConfiguration(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ScaleSpace.Octaves, test.ShouldEqual, 3)
	test.That(t, cfg.ScaleSpace.BaseSigma, test.ShouldEqual, 1.6)
	test.That(t, cfg.Detector.Neighborhood, test.ShouldEqual, NB18)
	test.That(t, cfg.Detector.PeakThreshold, test.ShouldEqual, 0.02)
	test.That(t, cfg.Detector.MaxRefineIterations, test.ShouldEqual, 5)
	test.That(t, cfg.DescriptorLength(), test.ShouldEqual, 64)

	_, err = LoadSIFTConfiguration(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = LoadSIFTConfiguration(writeConfigFile(t, `{"detector": {"neighborhood": 7}}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "neighborhood")

	_, err = LoadSIFTConfiguration(writeConfigFile(t, `{"detektor": {}}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "detektor")
}

func TestNewSIFTConfigFromAttributes(t *testing.T) {
	cfg, err := NewSIFTConfigFromAttributes(map[string]interface{}{
		"scale_space": map[string]interface{}{"levels_per_octave": "4", "top_level": 5},
		"orientation": map[string]interface{}{"smoothing_passes": 3},
		"detector":    map[string]interface{}{"keep_orientation_histograms": true},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ScaleSpace.LevelsPerOctave, test.ShouldEqual, 4)
	test.That(t, cfg.ScaleSpace.TopLevel, test.ShouldEqual, 5)
	test.That(t, cfg.ScaleSpace.Octaves, test.ShouldEqual, 4)
	test.That(t, cfg.Orientation.SmoothingPasses, test.ShouldEqual, 3)
	test.That(t, cfg.Orientation.Bins, test.ShouldEqual, 36)
	test.That(t, cfg.Detector.KeepOrientationHistograms, test.ShouldBeTrue)

	_, err = NewSIFTConfigFromAttributes(map[string]interface{}{"orientation": map[string]interface{}{"binz": 3}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "binz")

	_, err = NewSIFTConfigFromAttributes(map[string]interface{}{"descriptor": map[string]interface{}{"size_factor": -1}})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLoadMatchingConfiguration(t *testing.T) {
	test.That(t, DefaultMatchingConfig().Validate("match"), test.ShouldBeNil)

	cfg, err := LoadMatchingConfiguration(writeConfigFile(t, `{"norm": "L1", "ratio_max": 0.7}`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Norm, test.ShouldEqual, utils.NormL1)
	test.That(t, cfg.RatioMax, test.ShouldEqual, 0.7)
	test.That(t, cfg.Sort, test.ShouldBeTrue)

	_, err = LoadMatchingConfiguration(writeConfigFile(t, `{"norm": "L3"}`))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = LoadMatchingConfiguration(writeConfigFile(t, `{"ratio_max": 0}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "ratio_max")
}
