package keypoints

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/sift/logging"
	"go.viam.com/sift/rimage"
	"go.viam.com/sift/utils"
	"go.viam.com/sift/vision/scalespace"
)

// SIFTDetector finds SIFT keypoints in images and computes their descriptors.
// A detector holds no per-image state and may be used concurrently.
type SIFTDetector struct {
	cfg    *SIFTConfig
	blur   scalespace.BlurFunc
	logger logging.Logger
}

// NewSIFTDetector returns a detector for the given config. A nil config uses DefaultSIFTConfig.
func NewSIFTDetector(cfg *SIFTConfig, logger logging.Logger) (*SIFTDetector, error) {
	if cfg == nil {
		cfg = DefaultSIFTConfig()
	}
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Global().Sublogger("sift")
	}
	return &SIFTDetector{cfg: cfg, blur: rimage.GaussianBlurFloat, logger: logger}, nil
}

// Config returns the configuration of the detector.
func (d *SIFTDetector) Config() *SIFTConfig {
	return d.cfg
}

// pyramid holds everything detection reads once it is built: the gaussian and DoG scale spaces
// and the gradients of every gaussian level.
type pyramid struct {
	gauss     *scalespace.ScaleSpace
	dog       *scalespace.ScaleSpace
	gradients [][]*rimage.VectorField2D
}

// gradient returns the gradient field of gaussian level (p, q).
func (pyr *pyramid) gradient(p, q int) *rimage.VectorField2D {
	return pyr.gradients[p][q-pyr.gauss.BotLevel()]
}

func (d *SIFTDetector) buildPyramid(ctx context.Context, img *rimage.FloatGray) (*pyramid, error) {
	gauss, err := scalespace.NewGaussianScaleSpace(img, d.cfg.ScaleSpace, d.blur)
	if err != nil {
		return nil, errors.Wrap(err, "cannot build the gaussian scale space")
	}
	dog, err := scalespace.NewDoGScaleSpace(gauss)
	if err != nil {
		return nil, errors.Wrap(err, "cannot build the DoG scale space")
	}
	nLevels := gauss.TopLevel() - gauss.BotLevel() + 1
	gradients := make([][]*rimage.VectorField2D, gauss.NumOctaves())
	for p := range gradients {
		gradients[p] = make([]*rimage.VectorField2D, nLevels)
	}
	err = utils.ParallelForEachIndex(ctx, gauss.NumOctaves()*nLevels, func(i int) {
		p, k := i/nLevels, i%nLevels
		gradients[p][k] = rimage.CentralGradientField(gauss.Level(p, gauss.BotLevel()+k).FloatGray)
	})
	if err != nil {
		return nil, err
	}
	return &pyramid{gauss: gauss, dog: dog, gradients: gradients}, nil
}

// Detect finds the keypoints of img and returns one descriptor per (keypoint, orientation).
func (d *SIFTDetector) Detect(ctx context.Context, img *rimage.FloatGray) ([]SIFTDescriptor, error) {
	_, descs, err := d.detect(ctx, img)
	return descs, err
}

// DetectKeyPoints finds the refined and oriented keypoints of img. The i-th keypoint
// corresponds to the i-th descriptor returned by Detect.
func (d *SIFTDetector) DetectKeyPoints(ctx context.Context, img *rimage.FloatGray) ([]KeyPoint, error) {
	kps, _, err := d.detect(ctx, img)
	return kps, err
}

func (d *SIFTDetector) detect(ctx context.Context, img *rimage.FloatGray) ([]KeyPoint, []SIFTDescriptor, error) {
	start := time.Now()
	pyr, err := d.buildPyramid(ctx, img)
	if err != nil {
		return nil, nil, err
	}
	d.logger.Debugw("built scale spaces", "octaves", pyr.gauss.NumOctaves(), "width", img.Width(), "height", img.Height())
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	candidates, err := d.findExtrema(ctx, pyr.dog)
	if err != nil {
		return nil, nil, err
	}
	d.logger.Debugw("found extrema", "candidates", len(candidates))

	keyPoints := make([][]KeyPoint, len(candidates))
	descs := make([][]SIFTDescriptor, len(candidates))
	err = utils.GroupWorkParallel(
		ctx,
		len(candidates),
		nil,
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				kp, ok := d.refineKeyPoint(pyr.dog, candidates[workNum])
				if !ok {
					return
				}
				grad := pyr.gradient(kp.P, kp.Q)
				oriented := d.assignOrientations(grad, pyr.gauss, kp)
				kpDescs := make([]SIFTDescriptor, len(oriented))
				for i, okp := range oriented {
					kpDescs[i] = d.makeDescriptor(grad, pyr.gauss, okp)
				}
				keyPoints[workNum] = oriented
				descs[workNum] = kpDescs
			}, nil
		},
	)
	if err != nil {
		return nil, nil, err
	}
	oriented := lo.CountBy(keyPoints, func(kps []KeyPoint) bool { return len(kps) > 0 })
	out := lo.Flatten(descs)
	d.logger.Debugw("described keypoints",
		"keypoints", oriented,
		"descriptors", len(out),
		"elapsed", time.Since(start))
	return lo.Flatten(keyPoints), out, nil
}
