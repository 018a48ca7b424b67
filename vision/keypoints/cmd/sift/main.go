// Package main is a command line tool that detects SIFT keypoints in images and matches them.
package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"go.viam.com/sift/logging"
	"go.viam.com/sift/rimage"
	"go.viam.com/sift/utils"
	"go.viam.com/sift/vision/keypoints"
	"go.viam.com/sift/vision/keypoints/keyfile"
)

const (
	// Flags.
	flagConfig = "config"
	flagOut    = "out"
	flagFormat = "format"
	flagPlot   = "plot"
	flagMaxDim = "max-dim"
	flagRatio  = "ratio"
	flagNorm   = "norm"
	flagTop    = "top"
	flagDebug  = "debug"
)

var keyFileExtensions = []string{".key", ".keys", ".txt", ".sift"}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		logging.Global().Error(err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	var logger logging.Logger
	return &cli.App{
		Name:      "sift",
		Usage:     "detect and match scale invariant keypoints",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("sift")
			} else {
				logger = logging.NewLogger("sift")
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if logger == nil {
				return nil
			}
			return logger.Sync()
		},
		Commands: []*cli.Command{
			{
				Name:      "detect",
				Usage:     "detect keypoints in an image and write their descriptors to a key file",
				ArgsUsage: "<image>",
				Flags: append(detectorFlags(),
					&cli.StringFlag{
						Name:  flagOut,
						Usage: "write the descriptors to `FILE`",
					},
					&cli.StringFlag{
						Name:  flagFormat,
						Value: keyfile.FormatVLFeat.String(),
						Usage: "key file format, vlfeat or lowe",
					},
					&cli.StringFlag{
						Name:  flagPlot,
						Usage: "draw the keypoints over the image into `PNG`",
					},
				),
				Action: func(c *cli.Context) error {
					return detectAction(c, logger)
				},
			},
			{
				Name:      "match",
				Usage:     "match the descriptors of two images or key files",
				ArgsUsage: "<image|keyfile> <image|keyfile>",
				Flags: append(detectorFlags(),
					&cli.Float64Flag{
						Name:  flagRatio,
						Value: keypoints.DefaultMatchingConfig().RatioMax,
						Usage: "maximum ratio between the best and second best distance",
					},
					&cli.StringFlag{
						Name:  flagNorm,
						Value: utils.NormL2.String(),
						Usage: "descriptor distance, L1, L2 or Linf",
					},
					&cli.IntFlag{
						Name:  flagTop,
						Value: 10,
						Usage: "print the `N` best matches",
					},
					&cli.StringFlag{
						Name:  flagPlot,
						Usage: "draw the matches between both images into `PNG`",
					},
				),
				Action: func(c *cli.Context) error {
					return matchAction(c, logger)
				},
			},
		},
	}
}

// detectorFlags are shared by every command that detects keypoints.
func detectorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "load the SIFT configuration from `FILE`",
		},
		&cli.UintFlag{
			Name:  flagMaxDim,
			Usage: "shrink input images so that no side exceeds `N` pixels",
		},
	}
}

func newDetector(c *cli.Context, logger logging.Logger) (*keypoints.SIFTDetector, error) {
	cfg := keypoints.DefaultSIFTConfig()
	if path := c.String(flagConfig); path != "" {
		var err error
		cfg, err = keypoints.LoadSIFTConfiguration(path)
		if err != nil {
			return nil, err
		}
	}
	return keypoints.NewSIFTDetector(cfg, logger.Sublogger("detector"))
}

func readImage(c *cli.Context, path string) (*rimage.FloatGray, error) {
	img, err := rimage.ReadFloatGrayFromFile(path)
	if err != nil {
		return nil, err
	}
	return rimage.FitFloatGray(img, c.Uint(flagMaxDim)), nil
}

func detectAction(c *cli.Context, logger logging.Logger) error {
	if c.NArg() != 1 {
		return errors.New("detect expects exactly one image")
	}
	format, err := keyfile.FormatFromString(c.String(flagFormat))
	if err != nil {
		return err
	}
	detector, err := newDetector(c, logger)
	if err != nil {
		return err
	}
	img, err := readImage(c, c.Args().First())
	if err != nil {
		return err
	}
	descs, err := detector.Detect(c.Context, img)
	if err != nil {
		return err
	}
	logger.Infow("detected keypoints", "image", c.Args().First(), "descriptors", len(descs))

	if out := c.String(flagOut); out != "" {
		if err := keyfile.WriteFile(out, descs, format); err != nil {
			return err
		}
	}
	if plot := c.String(flagPlot); plot != "" {
		if err := keypoints.PlotKeypoints(img.ToGray(), descs, plot); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(c.App.Writer, detectionTable(descs, detector.Config().ScaleSpace.BaseSigma))
	return err
}

// detectionTable summarizes descriptors per octave of scale.
func detectionTable(descs []keypoints.SIFTDescriptor, baseSigma float64) string {
	byOctave := lo.GroupBy(descs, func(d keypoints.SIFTDescriptor) int {
		return int(math.Floor(math.Log2(d.Scale/baseSigma) + 1e-9))
	})
	octaves := lo.Keys(byOctave)
	sort.Ints(octaves)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Octave", "Descriptors", "Min scale", "Max scale"})
	for _, p := range octaves {
		scales := lo.Map(byOctave[p], func(d keypoints.SIFTDescriptor, _ int) float64 { return d.Scale })
		t.AppendRow(table.Row{p, len(scales), fmt.Sprintf("%.2f", lo.Min(scales)), fmt.Sprintf("%.2f", lo.Max(scales))})
	}
	t.AppendFooter(table.Row{"Total", len(descs), "", ""})
	return t.Render()
}

func isKeyFile(path string) bool {
	return lo.Contains(keyFileExtensions, strings.ToLower(filepath.Ext(path)))
}

// loadDescriptors reads a key file, or detects the descriptors of an image. img is nil for key files.
func loadDescriptors(
	c *cli.Context,
	detector *keypoints.SIFTDetector,
	path string,
) ([]keypoints.SIFTDescriptor, *rimage.FloatGray, error) {
	if isKeyFile(path) {
		descs, err := keyfile.ReadFile(path)
		return descs, nil, err
	}
	img, err := readImage(c, path)
	if err != nil {
		return nil, nil, err
	}
	descs, err := detector.Detect(c.Context, img)
	return descs, img, err
}

func matchAction(c *cli.Context, logger logging.Logger) error {
	if c.NArg() != 2 {
		return errors.New("match expects two images or key files")
	}
	norm, err := utils.NormTypeFromString(c.String(flagNorm))
	if err != nil {
		return err
	}
	cfg := keypoints.DefaultMatchingConfig()
	cfg.Norm = norm
	cfg.RatioMax = c.Float64(flagRatio)
	if err := cfg.Validate(""); err != nil {
		return err
	}
	detector, err := newDetector(c, logger)
	if err != nil {
		return err
	}

	descs1, img1, err := loadDescriptors(c, detector, c.Args().Get(0))
	if err != nil {
		return err
	}
	descs2, img2, err := loadDescriptors(c, detector, c.Args().Get(1))
	if err != nil {
		return err
	}
	matches, err := keypoints.MatchSIFTDescriptors(c.Context, descs1, descs2, cfg)
	if err != nil {
		return err
	}
	logger.Infow("matched descriptors", "first", len(descs1), "second", len(descs2), "matches", len(matches))

	if plot := c.String(flagPlot); plot != "" {
		if img1 == nil || img2 == nil {
			return errors.New("plotting matches needs two images")
		}
		if err := keypoints.PlotMatches(img1.ToGray(), img2.ToGray(), matches, plot); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(c.App.Writer, matchTable(matches, c.Int(flagTop)))
	return err
}

func matchTable(matches []keypoints.SIFTMatch, top int) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "X1", "Y1", "X2", "Y2", "Distance"})
	for i, m := range matches {
		if top >= 0 && i >= top {
			break
		}
		t.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%.1f", m.Descriptor1.X),
			fmt.Sprintf("%.1f", m.Descriptor1.Y),
			fmt.Sprintf("%.1f", m.Descriptor2.X),
			fmt.Sprintf("%.1f", m.Descriptor2.Y),
			fmt.Sprintf("%.2f", m.Distance),
		})
	}
	median := "-"
	if m, err := stats.Median(lo.Map(matches, func(m keypoints.SIFTMatch, _ int) float64 {
		return m.Distance
	})); err == nil {
		median = fmt.Sprintf("%.2f", m)
	}
	t.AppendFooter(table.Row{"Total", len(matches), "", "", "Median", median})
	return t.Render()
}
