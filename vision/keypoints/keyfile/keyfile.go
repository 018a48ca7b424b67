// Package keyfile reads and writes SIFT descriptors as text key files.
//
// Two layouts are supported. FormatVLFeat writes one descriptor per line:
//
//	x y scale orientation f1 f2 ... fN
//
// FormatLowe starts with a "count length" header, followed for every descriptor by a
// "y x scale orientation" line and its features, 20 per line.
package keyfile

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/sift/vision/keypoints"
)

// Format is the layout of a key file.
type Format int

const (
	// FormatVLFeat stores one descriptor per line.
	FormatVLFeat Format = iota
	// FormatLowe is the layout of the original SIFT demo program.
	FormatLowe
)

// featuresPerLine is the number of features per line in FormatLowe.
const featuresPerLine = 20

// String returns the name of the format.
func (f Format) String() string {
	switch f {
	case FormatVLFeat:
		return "vlfeat"
	case FormatLowe:
		return "lowe"
	default:
		return "unknown"
	}
}

// FormatFromString parses "vlfeat" or "lowe" (case insensitive).
func FormatFromString(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "vlfeat", "":
		return FormatVLFeat, nil
	case "lowe":
		return FormatLowe, nil
	default:
		return FormatVLFeat, errors.Errorf("unknown key file format %q", s)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFeatures(features []int) string {
	return strings.Join(lo.Map(features, func(f, _ int) string { return strconv.Itoa(f) }), " ")
}

// Write writes descs to w in the given format. All descriptors must have the same length.
func Write(w io.Writer, descs []keypoints.SIFTDescriptor, format Format) error {
	if len(descs) > 0 {
		n := descs[0].Len()
		if _, bad := lo.Find(descs, func(d keypoints.SIFTDescriptor) bool { return d.Len() != n }); bad {
			return errors.New("all descriptors of a key file must have the same length")
		}
	}
	bw := bufio.NewWriter(w)
	var err error
	switch format {
	case FormatVLFeat:
		err = writeVLFeat(bw, descs)
	case FormatLowe:
		err = writeLowe(bw, descs)
	default:
		return errors.Errorf("unknown key file format %d", int(format))
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

func writeVLFeat(w *bufio.Writer, descs []keypoints.SIFTDescriptor) error {
	for _, d := range descs {
		fields := []string{formatFloat(d.X), formatFloat(d.Y), formatFloat(d.Scale), formatFloat(d.Orientation)}
		if d.Len() > 0 {
			fields = append(fields, formatFeatures(d.Features))
		}
		if _, err := w.WriteString(strings.Join(fields, " ") + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func writeLowe(w *bufio.Writer, descs []keypoints.SIFTDescriptor) error {
	length := 0
	if len(descs) > 0 {
		length = descs[0].Len()
	}
	if _, err := w.WriteString(strconv.Itoa(len(descs)) + " " + strconv.Itoa(length) + "\n"); err != nil {
		return err
	}
	for _, d := range descs {
		header := strings.Join([]string{
			formatFloat(d.Y), formatFloat(d.X), formatFloat(d.Scale), formatFloat(d.Orientation),
		}, " ")
		if _, err := w.WriteString(header + "\n"); err != nil {
			return err
		}
		for _, chunk := range lo.Chunk(d.Features, featuresPerLine) {
			if _, err := w.WriteString(" " + formatFeatures(chunk) + "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteFile writes descs to the file at path, creating or truncating it.
func WriteFile(path string, descs []keypoints.SIFTDescriptor, format Format) (err error) {
	//nolint:gosec
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return Write(f, descs, format)
}

// ReadFile reads the key file at path, detecting its format.
func ReadFile(path string) (descs []keypoints.SIFTDescriptor, err error) {
	//nolint:gosec
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	descs, err = Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read key file %q", path)
	}
	return descs, nil
}
