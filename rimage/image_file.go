package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	// register ppm.
	_ "github.com/lmittmann/ppm"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	// register qoi.
	_ "github.com/xfmoulet/qoi"
	// register tiff.
	_ "golang.org/x/image/tiff"
)

// FloatGrayFromImage converts any image to a FloatGray with luminance normalized to [0, 1].
func FloatGrayFromImage(img image.Image) *FloatGray {
	bounds := img.Bounds()
	out := NewFloatGray(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			out.Set(x-bounds.Min.X, y-bounds.Min.Y, float64(gray.Y)/math.MaxUint16)
		}
	}
	return out
}

// ToGray16 converts a [0, 1] normalized FloatGray back to a 16 bit image, clamping out of range
// samples.
func (g *FloatGray) ToGray16() *image.Gray16 {
	out := image.NewGray16(g.Bounds())
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			v := math.Round(math.Max(0, math.Min(1, g.At(x, y))) * math.MaxUint16)
			out.SetGray16(x, y, color.Gray16{uint16(v)})
		}
	}
	return out
}

// ToGray converts a [0, 1] normalized FloatGray to an 8 bit image.
func (g *FloatGray) ToGray() *image.Gray {
	out := image.NewGray(g.Bounds())
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			v := math.Round(math.Max(0, math.Min(1, g.At(x, y))) * math.MaxUint8)
			out.SetGray(x, y, color.Gray{uint8(v)})
		}
	}
	return out
}

// ReadImageFromFile decodes the image stored at path. Any format registered with the image
// package is accepted (png, jpeg, gif, bmp, tiff, ppm, qoi).
func ReadImageFromFile(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read image %q", path)
	}
	return img, nil
}

// ReadFloatGrayFromFile decodes the image stored at path and converts it to a normalized FloatGray.
func ReadFloatGrayFromFile(path string) (*FloatGray, error) {
	img, err := ReadImageFromFile(path)
	if err != nil {
		return nil, err
	}
	return FloatGrayFromImage(imaging.Grayscale(img)), nil
}

// ResizeFloatGray resamples a [0, 1] normalized image to width x height with bilinear
// interpolation. A zero width or height preserves the aspect ratio.
func ResizeFloatGray(img *FloatGray, width, height uint) (*FloatGray, error) {
	if width == 0 && height == 0 {
		return nil, errors.New("at least one of width and height must be set")
	}
	resized := resize.Resize(width, height, img.ToGray16(), resize.Bilinear)
	return FloatGrayFromImage(resized), nil
}

// FitFloatGray shrinks img so that neither side exceeds maxDim, keeping the aspect ratio.
// Images already small enough are returned unchanged.
func FitFloatGray(img *FloatGray, maxDim uint) *FloatGray {
	if maxDim == 0 || (uint(img.width) <= maxDim && uint(img.height) <= maxDim) {
		return img
	}
	return FloatGrayFromImage(resize.Thumbnail(maxDim, maxDim, img.ToGray16(), resize.Bilinear))
}
