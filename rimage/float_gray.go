package rimage

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// FloatGray is a single channel image of float64 samples stored row-major.
// Samples are unbounded; images decoded with FloatGrayFromImage are normalized to [0, 1].
type FloatGray struct {
	width  int
	height int
	data   []float64
}

// NewFloatGray returns a zero valued width x height image.
func NewFloatGray(width, height int) *FloatGray {
	return &FloatGray{width, height, make([]float64, width*height)}
}

// NewFloatGrayFromData wraps data as a width x height image. The slice is not copied.
func NewFloatGrayFromData(width, height int, data []float64) (*FloatGray, error) {
	if width < 0 || height < 0 {
		return nil, errors.Errorf("invalid image size %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Errorf("data has %d samples, a %dx%d image needs %d", len(data), width, height, width*height)
	}
	return &FloatGray{width, height, data}, nil
}

// FloatGrayFromDense copies a gonum matrix into an image; rows map to y and columns to x.
func FloatGrayFromDense(m *mat.Dense) *FloatGray {
	h, w := m.Dims()
	img := NewFloatGray(w, h)
	for y := 0; y < h; y++ {
		mat.Row(img.data[y*w:(y+1)*w], y, m)
	}
	return img
}

func (g *FloatGray) kxy(x, y int) int {
	return (y * g.width) + x
}

// Width returns the number of columns.
func (g *FloatGray) Width() int {
	return g.width
}

// Height returns the number of rows.
func (g *FloatGray) Height() int {
	return g.height
}

// Bounds returns the image rectangle anchored at the origin.
func (g *FloatGray) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.width, g.height)
}

// In reports whether (x, y) is a valid sample position.
func (g *FloatGray) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// At returns the sample at (x, y).
func (g *FloatGray) At(x, y int) float64 {
	return g.data[g.kxy(x, y)]
}

// Set stores v at (x, y).
func (g *FloatGray) Set(x, y int, v float64) {
	g.data[g.kxy(x, y)] = v
}

// Data exposes the row-major sample buffer.
func (g *FloatGray) Data() []float64 {
	return g.data
}

// Row returns the samples of row y, sharing the underlying buffer.
func (g *FloatGray) Row(y int) []float64 {
	return g.data[y*g.width : (y+1)*g.width]
}

// Clone returns a deep copy of the image.
func (g *FloatGray) Clone() *FloatGray {
	data := make([]float64, len(g.data))
	copy(data, g.data)
	return &FloatGray{g.width, g.height, data}
}

// SameSize reports whether both images have the same dimensions.
func (g *FloatGray) SameSize(other *FloatGray) bool {
	return g.width == other.width && g.height == other.height
}

// Decimate returns a new image of half the resolution made of every second row and column,
// i.e. out(x, y) = g(2x, 2y).
func (g *FloatGray) Decimate() (*FloatGray, error) {
	w, h := g.width/2, g.height/2
	if w == 0 || h == 0 {
		return nil, errors.Errorf("cannot decimate a %dx%d image", g.width, g.height)
	}
	out := NewFloatGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.data[out.kxy(x, y)] = g.data[g.kxy(2*x, 2*y)]
		}
	}
	return out, nil
}

// Subtract returns a new image holding a - b pixelwise.
func Subtract(a, b *FloatGray) (*FloatGray, error) {
	if !a.SameSize(b) {
		return nil, errors.Errorf("these images aren't the same size (%d %d) != (%d %d)",
			a.width, a.height, b.width, b.height)
	}
	out := a.Clone()
	for i, v := range b.data {
		out.data[i] -= v
	}
	return out, nil
}

// MinMax returns the smallest and largest samples. An empty image returns (0, 0).
func (g *FloatGray) MinMax() (float64, float64) {
	if len(g.data) == 0 {
		return 0, 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range g.data {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// ToDense copies the image into a gonum matrix with one row per image row.
func (g *FloatGray) ToDense() *mat.Dense {
	data := make([]float64, len(g.data))
	copy(data, g.data)
	return mat.NewDense(g.height, g.width, data)
}
