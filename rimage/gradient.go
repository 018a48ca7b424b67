package rimage

import (
	"image"
	"math"

	"go.viam.com/sift/utils"
)

// Vec2D represents the gradient of an image at a point.
// The gradient has both a magnitude and direction.
// Magnitude has values [0, infinity) and direction is [0, 2pi).
type Vec2D struct {
	magnitude float64
	direction float64
}

// Magnitude returns the gradient magnitude.
func (g Vec2D) Magnitude() float64 {
	return g.magnitude
}

// Direction returns the gradient direction in [0, 2pi).
func (g Vec2D) Direction() float64 {
	return g.direction
}

// VectorField2D stores all the gradient vectors of the image
// allowing one to retrieve the gradient for any given (x,y) point.
type VectorField2D struct {
	width  int
	height int

	data         []Vec2D
	maxMagnitude float64
}

func (vf *VectorField2D) kxy(x, y int) int {
	return (y * vf.width) + x
}

// Width returns the width of the field.
func (vf *VectorField2D) Width() int {
	return vf.width
}

// Height returns the height of the field.
func (vf *VectorField2D) Height() int {
	return vf.height
}

// MaxMagnitude returns the largest magnitude stored in the field.
func (vf *VectorField2D) MaxMagnitude() float64 {
	return vf.maxMagnitude
}

// Get returns the gradient at p.
func (vf *VectorField2D) Get(p image.Point) Vec2D {
	return vf.data[vf.kxy(p.X, p.Y)]
}

// GetVec2D returns the gradient at (x, y).
func (vf *VectorField2D) GetVec2D(x, y int) Vec2D {
	return vf.data[vf.kxy(x, y)]
}

// MakeEmptyVectorField2D returns a field of zero gradients.
func MakeEmptyVectorField2D(width, height int) VectorField2D {
	vf := VectorField2D{
		width:        width,
		height:       height,
		data:         make([]Vec2D, width*height),
		maxMagnitude: 0.0,
	}

	return vf
}

// CentralGradientField computes the gradient of every interior pixel of img with central
// differences, dx = (I(x+1,y) - I(x-1,y)) / 2 and dy = (I(x,y+1) - I(x,y-1)) / 2.
// Border pixels keep a zero gradient.
func CentralGradientField(img *FloatGray) *VectorField2D {
	vf := MakeEmptyVectorField2D(img.width, img.height)
	utils.ParallelForEachPixel(image.Point{img.width, img.height}, func(u, v int) {
		if u < 1 || v < 1 || u >= img.width-1 || v >= img.height-1 {
			return
		}
		dx := 0.5 * (img.At(u+1, v) - img.At(u-1, v))
		dy := 0.5 * (img.At(u, v+1) - img.At(u, v-1))
		vf.data[vf.kxy(u, v)] = Vec2D{math.Hypot(dx, dy), utils.ModTwoPi(math.Atan2(dy, dx))}
	})
	for _, g := range vf.data {
		vf.maxMagnitude = math.Max(g.magnitude, vf.maxMagnitude)
	}
	return &vf
}
