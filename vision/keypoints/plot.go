package keypoints

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"go.viam.com/sift/rimage"
)

const (
	// plotRadiusFactor is the radius of a plotted keypoint in units of its scale.
	plotRadiusFactor = 2.0
	plotLabelSize    = 12.0
)

var (
	circleColor = color.RGBA{0, 200, 0, 200}
	tickColor   = color.RGBA{220, 0, 0, 200}
	matchColor  = color.RGBA{230, 230, 0, 180}
	labelColor  = color.RGBA{255, 255, 255, 255}
)

func drawDescriptors(dc *gg.Context, descs []SIFTDescriptor, offsetX float64) {
	for i := range descs {
		d := &descs[i]
		rimage.DrawOrientedCircle(dc, d.X+offsetX, d.Y, plotRadiusFactor*d.Scale, d.Orientation, circleColor, tickColor, 1.5)
	}
}

// PlotKeypoints plots descriptors on image as circles of radius proportional to their scale,
// with a tick in the direction of their orientation, and saves the result as a png.
func PlotKeypoints(img image.Image, descs []SIFTDescriptor, outName string) error {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	dc := gg.NewContext(w, h)
	dc.DrawImage(img, 0, 0)
	drawDescriptors(dc, descs, 0)
	rimage.DrawString(dc, fmt.Sprintf("%d keypoints", len(descs)), image.Point{4, 4}, labelColor, plotLabelSize)
	return dc.SavePNG(outName)
}

// PlotMatches draws both images side by side and links the matched descriptors, then saves
// the result as a png.
func PlotMatches(img1, img2 image.Image, matches []SIFTMatch, outName string) error {
	w1, h1 := img1.Bounds().Dx(), img1.Bounds().Dy()
	w2, h2 := img2.Bounds().Dx(), img2.Bounds().Dy()
	h := h1
	if h2 > h {
		h = h2
	}

	dc := gg.NewContext(w1+w2, h)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.DrawImage(img1, 0, 0)
	dc.DrawImage(img2, w1, 0)

	offset := float64(w1)
	descs1 := make([]SIFTDescriptor, 0, len(matches))
	descs2 := make([]SIFTDescriptor, 0, len(matches))
	for _, m := range matches {
		descs1 = append(descs1, *m.Descriptor1)
		descs2 = append(descs2, *m.Descriptor2)
	}
	drawDescriptors(dc, descs1, 0)
	drawDescriptors(dc, descs2, offset)

	dc.SetColor(matchColor)
	dc.SetLineWidth(1)
	for _, m := range matches {
		dc.DrawLine(m.Descriptor1.X, m.Descriptor1.Y, m.Descriptor2.X+offset, m.Descriptor2.Y)
		dc.Stroke()
	}
	rimage.DrawString(dc, fmt.Sprintf("%d matches", len(matches)), image.Point{4, 4}, labelColor, plotLabelSize)
	return dc.SavePNG(outName)
}
