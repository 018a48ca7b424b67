package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

// init sets up the fonts we want to use.
func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Font returns the font we use for drawing.
func Font() *truetype.Font {
	return font
}

// DrawString writes a string to the given context at a particular point.
func DrawString(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringWrapped(text, float64(p.X), float64(p.Y), 0, 0, float64(dc.Width()), 1, 0)
}

// DrawOrientedCircle draws an empty circle of radius r centered on (x, y) and a tick from its
// center to its edge in the direction angle, measured in radians from the x axis towards y.
func DrawOrientedCircle(dc *gg.Context, x, y, r, angle float64, circle, tick color.Color, width float64) {
	dc.SetLineWidth(width)
	dc.SetColor(circle)
	dc.DrawCircle(x, y, r)
	dc.Stroke()

	dc.SetColor(tick)
	dc.DrawLine(x, y, x+r*math.Cos(angle), y+r*math.Sin(angle))
	dc.Stroke()
}
