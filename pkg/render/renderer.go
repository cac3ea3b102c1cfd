// Package render paints annotations, labels and geolocation text onto a bitmap.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/menta2k/image-annotator/pkg/types"
)

// Style controls how annotations are painted
type Style struct {
	BoxColor       color.NRGBA
	PendingColor   color.NRGBA
	TextColor      color.NRGBA
	TextBackground color.NRGBA
	StrokeWidth    int
	// Padding is the gap between a rectangle edge and its text.
	Padding int
	// LineGap is the extra spacing between stacked text lines.
	LineGap int
	// TopMargin is the distance from the surface top under which the label
	// moves below the rectangle's top edge.
	TopMargin float64
	Face      font.Face
}

// DefaultStyle returns red rectangles with white text on a translucent backdrop
func DefaultStyle() Style {
	return Style{
		BoxColor:       color.NRGBA{255, 0, 0, 255},
		PendingColor:   color.NRGBA{255, 0, 0, 255},
		TextColor:      color.NRGBA{255, 255, 255, 255},
		TextBackground: color.NRGBA{0, 0, 0, 128},
		StrokeWidth:    2,
		Padding:        5,
		LineGap:        2,
		TopMargin:      20,
		Face:           basicfont.Face7x13,
	}
}

// Input is everything a frame depends on
type Input struct {
	Bitmap image.Image
	Boxes  []types.Box
	// Pending is the box currently being drawn, if any.
	Pending *types.Rect
	// Geo is the current geolocation; nil omits the coordinate lines.
	Geo *types.GeoPosition
}

// TextItem is one line of overlay text with the top-left corner of its cell
type TextItem struct {
	Text string
	X    int
	Y    int
}

// Renderer composes bitmap and annotations into an output surface
type Renderer struct {
	style Style
}

// New creates a Renderer with the default style
func New() *Renderer {
	return &Renderer{style: DefaultStyle()}
}

// NewWithStyle creates a Renderer with a custom style
func NewWithStyle(style Style) *Renderer {
	if style.Face == nil {
		style.Face = basicfont.Face7x13
	}
	if style.StrokeWidth < 1 {
		style.StrokeWidth = 1
	}
	return &Renderer{style: style}
}

// Style returns the renderer's style
func (r *Renderer) Style() Style {
	return r.style
}

// Render paints a frame. The result depends only on in, so identical inputs
// always produce identical pixels.
func (r *Renderer) Render(in Input) *image.NRGBA {
	if in.Bitmap == nil {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}

	surface := imaging.Clone(in.Bitmap)

	for _, box := range in.Boxes {
		drawRect(surface, box.Rect, r.style.BoxColor, r.style.StrokeWidth)

		geo := in.Geo
		if box.Geo != nil {
			geo = box.Geo
		}
		for _, item := range r.Layout(box, geo) {
			r.drawText(surface, item)
		}
	}

	if in.Pending != nil {
		drawRect(surface, *in.Pending, r.style.PendingColor, r.style.StrokeWidth)
	}

	return surface
}

// Layout returns the overlay text lines of one box: label, date and, when geo
// is given, latitude and longitude.
func (r *Renderer) Layout(box types.Box, geo *types.GeoPosition) []TextItem {
	x0, y0, _, y1 := pixelRect(box.Rect)
	lineHeight := r.lineHeight()

	labelY := y0 - r.style.Padding - lineHeight
	if float64(y0) < r.style.TopMargin {
		labelY = y0 + r.style.Padding
	}

	items := []TextItem{{Text: box.Name, X: x0, Y: labelY}}

	y := y1 + r.style.Padding
	items = append(items, TextItem{Text: box.Date.String(), X: x0, Y: y})

	if geo != nil {
		y += lineHeight + r.style.LineGap
		items = append(items, TextItem{Text: FormatLat(geo.Lat), X: x0, Y: y})
		y += lineHeight + r.style.LineGap
		items = append(items, TextItem{Text: FormatLng(geo.Lng), X: x0, Y: y})
	}
	return items
}

// FormatLat formats a latitude overlay line
func FormatLat(lat float64) string {
	return fmt.Sprintf("Lat: %.4f", lat)
}

// FormatLng formats a longitude overlay line
func FormatLng(lng float64) string {
	return fmt.Sprintf("Lng: %.4f", lng)
}

func (r *Renderer) lineHeight() int {
	return r.style.Face.Metrics().Height.Ceil()
}

func (r *Renderer) drawText(dst *image.NRGBA, item TextItem) {
	if item.Text == "" {
		return
	}
	width := font.MeasureString(r.style.Face, item.Text).Ceil()
	bg := image.Rect(item.X, item.Y, item.X+width, item.Y+r.lineHeight())
	draw.Draw(dst, bg.Intersect(dst.Bounds()), image.NewUniform(r.style.TextBackground), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(r.style.TextColor),
		Face: r.style.Face,
		Dot:  fixed.P(item.X, item.Y+r.style.Face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(item.Text)
}

// pixelRect rounds a float rectangle to pixel edges with min/max ordering
func pixelRect(rect types.Rect) (int, int, int, int) {
	minX, minY, maxX, maxY := rect.Normalized()
	x0 := int(math.Floor(minX + 0.5))
	y0 := int(math.Floor(minY + 0.5))
	x1 := int(math.Floor(maxX + 0.5))
	y1 := int(math.Floor(maxY + 0.5))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return x0, y0, x1, y1
}

func drawRect(img *image.NRGBA, rect types.Rect, c color.NRGBA, stroke int) {
	x0, y0, x1, y1 := pixelRect(rect)
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= b.Min.X || x0 >= b.Max.X {
		return
	}
	if x0 < b.Min.X {
		x0 = b.Min.X
	}
	if x1 > b.Max.X {
		x1 = b.Max.X
	}
	i := img.PixOffset(x0, y)
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= b.Min.Y || y0 >= b.Max.Y {
		return
	}
	if y0 < b.Min.Y {
		y0 = b.Min.Y
	}
	if y1 > b.Max.Y {
		y1 = b.Max.Y
	}
	i := img.PixOffset(x, y0)
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
