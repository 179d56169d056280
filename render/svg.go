package render

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo/float"
)

// SVGSurface writes drawing operations as SVG elements.
type SVGSurface struct {
	canvas   *svg.SVG
	width    float64
	height   float64
	fill     string
	fontSize float64
	anchor   string
	baseline string
}

// NewSVGSurface starts an SVG document of the given size on w. Close must be
// called to finish the document.
func NewSVGSurface(w io.Writer, width, height float64) *SVGSurface {
	canvas := svg.New(w)
	canvas.Decimals = 1
	canvas.Start(width, height)
	return &SVGSurface{
		canvas:   canvas,
		width:    width,
		height:   height,
		fill:     "#000000",
		fontSize: 12,
		anchor:   "start",
		baseline: "hanging",
	}
}

func (s *SVGSurface) Size() (float64, float64) {
	return s.width, s.height
}

func (s *SVGSurface) SetFillColor(color string) {
	s.fill = color
}

func (s *SVGSurface) SetFont(sizePx float64) {
	s.fontSize = sizePx
}

func (s *SVGSurface) SetTextAlign(h HAlign, v VAlign) {
	switch h {
	case AlignCenter:
		s.anchor = "middle"
	case AlignRight:
		s.anchor = "end"
	default:
		s.anchor = "start"
	}
	switch v {
	case AlignMiddle:
		s.baseline = "middle"
	case AlignBottom:
		s.baseline = "alphabetic"
	default:
		s.baseline = "hanging"
	}
}

func (s *SVGSurface) FillRect(x, y, w, h float64) {
	s.canvas.Rect(x, y, w, h, "fill:"+s.fill)
}

func (s *SVGSurface) FillText(text string, x, y float64) {
	style := fmt.Sprintf(
		"fill:%s;font-family:Arial,sans-serif;font-size:%gpx;text-anchor:%s;dominant-baseline:%s",
		s.fill, s.fontSize, s.anchor, s.baseline,
	)
	s.canvas.Text(x, y, text, style)
}

// Close ends the SVG document.
func (s *SVGSurface) Close() {
	s.canvas.End()
}
