package render

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce sync.Once
	fontErr  error
	textFont *truetype.Font
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		textFont, fontErr = truetype.Parse(goregular.TTF)
	})
	return textFont, fontErr
}

// PNGSurface rasterizes drawing operations into an RGBA image.
type PNGSurface struct {
	dc     *gg.Context
	font   *truetype.Font
	ax, ay float64
}

// NewPNGSurface returns a raster surface of the given size, rounded up to
// whole pixels.
func NewPNGSurface(width, height float64) (*PNGSurface, error) {
	f, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	dc := gg.NewContext(int(math.Ceil(width)), int(math.Ceil(height)))
	return &PNGSurface{dc: dc, font: f}, nil
}

func (s *PNGSurface) Size() (float64, float64) {
	return float64(s.dc.Width()), float64(s.dc.Height())
}

func (s *PNGSurface) SetFillColor(color string) {
	s.dc.SetHexColor(color)
}

func (s *PNGSurface) SetFont(sizePx float64) {
	// truetype sizes are in points at 72 DPI, so points equal pixels.
	s.dc.SetFontFace(truetype.NewFace(s.font, &truetype.Options{Size: sizePx}))
}

func (s *PNGSurface) SetTextAlign(h HAlign, v VAlign) {
	switch h {
	case AlignCenter:
		s.ax = 0.5
	case AlignRight:
		s.ax = 1
	default:
		s.ax = 0
	}
	switch v {
	case AlignMiddle:
		s.ay = 0.5
	case AlignTop:
		s.ay = 1
	default:
		s.ay = 0
	}
}

func (s *PNGSurface) FillRect(x, y, w, h float64) {
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.Fill()
}

func (s *PNGSurface) FillText(text string, x, y float64) {
	s.dc.DrawStringAnchored(text, x, y, s.ax, s.ay)
}

// EncodePNG writes the image to w.
func (s *PNGSurface) EncodePNG(w io.Writer) error {
	return s.dc.EncodePNG(w)
}
