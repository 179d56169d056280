package render

import (
	"fmt"
	"io"

	"github.com/wkalt/treeviz/layout"
)

// Format is an encoded frame format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat returns the format named by s.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatSVG, FormatPNG:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Encode renders l into a surface sized to fit it and writes the encoded frame
// to w.
func Encode(w io.Writer, format Format, l *layout.Layout, capacity int, p Palette) error {
	width, height := Size(l, capacity)
	switch format {
	case FormatSVG:
		s := NewSVGSurface(w, width, height)
		Render(s, l, capacity, p)
		s.Close()
		return nil
	case FormatPNG:
		s, err := NewPNGSurface(width, height)
		if err != nil {
			return err
		}
		Render(s, l, capacity, p)
		if err := s.EncodePNG(w); err != nil {
			return fmt.Errorf("failed to encode png: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
