package render

import (
	"github.com/wkalt/treeviz/highlight"
	"github.com/wkalt/treeviz/layout"
)

/*
Package render draws a layout onto an immediate-mode 2D surface. Node
backgrounds are drawn first and cells on top of them, so a cell is never hidden
by a node emitted after it. Nothing drawn is interactive; hit-testing is done
against the layout's coordinates, not the surface.
*/

////////////////////////////////////////////////////////////////////////////////

// HAlign is a horizontal text alignment relative to the text's anchor.
type HAlign int

const (
	AlignLeft HAlign = iota
	AlignCenter
	AlignRight
)

// VAlign is a vertical text alignment relative to the text's anchor.
type VAlign int

const (
	AlignTop VAlign = iota
	AlignMiddle
	AlignBottom
)

// Surface is the drawing boundary. Colors are CSS-style hex strings.
type Surface interface {
	Size() (width, height float64)
	SetFillColor(color string)
	SetFont(sizePx float64)
	SetTextAlign(h HAlign, v VAlign)
	FillRect(x, y, w, h float64)
	FillText(text string, x, y float64)
}

const cellFontSize = 30

// Render clears s and draws l onto it. The width of every node background is
// derived from the snapshot's node capacity rather than the node's own key
// count, so all nodes of a tree are drawn the same size.
func Render(s Surface, l *layout.Layout, capacity int, p Palette) {
	cfg := l.Config()
	width, height := s.Size()
	s.SetFillColor(p.Background)
	s.FillRect(0, 0, width, height)

	for _, node := range l.Nodes {
		x, y, w, h := nodeRect(cfg, node, capacity)
		s.SetFillColor(p.NodeColor(node.Highlight))
		s.FillRect(x, y, w, h)
	}

	s.SetFont(cellFontSize)
	s.SetTextAlign(AlignCenter, AlignMiddle)
	for _, cell := range l.Cells {
		s.SetFillColor(p.CellColor(cell.Highlight))
		s.FillRect(cell.X-cfg.CellWidth/2, cell.Y-cfg.CellHeight/2, cfg.CellWidth, cfg.CellHeight)
		s.SetFillColor(p.Text)
		s.FillText(cell.Key.String(), cell.X, cell.Y)
	}
}

// nodeRect returns the background rectangle of node: the key strip enlarged
// by the border factors and centered on the strip.
func nodeRect(cfg layout.Config, node layout.PositionedNode, capacity int) (x, y, w, h float64) {
	strip := cfg.NodeWidth(capacity)
	w = strip * cfg.NodeBorderFactor
	h = cfg.CellHeight * cfg.NodeHeightFactor
	centerX := node.X + strip/2
	return centerX - w/2, node.Y - h/2, w, h
}

// Size returns the surface dimensions needed to show all of l.
func Size(l *layout.Layout, capacity int) (width, height float64) {
	cfg := l.Config()
	for _, node := range l.Nodes {
		x, y, w, h := nodeRect(cfg, node, capacity)
		width = max(width, x+w)
		height = max(height, y+h)
	}
	for _, cell := range l.Cells {
		width = max(width, cell.X+cfg.CellWidth/2)
		height = max(height, cell.Y+cfg.CellHeight/2)
	}
	return width + cfg.CellWidth, height + cfg.CellHeight
}

// Palette assigns colors to highlight states.
type Palette struct {
	Background  string
	Text        string
	Unknown     string
	Inner       string
	Leaf        string
	Target      string
	MergeTarget string
	Cell        string
	ToDelete    string
	ToMerge     string
}

// DefaultPalette returns the standard colors.
func DefaultPalette() Palette {
	return Palette{
		Background:  "#ffffff",
		Text:        "#000000",
		Unknown:     "#808080",
		Inner:       "#0000ff",
		Leaf:        "#800080",
		Target:      "#ffa500",
		MergeTarget: "#2e8b57",
		Cell:        "#999999",
		ToDelete:    "#e74c3c",
		ToMerge:     "#f1c40f",
	}
}

// NodeColor returns the background color for a node highlight.
func (p Palette) NodeColor(k highlight.Kind) string {
	switch k {
	case highlight.Inner:
		return p.Inner
	case highlight.Leaf:
		return p.Leaf
	case highlight.Target:
		return p.Target
	case highlight.MergeTarget:
		return p.MergeTarget
	default:
		return p.Unknown
	}
}

// CellColor returns the fill color for a cell highlight.
func (p Palette) CellColor(k highlight.Kind) string {
	switch k {
	case highlight.ToDelete:
		return p.ToDelete
	case highlight.ToMerge:
		return p.ToMerge
	default:
		return p.Cell
	}
}
