package layout

import (
	"errors"
	"fmt"

	"github.com/wkalt/treeviz/highlight"
	"github.com/wkalt/treeviz/snapshot"
)

/*
Package layout converts a snapshot into absolute 2D positions for nodes and
cells.

The tree is walked depth first from the root. Each node's keys are placed as a
horizontal strip starting at the node's x. Children are all placed at a fixed
indent of two cell widths right of the parent's start, one row down, and each
child's subtree begins at the y where the previous sibling's subtree ended. The
result is a cascade rather than a classical tree diagram: sibling subtrees are
stacked vertically and can never overlap one another.

A key awaiting insertion is placed at a staging position before the tree, and
the sibling created by a pending split is laid out as an independent tree to
the right of the main one.
*/

////////////////////////////////////////////////////////////////////////////////

// ErrReferenceCycle is returned when a snapshot's child references loop back
// on themselves.
var ErrReferenceCycle = errors.New("reference cycle in snapshot")

// PositionedNode is a node background anchored at its top-left x and its
// key strip's vertical center y.
type PositionedNode struct {
	X         float64          `json:"x"`
	Y         float64          `json:"y"`
	Ref       snapshot.NodeRef `json:"ref"`
	Highlight highlight.Kind   `json:"highlight"`
}

// PositionedCell is a key anchored at its center. Owner is nil for the key
// awaiting insertion; otherwise Index is the key's position within Owner.
type PositionedCell struct {
	X         float64           `json:"x"`
	Y         float64           `json:"y"`
	Key       snapshot.Key      `json:"key"`
	Owner     *snapshot.NodeRef `json:"owner,omitempty"`
	Index     int               `json:"index"`
	Highlight highlight.Kind    `json:"highlight"`
}

// Layout is the positioned content of one snapshot, in emission order.
type Layout struct {
	Nodes []PositionedNode `json:"nodes"`
	Cells []PositionedCell `json:"cells"`

	cfg Config
}

// Config returns the geometry the layout was built with.
func (l *Layout) Config() Config {
	return l.cfg
}

// Build lays out snap. It fails if any reference in the snapshot does not
// resolve, or if the tree reachable from the root contains a cycle.
func Build(snap *snapshot.Snapshot, cfg Config) (*Layout, error) {
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	resolver, err := highlight.NewResolver(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve highlights: %w", err)
	}
	b := &builder{
		snap:     snap,
		cfg:      cfg,
		resolver: resolver,
		path:     make(map[snapshot.NodeRef]bool),
		out:      &Layout{Nodes: []PositionedNode{}, Cells: []PositionedCell{}, cfg: cfg},
	}
	if snap.ToInsert != nil {
		key := *snap.ToInsert
		b.out.Cells = append(b.out.Cells, PositionedCell{
			X:         cfg.StagingX,
			Y:         cfg.StagingY,
			Key:       key,
			Highlight: resolver.Cell(nil, 0, key),
		})
	}
	if _, err := b.visit(cfg.OriginX, cfg.OriginY, snap.RootNode); err != nil {
		return nil, fmt.Errorf("failed to lay out tree: %w", err)
	}
	if snap.ToInsertChild != nil {
		if _, err := b.visit(cfg.SplitOriginX, cfg.OriginY, *snap.ToInsertChild); err != nil {
			return nil, fmt.Errorf("failed to lay out split sibling: %w", err)
		}
	}
	return b.out, nil
}

type builder struct {
	snap     *snapshot.Snapshot
	cfg      Config
	resolver *highlight.Resolver
	path     map[snapshot.NodeRef]bool
	out      *Layout
}

// visit places the node at (x, y) and its descendants below it, returning the
// y at which the next sibling subtree should start.
func (b *builder) visit(x, y float64, ref snapshot.NodeRef) (float64, error) {
	if b.path[ref] {
		return 0, fmt.Errorf("%w at %s", ErrReferenceCycle, ref)
	}
	record, err := b.snap.Resolve(ref)
	if err != nil {
		return 0, err
	}
	b.path[ref] = true
	defer delete(b.path, ref)
	startX := x
	b.out.Nodes = append(b.out.Nodes, PositionedNode{
		X:         x - b.cfg.CellWidth/2,
		Y:         y,
		Ref:       ref,
		Highlight: b.resolver.Node(ref),
	})
	for i, key := range record.Keys {
		owner := ref
		b.out.Cells = append(b.out.Cells, PositionedCell{
			X:         x,
			Y:         y,
			Key:       key,
			Owner:     &owner,
			Index:     i,
			Highlight: b.resolver.Cell(&owner, i, key),
		})
		x += b.cfg.CellWidth + b.cfg.CellPadding
	}
	childX := startX + 2*b.cfg.CellWidth
	y += b.cfg.CellHeight + b.cfg.RowPadding
	for _, child := range record.Children {
		y, err = b.visit(childX, y, child)
		if err != nil {
			return 0, err
		}
	}
	return y, nil
}

// CellAt returns the index of the first cell, in emission order, whose square
// contains (x, y). Edges are inclusive.
func (l *Layout) CellAt(x, y float64) (int, bool) {
	hw, hh := l.cfg.CellWidth/2, l.cfg.CellHeight/2
	for i, cell := range l.Cells {
		if x >= cell.X-hw && x <= cell.X+hw && y >= cell.Y-hh && y <= cell.Y+hh {
			return i, true
		}
	}
	return 0, false
}

// MoveCell repositions the cell at index i.
func (l *Layout) MoveCell(i int, x, y float64) error {
	if i < 0 || i >= len(l.Cells) {
		return fmt.Errorf("cell index %d out of range [0, %d)", i, len(l.Cells))
	}
	l.Cells[i].X = x
	l.Cells[i].Y = y
	return nil
}

// Clone returns a copy of the layout whose positions can be changed without
// affecting l.
func (l *Layout) Clone() *Layout {
	return &Layout{
		Nodes: append([]PositionedNode{}, l.Nodes...),
		Cells: append([]PositionedCell{}, l.Cells...),
		cfg:   l.cfg,
	}
}
