package treetext

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/wkalt/treeviz/highlight"
	"github.com/wkalt/treeviz/snapshot"
	"github.com/xlab/treeprint"
)

/*
Package treetext prints a snapshot as an indented text tree, for terminals and
logs. It walks the same structure the layout does (the staging key, the main
tree, and the split sibling) and marks nodes and keys with the same
highlights, as colors when enabled and as suffix tags otherwise.
*/

////////////////////////////////////////////////////////////////////////////////

// Printer formats snapshots as text trees.
type Printer struct {
	colorize bool
	node     map[highlight.Kind]*color.Color
	cell     map[highlight.Kind]*color.Color
}

// NewPrinter returns a printer. If colorize is false highlights are written
// as bracketed tags instead of colors.
func NewPrinter(colorize bool) *Printer {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return &Printer{
		colorize: colorize,
		node: map[highlight.Kind]*color.Color{
			highlight.Inner:       mk(color.FgBlue),
			highlight.Leaf:        mk(color.FgMagenta),
			highlight.Target:      mk(color.FgYellow, color.Bold),
			highlight.MergeTarget: mk(color.FgGreen, color.Bold),
		},
		cell: map[highlight.Kind]*color.Color{
			highlight.ToDelete: mk(color.FgHiRed, color.Bold),
			highlight.ToMerge:  mk(color.FgHiYellow, color.Bold),
		},
	}
}

// Format returns snap as a text tree.
func (p *Printer) Format(snap *snapshot.Snapshot) (string, error) {
	resolver, err := highlight.NewResolver(snap)
	if err != nil {
		return "", fmt.Errorf("failed to resolve highlights: %w", err)
	}
	w := &walker{
		printer:  p,
		snap:     snap,
		resolver: resolver,
		path:     make(map[snapshot.NodeRef]bool),
	}
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("capacity %d, %d nodes", snap.NodeCapacity, snap.NodeCount()))
	if snap.ToInsert != nil {
		tree.AddNode("insert " + w.key(nil, 0, *snap.ToInsert))
	}
	if err := w.visit(tree, snap.RootNode); err != nil {
		return "", err
	}
	if snap.ToInsertChild != nil {
		split := tree.AddBranch("split sibling")
		if err := w.visit(split, *snap.ToInsertChild); err != nil {
			return "", err
		}
	}
	return tree.String(), nil
}

type walker struct {
	printer  *Printer
	snap     *snapshot.Snapshot
	resolver *highlight.Resolver
	path     map[snapshot.NodeRef]bool
}

func (w *walker) visit(parent treeprint.Tree, ref snapshot.NodeRef) error {
	if w.path[ref] {
		return fmt.Errorf("reference cycle at %s", ref)
	}
	record, err := w.snap.Resolve(ref)
	if err != nil {
		return err
	}
	w.path[ref] = true
	defer delete(w.path, ref)

	keys := make([]string, len(record.Keys))
	for i, key := range record.Keys {
		keys[i] = w.key(&ref, i, key)
	}
	label := w.printer.paint(w.printer.node, w.resolver.Node(ref), ref.String()) +
		" [" + strings.Join(keys, " ") + "]"
	if record.IsLeaf() {
		parent.AddNode(label)
		return nil
	}
	branch := parent.AddBranch(label)
	for _, child := range record.Children {
		if err := w.visit(branch, child); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) key(owner *snapshot.NodeRef, idx int, key snapshot.Key) string {
	return w.printer.paint(w.printer.cell, w.resolver.Cell(owner, idx, key), key.String())
}

// paint colors s for highlight k, or tags it when color is disabled. Base
// node kinds and unhighlighted keys are left untagged.
func (p *Printer) paint(palette map[highlight.Kind]*color.Color, k highlight.Kind, s string) string {
	c, ok := palette[k]
	if !ok {
		return s
	}
	if p.colorize {
		return c.Sprint(s)
	}
	switch k {
	case highlight.Inner, highlight.Leaf:
		return s
	default:
		return s + "<" + k.String() + ">"
	}
}
