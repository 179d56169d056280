package highlight

import (
	"fmt"

	"github.com/wkalt/treeviz/snapshot"
)

/*
Package highlight decides how each node and cell of a snapshot should be
emphasized, based on the snapshot's pending-operation markers. Rules are
evaluated independently for every element with a fixed precedence:

Nodes: a participant in a pending merge is a MergeTarget, otherwise the
snapshot's target is a Target, otherwise the node takes its base kind.

Cells: the key at the pending merge's key index in the merge parent is ToMerge,
otherwise any cell whose key equals the pending deletion is ToDelete,
otherwise None. Deletion matches by value, so every cell holding that value is
highlighted.
*/

////////////////////////////////////////////////////////////////////////////////

// Kind is a highlight state.
type Kind int

const (
	None Kind = iota
	Inner
	Leaf
	Target
	MergeTarget
	ToDelete
	ToMerge
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Inner:
		return "inner"
	case Leaf:
		return "leaf"
	case Target:
		return "target"
	case MergeTarget:
		return "merge_target"
	case ToDelete:
		return "to_delete"
	case ToMerge:
		return "to_merge"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name produced by MarshalText.
func (k *Kind) UnmarshalText(data []byte) error {
	for candidate := None; candidate <= ToMerge; candidate++ {
		if candidate.String() == string(data) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown highlight %q", data)
}

// Resolver resolves highlights against a single snapshot.
type Resolver struct {
	snap      *snapshot.Snapshot
	merging   bool
	mergePair [2]snapshot.NodeRef
}

// NewResolver prepares a resolver for snap. It fails if the target does not
// resolve or the merge marker does not name a sibling pair.
func NewResolver(snap *snapshot.Snapshot) (*Resolver, error) {
	r := &Resolver{snap: snap}
	if snap.Target != nil {
		if _, err := snap.Resolve(*snap.Target); err != nil {
			return nil, err
		}
	}
	if snap.ToMerge != nil {
		left, right, err := snap.MergePair()
		if err != nil {
			return nil, err
		}
		r.merging = true
		r.mergePair = [2]snapshot.NodeRef{left, right}
	}
	return r, nil
}

// Node returns the highlight for the node identified by ref.
func (r *Resolver) Node(ref snapshot.NodeRef) Kind {
	if r.merging && (ref == r.mergePair[0] || ref == r.mergePair[1]) {
		return MergeTarget
	}
	if r.snap.Target != nil && *r.snap.Target == ref {
		return Target
	}
	switch ref.Kind {
	case snapshot.Inner:
		return Inner
	case snapshot.Leaf:
		return Leaf
	default:
		return None
	}
}

// Cell returns the highlight for the key at index idx of the node owner. A nil
// owner denotes a cell outside any node, such as the key awaiting insertion.
func (r *Resolver) Cell(owner *snapshot.NodeRef, idx int, key snapshot.Key) Kind {
	if merge := r.snap.ToMerge; merge != nil && owner != nil &&
		*owner == merge.ParentNode && idx == merge.KeyIdx {
		return ToMerge
	}
	if r.snap.ToDelete != nil && *r.snap.ToDelete == key {
		return ToDelete
	}
	return None
}
