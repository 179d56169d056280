package snapshot

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spaolacci/murmur3"
)

/*
Package snapshot holds the point-in-time view of the backend's tree that the
debugger renders. A snapshot is two flat node tables plus a root reference and
a set of optional pending-operation markers. Snapshots are replaced wholesale
on every fetch and never modified in place.
*/

////////////////////////////////////////////////////////////////////////////////

// MergeMarker identifies a pending merge of the children at KeyIdx and
// KeyIdx+1 of ParentNode.
type MergeMarker struct {
	ParentNode NodeRef `json:"parent_node"`
	KeyIdx     int     `json:"key_idx"`
}

// Snapshot is the payload served by the backend's data endpoint.
type Snapshot struct {
	NodeCapacity  int          `json:"node_capacity"`
	RootNode      NodeRef      `json:"root_node"`
	LeafNodes     []NodeRecord `json:"leaf_nodes"`
	InnerNodes    []NodeRecord `json:"inner_nodes"`
	ToInsert      *Key         `json:"to_insert"`
	ToInsertChild *NodeRef     `json:"to_insert_child"`
	ToDelete      *Key         `json:"to_delete"`
	ToMerge       *MergeMarker `json:"to_merge"`
	Target        *NodeRef     `json:"target"`
}

// Decode reads a JSON snapshot from r.
func Decode(r io.Reader) (*Snapshot, error) {
	snap := &Snapshot{}
	if err := json.NewDecoder(r).Decode(snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return snap, nil
}

// Resolve returns the record a reference points to.
func (s *Snapshot) Resolve(ref NodeRef) (*NodeRecord, error) {
	var table []NodeRecord
	switch ref.Kind {
	case Inner:
		table = s.InnerNodes
	case Leaf:
		table = s.LeafNodes
	default:
		return nil, InvalidNodeKindError{Ref: ref}
	}
	if ref.Index < 0 || ref.Index >= len(table) {
		return nil, DanglingReferenceError{Ref: ref, TableSize: len(table)}
	}
	return &table[ref.Index], nil
}

// MergePair returns the two sibling references named by the merge marker.
func (s *Snapshot) MergePair() (NodeRef, NodeRef, error) {
	if s.ToMerge == nil {
		return NodeRef{}, NodeRef{}, nil
	}
	parent, err := s.Resolve(s.ToMerge.ParentNode)
	if err != nil {
		return NodeRef{}, NodeRef{}, fmt.Errorf("failed to resolve merge parent: %w", err)
	}
	idx := s.ToMerge.KeyIdx
	if idx < 0 || idx+1 >= len(parent.Children) {
		return NodeRef{}, NodeRef{}, InvalidMergeError{
			Parent:   s.ToMerge.ParentNode,
			KeyIdx:   idx,
			Children: len(parent.Children),
		}
	}
	return parent.Children[idx], parent.Children[idx+1], nil
}

// Validate checks that every reference in the snapshot resolves and that the
// merge marker, if any, names a valid sibling pair.
func (s *Snapshot) Validate() error {
	refs := []NodeRef{s.RootNode}
	for _, inner := range s.InnerNodes {
		refs = append(refs, inner.Children...)
	}
	if s.ToInsertChild != nil {
		refs = append(refs, *s.ToInsertChild)
	}
	if s.Target != nil {
		refs = append(refs, *s.Target)
	}
	for _, ref := range refs {
		if _, err := s.Resolve(ref); err != nil {
			return err
		}
	}
	if _, _, err := s.MergePair(); err != nil {
		return err
	}
	return nil
}

// NodeCount returns the total number of records across both tables.
func (s *Snapshot) NodeCount() int {
	return len(s.InnerNodes) + len(s.LeafNodes)
}

// Digest returns a hash of the snapshot's canonical encoding.
func (s *Snapshot) Digest() (uint64, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return murmur3.Sum64(data), nil
}
