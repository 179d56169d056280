package snapshot

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// NodeKind identifies which node table a reference points into.
type NodeKind int

const (
	KindUnknown NodeKind = iota
	Inner
	Leaf
)

func (k NodeKind) String() string {
	switch k {
	case Inner:
		return "inner"
	case Leaf:
		return "leaf"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as its wire tag.
func (k NodeKind) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(k.String())), nil
}

// UnmarshalJSON decodes a wire tag. Unrecognized tags decode to KindUnknown
// and are rejected when the reference is resolved.
func (k *NodeKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("node type must be a string: %w", err)
	}
	switch s {
	case "inner":
		*k = Inner
	case "leaf":
		*k = Leaf
	default:
		*k = KindUnknown
	}
	return nil
}

// NodeRef is a typed index into one of the snapshot's node tables.
type NodeRef struct {
	Kind  NodeKind `json:"node_type"`
	Index int      `json:"index"`
}

func (r NodeRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.Index)
}

// Key is a single ordered key held by a node.
type Key int64

func (k Key) String() string {
	return strconv.FormatInt(int64(k), 10)
}

// NodeRecord is the content of one node. Children is nil for leaves; inner
// nodes carry len(Keys)+1 children.
type NodeRecord struct {
	Keys     []Key     `json:"keys"`
	Children []NodeRef `json:"children,omitempty"`
}

// IsLeaf reports whether the record has no children.
func (n *NodeRecord) IsLeaf() bool {
	return n.Children == nil
}
