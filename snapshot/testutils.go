package snapshot

/*
Builders for constructing snapshots in tests.
*/

////////////////////////////////////////////////////////////////////////////////

// KeyPtr returns a pointer to k.
func KeyPtr(k Key) *Key {
	return &k
}

// RefPtr returns a pointer to a reference of the given kind and index.
func RefPtr(kind NodeKind, index int) *NodeRef {
	return &NodeRef{Kind: kind, Index: index}
}

// LeafRef returns a reference into the leaf table.
func LeafRef(index int) NodeRef {
	return NodeRef{Kind: Leaf, Index: index}
}

// InnerRef returns a reference into the inner table.
func InnerRef(index int) NodeRef {
	return NodeRef{Kind: Inner, Index: index}
}

// Keys converts integers to keys.
func Keys(ks ...int64) []Key {
	out := make([]Key, len(ks))
	for i, k := range ks {
		out[i] = Key(k)
	}
	return out
}

// SingleLeaf returns a snapshot whose root is a single leaf holding keys.
func SingleLeaf(capacity int, keys ...int64) *Snapshot {
	return &Snapshot{
		NodeCapacity: capacity,
		RootNode:     LeafRef(0),
		LeafNodes:    []NodeRecord{{Keys: Keys(keys...)}},
		InnerNodes:   []NodeRecord{},
	}
}

// TwoLevel returns a snapshot with an inner root over the given leaves. The
// root's separator keys are the first key of every leaf after the first.
func TwoLevel(capacity int, leaves ...[]int64) *Snapshot {
	snap := &Snapshot{
		NodeCapacity: capacity,
		RootNode:     InnerRef(0),
	}
	root := NodeRecord{Keys: []Key{}, Children: []NodeRef{}}
	for i, keys := range leaves {
		snap.LeafNodes = append(snap.LeafNodes, NodeRecord{Keys: Keys(keys...)})
		root.Children = append(root.Children, LeafRef(i))
		if i > 0 && len(keys) > 0 {
			root.Keys = append(root.Keys, Key(keys[0]))
		}
	}
	snap.InnerNodes = []NodeRecord{root}
	return snap
}
