package treetext_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wkalt/treeviz/snapshot"
	"github.com/wkalt/treeviz/treetext"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		assertion string
		snap      func() *snapshot.Snapshot
		expected  string
	}{
		{
			"single leaf",
			func() *snapshot.Snapshot { return snapshot.SingleLeaf(3, 10, 20) },
			"capacity 3, 1 nodes\n" +
				"└── leaf:0 [10 20]\n",
		},
		{
			"two levels",
			func() *snapshot.Snapshot {
				return snapshot.TwoLevel(3, []int64{1, 2}, []int64{5, 6})
			},
			"capacity 3, 3 nodes\n" +
				"└── inner:0 [5]\n" +
				"    ├── leaf:0 [1 2]\n" +
				"    └── leaf:1 [5 6]\n",
		},
		{
			"delete highlights every matching key",
			func() *snapshot.Snapshot {
				snap := snapshot.TwoLevel(3, []int64{1, 2}, []int64{5, 6})
				snap.ToDelete = snapshot.KeyPtr(5)
				return snap
			},
			"capacity 3, 3 nodes\n" +
				"└── inner:0 [5<to_delete>]\n" +
				"    ├── leaf:0 [1 2]\n" +
				"    └── leaf:1 [5<to_delete> 6]\n",
		},
		{
			"merge outranks target",
			func() *snapshot.Snapshot {
				snap := snapshot.TwoLevel(3, []int64{1, 2}, []int64{5, 6}, []int64{9})
				snap.Target = snapshot.RefPtr(snapshot.Leaf, 1)
				snap.ToMerge = &snapshot.MergeMarker{ParentNode: snapshot.InnerRef(0), KeyIdx: 1}
				return snap
			},
			"capacity 3, 4 nodes\n" +
				"└── inner:0 [5 9<to_merge>]\n" +
				"    ├── leaf:0 [1 2]\n" +
				"    ├── leaf:1<merge_target> [5 6]\n" +
				"    └── leaf:2<merge_target> [9]\n",
		},
		{
			"insert and split sibling",
			func() *snapshot.Snapshot {
				snap := snapshot.SingleLeaf(2, 10, 20)
				snap.LeafNodes = append(snap.LeafNodes, snapshot.NodeRecord{Keys: snapshot.Keys(30)})
				snap.ToInsert = snapshot.KeyPtr(25)
				snap.ToInsertChild = snapshot.RefPtr(snapshot.Leaf, 1)
				snap.Target = snapshot.RefPtr(snapshot.Leaf, 0)
				return snap
			},
			"capacity 2, 2 nodes\n" +
				"├── insert 25\n" +
				"├── leaf:0<target> [10 20]\n" +
				"└── split sibling\n" +
				"    └── leaf:1 [30]\n",
		},
	}
	printer := treetext.NewPrinter(false)
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			out, err := printer.Format(c.snap())
			require.NoError(t, err)
			assert.Equal(t, c.expected, out)
		})
	}
}

func TestFormatColor(t *testing.T) {
	snap := snapshot.SingleLeaf(3, 10, 20)
	snap.ToDelete = snapshot.KeyPtr(20)
	out, err := treetext.NewPrinter(true).Format(snap)
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[")
	assert.NotContains(t, out, "<to_delete>")
}

func TestFormatErrors(t *testing.T) {
	printer := treetext.NewPrinter(false)
	t.Run("dangling root", func(t *testing.T) {
		snap := snapshot.SingleLeaf(3, 10)
		snap.RootNode = snapshot.LeafRef(3)
		_, err := printer.Format(snap)
		require.ErrorIs(t, err, snapshot.DanglingReferenceError{})
	})
	t.Run("cycle", func(t *testing.T) {
		snap := snapshot.TwoLevel(3, []int64{1}, []int64{5})
		snap.InnerNodes[0].Children[1] = snapshot.InnerRef(0)
		_, err := printer.Format(snap)
		require.ErrorContains(t, err, "cycle")
	})
}
