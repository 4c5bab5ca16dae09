package bptree_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qalsh/bptree"
)

func entriesFor(keys []float64) []bptree.Entry {
	out := make([]bptree.Entry, len(keys))
	for i, k := range keys {
		out[i] = bptree.Entry{Key: k, Id: int32(i)}
	}
	return out
}

func TestBulkLoadSingleLeaf(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.qalsh")
	tree, err := bptree.BulkLoad(path, 4096, entriesFor([]float64{5, 1, 3, 2, 4}))
	require.NoError(t, err)
	defer tree.Close()

	assert.Equal(t, 0, tree.Height())

	leaf, err := tree.ReadLeaf(tree.RootBlock())
	require.NoError(t, err)
	assert.Equal(t, 5, leaf.NumEntries())

	// FindPositionByKey groups entries Increment at a time, so leaf.Key(pos)
	// is the group's representative (minimum) key, not necessarily k itself:
	// the invariant is that pos's representative is <= k and the next
	// group's (if any) is > k.
	want := []float64{1, 2, 3, 4, 5}
	for _, k := range want {
		pos := leaf.FindPositionByKey(k)
		require.GreaterOrEqual(t, pos, 0)
		assert.LessOrEqual(t, leaf.Key(pos), k)
		if pos+1 < leaf.NumKeys() {
			assert.Greater(t, leaf.Key(pos+1), k)
		}
	}
}

func TestBulkLoadMultiLevelAndSiblings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.qalsh")
	keys := make([]float64, 500)
	for i := range keys {
		keys[i] = float64(500 - i)
	}

	tree, err := bptree.BulkLoad(path, 128, entriesFor(keys))
	require.NoError(t, err)
	defer tree.Close()

	assert.GreaterOrEqual(t, tree.Height(), 1, "500 entries over small pages should need index levels")

	idx, err := tree.ReadIndex(tree.RootBlock())
	require.NoError(t, err)
	assert.Greater(t, idx.Level, 0)
	for idx.Level > 1 {
		idx, err = tree.ReadIndex(idx.Son(0))
		require.NoError(t, err)
	}
	leaf, err := tree.ReadLeaf(idx.Son(0))
	require.NoError(t, err)

	// Walk right siblings from the leftmost leaf and count total entries.
	total := 0
	cur := leaf
	for cur.Left != bptree.BlockID(-1) {
		var err error
		cur, err = tree.LeftSibling(cur)
		require.NoError(t, err)
	}
	for {
		total += cur.NumEntries()
		right, err := tree.RightSibling(cur)
		require.NoError(t, err)
		if right == nil {
			break
		}
		cur = right
	}
	assert.Equal(t, len(keys), total)
}

func TestOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.qalsh")
	tree, err := bptree.BulkLoad(path, 4096, entriesFor([]float64{1, 2, 3}))
	require.NoError(t, err)
	require.NoError(t, tree.Close())

	reopened, err := bptree.Open(path, 4096)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, tree.Height(), reopened.Height())
	leaf, err := reopened.ReadLeaf(reopened.RootBlock())
	require.NoError(t, err)
	assert.Equal(t, 3, leaf.NumEntries())
}

func TestLeafFindPositionByKeyEscapes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.qalsh")
	tree, err := bptree.BulkLoad(path, 4096, entriesFor([]float64{10, 20, 30}))
	require.NoError(t, err)
	defer tree.Close()

	leaf, err := tree.ReadLeaf(tree.RootBlock())
	require.NoError(t, err)

	// A key smaller than every representative (minimum) key escapes left:
	// there is no group it could belong to.
	assert.Equal(t, -1, leaf.FindPositionByKey(0))
	// A key at or beyond the leaf's maximum still resolves to the last
	// group, matching IndexNode's "largest <= key" semantics.
	assert.GreaterOrEqual(t, leaf.FindPositionByKey(100), 0)
}

// TestLeafFindPositionByKeyGap exercises a query that falls strictly between
// two representative keys, not on an exact stored value. The chosen group
// must be the one whose entries are all <= the query (so that a cursor
// seeded from it sits on the correct, lower side), never the group above.
func TestLeafFindPositionByKeyGap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.qalsh")
	tree, err := bptree.BulkLoad(path, 4096, entriesFor([]float64{10, 20, 30, 40}))
	require.NoError(t, err)
	defer tree.Close()

	leaf, err := tree.ReadLeaf(tree.RootBlock())
	require.NoError(t, err)
	require.Equal(t, 2, leaf.Increment, "test assumes a 2-entry grouping to construct a real gap")

	// 25 falls between the group holding {10, 20} and the group holding
	// {30, 40}: it belongs below the second group, not above the first.
	pos := leaf.FindPositionByKey(25)
	require.GreaterOrEqual(t, pos, 0)
	assert.LessOrEqual(t, leaf.Key(pos), 25.0)
	if pos+1 < leaf.NumKeys() {
		assert.Greater(t, leaf.Key(pos+1), 25.0)
	}
}
