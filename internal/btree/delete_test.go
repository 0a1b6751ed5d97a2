package btree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSixKeyTree inserts 10,20,30,40,50,60 (in that order, with ptrFor(i)
// matching insertion order) into a fresh tree calibrated to order=4,
// leafOrder=2. After these six inserts the tree is two levels deep:
//
//	root:           keys=[40]             children -> nodeL, nodeR
//	nodeL (left):   keys=[20,30]          children -> leaf(10) leaf(20) leaf(30)
//	nodeR (right):  keys=[50]             children -> leaf(40) leaf(50,60)
//
// Traced by hand against insertIntoLeaf/insertIntoParent's split arithmetic;
// the delete tests below build on exactly this shape.
func buildSixKeyTree(t *testing.T) *BTree {
	t.Helper()
	bt := newTestTree(t)
	for i, k := range []int64{10, 20, 30, 40, 50, 60} {
		require.NoError(t, bt.InsertKey(k, ptrFor(i)))
	}
	root, err := bt.fetchNode(bt.rootPageIndex)
	require.NoError(t, err)
	require.False(t, root.isLeaf)
	require.Equal(t, []int64{40}, root.keys)
	return bt
}

func TestDeleteKey_RemovesSingleEntryLeavingOthersSearchable(t *testing.T) {
	bt := buildSixKeyTree(t)
	require.NoError(t, bt.DeleteKey(60))

	found, err := bt.SearchKey(60)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = bt.SearchKey(50)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 4, found[0].RowIndex)
}

func TestDeleteKey_UnknownKeyReturnsErrKeyNotFound(t *testing.T) {
	bt := buildSixKeyTree(t)
	err := bt.DeleteKey(999)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

// Deleting key 40 empties its leaf (the only key it held), which underflows
// against a right sibling holding [50,60] — above the minimum of 1 — so the
// rebalance takes the borrow path rather than merging.
func TestDeleteKey_LeafUnderflowBorrowsFromRightSibling(t *testing.T) {
	bt := buildSixKeyTree(t)
	require.NoError(t, bt.DeleteKey(40))

	found, err := bt.SearchKey(40)
	require.NoError(t, err)
	assert.Empty(t, found, "borrowed-from node must no longer report the deleted key")

	found, err = bt.SearchKey(50)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 4, found[0].RowIndex, "the borrowed entry keeps its original record pointer")

	found, err = bt.SearchKey(60)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 5, found[0].RowIndex)
}

// Deleting key 10 empties its leaf; its only sibling holds exactly the
// minimum (1 key), so borrowing isn't possible and the rebalance merges the
// two leaves instead, removing one entry from their shared parent.
func TestDeleteKey_LeafUnderflowMergesWithMinimalSibling(t *testing.T) {
	bt := buildSixKeyTree(t)
	require.NoError(t, bt.DeleteKey(10))

	found, err := bt.SearchKey(10)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = bt.SearchKey(20)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 1, found[0].RowIndex, "the surviving leaf keeps the merged-in entry's original pointer")

	root, err := bt.fetchNode(bt.rootPageIndex)
	require.NoError(t, err)
	assert.False(t, root.isLeaf, "a single leaf merge shouldn't collapse the whole tree")
}

// Deleting 10 then 30 drains nodeL's children down to a single leaf, which
// underflows nodeL itself (now 0 keys, below the internal minimum of 1).
// nodeL's only sibling, nodeR, also sits exactly at the minimum (1 key), so
// the internal-node rebalance merges nodeR into nodeL rather than
// borrowing — and that merge leaves the root with a single child, which
// adjustRoot then collapses, promoting the merged internal node to root.
func TestDeleteKey_InternalNodeMergeCollapsesRoot(t *testing.T) {
	bt := buildSixKeyTree(t)
	require.NoError(t, bt.DeleteKey(10))
	require.NoError(t, bt.DeleteKey(30))

	root, err := bt.fetchNode(bt.rootPageIndex)
	require.NoError(t, err)
	assert.False(t, root.isLeaf, "the promoted node is internal, not a bare leaf")
	assert.Equal(t, -1, root.parentPageIndex)
	assert.Equal(t, []int64{40, 50}, root.keys, "the old root's separator key and the merged sibling's key now live together")
	require.Len(t, root.children, 3)

	for _, want := range []struct {
		key  int64
		want int
	}{
		{20, 1}, {40, 3}, {50, 4}, {60, 5},
	} {
		found, err := bt.SearchKey(want.key)
		require.NoError(t, err)
		require.Len(t, found, 1, "key %d", want.key)
		assert.Equal(t, want.want, found[0].RowIndex, "key %d", want.key)
	}
	for _, gone := range []int64{10, 30} {
		found, err := bt.SearchKey(gone)
		require.NoError(t, err)
		assert.Empty(t, found, "key %d", gone)
	}
}

func TestDeleteKeyAt_LeavesOtherDuplicatesIntact(t *testing.T) {
	bt := newTestTree(t)
	require.NoError(t, bt.InsertKey(7, ptrFor(0)))
	require.NoError(t, bt.InsertKey(7, ptrFor(1)))

	require.NoError(t, bt.DeleteKeyAt(7, ptrFor(0)))

	found, err := bt.SearchKey(7)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ptrFor(1), found[0])
}

func TestDeleteKeyAt_UnknownPointerReturnsErrKeyNotFound(t *testing.T) {
	bt := newTestTree(t)
	require.NoError(t, bt.InsertKey(7, ptrFor(0)))
	err := bt.DeleteKeyAt(7, ptrFor(99))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestDeleteKey_DrainingEntireTreeLeavesItEmpty(t *testing.T) {
	bt := buildSixKeyTree(t)
	for _, k := range []int64{10, 20, 30, 40, 50, 60} {
		require.NoError(t, bt.DeleteKey(k))
	}
	assert.Equal(t, -1, bt.rootPageIndex, "draining every key must mark the tree empty")

	found, err := bt.SearchKey(10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

// A larger, denser sequence of inserts and deletes than the hand-traced
// fixtures above, exercised purely through the public Search/Insert/Delete
// surface: whatever mix of leaf and internal borrow/merge the rebalancer
// picks along the way, every surviving key must remain searchable with its
// original pointer and every deleted key must disappear.
func TestInsertAndDelete_LargeSequencePreservesSearchability(t *testing.T) {
	bt := newTestTree(t)
	const n = 40
	for i := 0; i < n; i++ {
		require.NoError(t, bt.InsertKey(int64(i*10), ptrFor(i)))
	}

	deleted := map[int64]bool{}
	for i := 0; i < n; i += 3 {
		key := int64(i * 10)
		require.NoError(t, bt.DeleteKey(key))
		deleted[key] = true
	}

	for i := 0; i < n; i++ {
		key := int64(i * 10)
		found, err := bt.SearchKey(key)
		require.NoError(t, err)
		if deleted[key] {
			assert.Empty(t, found, "key %d should have been deleted", key)
			continue
		}
		require.Len(t, found, 1, "key %d should still be present", key)
		assert.Equal(t, i, found[0].RowIndex, "key %d kept the wrong pointer", key)
	}
}
