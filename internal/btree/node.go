// Package btree implements the secondary B+Tree index described in
// spec.md §4.8: fan-out calibration, on-disk node layout, full insert with
// leaf/internal splitting, full delete with underflow handling including
// internal-node borrow and merge (resolved as "implement it" per the open
// question in spec.md §9 rather than left stubbed), and key/range search.
//
// Grounded on original_source/src/index.cpp (BTreeNode/BTree: calibration
// formulas, insertIntoLeaf/insertIntoParent, deleteKey/handleUnderflow) and
// ShubhamNegi4-DaemonDB/bplustree (struct.go's node-field shape,
// split_internal.go's split idiom) and tuannm99-novasql/internal/btree
// (error taxonomy via sentinel errors).
package btree

import (
	"errors"

	"radb/internal/rowcursor"
)

// Errors specific to the index, layered onto the shared taxonomy in
// spec.md §7 by the callers that wrap them (IndexStale, InternalInvariant).
var (
	ErrKeyNotFound = errors.New("btree: key not found")
	ErrCorruptNode = errors.New("btree: corrupt node page")
)

const metadataWidth = 4

const (
	metaIsLeaf = 0
	metaKeyCnt = 1
	metaParent = 2
	metaNext   = 3
)

// node is the in-memory form of one B+Tree page: an internal node (keys +
// child page indices) or a leaf (keys + record pointers + a next-leaf
// link), per spec.md §4.8's node layout.
type node struct {
	pageIndex          int
	isLeaf             bool
	parentPageIndex    int
	nextLeafPageIndex  int
	keys               []int64
	ptrs               []rowcursor.Pointer // leaf only, len == len(keys)
	children           []int               // internal only, len == len(keys)+1
}

func newLeaf(pageIndex int) *node {
	return &node{pageIndex: pageIndex, isLeaf: true, parentPageIndex: -1, nextLeafPageIndex: -1}
}

func newInternal(pageIndex int) *node {
	return &node{pageIndex: pageIndex, isLeaf: false, parentPageIndex: -1, nextLeafPageIndex: -1}
}

// serialize renders n into the 3-row, fixed-width layout pageio persists:
// a metadata row, a keys row, and a pointers/children row, each padded
// with zeros out to width.
func (n *node) serialize(width int) [][]int64 {
	meta := make([]int64, width)
	if n.isLeaf {
		meta[metaIsLeaf] = 1
	}
	meta[metaKeyCnt] = int64(len(n.keys))
	meta[metaParent] = int64(n.parentPageIndex)
	meta[metaNext] = int64(n.nextLeafPageIndex)

	keysRow := make([]int64, width)
	for i, k := range n.keys {
		keysRow[i] = k
	}

	ptrsRow := make([]int64, width)
	if n.isLeaf {
		for i, p := range n.ptrs {
			ptrsRow[2*i] = int64(p.PageIndex)
			ptrsRow[2*i+1] = int64(p.RowIndex)
		}
	} else {
		for i, c := range n.children {
			ptrsRow[i] = int64(c)
		}
	}

	return [][]int64{meta, keysRow, ptrsRow}
}

// deserializeNode parses the 3-row layout back into a node.
func deserializeNode(pageIndex int, rows [3][]int64) (*node, error) {
	if len(rows[0]) < metadataWidth {
		return nil, ErrCorruptNode
	}
	n := &node{pageIndex: pageIndex}
	n.isLeaf = rows[0][metaIsLeaf] == 1
	keyCount := int(rows[0][metaKeyCnt])
	n.parentPageIndex = int(rows[0][metaParent])
	n.nextLeafPageIndex = int(rows[0][metaNext])
	if keyCount < 0 || keyCount > len(rows[1]) {
		return nil, ErrCorruptNode
	}

	n.keys = make([]int64, keyCount)
	copy(n.keys, rows[1][:keyCount])

	if n.isLeaf {
		if 2*keyCount > len(rows[2]) {
			return nil, ErrCorruptNode
		}
		n.ptrs = make([]rowcursor.Pointer, keyCount)
		for i := 0; i < keyCount; i++ {
			n.ptrs[i] = rowcursor.Pointer{
				PageIndex: int(rows[2][2*i]),
				RowIndex:  int(rows[2][2*i+1]),
			}
		}
	} else {
		if keyCount+1 > len(rows[2]) {
			return nil, ErrCorruptNode
		}
		n.children = make([]int, keyCount+1)
		for i := 0; i <= keyCount; i++ {
			n.children[i] = int(rows[2][i])
		}
	}
	return n, nil
}

// findKeyIndex returns the position of the first entry equal to key, or -1.
func (n *node) findKeyIndex(key int64) int {
	i := lowerBound(n.keys, key)
	if i < len(n.keys) && n.keys[i] == key {
		return i
	}
	return -1
}

// findChildIndex returns the child slot to descend into for key: the
// index of the first key strictly greater than key (upper_bound).
func (n *node) findChildIndex(key int64) int {
	return upperBound(n.keys, key)
}

func lowerBound(keys []int64, key int64) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if keys[mid] < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func upperBound(keys []int64, key int64) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if keys[mid] <= key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (n *node) insertLeafEntry(key int64, ptr rowcursor.Pointer, pos int) {
	n.keys = append(n.keys, 0)
	copy(n.keys[pos+1:], n.keys[pos:])
	n.keys[pos] = key
	n.ptrs = append(n.ptrs, rowcursor.Pointer{})
	copy(n.ptrs[pos+1:], n.ptrs[pos:])
	n.ptrs[pos] = ptr
}

func (n *node) removeLeafEntry(pos int) {
	n.keys = append(n.keys[:pos], n.keys[pos+1:]...)
	n.ptrs = append(n.ptrs[:pos], n.ptrs[pos+1:]...)
}

func (n *node) insertInternalEntry(key int64, childPageIndex, pos int) {
	n.keys = append(n.keys, 0)
	copy(n.keys[pos+1:], n.keys[pos:])
	n.keys[pos] = key
	n.children = append(n.children, 0)
	copy(n.children[pos+2:], n.children[pos+1:])
	n.children[pos+1] = childPageIndex
}

// removeInternalEntry removes key[pos] and the child pointer that followed
// it, at children[pos+1].
func (n *node) removeInternalEntry(pos int) {
	n.keys = append(n.keys[:pos], n.keys[pos+1:]...)
	n.children = append(n.children[:pos+1], n.children[pos+2:]...)
}

func (n *node) isFull(order, leafOrder int) bool {
	if n.isLeaf {
		return len(n.keys) >= leafOrder
	}
	return len(n.keys) >= order-1
}

// minKeys returns the minimum key count this node must hold given its
// role (root vs interior), per the ceil(p/2)-style formulas in
// original_source/src/index.cpp's isMinimal.
func (n *node) minKeys(order, leafOrder int) int {
	if n.parentPageIndex == -1 {
		if n.isLeaf {
			return 0
		}
		return 1
	}
	if n.isLeaf {
		return ceilDiv(leafOrder, 2)
	}
	return ceilDiv(order, 2) - 1
}

func (n *node) isUnderflow(order, leafOrder int) bool {
	return len(n.keys) < n.minKeys(order, leafOrder)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
