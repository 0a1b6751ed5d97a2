package btree

import (
	"fmt"
	"log/slog"
	"math"

	"radb/internal/buffer"
	"radb/internal/engineconfig"
	"radb/internal/rowcursor"
	"radb/internal/table"
)

// BTree is a secondary index over one column of one table: order/leafOrder
// calibration, node storage under its own owner namespace in the shared
// buffer manager, and the table.Index operations DML maintains it with.
type BTree struct {
	buf *buffer.Manager
	log *slog.Logger

	tableName   string
	columnName  string
	columnIndex int

	indexName string
	order     int
	leafOrder int
	nodeWidth int

	rootPageIndex int
	nodeCount     int
}

var _ table.Index = (*BTree)(nil)

// New calibrates and constructs an empty index over tableName.columnName,
// implementing the fan-out formulas in spec.md §4.8.
func New(buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, tableName, columnName string, columnIndex int) *BTree {
	if log == nil {
		log = slog.Default()
	}
	keySize := cfg.IntSize
	ptrSize := cfg.IntSize
	recordPtrSize := 2 * cfg.IntSize
	metaSize := metadataWidth * cfg.IntSize
	bEff := cfg.BlockSize - metaSize

	order := (bEff + keySize) / (ptrSize + keySize)
	if order < 3 {
		order = 3
	}
	leafOrder := (bEff - ptrSize) / (keySize + recordPtrSize)
	if leafOrder < 1 {
		leafOrder = 1
	}
	nodeWidth := order
	if 2*leafOrder > nodeWidth {
		nodeWidth = 2 * leafOrder
	}
	if nodeWidth < metadataWidth {
		nodeWidth = metadataWidth
	}

	return &BTree{
		buf:           buf,
		log:           log,
		tableName:     tableName,
		columnName:    columnName,
		columnIndex:   columnIndex,
		indexName:     tableName + "_" + columnName + "_index",
		order:         order,
		leafOrder:     leafOrder,
		nodeWidth:     nodeWidth,
		rootPageIndex: -1,
	}
}

// Order and LeafOrder expose the calibrated fan-out, mostly for tests.
func (t *BTree) Order() int     { return t.order }
func (t *BTree) LeafOrder() int { return t.leafOrder }

func (t *BTree) allocatePage() int {
	idx := t.nodeCount
	t.nodeCount++
	return idx
}

func (t *BTree) fetchNode(pageIndex int) (*node, error) {
	if pageIndex < 0 {
		return nil, fmt.Errorf("btree: %s: negative page index: %w", t.indexName, ErrCorruptNode)
	}
	p, err := t.buf.GetNodePage(t.indexName, pageIndex, 3, t.nodeWidth)
	if err != nil {
		return nil, fmt.Errorf("btree: %s: fetch node %d: %w", t.indexName, pageIndex, err)
	}
	var rows [3][]int64
	for i := 0; i < 3; i++ {
		rows[i] = p.Row(i)
	}
	n, err := deserializeNode(pageIndex, rows)
	if err != nil {
		return nil, fmt.Errorf("btree: %s: deserialize node %d: %w", t.indexName, pageIndex, err)
	}
	return n, nil
}

func (t *BTree) writeNode(n *node) error {
	rows := n.serialize(t.nodeWidth)
	if err := t.buf.WriteNodePage(t.indexName, n.pageIndex, rows, len(rows)); err != nil {
		return fmt.Errorf("btree: %s: write node %d: %w", t.indexName, n.pageIndex, err)
	}
	return nil
}

// Drop deletes every node page belonging to this index and resets it to
// empty, implementing table.Index.Drop and spec.md §4.5's unload step.
func (t *BTree) Drop() error {
	for i := 0; i < t.nodeCount; i++ {
		if err := t.buf.DeleteNodePage(t.indexName, i); err != nil {
			t.log.Warn("btree: drop node page", "index", t.indexName, "page", i, "err", err)
		}
	}
	t.rootPageIndex = -1
	t.nodeCount = 0
	return nil
}

// Build clears any existing entries and re-populates the index from tbl's
// current rows via a fresh cursor scan, using the pointer-from-cursor
// contract in spec.md §4.3 to recover each row's address.
func (t *BTree) Build(tbl *table.Table) error {
	if err := t.Drop(); err != nil {
		return err
	}
	cur := tbl.Cursor()
	for {
		row, ok, err := cur.Next()
		if err != nil {
			return fmt.Errorf("btree: %s: build scan: %w", t.indexName, err)
		}
		if !ok {
			break
		}
		if t.columnIndex < 0 || t.columnIndex >= len(row) {
			return fmt.Errorf("btree: %s: column index %d out of range for row width %d", t.indexName, t.columnIndex, len(row))
		}
		key := row[t.columnIndex]
		ptr := cur.LastPointer()
		if err := t.InsertKey(key, ptr); err != nil {
			return fmt.Errorf("btree: %s: build insert key %d: %w", t.indexName, key, err)
		}
	}
	return nil
}

// findLeaf descends from the root to the leaf whose range covers key,
// using upper_bound at each internal node per spec.md §4.8.
func (t *BTree) findLeaf(key int64) (*node, error) {
	if t.rootPageIndex < 0 {
		return nil, nil
	}
	n, err := t.fetchNode(t.rootPageIndex)
	if err != nil {
		return nil, err
	}
	for !n.isLeaf {
		childSlot := n.findChildIndex(key)
		if childSlot < 0 || childSlot >= len(n.children) {
			return nil, fmt.Errorf("btree: %s: invalid child slot %d at node %d: %w", t.indexName, childSlot, n.pageIndex, ErrCorruptNode)
		}
		n, err = t.fetchNode(n.children[childSlot])
		if err != nil {
			return nil, err
		}
	}
	return n, nil
}

// SearchKey returns every record pointer stored under key.
func (t *BTree) SearchKey(key int64) ([]rowcursor.Pointer, error) {
	return t.SearchRange(key, key)
}

// SearchRange returns every record pointer with key in [lo, hi], walking
// the leaf chain starting from lo's leaf, per spec.md §4.8.
func (t *BTree) SearchRange(lo, hi int64) ([]rowcursor.Pointer, error) {
	// Descend with lo-1 so the walk starts at the leftmost leaf that can hold
	// lo: a split can leave copies of a separator key in the left child.
	from := lo
	if from > math.MinInt64 {
		from--
	}
	leaf, err := t.findLeaf(from)
	if err != nil {
		return nil, err
	}
	var result []rowcursor.Pointer
	for leaf != nil {
		start := lowerBound(leaf.keys, lo)
		stop := false
		for i := start; i < len(leaf.keys); i++ {
			if leaf.keys[i] > hi {
				stop = true
				break
			}
			result = append(result, leaf.ptrs[i])
		}
		if stop || leaf.nextLeafPageIndex < 0 {
			break
		}
		leaf, err = t.fetchNode(leaf.nextLeafPageIndex)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
