// Package sortexec implements the external merge sort described in
// spec.md §4.6 (SORT, and the primitive ORDER BY/GROUP BY build on), plus
// its k-way merge write-back.
//
// Grounded on original_source/src/executors/sort.cpp (the two-phase
// run-generation-then-merge shape) and orderBy.cpp/groupBy.cpp for the
// higher-level wrappers.
package sortexec

import (
	"container/heap"
	"fmt"
	"log/slog"
	"sort"

	"radb/internal/buffer"
	"radb/internal/catalog"
	"radb/internal/engineconfig"
	"radb/internal/table"
)

// Key is one (column, direction) pair in a composite sort key.
type Key struct {
	Column int
	Desc   bool
}

// compareRows orders a, b by the composite key in keys, returning <0, 0,
// or >0. Remaining ties after the full key list are stable: the caller's
// sort is expected to be stable so the first input wins.
func compareRows(a, b []int64, keys []Key) int {
	for _, k := range keys {
		av, bv := a[k.Column], b[k.Column]
		if av == bv {
			continue
		}
		if k.Desc {
			if av > bv {
				return -1
			}
			return 1
		}
		if av < bv {
			return -1
		}
		return 1
	}
	return 0
}

// Sort rebuilds tbl's pages in place, ordered by keys, using a two-phase
// external merge sort bounded by BlockCount x MaxRowsPerBlock rows per
// run, per spec.md §4.6. row_count is unchanged.
func Sort(cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, tbl *table.Table, keys []Key) error {
	if len(keys) == 0 {
		return fmt.Errorf("sortexec: sort %s: at least one sort key required", tbl.Name())
	}
	if log == nil {
		log = slog.Default()
	}

	runs, err := generateRuns(cat, buf, cfg, log, tbl, keys)
	if err != nil {
		return err
	}
	defer cleanupRuns(cat, runs)

	final, err := mergeRuns(cat, buf, cfg, log, tbl.Name(), tbl.Columns(), runs, keys)
	if err != nil {
		return err
	}
	defer cleanupRuns(cat, []*table.Table{final})

	return writeBack(tbl, final)
}

var runCounter int

func nextRunName(owner string) string {
	runCounter++
	return fmt.Sprintf("__run_%s_%d", owner, runCounter)
}

// generateRuns is Phase 1: read up to B = BlockCount x MaxRowsPerBlock
// rows at a time, sort each batch, and emit it as its own temp Table
// registered in the catalog.
func generateRuns(cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, src *table.Table, keys []Key) ([]*table.Table, error) {
	budget := cfg.BlockCount * src.MaxRowsPerBlock()
	if budget < 1 {
		budget = 1
	}

	var runs []*table.Table
	cur := src.Cursor()
	batch := make([][]int64, 0, budget)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		sort.SliceStable(batch, func(i, j int) bool {
			return compareRows(batch[i], batch[j], keys) < 0
		})
		run, err := materializeRun(cat, buf, cfg, log, src, batch)
		if err != nil {
			return err
		}
		runs = append(runs, run)
		batch = make([][]int64, 0, budget)
		return nil
	}

	for {
		row, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		batch = append(batch, row)
		if len(batch) == budget {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return runs, nil
}

func materializeRun(cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, src *table.Table, rows [][]int64) (*table.Table, error) {
	return newRun(cat, buf, cfg, log, src.Name(), src.Columns(), rows)
}

func newRun(cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, ownerName string, columns []string, rows [][]int64) (*table.Table, error) {
	run, err := table.New(buf, cfg, log, nextRunName(ownerName), columns)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if _, err := run.AppendRow(r); err != nil {
			return nil, err
		}
	}
	if err := cat.Insert(run); err != nil {
		return nil, err
	}
	return run, nil
}

func cleanupRuns(cat *catalog.Catalog, runs []*table.Table) {
	for _, r := range runs {
		if r == nil {
			continue
		}
		_ = cat.Remove(r.Name())
	}
}

// mergeRuns is Phase 2: merge K = BlockCount-1 runs per pass until one run
// remains, returning the final fully-sorted run.
func mergeRuns(cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, ownerName string, columns []string, runs []*table.Table, keys []Key) (*table.Table, error) {
	if len(runs) == 0 {
		return newRun(cat, buf, cfg, log, ownerName, columns, nil)
	}
	k := cfg.BlockCount - 1
	if k < 2 {
		k = 2
	}

	for len(runs) > 1 {
		var next []*table.Table
		for i := 0; i < len(runs); i += k {
			end := i + k
			if end > len(runs) {
				end = len(runs)
			}
			merged, err := mergeBatch(cat, buf, cfg, log, ownerName, columns, runs[i:end], keys)
			if err != nil {
				return nil, err
			}
			next = append(next, merged)
		}
		cleanupRuns(cat, runs)
		runs = next
	}
	return runs[0], nil
}

// mergeHeapItem is one run's current head row, ordered for container/heap.
type mergeHeapItem struct {
	row    []int64
	runIdx int
}

type mergeHeap struct {
	items []*mergeHeapItem
	keys  []Key
}

func (h *mergeHeap) Len() int { return len(h.items) }
func (h *mergeHeap) Less(i, j int) bool {
	c := compareRows(h.items[i].row, h.items[j].row, h.keys)
	if c != 0 {
		return c < 0
	}
	return h.items[i].runIdx < h.items[j].runIdx
}
func (h *mergeHeap) Swap(i, j int)          { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *mergeHeap) Push(x interface{})     { h.items = append(h.items, x.(*mergeHeapItem)) }
func (h *mergeHeap) Pop() interface{} {
	n := len(h.items)
	it := h.items[n-1]
	h.items = h.items[:n-1]
	return it
}

// runCursorState wraps one input run's cursor with a one-row lookahead so
// the merge heap always compares already-fetched rows.
type runCursorState struct {
	cur       interface {
		Next() ([]int64, bool, error)
	}
	row       []int64
	exhausted bool
}

func (s *runCursorState) advance() error {
	row, ok, err := s.cur.Next()
	if err != nil {
		return err
	}
	if !ok {
		s.exhausted = true
		s.row = nil
		return nil
	}
	s.row = row
	return nil
}

func mergeBatch(cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, ownerName string, columns []string, batch []*table.Table, keys []Key) (*table.Table, error) {
	out, err := table.New(buf, cfg, log, nextRunName(ownerName), columns)
	if err != nil {
		return nil, err
	}
	if err := cat.Insert(out); err != nil {
		return nil, err
	}

	cursors := make([]*runCursorState, len(batch))
	for i, r := range batch {
		cursors[i] = &runCursorState{cur: r.Cursor()}
		if err := cursors[i].advance(); err != nil {
			return nil, err
		}
	}

	h := &mergeHeap{keys: keys}
	for i, c := range cursors {
		if !c.exhausted {
			h.items = append(h.items, &mergeHeapItem{row: c.row, runIdx: i})
		}
	}
	heap.Init(h)

	for h.Len() > 0 {
		top := heap.Pop(h).(*mergeHeapItem)
		if _, err := out.AppendRow(top.row); err != nil {
			return nil, err
		}
		c := cursors[top.runIdx]
		if err := c.advance(); err != nil {
			return nil, err
		}
		if !c.exhausted {
			heap.Push(h, &mergeHeapItem{row: c.row, runIdx: top.runIdx})
		}
	}
	return out, nil
}

func writeBack(tbl, final *table.Table) error {
	rows := make([][]int64, 0, final.RowCount())
	cur := final.Cursor()
	for {
		row, ok, err := cur.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	return tbl.RewriteSorted(rows)
}
