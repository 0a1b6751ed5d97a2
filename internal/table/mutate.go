package table

import (
	"fmt"

	"radb/internal/rowcursor"
)

// PageRows returns a mutable copy of page pageIndex's rows.
func (t *Table) PageRows(pageIndex int) ([][]int64, error) {
	if pageIndex < 0 || pageIndex >= t.blockCount {
		return nil, fmt.Errorf("table: %s page %d out of range [0,%d): %w", t.name, pageIndex, t.blockCount, ErrInternalInvariant)
	}
	n := t.rowsPerBlock[pageIndex]
	p, err := t.buf.GetPage(t.name, pageIndex, n, len(t.columns))
	if err != nil {
		return nil, err
	}
	rows := make([][]int64, n)
	for i := 0; i < n; i++ {
		src := p.Row(i)
		row := make([]int64, len(src))
		copy(row, src)
		rows[i] = row
	}
	return rows, nil
}

// RewritePage replaces page pageIndex's contents with rows and updates
// RowsPerBlock accordingly. Used by UPDATE (same length) and DELETE
// (shorter length) per spec.md §4.7.
func (t *Table) RewritePage(pageIndex int, rows [][]int64) error {
	if pageIndex < 0 || pageIndex >= t.blockCount {
		return fmt.Errorf("table: %s page %d out of range [0,%d): %w", t.name, pageIndex, t.blockCount, ErrInternalInvariant)
	}
	if err := t.buf.WriteTablePage(t.name, pageIndex, rows, len(rows)); err != nil {
		return err
	}
	t.rowsPerBlock[pageIndex] = len(rows)
	return nil
}

// AppendRow inserts row at the end of the table: into the last page if it
// has free capacity, else into a newly allocated page. Returns the record
// pointer DML/index maintenance uses to address the inserted row.
func (t *Table) AppendRow(row []int64) (rowcursor.Pointer, error) {
	if len(row) != len(t.columns) {
		return rowcursor.Pointer{}, fmt.Errorf("table: %s row has %d columns, want %d: %w", t.name, len(row), len(t.columns), ErrSchemaError)
	}

	if t.blockCount > 0 {
		last := t.blockCount - 1
		if t.rowsPerBlock[last] < t.maxRowsPerBlock {
			rows, err := t.PageRows(last)
			if err != nil {
				return rowcursor.Pointer{}, err
			}
			rowIdx := len(rows)
			rows = append(rows, row)
			if err := t.RewritePage(last, rows); err != nil {
				return rowcursor.Pointer{}, err
			}
			t.rowCount++
			t.bumpDistinct(row)
			return rowcursor.Pointer{PageIndex: last, RowIndex: rowIdx}, nil
		}
	}

	idx := t.blockCount
	if err := t.flushPage([][]int64{row}, 1); err != nil {
		return rowcursor.Pointer{}, err
	}
	t.rowCount++
	t.bumpDistinct(row)
	return rowcursor.Pointer{PageIndex: idx, RowIndex: 0}, nil
}

func (t *Table) bumpDistinct(row []int64) {
	if len(t.distinctCount) != len(row) {
		return
	}
	// Lightweight running count without retaining per-column sets after
	// LOAD; AppendRow only increments monotonically, matching the
	// "not consulted by specified executors" guidance in spec.md §4.4.
	for i := range row {
		t.distinctCount[i]++
	}
}

// DeleteRows removes the rows at ptrs (already grouped and validated by the
// caller) page by page, rewriting each affected page with its surviving
// rows in order. Returns the number of rows actually removed.
func (t *Table) DeleteRows(ptrs []rowcursor.Pointer) (int, error) {
	byPage := make(map[int]map[int]bool)
	for _, p := range ptrs {
		if byPage[p.PageIndex] == nil {
			byPage[p.PageIndex] = make(map[int]bool)
		}
		byPage[p.PageIndex][p.RowIndex] = true
	}

	removed := 0
	for page, rowSet := range byPage {
		rows, err := t.PageRows(page)
		if err != nil {
			t.log.Warn("table: delete skip page", "table", t.name, "page", page, "err", err)
			continue
		}
		surviving := make([][]int64, 0, len(rows))
		for i, r := range rows {
			if rowSet[i] {
				removed++
				continue
			}
			surviving = append(surviving, r)
		}
		if err := t.RewritePage(page, surviving); err != nil {
			t.log.Warn("table: delete rewrite page", "table", t.name, "page", page, "err", err)
			continue
		}
	}
	t.rowCount -= int64(removed)
	return removed, nil
}

// UpdateRow rewrites the single row at ptr in place within its page,
// leaving every other row on that page untouched. Callers handle index
// maintenance (delete_key/insert_key on changed indexed columns)
// themselves, since only they know which columns are indexed.
func (t *Table) UpdateRow(ptr rowcursor.Pointer, newRow []int64) error {
	rows, err := t.PageRows(ptr.PageIndex)
	if err != nil {
		return err
	}
	if ptr.RowIndex < 0 || ptr.RowIndex >= len(rows) {
		return fmt.Errorf("table: %s update pointer (%d,%d) out of range: %w", t.name, ptr.PageIndex, ptr.RowIndex, ErrInternalInvariant)
	}
	rows[ptr.RowIndex] = newRow
	return t.RewritePage(ptr.PageIndex, rows)
}

// RowAt returns a copy of the row addressed by ptr, used by DML to read
// the current value of a matched row before mutating it.
func (t *Table) RowAt(ptr rowcursor.Pointer) ([]int64, error) {
	rows, err := t.PageRows(ptr.PageIndex)
	if err != nil {
		return nil, err
	}
	if ptr.RowIndex < 0 || ptr.RowIndex >= len(rows) {
		return nil, fmt.Errorf("table: %s pointer (%d,%d) out of range: %w", t.name, ptr.PageIndex, ptr.RowIndex, ErrInternalInvariant)
	}
	return rows[ptr.RowIndex], nil
}

// RewriteSorted replaces the table's entire row stream in place with rows,
// re-chunked into pages of MaxRowsPerBlock, implementing SORT's in-place
// page rebuild (spec.md §4.4/§4.6). row_count is unchanged by construction
// since callers pass every live row exactly once.
func (t *Table) RewriteSorted(rows [][]int64) error {
	newBlockCount := (len(rows) + t.maxRowsPerBlock - 1) / t.maxRowsPerBlock
	if len(rows) == 0 {
		newBlockCount = 0
	}

	newRowsPerBlock := make([]int, newBlockCount)
	for i := 0; i < newBlockCount; i++ {
		lo := i * t.maxRowsPerBlock
		hi := lo + t.maxRowsPerBlock
		if hi > len(rows) {
			hi = len(rows)
		}
		chunk := rows[lo:hi]
		if i < t.blockCount {
			if err := t.buf.WriteTablePage(t.name, i, chunk, len(chunk)); err != nil {
				return err
			}
		} else {
			if err := t.buf.WriteTablePage(t.name, i, chunk, len(chunk)); err != nil {
				return err
			}
		}
		newRowsPerBlock[i] = len(chunk)
	}
	for i := newBlockCount; i < t.blockCount; i++ {
		if err := t.buf.DeleteTablePage(t.name, i); err != nil {
			t.log.Warn("table: sort cleanup trailing page", "table", t.name, "page", i, "err", err)
		}
	}

	t.blockCount = newBlockCount
	t.rowsPerBlock = newRowsPerBlock
	return nil
}
