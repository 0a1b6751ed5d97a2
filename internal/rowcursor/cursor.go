// Package rowcursor implements the forward row iterator described in
// spec.md §4.3. A Cursor walks one owner's pages in order through the
// shared buffer manager, and exposes the pointer-from-cursor contract the
// B+Tree build, delete scan, and update scan all rely on: after Next
// returns the row at (p, r), the cursor's own PageIndex/PagePointer fields
// equal (p, r+1), resolved unambiguously across page boundaries.
//
// Grounded on original_source/src/cursor.cpp (the page/pagePointer state
// machine) and ShubhamNegi4-DaemonDB/heapfile_manager's row-walking helpers
// (the read-through-buffer-manager access pattern).
package rowcursor

import (
	"radb/internal/buffer"
	"radb/internal/pageio"
)

// Source is the subset of Table a Cursor needs: page geometry metadata,
// supplied by the catalog/table package without importing it directly
// (table.Table uses rowcursor.Cursor internally, so the dependency must
// run the other way).
type Source interface {
	Owner() string
	ColumnCount() int
	BlockCount() int
	RowsInBlock(pageIndex int) int
}

// Pointer identifies one row by (page index, row-within-page). This is the
// record pointer the B+Tree stores and DML validates.
type Pointer struct {
	PageIndex int
	RowIndex  int
}

// Cursor is a forward iterator over a Source's rows, backed by a shared
// buffer.Manager.
type Cursor struct {
	buf    *buffer.Manager
	src    Source
	owner  string

	PageIndex   int
	PagePointer int

	page *pageio.Page
}

// New creates a cursor positioned at the start of src's first page. Pages
// are fetched lazily on the first Next call.
func New(buf *buffer.Manager, src Source) *Cursor {
	return &Cursor{
		buf:   buf,
		src:   src,
		owner: src.Owner(),
	}
}

// SeekPage loads page idx and resets PagePointer to 0. idx must be a valid
// page index for the source; callers that pass an out-of-range idx will
// simply see Next return (nil, false) immediately.
func (c *Cursor) SeekPage(idx int) error {
	c.PageIndex = idx
	c.PagePointer = 0
	c.page = nil
	if idx < 0 || idx >= c.src.BlockCount() {
		return nil
	}
	rowCnt := c.src.RowsInBlock(idx)
	p, err := c.buf.GetPage(c.owner, idx, rowCnt, c.src.ColumnCount())
	if err != nil {
		return err
	}
	c.page = p
	return nil
}

// Next returns the next row in cursor order, advancing PageIndex and
// PagePointer past it. ok is false once every page has been exhausted.
func (c *Cursor) Next() (row []int64, ok bool, err error) {
	for {
		if c.page == nil {
			if c.PageIndex >= c.src.BlockCount() {
				return nil, false, nil
			}
			if err := c.SeekPage(c.PageIndex); err != nil {
				return nil, false, err
			}
			if c.page == nil {
				// SeekPage leaves page nil only for an out-of-range index
				// (an empty page loads with zero rows); treat as exhausted.
				return nil, false, nil
			}
		}

		if c.PagePointer < c.page.RowCount() {
			r := c.page.Row(c.PagePointer)
			c.PagePointer++
			return r, true, nil
		}

		// Current page exhausted; advance to the next one.
		if c.PageIndex < c.src.BlockCount()-1 {
			if err := c.SeekPage(c.PageIndex + 1); err != nil {
				return nil, false, err
			}
			continue
		}
		return nil, false, nil
	}
}

// LastPointer returns the (page, row) address of the row most recently
// returned by Next, implementing the pointer-from-cursor contract: valid
// only immediately after a Next call that returned ok == true.
func (c *Cursor) LastPointer() Pointer {
	return Pointer{PageIndex: c.PageIndex, RowIndex: c.PagePointer - 1}
}

// Rewind resets the cursor to the start of page 0.
func (c *Cursor) Rewind() error {
	return c.SeekPage(0)
}
