// Package table implements the base-relation storage primitives described
// in spec.md §4.4: schema + pagination metadata, the LOAD path that turns a
// CSV into fixed-width integer pages, and the mutation primitives INSERT,
// DELETE, UPDATE, and SORT rely on.
//
// Grounded on original_source/src/table.cpp (extractColumnNames / blockify /
// makePermanent / reload) and ShubhamNegi4-DaemonDB/heapfile_manager's
// manager-owns-files-via-a-pager shape, adapted from DaemonDB's binary
// slotted pages to the plain-text block format pageio implements.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"radb/internal/buffer"
	"radb/internal/engineconfig"
	"radb/internal/rowcursor"
)

// Errors matching the taxonomy in spec.md §7.
var (
	ErrSchemaError       = errors.New("table: schema error")
	ErrInternalInvariant = errors.New("table: internal invariant violated")
)

// Index is the subset of a secondary index a Table needs to keep current
// on mutation, implemented by internal/btree.BTree. Defined here (rather
// than imported from btree) so btree depends on table, not the reverse.
type Index interface {
	InsertKey(key int64, ptr rowcursor.Pointer) error
	DeleteKey(key int64) error
	DeleteKeyAt(key int64, ptr rowcursor.Pointer) error
	Drop() error
}

// Table owns one base relation's pages and metadata.
type Table struct {
	buf *buffer.Manager
	cfg *engineconfig.Config
	log *slog.Logger

	name            string
	columns         []string
	colIndex        map[string]int
	maxRowsPerBlock int
	rowCount        int64
	blockCount      int
	rowsPerBlock    []int
	distinctCount   []int

	indexes map[string]Index

	sourceCSV string
	permanent bool
}

// Name returns the table's name, its key in the Catalog.
func (t *Table) Name() string { return t.name }

// Columns returns the column names in declared order.
func (t *Table) Columns() []string { return t.columns }

// ColumnIndex returns the position of name, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.colIndex[name]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether name is one of this table's columns.
func (t *Table) HasColumn(name string) bool { return t.ColumnIndex(name) >= 0 }

// RowCount returns the number of live rows.
func (t *Table) RowCount() int64 { return t.rowCount }

// MaxRowsPerBlock returns the row-capacity of one page for this table's
// column width, derived from engineconfig.BlockSize.
func (t *Table) MaxRowsPerBlock() int { return t.maxRowsPerBlock }

// DistinctCount returns the running distinct-value count for column i,
// maintained during LOAD for later optimization; no executor in this
// repository consults it, matching spec.md §4.4.
func (t *Table) DistinctCount(i int) int {
	if i < 0 || i >= len(t.distinctCount) {
		return 0
	}
	return t.distinctCount[i]
}

// rowcursor.Source implementation.

func (t *Table) Owner() string          { return t.name }
func (t *Table) ColumnCount() int       { return len(t.columns) }
func (t *Table) BlockCount() int        { return t.blockCount }
func (t *Table) RowsInBlock(i int) int {
	if i < 0 || i >= len(t.rowsPerBlock) {
		return 0
	}
	return t.rowsPerBlock[i]
}

// Cursor returns a fresh forward iterator over this table's rows, starting
// at page 0.
func (t *Table) Cursor() *rowcursor.Cursor {
	return rowcursor.New(t.buf, t)
}

// IsPermanent reports whether this table's backing CSV has been exported
// to the permanent data directory (as opposed to a scratch temp file).
func (t *Table) IsPermanent() bool { return t.permanent }

// SourceCSV returns the path this table's rows were most recently loaded
// from or exported to.
func (t *Table) SourceCSV() string { return t.sourceCSV }

func maxRowsPerBlock(cfg *engineconfig.Config, columnCount int) int {
	n := cfg.BlockSize / (cfg.IntSize * columnCount)
	if n < 1 {
		n = 1
	}
	return n
}

// New constructs an empty table with the given schema, used by executors
// that materialize a result relation (PROJECT, JOIN, SORT runs, ...)
// before streaming rows into it with AppendRow.
func New(buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, name string, columns []string) (*Table, error) {
	if log == nil {
		log = slog.Default()
	}
	colIndex, err := indexColumns(columns)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table: %s has no columns: %w", name, ErrSchemaError)
	}
	return &Table{
		buf:             buf,
		cfg:             cfg,
		log:             log,
		name:            name,
		columns:         columns,
		colIndex:        colIndex,
		maxRowsPerBlock: maxRowsPerBlock(cfg, len(columns)),
		distinctCount:   make([]int, len(columns)),
		indexes:         make(map[string]Index),
		sourceCSV:       cfg.TempDir() + "/" + name + ".csv",
	}, nil
}

func indexColumns(columns []string) (map[string]int, error) {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := idx[c]; dup {
			return nil, fmt.Errorf("table: duplicate column %q: %w", c, ErrSchemaError)
		}
		idx[c] = i
	}
	return idx, nil
}

// Load reads csvPath's header and rows, pages the rows into the buffer
// manager's temp directory under name, and returns the resulting Table.
// This implements spec.md §4.4's four-step load path.
func Load(buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, name, csvPath string) (*Table, error) {
	if log == nil {
		log = slog.Default()
	}
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("table: open %s: %w", csvPath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("table: read header of %s: %w", csvPath, err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}
	colIndex, err := indexColumns(columns)
	if err != nil {
		return nil, err
	}

	t := &Table{
		buf:             buf,
		cfg:             cfg,
		log:             log,
		name:            name,
		columns:         columns,
		colIndex:        colIndex,
		maxRowsPerBlock: maxRowsPerBlock(cfg, len(columns)),
		distinctCount:   make([]int, len(columns)),
		indexes:         make(map[string]Index),
		sourceCSV:       csvPath,
		permanent:       true,
	}

	distinct := make([]map[int64]struct{}, len(columns))
	for i := range distinct {
		distinct[i] = make(map[int64]struct{})
	}

	page := make([][]int64, t.maxRowsPerBlock)
	pageLen := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("table: read row of %s: %w", csvPath, err)
		}
		if len(rec) != len(columns) {
			return nil, fmt.Errorf("table: %s row has %d fields, want %d: %w", csvPath, len(rec), len(columns), ErrSchemaError)
		}
		row := make([]int64, len(columns))
		for i, field := range rec {
			v, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("table: %s has non-integer field %q: %w", csvPath, field, ErrSchemaError)
			}
			row[i] = v
			if _, ok := distinct[i][v]; !ok {
				distinct[i][v] = struct{}{}
				t.distinctCount[i]++
			}
		}

		page[pageLen] = row
		pageLen++
		t.rowCount++
		if pageLen == t.maxRowsPerBlock {
			if err := t.flushPage(page, pageLen); err != nil {
				return nil, err
			}
			pageLen = 0
		}
	}
	if pageLen > 0 {
		if err := t.flushPage(page, pageLen); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) flushPage(rows [][]int64, n int) error {
	idx := t.blockCount
	if err := t.buf.WriteTablePage(t.name, idx, rows, n); err != nil {
		return err
	}
	t.blockCount++
	t.rowsPerBlock = append(t.rowsPerBlock, n)
	return nil
}

// RenameColumn renames a column, and keeps the indexes map's key in sync if
// the renamed column is indexed.
func (t *Table) RenameColumn(from, to string) error {
	i, ok := t.colIndex[from]
	if !ok {
		return fmt.Errorf("table: column %q not found: %w", from, ErrSchemaError)
	}
	if _, dup := t.colIndex[to]; dup {
		return fmt.Errorf("table: column %q already exists: %w", to, ErrSchemaError)
	}
	t.columns[i] = to
	delete(t.colIndex, from)
	t.colIndex[to] = i
	if idx, ok := t.indexes[from]; ok {
		delete(t.indexes, from)
		t.indexes[to] = idx
	}
	return nil
}

// Index returns the index registered on column, if any.
func (t *Table) Index(column string) (Index, bool) {
	idx, ok := t.indexes[column]
	return idx, ok
}

// SetIndex registers idx as the secondary index for column.
func (t *Table) SetIndex(column string, idx Index) {
	t.indexes[column] = idx
}

// DropIndex removes and drops the index on column, if any.
func (t *Table) DropIndex(column string) error {
	idx, ok := t.indexes[column]
	if !ok {
		return nil
	}
	delete(t.indexes, column)
	return idx.Drop()
}

// Indexes returns every (column, index) pair currently registered, used by
// DML to maintain every index touched by a mutation.
func (t *Table) Indexes() map[string]Index { return t.indexes }

// Export writes the table's rows to a permanent CSV at dataDir/<name>.csv
// via a fresh full cursor scan, matching spec.md §4.4's EXPORT semantics.
func (t *Table) Export(dataDir string) error {
	dest := dataDir + "/" + t.name + ".csv"
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("table: create %s: %w", dest, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.columns); err != nil {
		return fmt.Errorf("table: write header of %s: %w", dest, err)
	}

	cur := t.Cursor()
	rec := make([]string, len(t.columns))
	for {
		row, ok, err := cur.Next()
		if err != nil {
			return fmt.Errorf("table: export %s: %w", t.name, err)
		}
		if !ok {
			break
		}
		for i, v := range row {
			rec[i] = strconv.FormatInt(v, 10)
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("table: write row of %s: %w", dest, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("table: flush %s: %w", dest, err)
	}

	oldSource := t.sourceCSV
	wasTemp := !t.permanent
	t.sourceCSV = dest
	t.permanent = true

	if wasTemp {
		for i := 0; i < t.blockCount; i++ {
			if err := t.buf.DeleteTablePage(t.name, i); err != nil {
				t.log.Warn("table: export cleanup", "table", t.name, "page", i, "err", err)
			}
		}
		t.blockCount = 0
		t.rowsPerBlock = nil
		if oldSource != dest {
			if err := t.buf.DeleteFile(oldSource); err != nil {
				t.log.Warn("table: export delete temp source", "table", t.name, "err", err)
			}
		}
	}
	return nil
}

// Reload re-reads SourceCSV and rebuilds every page and statistic. Per
// spec.md §4.4, indexed tables must not reach this path from DML (DML
// mutates pages in place); callers that do invoke Reload on an indexed
// table get ErrInternalInvariant rather than silently invalidating record
// pointers the index still references.
func (t *Table) Reload() error {
	if len(t.indexes) > 0 {
		return fmt.Errorf("table: reload %s: indexed table would invalidate record pointers: %w", t.name, ErrInternalInvariant)
	}
	for i := 0; i < t.blockCount; i++ {
		if err := t.buf.DeleteTablePage(t.name, i); err != nil {
			return err
		}
	}
	t.blockCount = 0
	t.rowCount = 0
	t.rowsPerBlock = nil
	t.distinctCount = make([]int, len(t.columns))

	reloaded, err := Load(t.buf, t.cfg, t.log, t.name, t.sourceCSV)
	if err != nil {
		return err
	}
	t.blockCount = reloaded.blockCount
	t.rowCount = reloaded.rowCount
	t.rowsPerBlock = reloaded.rowsPerBlock
	t.distinctCount = reloaded.distinctCount
	return nil
}

// Unload drops every index, deletes every page file, and removes the
// source CSV if it is a temp file, matching spec.md §4.5's Catalog.remove
// unload order (called by Catalog, in that order, around this method).
func (t *Table) Unload() error {
	for col, idx := range t.indexes {
		if err := idx.Drop(); err != nil {
			t.log.Warn("table: unload drop index", "table", t.name, "column", col, "err", err)
		}
	}
	t.indexes = make(map[string]Index)

	for i := 0; i < t.blockCount; i++ {
		if err := t.buf.DeleteTablePage(t.name, i); err != nil {
			t.log.Warn("table: unload delete page", "table", t.name, "page", i, "err", err)
		}
	}

	if !t.permanent && t.sourceCSV != "" {
		if err := t.buf.DeleteFile(t.sourceCSV); err != nil {
			return err
		}
	}
	return nil
}
