// Package dmlexec implements the row-level DML executors in spec.md §4.7:
// SEARCH (with implicit index construction), INSERT, UPDATE, and DELETE,
// each responsible for keeping every index on its target Table consistent
// with the data it just mutated.
//
// Grounded on original_source/src/executors/{search,insert,update,delete}.cpp
// for the per-operator algorithms, and internal/table + internal/btree for
// the storage primitives these executors compose.
package dmlexec

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"radb/internal/btree"
	"radb/internal/buffer"
	"radb/internal/catalog"
	"radb/internal/engineconfig"
	"radb/internal/rowcursor"
	"radb/internal/table"
)

// ErrColumnNotFound is returned when a WHERE/SET/INSERT clause names a
// column the target Table doesn't have; this is a user error, not an I/O
// failure, so callers print it and make no state change.
var ErrColumnNotFound = errors.New("dmlexec: column not found")

// Op is one of the comparison operators WHERE supports.
type Op int

const (
	OpEQ Op = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
)

func (op Op) eval(lhs, rhs int64) bool {
	switch op {
	case OpEQ:
		return lhs == rhs
	case OpNE:
		return lhs != rhs
	case OpLT:
		return lhs < rhs
	case OpLE:
		return lhs <= rhs
	case OpGT:
		return lhs > rhs
	case OpGE:
		return lhs >= rhs
	default:
		return false
	}
}

const (
	minKey = math.MinInt64
	maxKey = math.MaxInt64
)

func defaultLog(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log
}

// resolveIndexable looks up tableName in the catalog and returns the table
// and column's position in it, or an error if either is missing (spec.md
// §4.7's common preamble).
func resolveIndexable(cat *catalog.Catalog, tableName, column string) (*table.Table, int, error) {
	tbl, err := cat.Get(tableName)
	if err != nil {
		return nil, -1, err
	}
	col := tbl.ColumnIndex(column)
	if col < 0 {
		return nil, -1, fmt.Errorf("dmlexec: %s.%s: %w", tableName, column, ErrColumnNotFound)
	}
	return tbl, col, nil
}

// resolveBTree returns tbl's existing *btree.BTree index on column, if any
// registered index is actually a BTree and not some other table.Index
// implementation.
func resolveBTree(tbl *table.Table, column string) (*btree.BTree, bool) {
	idx, ok := tbl.Index(column)
	if !ok {
		return nil, false
	}
	bt, ok := idx.(*btree.BTree)
	return bt, ok
}

// ensureIndex returns tbl's BTree index on column, transparently building
// one first if absent, implementing SEARCH's "implicit INDEX" rule.
func ensureIndex(buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, tbl *table.Table, column string, colIdx int) (*btree.BTree, error) {
	if bt, ok := resolveBTree(tbl, column); ok {
		return bt, nil
	}
	bt := btree.New(buf, cfg, log, tbl.Name(), column, colIdx)
	if err := bt.Build(tbl); err != nil {
		return nil, fmt.Errorf("dmlexec: implicit index build %s.%s: %w", tbl.Name(), column, err)
	}
	tbl.SetIndex(column, bt)
	return bt, nil
}

// validPointer reports whether ptr still addresses a live row, guarding
// against index entries that have gone stale relative to the Table's
// current block_count/rows_per_block (spec.md §7's IndexStale case).
func validPointer(tbl *table.Table, ptr rowcursor.Pointer) bool {
	if ptr.PageIndex < 0 || ptr.PageIndex >= tbl.BlockCount() {
		return false
	}
	return ptr.RowIndex >= 0 && ptr.RowIndex < tbl.RowsInBlock(ptr.PageIndex)
}

// filterValid drops stale pointers, logging each one, matching the
// "validation against block_count/rows_per_block, dropping+logging invalid
// pointers" behavior spec.md §4.7 requires of SEARCH.
func filterValid(log *slog.Logger, tbl *table.Table, ptrs []rowcursor.Pointer) []rowcursor.Pointer {
	out := make([]rowcursor.Pointer, 0, len(ptrs))
	for _, p := range ptrs {
		if validPointer(tbl, p) {
			out = append(out, p)
		} else {
			log.Warn("dmlexec: dropped stale index pointer", "table", tbl.Name(), "page", p.PageIndex, "row", p.RowIndex)
		}
	}
	return out
}

// rebuildIndexes rebuilds every *btree.BTree registered on tbl from its
// current rows. Called after any mutation that can move a surviving row's
// record pointer out from under its existing index entries (DELETE's page
// compaction), since patching only the mutated rows' own entries would
// leave every shifted survivor's entry stale or, worse, pointing at the
// wrong row.
func rebuildIndexes(log *slog.Logger, tbl *table.Table) {
	for col, idx := range tbl.Indexes() {
		bt, ok := idx.(*btree.BTree)
		if !ok {
			continue
		}
		if err := bt.Build(tbl); err != nil {
			log.Warn("dmlexec: rebuild index", "table", tbl.Name(), "column", col, "err", err)
		}
	}
}

// fullScanMatches evaluates the predicate over every live row via a
// cursor, returning the matching pointers, used whenever the condition
// isn't index-usable.
func fullScanMatches(tbl *table.Table, col int, op Op, operand int64) ([]rowcursor.Pointer, error) {
	var matches []rowcursor.Pointer
	cur := tbl.Cursor()
	for {
		row, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if op.eval(row[col], operand) {
			matches = append(matches, cur.LastPointer())
		}
	}
	return matches, nil
}
