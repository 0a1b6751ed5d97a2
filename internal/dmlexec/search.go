package dmlexec

import (
	"log/slog"

	"radb/internal/buffer"
	"radb/internal/catalog"
	"radb/internal/engineconfig"
	"radb/internal/rowcursor"
	"radb/internal/table"
)

// Search implements `R <- SEARCH FROM T WHERE col op k`: it transparently
// builds a B+Tree on col if none exists yet, maps op to the pointer-set
// rule in spec.md §4.7's table, validates the returned pointers, and
// materializes the matching rows into a new Table registered as
// resultName.
func Search(cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, tableName, column string, op Op, operand int64, resultName string) (*table.Table, error) {
	log = defaultLog(log)

	tbl, col, err := resolveIndexable(cat, tableName, column)
	if err != nil {
		return nil, err
	}
	bt, err := ensureIndex(buf, cfg, log, tbl, column, col)
	if err != nil {
		return nil, err
	}

	ptrs, err := pointerSet(bt, op, operand)
	if err != nil {
		return nil, err
	}
	ptrs = filterValid(log, tbl, ptrs)

	result, err := table.New(buf, cfg, log, resultName, tbl.Columns())
	if err != nil {
		return nil, err
	}
	for _, p := range ptrs {
		row, err := tbl.RowAt(p)
		if err != nil {
			log.Warn("dmlexec: search read row", "table", tbl.Name(), "err", err)
			continue
		}
		if _, err := result.AppendRow(row); err != nil {
			return nil, err
		}
	}

	if err := cat.Insert(result); err != nil {
		return nil, err
	}
	return result, nil
}

// pointerSet maps (op, operand) to the record-pointer set spec.md §4.7
// defines for each comparison operator.
func pointerSet(bt btreeSearcher, op Op, operand int64) ([]rowcursor.Pointer, error) {
	switch op {
	case OpEQ:
		return bt.SearchKey(operand)
	case OpLT:
		if operand == minKey {
			return nil, nil
		}
		return bt.SearchRange(minKey, operand-1)
	case OpLE:
		return bt.SearchRange(minKey, operand)
	case OpGT:
		if operand == maxKey {
			return nil, nil
		}
		return bt.SearchRange(operand+1, maxKey)
	case OpGE:
		return bt.SearchRange(operand, maxKey)
	case OpNE:
		var out []rowcursor.Pointer
		if operand != minKey {
			lo, err := bt.SearchRange(minKey, operand-1)
			if err != nil {
				return nil, err
			}
			out = append(out, lo...)
		}
		if operand != maxKey {
			hi, err := bt.SearchRange(operand+1, maxKey)
			if err != nil {
				return nil, err
			}
			out = append(out, hi...)
		}
		return out, nil
	default:
		return nil, nil
	}
}

// btreeSearcher is the subset of *btree.BTree pointerSet needs, named here
// to keep the op-to-pointer-set mapping testable without constructing a
// real on-disk tree.
type btreeSearcher interface {
	SearchKey(key int64) ([]rowcursor.Pointer, error)
	SearchRange(lo, hi int64) ([]rowcursor.Pointer, error)
}
