package dmlexec

import (
	"log/slog"

	"radb/internal/catalog"
	"radb/internal/rowcursor"
	"radb/internal/table"
)

// rowPointer wraps the record pointer of one row matched by UPDATE.
type rowPointer struct {
	ptr rowcursor.Pointer
}

func toRowPointers(ptrs []rowcursor.Pointer) []rowPointer {
	out := make([]rowPointer, len(ptrs))
	for i, p := range ptrs {
		out[i] = rowPointer{ptr: p}
	}
	return out
}

func fullScanRowPointers(tbl *table.Table, col int, op Op, operand int64) ([]rowPointer, error) {
	ptrs, err := fullScanMatches(tbl, col, op, operand)
	if err != nil {
		return nil, err
	}
	return toRowPointers(ptrs), nil
}

// Update implements `UPDATE <tbl> WHERE <col> <op> <int> SET <col> = <int>`:
// it finds matches by index when the condition is index-usable (else a
// full scan), captures the old value of the column being set before
// mutating, rewrites the row in place, and repairs the set column's index
// (if any) with DeleteKeyAt(old) + InsertKey(new).
func Update(cat *catalog.Catalog, log *slog.Logger, tableName, whereCol string, op Op, whereOperand int64, setCol string, setValue int64) (int, error) {
	log = defaultLog(log)

	tbl, whereIdx, err := resolveIndexable(cat, tableName, whereCol)
	if err != nil {
		return 0, err
	}
	setIdx := tbl.ColumnIndex(setCol)
	if setIdx < 0 {
		return 0, ErrColumnNotFound
	}

	var pointers []rowPointer
	if op == OpEQ {
		if bt, ok := resolveBTree(tbl, whereCol); ok {
			found, err := bt.SearchKey(whereOperand)
			if err != nil {
				return 0, err
			}
			pointers = toRowPointers(filterValid(log, tbl, found))
		} else {
			pointers, err = fullScanRowPointers(tbl, whereIdx, op, whereOperand)
			if err != nil {
				return 0, err
			}
		}
	} else {
		pointers, err = fullScanRowPointers(tbl, whereIdx, op, whereOperand)
		if err != nil {
			return 0, err
		}
	}

	indexes := tbl.Indexes()
	updated := 0
	for _, p := range pointers {
		row, err := tbl.RowAt(p.ptr)
		if err != nil {
			log.Warn("dmlexec: update read row", "table", tableName, "err", err)
			continue
		}
		oldValue := row[setIdx]
		if oldValue == setValue {
			continue
		}

		newRow := append([]int64(nil), row...)
		newRow[setIdx] = setValue
		if err := tbl.UpdateRow(p.ptr, newRow); err != nil {
			log.Warn("dmlexec: update rewrite row", "table", tableName, "err", err)
			continue
		}
		updated++

		if idx, ok := indexes[setCol]; ok {
			if err := idx.DeleteKeyAt(oldValue, p.ptr); err != nil {
				log.Warn("dmlexec: update index delete", "table", tableName, "column", setCol, "err", err)
			}
			if err := idx.InsertKey(setValue, p.ptr); err != nil {
				log.Warn("dmlexec: update index insert", "table", tableName, "column", setCol, "err", err)
			}
		}
	}
	return updated, nil
}
