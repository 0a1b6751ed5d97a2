package dmlexec

import (
	"log/slog"
	"sort"

	"radb/internal/catalog"
	"radb/internal/rowcursor"
)

// Delete implements `DELETE FROM <tbl> WHERE <col> <op> <int>`: it resolves
// matches by index when possible (else a full scan), groups the pointers by
// page and deletes them in ascending order within each page (satisfying
// Table.DeleteRows' ordering expectation), then repairs every registered
// index.
//
// Deleting compacts each affected page, which re-packs surviving rows
// starting at index 0 — any surviving row that followed a deleted row on
// the same page shifts to a lower RowIndex. Patching only the deleted
// rows' own old entries (as a naive DeleteKeyAt loop would) leaves every
// shifted survivor's index entry pointing at the wrong row. spec.md §9
// calls this out as a mandatory choice between rebuilding every index on
// the table after a compacting DELETE, or moving to a slotted-page design
// where row addresses never shift; this kernel takes the former: every
// index on tbl is rebuilt from the post-delete table via btree.Build.
func Delete(cat *catalog.Catalog, log *slog.Logger, tableName, whereCol string, op Op, whereOperand int64) (int, error) {
	log = defaultLog(log)

	tbl, whereIdx, err := resolveIndexable(cat, tableName, whereCol)
	if err != nil {
		return 0, err
	}

	var ptrs []rowcursor.Pointer
	if op == OpEQ {
		if bt, ok := resolveBTree(tbl, whereCol); ok {
			found, err := bt.SearchKey(whereOperand)
			if err != nil {
				return 0, err
			}
			ptrs = filterValid(log, tbl, found)
		} else {
			ptrs, err = fullScanMatches(tbl, whereIdx, op, whereOperand)
			if err != nil {
				return 0, err
			}
		}
	} else {
		ptrs, err = fullScanMatches(tbl, whereIdx, op, whereOperand)
		if err != nil {
			return 0, err
		}
	}
	if len(ptrs) == 0 {
		return 0, nil
	}

	sort.Slice(ptrs, func(i, j int) bool {
		if ptrs[i].PageIndex != ptrs[j].PageIndex {
			return ptrs[i].PageIndex < ptrs[j].PageIndex
		}
		return ptrs[i].RowIndex < ptrs[j].RowIndex
	})

	removed, err := tbl.DeleteRows(ptrs)
	if err != nil {
		return 0, err
	}

	rebuildIndexes(log, tbl)
	return removed, nil
}
