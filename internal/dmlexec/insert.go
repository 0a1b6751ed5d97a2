package dmlexec

import (
	"log/slog"

	"radb/internal/catalog"
)

// Insert implements `INSERT INTO <tbl> ( c = v, c = v, … )`: unnamed
// columns default to zero, the row is appended, and every index
// registered on tbl is updated with the new (key, pointer) pair.
func Insert(cat *catalog.Catalog, log *slog.Logger, tableName string, assignments map[string]int64) error {
	log = defaultLog(log)

	tbl, err := cat.Get(tableName)
	if err != nil {
		return err
	}

	row := make([]int64, len(tbl.Columns()))
	for col, v := range assignments {
		i := tbl.ColumnIndex(col)
		if i < 0 {
			return ErrColumnNotFound
		}
		row[i] = v
	}

	ptr, err := tbl.AppendRow(row)
	if err != nil {
		return err
	}

	for col, idx := range tbl.Indexes() {
		i := tbl.ColumnIndex(col)
		if i < 0 {
			continue
		}
		if err := idx.InsertKey(row[i], ptr); err != nil {
			log.Warn("dmlexec: insert index maintenance", "table", tableName, "column", col, "err", err)
		}
	}
	return nil
}
