package sortexec

import (
	"log/slog"

	"radb/internal/buffer"
	"radb/internal/catalog"
	"radb/internal/engineconfig"
	"radb/internal/table"
)

// OrderBy materializes src's rows into a fresh result Table, registers it
// in the catalog under resultName, and sorts it in place on key (spec.md
// §4.6). No separate temp Table is used.
func OrderBy(cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, src *table.Table, resultName string, key Key) (*table.Table, error) {
	if log == nil {
		log = slog.Default()
	}
	result, err := table.New(buf, cfg, log, resultName, src.Columns())
	if err != nil {
		return nil, err
	}

	cur := src.Cursor()
	for {
		row, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if _, err := result.AppendRow(row); err != nil {
			return nil, err
		}
	}

	if err := cat.Insert(result); err != nil {
		return nil, err
	}
	if err := Sort(cat, buf, cfg, log, result, []Key{key}); err != nil {
		return nil, err
	}
	return result, nil
}
