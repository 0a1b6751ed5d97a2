package joinexec

import (
	"log/slog"

	"radb/internal/buffer"
	"radb/internal/catalog"
	"radb/internal/engineconfig"
	"radb/internal/table"
)

// NestedLoop evaluates JOIN for any operator other than ==, scanning every
// (r, s) pair via Cursors and emitting the combined row when op holds,
// per spec.md §4.6's non-equi join rule.
func NestedLoop(cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, r, s *table.Table, rCol, sCol int, op Op, resultName string) (*table.Table, error) {
	log = defaultLog(log)

	result, err := table.New(buf, cfg, log, resultName, resultColumns(r, s))
	if err != nil {
		return nil, err
	}

	rCur := r.Cursor()
	for {
		rRow, ok, err := rCur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		sCur := s.Cursor()
		for {
			sRow, ok, err := sCur.Next()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			if op.eval(rRow[rCol], sRow[sCol]) {
				if _, err := result.AppendRow(combine(rRow, sRow)); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := cat.Insert(result); err != nil {
		return nil, err
	}
	return result, nil
}
