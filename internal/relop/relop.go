// Package relop implements the thin pass-through relational operators
// spec.md names as out of CORE scope but still specifies the interface
// of: PROJECT, SELECT, DISTINCT, and CROSS. Each is a mechanical
// composition of a Cursor scan over the CORE's Table/Catalog primitives,
// with no new storage concept of its own.
//
// Grounded on original_source/src/executors/selection.cpp for the
// SELECT predicate shape and crossTranspose.cpp (pattern only — that file
// is a matrix transpose, not a relational cross; the cartesian-product
// shape here follows joinexec's result-schema convention instead).
package relop

import (
	"fmt"
	"log/slog"
	"strconv"

	"radb/internal/buffer"
	"radb/internal/catalog"
	"radb/internal/engineconfig"
	"radb/internal/table"
)

// Op is one of the comparison operators SELECT supports.
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

func defaultLog(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log
}

// Project materializes the named columns of src, in the given order, into
// resultName, implementing `R <- PROJECT c1,c2,… FROM <tbl>`.
func Project(cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, src *table.Table, columns []string, resultName string) (*table.Table, error) {
	log = defaultLog(log)

	idx := make([]int, len(columns))
	for i, c := range columns {
		j := src.ColumnIndex(c)
		if j < 0 {
			return nil, fmt.Errorf("relop: project %s: column %q not found", src.Name(), c)
		}
		idx[i] = j
	}

	result, err := table.New(buf, cfg, log, resultName, columns)
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
		projected := make([]int64, len(idx))
		for i, j := range idx {
			projected[i] = row[j]
		}
		if _, err := result.AppendRow(projected); err != nil {
			return nil, err
		}
	}

	if err := cat.Insert(result); err != nil {
		return nil, err
	}
	return result, nil
}

// Select implements `R <- SELECT <col> <op> <col|int> FROM <tbl>`: rhsCol
// selects a column-to-column comparison when >= 0, otherwise rhsLiteral is
// compared directly.
func Select(cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, src *table.Table, lhsCol int, op Op, rhsCol int, rhsLiteral int64, resultName string) (*table.Table, error) {
	log = defaultLog(log)

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
		rhs := rhsLiteral
		if rhsCol >= 0 {
			rhs = row[rhsCol]
		}
		if op.eval(row[lhsCol], rhs) {
			if _, err := result.AppendRow(append([]int64(nil), row...)); err != nil {
				return nil, err
			}
		}
	}

	if err := cat.Insert(result); err != nil {
		return nil, err
	}
	return result, nil
}

// Distinct materializes src's rows with exact duplicates removed,
// preserving first-occurrence order, implementing `R <- DISTINCT <tbl>`.
func Distinct(cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, src *table.Table, resultName string) (*table.Table, error) {
	log = defaultLog(log)

	result, err := table.New(buf, cfg, log, resultName, src.Columns())
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	cur := src.Cursor()
	for {
		row, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		key := rowKey(row)
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, err := result.AppendRow(row); err != nil {
			return nil, err
		}
	}

	if err := cat.Insert(result); err != nil {
		return nil, err
	}
	return result, nil
}

func rowKey(row []int64) string {
	buf := make([]byte, 0, len(row)*8)
	for _, v := range row {
		buf = strconv.AppendInt(buf, v, 10)
		buf = append(buf, ',')
	}
	return string(buf)
}

// Cross materializes the cartesian product of r and s, concatenating
// R.columns then S.columns (collisions prefixed by source table name, the
// same rule joinexec's JOIN uses), implementing `R <- CROSS T1, T2`.
func Cross(cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, r, s *table.Table, resultName string) (*table.Table, error) {
	log = defaultLog(log)

	result, err := table.New(buf, cfg, log, resultName, crossColumns(r, s))
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
			combined := make([]int64, 0, len(rRow)+len(sRow))
			combined = append(combined, rRow...)
			combined = append(combined, sRow...)
			if _, err := result.AppendRow(combined); err != nil {
				return nil, err
			}
		}
	}

	if err := cat.Insert(result); err != nil {
		return nil, err
	}
	return result, nil
}

func crossColumns(r, s *table.Table) []string {
	rCols, sCols := r.Columns(), s.Columns()
	seen := make(map[string]bool, len(rCols))
	for _, c := range rCols {
		seen[c] = true
	}
	collide := make(map[string]bool, len(sCols))
	for _, c := range sCols {
		if seen[c] {
			collide[c] = true
		}
	}

	out := make([]string, 0, len(rCols)+len(sCols))
	for _, c := range rCols {
		if collide[c] {
			out = append(out, r.Name()+"."+c)
		} else {
			out = append(out, c)
		}
	}
	for _, c := range sCols {
		if collide[c] {
			out = append(out, s.Name()+"."+c)
		} else {
			out = append(out, c)
		}
	}
	return out
}
