// Package joinexec implements the two JOIN algorithms described in
// spec.md §4.6: a partition hash equi-join bounded to BLOCK_COUNT-1
// buckets, and a nested-loop join for the non-equi comparison operators.
//
// Grounded on original_source/src/executors/join.cpp for the bucket-count
// and result-schema rules, and on sortexec's run-file pattern for how
// temp, catalog-registered scratch state is named and cleaned up.
package joinexec

import (
	"log/slog"

	"radb/internal/table"
)

// Op is one of the comparison operators JOIN ON supports.
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

// resultColumns concatenates R's and S's column names, prefixing any name
// that collides between the two sides with its source table's name, per
// spec.md §4.6's result schema rule.
func resultColumns(r, s *table.Table) []string {
	rCols, sCols := r.Columns(), s.Columns()
	collide := make(map[string]bool, len(rCols))
	seen := make(map[string]bool, len(rCols))
	for _, c := range rCols {
		seen[c] = true
	}
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

func combine(rRow, sRow []int64) []int64 {
	row := make([]int64, 0, len(rRow)+len(sRow))
	row = append(row, rRow...)
	row = append(row, sRow...)
	return row
}

func defaultLog(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log
}
