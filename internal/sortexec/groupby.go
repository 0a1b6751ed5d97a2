package sortexec

import (
	"fmt"
	"log/slog"

	"radb/internal/buffer"
	"radb/internal/catalog"
	"radb/internal/engineconfig"
	"radb/internal/table"
)

// Aggregate identifies one of the five aggregate functions GROUP BY can
// accumulate, per spec.md §4.6.
type Aggregate int

const (
	AggMax Aggregate = iota
	AggMin
	AggSum
	AggCount
	AggAvg
)

// accumulator folds one column's values into a single aggregate result as
// rows stream by within a group.
type accumulator struct {
	agg   Aggregate
	col   int
	sum   int64
	count int64
	cur   int64
	init  bool
}

func newAccumulator(agg Aggregate, col int) *accumulator {
	return &accumulator{agg: agg, col: col}
}

func (a *accumulator) add(row []int64) {
	v := row[a.col]
	a.sum += v
	a.count++
	if !a.init {
		a.cur = v
		a.init = true
		return
	}
	switch a.agg {
	case AggMax:
		if v > a.cur {
			a.cur = v
		}
	case AggMin:
		if v < a.cur {
			a.cur = v
		}
	}
}

func (a *accumulator) result() int64 {
	switch a.agg {
	case AggSum:
		return a.sum
	case AggCount:
		return a.count
	case AggAvg:
		if a.count == 0 {
			return 0
		}
		return a.sum / a.count // truncated integer division, per spec.md §4.6
	default: // AggMax, AggMin
		return a.cur
	}
}

// CompareOp is the comparison HAVING applies to its aggregate.
type CompareOp int

const (
	CmpEQ CompareOp = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
)

func (op CompareOp) eval(lhs, rhs int64) bool {
	switch op {
	case CmpEQ:
		return lhs == rhs
	case CmpNE:
		return lhs != rhs
	case CmpLT:
		return lhs < rhs
	case CmpLE:
		return lhs <= rhs
	case CmpGT:
		return lhs > rhs
	case CmpGE:
		return lhs >= rhs
	default:
		return false
	}
}

// GroupSpec describes a single GROUP BY ... HAVING ... clause: the grouping
// column, the aggregate tested by HAVING, and the aggregate actually
// returned for groups that pass.
type GroupSpec struct {
	GroupColumn    int
	HavingAgg      Aggregate
	HavingAggCol   int
	HavingOp       CompareOp
	HavingOperand  int64
	ReturnAgg      Aggregate
	ReturnAggCol   int
}

// GroupBy sorts src on the grouping column ascending, then single-passes
// the sorted rows accumulating the HAVING and RETURN aggregates per group,
// emitting (group_value, return_aggregate) rows for groups whose HAVING
// aggregate satisfies HavingOp, per spec.md §4.6.
func GroupBy(cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, src *table.Table, resultName string, spec GroupSpec) (*table.Table, error) {
	if log == nil {
		log = slog.Default()
	}

	sorted, err := table.New(buf, cfg, log, fmt.Sprintf("__groupsrc_%s", src.Name()), src.Columns())
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
		if _, err := sorted.AppendRow(row); err != nil {
			return nil, err
		}
	}
	if err := cat.Insert(sorted); err != nil {
		return nil, err
	}
	defer cleanupRuns(cat, []*table.Table{sorted})

	if err := Sort(cat, buf, cfg, log, sorted, []Key{{Column: spec.GroupColumn}}); err != nil {
		return nil, err
	}

	result, err := table.New(buf, cfg, log, resultName, []string{"group_value", "aggregate"})
	if err != nil {
		return nil, err
	}

	var (
		curGroup    int64
		haveGroup   bool
		having      *accumulator
		ret         *accumulator
	)
	emit := func() error {
		if !haveGroup {
			return nil
		}
		if spec.HavingOp.eval(having.result(), spec.HavingOperand) {
			if _, err := result.AppendRow([]int64{curGroup, ret.result()}); err != nil {
				return err
			}
		}
		return nil
	}

	groupCur := sorted.Cursor()
	for {
		row, ok, err := groupCur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		g := row[spec.GroupColumn]
		if !haveGroup || g != curGroup {
			if err := emit(); err != nil {
				return nil, err
			}
			curGroup = g
			haveGroup = true
			having = newAccumulator(spec.HavingAgg, spec.HavingAggCol)
			ret = newAccumulator(spec.ReturnAgg, spec.ReturnAggCol)
		}
		having.add(row)
		ret.add(row)
	}
	if err := emit(); err != nil {
		return nil, err
	}

	if err := cat.Insert(result); err != nil {
		return nil, err
	}
	return result, nil
}
