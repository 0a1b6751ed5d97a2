// Package engine is the query-execution front door spec.md §9's redesign
// note calls for: one value holding the Catalog, Buffer Manager, Logger,
// and Config as construction-time dependencies, dispatching parsed
// Commands to the CORE executors instead of threading process-wide
// globals through every call, per spec.md §5's concurrency model
// (single-threaded, one Command runs to completion before the next).
//
// Grounded on ShubhamNegi4-DaemonDB/query_executor/executor.go's VM —
// Catalog/BufferManager/Logger/Config replace the VM's tree/heapfile/WAL
// trio, and Execute's switch on Command.Kind replaces its switch on
// Instruction.Op, generalized from opcode dispatch to direct dispatch.
package engine

import (
	"fmt"
	"log/slog"

	"radb/internal/btree"
	"radb/internal/buffer"
	"radb/internal/catalog"
	"radb/internal/dmlexec"
	"radb/internal/engineconfig"
	"radb/internal/joinexec"
	"radb/internal/relop"
	"radb/internal/sortexec"
	"radb/internal/table"
)

// Engine owns the process-wide state a single-threaded session needs:
// every Command runs against this Catalog and this Buffer Manager.
type Engine struct {
	Catalog *catalog.Catalog
	Buffer  *buffer.Manager
	Config  *engineconfig.Config
	Log     *slog.Logger
}

// New constructs an Engine over a fresh Catalog and the given
// already-opened Buffer Manager/Config/Logger.
func New(buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		Catalog: catalog.New(),
		Buffer:  buf,
		Config:  cfg,
		Log:     log,
	}
}

// TableInfo is LIST TABLES' per-table row, left unformatted here so the
// shell layer owns the human-readable rendering (humanize.Comma etc).
type TableInfo struct {
	Name       string
	RowCount   int64
	BlockCount int
}

// Result carries whatever a Command produced for the shell to render:
// PRINT-style rows, LIST TABLES-style table info, or a plain row/column
// count for DML. Exactly one of these is populated per Kind.
type Result struct {
	Columns []string
	Rows    [][]int64
	Tables  []TableInfo
	Count   int
}

func convertOp(op CompareOp) dmlexec.Op { return dmlexec.Op(op) }
func convertRelOp(op CompareOp) relop.Op { return relop.Op(op) }
func convertJoinOp(op CompareOp) joinexec.Op { return joinexec.Op(op) }

// Execute runs one parsed Command against e's Catalog, returning whatever
// output (if any) the shell should render.
func (e *Engine) Execute(cmd *Command) (*Result, error) {
	switch cmd.Kind {
	case KindLoad:
		return e.load(cmd)
	case KindExport:
		return e.export(cmd)
	case KindClear:
		return e.clear(cmd)
	case KindListTables:
		return e.listTables()
	case KindPrint:
		return e.print(cmd)
	case KindRename:
		return e.rename(cmd)
	case KindProject:
		return e.project(cmd)
	case KindSelect:
		return e.selectOp(cmd)
	case KindJoin:
		return e.join(cmd)
	case KindCross:
		return e.cross(cmd)
	case KindDistinct:
		return e.distinct(cmd)
	case KindSearch:
		return e.search(cmd)
	case KindOrderBy:
		return e.orderBy(cmd)
	case KindGroupBy:
		return e.groupBy(cmd)
	case KindSort:
		return e.sort(cmd)
	case KindIndex:
		return e.index(cmd)
	case KindInsert:
		return e.insert(cmd)
	case KindUpdate:
		return e.update(cmd)
	case KindDelete:
		return e.delete(cmd)
	default:
		return nil, fmt.Errorf("engine: unknown command kind %d", cmd.Kind)
	}
}

func (e *Engine) load(cmd *Command) (*Result, error) {
	csvPath := e.Config.DataDir + "/" + cmd.Table + ".csv"
	tbl, err := table.Load(e.Buffer, e.Config, e.Log, cmd.Table, csvPath)
	if err != nil {
		return nil, err
	}
	if err := e.Catalog.Insert(tbl); err != nil {
		return nil, err
	}
	return nil, nil
}

func (e *Engine) export(cmd *Command) (*Result, error) {
	tbl, err := e.Catalog.Get(cmd.Table)
	if err != nil {
		return nil, err
	}
	return nil, tbl.Export(e.Config.DataDir)
}

func (e *Engine) clear(cmd *Command) (*Result, error) {
	return nil, e.Catalog.Remove(cmd.Table)
}

func (e *Engine) listTables() (*Result, error) {
	names := e.Catalog.Names()
	infos := make([]TableInfo, 0, len(names))
	for _, n := range names {
		tbl, err := e.Catalog.Get(n)
		if err != nil {
			continue
		}
		infos = append(infos, TableInfo{Name: n, RowCount: tbl.RowCount(), BlockCount: tbl.BlockCount()})
	}
	return &Result{Tables: infos}, nil
}

func (e *Engine) print(cmd *Command) (*Result, error) {
	tbl, err := e.Catalog.Get(cmd.Table)
	if err != nil {
		return nil, err
	}
	rows := make([][]int64, 0, e.Config.PrintCount)
	cur := tbl.Cursor()
	for len(rows) < e.Config.PrintCount {
		row, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	return &Result{Columns: tbl.Columns(), Rows: rows}, nil
}

func (e *Engine) rename(cmd *Command) (*Result, error) {
	tbl, err := e.Catalog.Get(cmd.Table)
	if err != nil {
		return nil, err
	}
	return nil, tbl.RenameColumn(cmd.RenameFrom, cmd.RenameTo)
}

func (e *Engine) project(cmd *Command) (*Result, error) {
	src, err := e.Catalog.Get(cmd.Table)
	if err != nil {
		return nil, err
	}
	_, err = relop.Project(e.Catalog, e.Buffer, e.Config, e.Log, src, cmd.ProjectColumns, cmd.ResultName)
	return nil, err
}

func (e *Engine) selectOp(cmd *Command) (*Result, error) {
	src, err := e.Catalog.Get(cmd.Table)
	if err != nil {
		return nil, err
	}
	lhs := src.ColumnIndex(cmd.WhereColumn)
	if lhs < 0 {
		return nil, dmlexec.ErrColumnNotFound
	}
	rhsCol := -1
	if cmd.WhereIsCol {
		rhsCol = src.ColumnIndex(cmd.WhereRHSCol)
		if rhsCol < 0 {
			return nil, dmlexec.ErrColumnNotFound
		}
	}
	_, err = relop.Select(e.Catalog, e.Buffer, e.Config, e.Log, src, lhs, convertRelOp(cmd.WhereOp), rhsCol, cmd.WhereOperand, cmd.ResultName)
	return nil, err
}

func (e *Engine) join(cmd *Command) (*Result, error) {
	r, err := e.Catalog.Get(cmd.Table)
	if err != nil {
		return nil, err
	}
	s, err := e.Catalog.Get(cmd.JoinTable)
	if err != nil {
		return nil, err
	}
	rCol := r.ColumnIndex(cmd.JoinLColumn)
	sCol := s.ColumnIndex(cmd.JoinRColumn)
	if rCol < 0 || sCol < 0 {
		return nil, dmlexec.ErrColumnNotFound
	}
	if cmd.JoinROp == OpEQ {
		_, err = joinexec.EquiJoin(e.Catalog, e.Buffer, e.Config, e.Log, r, s, rCol, sCol, cmd.ResultName)
	} else {
		_, err = joinexec.NestedLoop(e.Catalog, e.Buffer, e.Config, e.Log, r, s, rCol, sCol, convertJoinOp(cmd.JoinROp), cmd.ResultName)
	}
	return nil, err
}

func (e *Engine) cross(cmd *Command) (*Result, error) {
	r, err := e.Catalog.Get(cmd.Table)
	if err != nil {
		return nil, err
	}
	s, err := e.Catalog.Get(cmd.JoinTable)
	if err != nil {
		return nil, err
	}
	_, err = relop.Cross(e.Catalog, e.Buffer, e.Config, e.Log, r, s, cmd.ResultName)
	return nil, err
}

func (e *Engine) distinct(cmd *Command) (*Result, error) {
	src, err := e.Catalog.Get(cmd.Table)
	if err != nil {
		return nil, err
	}
	_, err = relop.Distinct(e.Catalog, e.Buffer, e.Config, e.Log, src, cmd.ResultName)
	return nil, err
}

func (e *Engine) search(cmd *Command) (*Result, error) {
	_, err := dmlexec.Search(e.Catalog, e.Buffer, e.Config, e.Log, cmd.Table, cmd.WhereColumn, convertOp(cmd.WhereOp), cmd.WhereOperand, cmd.ResultName)
	return nil, err
}

func (e *Engine) orderBy(cmd *Command) (*Result, error) {
	src, err := e.Catalog.Get(cmd.Table)
	if err != nil {
		return nil, err
	}
	col := src.ColumnIndex(cmd.OrderColumn)
	if col < 0 {
		return nil, dmlexec.ErrColumnNotFound
	}
	_, err = sortexec.OrderBy(e.Catalog, e.Buffer, e.Config, e.Log, src, cmd.ResultName, sortexec.Key{Column: col, Desc: cmd.OrderDesc})
	return nil, err
}

func (e *Engine) groupBy(cmd *Command) (*Result, error) {
	src, err := e.Catalog.Get(cmd.Table)
	if err != nil {
		return nil, err
	}
	groupCol := src.ColumnIndex(cmd.GroupColumn)
	havingCol := src.ColumnIndex(cmd.HavingColumn)
	returnCol := src.ColumnIndex(cmd.ReturnColumn)
	if groupCol < 0 || havingCol < 0 || returnCol < 0 {
		return nil, dmlexec.ErrColumnNotFound
	}
	spec := sortexec.GroupSpec{
		GroupColumn:   groupCol,
		HavingAgg:     sortexec.Aggregate(cmd.HavingAgg),
		HavingAggCol:  havingCol,
		HavingOp:      sortexec.CompareOp(cmd.HavingOp),
		HavingOperand: cmd.HavingOperand,
		ReturnAgg:     sortexec.Aggregate(cmd.ReturnAgg),
		ReturnAggCol:  returnCol,
	}
	_, err = sortexec.GroupBy(e.Catalog, e.Buffer, e.Config, e.Log, src, cmd.ResultName, spec)
	return nil, err
}

func (e *Engine) sort(cmd *Command) (*Result, error) {
	tbl, err := e.Catalog.Get(cmd.Table)
	if err != nil {
		return nil, err
	}
	keys := make([]sortexec.Key, len(cmd.SortKeys))
	for i, k := range cmd.SortKeys {
		col := tbl.ColumnIndex(k.Column)
		if col < 0 {
			return nil, dmlexec.ErrColumnNotFound
		}
		keys[i] = sortexec.Key{Column: col, Desc: k.Desc}
	}
	return nil, sortexec.Sort(e.Catalog, e.Buffer, e.Config, e.Log, tbl, keys)
}

func (e *Engine) index(cmd *Command) (*Result, error) {
	tbl, err := e.Catalog.Get(cmd.Table)
	if err != nil {
		return nil, err
	}
	col := tbl.ColumnIndex(cmd.IndexColumn)
	if col < 0 {
		return nil, dmlexec.ErrColumnNotFound
	}
	if cmd.IndexUsing == "NOTHING" {
		return nil, tbl.DropIndex(cmd.IndexColumn)
	}
	bt := btree.New(e.Buffer, e.Config, e.Log, tbl.Name(), cmd.IndexColumn, col)
	if err := bt.Build(tbl); err != nil {
		return nil, err
	}
	tbl.SetIndex(cmd.IndexColumn, bt)
	return nil, nil
}

func (e *Engine) insert(cmd *Command) (*Result, error) {
	return nil, dmlexec.Insert(e.Catalog, e.Log, cmd.Table, cmd.InsertValues)
}

func (e *Engine) update(cmd *Command) (*Result, error) {
	n, err := dmlexec.Update(e.Catalog, e.Log, cmd.Table, cmd.WhereColumn, convertOp(cmd.WhereOp), cmd.WhereOperand, cmd.SetColumn, cmd.SetValue)
	return &Result{Count: n}, err
}

func (e *Engine) delete(cmd *Command) (*Result, error) {
	n, err := dmlexec.Delete(e.Catalog, e.Log, cmd.Table, cmd.WhereColumn, convertOp(cmd.WhereOp), cmd.WhereOperand)
	return &Result{Count: n}, err
}
