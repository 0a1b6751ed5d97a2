package engine

// Kind identifies which query form a Command represents, one per line of
// spec.md §6's query surface.
type Kind int

const (
	KindLoad Kind = iota
	KindExport
	KindClear
	KindListTables
	KindPrint
	KindRename
	KindProject
	KindSelect
	KindJoin
	KindCross
	KindDistinct
	KindSearch
	KindOrderBy
	KindGroupBy
	KindSort
	KindIndex
	KindInsert
	KindUpdate
	KindDelete
)

// CompareOp is the comparison operator vocabulary shared by SELECT,
// SEARCH, JOIN ON, UPDATE WHERE, and DELETE WHERE.
type CompareOp int

const (
	OpEQ CompareOp = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
)

// Aggregate is one of GROUP BY's five supported aggregate functions.
type Aggregate int

const (
	AggMax Aggregate = iota
	AggMin
	AggSum
	AggCount
	AggAvg
)

// SortKey is one (column, direction) pair in SORT's composite key list.
type SortKey struct {
	Column string
	Desc   bool
}

// Command is the parsed form of one query line. Only the fields relevant
// to Kind are populated; queryparse is responsible for that invariant.
type Command struct {
	Kind Kind

	// Result/target naming.
	ResultName string // the "<R> <-" binding, when present
	Table      string // the primary source/target table name

	// RENAME
	RenameFrom string
	RenameTo   string

	// PROJECT
	ProjectColumns []string

	// SELECT / SEARCH / UPDATE / DELETE WHERE clause
	WhereColumn  string
	WhereOp      CompareOp
	WhereIsCol   bool // SELECT only: RHS is a column, not a literal
	WhereRHSCol  string
	WhereOperand int64

	// JOIN / CROSS
	JoinTable   string
	JoinLColumn string
	JoinROp     CompareOp
	JoinRColumn string

	// ORDER BY
	OrderColumn string
	OrderDesc   bool

	// GROUP BY
	GroupColumn   string
	HavingAgg     Aggregate
	HavingColumn  string
	HavingOp      CompareOp
	HavingOperand int64
	ReturnAgg     Aggregate
	ReturnColumn  string

	// SORT
	SortKeys []SortKey

	// INDEX
	IndexColumn string
	IndexUsing  string // "BTREE" or "NOTHING"

	// INSERT
	InsertValues map[string]int64

	// UPDATE SET
	SetColumn string
	SetValue  int64
}
