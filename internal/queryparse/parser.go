package queryparse

import (
	"fmt"
	"strconv"
	"strings"

	"radb/internal/engine"
)

// ErrSyntax is returned for any input that doesn't match one of the
// grammar productions in spec.md §6.
type ErrSyntax struct {
	Line string
}

func (e *ErrSyntax) Error() string { return fmt.Sprintf("SYNTAX ERROR: %q", e.Line) }

func syntaxErr(line string) error { return &ErrSyntax{Line: line} }

// Parse tokenizes and parses one query line into an engine.Command. The
// caller (the shell) is expected to intercept "QUIT" and "SOURCE <f>"
// before reaching Parse, since those control the REPL rather than
// dispatching to the engine.
func Parse(line string) (*engine.Command, error) {
	tokens := Tokenize(line)
	if len(tokens) == 0 {
		return nil, nil
	}
	if len(tokens) >= 2 && tokens[1] == "<-" {
		return parseAssignment(line, tokens)
	}
	switch tokens[0] {
	case "LOAD":
		if len(tokens) != 2 {
			return nil, syntaxErr(line)
		}
		return &engine.Command{Kind: engine.KindLoad, Table: tokens[1]}, nil
	case "EXPORT":
		if len(tokens) != 2 {
			return nil, syntaxErr(line)
		}
		return &engine.Command{Kind: engine.KindExport, Table: tokens[1]}, nil
	case "CLEAR":
		if len(tokens) != 2 {
			return nil, syntaxErr(line)
		}
		return &engine.Command{Kind: engine.KindClear, Table: tokens[1]}, nil
	case "LIST":
		if len(tokens) != 2 || tokens[1] != "TABLES" {
			return nil, syntaxErr(line)
		}
		return &engine.Command{Kind: engine.KindListTables}, nil
	case "PRINT":
		if len(tokens) != 2 {
			return nil, syntaxErr(line)
		}
		return &engine.Command{Kind: engine.KindPrint, Table: tokens[1]}, nil
	case "RENAME":
		if len(tokens) != 6 || tokens[2] != "TO" || tokens[4] != "FROM" {
			return nil, syntaxErr(line)
		}
		return &engine.Command{Kind: engine.KindRename, RenameFrom: tokens[1], RenameTo: tokens[3], Table: tokens[5]}, nil
	case "SORT":
		return parseSort(line, tokens)
	case "INDEX":
		return parseIndex(line, tokens)
	case "INSERT":
		return parseInsert(line, tokens)
	case "UPDATE":
		return parseUpdate(line, tokens)
	case "DELETE":
		return parseDelete(line, tokens)
	default:
		return nil, syntaxErr(line)
	}
}

func parseAssignment(line string, tokens []string) (*engine.Command, error) {
	if len(tokens) < 3 {
		return nil, syntaxErr(line)
	}
	result := tokens[0]
	switch tokens[2] {
	case "PROJECT":
		return parseProject(line, tokens, result)
	case "SELECT":
		return parseSelect(line, tokens, result)
	case "JOIN":
		return parseJoin(line, tokens, result)
	case "CROSS":
		return parseCross(line, tokens, result)
	case "DISTINCT":
		if len(tokens) != 4 {
			return nil, syntaxErr(line)
		}
		return &engine.Command{Kind: engine.KindDistinct, ResultName: result, Table: tokens[3]}, nil
	case "SEARCH":
		return parseSearch(line, tokens, result)
	case "ORDER":
		return parseOrderBy(line, tokens, result)
	case "GROUP":
		return parseGroupBy(line, tokens, result)
	default:
		return nil, syntaxErr(line)
	}
}

func parseProject(line string, tokens []string, result string) (*engine.Command, error) {
	fromIdx := indexOf(tokens, "FROM")
	if fromIdx < 0 || fromIdx != len(tokens)-2 || fromIdx <= 3 {
		return nil, syntaxErr(line)
	}
	cols := stripCommas(tokens[3:fromIdx])
	if len(cols) == 0 {
		return nil, syntaxErr(line)
	}
	return &engine.Command{
		Kind:           engine.KindProject,
		ResultName:     result,
		ProjectColumns: cols,
		Table:          tokens[fromIdx+1],
	}, nil
}

// stripCommas drops isolated "," tokens from a Tokenize'd comma-separated
// list, since Tokenize isolates them as their own tokens rather than
// dropping them outright.
func stripCommas(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "," {
			out = append(out, t)
		}
	}
	return out
}

func parseSelect(line string, tokens []string, result string) (*engine.Command, error) {
	if len(tokens) != 8 || tokens[6] != "FROM" {
		return nil, syntaxErr(line)
	}
	op, ok := parseOp(tokens[4])
	if !ok {
		return nil, syntaxErr(line)
	}
	cmd := &engine.Command{
		Kind:        engine.KindSelect,
		ResultName:  result,
		Table:       tokens[7],
		WhereColumn: tokens[3],
		WhereOp:     op,
	}
	if v, err := strconv.ParseInt(tokens[5], 10, 64); err == nil {
		cmd.WhereOperand = v
	} else {
		cmd.WhereIsCol = true
		cmd.WhereRHSCol = tokens[5]
	}
	return cmd, nil
}

func parseJoin(line string, tokens []string, result string) (*engine.Command, error) {
	if len(tokens) != 10 || tokens[4] != "," || tokens[6] != "ON" {
		return nil, syntaxErr(line)
	}
	op, ok := parseOp(tokens[8])
	if !ok {
		return nil, syntaxErr(line)
	}
	return &engine.Command{
		Kind:        engine.KindJoin,
		ResultName:  result,
		Table:       tokens[3],
		JoinTable:   tokens[5],
		JoinLColumn: tokens[7],
		JoinROp:     op,
		JoinRColumn: tokens[9],
	}, nil
}

func parseCross(line string, tokens []string, result string) (*engine.Command, error) {
	if len(tokens) != 6 || tokens[4] != "," {
		return nil, syntaxErr(line)
	}
	return &engine.Command{Kind: engine.KindCross, ResultName: result, Table: tokens[3], JoinTable: tokens[5]}, nil
}

func parseSearch(line string, tokens []string, result string) (*engine.Command, error) {
	if len(tokens) != 9 || tokens[3] != "FROM" || tokens[5] != "WHERE" {
		return nil, syntaxErr(line)
	}
	op, ok := parseOp(tokens[7])
	if !ok {
		return nil, syntaxErr(line)
	}
	v, err := strconv.ParseInt(tokens[8], 10, 64)
	if err != nil {
		return nil, syntaxErr(line)
	}
	return &engine.Command{
		Kind:         engine.KindSearch,
		ResultName:   result,
		Table:        tokens[4],
		WhereColumn:  tokens[6],
		WhereOp:      op,
		WhereOperand: v,
	}, nil
}

func parseOrderBy(line string, tokens []string, result string) (*engine.Command, error) {
	if len(tokens) != 8 || tokens[3] != "BY" || tokens[6] != "ON" {
		return nil, syntaxErr(line)
	}
	var desc bool
	switch tokens[5] {
	case "ASC":
		desc = false
	case "DESC":
		desc = true
	default:
		return nil, syntaxErr(line)
	}
	return &engine.Command{
		Kind:        engine.KindOrderBy,
		ResultName:  result,
		Table:       tokens[7],
		OrderColumn: tokens[4],
		OrderDesc:   desc,
	}, nil
}

// parseGroupBy handles:
//   R <- GROUP BY col FROM tbl HAVING agg ( col ) op int RETURN agg ( col )
func parseGroupBy(line string, tokens []string, result string) (*engine.Command, error) {
	if len(tokens) != 19 ||
		tokens[3] != "BY" || tokens[5] != "FROM" || tokens[7] != "HAVING" ||
		tokens[9] != "(" || tokens[11] != ")" || tokens[14] != "RETURN" ||
		tokens[16] != "(" || tokens[18] != ")" {
		return nil, syntaxErr(line)
	}
	havingAgg, ok := parseAgg(tokens[8])
	if !ok {
		return nil, syntaxErr(line)
	}
	havingOp, ok := parseOp(tokens[12])
	if !ok {
		return nil, syntaxErr(line)
	}
	havingOperand, err := strconv.ParseInt(tokens[13], 10, 64)
	if err != nil {
		return nil, syntaxErr(line)
	}
	returnAgg, ok := parseAgg(tokens[15])
	if !ok {
		return nil, syntaxErr(line)
	}
	return &engine.Command{
		Kind:          engine.KindGroupBy,
		ResultName:    result,
		Table:         tokens[6],
		GroupColumn:   tokens[4],
		HavingAgg:     havingAgg,
		HavingColumn:  tokens[10],
		HavingOp:      havingOp,
		HavingOperand: havingOperand,
		ReturnAgg:     returnAgg,
		ReturnColumn:  tokens[17],
	}, nil
}

// parseSort handles: SORT <tbl> BY c1,c2,… IN d1,d2,…
func parseSort(line string, tokens []string) (*engine.Command, error) {
	byIdx := indexOf(tokens, "BY")
	inIdx := indexOf(tokens, "IN")
	if len(tokens) < 6 || byIdx != 2 || inIdx <= byIdx {
		return nil, syntaxErr(line)
	}
	cols := stripCommas(tokens[byIdx+1 : inIdx])
	dirs := stripCommas(tokens[inIdx+1:])
	if len(cols) == 0 || len(cols) != len(dirs) {
		return nil, syntaxErr(line)
	}
	keys := make([]engine.SortKey, len(cols))
	for i, c := range cols {
		var desc bool
		switch dirs[i] {
		case "ASC":
			desc = false
		case "DESC":
			desc = true
		default:
			return nil, syntaxErr(line)
		}
		keys[i] = engine.SortKey{Column: c, Desc: desc}
	}
	return &engine.Command{Kind: engine.KindSort, Table: tokens[1], SortKeys: keys}, nil
}

// parseIndex handles: INDEX ON <col> FROM <tbl> USING BTREE|NOTHING
func parseIndex(line string, tokens []string) (*engine.Command, error) {
	if len(tokens) != 7 || tokens[1] != "ON" || tokens[3] != "FROM" || tokens[5] != "USING" {
		return nil, syntaxErr(line)
	}
	using := tokens[6]
	if using != "BTREE" && using != "NOTHING" {
		return nil, syntaxErr(line)
	}
	return &engine.Command{Kind: engine.KindIndex, IndexColumn: tokens[2], Table: tokens[4], IndexUsing: using}, nil
}

// parseInsert handles: INSERT INTO <tbl> ( c = v, c = v, … )
func parseInsert(line string, tokens []string) (*engine.Command, error) {
	if len(tokens) < 8 || tokens[1] != "INTO" || tokens[3] != "(" || tokens[len(tokens)-1] != ")" {
		return nil, syntaxErr(line)
	}
	body := stripCommas(tokens[4 : len(tokens)-1])
	if len(body) == 0 || len(body)%3 != 0 {
		return nil, syntaxErr(line)
	}
	values := make(map[string]int64, len(body)/3)
	for i := 0; i < len(body); i += 3 {
		col, eq, valTok := body[i], body[i+1], body[i+2]
		if eq != "=" {
			return nil, syntaxErr(line)
		}
		v, err := strconv.ParseInt(valTok, 10, 64)
		if err != nil {
			return nil, syntaxErr(line)
		}
		values[col] = v
	}
	return &engine.Command{Kind: engine.KindInsert, Table: tokens[2], InsertValues: values}, nil
}

// parseUpdate handles: UPDATE <tbl> WHERE <col> <op> <int> SET <col> = <int>
func parseUpdate(line string, tokens []string) (*engine.Command, error) {
	if len(tokens) != 10 || tokens[2] != "WHERE" || tokens[6] != "SET" || tokens[8] != "=" {
		return nil, syntaxErr(line)
	}
	op, ok := parseOp(tokens[4])
	if !ok {
		return nil, syntaxErr(line)
	}
	whereOperand, err := strconv.ParseInt(tokens[5], 10, 64)
	if err != nil {
		return nil, syntaxErr(line)
	}
	setValue, err := strconv.ParseInt(tokens[9], 10, 64)
	if err != nil {
		return nil, syntaxErr(line)
	}
	return &engine.Command{
		Kind:         engine.KindUpdate,
		Table:        tokens[1],
		WhereColumn:  tokens[3],
		WhereOp:      op,
		WhereOperand: whereOperand,
		SetColumn:    tokens[7],
		SetValue:     setValue,
	}, nil
}

// parseDelete handles: DELETE FROM <tbl> WHERE <col> <op> <int>
func parseDelete(line string, tokens []string) (*engine.Command, error) {
	if len(tokens) != 7 || tokens[1] != "FROM" || tokens[3] != "WHERE" {
		return nil, syntaxErr(line)
	}
	op, ok := parseOp(tokens[5])
	if !ok {
		return nil, syntaxErr(line)
	}
	v, err := strconv.ParseInt(tokens[6], 10, 64)
	if err != nil {
		return nil, syntaxErr(line)
	}
	return &engine.Command{Kind: engine.KindDelete, Table: tokens[2], WhereColumn: tokens[4], WhereOp: op, WhereOperand: v}, nil
}

func indexOf(tokens []string, tok string) int {
	for i, t := range tokens {
		if t == tok {
			return i
		}
	}
	return -1
}

func parseOp(tok string) (engine.CompareOp, bool) {
	switch tok {
	case "==":
		return engine.OpEQ, true
	case "!=":
		return engine.OpNE, true
	case "<":
		return engine.OpLT, true
	case "<=":
		return engine.OpLE, true
	case ">":
		return engine.OpGT, true
	case ">=":
		return engine.OpGE, true
	default:
		return 0, false
	}
}

func parseAgg(tok string) (engine.Aggregate, bool) {
	switch strings.ToUpper(tok) {
	case "MAX":
		return engine.AggMax, true
	case "MIN":
		return engine.AggMin, true
	case "SUM":
		return engine.AggSum, true
	case "COUNT":
		return engine.AggCount, true
	case "AVG":
		return engine.AggAvg, true
	default:
		return 0, false
	}
}
