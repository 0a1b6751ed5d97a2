package queryparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radb/internal/engine"
)

func TestParse_Load(t *testing.T) {
	cmd, err := Parse("LOAD Students")
	require.NoError(t, err)
	assert.Equal(t, engine.KindLoad, cmd.Kind)
	assert.Equal(t, "Students", cmd.Table)
}

func TestParse_ListTables(t *testing.T) {
	cmd, err := Parse("LIST TABLES")
	require.NoError(t, err)
	assert.Equal(t, engine.KindListTables, cmd.Kind)
}

func TestParse_Rename(t *testing.T) {
	cmd, err := Parse("RENAME id TO sid FROM Students")
	require.NoError(t, err)
	assert.Equal(t, engine.KindRename, cmd.Kind)
	assert.Equal(t, "id", cmd.RenameFrom)
	assert.Equal(t, "sid", cmd.RenameTo)
	assert.Equal(t, "Students", cmd.Table)
}

func TestParse_Project(t *testing.T) {
	cmd, err := Parse("R <- PROJECT id,name FROM Students")
	require.NoError(t, err)
	assert.Equal(t, engine.KindProject, cmd.Kind)
	assert.Equal(t, "R", cmd.ResultName)
	assert.Equal(t, []string{"id", "name"}, cmd.ProjectColumns)
	assert.Equal(t, "Students", cmd.Table)
}

func TestParse_SelectLiteral(t *testing.T) {
	cmd, err := Parse("R <- SELECT age > 18 FROM Students")
	require.NoError(t, err)
	assert.Equal(t, engine.KindSelect, cmd.Kind)
	assert.Equal(t, "age", cmd.WhereColumn)
	assert.Equal(t, engine.OpGT, cmd.WhereOp)
	assert.False(t, cmd.WhereIsCol)
	assert.EqualValues(t, 18, cmd.WhereOperand)
}

func TestParse_SelectColumn(t *testing.T) {
	cmd, err := Parse("R <- SELECT gpa >= rank FROM Students")
	require.NoError(t, err)
	assert.True(t, cmd.WhereIsCol)
	assert.Equal(t, "rank", cmd.WhereRHSCol)
}

func TestParse_Join(t *testing.T) {
	cmd, err := Parse("R <- JOIN Students, Enrolled ON id == sid")
	require.NoError(t, err)
	assert.Equal(t, engine.KindJoin, cmd.Kind)
	assert.Equal(t, "Students", cmd.Table)
	assert.Equal(t, "Enrolled", cmd.JoinTable)
	assert.Equal(t, "id", cmd.JoinLColumn)
	assert.Equal(t, engine.OpEQ, cmd.JoinROp)
	assert.Equal(t, "sid", cmd.JoinRColumn)
}

func TestParse_Cross(t *testing.T) {
	cmd, err := Parse("R <- CROSS Students, Enrolled")
	require.NoError(t, err)
	assert.Equal(t, engine.KindCross, cmd.Kind)
	assert.Equal(t, "Students", cmd.Table)
	assert.Equal(t, "Enrolled", cmd.JoinTable)
}

func TestParse_Distinct(t *testing.T) {
	cmd, err := Parse("R <- DISTINCT Students")
	require.NoError(t, err)
	assert.Equal(t, engine.KindDistinct, cmd.Kind)
	assert.Equal(t, "Students", cmd.Table)
}

func TestParse_Search(t *testing.T) {
	cmd, err := Parse("R <- SEARCH FROM Students WHERE id == 42")
	require.NoError(t, err)
	assert.Equal(t, engine.KindSearch, cmd.Kind)
	assert.Equal(t, "Students", cmd.Table)
	assert.Equal(t, "id", cmd.WhereColumn)
	assert.Equal(t, engine.OpEQ, cmd.WhereOp)
	assert.EqualValues(t, 42, cmd.WhereOperand)
}

func TestParse_OrderBy(t *testing.T) {
	cmd, err := Parse("R <- ORDER BY gpa DESC ON Students")
	require.NoError(t, err)
	assert.Equal(t, engine.KindOrderBy, cmd.Kind)
	assert.Equal(t, "gpa", cmd.OrderColumn)
	assert.True(t, cmd.OrderDesc)
}

func TestParse_GroupBy(t *testing.T) {
	cmd, err := Parse("R <- GROUP BY major FROM Students HAVING COUNT ( id ) > 5 RETURN AVG ( gpa )")
	require.NoError(t, err)
	assert.Equal(t, engine.KindGroupBy, cmd.Kind)
	assert.Equal(t, "major", cmd.GroupColumn)
	assert.Equal(t, "Students", cmd.Table)
	assert.Equal(t, engine.AggCount, cmd.HavingAgg)
	assert.Equal(t, "id", cmd.HavingColumn)
	assert.Equal(t, engine.OpGT, cmd.HavingOp)
	assert.EqualValues(t, 5, cmd.HavingOperand)
	assert.Equal(t, engine.AggAvg, cmd.ReturnAgg)
	assert.Equal(t, "gpa", cmd.ReturnColumn)
}

func TestParse_Sort(t *testing.T) {
	cmd, err := Parse("SORT Students BY major,gpa IN ASC,DESC")
	require.NoError(t, err)
	assert.Equal(t, engine.KindSort, cmd.Kind)
	require.Len(t, cmd.SortKeys, 2)
	assert.Equal(t, "major", cmd.SortKeys[0].Column)
	assert.False(t, cmd.SortKeys[0].Desc)
	assert.Equal(t, "gpa", cmd.SortKeys[1].Column)
	assert.True(t, cmd.SortKeys[1].Desc)
}

func TestParse_Index(t *testing.T) {
	cmd, err := Parse("INDEX ON id FROM Students USING BTREE")
	require.NoError(t, err)
	assert.Equal(t, engine.KindIndex, cmd.Kind)
	assert.Equal(t, "id", cmd.IndexColumn)
	assert.Equal(t, "Students", cmd.Table)
	assert.Equal(t, "BTREE", cmd.IndexUsing)
}

func TestParse_Insert(t *testing.T) {
	cmd, err := Parse("INSERT INTO Students ( id = 1, gpa = 4 )")
	require.NoError(t, err)
	assert.Equal(t, engine.KindInsert, cmd.Kind)
	assert.Equal(t, "Students", cmd.Table)
	assert.Equal(t, map[string]int64{"id": 1, "gpa": 4}, cmd.InsertValues)
}

func TestParse_Update(t *testing.T) {
	cmd, err := Parse("UPDATE Students WHERE id == 1 SET gpa = 4")
	require.NoError(t, err)
	assert.Equal(t, engine.KindUpdate, cmd.Kind)
	assert.Equal(t, "Students", cmd.Table)
	assert.Equal(t, "id", cmd.WhereColumn)
	assert.Equal(t, engine.OpEQ, cmd.WhereOp)
	assert.EqualValues(t, 1, cmd.WhereOperand)
	assert.Equal(t, "gpa", cmd.SetColumn)
	assert.EqualValues(t, 4, cmd.SetValue)
}

func TestParse_Delete(t *testing.T) {
	cmd, err := Parse("DELETE FROM Students WHERE id == 1")
	require.NoError(t, err)
	assert.Equal(t, engine.KindDelete, cmd.Kind)
	assert.Equal(t, "Students", cmd.Table)
	assert.Equal(t, "id", cmd.WhereColumn)
	assert.Equal(t, engine.OpEQ, cmd.WhereOp)
}

func TestParse_EmptyLineReturnsNilCommand(t *testing.T) {
	cmd, err := Parse("   ")
	require.NoError(t, err)
	assert.Nil(t, cmd)
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse("FROBNICATE Students")
	require.Error(t, err)
	var syntaxErr *ErrSyntax
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestParse_InsertRejectsBadAssignment(t *testing.T) {
	_, err := Parse("INSERT INTO Students ( id 1 )")
	require.Error(t, err)
}
