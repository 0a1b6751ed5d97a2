package joinexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radb/internal/engineconfig"
	"radb/internal/table"
)

func newTestTable(t *testing.T, name string, columns []string) *table.Table {
	t.Helper()
	tbl, err := table.New(nil, engineconfig.Default(), nil, name, columns)
	require.NoError(t, err)
	return tbl
}

func TestOp_Eval(t *testing.T) {
	cases := []struct {
		op       Op
		lhs, rhs int64
		want     bool
	}{
		{OpEQ, 4, 4, true},
		{OpNE, 4, 5, true},
		{OpLT, 4, 5, true},
		{OpLE, 5, 5, true},
		{OpGT, 6, 5, true},
		{OpGE, 4, 5, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.op.eval(c.lhs, c.rhs))
	}
}

func TestHashBucket_NegativeKeysFoldToPositiveBucket(t *testing.T) {
	assert.Equal(t, hashBucket(-7, 4), hashBucket(7, 4))
	assert.GreaterOrEqual(t, hashBucket(-7, 4), 0)
}

func TestHashBucket_WithinRange(t *testing.T) {
	for _, key := range []int64{0, 1, 17, -99, 1000} {
		b := hashBucket(key, 5)
		assert.GreaterOrEqual(t, b, 0)
		assert.Less(t, b, 5)
	}
}

func TestCombine_ConcatenatesRows(t *testing.T) {
	got := combine([]int64{1, 2}, []int64{3, 4})
	assert.Equal(t, []int64{1, 2, 3, 4}, got)
}

func TestResultColumns_PrefixesCollisions(t *testing.T) {
	r := newTestTable(t, "Students", []string{"id", "name"})
	s := newTestTable(t, "Enrolled", []string{"id", "grade"})
	cols := resultColumns(r, s)
	assert.Equal(t, []string{"Students.id", "name", "Enrolled.id", "grade"}, cols)
}

func TestResultColumns_NoCollisionKeepsNames(t *testing.T) {
	r := newTestTable(t, "Students", []string{"id", "name"})
	s := newTestTable(t, "Enrolled", []string{"grade"})
	cols := resultColumns(r, s)
	assert.Equal(t, []string{"id", "name", "grade"}, cols)
}
