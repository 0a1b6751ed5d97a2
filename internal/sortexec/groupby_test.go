package sortexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulator_Sum(t *testing.T) {
	a := newAccumulator(AggSum, 1)
	a.add([]int64{0, 3})
	a.add([]int64{0, 4})
	assert.EqualValues(t, 7, a.result())
}

func TestAccumulator_Count(t *testing.T) {
	a := newAccumulator(AggCount, 1)
	a.add([]int64{0, 100})
	a.add([]int64{0, -5})
	assert.EqualValues(t, 2, a.result())
}

func TestAccumulator_MaxMin(t *testing.T) {
	max := newAccumulator(AggMax, 0)
	min := newAccumulator(AggMin, 0)
	for _, v := range []int64{3, -1, 9, 4} {
		max.add([]int64{v})
		min.add([]int64{v})
	}
	assert.EqualValues(t, 9, max.result())
	assert.EqualValues(t, -1, min.result())
}

func TestAccumulator_AvgTruncates(t *testing.T) {
	a := newAccumulator(AggAvg, 0)
	a.add([]int64{7})
	a.add([]int64{7})
	a.add([]int64{8})
	assert.EqualValues(t, 7, a.result()) // 22/3 truncates to 7, not 7.33
}

func TestCompareOp_Eval(t *testing.T) {
	cases := []struct {
		op       CompareOp
		lhs, rhs int64
		want     bool
	}{
		{CmpEQ, 5, 5, true},
		{CmpNE, 5, 5, false},
		{CmpLT, 3, 5, true},
		{CmpLE, 5, 5, true},
		{CmpGT, 6, 5, true},
		{CmpGE, 5, 6, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.op.eval(c.lhs, c.rhs))
	}
}
