package dmlexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_RewritesMatchingRowsAndSkipsNoOpChange(t *testing.T) {
	cat, buf, cfg := newIntegrationEnv(t)
	tbl := newIntegrationTable(t, cat, buf, cfg, "T", []string{"k", "v"}, [][]int64{
		{1, 10}, {1, 10}, {2, 99},
	})

	n, err := Update(cat, nil, "T", "k", OpEQ, 1, "v", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "setting a column to the value it already has must not count as an update")

	n, err = Update(cat, nil, "T", "k", OpEQ, 1, "v", 20)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var rows [][]int64
	cur := tbl.Cursor()
	for {
		row, ok, err := cur.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	assert.Equal(t, [][]int64{{1, 20}, {1, 20}, {2, 99}}, rows)
}

func TestUpdate_RepairsIndexOnSetColumn(t *testing.T) {
	cat, buf, cfg := newIntegrationEnv(t)
	tbl := newIntegrationTable(t, cat, buf, cfg, "T", []string{"id", "k"}, [][]int64{
		{1, 100}, {2, 200},
	})
	bt, err := ensureIndex(buf, cfg, nil, tbl, "k", 1)
	require.NoError(t, err)

	n, err := Update(cat, nil, "T", "id", OpEQ, 1, "k", 999)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	found, err := bt.SearchKey(100)
	require.NoError(t, err)
	assert.Empty(t, found, "the old key must no longer resolve")

	found, err = bt.SearchKey(999)
	require.NoError(t, err)
	require.Len(t, found, 1)
	row, err := tbl.RowAt(found[0])
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 999}, row)
}

func TestUpdate_FullScanWhenConditionNotIndexUsable(t *testing.T) {
	cat, buf, cfg := newIntegrationEnv(t)
	newIntegrationTable(t, cat, buf, cfg, "T", []string{"k", "v"}, [][]int64{
		{1, 0}, {2, 0}, {3, 0}, {4, 0},
	})

	n, err := Update(cat, nil, "T", "k", OpGT, 2, "v", 7)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "k>2 should match rows with k=3 and k=4")
}

func TestUpdate_UnknownSetColumnReturnsError(t *testing.T) {
	cat, buf, cfg := newIntegrationEnv(t)
	newIntegrationTable(t, cat, buf, cfg, "T", []string{"k"}, [][]int64{{1}})

	_, err := Update(cat, nil, "T", "k", OpEQ, 1, "ghost", 5)
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestUpdate_NoMatchesReturnsZero(t *testing.T) {
	cat, buf, cfg := newIntegrationEnv(t)
	newIntegrationTable(t, cat, buf, cfg, "T", []string{"k"}, [][]int64{{1}, {2}})

	n, err := Update(cat, nil, "T", "k", OpEQ, 999, "k", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
