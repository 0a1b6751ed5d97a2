package dmlexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelete_RemovesMatchingRows(t *testing.T) {
	cat, buf, cfg := newIntegrationEnv(t)
	tbl := newIntegrationTable(t, cat, buf, cfg, "T", []string{"k"}, [][]int64{
		{1}, {2}, {3},
	})

	n, err := Delete(cat, nil, "T", "k", OpEQ, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.EqualValues(t, 2, tbl.RowCount())
}

func TestDelete_NoMatchesReturnsZero(t *testing.T) {
	cat, buf, cfg := newIntegrationEnv(t)
	tbl := newIntegrationTable(t, cat, buf, cfg, "T", []string{"k"}, [][]int64{{1}, {2}})

	n, err := Delete(cat, nil, "T", "k", OpEQ, 999)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.EqualValues(t, 2, tbl.RowCount())
}

// Regression test for the exact scenario the maintainer review flagged:
// a page holding [(k=1),(k=1),(k=2)] (three rows, one page, per the
// BlockSize below), indexed on k. Deleting the two k=1 rows compacts the
// page down to [(k=2)] at row 0 — the surviving row's RowIndex shifts from
// 2 to 0. Before the fix, the k=2 index entry still pointed at (page 0, row
// 2), which is now out of bounds for a one-row page and got silently
// dropped by validPointer, so SEARCH k==2 returned zero rows instead of
// one. Delete must rebuild the index so the surviving row's entry tracks
// its new address.
func TestDelete_RebuildsIndexAfterCompactingPage(t *testing.T) {
	cat, buf, cfg := newIntegrationEnv(t)
	cfg.BlockSize = 24 // 24 / (IntSize=8 * 1 column) = 3 rows per page

	tbl := newIntegrationTable(t, cat, buf, cfg, "T", []string{"k"}, [][]int64{
		{1}, {1}, {2},
	})
	require.Equal(t, 3, tbl.MaxRowsPerBlock())

	bt, err := ensureIndex(buf, cfg, nil, tbl, "k", 0)
	require.NoError(t, err)

	n, err := Delete(cat, nil, "T", "k", OpEQ, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.EqualValues(t, 1, tbl.RowCount())

	found, err := bt.SearchKey(2)
	require.NoError(t, err)
	require.Len(t, found, 1, "the surviving row's index entry must follow it to its new, compacted position")
	row, err := tbl.RowAt(found[0])
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, row)

	result, err := Search(cat, buf, cfg, nil, "T", "k", OpEQ, 2, "R")
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.RowCount(), "SEARCH k==2 must find the surviving row, not drop it as a stale pointer")
}

func TestDelete_UnknownColumnReturnsError(t *testing.T) {
	cat, buf, cfg := newIntegrationEnv(t)
	newIntegrationTable(t, cat, buf, cfg, "T", []string{"k"}, [][]int64{{1}})

	_, err := Delete(cat, nil, "T", "ghost", OpEQ, 1)
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestDelete_FullScanWhenConditionNotIndexUsable(t *testing.T) {
	cat, buf, cfg := newIntegrationEnv(t)
	tbl := newIntegrationTable(t, cat, buf, cfg, "T", []string{"k"}, [][]int64{
		{1}, {2}, {3}, {4},
	})

	n, err := Delete(cat, nil, "T", "k", OpGE, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.EqualValues(t, 2, tbl.RowCount())
}
