package dmlexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radb/internal/rowcursor"
)

func TestInsert_AppendsRowWithDefaultZeroForUnnamedColumns(t *testing.T) {
	cat, buf, cfg := newIntegrationEnv(t)
	tbl := newIntegrationTable(t, cat, buf, cfg, "T", []string{"a", "b"}, nil)

	require.NoError(t, Insert(cat, nil, "T", map[string]int64{"a": 5}))

	row, err := tbl.RowAt(rowcursor.Pointer{PageIndex: 0, RowIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 0}, row)
	assert.EqualValues(t, 1, tbl.RowCount())
}

func TestInsert_MaintainsExistingIndex(t *testing.T) {
	cat, buf, cfg := newIntegrationEnv(t)
	tbl := newIntegrationTable(t, cat, buf, cfg, "T", []string{"k"}, nil)
	bt, err := ensureIndex(buf, cfg, nil, tbl, "k", 0)
	require.NoError(t, err)

	require.NoError(t, Insert(cat, nil, "T", map[string]int64{"k": 42}))

	found, err := bt.SearchKey(42)
	require.NoError(t, err)
	require.Len(t, found, 1)
	row, err := tbl.RowAt(found[0])
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, row)
}

func TestInsert_UnknownColumnReturnsError(t *testing.T) {
	cat, buf, cfg := newIntegrationEnv(t)
	newIntegrationTable(t, cat, buf, cfg, "T", []string{"a"}, nil)

	err := Insert(cat, nil, "T", map[string]int64{"nope": 1})
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestInsert_UnknownTableReturnsError(t *testing.T) {
	cat, _, _ := newIntegrationEnv(t)
	err := Insert(cat, nil, "Ghost", map[string]int64{"a": 1})
	assert.Error(t, err)
}
