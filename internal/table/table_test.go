package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radb/internal/buffer"
	"radb/internal/engineconfig"
)

func newTestEnv(t *testing.T) (*buffer.Manager, *engineconfig.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := engineconfig.Default()
	cfg.DataDir = dir
	cfg.BlockSize = 64 // small block size forces multiple pages in tests
	cfg.BlockCount = 4
	require.NoError(t, os.MkdirAll(cfg.TempDir(), 0o755))
	buf, err := buffer.New(cfg.TempDir(), cfg.BlockCount, nil)
	require.NoError(t, err)
	return buf, cfg
}

func writeCSV(t *testing.T, dir, name string, header []string, rows [][]string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name+".csv")
	var sb []byte
	for i, h := range header {
		if i > 0 {
			sb = append(sb, ',')
		}
		sb = append(sb, h...)
	}
	sb = append(sb, '\n')
	for _, r := range rows {
		for i, v := range r {
			if i > 0 {
				sb = append(sb, ',')
			}
			sb = append(sb, v...)
		}
		sb = append(sb, '\n')
	}
	require.NoError(t, os.WriteFile(path, sb, 0o644))
	return path
}

func TestLoad_ReadsRowsAndTracksDistinctCount(t *testing.T) {
	buf, cfg := newTestEnv(t)
	csvPath := writeCSV(t, cfg.DataDir, "Students", []string{"id", "age"},
		[][]string{{"1", "20"}, {"2", "20"}, {"3", "21"}})

	tbl, err := Load(buf, cfg, nil, "Students", csvPath)
	require.NoError(t, err)
	assert.EqualValues(t, 3, tbl.RowCount())
	assert.Equal(t, []string{"id", "age"}, tbl.Columns())
	assert.Equal(t, 3, tbl.DistinctCount(0))
	assert.Equal(t, 2, tbl.DistinctCount(1))

	cur := tbl.Cursor()
	var rows [][]int64
	for {
		row, ok, err := cur.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	assert.Equal(t, [][]int64{{1, 20}, {2, 20}, {3, 21}}, rows)
}

func TestLoad_MarksTablePermanent(t *testing.T) {
	buf, cfg := newTestEnv(t)
	csvPath := writeCSV(t, cfg.DataDir, "Students", []string{"id"}, [][]string{{"1"}})

	tbl, err := Load(buf, cfg, nil, "Students", csvPath)
	require.NoError(t, err)
	assert.True(t, tbl.permanent, "Load must mark the table permanent so Unload never deletes the user's source CSV")
}

func TestLoad_RejectsNonIntegerField(t *testing.T) {
	buf, cfg := newTestEnv(t)
	csvPath := writeCSV(t, cfg.DataDir, "Students", []string{"id"}, [][]string{{"not-a-number"}})

	_, err := Load(buf, cfg, nil, "Students", csvPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaError)
}

func TestAppendRow_IncreasesRowCount(t *testing.T) {
	buf, cfg := newTestEnv(t)
	tbl, err := New(buf, cfg, nil, "Scratch", []string{"id", "val"})
	require.NoError(t, err)

	_, err = tbl.AppendRow([]int64{1, 100})
	require.NoError(t, err)
	_, err = tbl.AppendRow([]int64{2, 200})
	require.NoError(t, err)

	assert.EqualValues(t, 2, tbl.RowCount())
}

func TestExport_RoundTripsThroughLoad(t *testing.T) {
	buf, cfg := newTestEnv(t)
	tbl, err := New(buf, cfg, nil, "Scratch", []string{"id", "val"})
	require.NoError(t, err)
	_, err = tbl.AppendRow([]int64{1, 100})
	require.NoError(t, err)
	_, err = tbl.AppendRow([]int64{2, 200})
	require.NoError(t, err)

	require.NoError(t, tbl.Export(cfg.DataDir))

	reloaded, err := Load(buf, cfg, nil, "Scratch", filepath.Join(cfg.DataDir, "Scratch.csv"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, reloaded.RowCount())
}

func TestColumnIndex_UnknownColumnReturnsNegative(t *testing.T) {
	buf, cfg := newTestEnv(t)
	tbl, err := New(buf, cfg, nil, "Scratch", []string{"id"})
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.ColumnIndex("id"))
	assert.Equal(t, -1, tbl.ColumnIndex("nope"))
}
