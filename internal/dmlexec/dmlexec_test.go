package dmlexec

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"radb/internal/buffer"
	"radb/internal/catalog"
	"radb/internal/engineconfig"
	"radb/internal/table"
)

// newIntegrationEnv wires a real Catalog, buffer.Manager, and
// engineconfig.Config against a temp directory, for tests that exercise
// Insert/Update/Delete/Search against actual on-disk tables and indexes
// rather than stubs.
func newIntegrationEnv(t *testing.T) (*catalog.Catalog, *buffer.Manager, *engineconfig.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := engineconfig.Default()
	cfg.DataDir = dir
	cfg.BlockSize = 64
	cfg.BlockCount = 10
	require.NoError(t, os.MkdirAll(cfg.TempDir(), 0o755))
	buf, err := buffer.New(cfg.TempDir(), cfg.BlockCount, nil)
	require.NoError(t, err)
	return catalog.New(), buf, cfg
}

func newIntegrationTable(t *testing.T, cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, name string, columns []string, rows [][]int64) *table.Table {
	t.Helper()
	tbl, err := table.New(buf, cfg, nil, name, columns)
	require.NoError(t, err)
	for _, r := range rows {
		_, err := tbl.AppendRow(r)
		require.NoError(t, err)
	}
	require.NoError(t, cat.Insert(tbl))
	return tbl
}
