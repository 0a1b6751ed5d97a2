package joinexec

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"radb/internal/buffer"
	"radb/internal/catalog"
	"radb/internal/engineconfig"
	"radb/internal/table"
)

// EquiJoin implements the partition hash join for JOIN ON col == col,
// per spec.md §4.6: partition both sides into BLOCK_COUNT-1 buckets by
// hash(key) = |key| mod k, then join bucket-by-bucket with an in-memory
// multimap over the R side.
func EquiJoin(cat *catalog.Catalog, buf *buffer.Manager, cfg *engineconfig.Config, log *slog.Logger, r, s *table.Table, rCol, sCol int, resultName string) (*table.Table, error) {
	log = defaultLog(log)

	k := cfg.BlockCount - 1
	if k < 1 {
		k = 1
	}

	rBuckets, err := partition(cfg, r, rCol, k, 1)
	if err != nil {
		return nil, err
	}
	defer cleanupBuckets(rBuckets)

	sBuckets, err := partition(cfg, s, sCol, k, 1)
	if err != nil {
		return nil, err
	}
	defer cleanupBuckets(sBuckets)

	result, err := table.New(buf, cfg, log, resultName, resultColumns(r, s))
	if err != nil {
		return nil, err
	}

	for b := 0; b < k; b++ {
		rRows, err := readBucket(rBuckets[b], len(r.Columns()))
		if err != nil {
			return nil, err
		}
		multimap := make(map[int64][][]int64, len(rRows))
		for _, row := range rRows {
			multimap[row[rCol]] = append(multimap[row[rCol]], row)
		}

		if err := streamBucket(sBuckets[b], len(s.Columns()), func(sRow []int64) error {
			for _, rRow := range multimap[sRow[sCol]] {
				if _, err := result.AppendRow(combine(rRow, sRow)); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return nil, err
		}

		if err := os.Remove(rBuckets[b]); err != nil && !os.IsNotExist(err) {
			log.Warn("joinexec: remove bucket", "path", rBuckets[b], "err", err)
		}
		if err := os.Remove(sBuckets[b]); err != nil && !os.IsNotExist(err) {
			log.Warn("joinexec: remove bucket", "path", sBuckets[b], "err", err)
		}
	}

	if err := cat.Insert(result); err != nil {
		return nil, err
	}
	return result, nil
}

func hashBucket(key int64, k int) int {
	if key < 0 {
		key = -key
	}
	return int(key % int64(k))
}

// partition streams src through a Cursor, writing each row into its hash
// bucket's side file under the temp directory, and returns the bucket
// file paths in bucket order.
func partition(cfg *engineconfig.Config, src *table.Table, col, k, pass int) ([]string, error) {
	paths := make([]string, k)
	writers := make([]*bufio.Writer, k)
	files := make([]*os.File, k)
	for b := 0; b < k; b++ {
		path := bucketPath(cfg, src.Name(), pass, b)
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("joinexec: create bucket %s: %w", path, err)
		}
		files[b] = f
		writers[b] = bufio.NewWriter(f)
		paths[b] = path
	}
	defer func() {
		for b := 0; b < k; b++ {
			_ = writers[b].Flush()
			_ = files[b].Close()
		}
	}()

	cur := src.Cursor()
	for {
		row, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		b := hashBucket(row[col], k)
		if err := writeRow(writers[b], row); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func bucketPath(cfg *engineconfig.Config, owner string, pass, bucket int) string {
	return filepath.Join(cfg.TempDir(), fmt.Sprintf("%s_joinPass%d_Bucket%d", owner, pass, bucket))
}

func writeRow(w *bufio.Writer, row []int64) error {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = strconv.FormatInt(v, 10)
	}
	_, err := w.WriteString(strings.Join(parts, " ") + "\n")
	return err
}

func readBucket(path string, width int) ([][]int64, error) {
	var rows [][]int64
	err := streamBucket(path, width, func(row []int64) error {
		rows = append(rows, row)
		return nil
	})
	return rows, err
}

// streamBucket reads path line by line, parsing each into a width-wide
// row and calling fn, so the S-side bucket never needs to be held in
// memory all at once.
func streamBucket(path string, width int, fn func([]int64) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("joinexec: open bucket %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != width {
			return fmt.Errorf("joinexec: bucket %s: row width %d, want %d", path, len(fields), width)
		}
		row := make([]int64, width)
		for i, f := range fields {
			v, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return fmt.Errorf("joinexec: bucket %s: parse int: %w", path, err)
			}
			row[i] = v
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func cleanupBuckets(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
