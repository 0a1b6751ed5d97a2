// Package buffer implements the bounded page cache described in
// spec.md §4.2: at most BlockCount pages resident at once, FIFO eviction on
// a cache miss when full, and a read-through/write-through split where
// writes never populate the cache.
//
// Grounded on ShubhamNegi4-DaemonDB/bplustree/buffer_pool.go (the
// capacity+eviction+pager shape) and tuannm99-novasql/internal/bufferpool/pool.go
// (the frame-table/replacer split). The hit-rate instrumentation is the
// domain-stack home for github.com/dgraph-io/ristretto/v2 (see SPEC_FULL.md
// §3): it never decides what gets evicted, it only counts.
package buffer

import (
	"container/list"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/ristretto/v2"

	"radb/internal/pageio"
)

// key identifies one cached page.
type key struct {
	owner string
	index int
}

func (k key) tag() string { return fmt.Sprintf("%s/%d", k.owner, k.index) }

// Manager is the bounded, FIFO-evicting page cache. One Manager is shared
// by every Table and BTree in a process, matching spec.md §5 ("The Buffer
// Manager holds at most BLOCK_COUNT pages in memory").
type Manager struct {
	mu       sync.Mutex
	dir      string
	capacity int
	log      *slog.Logger

	cache map[key]*pageio.Page
	order *list.List // FIFO order of keys, front = oldest
	elems map[key]*list.Element

	hits   *ristretto.Cache[string, struct{}]
	admits uint64
	misses uint64
	evicts uint64
}

// New creates a Manager rooted at dir (spec.md's <data>/temp) with the
// given page-resident capacity (spec.md's BLOCK_COUNT).
func New(dir string, capacity int, log *slog.Logger) (*Manager, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("buffer: capacity must be >= 1, got %d", capacity)
	}
	hits, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("buffer: init hit-rate cache: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		dir:      dir,
		capacity: capacity,
		log:      log,
		cache:    make(map[key]*pageio.Page),
		order:    list.New(),
		elems:    make(map[key]*list.Element),
		hits:     hits,
	}, nil
}

// Dir returns the scratch directory this manager reads/writes under.
func (m *Manager) Dir() string { return m.dir }

// Capacity returns BLOCK_COUNT.
func (m *Manager) Capacity() int { return m.capacity }

// PathFor builds the on-disk path for owner/index under the given suffix
// namespace ("Page" for table pages, "Node" for B+Tree nodes).
func (m *Manager) PathFor(owner, suffix string, index int) string {
	return pageio.FileName(m.dir, owner, suffix, index)
}

// GetPage returns the page (owner, index), fetching it from disk on a
// cache miss. rowCnt/columnCnt describe the expected shape, supplied by the
// caller's catalog metadata (Table.RowsPerBlock[index], Table.ColumnCount,
// or the BTree's own node shape).
func (m *Manager) GetPage(owner string, index, rowCnt, columnCnt int) (*pageio.Page, error) {
	k := key{owner, index}
	m.mu.Lock()
	if p, ok := m.cache[k]; ok {
		m.mu.Unlock()
		m.hits.Set(k.tag(), struct{}{}, 1)
		return p, nil
	}
	m.mu.Unlock()

	m.misses++
	path := m.PathFor(owner, "Page", index)
	p, err := pageio.Load(path, rowCnt, columnCnt)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(k, p)
	m.hits.Set(k.tag(), struct{}{}, 1)
	return p, nil
}

// GetNodePage is GetPage for a B+Tree node file (suffix "_Node<i>" rather
// than "_Page<i>"); the B+Tree treats its node namespace as its own owner
// string so indexes and tables never collide in the same cache.
func (m *Manager) GetNodePage(owner string, index, rowCnt, columnCnt int) (*pageio.Page, error) {
	k := key{owner, index}
	m.mu.Lock()
	if p, ok := m.cache[k]; ok {
		m.mu.Unlock()
		m.hits.Set(k.tag(), struct{}{}, 1)
		return p, nil
	}
	m.mu.Unlock()

	m.misses++
	path := m.PathFor(owner, "Node", index)
	p, err := pageio.Load(path, rowCnt, columnCnt)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(k, p)
	m.hits.Set(k.tag(), struct{}{}, 1)
	return p, nil
}

// insertLocked adds p to the cache, evicting the oldest-inserted page
// first if the manager is already at capacity. Caller holds m.mu.
func (m *Manager) insertLocked(k key, p *pageio.Page) {
	if _, ok := m.cache[k]; ok {
		return
	}
	if len(m.cache) >= m.capacity {
		oldest := m.order.Front()
		if oldest != nil {
			ok := oldest.Value.(key)
			m.order.Remove(oldest)
			delete(m.elems, ok)
			delete(m.cache, ok)
			m.evicts++
			m.log.Debug("buffer: evicted page", "owner", ok.owner, "index", ok.index)
		}
	}
	m.cache[k] = p
	el := m.order.PushBack(k)
	m.elems[k] = el
	m.admits++
}

// WritePage writes rows through to disk and never caches the result: the
// caller must re-fetch via GetPage to see a cached copy, matching spec.md
// §4.2 ("writes do not go through the cache. This is the sole path by
// which disk state changes").
func (m *Manager) WritePage(owner, suffix string, index int, rows [][]int64, n int) error {
	path := m.PathFor(owner, suffix, index)
	if err := pageio.Write(path, rows, n); err != nil {
		return err
	}
	m.mu.Lock()
	k := key{owner, index}
	if el, ok := m.elems[k]; ok {
		m.order.Remove(el)
		delete(m.elems, k)
		delete(m.cache, k)
	}
	m.mu.Unlock()
	return nil
}

// WriteTablePage is WritePage for table data pages.
func (m *Manager) WriteTablePage(owner string, index int, rows [][]int64, n int) error {
	return m.WritePage(owner, "Page", index, rows, n)
}

// WriteNodePage is WritePage for B+Tree node pages.
func (m *Manager) WriteNodePage(owner string, index int, rows [][]int64, n int) error {
	return m.WritePage(owner, "Node", index, rows, n)
}

// DeleteFile removes a file directly by path. The page cache is not
// touched; use DeleteTablePage/DeleteNodePage to also uncache a page.
func (m *Manager) DeleteFile(path string) error {
	return pageio.DeleteFile(path)
}

// DeleteTablePage removes and uncaches a table page.
func (m *Manager) DeleteTablePage(owner string, index int) error {
	m.evictKey(key{owner, index})
	return pageio.DeleteFile(m.PathFor(owner, "Page", index))
}

// DeleteNodePage removes and uncaches a B+Tree node page.
func (m *Manager) DeleteNodePage(owner string, index int) error {
	m.evictKey(key{owner, index})
	return pageio.DeleteFile(m.PathFor(owner, "Node", index))
}

func (m *Manager) evictKey(k key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.elems[k]; ok {
		m.order.Remove(el)
		delete(m.elems, k)
		delete(m.cache, k)
	}
}

// Stats reports the manager's own residency, admission, miss and eviction
// counters, purely for diagnostics; it never feeds back into eviction
// decisions.
type Stats struct {
	Resident int
	Admitted uint64
	Misses   uint64
	Evicted  uint64
}

// Stats returns a snapshot of the manager's cache occupancy and counters.
func (m *Manager) Stats() Stats {
	m.hits.Wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Resident: len(m.cache),
		Admitted: m.admits,
		Misses:   m.misses,
		Evicted:  m.evicts,
	}
}
