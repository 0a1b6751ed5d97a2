// Package catalog implements the process-wide table registry described in
// spec.md §4.5: the sole owner of every live Table's lifetime.
//
// Grounded on original_source/src/matrixCatalogue.cpp (pattern only, the
// registry's insert/get/remove shape and unload ordering; the matrix
// sub-feature itself is out of scope per SPEC_FULL.md §4) and
// tuannm99-novasql/internal/catalog/model.go (the map-backed registry
// idiom in Go).
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"radb/internal/table"
)

// ErrNameInUse matches spec.md §7's NameInUse taxonomy entry.
var ErrNameInUse = errors.New("catalog: name already in use")

// ErrNotFound is returned by Get/Remove for an unregistered table name.
var ErrNotFound = errors.New("catalog: table not found")

// Catalog is the single owner of every live Table.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]*table.Table
}

// New creates an empty Catalog.
func New() *Catalog {
	return &Catalog{tables: make(map[string]*table.Table)}
}

// Insert registers t under t.Name(). Re-registering an existing name fails
// with ErrNameInUse; callers must Remove the old table first if they mean
// to replace it.
func (c *Catalog) Insert(t *table.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.tables[t.Name()]; exists {
		return fmt.Errorf("catalog: %s: %w", t.Name(), ErrNameInUse)
	}
	c.tables[t.Name()] = t
	return nil
}

// Get returns the table registered under name.
func (c *Catalog) Get(name string) (*table.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[name]
	if !ok {
		return nil, fmt.Errorf("catalog: %s: %w", name, ErrNotFound)
	}
	return t, nil
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tables[name]
	return ok
}

// Names returns every registered table name, sorted, for LIST TABLES.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.tables))
	for n := range c.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Remove unregisters name and destroys its Table, in the unload order
// spec.md §4.5 requires: drop all indexes (which drops their node pages),
// then delete the Table's page files, then delete the temporary source CSV
// if it resides in the temp directory — table.Table.Unload implements
// exactly that ordering.
func (c *Catalog) Remove(name string) error {
	c.mu.Lock()
	t, ok := c.tables[name]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("catalog: %s: %w", name, ErrNotFound)
	}
	delete(c.tables, name)
	c.mu.Unlock()

	return t.Unload()
}
