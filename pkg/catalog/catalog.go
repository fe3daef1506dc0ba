// Package catalog holds the map from table id to backing file, schema, and
// primary key that the buffer pool and operators consult to resolve a
// table by id or name.
package catalog

import (
	"sync"

	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/heap"
	"gopherbase/pkg/logging"
)

// TableInfo is the metadata the Catalog holds for one registered table.
type TableInfo struct {
	File          heap.DbFile
	Name          string
	PrimaryKey    string
}

// Catalog maps table id to TableInfo and table name to id.
// A duplicate name displaces the prior id mapping and evicts that prior
// id's entry too: last write wins on conflict.
type Catalog struct {
	mu        sync.RWMutex
	byID      map[int]*TableInfo
	nameToID  map[string]int
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{
		byID:     make(map[int]*TableInfo),
		nameToID: make(map[string]int),
	}
}

// AddTable registers file under name with the given primary key field
// name (empty if the table has none). If name already names a different
// table id, the old id's entry is evicted from byID before the new one
// takes over both maps.
func (c *Catalog) AddTable(file heap.DbFile, name, primaryKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if oldID, exists := c.nameToID[name]; exists && oldID != file.GetID() {
		delete(c.byID, oldID)
	}

	id := file.GetID()
	c.byID[id] = &TableInfo{File: file, Name: name, PrimaryKey: primaryKey}
	c.nameToID[name] = id
	logging.WithTable(name).Info("catalog registered table", "table_id", id)
}

// GetFile implements the fileSource interface memory.BufferPool consumes,
// resolving a table id to its DbFile.
func (c *Catalog) GetFile(tableID int) (heap.DbFile, error) {
	const op = "Catalog.GetFile"
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.byID[tableID]
	if !ok {
		return nil, dberrors.Newf(dberrors.NoSuchElementKind, op, "no table with id %d", tableID)
	}
	return info.File, nil
}

// GetTableID resolves a table name to its id.
func (c *Catalog) GetTableID(name string) (int, error) {
	const op = "Catalog.GetTableID"
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.nameToID[name]
	if !ok {
		return 0, dberrors.Newf(dberrors.NoSuchElementKind, op, "no table named %q", name)
	}
	return id, nil
}

// GetTableName returns the registered name of a table id.
func (c *Catalog) GetTableName(tableID int) (string, error) {
	const op = "Catalog.GetTableName"
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.byID[tableID]
	if !ok {
		return "", dberrors.Newf(dberrors.NoSuchElementKind, op, "no table with id %d", tableID)
	}
	return info.Name, nil
}

// GetPrimaryKey returns the primary key field name of a table id, which
// may be empty if the table has none.
func (c *Catalog) GetPrimaryKey(tableID int) (string, error) {
	const op = "Catalog.GetPrimaryKey"
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.byID[tableID]
	if !ok {
		return "", dberrors.Newf(dberrors.NoSuchElementKind, op, "no table with id %d", tableID)
	}
	return info.PrimaryKey, nil
}

// Clear removes every registered table. Exclusive-locked.
func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = make(map[int]*TableInfo)
	c.nameToID = make(map[string]int)
}

// TableIDs returns every registered table id, for tests and debug tooling.
func (c *Catalog) TableIDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	return ids
}
