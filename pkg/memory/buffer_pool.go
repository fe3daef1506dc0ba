// Package memory implements the bounded in-memory page cache that mediates
// every access to on-disk heap pages.
package memory

import (
	"sync"

	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/heap"
	"gopherbase/pkg/logging"
	"gopherbase/pkg/tuple"
)

// fileSource resolves a table id to the DbFile that owns it, so the
// BufferPool can read a missing page and flush a dirty one on eviction. A
// Catalog implements this structurally.
type fileSource interface {
	GetFile(tableID int) (heap.DbFile, error)
}

// node is one entry of the intrusive doubly linked recency list, indexed
// by the cache map for O(1) promotion.
type node struct {
	pid  heap.HeapPageID
	page *heap.HeapPage
	prev *node
	next *node
}

// BufferPool is the bounded, exclusively-locked LRU cache of HeapPages:
// at most maxPages entries, evicting the least-recently-used page
// (flushing it first if dirty) when full.
//
// The head/tail sentinels and per-entry node pointers form a classic
// intrusive LRU list; GetPage here always makes room by evicting repeatedly
// until space is available, rather than failing when full.
type BufferPool struct {
	mu       sync.Mutex
	maxPages int
	cache    map[heap.HeapPageID]*node
	head     *node
	tail     *node
	catalog  fileSource
}

// NewBufferPool constructs a BufferPool of the given capacity, backed by
// catalog for resolving table id → DbFile on cache misses and eviction
// flushes.
func NewBufferPool(maxPages int, catalog fileSource) *BufferPool {
	head := &node{}
	tail := &node{}
	head.next = tail
	tail.prev = head

	return &BufferPool{
		maxPages: maxPages,
		cache:    make(map[heap.HeapPageID]*node),
		head:     head,
		tail:     tail,
		catalog:  catalog,
	}
}

func (bp *BufferPool) addToFront(n *node) {
	n.prev = bp.head
	n.next = bp.head.next
	bp.head.next.prev = n
	bp.head.next = n
}

func (bp *BufferPool) removeNode(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (bp *BufferPool) moveToFront(n *node) {
	bp.removeNode(n)
	bp.addToFront(n)
}

// GetPage implements heap.PageStore: returns the cached page, moving it
// to MRU, or loads it from disk via the owning DbFile, evicting to make
// room first if necessary.
func (bp *BufferPool) GetPage(tid int64, pid heap.HeapPageID, perm heap.Permission) (*heap.HeapPage, error) {
	const op = "BufferPool.GetPage"
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if n, ok := bp.cache[pid]; ok {
		bp.moveToFront(n)
		return n.page, nil
	}

	file, err := bp.catalog.GetFile(pid.TableID())
	if err != nil {
		return nil, dberrors.Wrap(err, op, "resolving owning file")
	}
	page, err := file.ReadPage(pid)
	if err != nil {
		return nil, dberrors.Wrap(err, op, "reading page from disk")
	}

	if err := bp.makeRoomLocked(); err != nil {
		return nil, dberrors.Wrap(err, op, "evicting to make room")
	}

	n := &node{pid: pid, page: page}
	bp.cache[pid] = n
	bp.addToFront(n)
	logging.WithPage(pid.TableID(), pid.PageNo()).Debug("buffer pool cached page", "tx_id", tid)
	return page, nil
}

// makeRoomLocked evicts the LRU entry, flushing it first if dirty, until
// the cache has room for one more page. Callers must hold bp.mu.
func (bp *BufferPool) makeRoomLocked() error {
	const op = "BufferPool.evict"
	for len(bp.cache) >= bp.maxPages {
		victim := bp.tail.prev
		if victim == bp.head {
			return dberrors.New(dberrors.DbErrorKind, op, "no victim available")
		}
		if victim.page.IsDirty() != nil {
			file, err := bp.catalog.GetFile(victim.pid.TableID())
			if err != nil {
				return dberrors.Wrap(err, op, "resolving file for dirty eviction")
			}
			if err := file.WritePage(victim.page); err != nil {
				return dberrors.Wrap(err, op, "flushing dirty victim")
			}
			victim.page.MarkDirty(false, nil)
		}
		delete(bp.cache, victim.pid)
		bp.removeNode(victim)
	}
	return nil
}

// InsertTuple delegates to the owning file's InsertTuple and ensures every
// dirtied page returned is present in the cache at MRU.
func (bp *BufferPool) InsertTuple(tid int64, tableID int, t *tuple.Tuple) error {
	const op = "BufferPool.InsertTuple"
	file, err := bp.fileFor(tableID, op)
	if err != nil {
		return err
	}
	pages, err := file.InsertTuple(tid, bp, t)
	if err != nil {
		return dberrors.Wrap(err, op, "inserting via file")
	}
	bp.trackDirtied(pages)
	return nil
}

// DeleteTuple delegates to the DeleteTuple of the file registered under
// tableID, which locates the page through the tuple's own RecordId, and
// ensures the resulting page stays cached at MRU.
func (bp *BufferPool) DeleteTuple(tid int64, tableID int, t *tuple.Tuple) error {
	const op = "BufferPool.DeleteTuple"
	file, err := bp.fileFor(tableID, op)
	if err != nil {
		return err
	}
	page, err := file.DeleteTuple(tid, bp, t)
	if err != nil {
		return dberrors.Wrap(err, op, "deleting via file")
	}
	bp.trackDirtied([]*heap.HeapPage{page})
	return nil
}

func (bp *BufferPool) fileFor(tableID int, op string) (heap.DbFile, error) {
	file, err := bp.catalog.GetFile(tableID)
	if err != nil {
		return nil, dberrors.Wrap(err, op, "resolving table file")
	}
	return file, nil
}

func (bp *BufferPool) trackDirtied(pages []*heap.HeapPage) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, page := range pages {
		if n, ok := bp.cache[page.GetID()]; ok {
			n.page = page
			bp.moveToFront(n)
			continue
		}
		_ = bp.makeRoomLocked()
		n := &node{pid: page.GetID(), page: page}
		bp.cache[page.GetID()] = n
		bp.addToFront(n)
	}
}

// FlushAll writes every cached dirty page to disk without evicting it.
func (bp *BufferPool) FlushAll() error {
	const op = "BufferPool.FlushAll"
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for pid, n := range bp.cache {
		if n.page.IsDirty() == nil {
			continue
		}
		file, err := bp.catalog.GetFile(pid.TableID())
		if err != nil {
			return dberrors.Wrap(err, op, "resolving file")
		}
		if err := file.WritePage(n.page); err != nil {
			return dberrors.Wrap(err, op, "flushing page")
		}
		n.page.MarkDirty(false, nil)
	}
	return nil
}

// FlushPage writes a single cached page if dirty, without evicting it.
func (bp *BufferPool) FlushPage(pid heap.HeapPageID) error {
	const op = "BufferPool.FlushPage"
	bp.mu.Lock()
	defer bp.mu.Unlock()

	n, ok := bp.cache[pid]
	if !ok || n.page.IsDirty() == nil {
		return nil
	}
	file, err := bp.catalog.GetFile(pid.TableID())
	if err != nil {
		return dberrors.Wrap(err, op, "resolving file")
	}
	if err := file.WritePage(n.page); err != nil {
		return dberrors.Wrap(err, op, "flushing page")
	}
	n.page.MarkDirty(false, nil)
	return nil
}

// DiscardPage removes a page from the cache without flushing it; missing
// keys are a silent no-op rather than an error.
func (bp *BufferPool) DiscardPage(pid heap.HeapPageID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if n, ok := bp.cache[pid]; ok {
		delete(bp.cache, pid)
		bp.removeNode(n)
	}
}

// Size returns the number of pages currently cached, for tests.
func (bp *BufferPool) Size() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.cache)
}

// MRUOrder returns cached page ids from most- to least-recently-used, for
// tests asserting eviction ordering.
func (bp *BufferPool) MRUOrder() []heap.HeapPageID {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	out := make([]heap.HeapPageID, 0, len(bp.cache))
	for n := bp.head.next; n != bp.tail; n = n.next {
		out = append(out, n.pid)
	}
	return out
}
