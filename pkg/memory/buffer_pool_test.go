package memory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherbase/pkg/config"
	"gopherbase/pkg/heap"
	"gopherbase/pkg/tuple"
	"gopherbase/pkg/types"
)

// fakeCatalog is a minimal fileSource backed by a single HeapFile, for
// tests that don't need the real catalog package.
type fakeCatalog struct {
	files map[int]heap.DbFile
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{files: make(map[int]heap.DbFile)}
}

func (c *fakeCatalog) GetFile(tableID int) (heap.DbFile, error) {
	f, ok := c.files[tableID]
	if !ok {
		return nil, assert.AnError
	}
	return f, nil
}

func (c *fakeCatalog) register(f heap.DbFile) {
	c.files[f.GetID()] = f
}

func newTestFile(t *testing.T) (*heap.HeapFile, *tuple.TupleDescription) {
	config.Global().SetPageSize(256)
	config.Global().SetStringLen(16)
	t.Cleanup(func() {
		config.Global().ResetPageSize()
		config.Global().ResetStringLen()
	})

	td, err := tuple.NewTupleDesc([]types.Type{types.IntType, types.StringType}, []string{"id", "name"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "table.dat")
	hf, err := heap.NewHeapFile(path, td)
	require.NoError(t, err)
	t.Cleanup(func() { hf.Close() })
	return hf, td
}

func makeRow(t *testing.T, td *tuple.TupleDescription, id int32) *tuple.Tuple {
	tup := tuple.NewTuple(td)
	require.NoError(t, tup.SetField(0, types.NewIntField(id)))
	require.NoError(t, tup.SetField(1, types.NewStringField("x")))
	return tup
}

// TestBufferPoolNeverExceedsCapacity verifies: after
// fetching more distinct pages than the pool's capacity, its size never
// exceeds that capacity.
func TestBufferPoolNeverExceedsCapacity(t *testing.T) {
	hf, td := newTestFile(t)
	cat := newFakeCatalog()
	cat.register(hf)

	numSlots := heap.NumSlots(td.Size())
	pagesToCreate := 5
	for i := 0; i < numSlots*pagesToCreate; i++ {
		pages, err := hf.InsertTuple(1, directStore{hf}, makeRow(t, td, int32(i)))
		require.NoError(t, err)
		writeBack(t, hf, pages)
	}

	bp := NewBufferPool(3, cat)
	for pageNo := 0; pageNo < pagesToCreate; pageNo++ {
		_, err := bp.GetPage(1, heap.NewHeapPageID(hf.GetID(), pageNo), heap.ReadOnly)
		require.NoError(t, err)
		assert.LessOrEqual(t, bp.Size(), 3)
	}
	assert.Equal(t, 3, bp.Size())
}

// directStore is a PageStore that always reads through to disk, used only
// to seed test fixtures without going through a BufferPool.
type directStore struct{ file *heap.HeapFile }

func (s directStore) GetPage(tid int64, pid heap.HeapPageID, perm heap.Permission) (*heap.HeapPage, error) {
	return s.file.ReadPage(pid)
}

// writeBack writes the pages an insert through directStore dirtied to
// disk; directStore keeps no pages, so without this the insert is lost.
func writeBack(t *testing.T, hf *heap.HeapFile, pages []*heap.HeapPage) {
	for _, p := range pages {
		require.NoError(t, hf.WritePage(p))
	}
}

// TestBufferPoolGetPageIsMRU verifies: get_page(pid)
// always makes pid the most-recently-used entry.
func TestBufferPoolGetPageIsMRU(t *testing.T) {
	hf, td := newTestFile(t)
	cat := newFakeCatalog()
	cat.register(hf)

	numSlots := heap.NumSlots(td.Size())
	for i := 0; i < numSlots*3; i++ {
		pages, err := hf.InsertTuple(1, directStore{hf}, makeRow(t, td, int32(i)))
		require.NoError(t, err)
		writeBack(t, hf, pages)
	}

	bp := NewBufferPool(3, cat)
	p0 := heap.NewHeapPageID(hf.GetID(), 0)
	p1 := heap.NewHeapPageID(hf.GetID(), 1)
	p2 := heap.NewHeapPageID(hf.GetID(), 2)

	_, err := bp.GetPage(1, p0, heap.ReadOnly)
	require.NoError(t, err)
	_, err = bp.GetPage(1, p1, heap.ReadOnly)
	require.NoError(t, err)
	_, err = bp.GetPage(1, p2, heap.ReadOnly)
	require.NoError(t, err)
	assert.Equal(t, []heap.HeapPageID{p2, p1, p0}, bp.MRUOrder())

	_, err = bp.GetPage(1, p0, heap.ReadOnly)
	require.NoError(t, err)
	assert.Equal(t, []heap.HeapPageID{p0, p2, p1}, bp.MRUOrder())
}

// TestBufferPoolEvictsLeastRecentlyUsed verifies: 
// fetching one page beyond capacity evicts the LRU entry, not any other.
func TestBufferPoolEvictsLeastRecentlyUsed(t *testing.T) {
	hf, td := newTestFile(t)
	cat := newFakeCatalog()
	cat.register(hf)

	numSlots := heap.NumSlots(td.Size())
	for i := 0; i < numSlots*4; i++ {
		pages, err := hf.InsertTuple(1, directStore{hf}, makeRow(t, td, int32(i)))
		require.NoError(t, err)
		writeBack(t, hf, pages)
	}

	bp := NewBufferPool(3, cat)
	ids := []heap.HeapPageID{
		heap.NewHeapPageID(hf.GetID(), 0),
		heap.NewHeapPageID(hf.GetID(), 1),
		heap.NewHeapPageID(hf.GetID(), 2),
	}
	for _, id := range ids {
		_, err := bp.GetPage(1, id, heap.ReadOnly)
		require.NoError(t, err)
	}

	// touch page 0 so page 1 becomes the LRU entry
	_, err := bp.GetPage(1, ids[0], heap.ReadOnly)
	require.NoError(t, err)

	newPid := heap.NewHeapPageID(hf.GetID(), 3)
	_, err = bp.GetPage(1, newPid, heap.ReadOnly)
	require.NoError(t, err)

	assert.Equal(t, []heap.HeapPageID{newPid, ids[0], ids[2]}, bp.MRUOrder())
}

// TestBufferPoolFlushesDirtyPageOnEviction verifies: 
// evicting a dirty page writes it to disk first.
func TestBufferPoolFlushesDirtyPageOnEviction(t *testing.T) {
	hf, td := newTestFile(t)
	cat := newFakeCatalog()
	cat.register(hf)

	// pre-create three pages worth of space so eviction has real backing
	// pages to write to instead of past-end-of-file.
	numSlots := heap.NumSlots(td.Size())
	for i := 0; i < numSlots*3; i++ {
		pages, err := hf.InsertTuple(1, directStore{hf}, makeRow(t, td, int32(i+1000)))
		require.NoError(t, err)
		writeBack(t, hf, pages)
	}

	// free up a slot on page 0 so the buffer pool can insert into it below.
	p0 := heap.NewHeapPageID(hf.GetID(), 0)
	onDiskPage0, err := hf.ReadPage(p0)
	require.NoError(t, err)
	freed := onDiskPage0.IterateTuples()[0]
	require.NoError(t, onDiskPage0.DeleteTuple(freed, 1))
	require.NoError(t, hf.WritePage(onDiskPage0))

	bp := NewBufferPool(1, cat)

	page, err := bp.GetPage(1, p0, heap.ReadWrite)
	require.NoError(t, err)

	victimTuple := makeRow(t, td, 424242)
	require.NoError(t, page.InsertTuple(victimTuple, 1))
	require.NotNil(t, page.IsDirty())

	// fetching a second page evicts page 0, which must be flushed first
	p1 := heap.NewHeapPageID(hf.GetID(), 1)
	_, err = bp.GetPage(1, p1, heap.ReadOnly)
	require.NoError(t, err)

	onDisk, err := hf.ReadPage(p0)
	require.NoError(t, err)
	found := false
	for _, tup := range onDisk.IterateTuples() {
		f, _ := tup.Field(0)
		if f.(*types.IntField).Value == 424242 {
			found = true
		}
	}
	assert.True(t, found, "dirty page must be flushed to disk before eviction")
}

func TestBufferPoolDiscardPageIsNoOpOnMiss(t *testing.T) {
	hf, _ := newTestFile(t)
	cat := newFakeCatalog()
	cat.register(hf)
	bp := NewBufferPool(3, cat)

	assert.NotPanics(t, func() {
		bp.DiscardPage(heap.NewHeapPageID(hf.GetID(), 99))
	})
}

func TestBufferPoolInsertTupleTracksDirtyPage(t *testing.T) {
	hf, td := newTestFile(t)
	cat := newFakeCatalog()
	cat.register(hf)
	bp := NewBufferPool(3, cat)

	row := makeRow(t, td, 1)
	require.NoError(t, bp.InsertTuple(1, hf.GetID(), row))
	assert.Equal(t, 1, bp.Size())

	require.NoError(t, bp.FlushAll())
	numPages, err := hf.NumPages()
	require.NoError(t, err)
	assert.Equal(t, 1, numPages)
}
