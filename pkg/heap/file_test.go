package heap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherbase/pkg/config"
	"gopherbase/pkg/tuple"
	"gopherbase/pkg/types"
)

// fakeStore is an unbounded, no-eviction PageStore used to exercise
// HeapFile and FileIterator in isolation from the real BufferPool.
type fakeStore struct {
	file   *HeapFile
	pages  map[HeapPageID]*HeapPage
}

func newFakeStore(file *HeapFile) *fakeStore {
	return &fakeStore{file: file, pages: make(map[HeapPageID]*HeapPage)}
}

func (s *fakeStore) GetPage(tid int64, pid HeapPageID, perm Permission) (*HeapPage, error) {
	if p, ok := s.pages[pid]; ok {
		return p, nil
	}
	p, err := s.file.ReadPage(pid)
	if err != nil {
		return nil, err
	}
	s.pages[pid] = p
	return p, nil
}

func (s *fakeStore) flush() error {
	for _, p := range s.pages {
		if p.IsDirty() != nil {
			if err := s.file.WritePage(p); err != nil {
				return err
			}
		}
	}
	return nil
}

func newTestFile(t *testing.T) (*HeapFile, *tuple.TupleDescription) {
	config.Global().SetPageSize(256)
	config.Global().SetStringLen(16)
	t.Cleanup(func() {
		config.Global().ResetPageSize()
		config.Global().ResetStringLen()
	})

	td, err := tuple.NewTupleDesc([]types.Type{types.IntType, types.StringType}, []string{"id", "name"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "table.dat")
	hf, err := NewHeapFile(path, td)
	require.NoError(t, err)
	t.Cleanup(func() { hf.Close() })
	return hf, td
}

func makeRow(t *testing.T, td *tuple.TupleDescription, id int32, name string) *tuple.Tuple {
	tup := tuple.NewTuple(td)
	require.NoError(t, tup.SetField(0, types.NewIntField(id)))
	require.NoError(t, tup.SetField(1, types.NewStringField(name)))
	return tup
}

// TestHeapFileInsertSpillsAcrossPages verifies: 
// inserting enough tuples to fill the first page causes a second page to
// be appended, and a sequential iterator visits both in page order.
func TestHeapFileInsertSpillsAcrossPages(t *testing.T) {
	hf, td := newTestFile(t)
	store := newFakeStore(hf)

	numSlots := NumSlots(td.Size())
	total := numSlots*2 + 1

	for i := 0; i < total; i++ {
		row := makeRow(t, td, int32(i), "row")
		_, err := hf.InsertTuple(1, store, row)
		require.NoError(t, err)
	}
	require.NoError(t, store.flush())

	numPages, err := hf.NumPages()
	require.NoError(t, err)
	assert.Equal(t, 3, numPages)

	it := hf.Iterator(1, store)
	require.NoError(t, it.Open())

	count := 0
	seen := make(map[int32]bool)
	for {
		ok, err := it.HasNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		tup, err := it.Next()
		require.NoError(t, err)
		f, _ := tup.Field(0)
		seen[f.(*types.IntField).Value] = true
		count++
	}
	assert.Equal(t, total, count)
	assert.Len(t, seen, total)
}

func TestFileIteratorClosedCursorReturnsNoTuples(t *testing.T) {
	hf, td := newTestFile(t)
	store := newFakeStore(hf)
	row := makeRow(t, td, 1, "x")
	_, err := hf.InsertTuple(1, store, row)
	require.NoError(t, err)

	it := hf.Iterator(1, store)
	require.NoError(t, it.Open())
	it.Close()

	ok, err := it.HasNext()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = it.Next()
	assert.Error(t, err)
}

func TestFileIteratorRewind(t *testing.T) {
	hf, td := newTestFile(t)
	store := newFakeStore(hf)
	for i := 0; i < 3; i++ {
		_, err := hf.InsertTuple(1, store, makeRow(t, td, int32(i), "x"))
		require.NoError(t, err)
	}

	it := hf.Iterator(1, store)
	require.NoError(t, it.Open())

	first := 0
	for {
		ok, err := it.HasNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		_, err = it.Next()
		require.NoError(t, err)
		first++
	}
	assert.Equal(t, 3, first)

	require.NoError(t, it.Rewind())
	second := 0
	for {
		ok, err := it.HasNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		_, err = it.Next()
		require.NoError(t, err)
		second++
	}
	assert.Equal(t, 3, second)
}

func TestHeapFileDeleteTuple(t *testing.T) {
	hf, td := newTestFile(t)
	store := newFakeStore(hf)
	row := makeRow(t, td, 1, "x")
	_, err := hf.InsertTuple(1, store, row)
	require.NoError(t, err)

	_, err = hf.DeleteTuple(1, store, row)
	require.NoError(t, err)
	assert.Nil(t, row.RecordID)

	it := hf.Iterator(1, store)
	require.NoError(t, it.Open())
	ok, err := it.HasNext()
	require.NoError(t, err)
	assert.False(t, ok)
}
