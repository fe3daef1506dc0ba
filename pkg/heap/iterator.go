package heap

import (
	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/tuple"
)

// FileIterator is a cursor over every live tuple of a HeapFile, walking
// pages in ascending page-number order and, within a page, slots in
// ascending slot order. It is a three-state machine — closed, open, and
// exhausted: operations other than Open on a closed cursor return no
// tuples, not an error.
type FileIterator struct {
	file *HeapFile
	tid  int64
	pool PageStore

	open      bool
	pageNo    int
	numPages  int
	tuples    []*tuple.Tuple
	tupleIdx  int
}

func newFileIterator(hf *HeapFile, tid int64, pool PageStore) *FileIterator {
	return &FileIterator{file: hf, tid: tid, pool: pool}
}

// Open positions the cursor at the first live tuple.
func (it *FileIterator) Open() error {
	const op = "FileIterator.Open"
	numPages, err := it.file.NumPages()
	if err != nil {
		return dberrors.Wrap(err, op, "counting pages")
	}
	it.numPages = numPages
	it.pageNo = 0
	it.tuples = nil
	it.tupleIdx = 0
	it.open = true
	return it.loadPage()
}

// loadPage fetches page pageNo and buffers its live tuples, advancing
// pageNo past any pages that turn out empty.
func (it *FileIterator) loadPage() error {
	const op = "FileIterator.loadPage"
	for it.pageNo < it.numPages {
		pid := NewHeapPageID(it.file.GetID(), it.pageNo)
		page, err := it.pool.GetPage(it.tid, pid, ReadOnly)
		if err != nil {
			return dberrors.Wrap(err, op, "fetching page")
		}
		it.tuples = page.IterateTuples()
		it.tupleIdx = 0
		it.pageNo++
		if len(it.tuples) > 0 {
			return nil
		}
	}
	it.tuples = nil
	return nil
}

// HasNext reports whether Next would return a tuple.
// Closed cursors report false rather than erroring.
func (it *FileIterator) HasNext() (bool, error) {
	if !it.open {
		return false, nil
	}
	if it.tupleIdx < len(it.tuples) {
		return true, nil
	}
	if err := it.loadPage(); err != nil {
		return false, err
	}
	return it.tupleIdx < len(it.tuples), nil
}

// Next returns the next live tuple. Returns a
// NoSuchElementKind error if the cursor is exhausted or closed.
func (it *FileIterator) Next() (*tuple.Tuple, error) {
	const op = "FileIterator.Next"
	ok, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dberrors.New(dberrors.NoSuchElementKind, op, "no more tuples")
	}
	t := it.tuples[it.tupleIdx]
	it.tupleIdx++
	return t, nil
}

// Rewind re-opens an open cursor at the first tuple, re-reading the page
// count. On a closed cursor it does nothing.
func (it *FileIterator) Rewind() error {
	if !it.open {
		return nil
	}
	return it.Open()
}

// Close marks the cursor closed. Subsequent HasNext calls return false.
func (it *FileIterator) Close() {
	it.open = false
	it.tuples = nil
	it.tupleIdx = 0
}
