package heap

import "gopherbase/pkg/tuple"

// DbFile is the interface a table's backing storage exposes to the
// BufferPool and Catalog: table id maps to (DbFile, name, primary key
// field name).
type DbFile interface {
	ReadPage(id HeapPageID) (*HeapPage, error)
	WritePage(p *HeapPage) error
	NumPages() (int, error)
	GetID() int
	GetTupleDesc() *tuple.TupleDescription
	Close() error
	InsertTuple(tid int64, pool PageStore, t *tuple.Tuple) ([]*HeapPage, error)
	DeleteTuple(tid int64, pool PageStore, t *tuple.Tuple) (*HeapPage, error)
}
