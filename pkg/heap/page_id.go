package heap

import (
	"fmt"

	"gopherbase/pkg/tuple"
)

// HeapPageID identifies a page within a heap file: (table id, page
// number). It is a plain comparable value so it can be
// used directly as a map key (see tuple.PageID's doc comment) and it
// implements tuple.PageID.
type HeapPageID struct {
	tableID int
	pageNum int
}

func NewHeapPageID(tableID, pageNum int) HeapPageID {
	return HeapPageID{tableID: tableID, pageNum: pageNum}
}

func (id HeapPageID) TableID() int { return id.tableID }
func (id HeapPageID) PageNo() int  { return id.pageNum }

func (id HeapPageID) Equals(other tuple.PageID) bool {
	if other == nil {
		return false
	}
	return id.tableID == other.TableID() && id.pageNum == other.PageNo()
}

func (id HeapPageID) String() string {
	return fmt.Sprintf("HeapPageID(table=%d, page=%d)", id.tableID, id.pageNum)
}
