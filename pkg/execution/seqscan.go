package execution

import (
	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/heap"
	"gopherbase/pkg/tuple"
)

// tableSource resolves a table id to its backing HeapFile, so SeqScan
// depends on the catalog only through this narrow interface rather than
// importing pkg/catalog directly.
type tableSource interface {
	GetFile(tableID int) (heap.DbFile, error)
}

// SeqScan emits every tuple of one table by delegating to the table's
// HeapFile cursor. Field names in its output schema are
// prefixed "{alias}.{name}".
type SeqScan struct {
	base    *BaseOperator
	tid     int64
	tableID int
	alias   string

	catalog tableSource
	pool    heap.PageStore

	file      *heap.HeapFile
	fileIter  *heap.FileIterator
	tupleDesc *tuple.TupleDescription
}

// NewSeqScan constructs a SeqScan over tableID within transaction tid,
// resolving the file via catalog and routing page fetches through pool.
func NewSeqScan(tid int64, tableID int, alias string, catalog tableSource, pool heap.PageStore) (*SeqScan, error) {
	const op = "SeqScan.New"
	dbFile, err := catalog.GetFile(tableID)
	if err != nil {
		return nil, dberrors.Wrap(err, op, "resolving table file")
	}
	hf, ok := dbFile.(*heap.HeapFile)
	if !ok {
		return nil, dberrors.New(dberrors.DbErrorKind, op, "table file is not a HeapFile")
	}

	ss := &SeqScan{
		tid:       tid,
		tableID:   tableID,
		alias:     alias,
		catalog:   catalog,
		pool:      pool,
		file:      hf,
		tupleDesc: aliasedTupleDesc(hf.GetTupleDesc(), alias),
	}
	ss.base = NewBaseOperator(ss.readNext)
	return ss, nil
}

func aliasedTupleDesc(td *tuple.TupleDescription, alias string) *tuple.TupleDescription {
	names := make([]string, td.NumFields())
	for i := range names {
		name, _ := td.FieldName(i)
		names[i] = alias + "." + name
	}
	newTD, _ := tuple.NewTupleDesc(td.Types, names)
	return newTD
}

// Open positions the underlying HeapFile cursor at the first tuple.
func (ss *SeqScan) Open() error {
	const op = "SeqScan.Open"
	ss.fileIter = ss.file.Iterator(ss.tid, ss.pool)
	if err := ss.fileIter.Open(); err != nil {
		return dberrors.Wrap(err, op, "opening file cursor")
	}
	ss.base.MarkOpened()
	return nil
}

func (ss *SeqScan) readNext() (*tuple.Tuple, error) {
	ok, err := ss.fileIter.HasNext()
	if err != nil || !ok {
		return nil, err
	}
	return ss.fileIter.Next()
}

func (ss *SeqScan) HasNext() (bool, error)                { return ss.base.HasNext() }
func (ss *SeqScan) Next() (*tuple.Tuple, error)           { return ss.base.Next() }
func (ss *SeqScan) GetTupleDesc() *tuple.TupleDescription { return ss.tupleDesc }

// Close closes the underlying cursor.
func (ss *SeqScan) Close() error {
	if ss.fileIter != nil {
		ss.fileIter.Close()
	}
	ss.base.Close()
	return nil
}

// Rewind restarts the scan from the first tuple.
func (ss *SeqScan) Rewind() error {
	const op = "SeqScan.Rewind"
	if ss.fileIter == nil {
		return ss.Open()
	}
	if err := ss.fileIter.Rewind(); err != nil {
		return dberrors.Wrap(err, op, "rewinding file cursor")
	}
	ss.base.MarkOpened()
	return nil
}

// GetChildren returns nil: SeqScan is a leaf.
func (ss *SeqScan) GetChildren() []Operator { return nil }

// SetChildren fails: SeqScan accepts no children.
func (ss *SeqScan) SetChildren(children []Operator) error {
	if len(children) != 0 {
		return dberrors.New(dberrors.DbErrorKind, "SeqScan.SetChildren", "SeqScan is a leaf operator")
	}
	return nil
}
