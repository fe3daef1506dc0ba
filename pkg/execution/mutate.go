package execution

import (
	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/tuple"
	"gopherbase/pkg/types"
)

// mutationSink is the BufferPool surface Insert and Delete route through,
// so mutations re-enter the buffer pool rather than touching the file
// directly.
type mutationSink interface {
	InsertTuple(tid int64, tableID int, t *tuple.Tuple) error
	DeleteTuple(tid int64, tableID int, t *tuple.Tuple) error
}

var countTupleDesc = mustCountDesc()

func mustCountDesc() *tuple.TupleDescription {
	td, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"count"})
	if err != nil {
		panic(err)
	}
	return td
}

// Insert is a single-emission operator: on its first fetch it drains
// child and calls pool.InsertTuple per tuple, emitting one INT tuple
// holding the count; every subsequent fetch signals end-of-stream.
type Insert struct {
	base    *BaseOperator
	tid     int64
	child   Operator
	tableID int
	pool    mutationSink
	done    bool
}

// NewInsert constructs an Insert operator writing child's tuples into
// tableID via pool within transaction tid.
func NewInsert(tid int64, child Operator, tableID int, pool mutationSink) *Insert {
	ins := &Insert{tid: tid, child: child, tableID: tableID, pool: pool}
	ins.base = NewBaseOperator(ins.readNext)
	return ins
}

func (ins *Insert) readNext() (*tuple.Tuple, error) {
	if ins.done {
		return nil, nil
	}
	ins.done = true

	count := int32(0)
	for {
		ok, err := ins.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		t, err := ins.child.Next()
		if err != nil {
			return nil, err
		}
		if err := ins.pool.InsertTuple(ins.tid, ins.tableID, t); err != nil {
			return nil, err
		}
		count++
	}

	result := tuple.NewTuple(countTupleDesc)
	if err := result.SetField(0, types.NewIntField(count)); err != nil {
		return nil, err
	}
	return result, nil
}

// Open opens the child operator.
func (ins *Insert) Open() error {
	const op = "Insert.Open"
	if err := ins.child.Open(); err != nil {
		return dberrors.Wrap(err, op, "opening child")
	}
	ins.done = false
	ins.base.MarkOpened()
	return nil
}

func (ins *Insert) HasNext() (bool, error)              { return ins.base.HasNext() }
func (ins *Insert) Next() (*tuple.Tuple, error)         { return ins.base.Next() }
func (ins *Insert) GetTupleDesc() *tuple.TupleDescription { return countTupleDesc }

// Close closes the child operator.
func (ins *Insert) Close() error {
	ins.base.Close()
	return ins.child.Close()
}

// Rewind closes then reopens, restarting the single-emission cycle.
func (ins *Insert) Rewind() error {
	const op = "Insert.Rewind"
	if err := ins.child.Rewind(); err != nil {
		return dberrors.Wrap(err, op, "rewinding child")
	}
	ins.done = false
	ins.base.MarkOpened()
	return nil
}

func (ins *Insert) GetChildren() []Operator { return []Operator{ins.child} }

func (ins *Insert) SetChildren(children []Operator) error {
	const op = "Insert.SetChildren"
	if len(children) != 1 {
		return dberrors.New(dberrors.DbErrorKind, op, "Insert requires exactly one child")
	}
	ins.child = children[0]
	return nil
}

// Delete is symmetric to Insert, using pool.DeleteTuple.
type Delete struct {
	base  *BaseOperator
	tid   int64
	child Operator
	pool  mutationSink
	done  bool
}

// NewDelete constructs a Delete operator removing child's tuples via pool
// within transaction tid. Each tuple must carry a RecordID identifying
// its owning table.
func NewDelete(tid int64, child Operator, pool mutationSink) *Delete {
	del := &Delete{tid: tid, child: child, pool: pool}
	del.base = NewBaseOperator(del.readNext)
	return del
}

func (del *Delete) readNext() (*tuple.Tuple, error) {
	const op = "Delete.readNext"
	if del.done {
		return nil, nil
	}
	del.done = true

	count := int32(0)
	for {
		ok, err := del.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		t, err := del.child.Next()
		if err != nil {
			return nil, err
		}
		if t.RecordID == nil {
			return nil, dberrors.New(dberrors.DbErrorKind, op, "tuple has no RecordID to delete")
		}
		tableID := t.RecordID.PageID.TableID()
		if err := del.pool.DeleteTuple(del.tid, tableID, t); err != nil {
			return nil, err
		}
		count++
	}

	result := tuple.NewTuple(countTupleDesc)
	if err := result.SetField(0, types.NewIntField(count)); err != nil {
		return nil, err
	}
	return result, nil
}

// Open opens the child operator.
func (del *Delete) Open() error {
	const op = "Delete.Open"
	if err := del.child.Open(); err != nil {
		return dberrors.Wrap(err, op, "opening child")
	}
	del.done = false
	del.base.MarkOpened()
	return nil
}

func (del *Delete) HasNext() (bool, error)              { return del.base.HasNext() }
func (del *Delete) Next() (*tuple.Tuple, error)         { return del.base.Next() }
func (del *Delete) GetTupleDesc() *tuple.TupleDescription { return countTupleDesc }

// Close closes the child operator.
func (del *Delete) Close() error {
	del.base.Close()
	return del.child.Close()
}

// Rewind closes then reopens, restarting the single-emission cycle.
func (del *Delete) Rewind() error {
	const op = "Delete.Rewind"
	if err := del.child.Rewind(); err != nil {
		return dberrors.Wrap(err, op, "rewinding child")
	}
	del.done = false
	del.base.MarkOpened()
	return nil
}

func (del *Delete) GetChildren() []Operator { return []Operator{del.child} }

func (del *Delete) SetChildren(children []Operator) error {
	const op = "Delete.SetChildren"
	if len(children) != 1 {
		return dberrors.New(dberrors.DbErrorKind, op, "Delete requires exactly one child")
	}
	del.child = children[0]
	return nil
}
