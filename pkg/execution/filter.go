package execution

import (
	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/tuple"
)

// Filter emits only child tuples for which pred holds.
type Filter struct {
	base  *BaseOperator
	pred  *Predicate
	child Operator
}

// NewFilter constructs a Filter over child using pred.
func NewFilter(pred *Predicate, child Operator) *Filter {
	f := &Filter{pred: pred, child: child}
	f.base = NewBaseOperator(f.readNext)
	return f
}

func (f *Filter) readNext() (*tuple.Tuple, error) {
	for {
		ok, err := f.child.HasNext()
		if err != nil || !ok {
			return nil, err
		}
		t, err := f.child.Next()
		if err != nil {
			return nil, err
		}
		match, err := f.pred.Filter(t)
		if err != nil {
			return nil, err
		}
		if match {
			return t, nil
		}
	}
}

// Open opens the child operator and readies the lookahead buffer.
func (f *Filter) Open() error {
	const op = "Filter.Open"
	if err := f.child.Open(); err != nil {
		return dberrors.Wrap(err, op, "opening child")
	}
	f.base.MarkOpened()
	return nil
}

func (f *Filter) HasNext() (bool, error)                { return f.base.HasNext() }
func (f *Filter) Next() (*tuple.Tuple, error)           { return f.base.Next() }
func (f *Filter) GetTupleDesc() *tuple.TupleDescription { return f.child.GetTupleDesc() }

// Close closes the child operator.
func (f *Filter) Close() error {
	f.base.Close()
	return f.child.Close()
}

// Rewind closes then reopens.
func (f *Filter) Rewind() error {
	const op = "Filter.Rewind"
	if err := f.child.Rewind(); err != nil {
		return dberrors.Wrap(err, op, "rewinding child")
	}
	f.base.MarkOpened()
	return nil
}

func (f *Filter) GetChildren() []Operator { return []Operator{f.child} }

func (f *Filter) SetChildren(children []Operator) error {
	const op = "Filter.SetChildren"
	if len(children) != 1 {
		return dberrors.New(dberrors.DbErrorKind, op, "Filter requires exactly one child")
	}
	f.child = children[0]
	return nil
}
