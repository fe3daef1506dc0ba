// Package execution implements a pull-based operator pipeline: a uniform
// open/next/close/rewind contract over scan, filter, insert, and delete
// nodes.
package execution

import (
	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/tuple"
)

// Operator is the contract every pipeline node exposes.
type Operator interface {
	Open() error
	HasNext() (bool, error)
	Next() (*tuple.Tuple, error)
	Close() error
	Rewind() error
	GetTupleDesc() *tuple.TupleDescription
	GetChildren() []Operator
	SetChildren(children []Operator) error
}

// FetchNextFunc produces the next tuple of a stream, or nil at
// end-of-stream.
type FetchNextFunc func() (*tuple.Tuple, error)

// BaseOperator implements the has_next/next lookahead ceremony common to
// every operator: fetchNext is called on demand and its result buffered
// so HasNext can be called repeatedly without consuming a tuple.
type BaseOperator struct {
	fetchNext FetchNextFunc
	opened    bool
	buffered  *tuple.Tuple
}

// NewBaseOperator wraps fetchNext with lookahead-buffered iteration.
func NewBaseOperator(fetchNext FetchNextFunc) *BaseOperator {
	return &BaseOperator{fetchNext: fetchNext}
}

// MarkOpened transitions the operator to the open state, discarding any
// stale buffered tuple.
func (b *BaseOperator) MarkOpened() {
	b.opened = true
	b.buffered = nil
}

// HasNext reports whether Next would return a tuple.
func (b *BaseOperator) HasNext() (bool, error) {
	const op = "BaseOperator.HasNext"
	if !b.opened {
		return false, dberrors.New(dberrors.DbErrorKind, op, "operator not open")
	}
	if b.buffered == nil {
		t, err := b.fetchNext()
		if err != nil {
			return false, err
		}
		b.buffered = t
	}
	return b.buffered != nil, nil
}

// Next returns the next tuple. Fails with
// NoSuchElementKind past the end.
func (b *BaseOperator) Next() (*tuple.Tuple, error) {
	const op = "BaseOperator.Next"
	if !b.opened {
		return nil, dberrors.New(dberrors.DbErrorKind, op, "operator not open")
	}
	if b.buffered == nil {
		t, err := b.fetchNext()
		if err != nil {
			return nil, err
		}
		b.buffered = t
	}
	if b.buffered == nil {
		return nil, dberrors.New(dberrors.NoSuchElementKind, op, "no more tuples")
	}
	t := b.buffered
	b.buffered = nil
	return t, nil
}

// Close discards buffered state and marks the operator closed.
func (b *BaseOperator) Close() {
	b.opened = false
	b.buffered = nil
}
