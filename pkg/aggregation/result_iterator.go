package aggregation

import (
	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/tuple"
)

// ResultIterator walks the materialized result relation an Aggregator
// produces, implementing the same open/next/close/rewind shape as the
// execution package's operators so it can be wrapped
// directly by an Aggregate operator.
type ResultIterator struct {
	tupleDesc *tuple.TupleDescription
	rows      []*tuple.Tuple
	pos       int
	opened    bool
}

// NewResultIterator wraps a materialized slice of result rows.
func NewResultIterator(td *tuple.TupleDescription, rows []*tuple.Tuple) *ResultIterator {
	return &ResultIterator{tupleDesc: td, rows: rows}
}

// Open positions the iterator at the first row.
func (it *ResultIterator) Open() error {
	it.opened = true
	it.pos = 0
	return nil
}

// HasNext reports whether Next would return a row.
func (it *ResultIterator) HasNext() (bool, error) {
	return it.opened && it.pos < len(it.rows), nil
}

// Next returns the next result row.
func (it *ResultIterator) Next() (*tuple.Tuple, error) {
	const op = "ResultIterator.Next"
	if !it.opened || it.pos >= len(it.rows) {
		return nil, dberrors.New(dberrors.NoSuchElementKind, op, "no more result rows")
	}
	row := it.rows[it.pos]
	it.pos++
	return row, nil
}

// Close marks the iterator closed.
func (it *ResultIterator) Close() error {
	it.opened = false
	return nil
}

// Rewind resets to the first row.
func (it *ResultIterator) Rewind() error {
	it.pos = 0
	return nil
}

// GetTupleDesc returns the result schema.
func (it *ResultIterator) GetTupleDesc() *tuple.TupleDescription {
	return it.tupleDesc
}
