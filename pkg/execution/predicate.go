package execution

import (
	"fmt"

	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/tuple"
	"gopherbase/pkg/types"
)

// Predicate tests one tuple against a fixed field index, operator, and
// operand: filter(t) := t.field(field_index).compare(op, operand).
type Predicate struct {
	FieldIndex int
	Op         types.Predicate
	Operand    types.Field
}

// NewPredicate constructs a Predicate.
func NewPredicate(fieldIndex int, op types.Predicate, operand types.Field) *Predicate {
	return &Predicate{FieldIndex: fieldIndex, Op: op, Operand: operand}
}

// Filter reports whether t satisfies the predicate.
func (p *Predicate) Filter(t *tuple.Tuple) (bool, error) {
	const op = "Predicate.Filter"
	field, err := t.Field(p.FieldIndex)
	if err != nil {
		return false, dberrors.Wrap(err, op, "resolving field")
	}
	return field.Compare(p.Op, p.Operand)
}

func (p *Predicate) String() string {
	return fmt.Sprintf("f%d %s %s", p.FieldIndex, p.Op, p.Operand)
}

// JoinPredicate tests one tuple from each side of a join against each
// other's field — a standalone type alongside Predicate so a hash or
// nested-loop join operator has somewhere to route its comparison.
type JoinPredicate struct {
	LeftIndex  int
	Op         types.Predicate
	RightIndex int
}

// NewJoinPredicate constructs a JoinPredicate.
func NewJoinPredicate(leftIndex int, op types.Predicate, rightIndex int) *JoinPredicate {
	return &JoinPredicate{LeftIndex: leftIndex, Op: op, RightIndex: rightIndex}
}

// Filter reports whether l and r satisfy the join predicate:
// l.field(left_index).compare(op, r.field(right_index)).
func (jp *JoinPredicate) Filter(l, r *tuple.Tuple) (bool, error) {
	const op = "JoinPredicate.Filter"
	lf, err := l.Field(jp.LeftIndex)
	if err != nil {
		return false, dberrors.Wrap(err, op, "resolving left field")
	}
	rf, err := r.Field(jp.RightIndex)
	if err != nil {
		return false, dberrors.Wrap(err, op, "resolving right field")
	}
	return lf.Compare(jp.Op, rf)
}
