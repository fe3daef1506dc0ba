package tuple

import (
	"strings"

	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/types"
)

// Tuple is a row of data: a TupleDescription plus an ordered sequence of
// Fields of matching types, plus an optional RecordID locating it on
// disk.
type Tuple struct {
	TupleDesc *TupleDescription
	RecordID  *RecordID
	fields    []types.Field
}

// NewTuple allocates an empty tuple with the given schema; fields must be
// set before the tuple is used.
func NewTuple(td *TupleDescription) *Tuple {
	return &Tuple{
		TupleDesc: td,
		fields:    make([]types.Field, td.NumFields()),
	}
}

// SetField mutates the field at index i.
func (t *Tuple) SetField(i int, field types.Field) error {
	const op = "Tuple.SetField"
	if i < 0 || i >= len(t.fields) {
		return dberrors.Newf(dberrors.DbErrorKind, op, "field index %d out of bounds [0,%d)", i, len(t.fields))
	}
	expected, err := t.TupleDesc.TypeAtIndex(i)
	if err != nil {
		return dberrors.Wrap(err, op, "resolving expected type")
	}
	if field != nil && field.Type() != expected {
		return dberrors.Newf(dberrors.DbErrorKind, op, "field type mismatch: expected %s, got %s", expected, field.Type())
	}
	t.fields[i] = field
	return nil
}

// Field returns the value at index i.
func (t *Tuple) Field(i int) (types.Field, error) {
	if i < 0 || i >= len(t.fields) {
		return nil, dberrors.Newf(dberrors.DbErrorKind, "Tuple.Field", "field index %d out of bounds [0,%d)", i, len(t.fields))
	}
	return t.fields[i], nil
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.fields))
	for i, f := range t.fields {
		if f == nil {
			parts[i] = "null"
		} else {
			parts[i] = f.String()
		}
	}
	return strings.Join(parts, "\t")
}

// CombineTuples concatenates two tuples' fields into one, using the
// combined schema — used by a future join operator.
func CombineTuples(t1, t2 *Tuple) (*Tuple, error) {
	if t1 == nil || t2 == nil {
		return nil, dberrors.New(dberrors.DbErrorKind, "tuple.Combine", "cannot combine nil tuples")
	}
	out := NewTuple(Combine(t1.TupleDesc, t2.TupleDesc))
	if err := copyFieldsTo(t1, out, 0); err != nil {
		return nil, err
	}
	if err := copyFieldsTo(t2, out, t1.TupleDesc.NumFields()); err != nil {
		return nil, err
	}
	return out, nil
}

func copyFieldsTo(src, dst *Tuple, startIndex int) error {
	for i := 0; i < src.TupleDesc.NumFields(); i++ {
		f, err := src.Field(i)
		if err != nil {
			return err
		}
		if f != nil {
			if err := dst.SetField(startIndex+i, f); err != nil {
				return err
			}
		}
	}
	return nil
}
