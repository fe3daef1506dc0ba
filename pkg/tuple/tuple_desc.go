package tuple

import (
	"strings"

	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/types"
)

// TupleDescription is the ordered schema of a row: a sequence of
// (Type, optional name) items.
type TupleDescription struct {
	Types      []types.Type
	FieldNames []string // may be nil; absent names are treated as ""
}

// NewTupleDesc builds a TupleDescription. fieldTypes must contain at
// least one element; if fieldNames is non-nil it must have the same
// length as fieldTypes.
func NewTupleDesc(fieldTypes []types.Type, fieldNames []string) (*TupleDescription, error) {
	const op = "TupleDescription.New"
	if len(fieldTypes) < 1 {
		return nil, dberrors.New(dberrors.DbErrorKind, op, "must provide at least one field type")
	}
	if fieldNames != nil && len(fieldNames) != len(fieldTypes) {
		return nil, dberrors.Newf(dberrors.DbErrorKind, op,
			"field names length (%d) must match field types length (%d)", len(fieldNames), len(fieldTypes))
	}

	td := &TupleDescription{
		Types: append([]types.Type(nil), fieldTypes...),
	}
	if fieldNames != nil {
		td.FieldNames = append([]string(nil), fieldNames...)
	}
	return td, nil
}

// NumFields returns the number of fields in this schema.
func (td *TupleDescription) NumFields() int { return len(td.Types) }

// FieldName returns the name of field i, or "" if unnamed.
func (td *TupleDescription) FieldName(i int) (string, error) {
	if i < 0 || i >= len(td.Types) {
		return "", dberrors.Newf(dberrors.DbErrorKind, "TupleDescription.FieldName", "field index %d out of bounds [0,%d)", i, len(td.Types))
	}
	if td.FieldNames == nil {
		return "", nil
	}
	return td.FieldNames[i], nil
}

// TypeAtIndex returns the type of field i.
func (td *TupleDescription) TypeAtIndex(i int) (types.Type, error) {
	if i < 0 || i >= len(td.Types) {
		return 0, dberrors.Newf(dberrors.DbErrorKind, "TupleDescription.TypeAtIndex", "field index %d out of bounds [0,%d)", i, len(td.Types))
	}
	return td.Types[i], nil
}

// Size is the serialized size of a tuple of this schema: the sum of its
// field sizes.
func (td *TupleDescription) Size() uint32 {
	var total uint32
	for _, t := range td.Types {
		total += t.Size()
	}
	return total
}

// Equals reports schema equality: type sequences must match elementwise.
// Names are irrelevant.
func (td *TupleDescription) Equals(other *TupleDescription) bool {
	if other == nil || len(td.Types) != len(other.Types) {
		return false
	}
	for i, t := range td.Types {
		if t != other.Types[i] {
			return false
		}
	}
	return true
}

// FindFieldIndex locates a field by name, case-sensitive linear search.
func (td *TupleDescription) FindFieldIndex(name string) (int, error) {
	for i := range td.Types {
		n, _ := td.FieldName(i)
		if n == name {
			return i, nil
		}
	}
	return -1, dberrors.Newf(dberrors.NoSuchElementKind, "TupleDescription.FindFieldIndex", "column %q not found", name)
}

func (td *TupleDescription) String() string {
	parts := make([]string, len(td.Types))
	for i, t := range td.Types {
		name, _ := td.FieldName(i)
		if name == "" {
			name = "null"
		}
		parts[i] = t.String() + "(" + name + ")"
	}
	return strings.Join(parts, ",")
}

// Combine concatenates two TupleDescriptions.
func Combine(td1, td2 *TupleDescription) *TupleDescription {
	if td1 == nil {
		return td2
	}
	if td2 == nil {
		return td1
	}

	newTypes := make([]types.Type, 0, len(td1.Types)+len(td2.Types))
	newTypes = append(newTypes, td1.Types...)
	newTypes = append(newTypes, td2.Types...)

	var newNames []string
	if td1.FieldNames != nil || td2.FieldNames != nil {
		newNames = make([]string, 0, len(newTypes))
		newNames = append(newNames, namesOrBlank(td1)...)
		newNames = append(newNames, namesOrBlank(td2)...)
	}

	combined, _ := NewTupleDesc(newTypes, newNames)
	return combined
}

func namesOrBlank(td *TupleDescription) []string {
	if td.FieldNames != nil {
		return td.FieldNames
	}
	blanks := make([]string, len(td.Types))
	return blanks
}
