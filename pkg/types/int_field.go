package types

import (
	"encoding/binary"
	"hash/fnv"
	"io"
	"strconv"
)

// IntField is a signed 32-bit integer value.
type IntField struct {
	Value int32
}

func NewIntField(value int32) *IntField {
	return &IntField{Value: value}
}

func (f *IntField) Type() Type { return IntType }

func (f *IntField) Serialize(w io.Writer) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(f.Value))
	_, err := w.Write(buf[:])
	return err
}

func (f *IntField) Compare(op Predicate, other Field) (bool, error) {
	o, ok := other.(*IntField)
	if !ok {
		return false, nil
	}
	a, b := f.Value, o.Value
	switch op {
	case Equals, Like:
		return a == b, nil
	case NotEqual:
		return a != b, nil
	case LessThan:
		return a < b, nil
	case LessThanOrEqual:
		return a <= b, nil
	case GreaterThan:
		return a > b, nil
	case GreaterThanOrEqual:
		return a >= b, nil
	default:
		return false, nil
	}
}

func (f *IntField) Equals(other Field) bool {
	o, ok := other.(*IntField)
	return ok && o.Value == f.Value
}

func (f *IntField) Hash() uint32 {
	h := fnv.New32a()
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(f.Value))
	_, _ = h.Write(buf[:])
	return h.Sum32()
}

func (f *IntField) String() string {
	return strconv.FormatInt(int64(f.Value), 10)
}
