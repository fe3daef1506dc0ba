package types

import (
	"encoding/binary"
	"hash/fnv"
	"io"
	"strings"

	"gopherbase/pkg/config"
)

// StringField is a fixed-width string value of up to the configured
// STRING_LEN characters. Values longer than STRING_LEN
// are truncated at construction.
type StringField struct {
	Value string
}

func NewStringField(value string) *StringField {
	maxLen := config.Global().StringLen()
	if len(value) > maxLen {
		value = value[:maxLen]
	}
	return &StringField{Value: value}
}

func (f *StringField) Type() Type { return StringType }

// Serialize writes a 4-byte big-endian length prefix followed by
// STRING_LEN bytes: the string's own bytes, right-padded with zeroes.
func (f *StringField) Serialize(w io.Writer) error {
	maxLen := config.Global().StringLen()
	length := len(f.Value)
	if length > maxLen {
		length = maxLen
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(length))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}

	if _, err := w.Write([]byte(f.Value[:length])); err != nil {
		return err
	}

	padding := make([]byte, maxLen-length)
	_, err := w.Write(padding)
	return err
}

// Compare treats Like as substring containment; every other operator is
// lexicographic.
func (f *StringField) Compare(op Predicate, other Field) (bool, error) {
	o, ok := other.(*StringField)
	if !ok {
		return false, nil
	}

	if op == Like {
		return strings.Contains(f.Value, o.Value), nil
	}

	cmp := strings.Compare(f.Value, o.Value)
	switch op {
	case Equals:
		return cmp == 0, nil
	case NotEqual:
		return cmp != 0, nil
	case LessThan:
		return cmp < 0, nil
	case LessThanOrEqual:
		return cmp <= 0, nil
	case GreaterThan:
		return cmp > 0, nil
	case GreaterThanOrEqual:
		return cmp >= 0, nil
	default:
		return false, nil
	}
}

func (f *StringField) Equals(other Field) bool {
	o, ok := other.(*StringField)
	return ok && o.Value == f.Value
}

func (f *StringField) Hash() uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(f.Value))
	return h.Sum32()
}

func (f *StringField) String() string { return f.Value }
