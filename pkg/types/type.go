package types

import "gopherbase/pkg/config"

// Type is the closed set of field types a Tuple can hold.
type Type int

const (
	IntType Type = iota
	StringType
)

func (t Type) String() string {
	switch t {
	case IntType:
		return "INT"
	case StringType:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// Size returns the serialized size in bytes of a field of this type:
// INT is 4 bytes, STRING is a 4-byte length prefix plus the configured
// STRING_LEN payload.
func (t Type) Size() uint32 {
	switch t {
	case IntType:
		return 4
	case StringType:
		return 4 + uint32(config.Global().StringLen())
	default:
		return 0
	}
}
