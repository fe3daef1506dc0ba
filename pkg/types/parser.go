package types

import (
	"encoding/binary"
	"io"

	"gopherbase/pkg/config"
	"gopherbase/pkg/dberrors"
)

// ParseField reads one field of the given Type from r, mirroring the wire
// format Serialize writes. Used by HeapPage when reconstructing tuples
// from a page's byte buffer.
func ParseField(r io.Reader, t Type) (Field, error) {
	const op = "ParseField"
	switch t {
	case IntType:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, dberrors.Wrap(err, op, "reading INT field")
		}
		return NewIntField(int32(binary.BigEndian.Uint32(buf[:]))), nil

	case StringType:
		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, dberrors.Wrap(err, op, "reading STRING length prefix")
		}
		length := binary.BigEndian.Uint32(lenBuf[:])

		maxLen := config.Global().StringLen()
		if int(length) > maxLen {
			return nil, dberrors.Newf(dberrors.IoErrorKind, op, "string field length %d exceeds STRING_LEN %d", length, maxLen)
		}

		payload := make([]byte, maxLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, dberrors.Wrap(err, op, "reading STRING payload")
		}

		return &StringField{Value: string(payload[:length])}, nil

	default:
		return nil, dberrors.Newf(dberrors.DbErrorKind, op, "unknown field type %v", t)
	}
}
