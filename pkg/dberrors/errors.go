// Package dberrors defines the error taxonomy shared by every core package:
// storage, buffer pool, execution operators, and the selectivity estimator.
package dberrors

import (
	"errors"
	"fmt"
)

// Kind classifies a DBError so callers can branch on failure category
// instead of parsing messages.
type Kind int

const (
	// DbErrorKind covers schema mismatches, no-free-slot, tuple-not-on-page,
	// invalid page numbers, and aggregator misuse.
	DbErrorKind Kind = iota
	// IoErrorKind covers disk read/write failures, short reads, seek failures.
	IoErrorKind
	// TransactionAbortedKind is carried through every operator boundary.
	TransactionAbortedKind
	// NoSuchElementKind covers end-of-iteration and catalog lookup misses.
	NoSuchElementKind
	// UnsupportedAggregateKind covers constructing a StringAggregator with
	// anything other than COUNT.
	UnsupportedAggregateKind
)

func (k Kind) String() string {
	switch k {
	case DbErrorKind:
		return "DbError"
	case IoErrorKind:
		return "IoError"
	case TransactionAbortedKind:
		return "TransactionAborted"
	case NoSuchElementKind:
		return "NoSuchElement"
	case UnsupportedAggregateKind:
		return "UnsupportedAggregate"
	default:
		return "UnknownError"
	}
}

// DBError is the error type returned by every core package. Op names the
// failing operation ("HeapPage.InsertTuple", "BufferPool.GetPage", ...) so
// logs and tests can identify the failure site without string matching on
// the message.
type DBError struct {
	Kind  Kind
	Op    string
	Msg   string
	Cause error
}

func (e *DBError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Kind, e.Op, e.Msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Op, e.Msg)
}

func (e *DBError) Unwrap() error {
	return e.Cause
}

// New creates a DBError with no wrapped cause.
func New(kind Kind, op, msg string) *DBError {
	return &DBError{Kind: kind, Op: op, Msg: msg}
}

// Newf creates a DBError with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *DBError {
	return &DBError{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches operation context to an existing error. If cause is already
// a DBError, its Kind is preserved; otherwise it is classified as IoErrorKind
// since I/O failures are the most common uncategorized cause bubbling up
// from the OS.
func Wrap(cause error, op, msg string) *DBError {
	if cause == nil {
		return nil
	}
	var existing *DBError
	if errors.As(cause, &existing) {
		return &DBError{Kind: existing.Kind, Op: op, Msg: msg, Cause: cause}
	}
	return &DBError{Kind: IoErrorKind, Op: op, Msg: msg, Cause: cause}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return dbErr.Kind == kind
	}
	return false
}
