// Package txn provides the opaque transaction identifier threaded through
// every BufferPool and operator call. The baseline engine implements no
// locking or recovery — TransactionID exists only as the token carried
// at every boundary so a future locking layer has somewhere to hang
// scope.
package txn

import "sync/atomic"

var counter int64

// TransactionID is a process-unique, opaque transaction token, held as a
// plain int64 since gopherbase's core never dereferences transaction
// state.
type TransactionID int64

// New allocates a fresh TransactionID.
func New() TransactionID {
	return TransactionID(atomic.AddInt64(&counter, 1))
}

func (tid TransactionID) Int64() int64 { return int64(tid) }
