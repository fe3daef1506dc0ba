package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAllocatesDistinctIDs(t *testing.T) {
	a := New()
	b := New()
	assert.NotEqual(t, a.Int64(), b.Int64())
}

func TestNewNeverAllocatesZero(t *testing.T) {
	tid := New()
	assert.NotEqual(t, int64(0), tid.Int64())
}
