package stats

import "gopherbase/pkg/types"

// stringHistogramBound is the range a hashed string is folded into
// before feeding an IntHistogram: [-MAX, MAX] with MAX big enough to
// separate typical inputs.
const stringHistogramBound = 1 << 20

// StringHistogram reduces string selectivity estimation to an
// IntHistogram by hashing each string into a bounded integer range.
// Exact byte-for-byte parity with any reference hash is not required;
// only equality behavior needs to be meaningful.
type StringHistogram struct {
	inner *IntHistogram
}

// NewStringHistogram constructs a StringHistogram with the given target
// bucket count.
func NewStringHistogram(buckets int) *StringHistogram {
	return &StringHistogram{
		inner: NewIntHistogram(buckets, -stringHistogramBound, stringHistogramBound),
	}
}

// hashString folds s into [-MAX, MAX] with a base-31 polynomial hash,
// truncated.
func hashString(s string) int32 {
	var h int64
	for i := 0; i < len(s); i++ {
		h = h*31 + int64(s[i])
	}
	folded := h % stringHistogramBound
	if folded < 0 {
		folded = -folded
	}
	if h < 0 {
		return int32(-folded)
	}
	return int32(folded)
}

// AddValue records one occurrence of s.
func (h *StringHistogram) AddValue(s string) {
	h.inner.AddValue(hashString(s))
}

// EstimateSelectivity delegates to the underlying IntHistogram over the
// hashed value.
func (h *StringHistogram) EstimateSelectivity(op types.Predicate, s string) float64 {
	return h.inner.EstimateSelectivity(op, hashString(s))
}
