// Package stats implements selectivity estimation via histograms: an
// equi-width integer histogram, a string histogram built atop it, and
// per-table statistics used to cost a scan and estimate cardinalities.
package stats

import (
	"math"

	"gopherbase/pkg/types"
)

// IntHistogram is an equi-width histogram over integers in [min, max]
// with B buckets. Bucket width delta is derived, not
// configured: delta = ceil((max-min+1) / min(B, max-min+1)).
//
// The equals estimator here deliberately does not use the textbook
// (h/width)/N ratio; it uses ceil(h/delta)/N, which slightly
// over-estimates but matches the fixed formula this engine requires.
type IntHistogram struct {
	buckets    []int64
	min        int32
	max        int32
	delta      int32
	numBuckets int
	total      int64
}

// NewIntHistogram constructs an empty histogram over [min, max] with the
// given target bucket count.
func NewIntHistogram(buckets int, min, max int32) *IntHistogram {
	span := int64(max) - int64(min) + 1
	if span < 1 {
		span = 1
	}
	effectiveBuckets := buckets
	if int64(effectiveBuckets) > span {
		effectiveBuckets = int(span)
	}
	if effectiveBuckets < 1 {
		effectiveBuckets = 1
	}
	delta := int32(ceilDiv(span, int64(effectiveBuckets)))
	if delta < 1 {
		delta = 1
	}

	return &IntHistogram{
		buckets:    make([]int64, effectiveBuckets),
		min:        min,
		max:        max,
		delta:      delta,
		numBuckets: effectiveBuckets,
	}
}

func ceilDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// AddValue records one occurrence of v during the histogram's population
// pass. Values outside [min, max] are ignored.
func (h *IntHistogram) AddValue(v int32) {
	if v < h.min || v > h.max {
		return
	}
	idx := h.bucketIndex(v)
	h.buckets[idx]++
	h.total++
}

func (h *IntHistogram) bucketIndex(v int32) int {
	idx := int((v - h.min) / h.delta)
	if idx >= h.numBuckets {
		idx = h.numBuckets - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// EstimateSelectivity dispatches to the per-operator estimator. LIKE is
// treated as equals.
func (h *IntHistogram) EstimateSelectivity(op types.Predicate, v int32) float64 {
	switch op {
	case types.Equals, types.Like:
		return h.equals(v)
	case types.NotEqual:
		return h.notEquals(v)
	case types.GreaterThan:
		return h.greaterThan(v, false)
	case types.GreaterThanOrEqual:
		return h.greaterThan(v, true)
	case types.LessThan:
		return h.lessThan(v)
	case types.LessThanOrEqual:
		return h.lessThanOrEqual(v)
	default:
		return 0
	}
}

// equals implements the exact formula: ceil(h/delta)/N for the bucket
// containing v, 0 outside [min, max].
func (h *IntHistogram) equals(v int32) float64 {
	if v < h.min || v > h.max || h.total == 0 {
		return 0
	}
	height := h.buckets[h.bucketIndex(v)]
	return math.Ceil(float64(height)/float64(h.delta)) / float64(h.total)
}

func (h *IntHistogram) notEquals(v int32) float64 {
	return 1 - h.equals(v)
}

// greaterThan sums the in-bucket contribution plus the heights of every
// bucket strictly to the right, divided by N.
func (h *IntHistogram) greaterThan(v int32, closed bool) float64 {
	if h.total == 0 {
		return 0
	}
	if v > h.max {
		return 0
	}
	if v < h.min {
		var sum int64
		for _, height := range h.buckets {
			sum += height
		}
		return float64(sum) / float64(h.total)
	}

	i := h.bucketIndex(v)
	bRight := int64(i+1)*int64(h.delta) + int64(h.min)
	height := h.buckets[i]

	adjust := int64(1)
	if closed {
		adjust = 0
	}
	inBucket := float64(bRight-int64(v)-adjust) * float64(height) / float64(h.delta)

	var rest int64
	for j := i + 1; j < h.numBuckets; j++ {
		rest += h.buckets[j]
	}

	return (inBucket + float64(rest)) / float64(h.total)
}

func (h *IntHistogram) lessThan(v int32) float64 {
	return 1 - h.greaterThan(v, true)
}

func (h *IntHistogram) lessThanOrEqual(v int32) float64 {
	return 1 - h.greaterThan(v, false)
}
