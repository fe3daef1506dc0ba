package stats

import (
	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/heap"
	"gopherbase/pkg/logging"
	"gopherbase/pkg/tuple"
	"gopherbase/pkg/types"
)

// fieldHistogram is either an *IntHistogram or *StringHistogram, kept
// behind one interface so TableStats can hold a uniform slice regardless
// of column type.
type fieldHistogram interface {
	estimateSelectivity(op types.Predicate, field types.Field) float64
}

type intFieldHistogram struct{ h *IntHistogram }

func (w intFieldHistogram) estimateSelectivity(op types.Predicate, field types.Field) float64 {
	f, ok := field.(*types.IntField)
	if !ok {
		return 0
	}
	return w.h.EstimateSelectivity(op, f.Value)
}

type stringFieldHistogram struct{ h *StringHistogram }

func (w stringFieldHistogram) estimateSelectivity(op types.Predicate, field types.Field) float64 {
	f, ok := field.(*types.StringField)
	if !ok {
		return 0
	}
	return w.h.EstimateSelectivity(op, f.Value)
}

// TableStats holds per-field histograms and the I/O cost model for one
// table.
type TableStats struct {
	tableID       int
	ioCostPerPage float64
	numPages      int
	numTuples     int64
	histograms    []fieldHistogram
}

// NewTableStats performs a two-pass construction: a first pass computing
// per-field min/max, a second pass populating
// histograms, reading the table via a plain read-only pass over the
// file's pages (not through the buffer pool, so statistics collection never
// evicts hot pages).
func NewTableStats(file *heap.HeapFile, ioCostPerPage float64, numHistBins int) (*TableStats, error) {
	const op = "TableStats.New"
	numPages, err := file.NumPages()
	if err != nil {
		return nil, dberrors.Wrap(err, op, "counting pages")
	}

	td := file.GetTupleDesc()
	numFields := td.NumFields()

	mins := make([]int32, numFields)
	maxs := make([]int32, numFields)
	for i := range mins {
		mins[i] = int32(1<<31 - 1)
		maxs[i] = -(1 << 31)
	}

	var numTuples int64
	scanPass := func(visit func(t *tuple.Tuple) error) error {
		for pageNo := 0; pageNo < numPages; pageNo++ {
			page, err := file.ReadPage(heap.NewHeapPageID(file.GetID(), pageNo))
			if err != nil {
				return err
			}
			for _, t := range page.IterateTuples() {
				if err := visit(t); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := scanPass(func(t *tuple.Tuple) error {
		numTuples++
		for i := 0; i < numFields; i++ {
			field, err := t.Field(i)
			if err != nil || field == nil {
				continue
			}
			if intField, ok := field.(*types.IntField); ok {
				if intField.Value < mins[i] {
					mins[i] = intField.Value
				}
				if intField.Value > maxs[i] {
					maxs[i] = intField.Value
				}
			}
		}
		return nil
	}); err != nil {
		return nil, dberrors.Wrap(err, op, "min/max pass")
	}

	histograms := make([]fieldHistogram, numFields)
	for i := 0; i < numFields; i++ {
		ty, _ := td.TypeAtIndex(i)
		switch ty {
		case types.IntType:
			lo, hi := mins[i], maxs[i]
			if lo > hi {
				lo, hi = 0, 0
			}
			histograms[i] = intFieldHistogram{h: NewIntHistogram(numHistBins, lo, hi)}
		case types.StringType:
			histograms[i] = stringFieldHistogram{h: NewStringHistogram(numHistBins)}
		}
	}

	if err := scanPass(func(t *tuple.Tuple) error {
		for i := 0; i < numFields; i++ {
			field, err := t.Field(i)
			if err != nil || field == nil {
				continue
			}
			switch f := field.(type) {
			case *types.IntField:
				histograms[i].(intFieldHistogram).h.AddValue(f.Value)
			case *types.StringField:
				histograms[i].(stringFieldHistogram).h.AddValue(f.Value)
			}
		}
		return nil
	}); err != nil {
		return nil, dberrors.Wrap(err, op, "histogram population pass")
	}

	logging.WithComponent("stats").Info("computed table statistics",
		"table_id", file.GetID(), "num_pages", numPages, "num_tuples", numTuples)

	return &TableStats{
		tableID:       file.GetID(),
		ioCostPerPage: ioCostPerPage,
		numPages:      numPages,
		numTuples:     numTuples,
		histograms:    histograms,
	}, nil
}

// EstimateScanCost is num_pages * io_cost_per_page.
func (ts *TableStats) EstimateScanCost() float64 {
	return float64(ts.numPages) * ts.ioCostPerPage
}

// EstimateTableCardinality is floor(sel * num_tuples).
func (ts *TableStats) EstimateTableCardinality(selectivity float64) int64 {
	return int64(selectivity * float64(ts.numTuples))
}

// EstimateSelectivity delegates to the field's histogram.
func (ts *TableStats) EstimateSelectivity(fieldIndex int, op types.Predicate, constant types.Field) float64 {
	const op1 = "TableStats.EstimateSelectivity"
	if fieldIndex < 0 || fieldIndex >= len(ts.histograms) || ts.histograms[fieldIndex] == nil {
		logging.WithComponent("stats").Warn(op1, "field_index", fieldIndex)
		return 0
	}
	return ts.histograms[fieldIndex].estimateSelectivity(op, constant)
}

// NumTuples returns the tuple count observed during construction.
func (ts *TableStats) NumTuples() int64 { return ts.numTuples }
