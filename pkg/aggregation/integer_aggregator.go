package aggregation

import (
	"sync"

	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/tuple"
	"gopherbase/pkg/types"
)

type intGroupState struct {
	groupValue types.Field
	sum        int64
	count      int64
	min        int32
	max        int32
	seen       bool
}

// IntegerAggregator supports MIN, MAX, SUM, AVG, COUNT, and SUM_COUNT
// over an INT field. Integer arithmetic is used
// throughout; AVG truncates toward zero.
type IntegerAggregator struct {
	mu            sync.RWMutex
	groupByIndex  int
	groupFieldTy  types.Type
	aggFieldIndex int
	aggFieldName  string
	op            AggregateOp

	order  []string
	groups map[string]*intGroupState

	tupleDesc *tuple.TupleDescription
}

// NewIntegerAggregator constructs an IntegerAggregator. groupByIndex may
// be NoGrouping. aggFieldName names the input field being aggregated, used
// to build the output column name "{op} ({name})".
func NewIntegerAggregator(groupByIndex int, groupFieldTy types.Type, aggFieldIndex int, aggFieldName string, op AggregateOp) *IntegerAggregator {
	return &IntegerAggregator{
		groupByIndex:  groupByIndex,
		groupFieldTy:  groupFieldTy,
		aggFieldIndex: aggFieldIndex,
		aggFieldName:  aggFieldName,
		op:            op,
		groups:        make(map[string]*intGroupState),
	}
}

// MergeTupleIntoGroup integrates one input tuple.
func (a *IntegerAggregator) MergeTupleIntoGroup(t *tuple.Tuple) error {
	const op = "IntegerAggregator.MergeTupleIntoGroup"
	a.mu.Lock()
	defer a.mu.Unlock()

	aggField, err := t.Field(a.aggFieldIndex)
	if err != nil {
		return dberrors.Wrap(err, op, "resolving aggregate field")
	}
	intField, ok := aggField.(*types.IntField)
	if !ok {
		return dberrors.New(dberrors.DbErrorKind, op, "aggregate field is not INT")
	}

	key, groupValue, err := a.groupKey(t)
	if err != nil {
		return dberrors.Wrap(err, op, "resolving group key")
	}

	st, ok := a.groups[key]
	if !ok {
		st = &intGroupState{groupValue: groupValue, min: intField.Value, max: intField.Value}
		a.groups[key] = st
		a.order = append(a.order, key)
	}

	st.sum += int64(intField.Value)
	st.count++
	if !st.seen || intField.Value < st.min {
		st.min = intField.Value
	}
	if !st.seen || intField.Value > st.max {
		st.max = intField.Value
	}
	st.seen = true
	return nil
}

func (a *IntegerAggregator) groupKey(t *tuple.Tuple) (string, types.Field, error) {
	if a.groupByIndex == NoGrouping {
		return "", nil, nil
	}
	f, err := t.Field(a.groupByIndex)
	if err != nil {
		return "", nil, err
	}
	return f.String(), f, nil
}

func (a *IntegerAggregator) resultFor(st *intGroupState) int32 {
	switch a.op {
	case Min:
		return st.min
	case Max:
		return st.max
	case Sum:
		return int32(st.sum)
	case Avg:
		if st.count == 0 {
			return 0
		}
		return int32(st.sum / st.count)
	case Count:
		return int32(st.count)
	default:
		return int32(st.sum)
	}
}

// GetTupleDesc returns the output schema.
func (a *IntegerAggregator) GetTupleDesc() *tuple.TupleDescription {
	outName := a.op.String() + " (" + a.aggFieldName + ")"
	if a.groupByIndex == NoGrouping {
		if a.op == SumCount {
			td, _ := tuple.NewTupleDesc([]types.Type{types.IntType, types.IntType},
				[]string{"SUM (" + a.aggFieldName + ")", "COUNT (" + a.aggFieldName + ")"})
			return td
		}
		td, _ := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{outName})
		return td
	}
	if a.op == SumCount {
		td, _ := tuple.NewTupleDesc(
			[]types.Type{a.groupFieldTy, types.IntType, types.IntType},
			[]string{"group", "SUM (" + a.aggFieldName + ")", "COUNT (" + a.aggFieldName + ")"})
		return td
	}
	td, _ := tuple.NewTupleDesc([]types.Type{a.groupFieldTy, types.IntType}, []string{"group", outName})
	return td
}

// Iterator produces the materialized result relation, in the order
// groups were first seen.
func (a *IntegerAggregator) Iterator() (*ResultIterator, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	td := a.GetTupleDesc()
	results := make([]*tuple.Tuple, 0, len(a.order))
	for _, key := range a.order {
		st := a.groups[key]
		row := tuple.NewTuple(td)
		idx := 0
		if a.groupByIndex != NoGrouping {
			if err := row.SetField(0, st.groupValue); err != nil {
				return nil, err
			}
			idx = 1
		}
		if a.op == SumCount {
			if err := row.SetField(idx, types.NewIntField(int32(st.sum))); err != nil {
				return nil, err
			}
			if err := row.SetField(idx+1, types.NewIntField(int32(st.count))); err != nil {
				return nil, err
			}
		} else {
			if err := row.SetField(idx, types.NewIntField(a.resultFor(st))); err != nil {
				return nil, err
			}
		}
		results = append(results, row)
	}
	return NewResultIterator(td, results), nil
}
