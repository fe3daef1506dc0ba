package aggregation

import (
	"sync"

	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/tuple"
	"gopherbase/pkg/types"
)

// StringAggregator supports only COUNT over a STRING field; constructing
// one with any other op fails immediately.
type StringAggregator struct {
	mu            sync.RWMutex
	groupByIndex  int
	groupFieldTy  types.Type
	aggFieldIndex int
	aggFieldName  string

	order  []string
	groups map[string]struct {
		groupValue types.Field
		count      int64
	}
}

// NewStringAggregator constructs a StringAggregator. Returns an
// UnsupportedAggregateKind error unless op is Count.
func NewStringAggregator(groupByIndex int, groupFieldTy types.Type, aggFieldIndex int, aggFieldName string, op AggregateOp) (*StringAggregator, error) {
	const errOp = "StringAggregator.New"
	if op != Count {
		return nil, dberrors.Newf(dberrors.UnsupportedAggregateKind, errOp, "StringAggregator only supports COUNT, got %s", op)
	}
	return &StringAggregator{
		groupByIndex:  groupByIndex,
		groupFieldTy:  groupFieldTy,
		aggFieldIndex: aggFieldIndex,
		aggFieldName:  aggFieldName,
		groups: make(map[string]struct {
			groupValue types.Field
			count      int64
		}),
	}, nil
}

// MergeTupleIntoGroup increments the COUNT bucket for t's group.
func (a *StringAggregator) MergeTupleIntoGroup(t *tuple.Tuple) error {
	const op = "StringAggregator.MergeTupleIntoGroup"
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := t.Field(a.aggFieldIndex); err != nil {
		return dberrors.Wrap(err, op, "resolving aggregate field")
	}

	var key string
	var groupValue types.Field
	if a.groupByIndex != NoGrouping {
		f, err := t.Field(a.groupByIndex)
		if err != nil {
			return dberrors.Wrap(err, op, "resolving group field")
		}
		key, groupValue = f.String(), f
	}

	st, exists := a.groups[key]
	if !exists {
		a.order = append(a.order, key)
		st.groupValue = groupValue
	}
	st.count++
	a.groups[key] = st
	return nil
}

// GetTupleDesc returns the output schema.
func (a *StringAggregator) GetTupleDesc() *tuple.TupleDescription {
	outName := "COUNT (" + a.aggFieldName + ")"
	if a.groupByIndex == NoGrouping {
		td, _ := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{outName})
		return td
	}
	td, _ := tuple.NewTupleDesc([]types.Type{a.groupFieldTy, types.IntType}, []string{"group", outName})
	return td
}

// Iterator produces the materialized result relation.
func (a *StringAggregator) Iterator() (*ResultIterator, error) {
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
		if err := row.SetField(idx, types.NewIntField(int32(st.count))); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return NewResultIterator(td, results), nil
}
