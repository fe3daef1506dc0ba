package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherbase/pkg/tuple"
	"gopherbase/pkg/types"
)

func gradesDesc(t *testing.T) *tuple.TupleDescription {
	td, err := tuple.NewTupleDesc([]types.Type{types.StringType, types.IntType}, []string{"student", "score"})
	require.NoError(t, err)
	return td
}

func gradeRow(t *testing.T, td *tuple.TupleDescription, student string, score int32) *tuple.Tuple {
	row := tuple.NewTuple(td)
	require.NoError(t, row.SetField(0, types.NewStringField(student)))
	require.NoError(t, row.SetField(1, types.NewIntField(score)))
	return row
}

// TestIntegerAggregatorGroupedSum verifies grouped SUM aggregation over
// an INT field.
func TestIntegerAggregatorGroupedSum(t *testing.T) {
	td := gradesDesc(t)
	agg := NewIntegerAggregator(0, types.StringType, 1, "score", Sum)

	require.NoError(t, agg.MergeTupleIntoGroup(gradeRow(t, td, "ada", 10)))
	require.NoError(t, agg.MergeTupleIntoGroup(gradeRow(t, td, "ada", 20)))
	require.NoError(t, agg.MergeTupleIntoGroup(gradeRow(t, td, "grace", 5)))

	it, err := agg.Iterator()
	require.NoError(t, err)
	require.NoError(t, it.Open())
	defer it.Close()

	results := map[string]int32{}
	for {
		ok, err := it.HasNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		row, err := it.Next()
		require.NoError(t, err)
		group, _ := row.Field(0)
		val, _ := row.Field(1)
		results[group.(*types.StringField).Value] = val.(*types.IntField).Value
	}
	assert.Equal(t, int32(30), results["ada"])
	assert.Equal(t, int32(5), results["grace"])
}

func TestIntegerAggregatorUngroupedAvgTruncates(t *testing.T) {
	td := gradesDesc(t)
	agg := NewIntegerAggregator(NoGrouping, 0, 1, "score", Avg)

	require.NoError(t, agg.MergeTupleIntoGroup(gradeRow(t, td, "ada", 10)))
	require.NoError(t, agg.MergeTupleIntoGroup(gradeRow(t, td, "grace", 3)))

	it, err := agg.Iterator()
	require.NoError(t, err)
	require.NoError(t, it.Open())
	defer it.Close()

	ok, err := it.HasNext()
	require.NoError(t, err)
	require.True(t, ok)
	row, err := it.Next()
	require.NoError(t, err)
	val, _ := row.Field(0)
	assert.Equal(t, int32(6), val.(*types.IntField).Value, "(10+3)/2 truncates to 6")
}

func TestIntegerAggregatorSumCountOutputsTwoColumns(t *testing.T) {
	td := gradesDesc(t)
	agg := NewIntegerAggregator(NoGrouping, 0, 1, "score", SumCount)
	require.NoError(t, agg.MergeTupleIntoGroup(gradeRow(t, td, "ada", 10)))
	require.NoError(t, agg.MergeTupleIntoGroup(gradeRow(t, td, "grace", 5)))

	assert.Equal(t, 2, agg.GetTupleDesc().NumFields())

	it, err := agg.Iterator()
	require.NoError(t, err)
	require.NoError(t, it.Open())
	defer it.Close()

	_, err = it.HasNext()
	require.NoError(t, err)
	row, err := it.Next()
	require.NoError(t, err)
	sum, _ := row.Field(0)
	count, _ := row.Field(1)
	assert.Equal(t, int32(15), sum.(*types.IntField).Value)
	assert.Equal(t, int32(2), count.(*types.IntField).Value)
}

func TestIntegerAggregatorRejectsNonIntField(t *testing.T) {
	td := gradesDesc(t)
	agg := NewIntegerAggregator(NoGrouping, 0, 0, "student", Sum)
	err := agg.MergeTupleIntoGroup(gradeRow(t, td, "ada", 10))
	assert.Error(t, err)
}

func TestStringAggregatorOnlySupportsCount(t *testing.T) {
	_, err := NewStringAggregator(NoGrouping, 0, 0, "student", Sum)
	assert.Error(t, err)

	agg, err := NewStringAggregator(NoGrouping, 0, 0, "student", Count)
	require.NoError(t, err)
	assert.NotNil(t, agg)
}

// TestIntegerAggregatorGroupedAvgLiteralScenario verifies the exact
// scenario: rows (1,10),(1,20),(2,5),(2,15) grouped on field 0,
// averaged over field 1, yields {(1,15),(2,10)}.
func TestIntegerAggregatorGroupedAvgLiteralScenario(t *testing.T) {
	td, err := tuple.NewTupleDesc([]types.Type{types.IntType, types.IntType}, []string{"g", "v"})
	require.NoError(t, err)

	rows := [][2]int32{{1, 10}, {1, 20}, {2, 5}, {2, 15}}
	agg := NewIntegerAggregator(0, types.IntType, 1, "v", Avg)
	for _, r := range rows {
		row := tuple.NewTuple(td)
		require.NoError(t, row.SetField(0, types.NewIntField(r[0])))
		require.NoError(t, row.SetField(1, types.NewIntField(r[1])))
		require.NoError(t, agg.MergeTupleIntoGroup(row))
	}

	it, err := agg.Iterator()
	require.NoError(t, err)
	require.NoError(t, it.Open())
	defer it.Close()

	results := map[int32]int32{}
	for {
		ok, err := it.HasNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		row, err := it.Next()
		require.NoError(t, err)
		g, _ := row.Field(0)
		v, _ := row.Field(1)
		results[g.(*types.IntField).Value] = v.(*types.IntField).Value
	}
	assert.Equal(t, int32(15), results[1])
	assert.Equal(t, int32(10), results[2])
}

func TestStringAggregatorGroupedCount(t *testing.T) {
	td := gradesDesc(t)
	agg, err := NewStringAggregator(0, types.StringType, 0, "student", Count)
	require.NoError(t, err)

	require.NoError(t, agg.MergeTupleIntoGroup(gradeRow(t, td, "ada", 10)))
	require.NoError(t, agg.MergeTupleIntoGroup(gradeRow(t, td, "ada", 20)))
	require.NoError(t, agg.MergeTupleIntoGroup(gradeRow(t, td, "grace", 5)))

	it, err := agg.Iterator()
	require.NoError(t, err)
	require.NoError(t, it.Open())
	defer it.Close()

	counts := map[string]int32{}
	for {
		ok, err := it.HasNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		row, err := it.Next()
		require.NoError(t, err)
		group, _ := row.Field(0)
		val, _ := row.Field(1)
		counts[group.(*types.StringField).Value] = val.(*types.IntField).Value
	}
	assert.Equal(t, int32(2), counts["ada"])
	assert.Equal(t, int32(1), counts["grace"])
}
