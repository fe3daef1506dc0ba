package stats

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherbase/pkg/config"
	"gopherbase/pkg/heap"
	"gopherbase/pkg/tuple"
	"gopherbase/pkg/types"
)

func newStatsTestFile(t *testing.T) (*heap.HeapFile, *tuple.TupleDescription) {
	config.Global().SetPageSize(256)
	config.Global().SetStringLen(16)
	t.Cleanup(func() {
		config.Global().ResetPageSize()
		config.Global().ResetStringLen()
	})

	td, err := tuple.NewTupleDesc([]types.Type{types.IntType, types.StringType}, []string{"id", "name"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "table.dat")
	hf, err := heap.NewHeapFile(path, td)
	require.NoError(t, err)
	t.Cleanup(func() { hf.Close() })
	return hf, td
}

// directStore is a no-cache PageStore used only to seed fixtures.
type directStore struct{ file *heap.HeapFile }

func (s directStore) GetPage(tid int64, pid heap.HeapPageID, perm heap.Permission) (*heap.HeapPage, error) {
	return s.file.ReadPage(pid)
}

// writeBack writes the pages an insert through directStore dirtied to
// disk; directStore keeps no pages, so without this the insert is lost.
func writeBack(t *testing.T, hf *heap.HeapFile, pages []*heap.HeapPage) {
	for _, p := range pages {
		require.NoError(t, hf.WritePage(p))
	}
}

func TestNewTableStatsComputesScanCostAndCardinality(t *testing.T) {
	hf, td := newStatsTestFile(t)
	store := directStore{hf}

	for i := int32(0); i < 40; i++ {
		row := tuple.NewTuple(td)
		require.NoError(t, row.SetField(0, types.NewIntField(i)))
		require.NoError(t, row.SetField(1, types.NewStringField("x")))
		pages, err := hf.InsertTuple(1, store, row)
		require.NoError(t, err)
		writeBack(t, hf, pages)
	}

	ts, err := NewTableStats(hf, 1000.0, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(40), ts.NumTuples())

	numPages, err := hf.NumPages()
	require.NoError(t, err)
	assert.InDelta(t, float64(numPages)*1000.0, ts.EstimateScanCost(), 1e-9)

	card := ts.EstimateTableCardinality(0.5)
	assert.Equal(t, int64(20), card)
}

func TestTableStatsEstimateSelectivityDelegatesToFieldHistogram(t *testing.T) {
	hf, td := newStatsTestFile(t)
	store := directStore{hf}

	for i := int32(0); i < 20; i++ {
		row := tuple.NewTuple(td)
		require.NoError(t, row.SetField(0, types.NewIntField(i)))
		require.NoError(t, row.SetField(1, types.NewStringField("row")))
		pages, err := hf.InsertTuple(1, store, row)
		require.NoError(t, err)
		writeBack(t, hf, pages)
	}

	ts, err := NewTableStats(hf, 1000.0, 10)
	require.NoError(t, err)

	sel := ts.EstimateSelectivity(0, types.Equals, types.NewIntField(5))
	assert.Greater(t, sel, 0.0)

	// field index out of range is a safe zero, not a panic.
	assert.Equal(t, 0.0, ts.EstimateSelectivity(99, types.Equals, types.NewIntField(5)))
}
