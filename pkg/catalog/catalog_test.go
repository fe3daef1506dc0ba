package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/heap"
	"gopherbase/pkg/tuple"
	"gopherbase/pkg/types"
)

func newTestHeapFile(t *testing.T, name string) *heap.HeapFile {
	td, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"id"})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name+".dat")
	hf, err := heap.NewHeapFile(path, td)
	require.NoError(t, err)
	t.Cleanup(func() { hf.Close() })
	return hf
}

func TestCatalogAddAndLookup(t *testing.T) {
	c := New()
	hf := newTestHeapFile(t, "people")
	c.AddTable(hf, "people", "id")

	id, err := c.GetTableID("people")
	require.NoError(t, err)
	assert.Equal(t, hf.GetID(), id)

	name, err := c.GetTableName(id)
	require.NoError(t, err)
	assert.Equal(t, "people", name)

	pk, err := c.GetPrimaryKey(id)
	require.NoError(t, err)
	assert.Equal(t, "id", pk)

	file, err := c.GetFile(id)
	require.NoError(t, err)
	assert.Same(t, heap.DbFile(hf), file)
}

func TestCatalogLookupMissingIsNoSuchElement(t *testing.T) {
	c := New()
	_, err := c.GetTableID("missing")
	assert.Error(t, err)
	assert.True(t, dberrors.Is(err, dberrors.NoSuchElementKind))
}

// TestCatalogAddTableLastWriteWins verifies re-registering a
// name under a different table id evicts the old id's entry entirely.
func TestCatalogAddTableLastWriteWins(t *testing.T) {
	c := New()
	first := newTestHeapFile(t, "people")
	c.AddTable(first, "people", "id")

	second := newTestHeapFile(t, "people2")
	c.AddTable(second, "people", "id")

	_, err := c.GetFile(first.GetID())
	assert.Error(t, err, "old id must be evicted once its name is reassigned")

	id, err := c.GetTableID("people")
	require.NoError(t, err)
	assert.Equal(t, second.GetID(), id)
}

func TestCatalogClear(t *testing.T) {
	c := New()
	c.AddTable(newTestHeapFile(t, "people"), "people", "id")
	c.Clear()
	assert.Empty(t, c.TableIDs())
}

func TestLoadFileParsesCatalogFormat(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.txt")
	contents := "people (id int pk, name string)\norders (order_id int pk, buyer string)\n"
	require.NoError(t, os.WriteFile(catalogPath, []byte(contents), 0644))

	c := New()
	require.NoError(t, c.LoadFile(catalogPath))

	peopleID, err := c.GetTableID("people")
	require.NoError(t, err)
	pk, err := c.GetPrimaryKey(peopleID)
	require.NoError(t, err)
	assert.Equal(t, "id", pk)

	file, err := c.GetFile(peopleID)
	require.NoError(t, err)
	td := file.GetTupleDesc()
	assert.Equal(t, 2, td.NumFields())
	name0, _ := td.FieldName(0)
	assert.Equal(t, "id", name0)

	ordersID, err := c.GetTableID("orders")
	require.NoError(t, err)
	assert.NotEqual(t, peopleID, ordersID)
}

func TestLoadFileRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.txt")
	require.NoError(t, os.WriteFile(catalogPath, []byte("not a valid line\n"), 0644))

	c := New()
	err := c.LoadFile(catalogPath)
	assert.Error(t, err)
}
