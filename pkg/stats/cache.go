package stats

import (
	"os"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/logging"
)

// snapshot is the on-disk, msgpack-encoded shape of a Cache: TableStats
// is rebuilt cheaply enough from bucket counts alone that we persist just
// the derived numbers, not the source tuples.
type snapshot struct {
	TableID       int              `msgpack:"table_id"`
	IOCostPerPage float64          `msgpack:"io_cost_per_page"`
	NumPages      int              `msgpack:"num_pages"`
	NumTuples     int64            `msgpack:"num_tuples"`
	IntFields     map[int]intBlob  `msgpack:"int_fields"`
	StrFields     map[int]strBlob  `msgpack:"str_fields"`
}

type intBlob struct {
	Buckets []int64 `msgpack:"buckets"`
	Min     int32   `msgpack:"min"`
	Max     int32   `msgpack:"max"`
	Delta   int32   `msgpack:"delta"`
	Total   int64   `msgpack:"total"`
}

type strBlob struct {
	Buckets []int64 `msgpack:"buckets"`
	Delta   int32   `msgpack:"delta"`
	Total   int64   `msgpack:"total"`
}

// Cache is a process-wide, msgpack-persisted store of TableStats, so an
// embedding program does not have to re-scan every table on every
// restart.
type Cache struct {
	mu   sync.RWMutex
	path string
	byID map[int]*TableStats
}

// NewCache constructs an empty Cache backed by path (used by Save/Load).
func NewCache(path string) *Cache {
	return &Cache{path: path, byID: make(map[int]*TableStats)}
}

// Put registers stats for a table id, replacing any existing entry.
func (c *Cache) Put(tableID int, stats *TableStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[tableID] = stats
}

// Get returns the cached stats for a table id, if present.
func (c *Cache) Get(tableID int) (*TableStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ts, ok := c.byID[tableID]
	return ts, ok
}

// Save serializes every cached TableStats to c.path via msgpack.
func (c *Cache) Save() error {
	const op = "stats.Cache.Save"
	c.mu.RLock()
	snapshots := make([]snapshot, 0, len(c.byID))
	for id, ts := range c.byID {
		snapshots = append(snapshots, toSnapshot(id, ts))
	}
	c.mu.RUnlock()

	data, err := msgpack.Marshal(snapshots)
	if err != nil {
		return dberrors.Wrap(err, op, "encoding snapshots")
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return dberrors.Wrap(err, op, "writing cache file")
	}
	logging.WithComponent("stats.cache").Info("saved statistics cache", "tables", len(snapshots), "path", c.path)
	return nil
}

// Load populates the cache from c.path, replacing any conflicting entries.
func (c *Cache) Load() error {
	const op = "stats.Cache.Load"
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return dberrors.Wrap(err, op, "reading cache file")
	}

	var snapshots []snapshot
	if err := msgpack.Unmarshal(data, &snapshots); err != nil {
		return dberrors.Wrap(err, op, "decoding snapshots")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, snap := range snapshots {
		c.byID[snap.TableID] = fromSnapshot(snap)
	}
	return nil
}

func toSnapshot(tableID int, ts *TableStats) snapshot {
	snap := snapshot{
		TableID:       tableID,
		IOCostPerPage: ts.ioCostPerPage,
		NumPages:      ts.numPages,
		NumTuples:     ts.numTuples,
		IntFields:     make(map[int]intBlob),
		StrFields:     make(map[int]strBlob),
	}
	for i, h := range ts.histograms {
		switch fh := h.(type) {
		case intFieldHistogram:
			snap.IntFields[i] = intBlob{
				Buckets: append([]int64(nil), fh.h.buckets...),
				Min:     fh.h.min,
				Max:     fh.h.max,
				Delta:   fh.h.delta,
				Total:   fh.h.total,
			}
		case stringFieldHistogram:
			snap.StrFields[i] = strBlob{
				Buckets: append([]int64(nil), fh.h.inner.buckets...),
				Delta:   fh.h.inner.delta,
				Total:   fh.h.inner.total,
			}
		}
	}
	return snap
}

func fromSnapshot(snap snapshot) *TableStats {
	maxIndex := -1
	for i := range snap.IntFields {
		if i > maxIndex {
			maxIndex = i
		}
	}
	for i := range snap.StrFields {
		if i > maxIndex {
			maxIndex = i
		}
	}

	histograms := make([]fieldHistogram, maxIndex+1)
	for i, blob := range snap.IntFields {
		histograms[i] = intFieldHistogram{h: &IntHistogram{
			buckets:    blob.Buckets,
			min:        blob.Min,
			max:        blob.Max,
			delta:      blob.Delta,
			numBuckets: len(blob.Buckets),
			total:      blob.Total,
		}}
	}
	for i, blob := range snap.StrFields {
		histograms[i] = stringFieldHistogram{h: &StringHistogram{inner: &IntHistogram{
			buckets:    blob.Buckets,
			min:        -stringHistogramBound,
			max:        stringHistogramBound,
			delta:      blob.Delta,
			numBuckets: len(blob.Buckets),
			total:      blob.Total,
		}}}
	}

	return &TableStats{
		tableID:       snap.TableID,
		ioCostPerPage: snap.IOCostPerPage,
		numPages:      snap.NumPages,
		numTuples:     snap.NumTuples,
		histograms:    histograms,
	}
}
