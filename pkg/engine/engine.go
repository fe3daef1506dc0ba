// Package engine bundles the Catalog and BufferPool into one context
// passed explicitly to operators, rather than reaching for global
// mutable state via package-level singletons.
package engine

import (
	"gopherbase/pkg/catalog"
	"gopherbase/pkg/config"
	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/heap"
	"gopherbase/pkg/memory"
	"gopherbase/pkg/stats"
	"gopherbase/pkg/txn"
)

// Engine is the process-level context every operator and buffer-pool
// caller is handed explicitly instead of reaching for package-level
// state.
type Engine struct {
	Catalog     *catalog.Catalog
	BufferPool  *memory.BufferPool
	StatsCache  *stats.Cache
	Settings    *config.Settings
}

// Option configures a new Engine.
type Option func(*engineConfig)

type engineConfig struct {
	bufferPoolPages int
	statsCachePath  string
}

// WithBufferPoolPages overrides BUFFER_POOL_DEFAULT_PAGES for this engine.
func WithBufferPoolPages(n int) Option {
	return func(c *engineConfig) { c.bufferPoolPages = n }
}

// WithStatsCachePath sets where the persisted statistics cache is
// loaded from and saved to.
func WithStatsCachePath(path string) Option {
	return func(c *engineConfig) { c.statsCachePath = path }
}

// New constructs an Engine with an empty Catalog and a BufferPool sized
// per config (or an override).
func New(opts ...Option) *Engine {
	settings := config.Global()
	cfg := &engineConfig{
		bufferPoolPages: settings.BufferPoolDefaultPages(),
		statsCachePath:  "gopherbase_stats.cache",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	cat := catalog.New()
	return &Engine{
		Catalog:    cat,
		BufferPool: memory.NewBufferPool(cfg.bufferPoolPages, cat),
		StatsCache: stats.NewCache(cfg.statsCachePath),
		Settings:   settings,
	}
}

// LoadCatalogFile loads table definitions from a text catalog file.
func (e *Engine) LoadCatalogFile(path string) error {
	return e.Catalog.LoadFile(path)
}

// NewTransaction allocates a fresh transaction token for use with
// GetPage/InsertTuple/DeleteTuple.
func (e *Engine) NewTransaction() txn.TransactionID {
	return txn.New()
}

// ComputeStats scans tableID's file and installs freshly computed
// TableStats into the stats cache.
func (e *Engine) ComputeStats(tableID int) error {
	const op = "Engine.ComputeStats"
	dbFile, err := e.Catalog.GetFile(tableID)
	if err != nil {
		return dberrors.Wrap(err, op, "resolving table file")
	}
	hf, ok := dbFile.(*heap.HeapFile)
	if !ok {
		return dberrors.New(dberrors.DbErrorKind, op, "table file is not a HeapFile")
	}
	ts, err := stats.NewTableStats(hf, e.Settings.IOCostPerPage(), e.Settings.NumHistBins())
	if err != nil {
		return dberrors.Wrap(err, op, "computing statistics")
	}
	e.StatsCache.Put(tableID, ts)
	return nil
}

// Close flushes every dirty page and persists the statistics cache.
func (e *Engine) Close() error {
	const op = "Engine.Close"
	if err := e.BufferPool.FlushAll(); err != nil {
		return dberrors.Wrap(err, op, "flushing buffer pool")
	}
	if err := e.StatsCache.Save(); err != nil {
		return dberrors.Wrap(err, op, "saving statistics cache")
	}
	return nil
}
