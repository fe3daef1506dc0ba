// Package logging provides a process-wide structured logger for gopherbase.
//
// The package wraps [log/slog] and exposes a single global logger instance,
// initialized lazily and safe for concurrent use, so every subsystem logs
// through one place rather than constructing its own slog.Logger.
package logging

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

var (
	once    sync.Once
	current atomic.Pointer[slog.Logger]
)

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// GetLogger returns the process-wide logger, initializing it with a
// text handler at Info level on first use.
func GetLogger() *slog.Logger {
	once.Do(func() {
		current.Store(defaultLogger())
	})
	return current.Load()
}

// SetLogger replaces the process-wide logger. Intended for tests and for
// embedding programs that want JSON output or a different level.
func SetLogger(l *slog.Logger) {
	once.Do(func() {})
	current.Store(l)
}

// WithTx returns a logger annotated with a transaction id.
func WithTx(txID int64) *slog.Logger {
	return GetLogger().With("tx_id", txID)
}

// WithTable returns a logger annotated with a table name.
func WithTable(tableName string) *slog.Logger {
	return GetLogger().With("table", tableName)
}

// WithPage returns a logger annotated with a page identity.
func WithPage(tableID, pageNo int) *slog.Logger {
	return GetLogger().With("table_id", tableID, "page_no", pageNo)
}

// WithComponent returns a logger annotated with a subsystem name.
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithError returns a logger annotated with a structured error field.
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
