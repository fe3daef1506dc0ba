// Package config holds the process-wide tunables the engine depends on:
// PAGE_SIZE, STRING_LEN, IO_COST_PER_PAGE, NUM_HIST_BINS, and
// BUFFER_POOL_DEFAULT_PAGES. Values are loaded through viper (so an
// embedding program can source them from a YAML file or the environment)
// and then held in atomics so tests can override them without a restart.
package config

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/spf13/viper"
)

const (
	defaultPageSize              = 4096
	defaultStringLen             = 128
	defaultIOCostPerPage         = 1000.0
	defaultNumHistBins           = 100
	defaultBufferPoolDefaultSize = 50
)

// Settings is the resolved, mutable set of process-wide options.
type Settings struct {
	pageSize              atomic.Int64
	stringLen             atomic.Int64
	ioCostPerPage         atomic.Value // float64
	numHistBins           atomic.Int64
	bufferPoolDefaultSize atomic.Int64
}

var global = Defaults()

// Defaults returns a Settings populated with the engine's stated defaults.
func Defaults() *Settings {
	s := &Settings{}
	s.pageSize.Store(defaultPageSize)
	s.stringLen.Store(defaultStringLen)
	s.ioCostPerPage.Store(defaultIOCostPerPage)
	s.numHistBins.Store(defaultNumHistBins)
	s.bufferPoolDefaultSize.Store(defaultBufferPoolDefaultSize)
	return s
}

// Global returns the process-wide Settings instance.
func Global() *Settings { return global }

// fileSettings mirrors the shape of a YAML/env config file, using the
// mapstructure-tagged struct pattern viper unmarshals into.
type fileSettings struct {
	Storage struct {
		PageSize  int `mapstructure:"page_size"`
		StringLen int `mapstructure:"string_len"`
	} `mapstructure:"storage"`
	Optimizer struct {
		IOCostPerPage float64 `mapstructure:"io_cost_per_page"`
		NumHistBins   int     `mapstructure:"num_hist_bins"`
	} `mapstructure:"optimizer"`
	BufferPool struct {
		DefaultPages int `mapstructure:"default_pages"`
	} `mapstructure:"buffer_pool"`
}

// Load reads settings from a YAML config file at path, falling back to
// the built-in defaults for any field the file omits. Environment variables with
// the GOPHERBASE_ prefix (e.g. GOPHERBASE_STORAGE_PAGE_SIZE) override the
// file, via viper's env binding.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("GOPHERBASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		"storage.page_size", "storage.string_len",
		"optimizer.io_cost_per_page", "optimizer.num_hist_bins",
		"buffer_pool.default_pages",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", key, err)
		}
	}

	s := Defaults()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var fs fileSettings
	if err := v.Unmarshal(&fs); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if fs.Storage.PageSize > 0 {
		s.pageSize.Store(int64(fs.Storage.PageSize))
	}
	if fs.Storage.StringLen > 0 {
		s.stringLen.Store(int64(fs.Storage.StringLen))
	}
	if fs.Optimizer.IOCostPerPage > 0 {
		s.ioCostPerPage.Store(fs.Optimizer.IOCostPerPage)
	}
	if fs.Optimizer.NumHistBins > 0 {
		s.numHistBins.Store(int64(fs.Optimizer.NumHistBins))
	}
	if fs.BufferPool.DefaultPages > 0 {
		s.bufferPoolDefaultSize.Store(int64(fs.BufferPool.DefaultPages))
	}

	return s, nil
}

// PageSize returns the configured page size in bytes.
func (s *Settings) PageSize() int { return int(s.pageSize.Load()) }

// StringLen returns the configured fixed width of a STRING field's payload.
func (s *Settings) StringLen() int { return int(s.stringLen.Load()) }

// IOCostPerPage returns the cost unit TableStats uses for scan cost.
func (s *Settings) IOCostPerPage() float64 { return s.ioCostPerPage.Load().(float64) }

// NumHistBins returns the configured histogram bucket count. This must be
// at least 100; callers that construct a histogram with a smaller count
// do so explicitly rather than through this setting.
func (s *Settings) NumHistBins() int { return int(s.numHistBins.Load()) }

// BufferPoolDefaultPages returns the default BufferPool capacity.
func (s *Settings) BufferPoolDefaultPages() int { return int(s.bufferPoolDefaultSize.Load()) }

// SetPageSize overrides the page size, for tests that need a page size
// other than 4096.
func (s *Settings) SetPageSize(n int) { s.pageSize.Store(int64(n)) }

// ResetPageSize restores the default page size.
func (s *Settings) ResetPageSize() { s.pageSize.Store(defaultPageSize) }

// SetStringLen overrides the STRING field width, for tests.
func (s *Settings) SetStringLen(n int) { s.stringLen.Store(int64(n)) }

// ResetStringLen restores the default STRING field width.
func (s *Settings) ResetStringLen() { s.stringLen.Store(defaultStringLen) }
