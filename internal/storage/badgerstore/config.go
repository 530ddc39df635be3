package badgerstore

import (
	"errors"
	"time"
)

// Config contains Badger tuning parameters.
type Config struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory. Default: true
	InMemory bool

	// GCInterval is the interval between value log GC runs. Default: 10m
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC. Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes. Default: 64MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes. Default: 256MB
	ValueLogFileSize int64

	// NumMemtables is the number of memtables. Default: 2
	NumMemtables int

	// SyncWrites fsyncs after each commit. Default: false
	SyncWrites bool
}

// DefaultConfig returns an in-memory configuration.
func DefaultConfig() Config {
	return Config{
		InMemory:         true,
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        64 << 20,
		ValueLogFileSize: 256 << 20,
		NumMemtables:     2,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !c.InMemory && c.Dir == "" {
		return errors.New("badgerstore: dir is required unless in_memory is set")
	}
	if c.GCThreshold <= 0 || c.GCThreshold >= 1 {
		return errors.New("badgerstore: gc_threshold must be between 0 and 1")
	}
	return nil
}
