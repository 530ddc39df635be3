package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/core/service"
	"github.com/yndnr/snapback/pkg/serde"
)

var _ service.UnitOfWork[*domain.User] = (*Store)(nil)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("badgerstore: store closed")

// Store is a Badger backed user and snapshot store.
type Store struct {
	db     *badger.DB
	cfg    Config
	logger *slog.Logger

	users     serde.Serde[*domain.User, []byte]
	snapshots serde.Serde[*domain.Snapshot, []byte]

	lastGCTime atomic.Int64 // Unix milliseconds
	gcRuns     atomic.Uint64
	closed     atomic.Bool

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// Open opens a store with the given configuration.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.BlockCacheSize = cfg.CacheSize
	opts.ValueLogFileSize = cfg.ValueLogFileSize
	opts.NumMemtables = cfg.NumMemtables
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerstore: open db: %w", err)
	}

	s := &Store{
		db:        db,
		cfg:       cfg,
		logger:    logger,
		users:     serde.NewJSON(func() *domain.User { return new(domain.User) }),
		snapshots: serde.NewJSON(func() *domain.Snapshot { return new(domain.Snapshot) }),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}

	// Value log GC is not available in memory mode.
	if cfg.InMemory {
		close(s.doneCh)
	} else {
		go s.gcLoop()
	}

	logger.Info("badger store started",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"cache_size", cfg.CacheSize)

	return s, nil
}

// Do runs fn inside a read-write transaction. The transaction commits only
// if fn returns nil.
func (s *Store) Do(_ context.Context, fn func(service.EntityRepository[*domain.User], service.SnapshotRepository) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(s.repos(txn))
	})
}

// View runs fn inside a read-only transaction.
func (s *Store) View(_ context.Context, fn func(service.EntityRepository[*domain.User], service.SnapshotRepository) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(s.repos(txn))
	})
}

func (s *Store) repos(txn *badger.Txn) (*userRepo, *snapshotRepo) {
	return &userRepo{txn: txn, codec: s.users}, &snapshotRepo{txn: txn, codec: s.snapshots}
}

// GC runs value log garbage collection until Badger reports nothing left
// to rewrite. It returns the number of rewrite passes.
func (s *Store) GC(_ context.Context) (int, error) {
	if s.cfg.InMemory {
		return 0, nil
	}

	start := time.Now()
	passes := 0
	for {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			return passes, fmt.Errorf("badgerstore: gc: %w", err)
		}
		passes++
	}

	s.lastGCTime.Store(time.Now().UnixMilli())
	s.gcRuns.Add(1)

	s.logger.Debug("gc completed",
		"passes", passes,
		"elapsed", time.Since(start))

	return passes, nil
}

// Stats contains engine statistics.
type Stats struct {
	LSMSize      int64
	ValueLogSize int64
	LastGCTime   int64 // Unix milliseconds
	GCRuns       uint64
}

// Stats returns storage statistics.
func (s *Store) Stats() Stats {
	lsm, vlog := s.db.Size()
	return Stats{
		LSMSize:      lsm,
		ValueLogSize: vlog,
		LastGCTime:   s.lastGCTime.Load(),
		GCRuns:       s.gcRuns.Load(),
	}
}

// RegisterMetrics registers engine gauges with reg.
func (s *Store) RegisterMetrics(reg prometheus.Registerer) error {
	gauge := func(name, help string, value func(Stats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "snapback",
			Subsystem: "badger",
			Name:      name,
			Help:      help,
		}, func() float64 { return value(s.Stats()) })
	}

	collectors := []prometheus.Collector{
		gauge("lsm_size_bytes", "Badger LSM tree size in bytes",
			func(st Stats) float64 { return float64(st.LSMSize) }),
		gauge("value_log_size_bytes", "Badger value log size in bytes",
			func(st Stats) float64 { return float64(st.ValueLogSize) }),
		gauge("last_gc_timestamp_seconds", "Unix timestamp of the last value log GC",
			func(st Stats) float64 { return float64(st.LastGCTime) / 1000 }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "snapback",
			Subsystem: "badger",
			Name:      "gc_runs_total",
			Help:      "Completed value log GC runs",
		}, func() float64 { return float64(s.gcRuns.Load()) }),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("badgerstore: register metrics: %w", err)
		}
	}
	return nil
}

// Close stops background work and closes the database.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
		<-s.doneCh

		if cerr := s.db.Close(); cerr != nil {
			err = fmt.Errorf("badgerstore: close db: %w", cerr)
			return
		}
		s.logger.Info("badger store closed")
	})
	return err
}

func (s *Store) gcLoop() {
	defer close(s.doneCh)

	interval := s.cfg.GCInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.GC(context.Background()); err != nil {
				s.logger.Error("auto gc failed", "error", err)
			}
		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface. Badger's
// info output is chatty, so it is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
