package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/core/service"
	"github.com/yndnr/snapback/internal/storage/badgerstore"
	"github.com/yndnr/snapback/internal/storage/memory"
)

// Engine names.
const (
	EngineMemory = "memory"
	EngineBadger = "badger"
)

// Engine is an opened storage backend.
type Engine interface {
	service.UnitOfWork[*domain.User]

	// Name returns the engine name.
	Name() string

	// Close releases the backend.
	Close() error
}

// Config configures the storage engine.
type Config struct {
	// Engine is "memory" or "badger".
	Engine string

	// Shards is the memory engine shard count.
	Shards int

	// Badger configures the badger engine.
	Badger badgerstore.Config

	// Logger is the structured logger.
	Logger *slog.Logger

	// Metrics receives engine collectors when set.
	Metrics prometheus.Registerer
}

// Open opens the engine named in cfg.
func Open(cfg Config) (Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	switch cfg.Engine {
	case "", EngineMemory:
		var opts []memory.Option
		if cfg.Shards > 0 {
			opts = append(opts, memory.WithShardCount(cfg.Shards))
		}
		return &memoryEngine{Store: memory.New(opts...)}, nil

	case EngineBadger:
		s, err := badgerstore.Open(cfg.Badger, cfg.Logger.With("component", "badger"))
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		if cfg.Metrics != nil {
			if err := s.RegisterMetrics(cfg.Metrics); err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("storage: %w", err)
			}
		}
		return &badgerEngine{Store: s}, nil

	default:
		return nil, fmt.Errorf("storage: unknown engine %q", cfg.Engine)
	}
}

type memoryEngine struct {
	*memory.Store
}

func (*memoryEngine) Name() string { return EngineMemory }

type badgerEngine struct {
	*badgerstore.Store
}

func (*badgerEngine) Name() string { return EngineBadger }

// Ping checks that the engine can serve a read.
func Ping(ctx context.Context, e Engine) error {
	return e.View(ctx, func(service.EntityRepository[*domain.User], service.SnapshotRepository) error {
		return nil
	})
}
