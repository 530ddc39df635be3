package memory

import (
	"context"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/core/service"
	"github.com/yndnr/snapback/pkg/cmap"
)

var _ service.UnitOfWork[*domain.User] = (*Store)(nil)

// Store pairs a UserStore with a SnapshotStore.
type Store struct {
	users     *UserStore
	snapshots *SnapshotStore
}

type options struct {
	shards int
}

// Option configures the Store.
type Option func(*options)

// WithShardCount sets the number of shards in each map.
func WithShardCount(n int) Option {
	return func(o *options) {
		o.shards = n
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	o := options{shards: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}

	return &Store{
		users:     NewUserStore(cmap.WithShardCount(o.shards)),
		snapshots: NewSnapshotStore(cmap.WithShardCount(o.shards)),
	}
}

// Users returns the user store.
func (s *Store) Users() *UserStore {
	return s.users
}

// Snapshots returns the snapshot store.
func (s *Store) Snapshots() *SnapshotStore {
	return s.snapshots
}

// Do runs fn against both stores. If fn returns an error, every write it
// made is undone before Do returns.
//
// Undo restores the values seen at write time, so concurrent writers to the
// same keys must be excluded by the caller.
func (s *Store) Do(_ context.Context, fn func(service.EntityRepository[*domain.User], service.SnapshotRepository) error) error {
	j := &journal{}
	if err := fn(txUsers{s.users, j}, txSnapshots{s.snapshots, j}); err != nil {
		j.rollback()
		return err
	}
	return nil
}

// View runs fn against both stores.
func (s *Store) View(_ context.Context, fn func(service.EntityRepository[*domain.User], service.SnapshotRepository) error) error {
	return fn(s.users, s.snapshots)
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
