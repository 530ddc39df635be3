package memory

import (
	"context"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/core/service"
	"github.com/yndnr/snapback/pkg/cmap"
)

var _ service.SnapshotRepository = (*SnapshotStore)(nil)

// SnapshotStore holds one pending snapshot per (kind, entity id).
type SnapshotStore struct {
	snaps *cmap.Map[domain.SnapshotKey, *domain.Snapshot]
}

// NewSnapshotStore creates an empty snapshot store.
func NewSnapshotStore(opts ...cmap.Option) *SnapshotStore {
	return &SnapshotStore{
		snaps: cmap.New[domain.SnapshotKey, *domain.Snapshot](cmap.KeyHasher[domain.SnapshotKey](), opts...),
	}
}

// Store writes snap, overwriting any snapshot under the same key.
func (s *SnapshotStore) Store(_ context.Context, snap *domain.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	s.snaps.Set(snap.Key(), snap.Clone())
	return nil
}

// FindByEntity returns the pending snapshot for an entity.
func (s *SnapshotStore) FindByEntity(_ context.Context, kind, entityID string) (*domain.Snapshot, bool, error) {
	snap, ok := s.snaps.Get(domain.SnapshotKey{Kind: kind, EntityID: entityID})
	if !ok {
		return nil, false, nil
	}
	return snap.Clone(), true, nil
}

// Delete removes the snapshot under key.
func (s *SnapshotStore) Delete(_ context.Context, key domain.SnapshotKey) error {
	s.snaps.Delete(key)
	return nil
}

// Count returns the number of pending snapshots.
func (s *SnapshotStore) Count(_ context.Context) (int, error) {
	return s.snaps.Count(), nil
}
