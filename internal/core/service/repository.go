package service

import (
	"context"

	"github.com/yndnr/snapback/internal/core/domain"
)

// EntityRepository stores the current version of each entity by identity.
type EntityRepository[E domain.Entity] interface {
	// List returns all entities. Order is backend specific.
	List(ctx context.Context) ([]E, error)

	// FindByIdentity returns the entity with the given identity.
	// A missing entity is reported with ok == false, not an error.
	FindByIdentity(ctx context.Context, identity string) (entity E, ok bool, err error)

	// Store inserts e unless its identity already exists, in which case it
	// does nothing.
	Store(ctx context.Context, e E) error

	// Update replaces the entity with e's identity, inserting it if absent.
	Update(ctx context.Context, e E) error
}

// SnapshotRepository keeps at most one snapshot per (kind, entity id).
type SnapshotRepository interface {
	// Store writes snap, replacing any snapshot under the same key.
	Store(ctx context.Context, snap *domain.Snapshot) error

	// FindByEntity returns the pending snapshot for an entity.
	// A missing snapshot is reported with ok == false, not an error.
	FindByEntity(ctx context.Context, kind, entityID string) (snap *domain.Snapshot, ok bool, err error)

	// Delete removes the snapshot under key. Missing keys are ignored.
	Delete(ctx context.Context, key domain.SnapshotKey) error

	// Count returns the number of pending snapshots.
	Count(ctx context.Context) (int, error)
}

// UnitOfWork runs a function against both stores so that the writes it
// makes are applied together.
type UnitOfWork[E domain.Entity] interface {
	// Do runs fn in a read-write scope. If fn returns an error, backends
	// that support it discard every write fn made.
	Do(ctx context.Context, fn func(entities EntityRepository[E], snapshots SnapshotRepository) error) error

	// View runs fn in a read-only scope.
	View(ctx context.Context, fn func(entities EntityRepository[E], snapshots SnapshotRepository) error) error
}
