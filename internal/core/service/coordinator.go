package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/telemetry/logger"
	"github.com/yndnr/snapback/internal/telemetry/metric"
	"github.com/yndnr/snapback/internal/telemetry/tracer"
	"github.com/yndnr/snapback/pkg/crypto/adaptive"
	"github.com/yndnr/snapback/pkg/keylock"
	"github.com/yndnr/snapback/pkg/serde"
)

// Codec turns entities into snapshot bytes and back.
type Codec[E any] serde.Serde[E, []byte]

// Coordinator captures the prior version of an entity before every update
// and restores it on rollback. It is the only component that writes to both
// the entity store and the snapshot store.
//
// Update and Rollback are serialized per identity.
type Coordinator[E domain.Entity] struct {
	kind    string
	uow     UnitOfWork[E]
	codec   Codec[E]
	locks   *keylock.Locker
	logger  logger.Logger
	metrics *metric.Registry
}

type coordinatorOptions struct {
	locks   *keylock.Locker
	logger  logger.Logger
	metrics *metric.Registry
	cipher  adaptive.Cipher
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*coordinatorOptions)

// WithLocker shares a Locker between coordinators.
func WithLocker(l *keylock.Locker) CoordinatorOption {
	return func(o *coordinatorOptions) {
		o.locks = l
	}
}

// WithLogger sets the coordinator logger.
func WithLogger(l logger.Logger) CoordinatorOption {
	return func(o *coordinatorOptions) {
		o.logger = l
	}
}

// WithMetrics records protocol metrics on r.
func WithMetrics(r *metric.Registry) CoordinatorOption {
	return func(o *coordinatorOptions) {
		o.metrics = r
	}
}

// NewCoordinator creates a Coordinator for entities of the given kind.
func NewCoordinator[E domain.Entity](kind string, uow UnitOfWork[E], codec Codec[E], opts ...CoordinatorOption) *Coordinator[E] {
	o := coordinatorOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.locks == nil {
		o.locks = keylock.New(keylock.DefaultStripes)
	}
	if o.logger == nil {
		o.logger = logger.Default()
	}
	if o.cipher != nil {
		codec = sealCodec(codec, o.cipher, []byte(kind))
	}

	return &Coordinator[E]{
		kind:    kind,
		uow:     uow,
		codec:   codec,
		locks:   o.locks,
		logger:  o.logger.With("kind", kind),
		metrics: o.metrics,
	}
}

// Kind returns the entity kind this coordinator manages.
func (c *Coordinator[E]) Kind() string {
	return c.kind
}

// Create stores e if its identity is new. Creating an existing identity is
// a no-op, and no snapshot is ever written.
func (c *Coordinator[E]) Create(ctx context.Context, e E) (err error) {
	ctx, span := tracer.StartSpan(ctx, "Coordinator.Create", attribute.String("entity.kind", c.kind))
	defer func() { tracer.EndSpan(span, err) }()

	if err := validate(e); err != nil {
		return err
	}

	unlock := c.locks.Lock(e.Identity())
	defer unlock()

	err = c.uow.Do(ctx, func(entities EntityRepository[E], _ SnapshotRepository) error {
		return entities.Store(ctx, e)
	})
	if err != nil {
		return storageError(err)
	}

	c.recordMutation("create")
	return nil
}

// Update snapshots the current version of e's identity, if one exists, and
// then writes e. Any earlier pending snapshot is overwritten.
func (c *Coordinator[E]) Update(ctx context.Context, e E) (err error) {
	ctx, span := tracer.StartSpan(ctx, "Coordinator.Update", attribute.String("entity.kind", c.kind))
	defer func() { tracer.EndSpan(span, err) }()

	if err := validate(e); err != nil {
		return err
	}

	unlock := c.locks.Lock(e.Identity())
	defer unlock()

	var captured *domain.Snapshot
	err = c.uow.Do(ctx, func(entities EntityRepository[E], snapshots SnapshotRepository) error {
		var err error
		captured, err = c.mutate(ctx, entities, snapshots, e)
		return err
	})
	if err != nil {
		return storageError(err)
	}

	c.recordMutation("update")
	if captured != nil {
		c.log(ctx).Debug("snapshot captured",
			"entity_id", e.Identity(),
			"capture_id", captured.CaptureID)
	}
	return nil
}

// Rollback restores the pending snapshot of identity.
//
// The snapshot value is applied as an ordinary update, which snapshots the
// version being replaced, and then the snapshot slot is cleared. Rolling
// back twice in a row therefore leaves the second call with nothing to do.
// A missing snapshot is not an error.
func (c *Coordinator[E]) Rollback(ctx context.Context, identity string) (err error) {
	ctx, span := tracer.StartSpan(ctx, "Coordinator.Rollback", attribute.String("entity.kind", c.kind))
	defer func() { tracer.EndSpan(span, err) }()

	unlock := c.locks.Lock(identity)
	defer unlock()

	var consumed *domain.Snapshot
	err = c.uow.Do(ctx, func(entities EntityRepository[E], snapshots SnapshotRepository) error {
		snap, ok, err := snapshots.FindByEntity(ctx, c.kind, identity)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		restored, err := c.restore(snap, identity)
		if err != nil {
			return err
		}

		if _, err := c.mutate(ctx, entities, snapshots, restored); err != nil {
			return err
		}

		if err := snapshots.Delete(ctx, snap.Key()); err != nil {
			return err
		}

		consumed = snap
		return nil
	})

	switch {
	case errors.Is(err, domain.ErrSnapshotMalformed):
		c.recordRollback(metric.RollbackMalformed)
		c.log(ctx).Warn("rollback failed, snapshot is malformed", "entity_id", identity, "error", err)
		return err
	case err != nil:
		c.recordRollback(metric.RollbackError)
		return storageError(err)
	case consumed == nil:
		c.recordRollback(metric.RollbackNoop)
		c.log(ctx).Debug("rollback skipped, no snapshot", "entity_id", identity)
		return nil
	}

	c.recordRollback(metric.RollbackRestored)
	c.log(ctx).Info("entity rolled back",
		"entity_id", identity,
		"capture_id", consumed.CaptureID,
		"captured_at", consumed.CapturedAtTime())
	return nil
}

// List returns every stored entity.
func (c *Coordinator[E]) List(ctx context.Context) (result []E, err error) {
	ctx, span := tracer.StartSpan(ctx, "Coordinator.List", attribute.String("entity.kind", c.kind))
	defer func() { tracer.EndSpan(span, err) }()

	err = c.uow.View(ctx, func(entities EntityRepository[E], _ SnapshotRepository) error {
		var err error
		result, err = entities.List(ctx)
		return err
	})
	if err != nil {
		return nil, storageError(err)
	}
	return result, nil
}

// Stats reports how many entities exist and how many snapshots are pending.
func (c *Coordinator[E]) Stats(ctx context.Context) (metric.StoreStats, error) {
	var stats metric.StoreStats
	err := c.uow.View(ctx, func(entities EntityRepository[E], snapshots SnapshotRepository) error {
		all, err := entities.List(ctx)
		if err != nil {
			return err
		}
		stats.Entities = len(all)

		stats.PendingSnapshots, err = snapshots.Count(ctx)
		return err
	})
	if err != nil {
		return metric.StoreStats{}, storageError(err)
	}
	return stats, nil
}

// mutate is the single write path: capture the current version, if any,
// then apply e. It returns the captured snapshot.
func (c *Coordinator[E]) mutate(ctx context.Context, entities EntityRepository[E], snapshots SnapshotRepository, e E) (*domain.Snapshot, error) {
	current, ok, err := entities.FindByIdentity(ctx, e.Identity())
	if err != nil {
		return nil, err
	}

	var snap *domain.Snapshot
	if ok {
		data, err := c.codec.Serialize(current)
		if err != nil {
			return nil, domain.ErrInternalServer.WithDetails("serialize snapshot").WithCause(err)
		}

		snap = domain.NewSnapshot(c.kind, e.Identity(), data)
		if err := snapshots.Store(ctx, snap); err != nil {
			return nil, err
		}
		c.recordCapture()
	}

	if err := entities.Update(ctx, e); err != nil {
		return nil, err
	}
	return snap, nil
}

// restore decodes a snapshot back into an entity and checks it belongs to
// the identity being rolled back.
func (c *Coordinator[E]) restore(snap *domain.Snapshot, identity string) (E, error) {
	var zero E

	e, err := c.codec.Deserialize(snap.Data)
	if err != nil {
		return zero, domain.ErrSnapshotMalformed.WithDetails(snap.Key().String()).WithCause(err)
	}

	if got := e.Identity(); got != identity {
		return zero, domain.ErrSnapshotMalformed.WithDetails("identity mismatch for " + snap.Key().String())
	}

	if err := validate(e); err != nil {
		return zero, domain.ErrSnapshotMalformed.WithDetails(snap.Key().String()).WithCause(err)
	}

	return e, nil
}

func (c *Coordinator[E]) log(ctx context.Context) logger.Logger {
	l := c.logger
	if id := logger.RequestIDFromContext(ctx); id != "" {
		l = l.With("request_id", id)
	}
	return l.WithContext(ctx)
}

func (c *Coordinator[E]) recordMutation(op string) {
	if c.metrics != nil {
		c.metrics.RecordMutation(c.kind, op)
	}
}

func (c *Coordinator[E]) recordCapture() {
	if c.metrics != nil {
		c.metrics.IncSnapshotCaptured(c.kind)
	}
}

func (c *Coordinator[E]) recordRollback(result string) {
	if c.metrics != nil {
		c.metrics.RecordRollback(c.kind, result)
	}
}

type validator interface {
	Validate() error
}

func validate(e any) error {
	if v, ok := e.(validator); ok {
		return v.Validate()
	}
	return nil
}

// storageError keeps domain errors intact and wraps anything else.
func storageError(err error) error {
	if domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}
