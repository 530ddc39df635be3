package badgerstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/core/service"
	"github.com/yndnr/snapback/pkg/serde"
)

var (
	_ service.EntityRepository[*domain.User] = (*userRepo)(nil)
	_ service.SnapshotRepository             = (*snapshotRepo)(nil)
)

// userRepo reads and writes users inside one transaction.
type userRepo struct {
	txn   *badger.Txn
	codec serde.Serde[*domain.User, []byte]
}

func (r *userRepo) List(_ context.Context) ([]*domain.User, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = userPrefix
	it := r.txn.NewIterator(opts)
	defer it.Close()

	var users []*domain.User
	for it.Rewind(); it.Valid(); it.Next() {
		var u *domain.User
		err := it.Item().Value(func(val []byte) error {
			var err error
			u, err = r.codec.Deserialize(val)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("badgerstore: decode user %q: %w", it.Item().Key(), err)
		}
		users = append(users, u)
	}

	return users, nil
}

func (r *userRepo) FindByIdentity(_ context.Context, identity string) (*domain.User, bool, error) {
	item, err := r.txn.Get(userKey(identity))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var u *domain.User
	err = item.Value(func(val []byte) error {
		u, err = r.codec.Deserialize(val)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("badgerstore: decode user %q: %w", identity, err)
	}
	return u, true, nil
}

func (r *userRepo) Store(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	_, err := r.txn.Get(userKey(u.Email))
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, badger.ErrKeyNotFound):
		return err
	}
	return r.Update(ctx, u)
}

func (r *userRepo) Update(_ context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	data, err := r.codec.Serialize(u)
	if err != nil {
		return err
	}
	return r.txn.Set(userKey(u.Email), data)
}

// snapshotRepo reads and writes snapshots inside one transaction.
type snapshotRepo struct {
	txn   *badger.Txn
	codec serde.Serde[*domain.Snapshot, []byte]
}

func (r *snapshotRepo) Store(_ context.Context, snap *domain.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	data, err := r.codec.Serialize(snap)
	if err != nil {
		return err
	}
	return r.txn.Set(snapshotKey(snap.Key()), data)
}

func (r *snapshotRepo) FindByEntity(_ context.Context, kind, entityID string) (*domain.Snapshot, bool, error) {
	key := domain.SnapshotKey{Kind: kind, EntityID: entityID}

	item, err := r.txn.Get(snapshotKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snap *domain.Snapshot
	err = item.Value(func(val []byte) error {
		snap, err = r.codec.Deserialize(val)
		return err
	})
	if err != nil {
		// The envelope is unreadable, so the entity cannot be restored.
		return nil, false, domain.ErrSnapshotMalformed.WithDetails(key.String()).WithCause(err)
	}
	return snap, true, nil
}

func (r *snapshotRepo) Delete(_ context.Context, key domain.SnapshotKey) error {
	return r.txn.Delete(snapshotKey(key))
}

func (r *snapshotRepo) Count(_ context.Context) (int, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = snapshotPrefix
	opts.PrefetchValues = false
	it := r.txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Rewind(); it.Valid(); it.Next() {
		n++
	}
	return n, nil
}
