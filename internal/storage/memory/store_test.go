package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/core/service"
)

func TestUserStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing user is absent, not an error", func(t *testing.T) {
		s := NewUserStore()

		u, ok, err := s.FindByIdentity(ctx, "a@x.com")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, u)
	})

	t.Run("store is insert-if-absent", func(t *testing.T) {
		s := NewUserStore()

		require.NoError(t, s.Store(ctx, domain.NewUser("a@x.com", "Ann")))
		require.NoError(t, s.Store(ctx, domain.NewUser("a@x.com", "Other")))

		u, ok, err := s.FindByIdentity(ctx, "a@x.com")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Ann", u.Name)
		assert.Equal(t, 1, s.Count())
	})

	t.Run("update replaces or inserts", func(t *testing.T) {
		s := NewUserStore()

		require.NoError(t, s.Update(ctx, domain.NewUser("a@x.com", "Ann")))
		require.NoError(t, s.Update(ctx, domain.NewUser("a@x.com", "Anna")))

		u, _, _ := s.FindByIdentity(ctx, "a@x.com")
		assert.Equal(t, "Anna", u.Name)
	})

	t.Run("invalid user is rejected", func(t *testing.T) {
		s := NewUserStore()

		err := s.Store(ctx, domain.NewUser("", "Ann"))
		assert.ErrorIs(t, err, domain.ErrUserValidation)
		assert.Zero(t, s.Count())
	})

	t.Run("list is sorted and detached", func(t *testing.T) {
		s := NewUserStore()
		for _, email := range []string{"c@x.com", "a@x.com", "b@x.com"} {
			require.NoError(t, s.Store(ctx, domain.NewUser(email, "n")))
		}

		users, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 3)
		assert.Equal(t, "a@x.com", users[0].Email)
		assert.Equal(t, "b@x.com", users[1].Email)
		assert.Equal(t, "c@x.com", users[2].Email)

		users[0].Name = "mutated"
		u, _, _ := s.FindByIdentity(ctx, "a@x.com")
		assert.Equal(t, "n", u.Name)
	})
}

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()

	t.Run("one snapshot per key", func(t *testing.T) {
		s := NewSnapshotStore()

		require.NoError(t, s.Store(ctx, domain.NewSnapshot(domain.KindUser, "a@x.com", []byte("v1"))))
		require.NoError(t, s.Store(ctx, domain.NewSnapshot(domain.KindUser, "a@x.com", []byte("v2"))))

		snap, ok, err := s.FindByEntity(ctx, domain.KindUser, "a@x.com")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("v2"), snap.Data)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("kinds do not share slots", func(t *testing.T) {
		s := NewSnapshotStore()

		require.NoError(t, s.Store(ctx, domain.NewSnapshot("user", "a", []byte("u"))))
		require.NoError(t, s.Store(ctx, domain.NewSnapshot("group", "a", []byte("g"))))

		snap, ok, _ := s.FindByEntity(ctx, "user", "a")
		require.True(t, ok)
		assert.Equal(t, []byte("u"), snap.Data)

		_, ok, _ = s.FindByEntity(ctx, "user", "b")
		assert.False(t, ok)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := NewSnapshotStore()
		key := domain.SnapshotKey{Kind: domain.KindUser, EntityID: "a@x.com"}

		require.NoError(t, s.Delete(ctx, key))
		require.NoError(t, s.Store(ctx, domain.NewSnapshot(key.Kind, key.EntityID, []byte("v"))))
		require.NoError(t, s.Delete(ctx, key))
		require.NoError(t, s.Delete(ctx, key))

		_, ok, _ := s.FindByEntity(ctx, key.Kind, key.EntityID)
		assert.False(t, ok)
	})

	t.Run("unaddressable snapshot is rejected", func(t *testing.T) {
		s := NewSnapshotStore()

		err := s.Store(ctx, &domain.Snapshot{Kind: domain.KindUser})
		assert.ErrorIs(t, err, domain.ErrSnapshotValidation)
	})

	t.Run("stored data is detached from caller", func(t *testing.T) {
		s := NewSnapshotStore()
		data := []byte("abc")

		require.NoError(t, s.Store(ctx, domain.NewSnapshot("user", "a", data)))
		data[0] = 'z'

		snap, _, _ := s.FindByEntity(ctx, "user", "a")
		assert.Equal(t, []byte("abc"), snap.Data)
	})
}

func TestStore_UnitOfWork(t *testing.T) {
	ctx := context.Background()
	s := New(WithShardCount(4))
	defer s.Close()

	err := s.Do(ctx, func(users service.EntityRepository[*domain.User], snaps service.SnapshotRepository) error {
		if err := users.Update(ctx, domain.NewUser("a@x.com", "Ann")); err != nil {
			return err
		}
		return snaps.Store(ctx, domain.NewSnapshot(domain.KindUser, "a@x.com", []byte("{}")))
	})
	require.NoError(t, err)

	err = s.View(ctx, func(users service.EntityRepository[*domain.User], snaps service.SnapshotRepository) error {
		all, err := users.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)

		n, err := snaps.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Users().Count())
}

func TestStore_FailedUnitOfWorkIsUndone(t *testing.T) {
	ctx := context.Background()
	s := New()

	prior := domain.NewSnapshot(domain.KindUser, "a@x.com", []byte(`{"email":"a@x.com","name":"Al"}`))
	other := domain.NewSnapshot(domain.KindUser, "c@x.com", []byte(`{"email":"c@x.com","name":"Cy"}`))
	require.NoError(t, s.Do(ctx, func(users service.EntityRepository[*domain.User], snaps service.SnapshotRepository) error {
		require.NoError(t, users.Store(ctx, domain.NewUser("a@x.com", "Ann")))
		require.NoError(t, snaps.Store(ctx, prior))
		return snaps.Store(ctx, other)
	}))

	errAbort := errors.New("abort")
	err := s.Do(ctx, func(users service.EntityRepository[*domain.User], snaps service.SnapshotRepository) error {
		require.NoError(t, snaps.Store(ctx, domain.NewSnapshot(domain.KindUser, "a@x.com", []byte("overwritten"))))
		require.NoError(t, users.Update(ctx, domain.NewUser("a@x.com", "Anna")))
		require.NoError(t, users.Store(ctx, domain.NewUser("b@x.com", "Bob")))
		require.NoError(t, snaps.Delete(ctx, other.Key()))
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	u, ok, err := s.Users().FindByIdentity(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ann", u.Name)

	_, ok, err = s.Users().FindByIdentity(ctx, "b@x.com")
	require.NoError(t, err)
	assert.False(t, ok, "inserted user should be removed")

	snap, ok, err := s.Snapshots().FindByEntity(ctx, domain.KindUser, "a@x.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, prior.Data, snap.Data)

	_, ok, err = s.Snapshots().FindByEntity(ctx, domain.KindUser, "c@x.com")
	require.NoError(t, err)
	assert.True(t, ok, "deleted snapshot should be restored")
}

// A snapshot written before an entity write that the store rejects must not
// survive the unit of work.
func TestStore_SnapshotWithoutEntityWriteIsUndone(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.Do(ctx, func(users service.EntityRepository[*domain.User], snaps service.SnapshotRepository) error {
		if err := snaps.Store(ctx, domain.NewSnapshot(domain.KindUser, "a@x.com", []byte("{}"))); err != nil {
			return err
		}
		return users.Update(ctx, domain.NewUser("a@x.com", strings.Repeat("n", domain.MaxNameLength+1)))
	})
	require.ErrorIs(t, err, domain.ErrUserValidation)

	n, err := s.Snapshots().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, s.Users().Count())
}
