// Package servicetest holds the behavioural suite every user storage
// backend must pass when driven through service.UserService.
package servicetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/core/service"
	"github.com/yndnr/snapback/internal/telemetry/logger"
)

// Factory builds a fresh, empty backend for one subtest.
type Factory func(t *testing.T) service.UnitOfWork[*domain.User]

// UserService returns an executable suite running the rollback protocol
// against the backend produced by newStore. opts are passed to every
// service the suite builds.
func UserService(newStore Factory, opts ...service.CoordinatorOption) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()

		setup := func(t *testing.T) (*service.UserService, service.UnitOfWork[*domain.User]) {
			uow := newStore(t)
			svcOpts := append([]service.CoordinatorOption{service.WithLogger(logger.Nop())}, opts...)
			return service.NewUserService(uow, svcOpts...), uow
		}

		t.Run("create is idempotent and never snapshots", func(t *testing.T) {
			svc, uow := setup(t)

			require.NoError(t, svc.CreateUser(ctx, domain.NewUser("a@x.com", "Ann")))
			require.NoError(t, svc.CreateUser(ctx, domain.NewUser("a@x.com", "Someone else")))

			assertUsers(t, svc, domain.NewUser("a@x.com", "Ann"))
			assert.Zero(t, pending(t, uow))
		})

		t.Run("update then rollback restores the prior value", func(t *testing.T) {
			svc, _ := setup(t)

			require.NoError(t, svc.CreateUser(ctx, domain.NewUser("a@x.com", "Ann")))
			require.NoError(t, svc.UpdateUser(ctx, domain.NewUser("a@x.com", "Anna")))
			require.NoError(t, svc.RollbackUser(ctx, "a@x.com"))

			assertUsers(t, svc, domain.NewUser("a@x.com", "Ann"))
		})

		t.Run("only the most recent prior value is kept", func(t *testing.T) {
			svc, uow := setup(t)

			require.NoError(t, svc.CreateUser(ctx, domain.NewUser("a@x.com", "v1")))
			require.NoError(t, svc.UpdateUser(ctx, domain.NewUser("a@x.com", "v2")))
			require.NoError(t, svc.UpdateUser(ctx, domain.NewUser("a@x.com", "v3")))
			assert.Equal(t, 1, pending(t, uow))

			require.NoError(t, svc.RollbackUser(ctx, "a@x.com"))
			assertUsers(t, svc, domain.NewUser("a@x.com", "v2"))

			require.NoError(t, svc.RollbackUser(ctx, "a@x.com"))
			assertUsers(t, svc, domain.NewUser("a@x.com", "v2"))
		})

		t.Run("a snapshot is consumed by its rollback", func(t *testing.T) {
			svc, uow := setup(t)

			require.NoError(t, svc.CreateUser(ctx, domain.NewUser("a@x.com", "Ann")))
			require.NoError(t, svc.UpdateUser(ctx, domain.NewUser("a@x.com", "Anna")))
			require.NoError(t, svc.RollbackUser(ctx, "a@x.com"))

			assert.Zero(t, pending(t, uow))

			require.NoError(t, svc.RollbackUser(ctx, "a@x.com"))
			assertUsers(t, svc, domain.NewUser("a@x.com", "Ann"))
		})

		t.Run("rollback without history is a no-op", func(t *testing.T) {
			svc, uow := setup(t)

			require.NoError(t, svc.RollbackUser(ctx, "nobody@x.com"))
			assertUsers(t, svc)

			require.NoError(t, svc.CreateUser(ctx, domain.NewUser("a@x.com", "Ann")))
			require.NoError(t, svc.RollbackUser(ctx, "a@x.com"))
			assertUsers(t, svc, domain.NewUser("a@x.com", "Ann"))
			assert.Zero(t, pending(t, uow))
		})

		t.Run("update of an unknown user inserts without a snapshot", func(t *testing.T) {
			svc, uow := setup(t)

			require.NoError(t, svc.UpdateUser(ctx, domain.NewUser("a@x.com", "Ann")))

			assertUsers(t, svc, domain.NewUser("a@x.com", "Ann"))
			assert.Zero(t, pending(t, uow))
		})

		t.Run("rollback keeps identity and leaves other users alone", func(t *testing.T) {
			svc, _ := setup(t)

			require.NoError(t, svc.CreateUser(ctx, domain.NewUser("a@x.com", "Ann")))
			require.NoError(t, svc.CreateUser(ctx, domain.NewUser("b@x.com", "Bob")))
			require.NoError(t, svc.UpdateUser(ctx, domain.NewUser("a@x.com", "Anna")))
			require.NoError(t, svc.UpdateUser(ctx, domain.NewUser("b@x.com", "Bobby")))

			require.NoError(t, svc.RollbackUser(ctx, "a@x.com"))

			assertUsers(t, svc,
				domain.NewUser("a@x.com", "Ann"),
				domain.NewUser("b@x.com", "Bobby"),
			)
		})

		t.Run("Ann becomes Anna and back", func(t *testing.T) {
			svc, _ := setup(t)

			require.NoError(t, svc.CreateUser(ctx, domain.NewUser("a@x.com", "Ann")))
			assertUsers(t, svc, domain.NewUser("a@x.com", "Ann"))

			require.NoError(t, svc.UpdateUser(ctx, domain.NewUser("a@x.com", "Anna")))
			assertUsers(t, svc, domain.NewUser("a@x.com", "Anna"))

			require.NoError(t, svc.RollbackUser(ctx, "a@x.com"))
			assertUsers(t, svc, domain.NewUser("a@x.com", "Ann"))

			require.NoError(t, svc.RollbackUser(ctx, "a@x.com"))
			assertUsers(t, svc, domain.NewUser("a@x.com", "Ann"))
		})

		t.Run("update after rollback snapshots the restored value", func(t *testing.T) {
			svc, _ := setup(t)

			require.NoError(t, svc.CreateUser(ctx, domain.NewUser("a@x.com", "Ann")))
			require.NoError(t, svc.UpdateUser(ctx, domain.NewUser("a@x.com", "Anna")))
			require.NoError(t, svc.RollbackUser(ctx, "a@x.com"))
			require.NoError(t, svc.UpdateUser(ctx, domain.NewUser("a@x.com", "Annie")))
			require.NoError(t, svc.RollbackUser(ctx, "a@x.com"))

			assertUsers(t, svc, domain.NewUser("a@x.com", "Ann"))
		})

		malformed := []struct {
			name string
			data string
		}{
			{"undecodable data", `{"email":`},
			{"json null", `null`},
			{"identity mismatch", `{"email":"b@x.com","name":"Bob"}`},
			{"missing identity", `{"name":"Ann"}`},
		}
		for _, tc := range malformed {
			t.Run("malformed snapshot: "+tc.name, func(t *testing.T) {
				svc, uow := setup(t)

				require.NoError(t, svc.CreateUser(ctx, domain.NewUser("a@x.com", "Ann")))
				inject(t, uow, domain.NewSnapshot(domain.KindUser, "a@x.com", []byte(tc.data)))

				err := svc.RollbackUser(ctx, "a@x.com")
				assert.ErrorIs(t, err, domain.ErrSnapshotMalformed)

				assertUsers(t, svc, domain.NewUser("a@x.com", "Ann"))
			})
		}

		t.Run("concurrent updates keep the immediately preceding value", func(t *testing.T) {
			svc, uow := setup(t)
			require.NoError(t, svc.CreateUser(ctx, domain.NewUser("a@x.com", "start")))

			var g errgroup.Group
			for i := 0; i < 32; i++ {
				name := fmt.Sprintf("writer-%02d", i)
				g.Go(func() error {
					return svc.UpdateUser(ctx, domain.NewUser("a@x.com", name))
				})
			}
			require.NoError(t, g.Wait())
			assert.Equal(t, 1, pending(t, uow))

			users, err := svc.ListUsers(ctx)
			require.NoError(t, err)
			require.Len(t, users, 1)
			last := users[0].Name

			require.NoError(t, svc.UpdateUser(ctx, domain.NewUser("a@x.com", "final")))
			require.NoError(t, svc.RollbackUser(ctx, "a@x.com"))

			assertUsers(t, svc, domain.NewUser("a@x.com", last))
		})

		t.Run("concurrent rollbacks consume one snapshot once", func(t *testing.T) {
			svc, uow := setup(t)
			require.NoError(t, svc.CreateUser(ctx, domain.NewUser("a@x.com", "Ann")))
			require.NoError(t, svc.UpdateUser(ctx, domain.NewUser("a@x.com", "Anna")))

			var g errgroup.Group
			for i := 0; i < 16; i++ {
				g.Go(func() error {
					return svc.RollbackUser(ctx, "a@x.com")
				})
			}
			require.NoError(t, g.Wait())

			assertUsers(t, svc, domain.NewUser("a@x.com", "Ann"))
			assert.Zero(t, pending(t, uow))
		})

		t.Run("stats count users and pending snapshots", func(t *testing.T) {
			svc, _ := setup(t)

			require.NoError(t, svc.CreateUser(ctx, domain.NewUser("a@x.com", "Ann")))
			require.NoError(t, svc.CreateUser(ctx, domain.NewUser("b@x.com", "Bob")))
			require.NoError(t, svc.UpdateUser(ctx, domain.NewUser("a@x.com", "Anna")))

			stats, err := svc.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, stats.Entities)
			assert.Equal(t, 1, stats.PendingSnapshots)
		})
	}
}

// assertUsers checks the full listing, ignoring order.
func assertUsers(t *testing.T, svc *service.UserService, want ...*domain.User) {
	t.Helper()

	got, err := svc.ListUsers(context.Background())
	require.NoError(t, err)

	if want == nil {
		want = []*domain.User{}
	}
	assert.ElementsMatch(t, want, got)
}

func pending(t *testing.T, uow service.UnitOfWork[*domain.User]) int {
	t.Helper()

	var n int
	err := uow.View(context.Background(), func(_ service.EntityRepository[*domain.User], snaps service.SnapshotRepository) error {
		var err error
		n, err = snaps.Count(context.Background())
		return err
	})
	require.NoError(t, err)
	return n
}

func inject(t *testing.T, uow service.UnitOfWork[*domain.User], snap *domain.Snapshot) {
	t.Helper()

	err := uow.Do(context.Background(), func(_ service.EntityRepository[*domain.User], snaps service.SnapshotRepository) error {
		return snaps.Store(context.Background(), snap)
	})
	require.NoError(t, err)
}
