package memory

import (
	"context"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/core/service"
	"github.com/yndnr/snapback/pkg/cmap"
)

var (
	_ service.EntityRepository[*domain.User] = txUsers{}
	_ service.SnapshotRepository             = txSnapshots{}
)

// journal records how to undo the writes of one unit of work.
type journal struct {
	undo []func()
}

func (j *journal) add(fn func()) {
	j.undo = append(j.undo, fn)
}

// rollback reverts recorded writes, newest first.
func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// restoreFn returns a func that puts key back to prev, or removes it when
// there was no previous value.
func restoreFn[K comparable, V any](m *cmap.Map[K, V], key K, prev V, existed bool) func() {
	return func() {
		if existed {
			m.Set(key, prev)
			return
		}
		m.Delete(key)
	}
}

type txUsers struct {
	*UserStore
	j *journal
}

func (t txUsers) Store(_ context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if t.users.SetIfAbsent(u.Email, u.Clone()) {
		var none *domain.User
		t.j.add(restoreFn(t.users, u.Email, none, false))
	}
	return nil
}

func (t txUsers) Update(_ context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	prev, existed := t.users.Get(u.Email)
	t.users.Set(u.Email, u.Clone())
	t.j.add(restoreFn(t.users, u.Email, prev, existed))
	return nil
}

type txSnapshots struct {
	*SnapshotStore
	j *journal
}

func (t txSnapshots) Store(_ context.Context, snap *domain.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	key := snap.Key()
	prev, existed := t.snaps.Get(key)
	t.snaps.Set(key, snap.Clone())
	t.j.add(restoreFn(t.snaps, key, prev, existed))
	return nil
}

func (t txSnapshots) Delete(_ context.Context, key domain.SnapshotKey) error {
	if prev, ok := t.snaps.Pop(key); ok {
		t.j.add(restoreFn(t.snaps, key, prev, true))
	}
	return nil
}
