package memory

import (
	"context"
	"sort"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/core/service"
	"github.com/yndnr/snapback/pkg/cmap"
)

var _ service.EntityRepository[*domain.User] = (*UserStore)(nil)

// UserStore keeps the current version of every user, keyed by email.
type UserStore struct {
	users *cmap.Map[string, *domain.User]
}

// NewUserStore creates an empty user store.
func NewUserStore(opts ...cmap.Option) *UserStore {
	return &UserStore{
		users: cmap.New[string, *domain.User](cmap.StringHasher, opts...),
	}
}

// List returns all users sorted by email.
func (s *UserStore) List(_ context.Context) ([]*domain.User, error) {
	result := s.users.Values()
	for i, u := range result {
		result[i] = u.Clone()
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Email < result[j].Email
	})
	return result, nil
}

// FindByIdentity returns the user with the given email.
func (s *UserStore) FindByIdentity(_ context.Context, email string) (*domain.User, bool, error) {
	u, ok := s.users.Get(email)
	if !ok {
		return nil, false, nil
	}
	return u.Clone(), true, nil
}

// Store inserts u unless its email is already present.
func (s *UserStore) Store(_ context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	s.users.SetIfAbsent(u.Email, u.Clone())
	return nil
}

// Update replaces or inserts u.
func (s *UserStore) Update(_ context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	s.users.Set(u.Email, u.Clone())
	return nil
}

// Count returns the number of users.
func (s *UserStore) Count() int {
	return s.users.Count()
}
