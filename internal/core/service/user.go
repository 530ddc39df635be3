package service

import (
	"context"
	"errors"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/telemetry/metric"
	"github.com/yndnr/snapback/pkg/serde"
)

// UserService exposes the user operations: create, update, list and
// rollback to the version before the last update.
type UserService struct {
	coord *Coordinator[*domain.User]
}

// NewUserService creates a UserService over the given stores.
func NewUserService(uow UnitOfWork[*domain.User], opts ...CoordinatorOption) *UserService {
	return &UserService{
		coord: NewCoordinator[*domain.User](domain.KindUser, uow, NewUserCodec(), opts...),
	}
}

// NewUserCodec returns the JSON codec used for user snapshots. Decoding a
// JSON null is rejected rather than producing a nil user.
func NewUserCodec() Codec[*domain.User] {
	codec := serde.NewJSON(func() *domain.User { return new(domain.User) })

	return serde.Fuse[*domain.User, []byte](
		codec,
		serde.DeserializerFunc[*domain.User, []byte](func(data []byte) (*domain.User, error) {
			u, err := codec.Deserialize(data)
			if err != nil {
				return nil, err
			}
			if u == nil {
				return nil, errors.New("snapshot holds no user")
			}
			return u, nil
		}),
	)
}

// CreateUser adds u unless a user with the same email exists.
func (s *UserService) CreateUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return domain.ErrMissingArgument.WithDetails("user is required")
	}
	return s.coord.Create(ctx, u.Clone())
}

// UpdateUser replaces the user with u's email, remembering the previous
// version for a later rollback.
func (s *UserService) UpdateUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return domain.ErrMissingArgument.WithDetails("user is required")
	}
	return s.coord.Update(ctx, u.Clone())
}

// ListUsers returns all users.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.coord.List(ctx)
}

// RollbackUser restores the user with the given email to the version it
// had before its most recent update. It does nothing when there is no such
// version.
func (s *UserService) RollbackUser(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrMissingArgument.WithDetails("email is required")
	}
	return s.coord.Rollback(ctx, email)
}

// Stats reports user and pending snapshot counts.
func (s *UserService) Stats(ctx context.Context) (metric.StoreStats, error) {
	return s.coord.Stats(ctx)
}
