package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/datamodel"
	"github.com/frahmantamala/access-management/internal/permission"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Get(ctx context.Context, id int64) (*ProfileDTO, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}
	return toProfile(u), nil
}

func (s *Service) List(ctx context.Context, query ListUsersQuery) ([]ProfileDTO, int64, error) {
	query.Normalize()
	users, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list users", err)
	}
	out := make([]ProfileDTO, 0, len(users))
	for i := range users {
		out = append(out, *toProfile(&users[i]))
	}
	return out, total, nil
}

// Profile renders an already-loaded principal, used by the "me" endpoint
// where the middleware has done the lookup.
func (s *Service) Profile(u *datamodel.User) *ProfileDTO {
	return toProfile(u)
}

func toProfile(u *datamodel.User) *ProfileDTO {
	roles := make([]RoleDTO, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, RoleDTO{ID: r.ID, Code: r.Code, Name: r.Name})
	}
	var phone string
	if u.Phone != nil {
		phone = *u.Phone
	}
	return &ProfileDTO{
		ID:          u.ID,
		Username:    u.Username,
		Nickname:    u.Nickname,
		Email:       u.Email,
		Phone:       phone,
		Status:      u.Status,
		Roles:       roles,
		Permissions: permission.UserPermissions(u),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
