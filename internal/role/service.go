package role

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/datamodel"
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

func (s *Service) Create(ctx context.Context, dto CreateRoleDTO) (*datamodel.Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	if existing, err := s.repo.FindByCode(ctx, dto.Code); err != nil {
		return nil, internal.NewInternalError("failed to check role code", err)
	} else if existing != nil {
		return nil, internal.NewConflictError("role code "+dto.Code+" already exists", internal.ErrCodeDuplicateCode)
	}

	if existing, err := s.repo.FindByName(ctx, dto.Name); err != nil {
		return nil, internal.NewInternalError("failed to check role name", err)
	} else if existing != nil {
		return nil, internal.NewConflictError("role name "+dto.Name+" already exists", internal.ErrCodeDuplicateName)
	}

	status := dto.Status
	if status == "" {
		status = datamodel.StatusActive
	}

	role := &datamodel.Role{
		Code:        dto.Code,
		Name:        dto.Name,
		Description: dto.Description,
		Level:       dto.Level,
		Sort:        dto.Sort,
		Status:      status,
	}
	if err := s.repo.Create(ctx, role); err != nil {
		return nil, internal.NewInternalError("failed to create role", err)
	}

	s.logger.Info("role created", "role_id", role.ID, "code", role.Code)
	return role, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*datamodel.Role, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load role", err)
	}
	if role == nil {
		return nil, internal.NewNotFoundError("role not found", internal.ErrCodeRoleNotFound)
	}
	return role, nil
}

func (s *Service) List(ctx context.Context, query ListRolesQuery) ([]datamodel.Role, int64, error) {
	query.Normalize()
	roles, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list roles", err)
	}
	return roles, total, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateRoleDTO) (*datamodel.Role, error) {
	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if role.IsSystem && dto.IsSystem != nil && !*dto.IsSystem {
		return nil, internal.NewBadRequestError("cannot clear the system flag of a system role", internal.ErrCodeSystemProtected)
	}

	if dto.Name != nil && *dto.Name != role.Name {
		if existing, err := s.repo.FindByName(ctx, *dto.Name); err != nil {
			return nil, internal.NewInternalError("failed to check role name", err)
		} else if existing != nil && existing.ID != role.ID {
			return nil, internal.NewConflictError("role name "+*dto.Name+" already exists", internal.ErrCodeDuplicateName)
		}
		role.Name = *dto.Name
	}
	if dto.Description != nil {
		role.Description = *dto.Description
	}
	if dto.Level != nil {
		role.Level = *dto.Level
	}
	if dto.Sort != nil {
		role.Sort = *dto.Sort
	}
	if dto.Status != nil {
		role.Status = *dto.Status
	}
	if dto.IsSystem != nil {
		role.IsSystem = *dto.IsSystem
	}

	if err := s.repo.Save(ctx, role); err != nil {
		return nil, internal.NewInternalError("failed to update role", err)
	}
	return role, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	role, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return internal.NewBadRequestError("system roles cannot be deleted", internal.ErrCodeSystemProtected)
	}

	holders, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to count role holders", err)
	}
	if holders > 0 {
		return internal.NewBadRequestError("role is still assigned to users and cannot be deleted", internal.ErrCodeHasDependents)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete role", err)
	}
	s.logger.Info("role deleted", "role_id", id, "code", role.Code)
	return nil
}

// AssignPermissions replaces the role's full permission set. Every
// referenced permission must exist.
func (s *Service) AssignPermissions(ctx context.Context, roleID int64, dto AssignPermissionsDTO) error {
	role, err := s.Get(ctx, roleID)
	if err != nil {
		return err
	}

	permissions, err := s.repo.FindPermissionsByIDs(ctx, dto.PermissionIDs)
	if err != nil {
		return internal.NewInternalError("failed to load permissions", err)
	}
	if len(permissions) != len(dedupe(dto.PermissionIDs)) {
		return internal.NewNotFoundError("one or more permissions do not exist", internal.ErrCodePermissionNotFound)
	}

	if err := s.repo.ReplacePermissions(ctx, role, permissions); err != nil {
		return internal.NewInternalError("failed to assign permissions", err)
	}
	s.logger.Info("role permissions replaced", "role_id", roleID, "count", len(permissions))
	return nil
}

// AssignToUser replaces the user's full role set.
func (s *Service) AssignToUser(ctx context.Context, userID int64, dto AssignRolesDTO) error {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return internal.NewInternalError("failed to load user", err)
	}
	if user == nil {
		return internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}

	roles, err := s.repo.FindRolesByIDs(ctx, dto.RoleIDs)
	if err != nil {
		return internal.NewInternalError("failed to load roles", err)
	}
	if len(roles) != len(dedupe(dto.RoleIDs)) {
		return internal.NewNotFoundError("one or more roles do not exist", internal.ErrCodeRoleNotFound)
	}

	if err := s.repo.ReplaceUserRoles(ctx, user, roles); err != nil {
		return internal.NewInternalError("failed to assign roles", err)
	}
	s.logger.Info("user roles replaced", "user_id", userID, "count", len(roles))
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
