// Package role implements role CRUD and the two assignment operations:
// replacing a role's permission set and replacing a user's role set.
package role

import (
	"context"
	"errors"

	"github.com/frahmantamala/access-management/internal/core/datamodel"
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*datamodel.Role, error)
	FindByCode(ctx context.Context, code string) (*datamodel.Role, error)
	FindByName(ctx context.Context, name string) (*datamodel.Role, error)
	List(ctx context.Context, query ListRolesQuery) ([]datamodel.Role, int64, error)
	Create(ctx context.Context, role *datamodel.Role) error
	Save(ctx context.Context, role *datamodel.Role) error
	Delete(ctx context.Context, id int64) error
	CountUsers(ctx context.Context, roleID int64) (int64, error)
	FindPermissionsByIDs(ctx context.Context, ids []int64) ([]datamodel.Permission, error)
	ReplacePermissions(ctx context.Context, role *datamodel.Role, permissions []datamodel.Permission) error
	FindUserByID(ctx context.Context, id int64) (*datamodel.User, error)
	FindRolesByIDs(ctx context.Context, ids []int64) ([]datamodel.Role, error)
	ReplaceUserRoles(ctx context.Context, user *datamodel.User, roles []datamodel.Role) error
}

type CreateRoleDTO struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Level       int    `json:"level"`
	Sort        int    `json:"sort"`
	Status      string `json:"status,omitempty"`
}

func (d CreateRoleDTO) Validate() error {
	if d.Code == "" {
		return errors.New("code is required")
	}
	if d.Name == "" {
		return errors.New("name is required")
	}
	if d.Level < 0 {
		return errors.New("level must not be negative")
	}
	return nil
}

type UpdateRoleDTO struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Level       *int    `json:"level,omitempty"`
	Sort        *int    `json:"sort,omitempty"`
	Status      *string `json:"status,omitempty"`
	IsSystem    *bool   `json:"is_system,omitempty"`
}

type AssignPermissionsDTO struct {
	PermissionIDs []int64 `json:"permission_ids"`
}

type AssignRolesDTO struct {
	RoleIDs []int64 `json:"role_ids"`
}

type ListRolesQuery struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Status   string `json:"status,omitempty"`
	Keyword  string `json:"keyword,omitempty"`
}

func (q *ListRolesQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
}
