package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/access-management/internal/core/datamodel"
	"github.com/frahmantamala/access-management/internal/role"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) FindByID(ctx context.Context, id int64) (*datamodel.Role, error) {
	var rec datamodel.Role
	err := r.db.WithContext(ctx).Preload("Permissions").First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RoleRepository) FindByCode(ctx context.Context, code string) (*datamodel.Role, error) {
	return r.findOne(ctx, "code = ?", code)
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*datamodel.Role, error) {
	return r.findOne(ctx, "name = ?", name)
}

func (r *RoleRepository) findOne(ctx context.Context, query string, arg any) (*datamodel.Role, error) {
	var rec datamodel.Role
	err := r.db.WithContext(ctx).Where(query, arg).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RoleRepository) List(ctx context.Context, query role.ListRolesQuery) ([]datamodel.Role, int64, error) {
	q := r.db.WithContext(ctx).Model(&datamodel.Role{})
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}
	if query.Keyword != "" {
		pattern := "%" + query.Keyword + "%"
		q = q.Where("code LIKE ? OR name LIKE ?", pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var roles []datamodel.Role
	err := q.Order("sort, id").
		Offset((query.Page - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&roles).Error
	if err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

func (r *RoleRepository) Create(ctx context.Context, rec *datamodel.Role) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *RoleRepository) Save(ctx context.Context, rec *datamodel.Role) error {
	return r.db.WithContext(ctx).Omit("Permissions").Save(rec).Error
}

func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&datamodel.Role{}, id).Error
}

func (r *RoleRepository) CountUsers(ctx context.Context, roleID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("user_roles").Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}

func (r *RoleRepository) FindPermissionsByIDs(ctx context.Context, ids []int64) ([]datamodel.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var permissions []datamodel.Permission
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&permissions).Error
	return permissions, err
}

func (r *RoleRepository) ReplacePermissions(ctx context.Context, rec *datamodel.Role, permissions []datamodel.Permission) error {
	return r.db.WithContext(ctx).Model(rec).Association("Permissions").Replace(permissions)
}

func (r *RoleRepository) FindUserByID(ctx context.Context, id int64) (*datamodel.User, error) {
	var u datamodel.User
	err := r.db.WithContext(ctx).Select(datamodel.UserColumns).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *RoleRepository) FindRolesByIDs(ctx context.Context, ids []int64) ([]datamodel.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var roles []datamodel.Role
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&roles).Error
	return roles, err
}

func (r *RoleRepository) ReplaceUserRoles(ctx context.Context, u *datamodel.User, roles []datamodel.Role) error {
	return r.db.WithContext(ctx).Model(u).Association("Roles").Replace(roles)
}
