package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/access-management/internal/core/datamodel"
	"github.com/frahmantamala/access-management/internal/permission"
)

// PermissionRepository implements permission.Repository using GORM.
type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) FindByCode(ctx context.Context, code, status string) (*datamodel.Permission, error) {
	var perm datamodel.Permission
	err := r.db.WithContext(ctx).
		Where("code = ? AND status = ?", code, status).
		First(&perm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &perm, nil
}

func (r *PermissionRepository) FindByCodeAny(ctx context.Context, code string) (*datamodel.Permission, error) {
	var perm datamodel.Permission
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&perm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &perm, nil
}

func (r *PermissionRepository) FindByResourceAction(ctx context.Context, resource, action, status string) (*datamodel.Permission, error) {
	var perm datamodel.Permission
	err := r.db.WithContext(ctx).
		Where("resource = ? AND action = ? AND status = ?", resource, action, status).
		First(&perm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &perm, nil
}

func (r *PermissionRepository) FindForRoleIDs(ctx context.Context, roleIDs []int64, status string) ([]datamodel.Permission, error) {
	var perms []datamodel.Permission
	err := r.db.WithContext(ctx).
		Distinct("permissions.*").
		Joins("JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Where("rp.role_id IN ? AND permissions.status = ?", roleIDs, status).
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *PermissionRepository) FindByID(ctx context.Context, id int64) (*datamodel.Permission, error) {
	var perm datamodel.Permission
	err := r.db.WithContext(ctx).First(&perm, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &perm, nil
}

func (r *PermissionRepository) List(ctx context.Context, q permission.ListPermissionsQuery) ([]datamodel.Permission, int64, error) {
	query := r.db.WithContext(ctx).Model(&datamodel.Permission{})

	if q.Module != "" {
		query = query.Where("module = ?", q.Module)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Name != "" {
		query = query.Where("name LIKE ?", "%"+q.Name+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var perms []datamodel.Permission
	err := query.
		Order("sort DESC, id ASC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&perms).Error
	if err != nil {
		return nil, 0, err
	}
	return perms, total, nil
}

func (r *PermissionRepository) ListAll(ctx context.Context) ([]datamodel.Permission, error) {
	var perms []datamodel.Permission
	err := r.db.WithContext(ctx).
		Order("sort DESC, id ASC").
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *PermissionRepository) Create(ctx context.Context, perm *datamodel.Permission) error {
	return r.db.WithContext(ctx).Create(perm).Error
}

func (r *PermissionRepository) Save(ctx context.Context, perm *datamodel.Permission) error {
	return r.db.WithContext(ctx).Save(perm).Error
}

func (r *PermissionRepository) UpdatePath(ctx context.Context, id int64, path string) error {
	return r.db.WithContext(ctx).
		Model(&datamodel.Permission{}).
		Where("id = ?", id).
		Update("path", path).Error
}

func (r *PermissionRepository) UpdateStatusByCode(ctx context.Context, code, status string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&datamodel.Permission{}).
		Where("code = ?", code).
		Update("status", status)
	return result.RowsAffected, result.Error
}

func (r *PermissionRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&datamodel.Permission{}, id).Error
}

func (r *PermissionRepository) CountChildren(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&datamodel.Permission{}).
		Where("parent_id = ?", id).
		Count(&count).Error
	return count, err
}
