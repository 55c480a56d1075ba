package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/access-management/internal/core/datamodel"
)

type MenuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

func (r *MenuRepository) FindByID(ctx context.Context, id int64) (*datamodel.Menu, error) {
	var rec datamodel.Menu
	err := r.db.WithContext(ctx).Preload("Permissions").First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *MenuRepository) ListAll(ctx context.Context) ([]datamodel.Menu, error) {
	var menus []datamodel.Menu
	err := r.db.WithContext(ctx).Preload("Permissions").Order("sort, id").Find(&menus).Error
	return menus, err
}

func (r *MenuRepository) Create(ctx context.Context, rec *datamodel.Menu) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *MenuRepository) Save(ctx context.Context, rec *datamodel.Menu) error {
	return r.db.WithContext(ctx).Omit("Permissions").Save(rec).Error
}

func (r *MenuRepository) UpdatePath(ctx context.Context, id int64, path string) error {
	return r.db.WithContext(ctx).Model(&datamodel.Menu{}).Where("id = ?", id).Update("path", path).Error
}

func (r *MenuRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&datamodel.Menu{}, id).Error
}

func (r *MenuRepository) CountChildren(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&datamodel.Menu{}).Where("parent_id = ?", id).Count(&count).Error
	return count, err
}

func (r *MenuRepository) FindPermissionsByIDs(ctx context.Context, ids []int64) ([]datamodel.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var permissions []datamodel.Permission
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&permissions).Error
	return permissions, err
}

func (r *MenuRepository) ReplacePermissions(ctx context.Context, rec *datamodel.Menu, permissions []datamodel.Permission) error {
	return r.db.WithContext(ctx).Model(rec).Association("Permissions").Replace(permissions)
}
