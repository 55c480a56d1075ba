package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/access-management/internal/core/datamodel"
	"github.com/frahmantamala/access-management/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*datamodel.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*datamodel.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*datamodel.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*datamodel.User, error) {
	return r.findOne(ctx, "phone = ?", phone)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*datamodel.User, error) {
	var u datamodel.User
	err := r.db.WithContext(ctx).
		Select(datamodel.UserColumns).
		Preload("Roles", "status = ?", datamodel.StatusActive).
		Preload("Roles.Permissions").
		Where(query, arg).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, query user.ListUsersQuery) ([]datamodel.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&datamodel.User{})
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}
	if query.Keyword != "" {
		pattern := "%" + query.Keyword + "%"
		q = q.Where("username LIKE ? OR nickname LIKE ? OR email LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []datamodel.User
	err := q.Select(datamodel.UserColumns).
		Preload("Roles", "status = ?", datamodel.StatusActive).
		Order("id").
		Offset((query.Page - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
