package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/access-management/internal/core/datamodel"
)

// AuthRepository backs the auth service with gorm. The *ForLogin lookups are
// the only queries that project password_hash.
type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

func (r *AuthRepository) FindByID(ctx context.Context, id int64) (*datamodel.User, error) {
	var user datamodel.User
	err := r.db.WithContext(ctx).
		Select(datamodel.UserColumns).
		Preload("Roles", "status = ?", datamodel.StatusActive).
		Preload("Roles.Permissions").
		First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *AuthRepository) FindByUsernameForLogin(ctx context.Context, username string) (*datamodel.User, error) {
	return r.findForLogin(ctx, "username = ?", username)
}

func (r *AuthRepository) FindByEmailForLogin(ctx context.Context, email string) (*datamodel.User, error) {
	return r.findForLogin(ctx, "email = ?", email)
}

func (r *AuthRepository) FindByPhoneForLogin(ctx context.Context, phone string) (*datamodel.User, error) {
	return r.findForLogin(ctx, "phone = ?", phone)
}

func (r *AuthRepository) findForLogin(ctx context.Context, query string, arg any) (*datamodel.User, error) {
	var user datamodel.User
	err := r.db.WithContext(ctx).
		Preload("Roles", "status = ?", datamodel.StatusActive).
		Preload("Roles.Permissions").
		Where(query, arg).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *AuthRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *AuthRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *AuthRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, "phone = ?", phone)
}

func (r *AuthRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&datamodel.User{}).Where(query, arg).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *AuthRepository) Create(ctx context.Context, user *datamodel.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *AuthRepository) UpdateLastLogin(ctx context.Context, id int64, ip string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&datamodel.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_login_at": now,
			"last_login_ip": ip,
		}).Error
}
