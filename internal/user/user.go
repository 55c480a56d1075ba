// Package user exposes principal lookup for the account surface. Writes go
// through the auth registration flow; this package only reads.
package user

import (
	"context"
	"time"

	"github.com/frahmantamala/access-management/internal/core/datamodel"
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*datamodel.User, error)
	FindByUsername(ctx context.Context, username string) (*datamodel.User, error)
	FindByEmail(ctx context.Context, email string) (*datamodel.User, error)
	FindByPhone(ctx context.Context, phone string) (*datamodel.User, error)
	List(ctx context.Context, query ListUsersQuery) ([]datamodel.User, int64, error)
}

// ProfileDTO is the outward shape of a principal. The password hash never
// leaves the repository layer, so there is nothing to redact here.
type ProfileDTO struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Nickname    string     `json:"nickname,omitempty"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Status      string     `json:"status"`
	Roles       []RoleDTO  `json:"roles"`
	Permissions []string   `json:"permissions"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type RoleDTO struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type ListUsersQuery struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Status   string `json:"status,omitempty"`
	Keyword  string `json:"keyword,omitempty"`
}

func (q *ListUsersQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
}
