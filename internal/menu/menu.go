// Package menu manages the navigation tree. Menus are presentation only;
// the link to permissions drives visibility filtering, never enforcement.
package menu

import (
	"context"
	"errors"

	"github.com/frahmantamala/access-management/internal/core/datamodel"
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*datamodel.Menu, error)
	ListAll(ctx context.Context) ([]datamodel.Menu, error)
	Create(ctx context.Context, menu *datamodel.Menu) error
	Save(ctx context.Context, menu *datamodel.Menu) error
	UpdatePath(ctx context.Context, id int64, path string) error
	Delete(ctx context.Context, id int64) error
	CountChildren(ctx context.Context, id int64) (int64, error)
	FindPermissionsByIDs(ctx context.Context, ids []int64) ([]datamodel.Permission, error)
	ReplacePermissions(ctx context.Context, menu *datamodel.Menu, permissions []datamodel.Permission) error
}

type CreateMenuDTO struct {
	Name      string  `json:"name"`
	Title     string  `json:"title"`
	Icon      string  `json:"icon,omitempty"`
	Route     string  `json:"route"`
	Component string  `json:"component,omitempty"`
	Redirect  string  `json:"redirect,omitempty"`
	Type      string  `json:"type"`
	Hidden    bool    `json:"hidden"`
	Sort      int     `json:"sort"`
	ParentID  *int64  `json:"parent_id,omitempty"`
}

func (d CreateMenuDTO) Validate() error {
	if d.Name == "" {
		return errors.New("name is required")
	}
	if d.Title == "" {
		return errors.New("title is required")
	}
	if d.Route == "" {
		return errors.New("route is required")
	}
	switch d.Type {
	case datamodel.MenuTypeDirectory, datamodel.MenuTypeMenu, datamodel.MenuTypeButton:
	default:
		return errors.New("type must be directory, menu or button")
	}
	return nil
}

// UpdateMenuDTO uses pointer fields so absent keys leave values untouched.
// ParentID 0 moves the menu to the root.
type UpdateMenuDTO struct {
	Name      *string `json:"name,omitempty"`
	Title     *string `json:"title,omitempty"`
	Icon      *string `json:"icon,omitempty"`
	Route     *string `json:"route,omitempty"`
	Component *string `json:"component,omitempty"`
	Redirect  *string `json:"redirect,omitempty"`
	Type      *string `json:"type,omitempty"`
	Status    *string `json:"status,omitempty"`
	Hidden    *bool   `json:"hidden,omitempty"`
	Sort      *int    `json:"sort,omitempty"`
	ParentID  *int64  `json:"parent_id,omitempty"`
}

type AssignPermissionsDTO struct {
	PermissionIDs []int64 `json:"permission_ids"`
}
