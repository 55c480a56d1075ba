package menu

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

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

func (s *Service) Create(ctx context.Context, dto CreateMenuDTO) (*datamodel.Menu, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	var parent *datamodel.Menu
	if dto.ParentID != nil {
		var err error
		parent, err = s.repo.FindByID(ctx, *dto.ParentID)
		if err != nil {
			return nil, internal.NewInternalError("failed to load parent menu", err)
		}
		if parent == nil {
			return nil, internal.NewBadRequestError("parent menu does not exist", internal.ErrCodeInvalidParent)
		}
	}

	menu := &datamodel.Menu{
		Name:      dto.Name,
		Title:     dto.Title,
		Icon:      dto.Icon,
		Route:     dto.Route,
		Component: dto.Component,
		Redirect:  dto.Redirect,
		Type:      dto.Type,
		Status:    datamodel.StatusActive,
		Hidden:    dto.Hidden,
		Sort:      dto.Sort,
		ParentID:  dto.ParentID,
	}
	if err := s.repo.Create(ctx, menu); err != nil {
		return nil, internal.NewInternalError("failed to create menu", err)
	}

	if err := s.materializePath(ctx, menu, parent); err != nil {
		return nil, err
	}

	s.logger.Info("menu created", "menu_id", menu.ID, "route", menu.Route)
	return menu, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*datamodel.Menu, error) {
	menu, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load menu", err)
	}
	if menu == nil {
		return nil, internal.NewNotFoundError("menu not found", internal.ErrCodeMenuNotFound)
	}
	return menu, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateMenuDTO) (*datamodel.Menu, error) {
	menu, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.ParentID != nil && !sameParent(menu.ParentID, dto.ParentID) {
		if err := s.reparent(ctx, menu, *dto.ParentID); err != nil {
			return nil, err
		}
	}

	if dto.Name != nil {
		menu.Name = *dto.Name
	}
	if dto.Title != nil {
		menu.Title = *dto.Title
	}
	if dto.Icon != nil {
		menu.Icon = *dto.Icon
	}
	if dto.Route != nil {
		menu.Route = *dto.Route
	}
	if dto.Component != nil {
		menu.Component = *dto.Component
	}
	if dto.Redirect != nil {
		menu.Redirect = *dto.Redirect
	}
	if dto.Type != nil {
		menu.Type = *dto.Type
	}
	if dto.Status != nil {
		menu.Status = *dto.Status
	}
	if dto.Hidden != nil {
		menu.Hidden = *dto.Hidden
	}
	if dto.Sort != nil {
		menu.Sort = *dto.Sort
	}

	if err := s.repo.Save(ctx, menu); err != nil {
		return nil, internal.NewInternalError("failed to update menu", err)
	}
	return menu, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to count child menus", err)
	}
	if children > 0 {
		return internal.NewBadRequestError("menu has child menus and cannot be deleted", internal.ErrCodeHasDependents)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete menu", err)
	}
	return nil
}

// AssignPermissions replaces the menu's linked permission set, which in turn
// changes who sees it.
func (s *Service) AssignPermissions(ctx context.Context, menuID int64, dto AssignPermissionsDTO) error {
	menu, err := s.Get(ctx, menuID)
	if err != nil {
		return err
	}

	permissions, err := s.repo.FindPermissionsByIDs(ctx, dto.PermissionIDs)
	if err != nil {
		return internal.NewInternalError("failed to load permissions", err)
	}
	if len(permissions) != countDistinct(dto.PermissionIDs) {
		return internal.NewNotFoundError("one or more permissions do not exist", internal.ErrCodePermissionNotFound)
	}

	if err := s.repo.ReplacePermissions(ctx, menu, permissions); err != nil {
		return internal.NewInternalError("failed to assign permissions", err)
	}
	return nil
}

// TreeNode is a menu with its resolved children.
type TreeNode struct {
	datamodel.Menu
	Children []*TreeNode `json:"children,omitempty"`
}

// Tree returns the full menu forest, unfiltered. Admin surface.
func (s *Service) Tree(ctx context.Context) ([]*TreeNode, error) {
	menus, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list menus", err)
	}
	return buildTree(menus, nil), nil
}

// VisibleTree returns the menu forest filtered for a principal: a menu stays
// when it has no linked permissions, or the principal holds at least one of
// the linked codes. Super admins see everything. A directory whose children
// are all filtered out is dropped with them.
func (s *Service) VisibleTree(ctx context.Context, principal *datamodel.User) ([]*TreeNode, error) {
	menus, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list menus", err)
	}

	visible := menus[:0:0]
	for _, m := range menus {
		if m.Status != datamodel.StatusActive {
			continue
		}
		if s.canSee(principal, &m) {
			visible = append(visible, m)
		}
	}
	return pruneEmptyDirectories(buildTree(visible, nil)), nil
}

func (s *Service) canSee(principal *datamodel.User, m *datamodel.Menu) bool {
	if permission.IsSuperAdmin(principal) {
		return true
	}
	if len(m.Permissions) == 0 {
		return true
	}
	for _, p := range m.Permissions {
		if permission.HoldsPermission(principal, p.Code) {
			return true
		}
	}
	return false
}

func pruneEmptyDirectories(nodes []*TreeNode) []*TreeNode {
	out := nodes[:0:0]
	for _, n := range nodes {
		n.Children = pruneEmptyDirectories(n.Children)
		if n.Type == datamodel.MenuTypeDirectory && len(n.Children) == 0 {
			continue
		}
		out = append(out, n)
	}
	return out
}

func buildTree(menus []datamodel.Menu, parentID *int64) []*TreeNode {
	var nodes []*TreeNode
	for _, m := range menus {
		if !sameParent(m.ParentID, parentID) {
			continue
		}
		id := m.ID
		nodes = append(nodes, &TreeNode{
			Menu:     m,
			Children: buildTree(menus, &id),
		})
	}
	return nodes
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *Service) materializePath(ctx context.Context, menu *datamodel.Menu, parent *datamodel.Menu) error {
	path := strconv.FormatInt(menu.ID, 10)
	if parent != nil && parent.Path != "" {
		path = parent.Path + "," + path
	}
	if err := s.repo.UpdatePath(ctx, menu.ID, path); err != nil {
		return internal.NewInternalError("failed to store menu path", err)
	}
	menu.Path = path
	return nil
}

// reparent walks the candidate parent's materialized path before commit so a
// move can never close a loop.
func (s *Service) reparent(ctx context.Context, menu *datamodel.Menu, newParentID int64) error {
	if newParentID == 0 {
		menu.ParentID = nil
		menu.Path = strconv.FormatInt(menu.ID, 10)
		return nil
	}

	if newParentID == menu.ID {
		return internal.NewBadRequestError("menu cannot be its own parent", internal.ErrCodeCircularReference)
	}

	parent, err := s.repo.FindByID(ctx, newParentID)
	if err != nil {
		return internal.NewInternalError("failed to load parent menu", err)
	}
	if parent == nil {
		return internal.NewBadRequestError("parent menu does not exist", internal.ErrCodeInvalidParent)
	}

	if pathContains(parent.Path, menu.ID) {
		return internal.NewBadRequestError("re-parenting would create a circular reference", internal.ErrCodeCircularReference)
	}

	menu.ParentID = &parent.ID
	menu.Path = parent.Path + "," + strconv.FormatInt(menu.ID, 10)
	return nil
}

func pathContains(path string, id int64) bool {
	want := strconv.FormatInt(id, 10)
	for _, seg := range strings.Split(path, ",") {
		if seg == want {
			return true
		}
	}
	return false
}

func countDistinct(ids []int64) int {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
