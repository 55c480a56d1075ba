package permission

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/datamodel"
)

// Repository is the durable permission store. Find* methods return
// (nil, nil) when no record matches.
type Repository interface {
	Store
	FindByID(ctx context.Context, id int64) (*datamodel.Permission, error)
	FindByCodeAny(ctx context.Context, code string) (*datamodel.Permission, error)
	List(ctx context.Context, q ListPermissionsQuery) ([]datamodel.Permission, int64, error)
	ListAll(ctx context.Context) ([]datamodel.Permission, error)
	Create(ctx context.Context, perm *datamodel.Permission) error
	Save(ctx context.Context, perm *datamodel.Permission) error
	UpdatePath(ctx context.Context, id int64, path string) error
	UpdateStatusByCode(ctx context.Context, code, status string) (int64, error)
	Delete(ctx context.Context, id int64) error
	CountChildren(ctx context.Context, id int64) (int64, error)
}

// Service owns permission CRUD: code-format enforcement, tree path
// maintenance with cycle prevention, system-record protection, and the
// enable/disable switches that drive the dynamic checks.
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

func (s *Service) Create(ctx context.Context, dto CreatePermissionDTO) (*datamodel.Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	code := GenerateCode(dto.Module, dto.Action)
	existing, err := s.repo.FindByCodeAny(ctx, code)
	if err != nil {
		return nil, internal.NewInternalError("failed to check permission code", err)
	}
	if existing != nil {
		return nil, internal.NewConflictError("permission code "+code+" already exists", internal.ErrCodeDuplicateCode)
	}

	var parent *datamodel.Permission
	if dto.ParentID != nil {
		parent, err = s.repo.FindByID(ctx, *dto.ParentID)
		if err != nil {
			return nil, internal.NewInternalError("failed to load parent permission", err)
		}
		if parent == nil {
			return nil, internal.NewBadRequestError("parent permission does not exist", internal.ErrCodeInvalidParent)
		}
	}

	perm := &datamodel.Permission{
		Name:        dto.Name,
		Code:        code,
		Module:      dto.Module,
		Action:      dto.Action,
		Resource:    dto.Resource,
		Description: dto.Description,
		Status:      datamodel.StatusActive,
		Level:       dto.Level,
		Sort:        dto.Sort,
		ParentID:    dto.ParentID,
	}
	if err := s.repo.Create(ctx, perm); err != nil {
		return nil, internal.NewInternalError("failed to create permission", err)
	}

	if err := s.materializePath(ctx, perm, parent); err != nil {
		return nil, err
	}

	s.logger.Info("permission created", "code", perm.Code, "id", perm.ID)
	return perm, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*datamodel.Permission, error) {
	perm, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load permission", err)
	}
	if perm == nil {
		return nil, internal.NewNotFoundError("permission not found", internal.ErrCodePermissionNotFound)
	}
	return perm, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*datamodel.Permission, error) {
	perm, err := s.repo.FindByCodeAny(ctx, code)
	if err != nil {
		return nil, internal.NewInternalError("failed to load permission", err)
	}
	if perm == nil {
		return nil, internal.NewNotFoundError("permission "+code+" not found", internal.ErrCodePermissionNotFound)
	}
	return perm, nil
}

func (s *Service) List(ctx context.Context, q ListPermissionsQuery) ([]datamodel.Permission, int64, error) {
	q.Normalize()
	perms, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list permissions", err)
	}
	return perms, total, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdatePermissionDTO) (*datamodel.Permission, error) {
	perm, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if perm.IsSystem && dto.IsSystem != nil && !*dto.IsSystem {
		return nil, internal.NewBadRequestError("cannot clear the system flag of a system permission", internal.ErrCodeSystemProtected)
	}

	if dto.ParentID != nil && !sameParent(perm.ParentID, dto.ParentID) {
		if err := s.reparent(ctx, perm, *dto.ParentID); err != nil {
			return nil, err
		}
	}

	if dto.Name != nil {
		perm.Name = *dto.Name
	}
	if dto.Description != nil {
		perm.Description = *dto.Description
	}
	if dto.Resource != nil {
		perm.Resource = *dto.Resource
	}
	if dto.Status != nil {
		perm.Status = *dto.Status
	}
	if dto.Level != nil {
		perm.Level = *dto.Level
	}
	if dto.Sort != nil {
		perm.Sort = *dto.Sort
	}
	if dto.IsSystem != nil {
		perm.IsSystem = *dto.IsSystem
	}

	if err := s.repo.Save(ctx, perm); err != nil {
		return nil, internal.NewInternalError("failed to update permission", err)
	}
	return perm, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	perm, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if perm.IsSystem {
		return internal.NewBadRequestError("system permissions cannot be deleted", internal.ErrCodeSystemProtected)
	}

	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to count child permissions", err)
	}
	if children > 0 {
		return internal.NewBadRequestError("permission has child permissions and cannot be deleted", internal.ErrCodeHasDependents)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete permission", err)
	}
	return nil
}

// Disable flips a permission to inactive. Because the dynamic checks read
// status live from the store, the revocation is effective on the next check
// with no cache invalidation step.
func (s *Service) Disable(ctx context.Context, code string) (bool, error) {
	affected, err := s.repo.UpdateStatusByCode(ctx, code, datamodel.StatusInactive)
	if err != nil {
		return false, internal.NewInternalError("failed to disable permission", err)
	}
	return affected > 0, nil
}

func (s *Service) Enable(ctx context.Context, code string) (bool, error) {
	affected, err := s.repo.UpdateStatusByCode(ctx, code, datamodel.StatusActive)
	if err != nil {
		return false, internal.NewInternalError("failed to enable permission", err)
	}
	return affected > 0, nil
}

// Ensure returns the permission for module:action, creating it active when
// absent. Used for runtime-registered permissions.
func (s *Service) Ensure(ctx context.Context, module, action, name, description, resource string) (*datamodel.Permission, error) {
	code := GenerateCode(module, action)
	existing, err := s.repo.FindByCodeAny(ctx, code)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up permission", err)
	}
	if existing != nil {
		return existing, nil
	}
	return s.Create(ctx, CreatePermissionDTO{
		Name:        name,
		Module:      module,
		Action:      action,
		Description: description,
		Resource:    resource,
	})
}

// TreeNode is a permission with its resolved children.
type TreeNode struct {
	datamodel.Permission
	Children []*TreeNode `json:"children,omitempty"`
}

// Tree returns the full permission forest built from the adjacency list.
func (s *Service) Tree(ctx context.Context) ([]*TreeNode, error) {
	perms, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list permissions", err)
	}
	return buildTree(perms, nil), nil
}

func buildTree(perms []datamodel.Permission, parentID *int64) []*TreeNode {
	var nodes []*TreeNode
	for _, perm := range perms {
		if !sameParent(perm.ParentID, parentID) {
			continue
		}
		id := perm.ID
		nodes = append(nodes, &TreeNode{
			Permission: perm,
			Children:   buildTree(perms, &id),
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

// materializePath writes the ancestor-id chain once the record has an id.
func (s *Service) materializePath(ctx context.Context, perm *datamodel.Permission, parent *datamodel.Permission) error {
	path := strconv.FormatInt(perm.ID, 10)
	if parent != nil && parent.Path != "" {
		path = parent.Path + "," + path
	}
	if err := s.repo.UpdatePath(ctx, perm.ID, path); err != nil {
		return internal.NewInternalError("failed to store permission path", err)
	}
	perm.Path = path
	return nil
}

// reparent validates and applies a parent change. The cycle check walks the
// candidate parent's materialized path before commit: if the moving node's
// id appears there, the move would create a loop.
func (s *Service) reparent(ctx context.Context, perm *datamodel.Permission, newParentID int64) error {
	if newParentID == 0 {
		perm.ParentID = nil
		perm.Path = strconv.FormatInt(perm.ID, 10)
		return nil
	}

	if newParentID == perm.ID {
		return internal.NewBadRequestError("permission cannot be its own parent", internal.ErrCodeCircularReference)
	}

	parent, err := s.repo.FindByID(ctx, newParentID)
	if err != nil {
		return internal.NewInternalError("failed to load parent permission", err)
	}
	if parent == nil {
		return internal.NewBadRequestError("parent permission does not exist", internal.ErrCodeInvalidParent)
	}

	if pathContains(parent.Path, perm.ID) {
		return internal.NewBadRequestError("re-parenting would create a circular reference", internal.ErrCodeCircularReference)
	}

	perm.ParentID = &parent.ID
	perm.Path = parent.Path + "," + strconv.FormatInt(perm.ID, 10)
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
