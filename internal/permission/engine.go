package permission

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/access-management/internal/core/datamodel"
)

// Store is the live permission lookup the dynamic checks depend on.
// Implementations return (nil, nil) when no record matches.
type Store interface {
	FindByCode(ctx context.Context, code, status string) (*datamodel.Permission, error)
	FindByResourceAction(ctx context.Context, resource, action, status string) (*datamodel.Permission, error)
	FindForRoleIDs(ctx context.Context, roleIDs []int64, status string) ([]datamodel.Permission, error)
}

// Engine decides allow/deny for a principal and a capability. The static
// checks are pure functions of the principal's loaded role/permission graph;
// the Dynamic family additionally requires the matched permission to be
// active in the store right now, so disabling a permission takes effect
// without any cache invalidation.
type Engine struct {
	store  Store
	logger *slog.Logger
}

func NewEngine(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// HasPermission is true for super-admins, else true iff any active role of
// the principal carries an active permission with the code.
func (e *Engine) HasPermission(user *datamodel.User, code string) bool {
	if IsSuperAdmin(user) {
		return true
	}
	return HoldsPermission(user, code)
}

func (e *Engine) HasModulePermission(user *datamodel.User, module, action string) bool {
	return e.HasPermission(user, GenerateCode(module, action))
}

// HasRole checks role membership directly, without the super-admin bypass.
func (e *Engine) HasRole(user *datamodel.User, roleCode string) bool {
	return HasRole(user, roleCode)
}

// HasPermissionLevel compares the principal's effective maximum level
// against the required one; super-admins always pass.
func (e *Engine) HasPermissionLevel(user *datamodel.User, requiredLevel int) bool {
	if IsSuperAdmin(user) {
		return true
	}
	return EffectiveMaxLevel(user) >= requiredLevel
}

// CanAccessResource resolves the resource path to a module via the lossy
// /api/<segment> heuristic and delegates to the module check.
func (e *Engine) CanAccessResource(user *datamodel.User, resource, action string) bool {
	if IsSuperAdmin(user) {
		return true
	}
	module := ModuleFromResource(resource)
	if module == "" {
		return false
	}
	return e.HasModulePermission(user, module, action)
}

// HasDynamicPermission grants only when the permission exists in the store
// with active status and the principal holds it. Costs one store round-trip
// per check.
func (e *Engine) HasDynamicPermission(ctx context.Context, user *datamodel.User, code string) (bool, error) {
	if user == nil {
		return false, nil
	}
	if IsSuperAdmin(user) {
		return true, nil
	}

	perm, err := e.store.FindByCode(ctx, code, datamodel.StatusActive)
	if err != nil {
		return false, err
	}
	if perm == nil {
		return false, nil
	}
	return HoldsPermission(user, code), nil
}

func (e *Engine) HasDynamicModulePermission(ctx context.Context, user *datamodel.User, module, action string) (bool, error) {
	return e.HasDynamicPermission(ctx, user, GenerateCode(module, action))
}

// CanAccessResourceDynamic first tries an exact (resource, action) match
// against stored permission records, then falls back to the module
// heuristic.
func (e *Engine) CanAccessResourceDynamic(ctx context.Context, user *datamodel.User, resource, action string) (bool, error) {
	if user == nil {
		return false, nil
	}
	if IsSuperAdmin(user) {
		return true, nil
	}

	exact, err := e.store.FindByResourceAction(ctx, resource, action, datamodel.StatusActive)
	if err != nil {
		return false, err
	}
	if exact != nil && HoldsPermission(user, exact.Code) {
		return true, nil
	}

	module := ModuleFromResource(resource)
	if module == "" {
		return false, nil
	}
	return e.HasDynamicModulePermission(ctx, user, module, action)
}

// UserDynamicPermissions returns the active permission codes reachable
// through the principal's roles, read live from the store.
func (e *Engine) UserDynamicPermissions(ctx context.Context, user *datamodel.User) ([]string, error) {
	if user == nil || len(user.Roles) == 0 {
		return nil, nil
	}

	roleIDs := make([]int64, 0, len(user.Roles))
	for _, role := range user.Roles {
		if role.Status == datamodel.StatusActive {
			roleIDs = append(roleIDs, role.ID)
		}
	}
	if len(roleIDs) == 0 {
		return nil, nil
	}

	perms, err := e.store.FindForRoleIDs(ctx, roleIDs, datamodel.StatusActive)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(perms))
	for _, perm := range perms {
		codes = append(codes, perm.Code)
	}
	return codes, nil
}

// IsPermissionActive reports whether a permission code exists with active
// status, independent of any principal.
func (e *Engine) IsPermissionActive(ctx context.Context, code string) (bool, error) {
	perm, err := e.store.FindByCode(ctx, code, datamodel.StatusActive)
	if err != nil {
		return false, err
	}
	return perm != nil, nil
}
