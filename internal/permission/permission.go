// Package permission implements the permission resolution engine: code
// parsing, the role/permission snapshot checks, the dynamic store-backed
// checks and the requirement combinator used by the authorization gate.
package permission

import (
	"regexp"
	"strings"

	"github.com/frahmantamala/access-management/internal/core/datamodel"
)

// Role codes that bypass every fine-grained check.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Known action verbs derived from HTTP methods.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionManage = "manage"
)

var (
	codePattern           = regexp.MustCompile(`^[a-zA-Z_]\w*:[a-zA-Z_]\w*$`)
	resourceModulePattern = regexp.MustCompile(`^/api/([^/]+)`)
)

// ValidCode reports whether code matches the module:action format.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// GenerateCode builds a permission code from module and action.
func GenerateCode(module, action string) string {
	return module + ":" + action
}

// ParseCode splits a permission code into module and action. ok is false
// for malformed codes.
func ParseCode(code string) (module, action string, ok bool) {
	if !ValidCode(code) {
		return "", "", false
	}
	parts := strings.SplitN(code, ":", 2)
	return parts[0], parts[1], true
}

// ModuleFromResource derives a module name from a resource path:
// /api/users -> user. The trailing-s strip is a lossy heuristic: irregular
// plurals mis-resolve, and exact (resource, action) permission records are
// the escape hatch.
func ModuleFromResource(resource string) string {
	match := resourceModulePattern.FindStringSubmatch(resource)
	if match == nil {
		return ""
	}
	module := match[1]
	if strings.HasSuffix(module, "s") {
		return module[:len(module)-1]
	}
	return module
}

// ActionFromMethod maps an HTTP method to an action verb, defaulting to
// read for unknown methods.
func ActionFromMethod(method string) string {
	switch strings.ToUpper(method) {
	case "POST":
		return ActionCreate
	case "PUT", "PATCH":
		return ActionUpdate
	case "DELETE":
		return ActionDelete
	default:
		return ActionRead
	}
}

// The functions below evaluate a principal's loaded role/permission graph.
// They are free functions over the plain records so checks run without a
// live store; only the dynamic engine methods touch the database.

// IsSuperAdmin reports whether any active role carries a top-authority code.
func IsSuperAdmin(user *datamodel.User) bool {
	if user == nil {
		return false
	}
	for _, role := range user.Roles {
		if role.Status != datamodel.StatusActive {
			continue
		}
		if role.Code == RoleAdmin || role.Code == RoleSuperAdmin {
			return true
		}
	}
	return false
}

// HasRole reports whether the principal holds an active role with the code.
func HasRole(user *datamodel.User, roleCode string) bool {
	if user == nil {
		return false
	}
	for _, role := range user.Roles {
		if role.Status == datamodel.StatusActive && role.Code == roleCode {
			return true
		}
	}
	return false
}

// HoldsPermission reports whether an active role of the principal carries
// an active permission with the given code. No super-admin bypass here;
// the engine applies that.
func HoldsPermission(user *datamodel.User, code string) bool {
	if user == nil {
		return false
	}
	for _, role := range user.Roles {
		if role.Status != datamodel.StatusActive {
			continue
		}
		for _, perm := range role.Permissions {
			if perm.Status == datamodel.StatusActive && perm.Code == code {
				return true
			}
		}
	}
	return false
}

// EffectiveMaxLevel is the maximum of every active role's level and every
// active permission level reachable through those roles.
func EffectiveMaxLevel(user *datamodel.User) int {
	if user == nil {
		return 0
	}
	maxLevel := 0
	for _, role := range user.Roles {
		if role.Status != datamodel.StatusActive {
			continue
		}
		if role.Level > maxLevel {
			maxLevel = role.Level
		}
		for _, perm := range role.Permissions {
			if perm.Status == datamodel.StatusActive && perm.Level > maxLevel {
				maxLevel = perm.Level
			}
		}
	}
	return maxLevel
}

// UserPermissions returns the deduplicated active permission codes granted
// through the principal's active roles.
func UserPermissions(user *datamodel.User) []string {
	if user == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var codes []string
	for _, role := range user.Roles {
		if role.Status != datamodel.StatusActive {
			continue
		}
		for _, perm := range role.Permissions {
			if perm.Status != datamodel.StatusActive {
				continue
			}
			if _, dup := seen[perm.Code]; dup {
				continue
			}
			seen[perm.Code] = struct{}{}
			codes = append(codes, perm.Code)
		}
	}
	return codes
}

// UserModulePermissions filters UserPermissions down to one module.
func UserModulePermissions(user *datamodel.User, module string) []string {
	var codes []string
	for _, code := range UserPermissions(user) {
		if m, _, ok := ParseCode(code); ok && m == module {
			codes = append(codes, code)
		}
	}
	return codes
}
