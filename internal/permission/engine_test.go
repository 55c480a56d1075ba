package permission

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/access-management/internal/core/datamodel"
)

func TestPermission(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Permission Module Suite")
}

// Mock Store for the dynamic checks
type mockStore struct {
	byCode     map[string]*datamodel.Permission
	byResource map[string]*datamodel.Permission
	failWith   error
}

func newMockStore() *mockStore {
	return &mockStore{
		byCode:     map[string]*datamodel.Permission{},
		byResource: map[string]*datamodel.Permission{},
	}
}

func (m *mockStore) add(p datamodel.Permission) {
	m.byCode[p.Code] = &p
	if p.Resource != "" {
		m.byResource[p.Resource+"|"+p.Action] = &p
	}
}

func (m *mockStore) FindByCode(_ context.Context, code, status string) (*datamodel.Permission, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	p := m.byCode[code]
	if p == nil || p.Status != status {
		return nil, nil
	}
	return p, nil
}

func (m *mockStore) FindByResourceAction(_ context.Context, resource, action, status string) (*datamodel.Permission, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	p := m.byResource[resource+"|"+action]
	if p == nil || p.Status != status {
		return nil, nil
	}
	return p, nil
}

func (m *mockStore) FindForRoleIDs(_ context.Context, roleIDs []int64, status string) ([]datamodel.Permission, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []datamodel.Permission
	for _, p := range m.byCode {
		if p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func activeUser(roles ...datamodel.Role) *datamodel.User {
	return &datamodel.User{ID: 1, Username: "tester", Status: datamodel.StatusActive, Roles: roles}
}

func editorRole(perms ...datamodel.Permission) datamodel.Role {
	return datamodel.Role{ID: 10, Code: "editor", Status: datamodel.StatusActive, Level: 5, Permissions: perms}
}

var _ = ginkgo.Describe("code helpers", func() {
	ginkgo.It("should round-trip module and action", func() {
		code := GenerateCode("user", ActionRead)
		gomega.Expect(code).To(gomega.Equal("user:read"))

		module, action, ok := ParseCode(code)
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(module).To(gomega.Equal("user"))
		gomega.Expect(action).To(gomega.Equal(ActionRead))
	})

	ginkgo.It("should reject malformed codes", func() {
		for _, code := range []string{"", "user", "user:", ":read", "user:read:extra", "1user:read", "user:re ad"} {
			gomega.Expect(ValidCode(code)).To(gomega.BeFalse(), code)
		}
	})

	ginkgo.It("should accept underscore-led identifiers", func() {
		gomega.Expect(ValidCode("_internal:read")).To(gomega.BeTrue())
	})
})

var _ = ginkgo.Describe("ModuleFromResource", func() {
	ginkgo.It("should take the first segment after /api and strip a trailing s", func() {
		gomega.Expect(ModuleFromResource("/api/users")).To(gomega.Equal("user"))
		gomega.Expect(ModuleFromResource("/api/users/42")).To(gomega.Equal("user"))
		gomega.Expect(ModuleFromResource("/api/menu")).To(gomega.Equal("menu"))
	})

	ginkgo.It("should return empty for paths outside /api", func() {
		gomega.Expect(ModuleFromResource("/health")).To(gomega.BeEmpty())
		gomega.Expect(ModuleFromResource("")).To(gomega.BeEmpty())
	})

	ginkgo.It("keeps the known lossy singulars", func() {
		// "statuses" -> "statuse" is accepted behavior, exact resource
		// records cover such modules.
		gomega.Expect(ModuleFromResource("/api/statuses")).To(gomega.Equal("statuse"))
	})
})

var _ = ginkgo.Describe("UserModulePermissions", func() {
	ginkgo.It("should filter the granted codes down to one module", func() {
		u := activeUser(editorRole(
			datamodel.Permission{Code: "user:read", Status: datamodel.StatusActive},
			datamodel.Permission{Code: "user:update", Status: datamodel.StatusActive},
			datamodel.Permission{Code: "role:read", Status: datamodel.StatusActive},
		))

		gomega.Expect(UserModulePermissions(u, "user")).To(gomega.ConsistOf("user:read", "user:update"))
		gomega.Expect(UserModulePermissions(u, "menu")).To(gomega.BeEmpty())
	})
})

var _ = ginkgo.Describe("ActionFromMethod", func() {
	ginkgo.It("should map methods to verbs with read as default", func() {
		gomega.Expect(ActionFromMethod("GET")).To(gomega.Equal(ActionRead))
		gomega.Expect(ActionFromMethod("POST")).To(gomega.Equal(ActionCreate))
		gomega.Expect(ActionFromMethod("PUT")).To(gomega.Equal(ActionUpdate))
		gomega.Expect(ActionFromMethod("PATCH")).To(gomega.Equal(ActionUpdate))
		gomega.Expect(ActionFromMethod("DELETE")).To(gomega.Equal(ActionDelete))
		gomega.Expect(ActionFromMethod("OPTIONS")).To(gomega.Equal(ActionRead))
	})
})

var _ = ginkgo.Describe("Engine", func() {
	var (
		engine *Engine
		store  *mockStore
		ctx    context.Context
	)

	ginkgo.BeforeEach(func() {
		store = newMockStore()
		engine = NewEngine(store, nil)
		ctx = context.Background()
	})

	ginkgo.Describe("static checks", func() {
		ginkgo.It("should grant any code to a super admin", func() {
			admin := activeUser(datamodel.Role{Code: RoleSuperAdmin, Status: datamodel.StatusActive})
			gomega.Expect(engine.HasPermission(admin, "anything:at_all")).To(gomega.BeTrue())
		})

		ginkgo.It("should not bypass for an inactive admin role", func() {
			u := activeUser(datamodel.Role{Code: RoleSuperAdmin, Status: datamodel.StatusInactive})
			gomega.Expect(engine.HasPermission(u, "user:read")).To(gomega.BeFalse())
		})

		ginkgo.It("should require the code through an active role and active permission", func() {
			grant := datamodel.Permission{Code: "user:read", Status: datamodel.StatusActive}
			u := activeUser(editorRole(grant))
			gomega.Expect(engine.HasPermission(u, "user:read")).To(gomega.BeTrue())
			gomega.Expect(engine.HasPermission(u, "user:delete")).To(gomega.BeFalse())
		})

		ginkgo.It("should ignore inactive grants", func() {
			grant := datamodel.Permission{Code: "user:read", Status: datamodel.StatusInactive}
			u := activeUser(editorRole(grant))
			gomega.Expect(engine.HasPermission(u, "user:read")).To(gomega.BeFalse())
		})

		ginkgo.It("should compute the effective level as the max over roles and grants", func() {
			u := activeUser(
				datamodel.Role{Code: "a", Status: datamodel.StatusActive, Level: 3},
				datamodel.Role{Code: "b", Status: datamodel.StatusActive, Level: 1, Permissions: []datamodel.Permission{
					{Code: "x:y", Status: datamodel.StatusActive, Level: 9},
				}},
				datamodel.Role{Code: "c", Status: datamodel.StatusInactive, Level: 50},
			)
			gomega.Expect(engine.HasPermissionLevel(u, 9)).To(gomega.BeTrue())
			gomega.Expect(engine.HasPermissionLevel(u, 10)).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("dynamic checks", func() {
		ginkgo.It("should deny once the permission is disabled in the store", func() {
			grant := datamodel.Permission{Code: "user:read", Status: datamodel.StatusActive}
			u := activeUser(editorRole(grant))
			store.add(grant)

			ok, err := engine.HasDynamicPermission(ctx, u, "user:read")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())

			// Disable the stored record; the principal snapshot is unchanged.
			store.byCode["user:read"].Status = datamodel.StatusInactive

			ok, err = engine.HasDynamicPermission(ctx, u, "user:read")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("should skip the store for super admins", func() {
			store.failWith = errors.New("store down")
			admin := activeUser(datamodel.Role{Code: RoleAdmin, Status: datamodel.StatusActive})

			ok, err := engine.HasDynamicPermission(ctx, admin, "user:read")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())
		})

		ginkgo.It("should surface store errors", func() {
			store.failWith = errors.New("store down")
			u := activeUser(editorRole())

			_, err := engine.HasDynamicPermission(ctx, u, "user:read")
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("should deny a nil principal without touching the store", func() {
			store.failWith = errors.New("store down")
			ok, err := engine.HasDynamicPermission(ctx, nil, "user:read")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("should report code activity independent of any principal", func() {
			store.add(datamodel.Permission{Code: "user:read", Status: datamodel.StatusActive})
			store.add(datamodel.Permission{Code: "user:update", Status: datamodel.StatusInactive})

			ok, err := engine.IsPermissionActive(ctx, "user:read")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())

			ok, err = engine.IsPermissionActive(ctx, "user:update")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("CanAccessResourceDynamic", func() {
		ginkgo.It("should prefer an exact resource record over the heuristic", func() {
			exact := datamodel.Permission{
				Code:     "report:export",
				Resource: "/api/reports/export",
				Action:   ActionCreate,
				Status:   datamodel.StatusActive,
			}
			store.add(exact)
			u := activeUser(editorRole(exact))

			ok, err := engine.CanAccessResourceDynamic(ctx, u, "/api/reports/export", ActionCreate)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())
		})

		ginkgo.It("should fall back to the module heuristic", func() {
			grant := datamodel.Permission{Code: "user:read", Status: datamodel.StatusActive}
			store.add(grant)
			u := activeUser(editorRole(grant))

			ok, err := engine.CanAccessResourceDynamic(ctx, u, "/api/users/42", ActionRead)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())
		})

		ginkgo.It("should deny when neither path applies", func() {
			u := activeUser(editorRole())
			ok, err := engine.CanAccessResourceDynamic(ctx, u, "/metrics", ActionRead)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("UserDynamicPermissions", func() {
		ginkgo.It("should return nothing for a principal without active roles", func() {
			u := activeUser(datamodel.Role{ID: 1, Code: "x", Status: datamodel.StatusInactive})
			codes, err := engine.UserDynamicPermissions(ctx, u)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(codes).To(gomega.BeEmpty())
		})

		ginkgo.It("should list the live active codes for the role set", func() {
			store.add(datamodel.Permission{Code: "user:read", Status: datamodel.StatusActive})
			store.add(datamodel.Permission{Code: "user:update", Status: datamodel.StatusInactive})
			u := activeUser(editorRole())

			codes, err := engine.UserDynamicPermissions(ctx, u)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(codes).To(gomega.ConsistOf("user:read"))
		})
	})
})

var _ = ginkgo.Describe("Requirements", func() {
	var (
		engine *Engine
		store  *mockStore
		ctx    context.Context
		u      *datamodel.User
	)

	ginkgo.BeforeEach(func() {
		store = newMockStore()
		engine = NewEngine(store, nil)
		ctx = context.Background()

		read := datamodel.Permission{Code: "user:read", Status: datamodel.StatusActive}
		store.add(read)
		u = activeUser(editorRole(read))
	})

	ginkgo.It("should allow an empty requirement set", func() {
		gomega.Expect(engine.Authorize(ctx, u, Requirements{}, nil)).To(gomega.Succeed())
	})

	ginkgo.It("should evaluate AND across items", func() {
		rs := All(Requirement{Code: "user:read"}, Requirement{Code: "user:delete"})
		err := engine.Authorize(ctx, u, rs, nil)
		gomega.Expect(err).To(gomega.HaveOccurred())
		gomega.Expect(err.Error()).To(gomega.ContainSubstring("user:read and user:delete"))
	})

	ginkgo.It("should evaluate OR across items", func() {
		rs := Any(Requirement{Code: "user:read"}, Requirement{Code: "user:delete"})
		gomega.Expect(engine.Authorize(ctx, u, rs, nil)).To(gomega.Succeed())
	})

	ginkgo.It("should treat a failing custom check as a deny, not an error leak", func() {
		rs := All(Requirement{Custom: func(context.Context, *datamodel.User, *http.Request) (bool, error) {
			return false, errors.New("backend exploded")
		}})
		err := engine.Authorize(ctx, u, rs, nil)
		gomega.Expect(err).To(gomega.HaveOccurred())
		gomega.Expect(err.Error()).ToNot(gomega.ContainSubstring("exploded"))
	})

	ginkgo.It("should pass a succeeding custom check", func() {
		rs := All(Requirement{Custom: func(context.Context, *datamodel.User, *http.Request) (bool, error) {
			return true, nil
		}})
		gomega.Expect(engine.Authorize(ctx, u, rs, nil)).To(gomega.Succeed())
	})
})
