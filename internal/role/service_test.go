package role

import (
	"context"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/datamodel"
)

func TestRole(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Role Module Suite")
}

type fakeRepo struct {
	seq         int64
	roles       map[int64]*datamodel.Role
	users       map[int64]*datamodel.User
	permissions map[int64]*datamodel.Permission
	holders     map[int64]int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		roles:       map[int64]*datamodel.Role{},
		users:       map[int64]*datamodel.User{},
		permissions: map[int64]*datamodel.Permission{},
		holders:     map[int64]int64{},
	}
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (*datamodel.Role, error) {
	if r, ok := f.roles[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRepo) FindByCode(_ context.Context, code string) (*datamodel.Role, error) {
	for _, r := range f.roles {
		if r.Code == code {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) FindByName(_ context.Context, name string) (*datamodel.Role, error) {
	for _, r := range f.roles {
		if r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) List(_ context.Context, _ ListRolesQuery) ([]datamodel.Role, int64, error) {
	out := make([]datamodel.Role, 0, len(f.roles))
	for i := int64(1); i <= f.seq; i++ {
		if r, ok := f.roles[i]; ok {
			out = append(out, *r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) Create(_ context.Context, role *datamodel.Role) error {
	f.seq++
	role.ID = f.seq
	cp := *role
	f.roles[role.ID] = &cp
	return nil
}

func (f *fakeRepo) Save(_ context.Context, role *datamodel.Role) error {
	cp := *role
	f.roles[role.ID] = &cp
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	delete(f.roles, id)
	return nil
}

func (f *fakeRepo) CountUsers(_ context.Context, roleID int64) (int64, error) {
	return f.holders[roleID], nil
}

func (f *fakeRepo) FindPermissionsByIDs(_ context.Context, ids []int64) ([]datamodel.Permission, error) {
	var out []datamodel.Permission
	for _, id := range ids {
		if p, ok := f.permissions[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepo) ReplacePermissions(_ context.Context, role *datamodel.Role, permissions []datamodel.Permission) error {
	f.roles[role.ID].Permissions = permissions
	return nil
}

func (f *fakeRepo) FindUserByID(_ context.Context, id int64) (*datamodel.User, error) {
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRepo) FindRolesByIDs(_ context.Context, ids []int64) ([]datamodel.Role, error) {
	var out []datamodel.Role
	for _, id := range ids {
		if r, ok := f.roles[id]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ReplaceUserRoles(_ context.Context, user *datamodel.User, roles []datamodel.Role) error {
	f.users[user.ID].Roles = roles
	return nil
}

var _ = ginkgo.Describe("RoleService", func() {
	var (
		service *Service
		repo    *fakeRepo
		ctx     context.Context
	)

	ginkgo.BeforeEach(func() {
		repo = newFakeRepo()
		service = NewService(repo, nil)
		ctx = context.Background()
	})

	create := func(code, name string) *datamodel.Role {
		role, err := service.Create(ctx, CreateRoleDTO{Code: code, Name: name, Level: 10})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return role
	}

	ginkgo.Describe("Create", func() {
		ginkgo.It("should create an active role", func() {
			role := create("editor", "Editor")
			gomega.Expect(role.ID).To(gomega.BeNumerically(">", 0))
			gomega.Expect(role.Status).To(gomega.Equal(datamodel.StatusActive))
		})

		ginkgo.It("should reject a duplicate code", func() {
			create("editor", "Editor")

			_, err := service.Create(ctx, CreateRoleDTO{Code: "editor", Name: "Other"})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeDuplicateCode))
		})

		ginkgo.It("should reject a duplicate name", func() {
			create("editor", "Editor")

			_, err := service.Create(ctx, CreateRoleDTO{Code: "other", Name: "Editor"})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeDuplicateName))
		})
	})

	ginkgo.Describe("Update", func() {
		ginkgo.It("should refuse to clear the system flag of a system role", func() {
			role := create("admin2", "Admin Two")
			repo.roles[role.ID].IsSystem = true

			off := false
			_, err := service.Update(ctx, role.ID, UpdateRoleDTO{IsSystem: &off})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeSystemProtected))
		})

		ginkgo.It("should reject renaming onto an existing name", func() {
			create("editor", "Editor")
			other := create("viewer", "Viewer")

			name := "Editor"
			_, err := service.Update(ctx, other.ID, UpdateRoleDTO{Name: &name})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeDuplicateName))
		})
	})

	ginkgo.Describe("Delete", func() {
		ginkgo.It("should protect system roles", func() {
			role := create("admin2", "Admin Two")
			repo.roles[role.ID].IsSystem = true

			err := service.Delete(ctx, role.ID)
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeSystemProtected))
		})

		ginkgo.It("should refuse while users still hold the role", func() {
			role := create("editor", "Editor")
			repo.holders[role.ID] = 3

			err := service.Delete(ctx, role.ID)
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeHasDependents))
		})

		ginkgo.It("should delete an unheld role", func() {
			role := create("editor", "Editor")
			gomega.Expect(service.Delete(ctx, role.ID)).To(gomega.Succeed())

			found, err := repo.FindByID(ctx, role.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(found).To(gomega.BeNil())
		})
	})

	ginkgo.Describe("AssignPermissions", func() {
		ginkgo.It("should replace the full set", func() {
			role := create("editor", "Editor")
			repo.permissions[1] = &datamodel.Permission{ID: 1, Code: "user:read", Status: datamodel.StatusActive}
			repo.permissions[2] = &datamodel.Permission{ID: 2, Code: "user:update", Status: datamodel.StatusActive}

			err := service.AssignPermissions(ctx, role.ID, AssignPermissionsDTO{PermissionIDs: []int64{1, 2}})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(repo.roles[role.ID].Permissions).To(gomega.HaveLen(2))
		})

		ginkgo.It("should reject a reference to a missing permission", func() {
			role := create("editor", "Editor")
			repo.permissions[1] = &datamodel.Permission{ID: 1, Code: "user:read", Status: datamodel.StatusActive}

			err := service.AssignPermissions(ctx, role.ID, AssignPermissionsDTO{PermissionIDs: []int64{1, 99}})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodePermissionNotFound))
		})
	})

	ginkgo.Describe("AssignToUser", func() {
		ginkgo.BeforeEach(func() {
			repo.users[7] = &datamodel.User{ID: 7, Username: "alice", Status: datamodel.StatusActive}
		})

		ginkgo.It("should replace the user's role set", func() {
			editor := create("editor", "Editor")
			viewer := create("viewer", "Viewer")

			err := service.AssignToUser(ctx, 7, AssignRolesDTO{RoleIDs: []int64{editor.ID, viewer.ID}})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(repo.users[7].Roles).To(gomega.HaveLen(2))
		})

		ginkgo.It("should reject an unknown user", func() {
			editor := create("editor", "Editor")

			err := service.AssignToUser(ctx, 99, AssignRolesDTO{RoleIDs: []int64{editor.ID}})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeUserNotFound))
		})

		ginkgo.It("should reject an unknown role", func() {
			err := service.AssignToUser(ctx, 7, AssignRolesDTO{RoleIDs: []int64{42}})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeRoleNotFound))
		})
	})
})
