package permission

import (
	"context"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/datamodel"
)

// fakeRepo is an in-memory Repository for exercising the CRUD and tree
// rules without a database.
type fakeRepo struct {
	mockStore
	seq   int64
	perms map[int64]*datamodel.Permission
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		mockStore: *newMockStore(),
		perms:     map[int64]*datamodel.Permission{},
	}
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (*datamodel.Permission, error) {
	if p, ok := f.perms[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRepo) FindByCodeAny(_ context.Context, code string) (*datamodel.Permission, error) {
	for _, p := range f.perms {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) List(_ context.Context, q ListPermissionsQuery) ([]datamodel.Permission, int64, error) {
	all, _ := f.ListAll(context.Background())
	return all, int64(len(all)), nil
}

func (f *fakeRepo) ListAll(_ context.Context) ([]datamodel.Permission, error) {
	out := make([]datamodel.Permission, 0, len(f.perms))
	for i := int64(1); i <= f.seq; i++ {
		if p, ok := f.perms[i]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, perm *datamodel.Permission) error {
	f.seq++
	perm.ID = f.seq
	cp := *perm
	f.perms[perm.ID] = &cp
	return nil
}

func (f *fakeRepo) Save(_ context.Context, perm *datamodel.Permission) error {
	cp := *perm
	f.perms[perm.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdatePath(_ context.Context, id int64, path string) error {
	f.perms[id].Path = path
	return nil
}

func (f *fakeRepo) UpdateStatusByCode(_ context.Context, code, status string) (int64, error) {
	for _, p := range f.perms {
		if p.Code == code {
			p.Status = status
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	delete(f.perms, id)
	return nil
}

func (f *fakeRepo) CountChildren(_ context.Context, id int64) (int64, error) {
	var n int64
	for _, p := range f.perms {
		if p.ParentID != nil && *p.ParentID == id {
			n++
		}
	}
	return n, nil
}

var _ = ginkgo.Describe("PermissionService", func() {
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

	create := func(module, action string, parentID *int64) *datamodel.Permission {
		p, err := service.Create(ctx, CreatePermissionDTO{
			Name: module + " " + action, Module: module, Action: action, ParentID: parentID,
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return p
	}

	ginkgo.Describe("Create", func() {
		ginkgo.It("should derive the code and materialize the path", func() {
			p := create("user", "read", nil)
			gomega.Expect(p.Code).To(gomega.Equal("user:read"))
			gomega.Expect(p.Path).To(gomega.Equal("1"))
			gomega.Expect(p.Status).To(gomega.Equal(datamodel.StatusActive))
		})

		ginkgo.It("should chain the parent path", func() {
			parent := create("user", "manage", nil)
			child := create("user", "read", &parent.ID)
			gomega.Expect(child.Path).To(gomega.Equal("1,2"))
		})

		ginkgo.It("should reject a duplicate code with a conflict", func() {
			create("user", "read", nil)
			_, err := service.Create(ctx, CreatePermissionDTO{Name: "again", Module: "user", Action: "read"})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeDuplicateCode))
		})

		ginkgo.It("should reject a missing parent", func() {
			missing := int64(99)
			_, err := service.Create(ctx, CreatePermissionDTO{Name: "p", Module: "user", Action: "read", ParentID: &missing})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeInvalidParent))
		})

		ginkgo.It("should reject a module or action that breaks the code format", func() {
			_, err := service.Create(ctx, CreatePermissionDTO{Name: "p", Module: "1user", Action: "read"})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("Update", func() {
		ginkgo.It("should refuse clearing the system flag of a system permission", func() {
			p := create("user", "read", nil)
			repo.perms[p.ID].IsSystem = true

			no := false
			_, err := service.Update(ctx, p.ID, UpdatePermissionDTO{IsSystem: &no})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeSystemProtected))
		})

		ginkgo.It("should reparent and rebuild the path", func() {
			a := create("a", "manage", nil)
			b := create("b", "manage", nil)

			updated, err := service.Update(ctx, b.ID, UpdatePermissionDTO{ParentID: &a.ID})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(*updated.ParentID).To(gomega.Equal(a.ID))
			gomega.Expect(updated.Path).To(gomega.Equal("1,2"))
		})

		ginkgo.It("should detach on parent id zero", func() {
			a := create("a", "manage", nil)
			b := create("b", "manage", &a.ID)

			zero := int64(0)
			updated, err := service.Update(ctx, b.ID, UpdatePermissionDTO{ParentID: &zero})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.ParentID).To(gomega.BeNil())
			gomega.Expect(updated.Path).To(gomega.Equal("2"))
		})

		ginkgo.It("should reject self-parenting", func() {
			a := create("a", "manage", nil)
			_, err := service.Update(ctx, a.ID, UpdatePermissionDTO{ParentID: &a.ID})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeCircularReference))
		})

		ginkgo.It("should reject a move that closes a cycle", func() {
			a := create("a", "manage", nil)
			b := create("b", "manage", &a.ID)
			c := create("c", "manage", &b.ID)

			// a under c would make a its own ancestor
			_, err := service.Update(ctx, a.ID, UpdatePermissionDTO{ParentID: &c.ID})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeCircularReference))
		})
	})

	ginkgo.Describe("Delete", func() {
		ginkgo.It("should refuse deleting a system permission", func() {
			p := create("user", "read", nil)
			repo.perms[p.ID].IsSystem = true

			err := service.Delete(ctx, p.ID)
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeSystemProtected))
		})

		ginkgo.It("should refuse deleting a node with children", func() {
			a := create("a", "manage", nil)
			create("b", "manage", &a.ID)

			err := service.Delete(ctx, a.ID)
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeHasDependents))
		})

		ginkgo.It("should delete a leaf", func() {
			a := create("a", "manage", nil)
			b := create("b", "manage", &a.ID)

			gomega.Expect(service.Delete(ctx, b.ID)).To(gomega.Succeed())
			gomega.Expect(service.Delete(ctx, a.ID)).To(gomega.Succeed())
		})
	})

	ginkgo.Describe("Enable and Disable", func() {
		ginkgo.It("should report whether a row was touched", func() {
			create("user", "read", nil)

			found, err := service.Disable(ctx, "user:read")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(found).To(gomega.BeTrue())

			found, err = service.Enable(ctx, "ghost:read")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(found).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("Tree", func() {
		ginkgo.It("should assemble the forest from the adjacency list", func() {
			a := create("a", "manage", nil)
			b := create("b", "manage", &a.ID)
			create("c", "manage", &b.ID)
			create("d", "manage", nil)

			tree, err := service.Tree(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(tree).To(gomega.HaveLen(2))
			gomega.Expect(tree[0].Children).To(gomega.HaveLen(1))
			gomega.Expect(tree[0].Children[0].Children).To(gomega.HaveLen(1))
			gomega.Expect(tree[1].Children).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("Ensure", func() {
		ginkgo.It("should create when absent and return the existing one after", func() {
			p1, err := service.Ensure(ctx, "report", "read", "report read", "", "")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			p2, err := service.Ensure(ctx, "report", "read", "ignored", "", "")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p2.ID).To(gomega.Equal(p1.ID))
		})
	})
})
