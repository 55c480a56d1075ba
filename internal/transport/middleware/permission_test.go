package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/datamodel"
	"github.com/frahmantamala/access-management/internal/permission"
	"github.com/frahmantamala/access-management/internal/transport"
)

func TestMiddleware(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Transport Middleware Suite")
}

type staticStore struct {
	active      map[string]*datamodel.Permission
	byResource  map[string]*datamodel.Permission
	resourceLog []string
}

func (s *staticStore) FindByCode(_ context.Context, code, _ string) (*datamodel.Permission, error) {
	return s.active[code], nil
}

func (s *staticStore) FindByResourceAction(_ context.Context, resource, action, _ string) (*datamodel.Permission, error) {
	s.resourceLog = append(s.resourceLog, resource+" "+action)
	return s.byResource[resource+"|"+action], nil
}

func (s *staticStore) FindForRoleIDs(_ context.Context, _ []int64, _ string) ([]datamodel.Permission, error) {
	return nil, nil
}

var _ = ginkgo.Describe("Authorize", func() {
	var (
		base     *transport.BaseHandler
		store    *staticStore
		engine   *permission.Engine
		recorder *httptest.ResponseRecorder
		reached  bool
		next     http.Handler
	)

	permCode := "user:read"

	userWith := func(status string, codes ...string) *datamodel.User {
		perms := make([]datamodel.Permission, len(codes))
		for i, c := range codes {
			perms[i] = datamodel.Permission{Code: c, Status: datamodel.StatusActive}
		}
		return &datamodel.User{
			ID:     1,
			Status: status,
			Roles: []datamodel.Role{
				{ID: 1, Code: "viewer", Status: datamodel.StatusActive, Permissions: perms},
			},
		}
	}

	serve := func(principal *datamodel.User, rs permission.Requirements) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
		if principal != nil {
			req = req.WithContext(internal.ContextWithPrincipal(req.Context(), principal))
		}
		Authorize(base, engine, rs)(next).ServeHTTP(recorder, req)
	}

	ginkgo.BeforeEach(func() {
		base = transport.NewBaseHandler(nil)
		store = &staticStore{
			active: map[string]*datamodel.Permission{
				permCode: {ID: 1, Code: permCode, Status: datamodel.StatusActive},
			},
			byResource: map[string]*datamodel.Permission{},
		}
		engine = permission.NewEngine(store, nil)
		recorder = httptest.NewRecorder()
		reached = false
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			w.WriteHeader(http.StatusOK)
		})
	})

	ginkgo.It("should reject a request with no principal", func() {
		// Given no authentication middleware ran
		serve(nil, permission.Require(permCode))

		// Then the gate denies before the engine is consulted
		gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(recorder.Body.String()).To(gomega.ContainSubstring(string(internal.ErrCodeNotAuthenticated)))
		gomega.Expect(reached).To(gomega.BeFalse())
	})

	ginkgo.It("should reject a disabled principal", func() {
		serve(userWith(datamodel.StatusInactive, permCode), permission.Require(permCode))

		gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(recorder.Body.String()).To(gomega.ContainSubstring(string(internal.ErrCodeAccountDisabled)))
		gomega.Expect(reached).To(gomega.BeFalse())
	})

	ginkgo.It("should deny a principal lacking the required code", func() {
		serve(userWith(datamodel.StatusActive), permission.Require(permCode))

		gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(recorder.Body.String()).To(gomega.ContainSubstring(permCode))
		gomega.Expect(reached).To(gomega.BeFalse())
	})

	ginkgo.It("should pass a principal holding the required code", func() {
		serve(userWith(datamodel.StatusActive, permCode), permission.Require(permCode))

		gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(reached).To(gomega.BeTrue())
	})

	ginkgo.It("should let everyone through an empty requirement set", func() {
		serve(userWith(datamodel.StatusActive), permission.Requirements{})

		gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(reached).To(gomega.BeTrue())
	})

	ginkgo.It("should name every missing capability in the deny message", func() {
		rs := permission.All(
			permission.Requirement{Code: "user:read"},
			permission.Requirement{Code: "user:delete"},
		)
		serve(userWith(datamodel.StatusActive, "user:read"), rs)

		gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusForbidden))
		body := recorder.Body.String()
		gomega.Expect(strings.Contains(body, "user:read and user:delete")).To(gomega.BeTrue())
	})

	ginkgo.Describe("resource requirements", func() {
		// serveRoute goes through a real chi router so the gate sees the
		// matched route pattern and captured params.
		serveRoute := func(method, target string, principal *datamodel.User, rs permission.Requirements) {
			router := chi.NewRouter()
			router.With(Authorize(base, engine, rs)).MethodFunc(method, "/api/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
				reached = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(method, target, nil)
			req = req.WithContext(internal.ContextWithPrincipal(req.Context(), principal))
			router.ServeHTTP(recorder, req)
		}

		ginkgo.It("should substitute route params into the resource template", func() {
			store.byResource["/api/posts/42|read"] = &datamodel.Permission{
				ID: 2, Code: "post:read", Status: datamodel.StatusActive,
			}
			rs := permission.All(permission.Requirement{
				CheckResource: true,
				Resource:      "/api/posts/:id",
				ResourceParam: "id",
			})

			serveRoute(http.MethodGet, "/api/posts/42", userWith(datamodel.StatusActive, "post:read"), rs)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(reached).To(gomega.BeTrue())
			gomega.Expect(store.resourceLog).To(gomega.ContainElement("/api/posts/42 read"))
		})

		ginkgo.It("should resolve the matched route pattern when no template is set", func() {
			store.byResource["/api/posts/42|read"] = &datamodel.Permission{
				ID: 2, Code: "post:read", Status: datamodel.StatusActive,
			}

			serveRoute(http.MethodGet, "/api/posts/42", userWith(datamodel.StatusActive, "post:read"), permission.RequireResource("", "id"))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(store.resourceLog).To(gomega.ContainElement("/api/posts/42 read"))
		})

		ginkgo.It("should infer the action from the method and deny a missing grant", func() {
			serveRoute(http.MethodDelete, "/api/posts/42", userWith(datamodel.StatusActive, "post:read"), permission.RequireResource("", "id"))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(reached).To(gomega.BeFalse())
			gomega.Expect(store.resourceLog).To(gomega.ContainElement("/api/posts/42 delete"))
		})
	})
})
