package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/access-management/internal/transport"
)

var _ = ginkgo.Describe("AuthHandler", func() {
	var (
		handler  *Handler
		service  *Service
		mockRepo *mockUserRepository
		cache    *mockTokenCache
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockUserRepository()
		cache = newMockTokenCache()
		tokens := NewJWTTokenService("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
		service = NewService(mockRepo, tokens, cache, 15*time.Minute, 24*time.Hour, bcrypt.MinCost, nil)
		handler = NewHandler(transport.NewBaseHandler(nil), service)
		ctx = context.Background()
	})

	ginkgo.Describe("Logout", func() {
		// The logout route sits behind the authentication middleware, which
		// puts the presented bearer token on the context for the handler.
		logout := func(pair *TokenPair, body string) *httptest.ResponseRecorder {
			recorder := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", strings.NewReader(body))
			req.Header.Set("Authorization", "Bearer "+pair.AccessToken)

			Middleware(handler.BaseHandler, service)(http.HandlerFunc(handler.Logout)).ServeHTTP(recorder, req)
			return recorder
		}

		ginkgo.It("should blacklist the exact token the caller presented", func() {
			// Given
			pair, err := service.Login(ctx, LoginDTO{Username: "alice", Password: "correct_password"}, "")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			// When
			recorder := logout(pair, `{"refresh_token":"`+pair.RefreshToken+`"}`)

			// Then
			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(cache.blacklist[pair.AccessToken]).To(gomega.BeTrue())
			gomega.Expect(cache.blacklist[pair.RefreshToken]).To(gomega.BeTrue())
			gomega.Expect(cache.sessions).ToNot(gomega.HaveKey(int64(1)))
		})

		ginkgo.It("should clear the session even without a request body", func() {
			pair, err := service.Login(ctx, LoginDTO{Username: "alice", Password: "correct_password"}, "")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			recorder := logout(pair, "")

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(cache.blacklist[pair.AccessToken]).To(gomega.BeTrue())
			gomega.Expect(cache.sessions).ToNot(gomega.HaveKey(int64(1)))
			gomega.Expect(cache.refresh).ToNot(gomega.HaveKey(int64(1)))
		})
	})
})
