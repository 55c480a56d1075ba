package user

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	service *Service
}

func NewHandler(base *transport.BaseHandler, service *Service) *Handler {
	return &Handler{BaseHandler: base, service: service}
}

// Me returns the authenticated principal's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrNotAuthenticated)
		return
	}
	h.WriteJSON(w, http.StatusOK, h.service.Profile(principal))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteAppError(w, internal.NewBadRequestError("invalid user id", internal.ErrCodeBadRequest))
		return
	}

	profile, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := ListUsersQuery{
		Status:  r.URL.Query().Get("status"),
		Keyword: r.URL.Query().Get("keyword"),
	}
	query.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	query.PageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))

	users, total, err := h.service.List(r.Context(), query)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]any{
		"items": users,
		"total": total,
	})
}
