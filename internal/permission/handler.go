package permission

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/access-management/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(base *transport.BaseHandler, svc *Service) *Handler {
	return &Handler{
		BaseHandler: base,
		Service:     svc,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreatePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	perm, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, perm)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := ListPermissionsQuery{
		Module: r.URL.Query().Get("module"),
		Status: r.URL.Query().Get("status"),
		Name:   r.URL.Query().Get("name"),
	}
	q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	perms, total, err := h.Service.List(r.Context(), q)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": perms,
		"total": total,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid permission id")
		return
	}

	perm, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, perm)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid permission id")
		return
	}

	var dto UpdatePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	perm, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, perm)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid permission id")
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.Service.Tree(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, tree)
}

func (h *Handler) Enable(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	updated, err := h.Service.Enable(r.Context(), code)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	if !updated {
		h.WriteError(w, http.StatusNotFound, "permission not found")
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"code": code, "status": "active"})
}

func (h *Handler) Disable(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	updated, err := h.Service.Disable(r.Context(), code)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	if !updated {
		h.WriteError(w, http.StatusNotFound, "permission not found")
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"code": code, "status": "inactive"})
}
