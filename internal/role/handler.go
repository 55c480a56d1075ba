package role

import (
	"encoding/json"
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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.NewBadRequestError("invalid request body", internal.ErrCodeBadRequest))
		return
	}

	role, err := h.service.Create(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, role)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := ListRolesQuery{
		Status:  r.URL.Query().Get("status"),
		Keyword: r.URL.Query().Get("keyword"),
	}
	query.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	query.PageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))

	roles, total, err := h.service.List(r.Context(), query)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]any{
		"items": roles,
		"total": total,
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	var dto UpdateRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.NewBadRequestError("invalid request body", internal.ErrCodeBadRequest))
		return
	}

	role, err := h.service.Update(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "role deleted"})
}

func (h *Handler) AssignPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	var dto AssignPermissionsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.NewBadRequestError("invalid request body", internal.ErrCodeBadRequest))
		return
	}

	if err := h.service.AssignPermissions(r.Context(), id, dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "permissions assigned"})
}

func (h *Handler) AssignToUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		h.WriteAppError(w, internal.NewBadRequestError("invalid user id", internal.ErrCodeBadRequest))
		return
	}

	var dto AssignRolesDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.NewBadRequestError("invalid request body", internal.ErrCodeBadRequest))
		return
	}

	if err := h.service.AssignToUser(r.Context(), userID, dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "roles assigned"})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, internal.NewBadRequestError("invalid role id", internal.ErrCodeBadRequest)
	}
	return id, nil
}
