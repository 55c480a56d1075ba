package auth

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

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

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.NewBadRequestError("invalid request body", internal.ErrCodeBadRequest))
		return
	}

	pair, err := h.service.Register(r.Context(), dto, clientIP(r))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, pair)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.NewBadRequestError("invalid request body", internal.ErrCodeBadRequest))
		return
	}

	pair, err := h.service.Login(r.Context(), dto, clientIP(r))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, pair)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.NewBadRequestError("invalid request body", internal.ErrCodeBadRequest))
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed))
		return
	}

	pair, err := h.service.Refresh(r.Context(), dto.RefreshToken)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, pair)
}

// Logout tears down the caller's session. It always responds 200: teardown
// failures are logged server side, never surfaced.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrNotAuthenticated)
		return
	}

	var dto LogoutDTO
	if r.Body != nil {
		// body is optional; a missing refresh token still clears the session
		_ = json.NewDecoder(r.Body).Decode(&dto)
	}

	accessToken := internal.AccessTokenFromContext(r.Context())
	h.service.Logout(r.Context(), user.ID, accessToken, dto.RefreshToken)
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// clientIP prefers the forwarding headers set by the edge proxy and falls
// back to the socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
