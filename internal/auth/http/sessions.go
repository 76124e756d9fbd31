package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/idx"
)

// SessionsHandler lets a user inspect and revoke their device sessions.
type SessionsHandler struct {
	AuthService    *service.AuthService
	SessionService *service.SessionService
}

func (h *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.SessionService.ListActive(r.Context(), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *SessionsHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	id, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed session id")
		return
	}

	if err := h.SessionService.RevokeByID(r.Context(), httpx.UserIDFromCtx(r.Context()), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "session revoked"})
}

// HandleLogoutDevice signs out one device, identified by the X-Device-Id
// header, revoking its refresh tokens and session together.
func (h *SessionsHandler) HandleLogoutDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := r.Header.Get("X-Device-Id")
	if deviceID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "the X-Device-Id header is required")
		return
	}

	if err := h.AuthService.LogoutDevice(r.Context(), httpx.UserIDFromCtx(r.Context()), deviceID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "device logged out"})
}
