package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
)

// MFAHandler serves TOTP enrollment for the authenticated user.
type MFAHandler struct {
	MFAService *service.MFAService
}

func (h *MFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())
	username := httpx.UsernameFromCtx(r.Context())

	setup, err := h.MFAService.Setup(r.Context(), userID, username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, setup)
}

func (h *MFAHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := httpx.UserIDFromCtx(r.Context())
	if err := h.MFAService.Confirm(r.Context(), userID, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "MFA enabled"})
}

func (h *MFAHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.MFAService.Status(r.Context(), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, status)
}

func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := httpx.UserIDFromCtx(r.Context())
	if err := h.MFAService.Disable(r.Context(), userID, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "MFA disabled"})
}
