package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
)

// RegisterHandler serves the public signup flow: account creation, email
// verification, and code resend.
type RegisterHandler struct {
	AuthService *service.AuthService
}

func (h *RegisterHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" || !strings.Contains(req.Email, "@") {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "username and a valid email are required")
		return
	}

	if err := h.AuthService.Register(r.Context(), req.Username, req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "verification code sent",
	})
}

func (h *RegisterHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and code are required")
		return
	}

	passwordToken, err := h.AuthService.VerifyEmail(r.Context(), strings.ToLower(req.Email), req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// The password token lets the user set their first password; it is
	// single use and expires in a day.
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"password_token": passwordToken,
	})
}

func (h *RegisterHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.AuthService.ResendVerification(r.Context(), strings.ToLower(req.Email), httpx.IPKeyExtractor(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "if the address is registered, a code has been sent",
	})
}

func (h *RegisterHandler) HandleEmailAvailable(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	if email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email query parameter is required")
		return
	}

	available, err := h.AuthService.EmailAvailable(r.Context(), email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"available": available})
}
