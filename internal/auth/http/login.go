package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
)

// LoginHandler serves POST /v1/auth/login.
type LoginHandler struct {
	AuthService *service.AuthService
	Cookies     CookieConfig
}

func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		TOTPCode string `json:"totp_code"`
		DeviceID string `json:"device_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	res, err := h.AuthService.Login(r.Context(), service.LoginRequest{
		Username:  req.Username,
		Password:  req.Password,
		TOTPCode:  req.TOTPCode,
		DeviceID:  req.DeviceID,
		IP:        httpx.IPKeyExtractor(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Browser clients get cookies; the body carries the same pair for
	// native clients that manage their own storage.
	setAuthCookies(w, h.Cookies, res.Tokens)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"tokens":  res.Tokens,
		"user":    toUserInfo(res.User),
		"session": res.Session.ID,
	})
}
