package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
)

// TokenHandler serves the refresh, logout and identity endpoints.
type TokenHandler struct {
	AuthService *service.AuthService
	Cookies     CookieConfig
}

func (h *TokenHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	// Body is optional when the cookie is present.
	if r.Body != nil && r.ContentLength > 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	raw := refreshTokenFromRequest(r, req.RefreshToken)
	if raw == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "a refresh token is required")
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), raw)
	if err != nil {
		clearAuthCookies(w, h.Cookies)
		writeServiceError(w, r, err)
		return
	}

	setAuthCookies(w, h.Cookies, pair)
	httpx.WriteJSON(w, http.StatusOK, pair)
}

func (h *TokenHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if r.Body != nil && r.ContentLength > 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	if raw := refreshTokenFromRequest(r, req.RefreshToken); raw != "" {
		if err := h.AuthService.Logout(r.Context(), raw); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	// Cookies are cleared even when no token was presented; logout never
	// fails from the client's point of view.
	clearAuthCookies(w, h.Cookies)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *TokenHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())

	if err := h.AuthService.LogoutAll(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	clearAuthCookies(w, h.Cookies)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out everywhere"})
}

func (h *TokenHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(httpx.CtxKeyClaims).(*jwtx.Claims)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "no claims in context")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, domain.UserInfo{
		ID:          claims.UserID,
		Username:    claims.Subject,
		Roles:       claims.Roles,
		Permissions: claims.Permissions,
	})
}

func toUserInfo(u domain.User) domain.UserInfo {
	return domain.UserInfo{
		ID:          u.ID,
		Username:    u.Username,
		Roles:       u.Roles,
		Permissions: u.Permissions,
	}
}
