package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
)

// RefreshTokenCookie carries the opaque refresh token, scoped to the
// refresh and logout paths only so it never rides along on normal calls.
const RefreshTokenCookie = "refresh_token"

// CookieConfig controls the auth cookie attributes. Secure should only be
// false in local development.
type CookieConfig struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite

	// RefreshPath scopes the refresh cookie, e.g. "/v1/auth".
	RefreshPath string
}

// setAuthCookies writes both token cookies. HttpOnly throughout: the
// frontend never reads tokens from script.
func setAuthCookies(w http.ResponseWriter, c CookieConfig, pair *domain.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     httpx.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(jwtx.DefaultAccessTokenTTL / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     c.RefreshPath,
		Domain:   c.Domain,
		MaxAge:   int(jwtx.DefaultRefreshTokenTTL / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

// clearAuthCookies expires both cookies on logout.
func clearAuthCookies(w http.ResponseWriter, c CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     httpx.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    "",
		Path:     c.RefreshPath,
		Domain:   c.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

// refreshTokenFromRequest reads the refresh token from the cookie first,
// then falls back to a JSON body field for non-browser clients.
func refreshTokenFromRequest(r *http.Request, bodyToken string) string {
	if c, err := r.Cookie(RefreshTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return bodyToken
}
