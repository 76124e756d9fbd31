package gateway

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

// Trusted identity headers injected for downstream services. Anything the
// client sends under these names is stripped before forwarding.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUsername = "X-Username"
)

// AuthFilter authenticates every request at the edge. Token validation is
// local: signature and expiry are checked against the shared secret with no
// callback to the auth service.
type AuthFilter struct {
	Verifier    jwtx.Verifier
	Permissions *PermissionTable

	// PublicPrefixes bypass authentication entirely (health checks,
	// login/registration, static uploads).
	PublicPrefixes []string
}

func (f *AuthFilter) public(path string) bool {
	for _, p := range f.PublicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Middleware wraps next with the authentication and authorization checks.
func (f *AuthFilter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.public(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		log := slogx.FromContext(r.Context())

		// Browsers can't attach Authorization to every request; fall back
		// to the access token cookie.
		authz := r.Header.Get("Authorization")
		if authz == "" {
			if c, err := r.Cookie(httpx.AccessTokenCookie); err == nil && c.Value != "" {
				authz = "Bearer " + c.Value
			}
		}

		raw, ok := strings.CutPrefix(authz, "Bearer ")
		if !ok || raw == "" {
			httpx.WriteError(w, http.StatusForbidden, "missing_token",
				"a bearer token is required")
			return
		}

		claims, err := f.Verifier.Verify(raw)
		if err != nil {
			log.Warn("gateway: token rejected", "err", err, "path", r.URL.Path)
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token",
				"the token could not be verified")
			return
		}

		if required, mapped := f.Permissions.Required(r.Method, r.URL.Path); mapped {
			if !claims.HasPermission(required) {
				log.Warn("gateway: permission denied",
					"user", claims.Subject,
					"required", required,
					"method", r.Method,
					"path", r.URL.Path,
				)
				httpx.WriteError(w, http.StatusForbidden, "permission_denied",
					"insufficient permissions")
				return
			}
		}

		// Downstream services trust these headers, so client-supplied
		// values must never survive.
		r.Header.Del(HeaderUserID)
		r.Header.Del(HeaderUsername)
		r.Header.Set(HeaderUserID, strconv.FormatInt(claims.UserID, 10))
		r.Header.Set(HeaderUsername, claims.Subject)

		next.ServeHTTP(w, r)
	})
}
