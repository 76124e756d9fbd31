package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/internal/auth/ticket"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
)

// InternalCredentialHeader authenticates service-to-service calls on the
// /v1/internal surface. The gateway never forwards this header from
// outside traffic.
const InternalCredentialHeader = "X-Internal-Credential"

// InternalAuthMiddleware rejects requests that don't carry the shared
// internal credential.
func InternalAuthMiddleware(credential string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(InternalCredentialHeader)
			if credential == "" ||
				subtle.ConstantTimeCompare([]byte(got), []byte(credential)) != 1 {
				httpx.WriteError(w, http.StatusUnauthorized, "invalid_internal_credential",
					"missing or wrong internal credential")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// InternalHandler serves the endpoints other backend services call.
type InternalHandler struct {
	TokenService *service.TokenService
	Broker       *ticket.Broker
}

// HandleValidate checks an access token on behalf of a backend service
// that received one out-of-band.
func (h *InternalHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	claims, err := h.TokenService.Validate(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":     claims.UserID,
		"username":    claims.Subject,
		"roles":       claims.Roles,
		"permissions": claims.Permissions,
		"expires_at":  claims.ExpiresAt,
	})
}

// HandleConsumeTicket redeems a WebSocket ticket during the realtime
// service's upgrade handshake.
func (h *InternalHandler) HandleConsumeTicket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ticket string `json:"ticket"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.Broker.Consume(r.Context(), req.Ticket)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":  t.UserID,
		"username": t.Username,
	})
}
