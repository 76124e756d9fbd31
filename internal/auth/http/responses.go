package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/gatekeep/internal/auth/ratelimit"
	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/internal/auth/ticket"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

// decodeJSON parses a JSON request body into dst, rejecting unknown fields
// so client typos surface as 400s instead of silently-ignored options.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return false
	}
	return true
}

// writeServiceError maps the service layer's sentinel errors onto HTTP
// statuses. Unknown errors become opaque 500s; the detail goes to the log,
// not the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrAuthenticationFailed):
		httpx.WriteError(w, http.StatusUnauthorized, "authentication_failed", "invalid username or password")
	case errors.Is(err, service.ErrMFARequired):
		httpx.WriteError(w, http.StatusUnauthorized, "mfa_required", "a TOTP code is required to complete login")
	case errors.Is(err, service.ErrInvalidTOTPCode):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_totp_code", "the TOTP code is not valid")
	case errors.Is(err, service.ErrMFANotConfigured):
		httpx.WriteError(w, http.StatusConflict, "mfa_not_configured", "TOTP has not been set up")
	case errors.Is(err, service.ErrMFAAlreadyEnabled):
		httpx.WriteError(w, http.StatusConflict, "mfa_already_enabled", "TOTP is already enabled")
	case errors.Is(err, service.ErrEmailNotVerified):
		httpx.WriteError(w, http.StatusForbidden, "email_not_verified", "verify your email before logging in")
	case errors.Is(err, service.ErrAccountDisabled):
		httpx.WriteError(w, http.StatusForbidden, "account_disabled", "this account is disabled or locked")
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, "email_taken", "username or email already in use")
	case errors.Is(err, service.ErrCodeInvalid):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_verification_code", "the verification code is wrong or expired")
	case errors.Is(err, service.ErrResetTokenInvalid):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_reset_token", "the password token is wrong, used, or expired")
	case errors.Is(err, service.ErrPasswordTooShort):
		httpx.WriteError(w, http.StatusBadRequest, "password_too_short", "passwords must be at least 8 characters")
	case errors.Is(err, service.ErrTokenInvalid):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "the token is not recognised")
	case errors.Is(err, service.ErrTokenRevoked):
		httpx.WriteError(w, http.StatusUnauthorized, "token_revoked", "the token has been revoked")
	case errors.Is(err, service.ErrTokenExpired):
		httpx.WriteError(w, http.StatusUnauthorized, "token_expired", "the token has expired")
	case errors.Is(err, service.ErrSessionNotFound):
		httpx.WriteError(w, http.StatusNotFound, "session_not_found", "no such session")
	case errors.Is(err, service.ErrNotSessionOwner):
		httpx.WriteError(w, http.StatusForbidden, "not_session_owner", "the session belongs to another user")
	case errors.Is(err, ratelimit.ErrRateLimited):
		retry := int64(60)
		var lerr *ratelimit.LimitError
		if errors.As(err, &lerr) {
			retry = int64(lerr.RetryAfter.Seconds())
		}
		w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
		httpx.WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "too many attempts, try again later")
	case errors.Is(err, ticket.ErrMissing):
		httpx.WriteError(w, http.StatusUnauthorized, "missing_ticket", "no ticket was provided")
	case errors.Is(err, ticket.ErrInvalid):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_ticket", "the ticket is invalid or already used")
	case errors.Is(err, ticket.ErrExpired):
		httpx.WriteError(w, http.StatusUnauthorized, "ticket_expired", "the ticket has expired")
	default:
		slogx.FromContext(r.Context()).Error("internal error", "err", err, "path", r.URL.Path)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}
