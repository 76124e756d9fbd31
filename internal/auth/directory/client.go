package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
)

// HTTPDirectory talks to the user directory service's internal API. The
// internal credential header gates those endpoints off from public
// traffic.
type HTTPDirectory struct {
	BaseURL    string
	HTTPClient *http.Client

	// InternalCredential is sent as X-Internal-Credential on every call.
	InternalCredential string
}

func NewHTTPDirectory(baseURL, internalCredential string) *HTTPDirectory {
	return &HTTPDirectory{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		InternalCredential: internalCredential,
	}
}

func (d *HTTPDirectory) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return d.getUser(ctx, fmt.Sprintf("/v1/internal/users/%d", id))
}

func (d *HTTPDirectory) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return d.getUser(ctx, "/v1/internal/users/by-username/"+url.PathEscape(username))
}

func (d *HTTPDirectory) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return d.getUser(ctx, "/v1/internal/users/by-email/"+url.PathEscape(email))
}

func (d *HTTPDirectory) Create(ctx context.Context, u NewUser) (domain.User, error) {
	resp, err := d.doRequest(ctx, http.MethodPost, "/v1/internal/users", u)
	if err != nil {
		return domain.User{}, err
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return domain.User{}, err
	}

	var created domain.User
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return domain.User{}, fmt.Errorf("decode user: %w", err)
	}
	return created, nil
}

func (d *HTTPDirectory) SetPasswordHash(ctx context.Context, userID int64, hash string) error {
	resp, err := d.doRequest(ctx, http.MethodPut,
		fmt.Sprintf("/v1/internal/users/%d/password", userID),
		map[string]string{"password_hash": hash},
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return mapStatus(resp.StatusCode)
}

func (d *HTTPDirectory) MarkEmailVerified(ctx context.Context, userID int64) error {
	resp, err := d.doRequest(ctx, http.MethodPut,
		fmt.Sprintf("/v1/internal/users/%d/email-verified", userID), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return mapStatus(resp.StatusCode)
}

func (d *HTTPDirectory) getUser(ctx context.Context, path string) (domain.User, error) {
	resp, err := d.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.User{}, err
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return domain.User{}, err
	}

	var u domain.User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return domain.User{}, fmt.Errorf("decode user: %w", err)
	}
	return u, nil
}

func (d *HTTPDirectory) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.BaseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Internal-Credential", d.InternalCredential)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func mapStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrUserNotFound
	case code == http.StatusConflict:
		return ErrConflict
	default:
		return fmt.Errorf("%w: status %d", ErrUnavailable, code)
	}
}
