package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPMailer sends transactional mail through the mailer service.
type HTTPMailer struct {
	BaseURL    string
	HTTPClient *http.Client

	InternalCredential string
}

func NewHTTPMailer(baseURL, internalCredential string) *HTTPMailer {
	return &HTTPMailer{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		InternalCredential: internalCredential,
	}
}

func (m *HTTPMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	return m.send(ctx, "/v1/internal/mail/verification", map[string]string{
		"email": email,
		"code":  code,
	})
}

func (m *HTTPMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	return m.send(ctx, "/v1/internal/mail/password-reset", map[string]string{
		"email": email,
		"token": token,
	})
}

func (m *HTTPMailer) send(ctx context.Context, path string, body map[string]string) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("X-Internal-Credential", m.InternalCredential)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// HTTPNotifier raises login alerts through the notification service.
type HTTPNotifier struct {
	BaseURL    string
	HTTPClient *http.Client

	InternalCredential string
}

func NewHTTPNotifier(baseURL, internalCredential string) *HTTPNotifier {
	return &HTTPNotifier{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		InternalCredential: internalCredential,
	}
}

func (n *HTTPNotifier) NotifyLogin(ctx context.Context, userID int64, deviceID, ip string) error {
	raw, err := json.Marshal(map[string]any{
		"user_id":   userID,
		"device_id": deviceID,
		"ip":        ip,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		n.BaseURL+"/v1/internal/notifications/login", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("X-Internal-Credential", n.InternalCredential)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}
