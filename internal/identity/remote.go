package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RemoteVerifier asks an external identity service who owns a token.
type RemoteVerifier struct {
	BaseURL string
	HTTP    *http.Client
}

type verifyResponse struct {
	UID     string `json:"uid"`
	Subject string `json:"sub"`
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(v.BaseURL), "/")
	if base == "" {
		return "", errors.New("identity base url is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/v1/auth/verify", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", ErrInvalidToken
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("identity verify http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out verifyResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return "", err
	}
	sub := strings.TrimSpace(out.UID)
	if sub == "" {
		sub = strings.TrimSpace(out.Subject)
	}
	if sub == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return sub, nil
}

func (v *RemoteVerifier) httpClient() *http.Client {
	if v.HTTP != nil {
		return v.HTTP
	}
	return &http.Client{Timeout: 5 * time.Second}
}
