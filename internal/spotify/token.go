package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// refreshMargin renews the cached token when it is within this window of
// expiring.
const refreshMargin = 30 * time.Second

// TokenSource exchanges client credentials for a bearer token and caches it
// for the process lifetime. Population happens at most once concurrently:
// callers racing on an expired token serialize on the mutex and the winner's
// result is reused.
type TokenSource struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource creates a token source. Either credential may be empty;
// Token then fails with ErrNoCredentials.
func NewTokenSource(clientID, clientSecret string) *TokenSource {
	return &TokenSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     defaultTokenURL,
		httpClient:   &http.Client{Timeout: pageTimeout},
		now:          time.Now,
	}
}

// WithTokenURL overrides the token endpoint (for testing).
func (t *TokenSource) WithTokenURL(u string) *TokenSource {
	t.tokenURL = u
	return t
}

// Configured reports whether both credentials are present.
func (t *TokenSource) Configured() bool {
	return t != nil && t.clientID != "" && t.clientSecret != ""
}

// Token returns a valid bearer token, exchanging credentials when the cache
// is empty or within refreshMargin of expiry.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	if !t.Configured() {
		return "", ErrNoCredentials
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && t.expiresAt.After(t.now().Add(refreshMargin)) {
		return t.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(t.clientID, t.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %s", ErrAPIUnavailable, resp.Status)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: token response missing access_token", ErrAPIUnavailable)
	}
	if payload.ExpiresIn <= 0 {
		payload.ExpiresIn = 3600
	}

	t.token = payload.AccessToken
	t.expiresAt = t.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return t.token, nil
}
