package spotify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultOEmbedURL = "https://open.spotify.com/oembed"
	defaultAPIURL    = "https://api.spotify.com/v1"
	defaultTokenURL  = "https://accounts.spotify.com/api/token"

	pageTimeout = 15 * time.Second
	apiTimeout  = 20 * time.Second

	browserUA = "Mozilla/5.0"
)

// OEmbed is the lightweight embed metadata Spotify serves for any item URL.
// A zero value means the lookup failed or returned nothing usable.
type OEmbed struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
	Type         string `json:"type"`
}

// Client fetches Spotify's public surfaces. Page and oEmbed lookups are
// best-effort: any transport or decode failure yields an empty result, not
// an error, because resolution must degrade instead of failing.
type Client struct {
	httpClient *http.Client
	oembedURL  string
	apiURL     string
	tokens     *TokenSource
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithOEmbedURL overrides the oEmbed endpoint (for testing).
func WithOEmbedURL(u string) Option {
	return func(c *Client) { c.oembedURL = u }
}

// WithAPIURL overrides the Web API base URL (for testing).
func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = u }
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log.With("component", "spotify") }
}

// New creates a Spotify client. tokens may be nil when the Web API is not
// configured; API-backed calls then fail with ErrNoCredentials.
func New(tokens *TokenSource, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: apiTimeout},
		oembedURL:  defaultOEmbedURL,
		apiURL:     defaultAPIURL,
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPage retrieves an item's public page markup. Returns nil on any
// failure; callers treat a nil page as "no structured data available".
func (c *Client) FetchPage(ctx context.Context, pageURL string) []byte {
	ctx, cancel := context.WithTimeout(ctx, pageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return body
}

// GetOEmbed looks up embed metadata for an item URL. Returns a zero OEmbed
// on any failure.
func (c *Client) GetOEmbed(ctx context.Context, itemURL string) OEmbed {
	ctx, cancel := context.WithTimeout(ctx, pageTimeout)
	defer cancel()

	endpoint := c.oembedURL + "?url=" + url.QueryEscape(itemURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return OEmbed{}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return OEmbed{}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return OEmbed{}
	}

	var out OEmbed
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return OEmbed{}
	}
	return out
}
