package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Client wraps HTTP calls to the tunepull server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new tunepull API client. Downloads can take a
// while, so the client does not set an overall timeout; connect failures
// surface quickly regardless.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 5 * time.Minute,
			},
		},
	}
}

// serverError decodes the {error, code} body the API writes on failure.
func serverError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var e ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return fmt.Errorf("server error %d (%s): %s", resp.StatusCode, e.Code, e.Error)
	}
	return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
}

func (c *Client) get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return serverError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) post(path string, body any, result any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return serverError(resp)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// saveResponse streams the body into destDir, named by the server's
// Content-Disposition (fallback name otherwise), and returns the path.
func saveResponse(resp *http.Response, destDir, fallback string) (string, error) {
	filename := fallback
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			filename = filepath.Base(params["filename"])
		}
	}

	path := filepath.Join(destDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("saving download: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// Health checks the server is reachable.
func (c *Client) Health() error {
	var body map[string]bool
	if err := c.get("/api/health", &body); err != nil {
		return err
	}
	if !body["ok"] {
		return fmt.Errorf("server reported not ok")
	}
	return nil
}

// Resolve previews what an input resolves to without downloading.
func (c *Client) Resolve(input string) (*ResolveResponse, error) {
	var resp ResolveResponse
	if err := c.post("/api/resolve", inputRequest{Input: input}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Download fetches a single item and saves it under destDir.
func (c *Client) Download(input, format, destDir string) (string, error) {
	jsonBody, err := json.Marshal(inputRequest{Input: input, Format: format})
	if err != nil {
		return "", fmt.Errorf("marshal error: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+"/api/download", "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", serverError(resp)
	}

	return saveResponse(resp, destDir, "download.bin")
}

// PlaylistStart launches a playlist job and returns its id.
func (c *Client) PlaylistStart(input, format string) (*StartResponse, error) {
	var resp StartResponse
	if err := c.post("/api/playlist/start", inputRequest{Input: input, Format: format}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlaylistStatus fetches a job snapshot.
func (c *Client) PlaylistStatus(jobID string) (*PlaylistStatusResponse, error) {
	var resp PlaylistStatusResponse
	if err := c.get("/api/playlist/status/"+jobID, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlaylistArchive downloads a finished job's zip into destDir.
func (c *Client) PlaylistArchive(jobID, destDir string) (string, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/playlist/download/" + jobID)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", serverError(resp)
	}

	return saveResponse(resp, destDir, "playlist.zip")
}

// API response types (mirror server types)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type inputRequest struct {
	Input  string `json:"input"`
	Format string `json:"format,omitempty"`
}

type ResolveResponse struct {
	Source          string  `json:"source"`
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	Album           string  `json:"album"`
	CoverURL        string  `json:"cover_url"`
	MediaType       string  `json:"media_type"`
	Query           string  `json:"query"`
	DurationSeconds int     `json:"duration_seconds"`
	ReleaseDate     string  `json:"release_date"`
	Channel         string  `json:"channel"`
	VideoURL        string  `json:"video_url"`
	VideoID         string  `json:"video_id"`
	MatchScore      float64 `json:"match_score"`
	MatchConfidence string  `json:"match_confidence"`
}

type StartResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type PlaylistFile struct {
	ID       string `json:"id"`
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Filename string `json:"filename"`
}

type PlaylistTrack struct {
	ID     string `json:"id"`
	Index  int    `json:"index"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

type PlaylistStatusResponse struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	Total         int             `json:"total"`
	Done          int             `json:"done"`
	Failed        int             `json:"failed"`
	Current       string          `json:"current"`
	Error         string          `json:"error"`
	PlaylistTitle string          `json:"playlist_title"`
	CoverURL      string          `json:"cover_url"`
	SourceMode    string          `json:"source_mode"`
	OutputFormat  string          `json:"output_format"`
	Files         []PlaylistFile  `json:"files"`
	Tracks        []PlaylistTrack `json:"tracks"`
	Ready         bool            `json:"ready"`
}
