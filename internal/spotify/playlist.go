package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"tunepull/internal/media"
)

// SourceMode records which strategy produced a playlist resolution.
type SourceMode string

const (
	SourceModeAPI    SourceMode = "spotify_api"
	SourceModeScrape SourceMode = "public_html_fallback"
)

// Playlist is a resolved collection: its display metadata plus the ordered
// per-item identities.
type Playlist struct {
	Title    string
	CoverURL string
	Mode     SourceMode
	Tracks   []media.Meta
}

const tracksPageSize = 100

// API response shapes, trimmed to the fields requested.
type apiPlaylist struct {
	Name   string     `json:"name"`
	Images []apiImage `json:"images"`
}

type apiImage struct {
	URL string `json:"url"`
}

type apiTracksPage struct {
	Items []struct {
		Track *apiTrack `json:"track"`
	} `json:"items"`
	Next string `json:"next"`
}

type apiTrack struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name        string     `json:"name"`
		Images      []apiImage `json:"images"`
		ReleaseDate string     `json:"release_date"`
	} `json:"album"`
	DurationMS   int               `json:"duration_ms"`
	DiscNumber   int               `json:"disc_number"`
	TrackNumber  int               `json:"track_number"`
	ExternalIDs  map[string]string `json:"external_ids"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// ResolvePlaylistAPI expands a playlist through the Web API: one metadata
// call plus /tracks pages of 100, following the next cursor until
// exhausted. Fails with ErrNoCredentials when no token source is
// configured and ErrAPIUnavailable on any non-200 answer.
func (c *Client) ResolvePlaylistAPI(ctx context.Context, playlistURL string) (*Playlist, error) {
	if !c.tokens.Configured() {
		return nil, ErrNoCredentials
	}

	id := PlaylistID(playlistURL)
	if id == "" {
		return nil, ErrInvalidPlaylistURL
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var meta apiPlaylist
	metaURL := fmt.Sprintf("%s/playlists/%s?fields=%s", c.apiURL, id,
		url.QueryEscape("name,images(url)"))
	if err := c.apiGet(ctx, metaURL, token, &meta); err != nil {
		return nil, fmt.Errorf("playlist metadata: %w", err)
	}

	pl := &Playlist{
		Title: meta.Name,
		Mode:  SourceModeAPI,
	}
	if pl.Title == "" {
		pl.Title = "Spotify Playlist"
	}
	if len(meta.Images) > 0 {
		pl.CoverURL = meta.Images[0].URL
	}

	fields := url.QueryEscape("items(track(name,id,artists(name),album(name,images(url),release_date),duration_ms,disc_number,track_number,external_ids(isrc),external_urls(spotify))),next")
	for offset := 0; ; offset += tracksPageSize {
		pageURL := fmt.Sprintf("%s/playlists/%s/tracks?offset=%d&limit=%d&fields=%s",
			c.apiURL, id, offset, tracksPageSize, fields)

		var page apiTracksPage
		if err := c.apiGet(ctx, pageURL, token, &page); err != nil {
			return nil, fmt.Errorf("playlist tracks: %w", err)
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.Name == "" {
				continue
			}
			pl.Tracks = append(pl.Tracks, trackMeta(item.Track, playlistURL))
		}

		if page.Next == "" || len(page.Items) == 0 {
			break
		}
	}

	return pl, nil
}

func trackMeta(t *apiTrack, playlistURL string) media.Meta {
	var names []string
	for _, a := range t.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	artist := strings.Join(names, ", ")

	m := media.Meta{
		Input:       playlistURL,
		Source:      media.SourceSpotify,
		Title:       t.Name,
		Artist:      artist,
		Album:       t.Album.Name,
		MediaType:   "spotify_track",
		ReleaseDate: t.Album.ReleaseDate,
		TrackNumber: t.TrackNumber,
		DiscNumber:  t.DiscNumber,
	}
	if len(t.Album.Images) > 0 {
		m.CoverURL = t.Album.Images[0].URL
	}
	if t.DurationMS > 0 {
		m.DurationSeconds = t.DurationMS / 1000
	}

	queryParts := []string{t.Name}
	if artist != "" {
		queryParts = append(queryParts, artist)
	}
	m.Query = strings.Join(queryParts, " ")

	m.SetTag("Spotify ID", t.ID)
	if spotifyURL := t.ExternalURLs["spotify"]; spotifyURL != "" {
		m.Input = spotifyURL
		m.SetTag("Spotify URL", spotifyURL)
	}
	m.SetTag("ISRC", t.ExternalIDs["isrc"])

	return m
}

func (c *Client) apiGet(ctx context.Context, endpoint, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrAPIUnavailable, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var trackRefPattern = regexp.MustCompile(`spotify:track:([A-Za-z0-9]+)`)

// ResolvePlaylistScrape expands a playlist from its public page when the
// API path is unavailable: embedded track ids are collected in first-seen
// order, deduplicated, and each item's display name resolved through the
// oEmbed endpoint. Items without a resolvable name are labeled by
// position.
func (c *Client) ResolvePlaylistScrape(ctx context.Context, playlistURL string) (*Playlist, error) {
	page := c.FetchPage(ctx, playlistURL)
	if page == nil {
		return nil, fmt.Errorf("playlist page is not accessible")
	}

	var ids []string
	seen := map[string]bool{}
	for _, m := range trackRefPattern.FindAllStringSubmatch(string(page), -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			ids = append(ids, m[1])
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoTracks
	}

	plEmbed := c.GetOEmbed(ctx, playlistURL)
	pl := &Playlist{
		Title:    plEmbed.Title,
		CoverURL: plEmbed.ThumbnailURL,
		Mode:     SourceModeScrape,
	}
	if pl.Title == "" {
		pl.Title = "Spotify Playlist"
	}

	for i, id := range ids {
		trackURL := "https://open.spotify.com/track/" + id
		embed := c.GetOEmbed(ctx, trackURL)

		title := embed.Title
		if title == "" {
			title = fmt.Sprintf("Track %d", i+1)
		}
		artist := embed.AuthorName
		if artist == "" {
			if a, t := media.SplitArtistTitle(title); a != "" {
				artist, title = a, t
			}
		}

		m := media.Meta{
			Input:       trackURL,
			Source:      media.SourceSpotify,
			Title:       title,
			Artist:      artist,
			MediaType:   "spotify_track",
			TrackNumber: i + 1,
			CoverURL:    embed.ThumbnailURL,
		}
		if m.CoverURL == "" {
			m.CoverURL = pl.CoverURL
		}

		queryParts := []string{title}
		if artist != "" {
			queryParts = append(queryParts, artist)
		}
		m.Query = strings.Join(queryParts, " ")

		m.SetTag("Spotify ID", id)
		m.SetTag("Spotify URL", trackURL)

		pl.Tracks = append(pl.Tracks, m)
	}

	return pl, nil
}
