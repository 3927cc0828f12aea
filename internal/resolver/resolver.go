// Package resolver turns loose user input, a Spotify URL, a YouTube URL,
// or free text, into a canonical media identity.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"tunepull/internal/catalog"
	"tunepull/internal/media"
	"tunepull/internal/search"
	"tunepull/internal/spotify"
)

// ErrInvalidInput is returned for empty or whitespace-only input.
var ErrInvalidInput = errors.New("missing input")

var youtubeURLPattern = regexp.MustCompile(`(?i)https?://(www\.)?(youtube\.com|youtu\.be)/`)

// IsYouTubeURL reports whether the input points at a YouTube item. Pure
// string matching; no network.
func IsYouTubeURL(s string) bool { return youtubeURLPattern.MatchString(s) }

// searchLimit bounds the candidate set ranked by the scorer.
const searchLimit = 10

// Resolver resolves input into media.Meta through the Spotify and catalog
// collaborators.
type Resolver struct {
	spotify    *spotify.Client
	extractor  catalog.Extractor
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a resolver. httpClient is used for thumbnail probes and may
// be nil.
func New(sp *spotify.Client, ex catalog.Extractor, httpClient *http.Client, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		spotify:    sp,
		extractor:  ex,
		httpClient: httpClient,
		log:        log.With("component", "resolver"),
	}
}

// Resolve classifies the input and produces an identity. Spotify inputs
// never fail: metadata trouble degrades to a minimal identity. YouTube
// lookups and free-text searches propagate ErrNoMatch from the catalog.
func (r *Resolver) Resolve(ctx context.Context, input string) (*media.Meta, error) {
	cleaned := strings.TrimSpace(input)
	if cleaned == "" {
		return nil, ErrInvalidInput
	}

	switch {
	case spotify.IsSpotifyURL(cleaned):
		return r.resolveSpotify(ctx, cleaned), nil
	case IsYouTubeURL(cleaned):
		return r.resolveYouTube(ctx, cleaned)
	default:
		return r.resolveText(ctx, cleaned)
	}
}

// resolveSpotify builds an identity from the item's public page and oEmbed
// data, fetched concurrently. Both sources are best-effort; when neither
// yields a title the minimal fallback identity is used. This path never
// returns an error.
func (r *Resolver) resolveSpotify(ctx context.Context, url string) *media.Meta {
	var (
		page  spotify.PageData
		embed spotify.OEmbed
	)
	var g errgroup.Group
	g.Go(func() error {
		page = spotify.ParsePage(r.spotify.FetchPage(ctx, url))
		return nil
	})
	g.Go(func() error {
		embed = r.spotify.GetOEmbed(ctx, url)
		return nil
	})
	_ = g.Wait()
	ld := spotify.ExtractLDInfo(page.JSONLD)

	title := embed.Title
	if title == "" {
		title = page.Meta["og:title"]
	}
	if title == "" {
		r.log.Debug("spotify metadata unavailable, using fallback identity", "url", url)
		return fallbackSpotifyMeta(url)
	}

	m := &media.Meta{
		Input:     url,
		Source:    media.SourceSpotify,
		Title:     title,
		Album:     page.Meta["music:album"],
		MediaType: embed.Type,
	}
	if m.MediaType == "" {
		m.MediaType = page.Meta["og:type"]
	}
	if m.MediaType == "" {
		m.MediaType = spotify.ItemKind(url)
	}

	// oEmbed author is the most reliable artist source; JSON-LD next;
	// a " - " split of the title is the last resort.
	m.Artist = embed.AuthorName
	if m.Artist == "" {
		m.Artist = ld.Artist
	}
	if m.Artist == "" {
		if artist, bare := media.SplitArtistTitle(m.Title); artist != "" {
			m.Artist, m.Title = artist, bare
		}
	}

	// og:image is usually higher quality than the oEmbed thumbnail.
	m.CoverURL = page.Meta["og:image"]
	if m.CoverURL == "" {
		m.CoverURL = embed.ThumbnailURL
	}

	if secs, err := strconv.Atoi(page.Meta["music:duration"]); err == nil && secs > 0 {
		m.DurationSeconds = secs
	}
	if m.DurationSeconds == 0 {
		m.DurationSeconds = spotify.ParseISODuration(ld.DurationISO)
	}

	m.ReleaseDate = page.Meta["music:release_date"]
	if m.ReleaseDate == "" {
		m.ReleaseDate = ld.ReleaseDate
	}
	m.Description = page.Meta["og:description"]
	if m.Description == "" {
		m.Description = ld.Description
	}

	queryParts := []string{m.Title}
	if m.Artist != "" {
		queryParts = append(queryParts, m.Artist)
	}
	m.Query = strings.Join(queryParts, " ")

	m.SetTag("Spotify ID", spotify.ItemID(url))
	m.SetTag("Spotify URL", url)

	return m
}

// fallbackSpotifyMeta is the minimal identity used when Spotify metadata
// is unreachable.
func fallbackSpotifyMeta(url string) *media.Meta {
	kind := spotify.ItemKind(url)
	var title string
	switch kind {
	case "playlist":
		title = "Spotify Playlist"
	case "track":
		title = "Spotify Track"
	default:
		title = "Spotify Item"
	}
	if kind == "" {
		kind = "spotify"
	}

	m := &media.Meta{
		Input:     url,
		Source:    media.SourceSpotify,
		Title:     title,
		MediaType: kind,
		Query:     title,
	}
	m.SetTag("Spotify URL", url)
	m.SetTag("Spotify ID", spotify.ItemID(url))
	return m
}

func (r *Resolver) resolveYouTube(ctx context.Context, url string) (*media.Meta, error) {
	entry, err := r.extractor.Info(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("resolve youtube url: %w", err)
	}
	m := r.metaFromEntry(ctx, entry, url, media.SourceYouTube)
	m.MediaType = "youtube"
	if m.Title == "" {
		m.Title = "YouTube Video"
	}
	m.Query = entry.Title
	if m.Query == "" {
		m.Query = url
	}
	if m.VideoURL == "" {
		m.VideoURL = url
	}
	return m, nil
}

func (r *Resolver) resolveText(ctx context.Context, text string) (*media.Meta, error) {
	entry, err := r.searchBest(ctx, text, nil)
	if err != nil {
		return nil, err
	}
	m := r.metaFromEntry(ctx, entry, text, media.SourceText)
	m.MediaType = "search"
	if m.Title == "" {
		m.Title = text
	}
	m.Query = text
	return m, nil
}

// metaFromEntry maps a catalog entry onto an identity. Music-tagged
// uploads carry explicit artist/track/album metadata; plain uploads fall
// back to uploader and title.
func (r *Resolver) metaFromEntry(ctx context.Context, e *catalog.Entry, input string, source media.Source) *media.Meta {
	artist := e.Artist
	if artist == "" {
		artist = e.ChannelName()
	}
	title := e.Track
	if title == "" {
		title = e.Title
	}

	m := &media.Meta{
		Input:           input,
		Source:          source,
		Title:           title,
		Artist:          artist,
		Album:           e.Album,
		CoverURL:        catalog.BestThumbnail(ctx, r.httpClient, e),
		DurationSeconds: e.DurationSeconds(),
		ReleaseDate:     e.UploadDate,
		Description:     e.Description,
		VideoURL:        e.PageURL(),
		VideoID:         e.ID,
		Channel:         e.ChannelName(),
	}
	m.SetTag("YouTube ID", e.ID)
	return m
}

// PopulateMatch finds the best catalog match for a non-YouTube identity
// and fills in the video reference plus any fields the identity is
// missing.
func (r *Resolver) PopulateMatch(ctx context.Context, m *media.Meta) error {
	query := m.SearchQuery()
	best, err := r.searchBest(ctx, query, m)
	if err != nil {
		return err
	}

	m.VideoURL = best.PageURL()
	m.VideoID = best.ID
	if m.Channel == "" {
		m.Channel = best.ChannelName()
	}
	if m.DurationSeconds == 0 {
		m.DurationSeconds = best.DurationSeconds()
	}
	if m.CoverURL == "" {
		m.CoverURL = catalog.BestThumbnail(ctx, r.httpClient, best)
	}
	m.SetTag("YouTube ID", best.ID)
	return nil
}

// searchBest runs a bounded catalog search and returns the top-ranked
// entry. target may be nil for a pure free-text query.
func (r *Resolver) searchBest(ctx context.Context, query string, target *media.Meta) (*catalog.Entry, error) {
	entries, err := r.extractor.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}

	candidates := make([]search.Candidate, len(entries))
	for i, e := range entries {
		candidates[i] = search.Candidate{
			ID:       e.ID,
			Title:    e.Title,
			Channel:  e.ChannelName(),
			Duration: e.DurationSeconds(),
			URL:      e.PageURL(),
		}
	}

	idx := search.Pick(candidates, target, query)
	if idx < 0 {
		return nil, catalog.ErrNoMatch
	}
	return entries[idx], nil
}
