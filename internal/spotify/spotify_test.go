package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLClassification(t *testing.T) {
	assert.True(t, IsSpotifyURL("https://open.spotify.com/track/abc123"))
	assert.True(t, IsSpotifyURL("HTTP://SPOTIFY.COM/album/xyz"))
	assert.False(t, IsSpotifyURL("https://youtube.com/watch?v=abc"))

	assert.True(t, IsPlaylistURL("https://open.spotify.com/playlist/37i9dQ"))
	assert.False(t, IsPlaylistURL("https://open.spotify.com/track/abc123"))

	assert.Equal(t, "track", ItemKind("https://open.spotify.com/track/abc123"))
	assert.Equal(t, "abc123", ItemID("https://open.spotify.com/track/abc123"))
	assert.Equal(t, "", ItemKind("https://open.spotify.com/"))
	assert.Equal(t, "37i9dQ", PlaylistID("https://open.spotify.com/playlist/37i9dQ?si=x"))
}

func TestParsePage(t *testing.T) {
	markup := `<html><head>
		<meta property="og:title" content="Believer"/>
		<meta property="og:image" content="https://i.scdn.co/cover.jpg"/>
		<meta property="music:duration" content="204"/>
		<meta name="description" content="ignored"/>
		<script type="application/ld+json">{"byArtist":{"name":"Imagine Dragons"},"duration":"PT3M24S","datePublished":"2017-02-01"}</script>
	</head><body></body></html>`

	data := ParsePage([]byte(markup))

	assert.Equal(t, "Believer", data.Meta["og:title"])
	assert.Equal(t, "204", data.Meta["music:duration"])
	assert.NotContains(t, data.Meta, "description")

	require.Len(t, data.JSONLD, 1)
	info := ExtractLDInfo(data.JSONLD)
	assert.Equal(t, "Imagine Dragons", info.Artist)
	assert.Equal(t, "PT3M24S", info.DurationISO)
	assert.Equal(t, "2017-02-01", info.ReleaseDate)
}

func TestParsePage_ListJSONLDAndGarbage(t *testing.T) {
	markup := `<html><head>
		<script type="application/ld+json">[{"duration":"PT2M"},{"description":"desc"}]</script>
		<script type="application/ld+json">not json at all</script>
	</head></html>`

	data := ParsePage([]byte(markup))
	require.Len(t, data.JSONLD, 2)

	info := ExtractLDInfo(data.JSONLD)
	assert.Equal(t, "PT2M", info.DurationISO)
	assert.Equal(t, "desc", info.Description)
}

func TestParsePage_Empty(t *testing.T) {
	data := ParsePage(nil)
	assert.Empty(t, data.Meta)
	assert.Empty(t, data.JSONLD)
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"PT3M24S", 204},
		{"PT1H2M3S", 3723},
		{"PT45S", 45},
		{"PT2H", 7200},
		{"PT0S", 0},
		{"garbage", 0},
		{"", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseISODuration(tt.in), "input %q", tt.in)
	}
}

func TestTokenSource_CachesUntilRefreshMargin(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 3600})
	}))
	defer srv.Close()

	now := time.Now()
	ts := NewTokenSource("id", "secret").WithTokenURL(srv.URL)
	ts.now = func() time.Time { return now }

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	tok, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second call should hit the cache")

	// Move the clock to within 30s of expiry: a refresh must happen.
	now = now.Add(3600*time.Second - 10*time.Second)
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTokenSource_SingleFlight(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	}))
	defer srv.Close()

	ts := NewTokenSource("id", "secret").WithTokenURL(srv.URL)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ts.Token(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "population must happen at most once")
}

func TestTokenSource_NoCredentials(t *testing.T) {
	ts := NewTokenSource("", "")
	_, err := ts.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestResolvePlaylistAPI_Paginates(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	}))
	defer tokenSrv.Close()

	var pages int32
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/playlists/pl123":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"name":   "Road Trip",
				"images": []map[string]string{{"url": "https://i.scdn.co/pl.jpg"}},
			})
		case r.URL.Path == "/playlists/pl123/tracks":
			n := atomic.AddInt32(&pages, 1)
			next := ""
			if n == 1 {
				next = "more"
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{
					"track": map[string]any{
						"name":          fmt.Sprintf("Song %d", n),
						"id":            fmt.Sprintf("id%d", n),
						"artists":       []map[string]string{{"name": "Band"}, {"name": "Feat"}},
						"album":         map[string]any{"name": "Album", "images": []map[string]string{{"url": "https://i.scdn.co/a.jpg"}}, "release_date": "2020-01-01"},
						"duration_ms":   201500,
						"disc_number":   1,
						"track_number":  int(n),
						"external_ids":  map[string]string{"isrc": "US123"},
						"external_urls": map[string]string{"spotify": fmt.Sprintf("https://open.spotify.com/track/id%d", n)},
					},
				}},
				"next": next,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer apiSrv.Close()

	ts := NewTokenSource("id", "secret").WithTokenURL(tokenSrv.URL)
	c := New(ts, WithAPIURL(apiSrv.URL))

	pl, err := c.ResolvePlaylistAPI(context.Background(), "https://open.spotify.com/playlist/pl123")
	require.NoError(t, err)

	assert.Equal(t, "Road Trip", pl.Title)
	assert.Equal(t, "https://i.scdn.co/pl.jpg", pl.CoverURL)
	assert.Equal(t, SourceModeAPI, pl.Mode)
	require.Len(t, pl.Tracks, 2)

	first := pl.Tracks[0]
	assert.Equal(t, "Song 1", first.Title)
	assert.Equal(t, "Band, Feat", first.Artist)
	assert.Equal(t, 201, first.DurationSeconds)
	assert.Equal(t, "US123", first.ExtraTags["ISRC"])
	assert.Equal(t, "https://open.spotify.com/track/id1", first.Input)
}

func TestResolvePlaylistAPI_NoCredentials(t *testing.T) {
	c := New(nil)
	_, err := c.ResolvePlaylistAPI(context.Background(), "https://open.spotify.com/playlist/pl123")
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestResolvePlaylistAPI_Non200(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	}))
	defer tokenSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer apiSrv.Close()

	ts := NewTokenSource("id", "secret").WithTokenURL(tokenSrv.URL)
	c := New(ts, WithAPIURL(apiSrv.URL))

	_, err := c.ResolvePlaylistAPI(context.Background(), "https://open.spotify.com/playlist/pl123")
	assert.ErrorIs(t, err, ErrAPIUnavailable)
}

func TestResolvePlaylistScrape(t *testing.T) {
	// The page repeats one id; dedup must preserve first-seen order.
	page := `<html>spotify:track:aaa111 spotify:track:bbb222 spotify:track:aaa111</html>`

	pageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer pageSrv.Close()

	oembedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		item := r.URL.Query().Get("url")
		switch {
		case item == pageSrv.URL:
			_ = json.NewEncoder(w).Encode(OEmbed{Title: "My Mix", ThumbnailURL: "https://i.scdn.co/mix.jpg"})
		case item == "https://open.spotify.com/track/aaa111":
			_ = json.NewEncoder(w).Encode(OEmbed{Title: "Band - First Song"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer oembedSrv.Close()

	c := New(nil, WithOEmbedURL(oembedSrv.URL))

	pl, err := c.ResolvePlaylistScrape(context.Background(), pageSrv.URL)
	require.NoError(t, err)

	assert.Equal(t, "My Mix", pl.Title)
	assert.Equal(t, SourceModeScrape, pl.Mode)
	require.Len(t, pl.Tracks, 2)

	// First track got a name via oEmbed, split into artist/title.
	assert.Equal(t, "First Song", pl.Tracks[0].Title)
	assert.Equal(t, "Band", pl.Tracks[0].Artist)
	assert.Equal(t, "aaa111", pl.Tracks[0].ExtraTags["Spotify ID"])

	// Second track had no resolvable name: labeled by position.
	assert.Equal(t, "Track 2", pl.Tracks[1].Title)
	assert.Equal(t, 2, pl.Tracks[1].TrackNumber)
	// Cover falls back to the playlist cover.
	assert.Equal(t, "https://i.scdn.co/mix.jpg", pl.Tracks[1].CoverURL)
}

func TestResolvePlaylistScrape_NoTracks(t *testing.T) {
	pageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>nothing embedded</html>"))
	}))
	defer pageSrv.Close()

	c := New(nil)
	_, err := c.ResolvePlaylistScrape(context.Background(), pageSrv.URL)
	assert.ErrorIs(t, err, ErrNoTracks)
}
