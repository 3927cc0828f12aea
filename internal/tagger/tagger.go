// Package tagger writes identity metadata into downloaded audio files.
package tagger

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bogem/id3v2"

	"tunepull/internal/media"
)

const coverTimeout = 15 * time.Second

// maxCoverBytes caps how much cover data is embedded.
const maxCoverBytes = 10 << 20

// Tagger embeds tags and cover art. Only mp3 containers are tagged;
// other extensions are logged and skipped.
type Tagger struct {
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a tagger. httpClient is used for cover downloads and may be
// nil.
func New(httpClient *http.Client, log *slog.Logger) *Tagger {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: coverTimeout}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Tagger{
		httpClient: httpClient,
		log:        log.With("component", "tagger"),
	}
}

// Embed writes the identity's metadata into the file at path. Tagging is
// best-effort enrichment: unsupported containers are skipped, and a cover
// fetch failure never fails the call.
func (t *Tagger) Embed(ctx context.Context, path string, m *media.Meta) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".mp3" {
		t.log.Debug("skipping tag embed for unsupported container", "path", path, "ext", ext)
		return nil
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer func() { _ = tag.Close() }()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	if m.Title != "" {
		tag.SetTitle(m.Title)
	}
	if m.Artist != "" {
		tag.SetArtist(m.Artist)
	}
	if m.Album != "" {
		tag.SetAlbum(m.Album)
	}
	if m.ReleaseDate != "" {
		tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, m.ReleaseDate)
	}
	if m.DurationSeconds > 0 {
		tag.AddTextFrame("TLEN", id3v2.EncodingUTF8, strconv.Itoa(m.DurationSeconds*1000))
	}
	if m.TrackNumber > 0 {
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, strconv.Itoa(m.TrackNumber))
	}
	if m.DiscNumber > 0 {
		tag.AddTextFrame("TPOS", id3v2.EncodingUTF8, strconv.Itoa(m.DiscNumber))
	}

	for key, value := range m.ExtraTags {
		if value == "" {
			continue
		}
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: key,
			Value:       value,
		})
	}

	if source := sourceComment(m); source != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "Source",
			Text:        source,
		})
	}

	if cover, mime := t.fetchCover(ctx, m.CoverURL); cover != nil {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mime,
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     cover,
		})
	}

	return tag.Save()
}

// sourceComment records where the audio came from: the original item URL
// for streaming inputs, else the raw input.
func sourceComment(m *media.Meta) string {
	if url := m.ExtraTags["Spotify URL"]; url != "" {
		return url
	}
	return m.Input
}

func (t *Tagger) fetchCover(ctx context.Context, coverURL string) ([]byte, string) {
	if coverURL == "" {
		return nil, ""
	}

	ctx, cancel := context.WithTimeout(ctx, coverTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return nil, ""
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.log.Debug("cover fetch failed", "url", coverURL, "error", err)
		return nil, ""
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, ""
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil || len(data) == 0 {
		return nil, ""
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return data, mime
}
