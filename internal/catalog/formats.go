package catalog

import (
	"sort"
	"strings"

	"tunepull/internal/media"
)

// FormatCandidates returns the ordered selector chain for an output format.
// The empty string terminates every chain: it means "no explicit selector"
// and is the most permissive attempt.
func FormatCandidates(f media.Format) []string {
	switch f {
	case media.FormatM4A:
		return []string{
			"bestaudio[ext=m4a]/bestaudio",
			"bestaudio/best",
			"best",
			"",
		}
	case media.FormatOpus:
		return []string{
			"bestaudio[acodec*=opus]/bestaudio[ext=webm]/bestaudio",
			"bestaudio/best",
			"best",
			"",
		}
	case media.FormatMP3:
		return []string{
			"bestaudio[ext=m4a]/bestaudio[ext=webm]/bestaudio/best",
			"bestaudio[ext=webm]/bestaudio/best",
			"bestaudio/best",
			"best",
			"",
		}
	}
	return []string{
		"bestaudio[ext=m4a]/bestaudio[ext=webm]/bestaudio/best",
		"bestaudio/best",
		"best",
		"",
	}
}

// PermissiveFallbacks is the generic selector tail used when format
// recovery cannot determine an explicit format id.
func PermissiveFallbacks() []string {
	return []string{"bestaudio/best", "best", ""}
}

// PickFormatID chooses the best actually-available format id for the
// desired output format: audio-only formats when any exist, otherwise
// progressive ones, ranked by a container/codec preference for the output
// format and tie-broken by bitrate descending. Returns "" when the entry
// lists no usable formats.
func PickFormatID(e *Entry, out media.Format) string {
	if e == nil || len(e.Formats) == 0 {
		return ""
	}

	var audioOnly, progressive []Format
	for _, f := range e.Formats {
		switch {
		case f.AudioOnly():
			audioOnly = append(audioOnly, f)
		case f.HasAudio():
			progressive = append(progressive, f)
		}
	}

	pool := audioOnly
	if len(pool) == 0 {
		pool = progressive
	}
	if len(pool) == 0 {
		return ""
	}

	sort.SliceStable(pool, func(i, j int) bool {
		pi, pj := formatPreference(pool[i], out), formatPreference(pool[j], out)
		if pi != pj {
			return pi > pj
		}
		return pool[i].Bitrate() > pool[j].Bitrate()
	})

	for _, f := range pool {
		if f.FormatID != "" {
			return f.FormatID
		}
	}
	return ""
}

func formatPreference(f Format, out media.Format) int {
	ext := f.Ext
	switch out {
	case media.FormatM4A:
		switch ext {
		case "m4a":
			return 4
		case "mp4", "webm":
			return 2
		}
		return 0
	case media.FormatOpus:
		if ext == "opus" || strings.Contains(strings.ToLower(f.ACodec), "opus") {
			return 4
		}
		if ext == "webm" {
			return 3
		}
		return 0
	}
	switch ext {
	case "m4a", "webm", "mp4":
		return 3
	}
	return 1
}
