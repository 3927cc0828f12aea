package media

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned for an output format outside the
// supported set.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Format is a requested output encoding.
type Format string

const (
	FormatBest Format = "best" // keep whatever the source delivers
	FormatMP3  Format = "mp3"
	FormatM4A  Format = "m4a"
	FormatOpus Format = "opus"
)

// DefaultFormat is used when a request does not name an encoding.
const DefaultFormat = FormatMP3

// ParseFormat validates a requested output format. The empty string selects
// DefaultFormat.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return DefaultFormat, nil
	case FormatBest, FormatMP3, FormatM4A, FormatOpus:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// PreferredExt returns the extension a finished download should carry for
// this format, or "" when any audio extension is acceptable.
func (f Format) PreferredExt() string {
	switch f {
	case FormatMP3:
		return ".mp3"
	case FormatM4A:
		return ".m4a"
	case FormatOpus:
		return ".opus"
	default:
		return ""
	}
}

// AudioExts is the recognized set of downloaded audio extensions, in
// location-priority order.
var AudioExts = []string{".m4a", ".opus", ".webm", ".mp3"}

// ContentTypeForExt maps an audio file extension to its HTTP media type.
func ContentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".m4a":
		return "audio/mp4"
	case ".opus", ".webm":
		return "audio/ogg"
	default:
		return "audio/mpeg"
	}
}
