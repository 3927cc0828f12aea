package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"tunepull/internal/media"
)

// LocateAudio finds the downloaded audio file in dir. Precedence: the
// output format's preferred extension for the known id, then the fixed
// extension priority list for the id, then the first file carrying any
// recognized audio extension. Returns "" when nothing matches.
func LocateAudio(dir, id string, out media.Format) string {
	if id != "" {
		if ext := out.PreferredExt(); ext != "" {
			if path := filepath.Join(dir, id+ext); exists(path) {
				return path
			}
		}
		for _, ext := range media.AudioExts {
			if path := filepath.Join(dir, id+ext); exists(path) {
				return path
			}
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		lower := strings.ToLower(entry.Name())
		for _, ext := range media.AudioExts {
			if strings.HasSuffix(lower, ext) {
				return filepath.Join(dir, entry.Name())
			}
		}
	}
	return ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
