package catalog

import (
	"encoding/base64"
	"os"
	"strings"
	"sync"
)

const netscapeSignature = "# Netscape HTTP Cookie File"

// CookieCache resolves the cookie file handed to the extractor. A direct
// path wins when it exists; otherwise a base64-encoded payload is decoded,
// validated, and written once to a private temp file that is reused for
// the process lifetime.
type CookieCache struct {
	path string
	b64  string

	mu     sync.Mutex
	cached string
	tried  bool
}

// NewCookieCache creates a cache from a direct path and/or a base64
// payload. Both may be empty.
func NewCookieCache(path, b64 string) *CookieCache {
	return &CookieCache{path: path, b64: b64}
}

// File returns the cookie file path to pass to the extractor, or "" when
// no usable cookies are configured. Decode failures are silent: cookies
// are an enhancement, never a requirement.
func (c *CookieCache) File() string {
	if c == nil {
		return ""
	}

	if c.path != "" {
		if _, err := os.Stat(c.path); err == nil {
			return c.path
		}
	}
	if c.b64 == "" {
		return ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tried {
		return c.cached
	}
	c.tried = true
	c.cached = c.materialize()
	return c.cached
}

func (c *CookieCache) materialize() string {
	// Deploy panels sometimes wrap env values in punctuation or inject
	// newlines into long ones.
	clean := strings.TrimSpace(c.b64)
	clean = strings.Trim(clean, "%")
	clean = strings.ReplaceAll(clean, "\n", "")
	clean = strings.ReplaceAll(clean, "\r", "")
	if clean == "" {
		return ""
	}

	raw, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(clean)
		if err != nil {
			return ""
		}
	}
	text := string(raw)
	if !strings.Contains(text, netscapeSignature) {
		return ""
	}

	f, err := os.CreateTemp("", "yt-cookies-*.txt")
	if err != nil {
		return ""
	}
	name := f.Name()
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return ""
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return ""
	}
	if err := os.Chmod(name, 0o600); err != nil {
		_ = os.Remove(name)
		return ""
	}
	return name
}
