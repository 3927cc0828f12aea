package spotify

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// PageData holds everything extracted from an item's public page markup:
// social-preview meta tags and structured-data blocks from script tags.
type PageData struct {
	Meta   map[string]string // og:* and music:* property -> content
	JSONLD []map[string]any  // decoded application/ld+json objects
}

// ParsePage extracts OpenGraph/music meta tags and JSON-LD blocks from raw
// markup. A nil or unparseable page yields an empty PageData.
func ParsePage(markup []byte) PageData {
	data := PageData{Meta: map[string]string{}}
	if len(markup) == 0 {
		return data
	}

	doc, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		return data
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				prop, content := "", ""
				for _, a := range n.Attr {
					switch a.Key {
					case "property", "name":
						if prop == "" {
							prop = a.Val
						}
					case "content":
						content = a.Val
					}
				}
				if content != "" && (strings.HasPrefix(prop, "og:") || strings.HasPrefix(prop, "music:")) {
					data.Meta[prop] = content
				}
			case "script":
				if scriptType(n) == "application/ld+json" && n.FirstChild != nil {
					appendJSONLD(&data, n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return data
}

func scriptType(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "type" {
			return a.Val
		}
	}
	return ""
}

func appendJSONLD(data *PageData, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}

	// A block holds either one object or an array of objects.
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		data.JSONLD = append(data.JSONLD, obj)
		return
	}
	var list []any
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				data.JSONLD = append(data.JSONLD, m)
			}
		}
	}
}

// LDInfo is the subset of JSON-LD fields resolution cares about.
type LDInfo struct {
	Artist      string
	DurationISO string
	ReleaseDate string
	Description string
}

// ExtractLDInfo merges the JSON-LD blocks, first value wins per field.
func ExtractLDInfo(items []map[string]any) LDInfo {
	var info LDInfo
	for _, item := range items {
		if info.Artist == "" {
			if artist, ok := item["byArtist"].(map[string]any); ok {
				if name, ok := artist["name"].(string); ok {
					info.Artist = name
				}
			}
		}
		if info.DurationISO == "" {
			if d, ok := item["duration"].(string); ok {
				info.DurationISO = d
			}
		}
		if info.ReleaseDate == "" {
			if d, ok := item["datePublished"].(string); ok {
				info.ReleaseDate = d
			}
		}
		if info.Description == "" {
			if d, ok := item["description"].(string); ok {
				info.Description = d
			}
		}
	}
	return info
}

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// ParseISODuration converts an ISO-8601 duration of the PT#H#M#S shape to
// whole seconds. Returns 0 for unparseable or zero-length values, which
// callers treat as absent.
func ParseISODuration(value string) int {
	m := isoDurationPattern.FindStringSubmatch(value)
	if m == nil {
		return 0
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	return h*3600 + min*60 + s
}
