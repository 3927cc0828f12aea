package catalog

import (
	"context"
	"net/http"
	"time"
)

const thumbProbeTimeout = 5 * time.Second

// ytimgFallbacks in descending quality order.
var ytimgFallbacks = []string{"maxresdefault.jpg", "sddefault.jpg", "hqdefault.jpg"}

// BestThumbnail picks the highest-resolution preview image for an entry:
// largest listed area first, then HEAD-probed i.ytimg candidates for the
// video id, then whatever single thumbnail the entry carries. client may
// be nil.
func BestThumbnail(ctx context.Context, client *http.Client, e *Entry) string {
	if e == nil {
		return ""
	}

	best, bestArea := "", -1
	for _, t := range e.Thumbnails {
		if t.URL == "" {
			continue
		}
		if area := t.Width * t.Height; area > bestArea {
			best, bestArea = t.URL, area
		}
	}
	if best != "" {
		return best
	}

	if e.ID != "" {
		if client == nil {
			client = http.DefaultClient
		}
		for _, suffix := range ytimgFallbacks {
			candidate := "https://i.ytimg.com/vi/" + e.ID + "/" + suffix
			if probeOK(ctx, client, candidate) {
				return candidate
			}
		}
	}

	return e.Thumbnail
}

func probeOK(ctx context.Context, client *http.Client, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, thumbProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
