// Package pipeline drives audio acquisition: ordered download targets,
// cascading format candidates, and format recovery when the catalog's
// advertised encodings turn out not to exist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tunepull/internal/catalog"
	"tunepull/internal/media"
)

// ErrDownloadExhausted is returned when every (target, format) pair has
// been attempted without producing a file.
var ErrDownloadExhausted = errors.New("download exhausted all targets and formats")

// Matcher fills in a catalog match for identities that lack a resolved
// video reference.
type Matcher interface {
	PopulateMatch(ctx context.Context, m *media.Meta) error
}

// Pipeline runs acquisition against a catalog extractor.
type Pipeline struct {
	extractor catalog.Extractor
	matcher   Matcher
	log       *slog.Logger
}

// New creates a pipeline.
func New(ex catalog.Extractor, matcher Matcher, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		extractor: ex,
		matcher:   matcher,
		log:       log.With("component", "pipeline"),
	}
}

// Acquire downloads the identity's audio into workdir and returns the
// file path. The identity is matched against the catalog first when it
// has no resolved video reference. Attempts run in order over the
// target list (resolved reference, then a synthetic single-result
// search) and each target's format candidate chain; the first locatable
// file wins. Exhaustion fails with ErrDownloadExhausted carrying the
// last observed error.
func (p *Pipeline) Acquire(ctx context.Context, m *media.Meta, out media.Format, workdir string) (string, error) {
	if m.Source != media.SourceYouTube && m.VideoURL == "" {
		if err := p.matcher.PopulateMatch(ctx, m); err != nil {
			return "", fmt.Errorf("populate catalog match: %w", err)
		}
	}

	var targets []string
	if m.VideoURL != "" {
		targets = append(targets, m.VideoURL)
	}
	targets = append(targets, "ytsearch1:"+m.SearchQuery())

	candidates := catalog.FormatCandidates(out)

	var lastErr error
	for _, target := range targets {
		sourceID := m.VideoID
		for _, selector := range candidates {
			entry, err := p.extractor.Download(ctx, target, catalog.DownloadOptions{
				Workdir:      workdir,
				Selector:     selector,
				OutputFormat: out,
			})
			if err == nil {
				if entry.ID != "" {
					sourceID = entry.ID
				}
				if path := LocateAudio(workdir, sourceID, out); path != "" {
					return path, nil
				}
				lastErr = fmt.Errorf("download of %s produced no locatable file", target)
				continue
			}

			if errors.Is(err, catalog.ErrFormatUnavailable) {
				path, usedFormat := p.recoverFormat(ctx, target, workdir, out)
				if path != "" {
					return path, nil
				}
				if usedFormat != "" {
					lastErr = fmt.Errorf("%w; retry with format %s produced no file", err, usedFormat)
					continue
				}
			}
			lastErr = err
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadExhausted, lastErr)
	}
	return "", ErrDownloadExhausted
}

// recoverFormat handles a format-unavailable failure: re-extract the
// item's real format list (following the canonical URL when the first
// extraction was partial), pick the best available format id for the
// requested output, and retry once with that verified id. When no id can
// be determined it falls back to the permissive generic selectors.
// Returns the located file path and the selector that produced it;
// ("", "") means recovery failed entirely.
func (p *Pipeline) recoverFormat(ctx context.Context, target, workdir string, out media.Format) (string, string) {
	entry, err := p.extractor.Info(ctx, target)
	if err != nil || entry == nil {
		return "", ""
	}

	retryTarget := entry.PageURL()
	if retryTarget == "" {
		retryTarget = target
	}
	sourceID := entry.ID

	// Search and flat extractions often omit the format list; a second
	// extraction of the canonical URL fills it in.
	if len(entry.Formats) == 0 {
		if full, err := p.extractor.Info(ctx, retryTarget); err == nil && full != nil {
			entry = full
			if entry.ID != "" {
				sourceID = entry.ID
			}
		}
	}

	formatID := catalog.PickFormatID(entry, out)
	if formatID == "" {
		p.log.Debug("format recovery found no usable format id, trying permissive selectors", "target", target)
		for _, selector := range catalog.PermissiveFallbacks() {
			dl, err := p.extractor.Download(ctx, retryTarget, catalog.DownloadOptions{
				Workdir:      workdir,
				Selector:     selector,
				OutputFormat: out,
			})
			if err != nil {
				continue
			}
			if dl.ID != "" {
				sourceID = dl.ID
			}
			if path := LocateAudio(workdir, sourceID, out); path != "" {
				if selector == "" {
					selector = "auto"
				}
				return path, selector
			}
		}
		return "", ""
	}

	dl, err := p.extractor.Download(ctx, retryTarget, catalog.DownloadOptions{
		Workdir:      workdir,
		Selector:     formatID,
		OutputFormat: out,
	})
	if err != nil {
		return "", ""
	}
	if dl.ID != "" {
		sourceID = dl.ID
	}
	return LocateAudio(workdir, sourceID, out), formatID
}
