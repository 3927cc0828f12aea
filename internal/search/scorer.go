package search

import (
	"strings"

	"tunepull/internal/media"
)

// Candidate is one search result under consideration. It exists only for
// the duration of a matching call.
type Candidate struct {
	ID       string
	Title    string
	Channel  string
	Duration int // seconds, 0 when unreported
	URL      string
}

// Descriptor tokens that mark a candidate as a poor or a good source for a
// studio recording. Checked against normalized title+channel text.
var (
	blockTokens = []string{"live", "remix", "slowed", "sped up", "karaoke", "8d", "lyrics"}
	allowTokens = []string{"official", "topic", "auto generated by youtube"}
)

// Scoring weights.
const (
	blockPenalty    = 8
	allowBonus      = 6
	queryTokenBonus = 2
	artistBonus     = 8
	titleTokenBonus = 2

	durationTight     = 5  // seconds
	durationClose     = 15 // seconds
	durationFar       = 45 // seconds
	durationTightGain = 8
	durationCloseGain = 4
	durationFarLoss   = 6
)

// Score ranks a candidate against a query and, optionally, a known target
// identity. Pure: identical inputs always yield the identical score.
func Score(c Candidate, target *media.Meta, query string) int {
	title := Normalize(c.Title)
	full := title + " " + Normalize(c.Channel)
	score := 0

	for _, bad := range blockTokens {
		if strings.Contains(full, bad) {
			score -= blockPenalty
		}
	}
	for _, good := range allowTokens {
		if strings.Contains(full, good) {
			score += allowBonus
		}
	}

	for _, tok := range scoringTokens(query) {
		if strings.Contains(title, tok) {
			score += queryTokenBonus
		}
	}

	if target == nil {
		return score
	}

	if target.Artist != "" && strings.Contains(full, Normalize(target.Artist)) {
		score += artistBonus
	}
	for _, tok := range scoringTokens(target.Title) {
		if strings.Contains(title, tok) {
			score += titleTokenBonus
		}
	}
	if target.DurationSeconds > 0 && c.Duration > 0 {
		diff := c.Duration - target.DurationSeconds
		if diff < 0 {
			diff = -diff
		}
		switch {
		case diff <= durationTight:
			score += durationTightGain
		case diff <= durationClose:
			score += durationCloseGain
		case diff > durationFar:
			score -= durationFarLoss
		}
	}

	return score
}

// Pick returns the index of the highest-scoring candidate. Ties keep the
// earliest candidate, preserving the catalog's original ordering. Returns
// -1 for an empty set.
func Pick(candidates []Candidate, target *media.Meta, query string) int {
	best := -1
	bestScore := 0
	for i, c := range candidates {
		s := Score(c, target, query)
		if best == -1 || s > bestScore {
			best = i
			bestScore = s
		}
	}
	return best
}
