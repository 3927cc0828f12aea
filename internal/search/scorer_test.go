package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunepull/internal/media"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "HELLO World", "hello world"},
		{"strips punctuation", "one, two & three!", "one two three"},
		{"collapses whitespace", "  a   b  ", "a b"},
		{"removes accents", "Beyoncé Señorita", "beyonce senorita"},
		{"keeps digits", "8D Audio", "8d audio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestScore_Deterministic(t *testing.T) {
	c := Candidate{Title: "Imagine Dragons - Believer (Official Music Video)", Channel: "ImagineDragons", Duration: 204}
	target := &media.Meta{Title: "Believer", Artist: "Imagine Dragons", DurationSeconds: 204}

	first := Score(c, target, "Imagine Dragons Believer")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(c, target, "Imagine Dragons Believer"))
	}
}

func TestScore_BlockAndAllowTokens(t *testing.T) {
	query := "some song"

	plain := Score(Candidate{Title: "some song"}, nil, query)
	karaoke := Score(Candidate{Title: "some song karaoke"}, nil, query)
	official := Score(Candidate{Title: "some song official"}, nil, query)

	assert.Equal(t, plain-8, karaoke, "blocklisted token costs 8")
	assert.Equal(t, plain+6, official, "allowlisted token gains 6")
}

func TestScore_IgnoresShortTokens(t *testing.T) {
	title := "it is a go on up"

	assert.Equal(t, 0, Score(Candidate{Title: title}, nil, title),
		"one- and two-letter words earn nothing")
	assert.Equal(t, 0, Score(Candidate{Title: title}, &media.Meta{Title: title}, title),
		"same for target title tokens")

	got := Score(Candidate{Title: "run it up"}, nil, "run it up")
	assert.Equal(t, 2, got, "only the three-letter word counts")
}

func TestScore_DurationWindows(t *testing.T) {
	target := &media.Meta{Title: "x", DurationSeconds: 200}
	query := "x"

	base := Score(Candidate{Title: "zzz"}, &media.Meta{Title: "x"}, query)

	tests := []struct {
		name     string
		duration int
		delta    int
	}{
		{"within 5s", 203, 8},
		{"within 15s", 212, 4},
		{"16-45s gap is neutral", 230, 0},
		{"beyond 45s", 260, -6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(Candidate{Title: "zzz", Duration: tt.duration}, target, query)
			assert.Equal(t, base+tt.delta, got)
		})
	}
}

func TestScore_ArtistSubstring(t *testing.T) {
	target := &media.Meta{Title: "Believer", Artist: "Imagine Dragons"}

	with := Score(Candidate{Title: "Believer", Channel: "Imagine Dragons - Topic"}, target, "Believer")
	without := Score(Candidate{Title: "Believer", Channel: "randomchannel"}, target, "Believer")

	// Channel also carries the allowlisted "topic" marker: +8 artist, +6 allow.
	assert.Equal(t, without+8+6, with)
}

func TestPick_PrefersCleanCandidate(t *testing.T) {
	query := "Imagine Dragons Believer"
	candidates := []Candidate{
		{ID: "a", Title: "Believer (Karaoke Version)", Channel: "KaraokeHits"},
		{ID: "b", Title: "Imagine Dragons - Believer", Channel: "ImagineDragons"},
		{ID: "c", Title: "Believer cover", Channel: "someone"},
	}

	idx := Pick(candidates, nil, query)
	require.Equal(t, 1, idx)
}

func TestPick_TieKeepsFirstSeen(t *testing.T) {
	candidates := []Candidate{
		{ID: "first", Title: "identical title"},
		{ID: "second", Title: "identical title"},
	}
	assert.Equal(t, 0, Pick(candidates, nil, "identical title"))
}

func TestPick_Empty(t *testing.T) {
	assert.Equal(t, -1, Pick(nil, nil, "anything"))
}

func TestConfidence_Grades(t *testing.T) {
	score, grade := Confidence("Believer", "Believer")
	assert.InDelta(t, 1.0, score, 0.001)
	assert.Equal(t, ConfidenceHigh, grade)

	_, grade = Confidence("Believer", "totally unrelated video")
	assert.Equal(t, ConfidenceNone, grade)
}

func TestMatchConfidence_String(t *testing.T) {
	assert.Equal(t, "high", ConfidenceHigh.String())
	assert.Equal(t, "none", ConfidenceNone.String())
}
