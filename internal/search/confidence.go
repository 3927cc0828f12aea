package search

import "github.com/hbollon/go-edlib"

// MatchConfidence grades how closely the chosen candidate's title resembles
// the target's. It is a diagnostic readout only and never influences
// ranking order.
type MatchConfidence int

const (
	ConfidenceNone   MatchConfidence = iota // score < 0.70
	ConfidenceLow                           // score >= 0.70
	ConfidenceMedium                        // score >= 0.85
	ConfidenceHigh                          // score >= 0.95
)

func (c MatchConfidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// Confidence returns the Jaro-Winkler similarity between the normalized
// target and candidate titles plus its confidence grade. Jaro-Winkler
// favors prefix matches, which suits track titles that trail version
// qualifiers.
func Confidence(target, candidate string) (float64, MatchConfidence) {
	score := float64(edlib.JaroWinklerSimilarity(Normalize(target), Normalize(candidate)))

	switch {
	case score >= 0.95:
		return score, ConfidenceHigh
	case score >= 0.85:
		return score, ConfidenceMedium
	case score >= 0.70:
		return score, ConfidenceLow
	default:
		return score, ConfidenceNone
	}
}
