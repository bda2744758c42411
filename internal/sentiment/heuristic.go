// Package sentiment classifies headline polarity, either through an external
// classifier service or a local rule-based lexicon used as the fallback when
// the service is slow or down.
package sentiment

import (
	"context"
	"strings"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// lexicon maps lowercased terms to polarity contributions on [-2,+2].
// Multi-word terms are matched as substrings of the normalized headline.
var lexicon = map[string]int{
	"resign":      -2,
	"resignation": -2,
	"impeach":     -2,
	"impeachment": -2,
	"indicted":    -2,
	"indictment":  -2,
	"invade":      -2,
	"invasion":    -2,
	"airstrike":   -2,
	"missile":     -2,
	"bankrupt":    -2,
	"bankruptcy":  -2,
	"earthquake":  -2,
	"hurricane":   -2,
	"crash":       -2,
	"collapse":    -2,
	"rate hike":   -1,
	"hikes rates": -1,
	"fed":         -1,
	"ban":         -1,
	"banned":      -1,
	"strike":      -1,
	"lawsuit":     -1,
	"ceasefire":   2,
	"peace deal":  2,
	"surge":       1,
	"rally":       1,
	"approve":     1,
	"approved":    1,
	"approval":    1,
	"acquire":     1,
	"acquisition": 1,
	"ipo":         1,
	"rate cut":    1,
	"cuts rates":  1,
}

// heuristicConfidence is the fixed confidence reported for rule-based
// classifications. Deliberately below a good classifier's typical output so
// downstream confidence gates still bite.
const heuristicConfidence = 0.65

// Heuristic is a local rule-based sentiment source. It never fails and
// ignores the context deadline (pure string work).
type Heuristic struct{}

// NewHeuristic returns the rule-based fallback classifier.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Classify implements domain.SentimentSource using the lexicon. The summed
// polarity of matched terms maps onto the five-level label scale.
func (h *Heuristic) Classify(_ context.Context, headline string) (domain.SentimentLabel, float64, error) {
	text := " " + normalize(headline) + " "
	score := 0
	for term, polarity := range lexicon {
		if strings.Contains(text, " "+term+" ") {
			score += polarity
		}
	}
	return labelFor(score), heuristicConfidence, nil
}

func labelFor(score int) domain.SentimentLabel {
	switch {
	case score <= -2:
		return domain.SentimentStrongNegative
	case score == -1:
		return domain.SentimentNegative
	case score == 1:
		return domain.SentimentPositive
	case score >= 2:
		return domain.SentimentStrongPositive
	}
	return domain.SentimentNeutral
}

// normalize lowercases and collapses punctuation to single spaces.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
