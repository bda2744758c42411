package domain

import "time"

// SentimentLabel is a five-level polarity classification of a headline.
type SentimentLabel string

const (
	SentimentStrongNegative SentimentLabel = "strong_negative"
	SentimentNegative       SentimentLabel = "negative"
	SentimentNeutral        SentimentLabel = "neutral"
	SentimentPositive       SentimentLabel = "positive"
	SentimentStrongPositive SentimentLabel = "strong_positive"
)

// Polarity maps the label onto [-2,+2].
func (l SentimentLabel) Polarity() int {
	switch l {
	case SentimentStrongNegative:
		return -2
	case SentimentNegative:
		return -1
	case SentimentPositive:
		return 1
	case SentimentStrongPositive:
		return 2
	}
	return 0
}

// NewsEvent is a processed headline with its matched keyword families and
// sentiment classification.
type NewsEvent struct {
	ID         string
	Headline   string
	Families   []string
	Sentiment  SentimentLabel
	Confidence float64
	Source     string // "classifier" or "heuristic"
	SeenAt     time.Time
}

// MarketDirection declares how a registered market reacts to bearish news:
// whether negative sentiment means buying or selling its YES token.
type MarketDirection string

const (
	DirectionBearishBuys  MarketDirection = "bearish_buys"
	DirectionBearishSells MarketDirection = "bearish_sells"
)
