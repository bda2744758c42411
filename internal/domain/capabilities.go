package domain

import "context"

// QuoteSource provides the latest best bid/ask per market. Production wires
// the websocket feed through the Redis quote cache; tests use a static map.
type QuoteSource interface {
	BestQuote(ctx context.Context, marketID string) (Quote, error)
	BestQuotes(ctx context.Context, marketIDs []string) (map[string]Quote, error)
}

// Confirmation is an oracle's view of a market's outcome.
type Confirmation struct {
	ConditionID string
	Answer      bool // true = YES resolved
	Confidence  float64
}

// ConfirmationSource answers whether a condition has resolved and how sure
// the source is. Implementations must respect the context deadline.
type ConfirmationSource interface {
	Confirm(ctx context.Context, conditionID string) (Confirmation, error)
}

// SentimentSource classifies a headline. Implementations must respect the
// context deadline; callers fall back to a local heuristic on error.
type SentimentSource interface {
	Classify(ctx context.Context, headline string) (SentimentLabel, float64, error)
}

// OrderSubmitter places a signed order at the venue.
type OrderSubmitter interface {
	Submit(ctx context.Context, order Order) (OrderResult, error)
	Cancel(ctx context.Context, orderID string) error
}

// Notifier delivers operator alerts for loud failures.
type Notifier interface {
	Notify(ctx context.Context, event string, message string) error
}
