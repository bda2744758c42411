package domain

import (
	"context"
	"time"
)

// QuoteCache stores the latest best bid/ask per market. The websocket feed
// writes through; the snapshot store primes from it at startup.
type QuoteCache interface {
	SetQuote(ctx context.Context, q Quote) error
	GetQuote(ctx context.Context, marketID string) (Quote, error)
	GetQuotes(ctx context.Context, marketIDs []string) (map[string]Quote, error)
	ListMarketIDs(ctx context.Context) ([]string, error)
	SetStale(ctx context.Context, marketID string, ttl time.Duration) error
}
