package feed

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
	"github.com/RanaPriyansh/polymarket-hft/internal/snapshot"
)

// mapCache is a QuoteCache backed by a plain map.
type mapCache struct {
	mu     sync.Mutex
	quotes map[string]domain.Quote
	stale  map[string]time.Duration
}

func newMapCache() *mapCache {
	return &mapCache{
		quotes: make(map[string]domain.Quote),
		stale:  make(map[string]time.Duration),
	}
}

func (c *mapCache) SetQuote(ctx context.Context, q domain.Quote) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[q.MarketID] = q
	return nil
}

func (c *mapCache) GetQuote(ctx context.Context, marketID string) (domain.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.quotes[marketID]
	if !ok {
		return domain.Quote{}, domain.ErrNotFound
	}
	return q, nil
}

func (c *mapCache) GetQuotes(ctx context.Context, marketIDs []string) (map[string]domain.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]domain.Quote)
	for _, id := range marketIDs {
		if q, ok := c.quotes[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func (c *mapCache) ListMarketIDs(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.quotes))
	for id := range c.quotes {
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *mapCache) SetStale(ctx context.Context, marketID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale[marketID] = ttl
	return nil
}

func trackedMarket(id, yesToken string) domain.Market {
	return domain.Market{
		ID:       id,
		Outcomes: []string{"Yes", "No"},
		TokenIDs: []string{yesToken, yesToken + "-no"},
		Status:   domain.MarketStatusActive,
	}
}

func TestApplyRewritesMarketID(t *testing.T) {
	store := snapshot.NewStore(slog.Default())
	cache := newMapCache()
	f := NewQuoteFeed("wss://example", store, cache, slog.Default())
	f.Track([]domain.Market{trackedMarket("m1", "tok-yes-1")})

	f.apply(domain.Quote{MarketID: "cond-raw", TokenID: "tok-yes-1", Bid: 0.41, Ask: 0.43})

	snap := store.Freeze()
	q, ok := snap.Quote("m1")
	require.True(t, ok)
	assert.InDelta(t, 0.41, q.Bid, 1e-9)

	cached, err := cache.GetQuote(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", cached.MarketID)
}

func TestApplySkipsUntrackedToken(t *testing.T) {
	store := snapshot.NewStore(slog.Default())
	cache := newMapCache()
	f := NewQuoteFeed("wss://example", store, cache, slog.Default())
	f.Track([]domain.Market{trackedMarket("m1", "tok-yes-1")})

	f.apply(domain.Quote{TokenID: "tok-unknown", Bid: 0.5, Ask: 0.6})

	snap := store.Freeze()
	assert.Empty(t, snap.Quotes)
	assert.Empty(t, cache.quotes)
}

func TestMarkStaleFlagsAllTracked(t *testing.T) {
	store := snapshot.NewStore(slog.Default())
	cache := newMapCache()
	f := NewQuoteFeed("wss://example", store, cache, slog.Default())
	f.Track([]domain.Market{
		trackedMarket("m1", "tok-1"),
		trackedMarket("m2", "tok-2"),
	})

	f.markStale()
	assert.Len(t, cache.stale, 2)
	assert.Equal(t, staleTTL, cache.stale["m1"])
}

func TestNilCacheIsSafe(t *testing.T) {
	store := snapshot.NewStore(slog.Default())
	f := NewQuoteFeed("wss://example", store, nil, slog.Default())
	f.Track([]domain.Market{trackedMarket("m1", "tok-1")})

	f.apply(domain.Quote{TokenID: "tok-1", Bid: 0.2, Ask: 0.3})
	f.markStale()

	snap := store.Freeze()
	_, ok := snap.Quote("m1")
	assert.True(t, ok)
}
