// Package feed bridges the venue websocket and the local market state: every
// top-of-book update is rewritten to local market ids, staged in the
// snapshot store, and written through to the quote cache.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
	"github.com/RanaPriyansh/polymarket-hft/internal/platform/polymarket"
	"github.com/RanaPriyansh/polymarket-hft/internal/snapshot"
)

// staleTTL marks cached quotes suspect after a feed drop. Scanners keep the
// last snapshot; the cache simply stops vouching for freshness.
const staleTTL = 30 * time.Second

// QuoteFeed subscribes to book frames for the yes-token of every tracked
// market and fans each quote into the snapshot store and the quote cache.
type QuoteFeed struct {
	wsURL string

	mu            sync.RWMutex
	marketByToken map[string]string

	store  *snapshot.Store
	cache  domain.QuoteCache
	logger *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewQuoteFeed builds a feed. cache may be nil (record mode without Redis).
func NewQuoteFeed(wsURL string, store *snapshot.Store, cache domain.QuoteCache, logger *slog.Logger) *QuoteFeed {
	return &QuoteFeed{
		wsURL:         wsURL,
		marketByToken: make(map[string]string),
		store:         store,
		cache:         cache,
		logger:        logger.With(slog.String("component", "quote_feed")),
		done:          make(chan struct{}),
	}
}

// Track registers the markets whose quotes the feed should follow. Must be
// called before Run. Markets without a yes-token are skipped.
func (f *QuoteFeed) Track(markets []domain.Market) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range markets {
		if tok := m.YesTokenID(); tok != "" {
			f.marketByToken[tok] = m.ID
		}
	}
}

// Run connects, subscribes, and processes frames until the context is
// cancelled. Dropped connections are redialed with a pause between attempts.
func (f *QuoteFeed) Run(ctx context.Context) error {
	f.mu.RLock()
	assetIDs := make([]string, 0, len(f.marketByToken))
	for tok := range f.marketByToken {
		assetIDs = append(assetIDs, tok)
	}
	f.mu.RUnlock()

	if len(assetIDs) == 0 {
		f.logger.Info("no markets tracked, feed exiting")
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx, assetIDs)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}
		f.logger.Warn("feed disconnected, redialing", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (f *QuoteFeed) runConnection(ctx context.Context, assetIDs []string) error {
	client := polymarket.NewWSClient(f.wsURL)
	defer client.Close()

	client.OnQuote(f.apply)
	client.OnDrop(f.markStale)

	connCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err := client.Connect(connCtx)
	cancel()
	if err != nil {
		return err
	}
	if err := client.Subscribe(ctx, assetIDs); err != nil {
		return err
	}
	f.logger.Info("feed subscribed", slog.Int("assets", len(assetIDs)))

	<-ctx.Done()
	return ctx.Err()
}

// apply rewrites the quote to the local market id and writes it through.
func (f *QuoteFeed) apply(q domain.Quote) {
	f.mu.RLock()
	marketID, ok := f.marketByToken[q.TokenID]
	f.mu.RUnlock()
	if !ok {
		return // frame for an asset we no longer track
	}
	q.MarketID = marketID

	f.store.ApplyQuote(q)
	if f.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := f.cache.SetQuote(ctx, q); err != nil {
			f.logger.Debug("quote cache write failed",
				slog.String("market", marketID),
				slog.String("error", err.Error()),
			)
		}
		cancel()
	}
}

// markStale flags every tracked market's cached quote after a feed drop.
func (f *QuoteFeed) markStale() {
	if f.cache == nil {
		return
	}
	f.mu.RLock()
	ids := make([]string, 0, len(f.marketByToken))
	for _, id := range f.marketByToken {
		ids = append(ids, id)
	}
	f.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, id := range ids {
		if err := f.cache.SetStale(ctx, id, staleTTL); err != nil {
			return
		}
	}
}

// Close stops the feed permanently.
func (f *QuoteFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
