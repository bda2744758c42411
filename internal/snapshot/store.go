// Package snapshot maintains the frozen market view each orchestrator cycle
// reads from. Writers accumulate quote updates into a staging area; Freeze
// builds an immutable MarketSnapshot and swaps it wholesale, so scanners in
// flight keep the view they started with.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// Store holds the staging market/quote state and the last frozen snapshot.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	markets map[string]domain.Market
	quotes  map[string]domain.Quote
	frozen  *domain.MarketSnapshot
	cycle   uint64
	logger  *slog.Logger
}

// NewStore returns an empty Store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		markets: make(map[string]domain.Market),
		quotes:  make(map[string]domain.Quote),
		logger:  logger.With(slog.String("component", "snapshot_store")),
	}
}

// UpsertMarket adds or replaces a market in the staging area.
func (s *Store) UpsertMarket(m domain.Market) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markets[m.ID] = m
}

// ApplyQuote records the latest best bid/ask for a market. Later updates for
// the same market replace earlier ones.
func (s *Store) ApplyQuote(q domain.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.MarketID] = q
}

// RemoveMarket drops a market and its quote from the staging area. Frozen
// snapshots already handed to scanners are unaffected.
func (s *Store) RemoveMarket(marketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markets, marketID)
	delete(s.quotes, marketID)
}

// Prime loads quotes for the known markets from the cache, typically once at
// startup before the feed takes over.
func (s *Store) Prime(ctx context.Context, cache domain.QuoteCache) error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.markets))
	for id := range s.markets {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	if len(ids) == 0 {
		return nil
	}
	quotes, err := cache.GetQuotes(ctx, ids)
	if err != nil {
		return fmt.Errorf("snapshot: prime from cache: %w", err)
	}
	s.mu.Lock()
	for id, q := range quotes {
		s.quotes[id] = q
	}
	s.mu.Unlock()
	s.logger.Info("primed quotes from cache", slog.Int("markets", len(quotes)))
	return nil
}

// Freeze builds an immutable snapshot of the current staging state and makes
// it the one returned by Current. The cycle counter increments on every call.
func (s *Store) Freeze() *domain.MarketSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cycle++
	snap := &domain.MarketSnapshot{
		Cycle:   s.cycle,
		TakenAt: time.Now().UTC(),
		Markets: make(map[string]domain.Market, len(s.markets)),
		Quotes:  make(map[string]domain.Quote, len(s.quotes)),
	}
	for id, m := range s.markets {
		snap.Markets[id] = m
	}
	for id, q := range s.quotes {
		snap.Quotes[id] = q
	}
	s.frozen = snap
	return snap
}

// Current returns the last frozen snapshot, or nil before the first Freeze.
func (s *Store) Current() *domain.MarketSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

// MarketCount reports the number of staged markets.
func (s *Store) MarketCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markets)
}
