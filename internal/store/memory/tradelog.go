// Package memory provides in-process store implementations used in record
// and simulate modes, where a database adds nothing but a dependency.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// TradeLogStore keeps trade-log entries in a slice. Safe for concurrent use.
type TradeLogStore struct {
	mu      sync.RWMutex
	entries []domain.TradeLogEntry
	nextID  int64
}

// NewTradeLogStore returns an empty in-memory trade log.
func NewTradeLogStore() *TradeLogStore {
	return &TradeLogStore{nextID: 1}
}

// Append adds one entry, assigning it the next id.
func (s *TradeLogStore) Append(ctx context.Context, entry domain.TradeLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, entry)
	return nil
}

// AppendBatch adds entries in order.
func (s *TradeLogStore) AppendBatch(ctx context.Context, entries []domain.TradeLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		e.ID = s.nextID
		s.nextID++
		s.entries = append(s.entries, e)
	}
	return nil
}

// ListByCycle returns the entries logged for one cycle in insertion order.
func (s *TradeLogStore) ListByCycle(ctx context.Context, cycle uint64) ([]domain.TradeLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.TradeLogEntry
	for _, e := range s.entries {
		if e.Cycle == cycle {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListRecent returns entries newest first, honoring the list options.
func (s *TradeLogStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.TradeLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]domain.TradeLogEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if opts.Since != nil && e.CreatedAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.CreatedAt.After(*opts.Until) {
			continue
		}
		filtered = append(filtered, e)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].ID > filtered[j].ID
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(filtered) {
			return nil, nil
		}
		filtered = filtered[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(filtered) {
		filtered = filtered[:opts.Limit]
	}
	return filtered, nil
}

// DeleteBefore drops entries older than the cutoff and reports how many.
func (s *TradeLogStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	var dropped int64
	for _, e := range s.entries {
		if e.CreatedAt.Before(cutoff) {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return dropped, nil
}

var _ domain.TradeLogStore = (*TradeLogStore)(nil)
