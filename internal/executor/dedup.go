package executor

import (
	"fmt"
	"sync"
	"time"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// priceBucketTicks groups prices into 0.01 buckets for dedup purposes: a
// persisting violation re-quoted a fraction of a cent away is still the same
// trade.
const priceBucketTicks int64 = 10_000

// Dedup remembers intent keys for a TTL window so a signal re-emitted across
// cycles (a persisting violation, a still-wide spread) executes only once.
// Scanners mint a fresh UUID per emission, so the key is the economic intent
// — market, token, side, price bucket — never the signal id. Safe for
// concurrent use.
type Dedup struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

// NewDedup returns a window that treats an intent key as duplicate for ttl
// after it is first seen.
func NewDedup(ttl time.Duration) *Dedup {
	return &Dedup{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

// Key derives the dedup key for a signal from its economic intent.
func Key(sig domain.TradeSignal) string {
	return fmt.Sprintf("%s|%s|%s|%d",
		sig.MarketID, sig.TokenID, sig.Side, sig.PriceTicks/priceBucketTicks)
}

// Seen reports whether the key was recorded within the TTL window. A fresh or
// expired key is recorded and reported as unseen.
func (d *Dedup) Seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if last, ok := d.seen[key]; ok && now.Sub(last) < d.ttl {
		return true
	}
	d.seen[key] = now
	return false
}

// Cleanup drops entries older than the TTL so the map stays bounded.
func (d *Dedup) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	for key, ts := range d.seen {
		if now.Sub(ts) >= d.ttl {
			delete(d.seen, key)
		}
	}
}
