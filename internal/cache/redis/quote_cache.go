package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// QuoteCache implements domain.QuoteCache on Redis hashes. Each market's
// best bid/ask lives at "quote:{marketID}"; the member set "quote:markets"
// tracks which markets have ever been quoted.
type QuoteCache struct {
	rdb *redis.Client
}

// NewQuoteCache builds a QuoteCache on the given client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying()}
}

const marketSetKey = "quote:markets"

func quoteKey(marketID string) string {
	return "quote:" + marketID
}

// SetQuote stores the latest best bid/ask for a market and clears any
// staleness expiry a feed drop may have set.
func (qc *QuoteCache) SetQuote(ctx context.Context, q domain.Quote) error {
	key := quoteKey(q.MarketID)
	fields := map[string]interface{}{
		"token":    q.TokenID,
		"bid":      strconv.FormatFloat(q.Bid, 'f', -1, 64),
		"ask":      strconv.FormatFloat(q.Ask, 'f', -1, 64),
		"bid_size": strconv.FormatFloat(q.BidSize, 'f', -1, 64),
		"ask_size": strconv.FormatFloat(q.AskSize, 'f', -1, 64),
		"ts":       strconv.FormatInt(q.UpdatedAt.UnixNano(), 10),
	}

	pipe := qc.rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Persist(ctx, key)
	pipe.SAdd(ctx, marketSetKey, q.MarketID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", q.MarketID, err)
	}
	return nil
}

// GetQuote returns the cached quote for one market, or domain.ErrNotFound.
func (qc *QuoteCache) GetQuote(ctx context.Context, marketID string) (domain.Quote, error) {
	vals, err := qc.rdb.HGetAll(ctx, quoteKey(marketID)).Result()
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: get quote %s: %w", marketID, err)
	}
	if len(vals) == 0 {
		return domain.Quote{}, domain.ErrNotFound
	}
	return quoteFromFields(marketID, vals)
}

// GetQuotes fetches many quotes in one pipeline. Missing markets are
// omitted from the result.
func (qc *QuoteCache) GetQuotes(ctx context.Context, marketIDs []string) (map[string]domain.Quote, error) {
	if len(marketIDs) == 0 {
		return map[string]domain.Quote{}, nil
	}

	pipe := qc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(marketIDs))
	for _, id := range marketIDs {
		cmds[id] = pipe.HGetAll(ctx, quoteKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get quotes pipeline: %w", err)
	}

	out := make(map[string]domain.Quote, len(marketIDs))
	for id, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		q, err := quoteFromFields(id, vals)
		if err != nil {
			continue
		}
		out[id] = q
	}
	return out, nil
}

// ListMarketIDs returns every market id that has a cached quote.
func (qc *QuoteCache) ListMarketIDs(ctx context.Context) ([]string, error) {
	ids, err := qc.rdb.SMembers(ctx, marketSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list quoted markets: %w", err)
	}
	return ids, nil
}

// SetStale puts an expiry on the market's quote so it vanishes after ttl
// unless a fresh update arrives first.
func (qc *QuoteCache) SetStale(ctx context.Context, marketID string, ttl time.Duration) error {
	if err := qc.rdb.Expire(ctx, quoteKey(marketID), ttl).Err(); err != nil {
		return fmt.Errorf("redis: mark quote stale %s: %w", marketID, err)
	}
	return nil
}

func quoteFromFields(marketID string, vals map[string]string) (domain.Quote, error) {
	q := domain.Quote{MarketID: marketID, TokenID: vals["token"]}

	var err error
	if q.Bid, err = strconv.ParseFloat(vals["bid"], 64); err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse bid for %s: %w", marketID, err)
	}
	if q.Ask, err = strconv.ParseFloat(vals["ask"], 64); err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse ask for %s: %w", marketID, err)
	}
	q.BidSize, _ = strconv.ParseFloat(vals["bid_size"], 64)
	q.AskSize, _ = strconv.ParseFloat(vals["ask_size"], 64)
	if ns, perr := strconv.ParseInt(vals["ts"], 10, 64); perr == nil {
		q.UpdatedAt = time.Unix(0, ns).UTC()
	}
	return q, nil
}

var _ domain.QuoteCache = (*QuoteCache)(nil)
