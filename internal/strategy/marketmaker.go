package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RanaPriyansh/polymarket-hft/internal/config"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// cryptoSlugPrefixes are the asset symbols that mark a slug as a crypto
// price market.
var cryptoSlugPrefixes = []string{
	"btc", "bitcoin", "eth", "ethereum", "sol", "solana", "xrp", "doge", "ada",
}

// shortFuseTokens mark a slug as a 15-minute duration market.
var shortFuseTokens = []string{
	"15m", "15-min", "15min", "fifteen-min",
}

// IsShortFuseCryptoSlug reports whether a market slug names a 15-minute
// crypto price market. Those books turn over too fast to cross safely, so
// quotes there must rest post-only.
func IsShortFuseCryptoSlug(slug string) bool {
	s := strings.ToLower(slug)
	prefixed := false
	for _, p := range cryptoSlugPrefixes {
		if strings.HasPrefix(s, p) {
			prefixed = true
			break
		}
	}
	if !prefixed {
		return false
	}
	for _, t := range shortFuseTokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// ZombieMarketMaker quotes inside the spread of wide, sleepy books. A market
// qualifies when its spread falls inside [MinSpreadBps, MaxSpreadBps] and its
// mid clears the penny-market floor.
type ZombieMarketMaker struct {
	cfg    config.MarketMakerConfig
	logger *slog.Logger
}

// NewZombieMarketMaker returns a market maker with the given spread bounds.
func NewZombieMarketMaker(cfg config.MarketMakerConfig, logger *slog.Logger) *ZombieMarketMaker {
	return &ZombieMarketMaker{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "zombie_mm")),
	}
}

// ScanMarket evaluates a single market's quote. A nil result means the market
// does not qualify.
func (z *ZombieMarketMaker) ScanMarket(market domain.Market, q domain.Quote) *domain.MarketOpportunity {
	if q.Bid <= 0 || q.Ask <= 0 || q.Ask <= q.Bid {
		return nil
	}
	mid := q.Mid()
	if mid < z.cfg.MinMidPrice {
		return nil
	}
	spreadBps := (q.Ask - q.Bid) * 10000
	if spreadBps < z.cfg.MinSpreadBps || spreadBps > z.cfg.MaxSpreadBps {
		return nil
	}

	quote := q.Bid + z.cfg.EdgeFraction*(q.Ask-q.Bid)
	side := domain.OrderSideBuy
	if quote > mid {
		side = domain.OrderSideSell
	}
	style := domain.QuoteStyleTaker
	if IsShortFuseCryptoSlug(market.Slug) {
		style = domain.QuoteStyleMaker
	}
	return &domain.MarketOpportunity{
		MarketID:   market.ID,
		TokenID:    market.YesTokenID(),
		Bid:        q.Bid,
		Ask:        q.Ask,
		SpreadBps:  spreadBps,
		QuotePrice: quote,
		Side:       side,
		Style:      style,
	}
}

// ScanBatch evaluates markets independently and returns qualifying
// opportunities in input order.
func (z *ZombieMarketMaker) ScanBatch(markets []domain.Market, quotes map[string]domain.Quote) []domain.MarketOpportunity {
	out := make([]domain.MarketOpportunity, 0, len(markets))
	for _, m := range markets {
		q, ok := quotes[m.ID]
		if !ok {
			continue
		}
		if opp := z.ScanMarket(m, q); opp != nil {
			out = append(out, *opp)
		}
	}
	return out
}

// Name implements Strategy.
func (z *ZombieMarketMaker) Name() string { return "market_maker" }

// Init implements Strategy.
func (z *ZombieMarketMaker) Init(ctx context.Context) error { return nil }

// Close implements Strategy.
func (z *ZombieMarketMaker) Close() error { return nil }

// Scan implements Strategy. Markets are evaluated in sorted-id order so runs
// over the same snapshot are deterministic.
func (z *ZombieMarketMaker) Scan(ctx context.Context, snap *domain.MarketSnapshot) ([]domain.TradeSignal, error) {
	markets := make([]domain.Market, 0, len(snap.Markets))
	for _, m := range snap.Markets {
		markets = append(markets, m)
	}
	sort.Slice(markets, func(i, j int) bool { return markets[i].ID < markets[j].ID })

	opps := z.ScanBatch(markets, snap.Quotes)
	if len(opps) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	signals := make([]domain.TradeSignal, 0, len(opps))
	for _, opp := range opps {
		z.logger.Debug("zombie quote",
			slog.String("market", opp.MarketID),
			slog.Float64("spread_bps", opp.SpreadBps),
			slog.Float64("quote", opp.QuotePrice),
			slog.String("style", string(opp.Style)),
		)
		signals = append(signals, domain.TradeSignal{
			ID:         uuid.NewString(),
			Source:     z.Name(),
			MarketID:   opp.MarketID,
			TokenID:    opp.TokenID,
			Side:       opp.Side,
			PriceTicks: domain.PriceToTicks(opp.QuotePrice),
			SizeUnits:  domain.SizeToUnits(z.cfg.QuoteSize),
			Urgency:    domain.SignalUrgencyLow,
			Confidence: 0.5,
			Reason:     fmt.Sprintf("spread %.0f bps, quoting %.4f inside %0.4f/%0.4f", opp.SpreadBps, opp.QuotePrice, opp.Bid, opp.Ask),
			Metadata:   map[string]string{"style": string(opp.Style)},
			CreatedAt:  now,
			ExpiresAt:  now.Add(time.Minute),
		})
	}
	return signals, nil
}
