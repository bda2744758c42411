package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/RanaPriyansh/polymarket-hft/internal/config"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// UnityArbitrageDetector finds violations of the unity constraint on
// multi-outcome condition groups: outcome prices must sum to 1. When the sum
// of best bids exceeds 1 plus fee, minting a full set and selling every leg
// locks in the excess; when the sum of best asks is below 1 minus fee, buying
// every leg and merging does.
type UnityArbitrageDetector struct {
	cfg    config.UnityConfig
	logger *slog.Logger
}

// NewUnityArbitrageDetector returns a detector with the given fee and
// profit-floor parameters.
func NewUnityArbitrageDetector(cfg config.UnityConfig, logger *slog.Logger) *UnityArbitrageDetector {
	return &UnityArbitrageDetector{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "unity_arb")),
	}
}

// Detect checks one condition group. bids and asks hold the best bid/ask per
// outcome and must match the market's outcome count, with every value in
// [0,1]; anything else is domain.ErrInvalidInput. A nil opportunity means no
// profitable direction exists (including opportunities below MinProfitBps).
func (u *UnityArbitrageDetector) Detect(market domain.Market, bids, asks []float64) (*domain.NegRiskOpportunity, error) {
	n := len(market.Outcomes)
	if n < 2 {
		return nil, fmt.Errorf("unity: market %s has %d outcomes: %w", market.ID, n, domain.ErrInvalidInput)
	}
	if len(bids) != n || len(asks) != n {
		return nil, fmt.Errorf("unity: market %s: %d bids / %d asks for %d outcomes: %w",
			market.ID, len(bids), len(asks), n, domain.ErrInvalidInput)
	}
	var sumBids, sumAsks float64
	for i := 0; i < n; i++ {
		if bids[i] < 0 || bids[i] > 1 || asks[i] < 0 || asks[i] > 1 {
			return nil, fmt.Errorf("unity: market %s: price out of [0,1]: %w", market.ID, domain.ErrInvalidInput)
		}
		sumBids += bids[i]
		sumAsks += asks[i]
	}

	fee := u.cfg.FeeRate
	mintBps := (sumBids - 1 - fee) * 10000
	mergeBps := (1 - fee - sumAsks) * 10000

	var opp *domain.NegRiskOpportunity
	switch {
	case mintBps > 0 && mergeBps > 0:
		// Both directions triggering means the book is crossed; take the
		// larger edge but flag the anomaly.
		u.logger.Warn("crossed book on condition group",
			slog.String("market", market.ID),
			slog.Float64("sum_bids", sumBids),
			slog.Float64("sum_asks", sumAsks),
		)
		if mintBps >= mergeBps {
			opp = u.opportunity(market, domain.NegRiskMintAndSell, sumBids, sumAsks, mintBps, n)
		} else {
			opp = u.opportunity(market, domain.NegRiskBuyAndMerge, sumBids, sumAsks, mergeBps, n)
		}
	case mintBps > 0:
		opp = u.opportunity(market, domain.NegRiskMintAndSell, sumBids, sumAsks, mintBps, n)
	case mergeBps > 0:
		opp = u.opportunity(market, domain.NegRiskBuyAndMerge, sumBids, sumAsks, mergeBps, n)
	default:
		return nil, nil
	}
	if opp.ProfitBps < u.cfg.MinProfitBps {
		return nil, nil
	}
	return opp, nil
}

func (u *UnityArbitrageDetector) opportunity(market domain.Market, kind domain.NegRiskKind, sumBids, sumAsks, profitBps float64, outcomes int) *domain.NegRiskOpportunity {
	return &domain.NegRiskOpportunity{
		MarketID:  market.ID,
		Kind:      kind,
		SumBids:   sumBids,
		SumAsks:   sumAsks,
		ProfitBps: profitBps,
		Outcomes:  outcomes,
	}
}

// Name implements Strategy.
func (u *UnityArbitrageDetector) Name() string { return "unity_arb" }

// Init implements Strategy.
func (u *UnityArbitrageDetector) Init(ctx context.Context) error { return nil }

// Close implements Strategy.
func (u *UnityArbitrageDetector) Close() error { return nil }

// Scan implements Strategy. Binary markets belonging to the same neg-risk
// condition group share a ConditionID; each contributes its YES quote as one
// outcome leg. Groups with a missing leg quote are skipped.
func (u *UnityArbitrageDetector) Scan(ctx context.Context, snap *domain.MarketSnapshot) ([]domain.TradeSignal, error) {
	groups := make(map[string][]domain.Market)
	for _, m := range snap.Markets {
		if m.NegRisk && m.ConditionID != "" {
			groups[m.ConditionID] = append(groups[m.ConditionID], m)
		}
	}
	groupIDs := make([]string, 0, len(groups))
	for id := range groups {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)

	now := time.Now().UTC()
	var signals []domain.TradeSignal
	for _, gid := range groupIDs {
		members := groups[gid]
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

		group := domain.Market{
			ID:          gid,
			ConditionID: gid,
			NegRisk:     true,
			Outcomes:    make([]string, len(members)),
			TokenIDs:    make([]string, len(members)),
		}
		bids := make([]float64, len(members))
		asks := make([]float64, len(members))
		complete := true
		for i, m := range members {
			q, ok := snap.Quote(m.ID)
			if !ok || q.Bid <= 0 || q.Ask <= 0 {
				complete = false
				break
			}
			group.Outcomes[i] = m.Question
			group.TokenIDs[i] = m.YesTokenID()
			bids[i] = q.Bid
			asks[i] = q.Ask
		}
		if !complete {
			continue
		}

		opp, err := u.Detect(group, bids, asks)
		if err != nil {
			u.logger.Warn("unity detect failed", slog.String("group", gid), slog.String("error", err.Error()))
			continue
		}
		if opp == nil {
			continue
		}
		u.logger.Info("unity opportunity",
			slog.String("group", gid),
			slog.String("kind", string(opp.Kind)),
			slog.Float64("profit_bps", opp.ProfitBps),
		)
		signals = append(signals, u.legSignals(members, bids, asks, opp, now)...)
	}
	return signals, nil
}

// legSignals emits one signal per outcome leg: sell every leg at its bid for
// mint-and-sell, buy every leg at its ask for buy-and-merge.
func (u *UnityArbitrageDetector) legSignals(members []domain.Market, bids, asks []float64, opp *domain.NegRiskOpportunity, now time.Time) []domain.TradeSignal {
	side := domain.OrderSideSell
	if opp.Kind == domain.NegRiskBuyAndMerge {
		side = domain.OrderSideBuy
	}
	reason := fmt.Sprintf("%s on %s: %.0f bps across %d legs", opp.Kind, opp.MarketID, opp.ProfitBps, opp.Outcomes)
	out := make([]domain.TradeSignal, 0, len(members))
	for i, m := range members {
		price := bids[i]
		if side == domain.OrderSideBuy {
			price = asks[i]
		}
		out = append(out, domain.TradeSignal{
			ID:         uuid.NewString(),
			Source:     u.Name(),
			MarketID:   m.ID,
			TokenID:    m.YesTokenID(),
			Side:       side,
			PriceTicks: domain.PriceToTicks(price),
			SizeUnits:  domain.SizeToUnits(u.cfg.SizePerLeg),
			Urgency:    domain.SignalUrgencyHigh,
			Confidence: 0.9,
			Reason:     reason,
			Metadata:   map[string]string{"condition_group": opp.MarketID, "kind": string(opp.Kind)},
			CreatedAt:  now,
			ExpiresAt:  now.Add(10 * time.Second),
		})
	}
	return out
}
