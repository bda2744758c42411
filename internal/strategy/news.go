package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RanaPriyansh/polymarket-hft/internal/config"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
	"github.com/RanaPriyansh/polymarket-hft/internal/sentiment"
)

// newsFamily is one entry of the fixed keyword-family catalog. Polarity is
// the rule-based sentiment prior on [-2,+2]; severity is the urgency floor
// for signals derived from this family.
type newsFamily struct {
	name     string
	synonyms []string
	polarity int
	severity domain.SignalUrgency
}

// familyCatalog is deliberately fixed: matching is cheap string work on the
// hot path and the families cover the event shapes the strategies care
// about. Synonyms are matched on a lowercased tokenization.
var familyCatalog = []newsFamily{
	{name: "resign", synonyms: []string{"resigns", "resigned", "resignation", "steps down", "stepping down"}, polarity: -2, severity: domain.SignalUrgencyHigh},
	{name: "impeach", synonyms: []string{"impeached", "impeachment"}, polarity: -2, severity: domain.SignalUrgencyHigh},
	{name: "indicted", synonyms: []string{"indictment", "charged", "charges filed"}, polarity: -2, severity: domain.SignalUrgencyHigh},
	{name: "invade", synonyms: []string{"invades", "invasion", "troops cross"}, polarity: -2, severity: domain.SignalUrgencyImmediate},
	{name: "strike", synonyms: []string{"strikes", "airstrike", "air strike", "missile"}, polarity: -2, severity: domain.SignalUrgencyHigh},
	{name: "ceasefire", synonyms: []string{"cease-fire", "truce", "peace deal"}, polarity: 2, severity: domain.SignalUrgencyMedium},
	{name: "acquire", synonyms: []string{"acquires", "acquisition", "merger", "buyout"}, polarity: 1, severity: domain.SignalUrgencyMedium},
	{name: "bankrupt", synonyms: []string{"bankruptcy", "insolvent", "chapter 11"}, polarity: -2, severity: domain.SignalUrgencyHigh},
	{name: "ipo", synonyms: []string{"goes public", "public offering"}, polarity: 1, severity: domain.SignalUrgencyMedium},
	{name: "ban", synonyms: []string{"banned", "prohibits", "outlaws"}, polarity: -1, severity: domain.SignalUrgencyMedium},
	{name: "approve", synonyms: []string{"approves", "approved", "approval", "greenlights"}, polarity: 1, severity: domain.SignalUrgencyMedium},
	{name: "rate-hike", synonyms: []string{"rate hike", "raises rates", "rate increase", "hikes rates"}, polarity: -1, severity: domain.SignalUrgencyHigh},
	{name: "fed", synonyms: []string{"federal reserve", "fomc", "powell"}, polarity: -1, severity: domain.SignalUrgencyHigh},
	{name: "earthquake", synonyms: []string{"quake", "seismic"}, polarity: -2, severity: domain.SignalUrgencyHigh},
	{name: "hurricane", synonyms: []string{"typhoon", "cyclone", "landfall"}, polarity: -2, severity: domain.SignalUrgencyHigh},
}

// newsRegistration is a market's keyword subscription.
type newsRegistration struct {
	marketID  string
	tokenID   string
	families  map[string]bool
	direction domain.MarketDirection
}

// NewsSignalGenerator turns raw headlines into trade signals for markets
// registered against keyword families. Sentiment comes from the configured
// classifier with a hard per-call deadline; on any failure it falls back to
// the catalog's rule-based polarity.
type NewsSignalGenerator struct {
	mu        sync.Mutex
	markets   map[string]*newsRegistration
	headlines []string
	source    domain.SentimentSource
	fallback  *sentiment.Heuristic
	cfg       config.NewsConfig
	logger    *slog.Logger
}

// NewNewsSignalGenerator returns a generator with no registered markets.
func NewNewsSignalGenerator(source domain.SentimentSource, cfg config.NewsConfig, logger *slog.Logger) *NewsSignalGenerator {
	return &NewsSignalGenerator{
		markets:  make(map[string]*newsRegistration),
		source:   source,
		fallback: sentiment.NewHeuristic(),
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "news_signals")),
	}
}

// RegisterMarket subscribes a market to the keyword families matching the
// given keywords and declares how it reacts to bearish news. Keywords that
// match no family are ignored.
func (n *NewsSignalGenerator) RegisterMarket(marketID, tokenID string, keywords []string, direction domain.MarketDirection) {
	fams := make(map[string]bool)
	for _, kw := range keywords {
		if f := matchFamily(strings.ToLower(kw)); f != "" {
			fams[f] = true
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.markets[marketID] = &newsRegistration{
		marketID:  marketID,
		tokenID:   tokenID,
		families:  fams,
		direction: direction,
	}
}

// Ingest queues a raw headline for the next scan cycle.
func (n *NewsSignalGenerator) Ingest(headline string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.headlines = append(n.headlines, headline)
}

// matchFamily returns the family a single keyword belongs to, or "".
func matchFamily(kw string) string {
	for _, f := range familyCatalog {
		if kw == f.name {
			return f.name
		}
		for _, syn := range f.synonyms {
			if kw == syn {
				return f.name
			}
		}
	}
	return ""
}

// matchFamilies returns the catalog families present in a headline, in
// catalog order.
func matchFamilies(headline string) []string {
	text := " " + normalize(headline) + " "
	var out []string
	for _, f := range familyCatalog {
		if containsTerm(text, f.name) {
			out = append(out, f.name)
			continue
		}
		for _, syn := range f.synonyms {
			if containsTerm(text, syn) {
				out = append(out, f.name)
				break
			}
		}
	}
	return out
}

// normalize lowercases and collapses punctuation to spaces so term matching
// works on word boundaries.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func containsTerm(normalizedText, term string) bool {
	return strings.Contains(normalizedText, " "+normalize(term)+" ")
}

// ProcessHeadline matches a headline against the catalog and classifies its
// sentiment. Headlines matching no family return a zero event with no error.
func (n *NewsSignalGenerator) ProcessHeadline(ctx context.Context, headline string) (domain.NewsEvent, error) {
	fams := matchFamilies(headline)
	if len(fams) == 0 {
		return domain.NewsEvent{}, nil
	}

	event := domain.NewsEvent{
		ID:       uuid.NewString(),
		Headline: headline,
		Families: fams,
		SeenAt:   time.Now().UTC(),
	}

	classifyCtx, cancel := context.WithTimeout(ctx, n.cfg.SentimentTimeout.Duration)
	label, confidence, err := n.source.Classify(classifyCtx, headline)
	cancel()
	if err != nil {
		label, confidence, _ = n.fallback.Classify(ctx, headline)
		event.Source = "heuristic"
	} else {
		event.Source = "classifier"
	}
	event.Sentiment = label
	event.Confidence = confidence
	return event, nil
}

// GenerateSignals intersects an event's families with the registered markets
// and derives per-market actions from sentiment polarity and market
// direction. Events below MinConfidence or with neutral sentiment yield
// nothing.
func (n *NewsSignalGenerator) GenerateSignals(event domain.NewsEvent, snap *domain.MarketSnapshot) []domain.TradeSignal {
	if event.Confidence < n.cfg.MinConfidence {
		return nil
	}
	polarity := event.Sentiment.Polarity()
	if polarity == 0 {
		return nil
	}

	n.mu.Lock()
	regs := make([]*newsRegistration, 0, len(n.markets))
	for _, reg := range n.markets {
		regs = append(regs, reg)
	}
	n.mu.Unlock()
	sort.Slice(regs, func(i, j int) bool { return regs[i].marketID < regs[j].marketID })

	now := time.Now().UTC()
	var signals []domain.TradeSignal
	for _, reg := range regs {
		matched := 0
		urgency := domain.SignalUrgencyLow
		for _, fam := range event.Families {
			if !reg.families[fam] {
				continue
			}
			matched++
			if sev := familySeverity(fam); sev > urgency {
				urgency = sev
			}
		}
		if matched == 0 {
			continue
		}

		bearish := polarity < 0
		var side domain.OrderSide
		switch {
		case bearish && reg.direction == domain.DirectionBearishSells:
			side = domain.OrderSideSell
		case bearish && reg.direction == domain.DirectionBearishBuys:
			side = domain.OrderSideBuy
		case !bearish && reg.direction == domain.DirectionBearishSells:
			side = domain.OrderSideBuy
		default:
			side = domain.OrderSideSell
		}

		// Weak sentiment caps urgency; strong sentiment with a strong match
		// keeps the family's floor.
		if polarity == -1 || polarity == 1 {
			if urgency > domain.SignalUrgencyMedium {
				urgency = domain.SignalUrgencyMedium
			}
		}
		if matched > 1 && (polarity <= -2 || polarity >= 2) && urgency < domain.SignalUrgencyHigh {
			urgency = domain.SignalUrgencyHigh
		}

		price, ok := snap.Price(reg.marketID)
		if !ok {
			continue
		}
		signals = append(signals, domain.TradeSignal{
			ID:         uuid.NewString(),
			Source:     n.Name(),
			MarketID:   reg.marketID,
			TokenID:    reg.tokenID,
			Side:       side,
			PriceTicks: domain.PriceToTicks(price),
			SizeUnits:  domain.SizeToUnits(n.cfg.SizePerTrade),
			Urgency:    urgency,
			Confidence: event.Confidence,
			Reason:     fmt.Sprintf("%s (%s, %.2f): %q", strings.Join(event.Families, "+"), event.Sentiment, event.Confidence, event.Headline),
			Metadata:   map[string]string{"sentiment_source": event.Source},
			CreatedAt:  now,
			ExpiresAt:  now.Add(20 * time.Second),
		})
	}
	return signals
}

func familySeverity(name string) domain.SignalUrgency {
	for _, f := range familyCatalog {
		if f.name == name {
			return f.severity
		}
	}
	return domain.SignalUrgencyLow
}

// Name implements Strategy.
func (n *NewsSignalGenerator) Name() string { return "news" }

// Init implements Strategy.
func (n *NewsSignalGenerator) Init(ctx context.Context) error { return nil }

// Close implements Strategy.
func (n *NewsSignalGenerator) Close() error { return nil }

// Scan implements Strategy. It drains the headline queue, classifies each
// headline, and emits signals for registered markets against the frozen
// snapshot.
func (n *NewsSignalGenerator) Scan(ctx context.Context, snap *domain.MarketSnapshot) ([]domain.TradeSignal, error) {
	n.mu.Lock()
	queue := n.headlines
	n.headlines = nil
	n.mu.Unlock()

	var signals []domain.TradeSignal
	for _, h := range queue {
		if err := ctx.Err(); err != nil {
			return signals, err
		}
		event, err := n.ProcessHeadline(ctx, h)
		if err != nil {
			n.logger.Warn("headline processing failed", slog.String("error", err.Error()))
			continue
		}
		if len(event.Families) == 0 {
			continue
		}
		n.logger.Debug("headline classified",
			slog.String("sentiment", string(event.Sentiment)),
			slog.Float64("confidence", event.Confidence),
			slog.String("source", event.Source),
			slog.Any("families", event.Families),
		)
		signals = append(signals, n.GenerateSignals(event, snap)...)
	}
	return signals, nil
}
