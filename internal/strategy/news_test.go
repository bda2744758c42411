package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RanaPriyansh/polymarket-hft/internal/config"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// scriptedSentiment returns one canned classification for every headline.
type scriptedSentiment struct {
	label      domain.SentimentLabel
	confidence float64
	err        error
}

func (s *scriptedSentiment) Classify(ctx context.Context, headline string) (domain.SentimentLabel, float64, error) {
	if s.err != nil {
		return domain.SentimentNeutral, 0, s.err
	}
	return s.label, s.confidence, nil
}

func newsCfg() config.NewsConfig {
	return config.Defaults().Strategy.News
}

func TestRateHikeHeadlineSellsRegisteredMarket(t *testing.T) {
	src := &scriptedSentiment{label: domain.SentimentStrongNegative, confidence: 0.92}
	gen := NewNewsSignalGenerator(src, newsCfg(), testLogger())
	gen.RegisterMarket("m-stocks", "tok-m-stocks", []string{"rate hike", "fed"}, domain.DirectionBearishSells)
	gen.Ingest("Fed announces surprise rate hike at emergency meeting")

	snap := makeSnap(map[string][2]float64{"m-stocks": {0.58, 0.62}})
	signals, err := gen.Scan(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, signals, 1)

	sig := signals[0]
	assert.Equal(t, domain.OrderSideSell, sig.Side)
	assert.Equal(t, "m-stocks", sig.MarketID)
	assert.GreaterOrEqual(t, sig.Urgency, domain.SignalUrgencyHigh)
	assert.Equal(t, "news", sig.Source)
	assert.Equal(t, "classifier", sig.Metadata["sentiment_source"])
}

func TestHeuristicFallbackOnClassifierFailure(t *testing.T) {
	src := &scriptedSentiment{err: errors.New("classifier timeout")}
	gen := NewNewsSignalGenerator(src, newsCfg(), testLogger())

	event, err := gen.ProcessHeadline(context.Background(), "Fed announces surprise rate hike")
	require.NoError(t, err)
	assert.Equal(t, "heuristic", event.Source)
	assert.Equal(t, domain.SentimentStrongNegative, event.Sentiment)
	assert.ElementsMatch(t, []string{"rate-hike", "fed"}, event.Families)
}

func TestHeadlineWithoutFamiliesYieldsNoEvent(t *testing.T) {
	gen := NewNewsSignalGenerator(&scriptedSentiment{label: domain.SentimentNegative, confidence: 0.9}, newsCfg(), testLogger())

	event, err := gen.ProcessHeadline(context.Background(), "Local bakery wins pie contest")
	require.NoError(t, err)
	assert.Empty(t, event.Families)
	assert.Empty(t, event.ID)
}

func TestLowConfidenceEventYieldsNoSignals(t *testing.T) {
	src := &scriptedSentiment{label: domain.SentimentNegative, confidence: 0.30}
	gen := NewNewsSignalGenerator(src, newsCfg(), testLogger())
	gen.RegisterMarket("m1", "tok-m1", []string{"resign"}, domain.DirectionBearishSells)
	gen.Ingest("CEO resigns effective immediately")

	snap := makeSnap(map[string][2]float64{"m1": {0.40, 0.44}})
	signals, err := gen.Scan(context.Background(), snap)
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestUnregisteredMarketGetsNoSignal(t *testing.T) {
	src := &scriptedSentiment{label: domain.SentimentStrongNegative, confidence: 0.95}
	gen := NewNewsSignalGenerator(src, newsCfg(), testLogger())
	gen.RegisterMarket("m-weather", "tok-w", []string{"hurricane"}, domain.DirectionBearishBuys)
	gen.Ingest("Parliament moves to impeach the president")

	snap := makeSnap(map[string][2]float64{"m-weather": {0.20, 0.24}})
	signals, err := gen.Scan(context.Background(), snap)
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestBearishBuysDirectionInverts(t *testing.T) {
	src := &scriptedSentiment{label: domain.SentimentStrongNegative, confidence: 0.95}
	gen := NewNewsSignalGenerator(src, newsCfg(), testLogger())
	// A "will X be impeached" market rallies on bearish impeachment news.
	gen.RegisterMarket("m-impeach", "tok-i", []string{"impeach"}, domain.DirectionBearishBuys)
	gen.Ingest("Parliament moves to impeach the president")

	snap := makeSnap(map[string][2]float64{"m-impeach": {0.30, 0.34}})
	signals, err := gen.Scan(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, domain.OrderSideBuy, signals[0].Side)
}
