package executor

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RanaPriyansh/polymarket-hft/internal/config"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

type fakeSigner struct {
	err   error
	calls int
}

func (f *fakeSigner) Sign(ctx context.Context, order *domain.Order) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	order.Signature = "0xsigned"
	return nil
}

// scriptedSubmitter replays one response per Submit call, repeating the last.
type scriptedSubmitter struct {
	results []domain.OrderResult
	errs    []error
	calls   int
	orders  []domain.Order
}

func (s *scriptedSubmitter) Submit(ctx context.Context, order domain.Order) (domain.OrderResult, error) {
	i := s.calls
	s.calls++
	s.orders = append(s.orders, order)
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.results[i], err
}

func (s *scriptedSubmitter) Cancel(ctx context.Context, orderID string) error { return nil }

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) Notify(ctx context.Context, event, message string) error {
	n.events = append(n.events, event)
	return nil
}

func fastCfg() config.ExecutorConfig {
	return config.ExecutorConfig{
		MaxAttempts:  3,
		RetryBackoff: config.Duration{Duration: time.Millisecond},
		OrderTTL:     config.Duration{Duration: 30 * time.Second},
	}
}

func testSignal() domain.TradeSignal {
	now := time.Now().UTC()
	return domain.TradeSignal{
		ID:         uuid.New().String(),
		Source:     "resolution",
		MarketID:   "m1",
		TokenID:    "tok-m1",
		Side:       domain.OrderSideBuy,
		PriceTicks: domain.PriceToTicks(0.90),
		SizeUnits:  domain.SizeToUnits(10),
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Minute),
	}
}

func TestExecuteSubmitsSignedOrder(t *testing.T) {
	signer := &fakeSigner{}
	sub := &scriptedSubmitter{results: []domain.OrderResult{
		{Success: true, OrderID: "ord-1", Status: domain.OrderStatusSubmitted},
	}}
	r := NewRouter(signer, sub, nil, "0xwallet", fastCfg(), slog.Default())

	res, err := r.Execute(context.Background(), testSignal())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSubmitted, res.Outcome)
	assert.Equal(t, "ord-1", res.OrderID)

	require.Len(t, sub.orders, 1)
	order := sub.orders[0]
	assert.Equal(t, "0xsigned", order.Signature)
	assert.Equal(t, "0xwallet", order.Wallet)
	assert.Equal(t, domain.OrderTypeFAK, order.Type)
	assert.False(t, order.PostOnly)
	assert.Equal(t, "resolution", order.Strategy)
}

func TestMakerStyleRestsPostOnly(t *testing.T) {
	sub := &scriptedSubmitter{results: []domain.OrderResult{
		{Success: true, OrderID: "ord-1", Status: domain.OrderStatusSubmitted},
	}}
	r := NewRouter(&fakeSigner{}, sub, nil, "0xwallet", fastCfg(), slog.Default())

	sig := testSignal()
	sig.Metadata = map[string]string{"style": string(domain.QuoteStyleMaker)}
	_, err := r.Execute(context.Background(), sig)
	require.NoError(t, err)

	require.Len(t, sub.orders, 1)
	assert.Equal(t, domain.OrderTypeGTC, sub.orders[0].Type)
	assert.True(t, sub.orders[0].PostOnly)
}

func TestTransientFailureRetriesThenSucceeds(t *testing.T) {
	sub := &scriptedSubmitter{
		results: []domain.OrderResult{
			{Success: false, ShouldRetry: true, Message: "try again"},
			{Success: false},
			{Success: true, OrderID: "ord-3", Status: domain.OrderStatusFilled},
		},
		errs: []error{nil, domain.ErrRateLimited, nil},
	}
	r := NewRouter(&fakeSigner{}, sub, nil, "0xwallet", fastCfg(), slog.Default())

	res, err := r.Execute(context.Background(), testSignal())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFilled, res.Outcome)
	assert.Equal(t, 3, sub.calls)
}

func TestRetriesExhaustedReturnsError(t *testing.T) {
	sub := &scriptedSubmitter{results: []domain.OrderResult{
		{Success: false, ShouldRetry: true, Message: "overloaded"},
	}}
	r := NewRouter(&fakeSigner{}, sub, nil, "0xwallet", fastCfg(), slog.Default())

	res, err := r.Execute(context.Background(), testSignal())
	require.Error(t, err)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	assert.Equal(t, 3, sub.calls)
}

func TestDefinitiveRejectionDoesNotRetry(t *testing.T) {
	sub := &scriptedSubmitter{results: []domain.OrderResult{
		{Success: false, Status: domain.OrderStatusRejected, Message: "insufficient balance"},
	}}
	r := NewRouter(&fakeSigner{}, sub, nil, "0xwallet", fastCfg(), slog.Default())

	res, err := r.Execute(context.Background(), testSignal())
	require.Error(t, err)
	assert.Equal(t, domain.OutcomeRejectedVenue, res.Outcome)
	assert.Equal(t, 1, sub.calls)
}

func TestSigningFailureNotifiesAndSkipsSubmission(t *testing.T) {
	signer := &fakeSigner{err: errors.New("keystore locked")}
	sub := &scriptedSubmitter{results: []domain.OrderResult{{Success: true}}}
	notifier := &recordingNotifier{}
	r := NewRouter(signer, sub, notifier, "0xwallet", fastCfg(), slog.Default())

	res, err := r.Execute(context.Background(), testSignal())
	require.ErrorIs(t, err, domain.ErrSigningFailed)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	assert.Zero(t, sub.calls)
	assert.Equal(t, []string{"signing_failure"}, notifier.events)
}

func TestExpiredSignalIsDropped(t *testing.T) {
	sub := &scriptedSubmitter{results: []domain.OrderResult{{Success: true}}}
	r := NewRouter(&fakeSigner{}, sub, nil, "0xwallet", fastCfg(), slog.Default())

	sig := testSignal()
	sig.ExpiresAt = time.Now().UTC().Add(-time.Second)
	res, err := r.Execute(context.Background(), sig)
	require.Error(t, err)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	assert.Zero(t, sub.calls)
}

func TestReemittedIntentExecutesOnce(t *testing.T) {
	sub := &scriptedSubmitter{results: []domain.OrderResult{
		{Success: true, OrderID: "ord-1", Status: domain.OrderStatusSubmitted},
	}}
	r := NewRouter(&fakeSigner{}, sub, nil, "0xwallet", fastCfg(), slog.Default())

	// Scanners mint a fresh UUID every cycle; the same economic intent must
	// still dedupe.
	_, err := r.Execute(context.Background(), testSignal())
	require.NoError(t, err)
	res, err := r.Execute(context.Background(), testSignal())
	require.Error(t, err, "duplicate must error so the risk commit is released")
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	assert.Equal(t, 1, sub.calls)
}

func TestDistinctIntentsAreNotDeduped(t *testing.T) {
	sub := &scriptedSubmitter{results: []domain.OrderResult{
		{Success: true, OrderID: "ord-1", Status: domain.OrderStatusSubmitted},
	}}
	r := NewRouter(&fakeSigner{}, sub, nil, "0xwallet", fastCfg(), slog.Default())

	_, err := r.Execute(context.Background(), testSignal())
	require.NoError(t, err)

	sell := testSignal()
	sell.Side = domain.OrderSideSell
	_, err = r.Execute(context.Background(), sell)
	require.NoError(t, err)

	moved := testSignal()
	moved.PriceTicks = domain.PriceToTicks(0.95) // outside the price bucket
	_, err = r.Execute(context.Background(), moved)
	require.NoError(t, err)

	assert.Equal(t, 3, sub.calls)
}

func TestDedupWindowExpires(t *testing.T) {
	d := NewDedup(10 * time.Millisecond)
	key := Key(testSignal())
	assert.False(t, d.Seen(key))
	assert.True(t, d.Seen(key))
	time.Sleep(15 * time.Millisecond)
	assert.False(t, d.Seen(key))
	d.Cleanup()
}

func TestKeyBucketsNearbyPrices(t *testing.T) {
	a := testSignal()
	a.PriceTicks = domain.PriceToTicks(0.9001)
	b := testSignal()
	b.PriceTicks = domain.PriceToTicks(0.9099)
	assert.Equal(t, Key(a), Key(b), "prices within a cent share a bucket")

	c := testSignal()
	c.PriceTicks = domain.PriceToTicks(0.9100)
	assert.NotEqual(t, Key(a), Key(c))
}
