package polymarket

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

func TestBookToQuoteTopOfBook(t *testing.T) {
	book := &BookMessage{
		AssetID: "tok-1",
		Market:  "cond-1",
		Bids: []WSPriceLevel{
			{Price: "0.40", Size: "100"},
			{Price: "0.48", Size: "25"},
			{Price: "0.45", Size: "60"},
		},
		Asks: []WSPriceLevel{
			{Price: "0.55", Size: "80"},
			{Price: "0.52", Size: "10"},
		},
		Timestamp: "1700000000000",
	}

	q := BookToQuote(book)
	assert.Equal(t, "cond-1", q.MarketID)
	assert.Equal(t, "tok-1", q.TokenID)
	assert.InDelta(t, 0.48, q.Bid, 1e-9)
	assert.InDelta(t, 25, q.BidSize, 1e-9)
	assert.InDelta(t, 0.52, q.Ask, 1e-9)
	assert.InDelta(t, 10, q.AskSize, 1e-9)
	assert.Equal(t, int64(1700000000), q.UpdatedAt.Unix())
}

func TestBookToQuoteEmptySide(t *testing.T) {
	q := BookToQuote(&BookMessage{
		AssetID: "tok-1",
		Bids:    []WSPriceLevel{{Price: "0.30", Size: "5"}},
	})
	assert.InDelta(t, 0.30, q.Bid, 1e-9)
	assert.Zero(t, q.Ask)
	assert.Zero(t, q.Mid())
}

func TestOrderResultStatusMapping(t *testing.T) {
	live := APIOrderResult{Success: true, OrderID: "o1", Status: "live"}
	assert.Equal(t, domain.OrderStatusSubmitted, live.ToDomainOrderResult().Status)

	matched := APIOrderResult{Success: true, OrderID: "o2", Status: "matched"}
	assert.Equal(t, domain.OrderStatusFilled, matched.ToDomainOrderResult().Status)

	rejected := APIOrderResult{Success: false, ErrorMsg: "not enough balance"}
	res := rejected.ToDomainOrderResult()
	assert.Equal(t, domain.OrderStatusRejected, res.Status)
	assert.Equal(t, "not enough balance", res.Message)
}

func TestGammaMarketConversion(t *testing.T) {
	api := APIMarket{
		ID:          "m1",
		Question:    "Will it rain?",
		Slug:        "will-it-rain",
		ConditionID: "cond-9",
		NegRisk:     true,
		Volume:      "12345.5",
		Tokens: []Token{
			{TokenID: "t-yes", Outcome: "Yes"},
			{TokenID: "t-no", Outcome: "No"},
		},
		EndDateISO: "2026-12-31T00:00:00Z",
	}
	require.NoError(t, api.ActiveFromAPI.UnmarshalJSON([]byte(`"true"`)))

	m := api.ToDomainMarket()
	assert.Equal(t, domain.MarketStatusActive, m.Status)
	assert.True(t, m.NegRisk)
	assert.Equal(t, []string{"t-yes", "t-no"}, m.TokenIDs)
	assert.Equal(t, []string{"Yes", "No"}, m.Outcomes)
	assert.InDelta(t, 12345.5, m.Volume, 1e-9)
	require.NotNil(t, m.EndDate)
}

func TestHTTPStatusMapsToSentinels(t *testing.T) {
	assert.NoError(t, checkHTTPStatus(http.StatusOK, nil))
	assert.ErrorIs(t, checkHTTPStatus(http.StatusTooManyRequests, []byte("slow down")), domain.ErrRateLimited)
	assert.ErrorIs(t, checkHTTPStatus(http.StatusUnauthorized, nil), domain.ErrUnauthorized)
	assert.ErrorIs(t, checkHTTPStatus(http.StatusNotFound, nil), domain.ErrNotFound)
	assert.Error(t, checkHTTPStatus(http.StatusInternalServerError, nil))
}
