package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") because the
// Gamma API sends "active" in both shapes.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// APIOrderResult is the CLOB response to an order submission.
type APIOrderResult struct {
	Success     bool   `json:"success"`
	ErrorMsg    string `json:"errorMsg,omitempty"`
	OrderID     string `json:"orderID,omitempty"`
	Status      string `json:"status,omitempty"`
	TransactID  string `json:"transactID,omitempty"`
	ShouldRetry bool   `json:"shouldRetry,omitempty"`
}

// ToDomainOrderResult maps the wire result onto the order lifecycle.
func (r *APIOrderResult) ToDomainOrderResult() domain.OrderResult {
	result := domain.OrderResult{
		Success:     r.Success,
		OrderID:     r.OrderID,
		Message:     r.ErrorMsg,
		ShouldRetry: r.ShouldRetry,
	}
	switch r.Status {
	case "live", "open", "delayed":
		result.Status = domain.OrderStatusSubmitted
	case "matched", "filled":
		result.Status = domain.OrderStatusFilled
	default:
		if r.Success {
			result.Status = domain.OrderStatusSubmitted
		} else {
			result.Status = domain.OrderStatusRejected
		}
	}
	return result
}

// APIMarket is a market as returned by the Gamma API.
type APIMarket struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	ConditionID   string   `json:"condition_id"`
	Slug          string   `json:"slug"`
	ActiveFromAPI flexBool `json:"active"`
	Closed        bool     `json:"closed"`
	Tokens        []Token  `json:"tokens"`
	Volume        string   `json:"volume"`
	NegRisk       bool     `json:"neg_risk"`
	EndDateISO    string   `json:"end_date_iso"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// Token is one outcome token inside a Gamma market.
type Token struct {
	TokenID string `json:"token_id"`
	Outcome string `json:"outcome"`
	Winner  bool   `json:"winner"`
}

// ToDomainMarket converts a Gamma market. A market with no question still
// upserts cleanly so discovery never drops a row.
func (m *APIMarket) ToDomainMarket() domain.Market {
	dm := domain.Market{
		ID:          m.ID,
		Question:    m.Question,
		Slug:        m.Slug,
		ConditionID: m.ConditionID,
		NegRisk:     m.NegRisk,
	}
	if dm.Question == "" {
		dm.Question = "Unknown"
	}
	if v, err := strconv.ParseFloat(m.Volume, 64); err == nil {
		dm.Volume = v
	}

	switch {
	case m.Closed:
		dm.Status = domain.MarketStatusClosed
	case bool(m.ActiveFromAPI):
		dm.Status = domain.MarketStatusActive
	default:
		dm.Status = domain.MarketStatusSettled
	}

	for _, tok := range m.Tokens {
		dm.TokenIDs = append(dm.TokenIDs, tok.TokenID)
		dm.Outcomes = append(dm.Outcomes, tok.Outcome)
	}
	if len(dm.Outcomes) == 0 {
		dm.Outcomes = []string{"Yes", "No"}
	}

	if t, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil {
		dm.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, m.UpdatedAt); err == nil {
		dm.UpdatedAt = t
	}
	if m.EndDateISO != "" {
		if t, err := time.Parse(time.RFC3339, m.EndDateISO); err == nil {
			dm.EndDate = &t
		}
	}
	return dm
}

// BookMessage is a full orderbook snapshot frame from the market channel.
type BookMessage struct {
	AssetID   string         `json:"asset_id"`
	Market    string         `json:"market"`
	Bids      []WSPriceLevel `json:"bids"`
	Asks      []WSPriceLevel `json:"asks"`
	Timestamp string         `json:"timestamp"`
	Hash      string         `json:"hash"`
}

// WSPriceLevel is one bid or ask level.
type WSPriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// WSCommand is the subscribe/unsubscribe payload.
type WSCommand struct {
	Type    string   `json:"type"`
	Channel string   `json:"channel,omitempty"`
	Assets  []string `json:"assets_ids,omitempty"`
	Markets []string `json:"markets,omitempty"`
}

// BookToQuote reduces a book frame to its top of book. MarketID carries the
// raw market field from the frame; the feed layer rewrites it to the local
// market id. Sizes are the size at the best level only.
func BookToQuote(b *BookMessage) domain.Quote {
	q := domain.Quote{
		MarketID: b.Market,
		TokenID:  b.AssetID,
	}
	for _, lvl := range b.Bids {
		p, _ := strconv.ParseFloat(lvl.Price, 64)
		s, _ := strconv.ParseFloat(lvl.Size, 64)
		if p > q.Bid {
			q.Bid, q.BidSize = p, s
		}
	}
	for _, lvl := range b.Asks {
		p, _ := strconv.ParseFloat(lvl.Price, 64)
		s, _ := strconv.ParseFloat(lvl.Size, 64)
		if q.Ask == 0 || p < q.Ask {
			q.Ask, q.AskSize = p, s
		}
	}

	if ts, err := strconv.ParseInt(b.Timestamp, 10, 64); err == nil {
		q.UpdatedAt = time.UnixMilli(ts).UTC()
	} else if t, err := time.Parse(time.RFC3339, b.Timestamp); err == nil {
		q.UpdatedAt = t
	} else {
		q.UpdatedAt = time.Now().UTC()
	}
	return q
}
