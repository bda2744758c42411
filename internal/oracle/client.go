// Package oracle queries an external resolution service for the confirmed
// outcome of a condition.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// Client is an HTTP domain.ConfirmationSource. Callers wrap calls in a tight
// deadline; an unreachable oracle is an answer for the next cycle, not an
// error worth failing a scan over.
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient builds a client for the resolution endpoint. The HTTP client
// timeout is a backstop; per-call deadlines come from the caller's context.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type confirmResponse struct {
	ConditionID string  `json:"condition_id"`
	Resolved    bool    `json:"resolved"`
	Answer      string  `json:"answer"` // "yes" or "no"
	Confidence  float64 `json:"confidence"`
}

// Confirm implements domain.ConfirmationSource.
func (c *Client) Confirm(ctx context.Context, conditionID string) (domain.Confirmation, error) {
	u := c.endpoint + "/resolution/" + url.PathEscape(conditionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Confirmation{}, fmt.Errorf("oracle: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Confirmation{}, fmt.Errorf("oracle: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Confirmation{}, fmt.Errorf("oracle: condition %s: %w", conditionID, domain.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Confirmation{}, fmt.Errorf("oracle: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var out confirmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Confirmation{}, fmt.Errorf("oracle: decode response: %w", err)
	}
	if !out.Resolved {
		// Not resolved yet: report it with zero confidence so the tracker
		// keeps waiting.
		return domain.Confirmation{ConditionID: conditionID}, nil
	}
	return domain.Confirmation{
		ConditionID: conditionID,
		Answer:      out.Answer == "yes",
		Confidence:  out.Confidence,
	}, nil
}

var _ domain.ConfirmationSource = (*Client)(nil)
