package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// Classifier calls an external sentiment service over HTTP. Callers are
// expected to wrap calls in a tight deadline and fall back to the Heuristic
// on any error.
type Classifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewClassifier creates a Classifier for the given endpoint. The HTTP client
// timeout is a backstop; per-call deadlines come from the caller's context.
func NewClassifier(endpoint, apiKey string) *Classifier {
	return &Classifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classify implements domain.SentimentSource.
func (c *Classifier) Classify(ctx context.Context, headline string) (domain.SentimentLabel, float64, error) {
	body, err := json.Marshal(classifyRequest{Text: headline})
	if err != nil {
		return domain.SentimentNeutral, 0, fmt.Errorf("sentiment: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.SentimentNeutral, 0, fmt.Errorf("sentiment: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.SentimentNeutral, 0, fmt.Errorf("sentiment: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.SentimentNeutral, 0, fmt.Errorf("sentiment: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.SentimentNeutral, 0, fmt.Errorf("sentiment: decode response: %w", err)
	}

	label := domain.SentimentLabel(out.Label)
	switch label {
	case domain.SentimentStrongNegative, domain.SentimentNegative, domain.SentimentNeutral,
		domain.SentimentPositive, domain.SentimentStrongPositive:
	default:
		return domain.SentimentNeutral, 0, fmt.Errorf("sentiment: unknown label %q", out.Label)
	}
	return label, out.Confidence, nil
}
