package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const telegramAPIHost = "https://api.telegram.org"

// TelegramSender delivers alerts to a Telegram chat via the Bot API.
type TelegramSender struct {
	token   string
	chatID  string
	apiHost string
	client  *http.Client
}

// NewTelegramSender creates a TelegramSender for the given bot token and chat
// id. timeout bounds each delivery request.
func NewTelegramSender(token, chatID string, timeout time.Duration) *TelegramSender {
	return &TelegramSender{
		token:   token,
		chatID:  chatID,
		apiHost: telegramAPIHost,
		client:  &http.Client{Timeout: timeout},
	}
}

// Send posts the alert to the configured chat. The title renders in bold with
// the raising event and timestamp as a trailer line, so an operator scanning
// the chat can tell a signing failure from a kill-switch trip at a glance.
func (t *TelegramSender) Send(ctx context.Context, a Alert) error {
	text := fmt.Sprintf("*%s*\n%s\n_%s · %s_",
		a.Title, a.Body, a.Event, a.At.Format(time.RFC3339))

	payload, err := json.Marshal(map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiHost, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Name implements Sender.
func (t *TelegramSender) Name() string { return "telegram" }
