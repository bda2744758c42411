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

// alertColor maps engine events to Discord embed sidebar colors so severe
// alerts stand out in the channel.
var alertColor = map[string]int{
	"signing_failure": 0xE74C3C, // red
	"kill_switch":     0xE74C3C,
	"daily_loss":      0xE67E22, // orange
	"error":           0xE67E22,
}

const defaultAlertColor = 0x3498DB // blue

// DiscordSender delivers alerts to a Discord channel via webhook.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a DiscordSender for the given webhook URL. timeout
// bounds each delivery request.
func NewDiscordSender(webhookURL string, timeout time.Duration) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// discordEmbed is the slice of the webhook embed object this sender uses.
type discordEmbed struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Color       int                `json:"color"`
	Timestamp   string             `json:"timestamp"`
	Footer      discordEmbedFooter `json:"footer"`
}

type discordEmbedFooter struct {
	Text string `json:"text"`
}

// Send posts the alert as a single embed: title, body, event-colored sidebar,
// and the raising event in the footer.
func (d *DiscordSender) Send(ctx context.Context, a Alert) error {
	color, ok := alertColor[a.Event]
	if !ok {
		color = defaultAlertColor
	}

	payload, err := json.Marshal(map[string]any{
		"embeds": []discordEmbed{{
			Title:       a.Title,
			Description: a.Body,
			Color:       color,
			Timestamp:   a.At.Format(time.RFC3339),
			Footer:      discordEmbedFooter{Text: "polyhft · " + a.Event},
		}},
	})
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	// Discord returns 204 No Content on success.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Name implements Sender.
func (d *DiscordSender) Name() string { return "discord" }
