package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/amartya2002/uptime-monitor/uptime"
)

// Webhook POSTs alerts as JSON to the address, which must be an http(s) URL.
type Webhook struct {
	client *http.Client
}

type webhookPayload struct {
	uptime.Message
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

func NewWebhook(timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{client: &http.Client{Timeout: timeout}}
}

func (w *Webhook) Send(ctx context.Context, address string, msg uptime.Message) error {
	body, err := json.Marshal(webhookPayload{Message: msg, Subject: msg.Subject(), Text: msg.Body()})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, address, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", uptime.DefaultUserAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
