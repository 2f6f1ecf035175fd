// Package webhook implements an HTTP webhook notifier
package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/newthinker/quantsafe/internal/notifier"
)

// Webhook implements the Notifier interface for HTTP webhooks
type Webhook struct {
	url    string
	client *resty.Client
}

// New creates a new Webhook notifier
func New(url string, headers map[string]string, timeout time.Duration) (*Webhook, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook: url is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeaders(headers)

	return &Webhook{url: url, client: client}, nil
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, event notifier.Event) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(payload(event)).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode())
	}
	return nil
}

func payload(event notifier.Event) map[string]any {
	s := event.Signal
	return map[string]any{
		"type":        "signal",
		"id":          event.ID,
		"ticker":      event.Ticker,
		"price":       event.Price,
		"signal":      s.Signal,
		"confidence":  s.Confidence,
		"reasoning":   s.Reasoning,
		"targetPrice": s.TargetPrice,
		"riskLevel":   s.RiskLevel,
		"timestamp":   s.Timestamp.Format(time.RFC3339),
	}
}
