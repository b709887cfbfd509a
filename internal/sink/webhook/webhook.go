// Package webhook implements an HTTP webhook notification sink.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/threshold-labs/sentry/internal/core"
)

// Webhook posts events as slack-compatible JSON payloads.
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// New creates a new webhook sink.
func New(url string, headers map[string]string) (*Webhook, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook: url is required")
	}
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Emit(ctx context.Context, event core.NotificationEvent) error {
	return w.post(ctx, eventToPayload(event))
}

// eventToPayload renders the slack-style attachment body. Urgency picks
// the attachment color so triggered macro signals stand out.
func eventToPayload(event core.NotificationEvent) map[string]any {
	return map[string]any{
		"text": event.Message,
		"attachments": []map[string]any{
			{
				"color": urgencyColor(event.Urgency),
				"fields": []map[string]any{
					{"title": "Signal", "value": event.SignalName, "short": true},
					{"title": "Transition", "value": fmt.Sprintf("%s → %s", event.FromStatus, event.ToStatus), "short": true},
					{"title": "Value", "value": fmt.Sprintf("%.4f", event.CurrentValue), "short": true},
					{"title": "Threshold", "value": fmt.Sprintf("%.4f", event.ThresholdValue), "short": true},
					{"title": "Urgency", "value": string(event.Urgency), "short": true},
					{"title": "Thesis", "value": event.ThesisID, "short": true},
				},
				"ts": event.CreatedAt.Unix(),
			},
		},
	}
}

func urgencyColor(u core.Urgency) string {
	switch u {
	case core.UrgencyHigh:
		return "#dc3545"
	case core.UrgencyMedium:
		return "#ffc107"
	}
	return "#28a745"
}

func (w *Webhook) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
	}
	return nil
}
