package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// WebhookPayload is the JSON body posted to webhook endpoints.
type WebhookPayload struct {
	Kind     string            `json:"kind"`
	Stage    string            `json:"stage,omitempty"`
	Producer string            `json:"producer,omitempty"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Context  map[string]string `json:"context,omitempty"`
	SentAt   time.Time         `json:"sent_at"`
}

// Webhook delivers notifications to a generic HTTP endpoint.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a Webhook for the given endpoint URL.
func NewWebhook(url string) *Webhook {
	return NewWebhookWithClient(url, &http.Client{Timeout: deliveryTimeout})
}

// NewWebhookWithClient creates a Webhook using the provided HTTP client.
func NewWebhookWithClient(url string, client *http.Client) *Webhook {
	return &Webhook{url: url, client: client}
}

// Notify posts the notification to the endpoint.
func (w *Webhook) Notify(ctx context.Context, n Notification) error {
	payload := WebhookPayload{
		Kind:     string(n.Kind),
		Stage:    n.Stage,
		Producer: n.Producer,
		Title:    n.Title,
		Message:  n.Message,
		Context:  n.Context,
		SentAt:   time.Now().UTC(),
	}
	if err := postJSON(ctx, w.client, w.url, payload); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}

// Name returns "webhook"
func (w *Webhook) Name() string {
	return "webhook"
}
