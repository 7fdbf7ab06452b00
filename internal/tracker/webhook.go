package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookPayload is the JSON structure sent to the tracker endpoint.
type WebhookPayload struct {
	Project string   `json:"project"`
	Tickets []Ticket `json:"tickets"`
}

// Webhook posts ticket batches to an HTTP endpoint as JSON.
type Webhook struct {
	url    string
	token  string
	client *http.Client
}

// NewWebhook creates a Webhook tracker with a default HTTP client. The
// token, when set, is sent as a bearer token.
func NewWebhook(url, token string) *Webhook {
	return &Webhook{
		url:   url,
		token: token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewWebhookWithClient creates a Webhook tracker with a custom HTTP client.
func NewWebhookWithClient(url, token string, client *http.Client) *Webhook {
	return &Webhook{
		url:    url,
		token:  token,
		client: client,
	}
}

// CreateTickets posts the batch to the tracker endpoint.
func (w *Webhook) CreateTickets(ctx context.Context, project string, tickets []Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	body, err := json.Marshal(WebhookPayload{Project: project, Tickets: tickets})
	if err != nil {
		return fmt.Errorf("marshal ticket payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create tracker request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("tracker request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("tracker returned %d", resp.StatusCode)
	}
	return nil
}
