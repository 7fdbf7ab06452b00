package notify

import (
	"context"
	"fmt"
	"net/http"
)

var slackEmoji = map[Kind]string{
	KindReviewPending:    ":eyes:",
	KindReviewDecided:    ":white_check_mark:",
	KindAutoApproved:     ":warning:",
	KindStageFailed:      ":rotating_light:",
	KindPipelineComplete: ":checkered_flag:",
}

// Slack delivers notifications to a Slack incoming-webhook URL using
// block kit formatting.
type Slack struct {
	webhookURL string
	client     *http.Client
}

// NewSlack creates a Slack notifier for the given incoming-webhook URL.
func NewSlack(webhookURL string) *Slack {
	return NewSlackWithClient(webhookURL, &http.Client{Timeout: deliveryTimeout})
}

// NewSlackWithClient creates a Slack notifier using the provided HTTP client.
func NewSlackWithClient(webhookURL string, client *http.Client) *Slack {
	return &Slack{webhookURL: webhookURL, client: client}
}

// Notify posts the notification to Slack.
func (s *Slack) Notify(ctx context.Context, n Notification) error {
	if err := postJSON(ctx, s.client, s.webhookURL, slackMessage(n)); err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	return nil
}

// slackMessage builds the block kit payload: a section with the title
// and message, plus a context block carrying stage/producer metadata.
func slackMessage(n Notification) map[string]any {
	blocks := []map[string]any{{
		"type": "section",
		"text": map[string]string{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*%s*\n%s", n.Title, n.Message),
		},
	}}

	if meta := metaFields(n); len(meta) > 0 {
		blocks = append(blocks, map[string]any{
			"type":     "context",
			"elements": meta,
		})
	}

	return map[string]any{
		"text":   fmt.Sprintf("%s %s", slackEmoji[n.Kind], n.Title),
		"blocks": blocks,
	}
}

func metaFields(n Notification) []map[string]any {
	var fields []map[string]any
	add := func(label, value string) {
		if value == "" {
			return
		}
		fields = append(fields, map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*%s:* %s", label, value),
		})
	}

	add("stage", n.Stage)
	add("producer", n.Producer)
	for k, v := range n.Context {
		add(k, v)
	}
	return fields
}

// Name returns "slack"
func (s *Slack) Name() string {
	return "slack"
}
