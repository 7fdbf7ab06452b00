package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/stagegate/stagegate/internal/events"
)

// Bridge returns an event handler that turns engine events into human
// notifications. Delivery failures are logged, never propagated back
// into the engine.
func Bridge(notifier Notifier) events.Handler {
	return func(e events.Event) {
		n, ok := notificationFor(e)
		if !ok {
			return
		}
		if err := notifier.Notify(context.Background(), n); err != nil {
			log.Printf("WARN: %s notification failed: %v", notifier.Name(), err)
		}
	}
}

func notificationFor(e events.Event) (Notification, bool) {
	var producer string
	if payload, ok := e.Payload.(map[string]interface{}); ok {
		producer, _ = payload["producer"].(string)
	}

	switch e.Type {
	case events.ReviewRequested:
		return Notification{
			Kind:     KindReviewPending,
			Stage:    e.Stage,
			Producer: producer,
			Title:    fmt.Sprintf("Review requested: %s", e.Stage),
			Message:  "Content is waiting for your approval.",
			Context:  map[string]string{"review_id": e.Review},
		}, true

	case events.ReviewAutoApproved:
		return Notification{
			Kind:     KindAutoApproved,
			Stage:    e.Stage,
			Producer: producer,
			Title:    fmt.Sprintf("Auto-approved: %s", e.Stage),
			Message:  "The revision cycle limit was reached; the last revision was accepted.",
			Context:  map[string]string{"review_id": e.Review},
		}, true

	case events.StageFailed:
		msg := "Stage failed."
		if e.Error != "" {
			msg = e.Error
		}
		return Notification{
			Kind:     KindStageFailed,
			Stage:    e.Stage,
			Producer: producer,
			Title:    fmt.Sprintf("Stage failed: %s", e.Stage),
			Message:  msg,
		}, true

	default:
		return Notification{}, false
	}
}
