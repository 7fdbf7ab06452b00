// Package notify tells humans that the pipeline wants their attention:
// a review is waiting, a stage was auto-approved, a producer failed.
package notify

import "context"

// Kind classifies a notification.
type Kind string

const (
	KindReviewPending    Kind = "review_pending"    // A review is waiting for a decision
	KindReviewDecided    Kind = "review_decided"    // A review was approved or rejected
	KindAutoApproved     Kind = "auto_approved"     // The cycle limit auto-approved content
	KindStageFailed      Kind = "stage_failed"      // A producer or filing step failed
	KindPipelineComplete Kind = "pipeline_complete" // All stages finished
)

// Notification is one message for a human.
type Notification struct {
	Kind     Kind              // What happened
	Stage    string            // Which stage is affected
	Producer string            // Which producer made the content
	Title    string            // Short summary (one line)
	Message  string            // Detailed explanation
	Context  map[string]string // Additional context (review id, cycle count, etc.)
}

// Notifier is the interface for delivering notifications.
type Notifier interface {
	// Notify delivers the notification. Implementations should respect
	// context cancellation.
	Notify(ctx context.Context, n Notification) error

	// Name returns the notifier type for logging
	Name() string
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) error { return nil }
func (Nop) Name() string                               { return "nop" }
