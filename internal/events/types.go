// Package events defines the review-engine event stream: typed event
// constants, the Publisher interface components emit through, and
// handlers that render events for operators or machines.
package events

import "time"

// Event represents a single occurrence in the review-engine lifecycle
type Event struct {
	// Time is when the event occurred (set by the emitter)
	Time time.Time `json:"time"`

	// Type identifies what happened
	Type EventType `json:"type"`

	// Review is the review request id this event relates to (empty for
	// engine-level events)
	Review string `json:"review,omitempty"`

	// Stage is the pipeline stage name (empty if not stage-related)
	Stage string `json:"stage,omitempty"`

	// Payload contains event-specific data (type varies by event)
	Payload any `json:"payload,omitempty"`

	// Error contains an error message if this is a failure event
	Error string `json:"error,omitempty"`
}

// EventType is a string constant identifying the event category
type EventType string

// Review lifecycle events
const (
	ReviewRequested    EventType = "review.requested"
	ReviewApproved     EventType = "review.approved"
	ReviewRejected     EventType = "review.rejected"
	ReviewAutoApproved EventType = "review.auto_approved"
)

// Revision cycle events
const (
	RevisionStarted   EventType = "revision.started"
	RevisionCompleted EventType = "revision.completed"
	RevisionLimitHit  EventType = "revision.limit_reached"
)

// Pipeline stage events
const (
	StageStarted   EventType = "stage.started"
	StageProduced  EventType = "stage.produced"
	StageCompleted EventType = "stage.completed"
	StageFailed    EventType = "stage.failed"
)

// Artifact collaborator events
const (
	ArtifactFiled      EventType = "artifact.filed"
	ArtifactFileFailed EventType = "artifact.file_failed"
	TicketsCreated     EventType = "tickets.created"
	TicketsFailed      EventType = "tickets.failed"
)

// Publisher abstracts event emission so components can be tested
// without a live bus.
type Publisher interface {
	Emit(e Event)
}

// Handler processes a single event.
type Handler func(e Event)

// NopPublisher discards all events. Useful as a default collaborator.
type NopPublisher struct{}

func (NopPublisher) Emit(Event) {}
