// Package review implements the human review registry: pending and
// completed review-request collections, the approve/reject transition,
// and the revision chain driven on rejection.
package review

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a review request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Context keys carried on a review request.
const (
	// CtxTaskDescription holds the original task description of the stage
	// that produced the content. Required to drive revisions.
	CtxTaskDescription = "task_description"

	// CtxBaseStage holds the undecorated stage name for revision requests
	// whose Stage field carries the revision suffix.
	CtxBaseStage = "stage"

	// CtxOriginalRequest threads the id of the first request of a logical
	// review through its revision chain.
	CtxOriginalRequest = "original_request_id"

	// CtxRevision marks a request as the output of a revision cycle.
	CtxRevision = "revision"
)

// RevisionSuffix marks the stage name of a re-review request.
const RevisionSuffix = " (Revision)"

// Request is one ask for human approval of one piece of content. A request
// is immutable after creation except for the single pending→completed
// transition, which fixes Status, Feedback and CompletedAt.
type Request struct {
	ID           string            `json:"id"`
	Producer     string            `json:"producer"`
	Stage        string            `json:"stage"`
	ArtifactType string            `json:"artifact_type"`
	Content      string            `json:"content"`
	Context      map[string]string `json:"context,omitempty"`
	Status       Status            `json:"status"`
	Feedback     string            `json:"feedback"`
	CreatedAt    time.Time         `json:"created_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// NewRequest creates a pending review request with a fresh id.
func NewRequest(producer, stage, artifactType, content string, reqContext map[string]string) *Request {
	if reqContext == nil {
		reqContext = make(map[string]string)
	}
	return &Request{
		ID:           uuid.NewString(),
		Producer:     producer,
		Stage:        stage,
		ArtifactType: artifactType,
		Content:      content,
		Context:      reqContext,
		Status:       StatusPending,
		CreatedAt:    time.Now(),
	}
}

// BaseStage returns the stage name without the revision suffix.
func (r *Request) BaseStage() string {
	if base, ok := r.Context[CtxBaseStage]; ok && base != "" {
		return base
	}
	return r.Stage
}

// IsRevision reports whether this request came out of a revision cycle.
func (r *Request) IsRevision() bool {
	return r.Context[CtxRevision] == "true"
}

// clone returns a value copy safe to hand to readers.
func (r *Request) clone() Request {
	out := *r
	if r.Context != nil {
		out.Context = make(map[string]string, len(r.Context))
		for k, v := range r.Context {
			out.Context[k] = v
		}
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// DecisionFunc is the continuation resumed when a human decision arrives
// for a request: approved plus the reviewer's feedback text.
type DecisionFunc func(approved bool, feedback string)

// ProducerFunc executes a task description and returns the produced
// content. Producers are external collaborators: synchronous, opaque, and
// idempotent enough to be re-invoked with an augmented description.
type ProducerFunc func(ctx context.Context, task string) (string, error)

// ProducerResolver resolves a producer id to an executable producer.
// Resolution failing means rejections for that producer stay terminal.
type ProducerResolver interface {
	Resolve(producerID string) (ProducerFunc, bool)
}

// ResolverFunc adapts a function to the ProducerResolver interface.
type ResolverFunc func(producerID string) (ProducerFunc, bool)

func (f ResolverFunc) Resolve(producerID string) (ProducerFunc, bool) {
	return f(producerID)
}

// RequestStore persists the pending collection and the completed log as
// whole documents. Implementations live in internal/storage.
type RequestStore interface {
	LoadRequests() (pending, completed []*Request, err error)
	SavePending(pending []*Request) error
	SaveCompleted(completed []*Request) error
}
