package review

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stagegate/stagegate/internal/events"
	"github.com/stagegate/stagegate/internal/revision"
)

// decisionFunc is the internal continuation shape. The context is the one
// of the SubmitFeedback call on whose stack the continuation runs, so
// producer re-invocations inherit the triggering actor's cancellation.
type decisionFunc func(ctx context.Context, approved bool, feedback string)

// Registry owns the pending and completed review collections and drives
// the revision chain when content is rejected. All transitions execute
// synchronously on the caller's stack; per-(producer, stage) operations
// are therefore strictly sequential.
type Registry struct {
	store     RequestStore
	cycle     *revision.Cycle
	limiter   *revision.Limiter
	resolver  ProducerResolver
	publisher events.Publisher

	mu            sync.Mutex
	pending       []*Request
	completed     []*Request
	continuations map[string]decisionFunc
}

// NewRegistry creates a Registry over the given collaborators and reloads
// the pending/completed collections from the store. A failed load starts
// the registry empty; it is logged, never fatal.
func NewRegistry(store RequestStore, cycle *revision.Cycle, limiter *revision.Limiter, resolver ProducerResolver, publisher events.Publisher) *Registry {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	r := &Registry{
		store:         store,
		cycle:         cycle,
		limiter:       limiter,
		resolver:      resolver,
		publisher:     publisher,
		continuations: make(map[string]decisionFunc),
	}

	pending, completed, err := store.LoadRequests()
	if err != nil {
		log.Printf("WARN: failed to load reviews, starting empty: %v", err)
		return r
	}
	r.pending = pending
	r.completed = completed
	log.Printf("loaded %d pending and %d completed reviews", len(pending), len(completed))
	return r
}

// RequestReview stores the request's continuation separately from the
// request, appends it to the pending collection, persists, and returns
// the request id.
func (r *Registry) RequestReview(req *Request, onDecision DecisionFunc) string {
	var cont decisionFunc
	if onDecision != nil {
		cont = func(_ context.Context, approved bool, feedback string) {
			onDecision(approved, feedback)
		}
	}
	return r.requestReview(req, cont)
}

func (r *Registry) requestReview(req *Request, cont decisionFunc) string {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	req.Status = StatusPending

	r.mu.Lock()
	if cont != nil {
		r.continuations[req.ID] = cont
	}
	r.pending = append(r.pending, req)
	r.persistPendingLocked()
	r.mu.Unlock()

	log.Printf("new review requested: %s by %s (id=%s)", req.Stage, req.Producer, req.ID)

	r.publisher.Emit(events.Event{
		Type:   events.ReviewRequested,
		Review: req.ID,
		Stage:  req.Stage,
		Payload: map[string]interface{}{
			"producer":      req.Producer,
			"artifact_type": req.ArtifactType,
			"revision":      req.IsRevision(),
		},
	})

	return req.ID
}

// SubmitFeedback resolves a pending review. It returns false when the id
// is unknown and true whenever the pending→completed transition succeeded,
// independent of whether a revision chain started or a continuation failed.
//
// Rejections re-invoke the producer on this call stack: a slow producer
// blocks the reviewer-facing operation until it returns.
func (r *Registry) SubmitFeedback(ctx context.Context, id string, approved bool, feedbackText string) bool {
	r.mu.Lock()

	idx := -1
	for i, req := range r.pending {
		if req.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		log.Printf("review request %s not found", id)
		return false
	}

	req := r.pending[idx]
	if approved {
		req.Status = StatusApproved
	} else {
		req.Status = StatusRejected
	}
	req.Feedback = feedbackText
	now := time.Now()
	req.CompletedAt = &now

	// Move, not copy: the id leaves pending exactly when it enters the
	// completed log.
	r.pending = append(r.pending[:idx], r.pending[idx+1:]...)
	r.completed = append(r.completed, req)
	r.persistPendingLocked()
	r.persistCompletedLocked()

	cont := r.continuations[id]
	delete(r.continuations, id)
	r.mu.Unlock()

	log.Printf("review %s completed with status %s", id, req.Status)
	r.emitDecision(req)

	if approved {
		if cont != nil {
			r.invokeContinuation(ctx, id, cont, true, feedbackText)
		}
		return true
	}

	// Rejected. Revision requests carry a chain continuation that owns
	// recursion and auto-approval; first rejections start a fresh chain
	// when the request context allows one.
	if req.IsRevision() {
		if cont != nil {
			r.invokeContinuation(ctx, id, cont, false, feedbackText)
		}
		return true
	}

	produce, ok := r.resolveProducer(req.Producer)
	if ok && req.Context[CtxTaskDescription] != "" {
		r.runRevision(ctx, req, produce, cont, feedbackText)
		return true
	}

	// No way to drive a revision: the rejection is terminal and the
	// continuation is told so.
	log.Printf("review %s rejected with no revision context; recorded as terminal", id)
	if cont != nil {
		r.invokeContinuation(ctx, id, cont, false, feedbackText)
	}
	return true
}

// PendingReviews returns a copy of the pending collection.
func (r *Registry) PendingReviews() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Request, 0, len(r.pending))
	for _, req := range r.pending {
		out = append(out, req.clone())
	}
	return out
}

// CompletedReviews returns a copy of the completed log.
func (r *Registry) CompletedReviews() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Request, 0, len(r.completed))
	for _, req := range r.completed {
		out = append(out, req.clone())
	}
	return out
}

// ReviewByID finds a review in the pending collection, then the completed
// log. The second return reports whether it was found.
func (r *Registry) ReviewByID(id string) (Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, req := range r.pending {
		if req.ID == id {
			return req.clone(), true
		}
	}
	for _, req := range r.completed {
		if req.ID == id {
			return req.clone(), true
		}
	}
	return Request{}, false
}

// runRevision starts one revision cycle for a rejected request and
// executes the producer inline. The cycle's completion registers a new
// pending review whose continuation carries the chain forward.
func (r *Registry) runRevision(ctx context.Context, req *Request, produce ProducerFunc, onDecision decisionFunc, feedbackText string) {
	baseStage := req.BaseStage()
	taskDesc := req.Context[CtxTaskDescription]

	originalID := req.Context[CtxOriginalRequest]
	if originalID == "" {
		originalID = req.ID
	}

	// Filled in once StartRevision returns; OnComplete only fires later,
	// from CompleteRevision.
	var cycleStatus revision.CycleStatus

	start := r.cycle.StartRevision(revision.StartInput{
		Producer:            req.Producer,
		OriginalDescription: taskDesc,
		Stage:               baseStage,
		ArtifactType:        req.ArtifactType,
		Feedback:            feedbackText,
		OriginalContent:     req.Content,
		OnComplete: func(revised, status string) {
			if status != revision.StatusCompleted {
				log.Printf("revision for %s in %s finished with status %s; not re-submitting",
					req.Producer, baseStage, status)
				return
			}

			// At the cycle limit with auto-approval enabled the final
			// revision skips re-review: the chain terminates approved
			// to guarantee the pipeline makes progress.
			if cycleStatus.AutoApprove {
				r.autoApprove(ctx, originalID, req.Producer, baseStage, cycleStatus.CycleCount, cycleStatus.MaxCycles, feedbackText, onDecision)
				return
			}

			newReq := NewRequest(req.Producer, baseStage+RevisionSuffix, req.ArtifactType, revised, map[string]string{
				CtxTaskDescription: taskDesc,
				CtxBaseStage:       baseStage,
				CtxOriginalRequest: originalID,
				CtxRevision:        "true",
			})
			r.requestReview(newReq, r.revisionDecision(newReq, onDecision))
		},
	})

	cycleStatus = start.CycleStatus

	revised, err := produce(ctx, start.Task)
	if err != nil {
		log.Printf("producer %s failed during revision of %s: %v", req.Producer, baseStage, err)
		if _, cerr := r.cycle.CompleteRevision(start.RevisionKey, "", "failed"); cerr != nil {
			log.Printf("failed to close revision %s: %v", start.RevisionKey, cerr)
		}
		return
	}

	if _, err := r.cycle.CompleteRevision(start.RevisionKey, revised, revision.StatusCompleted); err != nil {
		log.Printf("failed to complete revision %s: %v", start.RevisionKey, err)
	}
}

// revisionDecision builds the continuation registered for a re-review
// request. Approval resets the limiter and resumes the original
// continuation; rejection either recurses into another cycle,
// auto-approves at the limit, or stops with the last rejected content.
func (r *Registry) revisionDecision(newReq *Request, onDecision decisionFunc) decisionFunc {
	return func(ctx context.Context, approved bool, feedbackText string) {
		producer := newReq.Producer
		baseStage := newReq.BaseStage()

		if approved {
			r.cycle.RecordDecision(producer, baseStage, true)
			r.limiter.Reset(producer, baseStage)
			if onDecision != nil {
				r.invokeContinuation(ctx, newReq.ID, onDecision, true, feedbackText)
			}
			return
		}

		r.cycle.RecordDecision(producer, baseStage, false)
		status := r.limiter.Status(producer, baseStage)
		if status.LimitReached {
			if status.AutoApprove {
				r.autoApprove(ctx, newReq.Context[CtxOriginalRequest], producer, baseStage,
					status.CycleCount, status.MaxCycles, feedbackText, onDecision)
				return
			}

			// Limit reached without auto-approval: keep the last rejected
			// content and stop driving revisions. The stall is observable
			// through the completed log and cycle status.
			log.Printf("revision limit reached for %s in %s; keeping last rejected content", producer, baseStage)
			return
		}

		produce, ok := r.resolveProducer(producer)
		if !ok {
			log.Printf("producer %s no longer resolvable; stopping revision chain for %s", producer, baseStage)
			return
		}
		r.runRevision(ctx, newReq, produce, onDecision, feedbackText)
	}
}

// autoApprove terminates a revision chain as approved once the cycle
// limit is hit, invoking the original continuation with an explanatory
// note instead of waiting for another human decision.
func (r *Registry) autoApprove(ctx context.Context, originalID, producer, baseStage string, cycleCount, maxCycles int, feedbackText string, onDecision decisionFunc) {
	note := fmt.Sprintf(
		"Auto-approved after reaching the maximum of %d revision cycles. Last feedback: %s",
		maxCycles, feedbackText)
	log.Printf("auto-approving %s in %s after %d cycles", producer, baseStage, cycleCount)

	// The accepted version is the last recorded revision.
	r.cycle.RecordDecision(producer, baseStage, true)

	r.publisher.Emit(events.Event{
		Type:   events.ReviewAutoApproved,
		Review: originalID,
		Stage:  baseStage,
		Payload: map[string]interface{}{
			"producer":    producer,
			"cycle_count": cycleCount,
		},
	})

	if onDecision != nil {
		r.invokeContinuation(ctx, originalID, onDecision, true, note)
	}
}

func (r *Registry) resolveProducer(producerID string) (ProducerFunc, bool) {
	if r.resolver == nil {
		return nil, false
	}
	return r.resolver.Resolve(producerID)
}

// invokeContinuation shields the state machine from continuation failures:
// a panicking continuation is logged and the transition stands.
func (r *Registry) invokeContinuation(ctx context.Context, id string, cont decisionFunc, approved bool, feedbackText string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("ERROR: continuation for review %s panicked: %v", id, rec)
		}
	}()
	cont(ctx, approved, feedbackText)
}

func (r *Registry) emitDecision(req *Request) {
	eventType := events.ReviewApproved
	if req.Status == StatusRejected {
		eventType = events.ReviewRejected
	}
	r.publisher.Emit(events.Event{
		Type:   eventType,
		Review: req.ID,
		Stage:  req.Stage,
		Payload: map[string]interface{}{
			"producer": req.Producer,
			"feedback": req.Feedback,
		},
	})
}

// persistPendingLocked writes the pending collection through the store.
// Write failures leave the in-memory state authoritative.
func (r *Registry) persistPendingLocked() {
	if err := r.store.SavePending(r.pending); err != nil {
		log.Printf("WARN: failed to persist pending reviews: %v", err)
	}
}

func (r *Registry) persistCompletedLocked() {
	if err := r.store.SaveCompleted(r.completed); err != nil {
		log.Printf("WARN: failed to persist completed reviews: %v", err)
	}
}
