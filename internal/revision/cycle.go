package revision

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/stagegate/stagegate/internal/events"
	"github.com/stagegate/stagegate/internal/feedback"
)

// ErrRevisionNotFound is returned by CompleteRevision for unknown keys.
var ErrRevisionNotFound = errors.New("revision not found")

// OnRevised is invoked when a revision completes, with the revised content
// and the completion status.
type OnRevised func(revisedContent, status string)

// StartInput carries everything needed to prepare a revision.
type StartInput struct {
	Producer            string
	OriginalDescription string
	Stage               string
	ArtifactType        string
	Feedback            string
	OriginalContent     string
	OnComplete          OnRevised
}

// StartResult describes a prepared revision.
type StartResult struct {
	RevisionKey string
	Task        string
	CycleStatus CycleStatus
}

// CompleteResult describes a finished revision.
type CompleteResult struct {
	Producer   string
	Stage      string
	CycleCount int
	Status     string
}

// ActiveRevision is a read-only view of one in-progress revision.
type ActiveRevision struct {
	RevisionKey  string
	Producer     string
	Stage        string
	ArtifactType string
	CycleCount   int
	MaxCycles    int
}

type inProgress struct {
	producer     string
	stage        string
	artifactType string
	original     string
	feedbackText string
	task         string
	cycleStatus  CycleStatus
	onComplete   OnRevised
}

// Cycle prepares revision instructions and records outcomes. It never
// invokes a producer itself: the caller executes the prepared task and
// reports the result through CompleteRevision.
type Cycle struct {
	memory    *Memory
	limiter   *Limiter
	publisher events.Publisher

	mu         sync.Mutex
	inProgress map[string]*inProgress
}

// NewCycle creates a Cycle over the given memory and limiter.
func NewCycle(memory *Memory, limiter *Limiter, publisher events.Publisher) *Cycle {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Cycle{
		memory:     memory,
		limiter:    limiter,
		publisher:  publisher,
		inProgress: make(map[string]*inProgress),
	}
}

// StartRevision parses the feedback, accounts the cycle, and builds the
// revision task. The in-progress record is stored under the returned key
// before StartRevision returns, so a later CompleteRevision can find it.
func (c *Cycle) StartRevision(in StartInput) StartResult {
	items := feedback.Parse(in.Feedback)
	formatted := feedback.FormatForProducer(items)

	cycleStatus := c.limiter.TrackCycle(in.Producer, in.Stage)
	revisionCtx := c.memory.RevisionContext(in.Producer, in.Stage)

	task := buildRevisionTask(in.OriginalDescription, formatted, cycleStatus, revisionCtx)

	key := fmt.Sprintf("%s_%s_%d", in.Producer, in.Stage, cycleStatus.CycleCount)

	c.mu.Lock()
	c.inProgress[key] = &inProgress{
		producer:     in.Producer,
		stage:        in.Stage,
		artifactType: in.ArtifactType,
		original:     in.OriginalContent,
		feedbackText: in.Feedback,
		task:         task,
		cycleStatus:  cycleStatus,
		onComplete:   in.OnComplete,
	}
	c.mu.Unlock()

	log.Printf("starting revision cycle %d/%d for %s in %s",
		cycleStatus.CycleCount, cycleStatus.MaxCycles, in.Producer, in.Stage)

	c.publisher.Emit(events.Event{
		Type:  events.RevisionStarted,
		Stage: in.Stage,
		Payload: map[string]interface{}{
			"producer":    in.Producer,
			"cycle_count": cycleStatus.CycleCount,
			"max_cycles":  cycleStatus.MaxCycles,
		},
	})
	if cycleStatus.LimitReached {
		c.publisher.Emit(events.Event{
			Type:  events.RevisionLimitHit,
			Stage: in.Stage,
			Payload: map[string]interface{}{
				"producer":     in.Producer,
				"auto_approve": cycleStatus.AutoApprove,
			},
		})
	}

	return StartResult{
		RevisionKey: key,
		Task:        task,
		CycleStatus: cycleStatus,
	}
}

// CompleteRevision records the outcome of a prepared revision, invokes the
// stored continuation, and discards the in-progress record. Failures in the
// continuation are caught and logged, never propagated.
func (c *Cycle) CompleteRevision(revisionKey, revisedContent, status string) (CompleteResult, error) {
	if status == "" {
		status = StatusCompleted
	}

	c.mu.Lock()
	rev, ok := c.inProgress[revisionKey]
	if !ok {
		c.mu.Unlock()
		return CompleteResult{}, fmt.Errorf("%w: %s", ErrRevisionNotFound, revisionKey)
	}
	delete(c.inProgress, revisionKey)
	c.mu.Unlock()

	c.memory.RecordRevision(rev.producer, rev.stage, rev.artifactType,
		revisedContent, rev.feedbackText, status)

	if rev.onComplete != nil {
		invokeOnRevised(revisionKey, rev.onComplete, revisedContent, status)
	}

	log.Printf("completed revision cycle for %s in %s with status %s",
		rev.producer, rev.stage, status)

	c.publisher.Emit(events.Event{
		Type:  events.RevisionCompleted,
		Stage: rev.stage,
		Payload: map[string]interface{}{
			"producer":    rev.producer,
			"cycle_count": rev.cycleStatus.CycleCount,
			"status":      status,
		},
	})

	return CompleteResult{
		Producer:   rev.producer,
		Stage:      rev.stage,
		CycleCount: rev.cycleStatus.CycleCount,
		Status:     status,
	}, nil
}

// RecordDecision reflects the human decision on a completed revision back
// into the history, so the accepted version is identifiable later.
func (c *Cycle) RecordDecision(producer, stage string, approved bool) {
	c.memory.RecordDecision(producer, stage, approved)
}

// ActiveRevisions lists all in-progress revisions for observability.
func (c *Cycle) ActiveRevisions() []ActiveRevision {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]ActiveRevision, 0, len(c.inProgress))
	for key, rev := range c.inProgress {
		out = append(out, ActiveRevision{
			RevisionKey:  key,
			Producer:     rev.producer,
			Stage:        rev.stage,
			ArtifactType: rev.artifactType,
			CycleCount:   rev.cycleStatus.CycleCount,
			MaxCycles:    rev.cycleStatus.MaxCycles,
		})
	}
	return out
}

// invokeOnRevised shields the engine from continuation failures.
func invokeOnRevised(key string, fn OnRevised, content, status string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: revision continuation for %s panicked: %v", key, r)
		}
	}()
	fn(content, status)
}

// buildRevisionTask synthesizes the instruction handed to the producer.
func buildRevisionTask(original, formattedFeedback string, cycle CycleStatus, ctx Context) string {
	var b strings.Builder

	b.WriteString(original)
	b.WriteString("\n\n## REVISION REQUIRED\n\n")
	fmt.Fprintf(&b, "This is revision cycle %d of a maximum %d.\n\n", cycle.CycleCount, cycle.MaxCycles)

	b.WriteString(formattedFeedback)
	b.WriteString("\n\n")

	if ctx.RevisionCount > 0 {
		b.WriteString("## Previous Revision History\n\n")
		fmt.Fprintf(&b, "You have made %d previous revision(s).\n", ctx.RevisionCount)

		if len(ctx.PreviousFeedback) > 0 {
			b.WriteString("\nPrevious feedback:\n\n")
			for _, entry := range ctx.PreviousFeedback {
				fmt.Fprintf(&b, "- Version %d (%s): %s\n",
					entry.Version, strings.ToUpper(entry.Status), truncate(entry.Feedback, 100))
			}
		}
	}

	b.WriteString("\n## Revision Instructions\n\n")
	b.WriteString("1. Carefully review the feedback provided.\n")
	b.WriteString("2. Revise the content to address all feedback points.\n")
	b.WriteString("3. If any feedback is unclear, use your best judgment.\n")
	b.WriteString("4. Return the complete revised content, not just the changes.\n")

	if cycle.LimitReached {
		b.WriteString("\n**NOTE: This is the final revision cycle. Make your best effort to address all feedback.**\n")
	}

	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
