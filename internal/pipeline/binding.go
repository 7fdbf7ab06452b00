package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/stagegate/stagegate/internal/artifact"
	"github.com/stagegate/stagegate/internal/events"
	"github.com/stagegate/stagegate/internal/review"
	"github.com/stagegate/stagegate/internal/revision"
	"github.com/stagegate/stagegate/internal/tracker"
)

// Binding composes a stage's producer with the review registry: produce,
// then request review, then on approval file the artifact and create
// tickets. The composition is explicit; nothing is patched at runtime.
type Binding struct {
	registry  *review.Registry
	resolver  review.ProducerResolver
	memory    *revision.Memory
	filer     artifact.Filer
	tracker   tracker.Tracker
	publisher events.Publisher
}

// NewBinding wires a Binding. Nil filer, tracker, and publisher default
// to no-ops.
func NewBinding(registry *review.Registry, resolver review.ProducerResolver, memory *revision.Memory, filer artifact.Filer, tr tracker.Tracker, publisher events.Publisher) *Binding {
	if filer == nil {
		filer = artifact.Nop{}
	}
	if tr == nil {
		tr = tracker.Nop{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Binding{
		registry:  registry,
		resolver:  resolver,
		memory:    memory,
		filer:     filer,
		tracker:   tr,
		publisher: publisher,
	}
}

// RunStage produces the stage content and submits it for review. The
// onApproved callback receives the finally approved content, which may
// be a revision of what the producer first returned. A produce failure
// is returned immediately; the stage never reaches review.
func (b *Binding) RunStage(ctx context.Context, st Stage, seq int, project, task string, onApproved func(content string)) error {
	b.publisher.Emit(events.Event{
		Type:    events.StageStarted,
		Stage:   st.Name,
		Payload: map[string]interface{}{"producer": st.Producer},
	})

	produce, ok := b.resolver.Resolve(st.Producer)
	if !ok {
		err := fmt.Errorf("no producer registered for %q", st.Producer)
		b.emitStageFailed(st, err)
		return err
	}

	content, err := produce(ctx, task)
	if err != nil {
		err = fmt.Errorf("stage %s: %w", st.Name, err)
		b.emitStageFailed(st, err)
		return err
	}

	b.publisher.Emit(events.Event{
		Type:    events.StageProduced,
		Stage:   st.Name,
		Payload: map[string]interface{}{"producer": st.Producer},
	})

	req := review.NewRequest(st.Producer, st.Name, st.ArtifactType, content, map[string]string{
		review.CtxTaskDescription: task,
	})

	// Revision histories survive process restarts; only records appended
	// after this point belong to this request's chain.
	baseline := b.revisionCount(st)

	b.registry.RequestReview(req, func(approved bool, feedback string) {
		if !approved {
			log.Printf("stage %s rejected with no further revisions; pipeline stalled", st.Name)
			b.emitStageFailed(st, fmt.Errorf("content rejected: %s", feedback))
			return
		}

		final := b.finalContent(st, content, baseline)
		b.fileAndTrack(st, seq, project, final)

		b.publisher.Emit(events.Event{
			Type:    events.StageCompleted,
			Stage:   st.Name,
			Payload: map[string]interface{}{"producer": st.Producer},
		})

		if onApproved != nil {
			onApproved(final)
		}
	})

	return nil
}

// revisionCount returns the number of history records for the stage's
// key, zero when no history exists yet.
func (b *Binding) revisionCount(st Stage) int {
	if b.memory == nil {
		return 0
	}
	history, ok := b.memory.HistoryFor(st.Producer, st.Name)
	if !ok {
		return 0
	}
	return len(history.Revisions)
}

// finalContent resolves the content that was actually approved: the
// newest non-empty revision recorded after the review was requested,
// otherwise the producer's original output. Records at or below baseline
// predate this request and never shadow it.
func (b *Binding) finalContent(st Stage, original string, baseline int) string {
	if b.memory == nil {
		return original
	}
	history, ok := b.memory.HistoryFor(st.Producer, st.Name)
	if !ok {
		return original
	}
	for i := len(history.Revisions) - 1; i >= baseline; i-- {
		if rec := history.Revisions[i]; rec.Content != "" {
			return rec.Content
		}
	}
	return original
}

// fileAndTrack stores the approved artifact and pushes tickets. Failures
// are logged and emitted; they never unwind an approval.
func (b *Binding) fileAndTrack(st Stage, seq int, project, content string) {
	// Filing happens after the decision; approval must not block on or
	// fail with storage problems.
	ctx := context.Background()

	path, err := b.filer.File(ctx, project, seq, st.ArtifactType, content)
	if err != nil {
		log.Printf("WARN: failed to file %s artifact: %v", st.ArtifactType, err)
		b.publisher.Emit(events.Event{
			Type:  events.ArtifactFileFailed,
			Stage: st.Name,
			Error: err.Error(),
		})
	} else if path != "" {
		b.publisher.Emit(events.Event{
			Type:    events.ArtifactFiled,
			Stage:   st.Name,
			Payload: map[string]interface{}{"path": path},
		})
	}

	if !st.CreateTickets {
		return
	}

	tickets := tracker.ParseTickets(content)
	if len(tickets) == 0 {
		log.Printf("no tickets found in approved %s content", st.Name)
		return
	}
	if err := b.tracker.CreateTickets(ctx, project, tickets); err != nil {
		log.Printf("WARN: failed to create tickets for %s: %v", st.Name, err)
		b.publisher.Emit(events.Event{
			Type:  events.TicketsFailed,
			Stage: st.Name,
			Error: err.Error(),
		})
		return
	}
	b.publisher.Emit(events.Event{
		Type:    events.TicketsCreated,
		Stage:   st.Name,
		Payload: map[string]interface{}{"count": len(tickets)},
	})
}

func (b *Binding) emitStageFailed(st Stage, err error) {
	b.publisher.Emit(events.Event{
		Type:    events.StageFailed,
		Stage:   st.Name,
		Payload: map[string]interface{}{"producer": st.Producer},
		Error:   err.Error(),
	})
}
