package revision

import (
	"log"
	"sync"
	"time"
)

// Revision status values recorded in history.
const (
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
)

// Record is one immutable revision attempt in a history.
type Record struct {
	Version   int       `json:"version"`
	Content   string    `json:"content"`
	Feedback  string    `json:"feedback"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// History is the ordered revision sequence for one (producer, stage) key.
// Records are append-only, with two in-place updates: ArtifactType when a
// later record supplies a different one, and the latest record's Status
// once its review resolves.
type History struct {
	Producer     string   `json:"producer"`
	Stage        string   `json:"stage"`
	ArtifactType string   `json:"artifact_type"`
	Revisions    []Record `json:"revisions"`
}

// Latest returns the most recent record, or false if the history is empty.
func (h *History) Latest() (Record, bool) {
	if len(h.Revisions) == 0 {
		return Record{}, false
	}
	return h.Revisions[len(h.Revisions)-1], true
}

// HistoryStore persists the full revision-history table. Implementations
// live in internal/storage.
type HistoryStore interface {
	LoadHistories() (map[string]*History, error)
	SaveHistories(histories map[string]*History) error
}

// FeedbackEntry summarizes one prior attempt for revision context.
type FeedbackEntry struct {
	Version  int    `json:"version"`
	Feedback string `json:"feedback"`
	Status   string `json:"status"`
}

// Context is the trail of prior attempts handed to a producer when it
// builds a new revision.
type Context struct {
	RevisionCount    int
	PreviousContent  string
	HasPrevious      bool
	PreviousFeedback []FeedbackEntry
}

// Memory is the durable, per-(producer, stage) revision history table.
// Every write persists the whole table through the backing store.
type Memory struct {
	store HistoryStore

	mu        sync.Mutex
	histories map[string]*History
}

// NewMemory creates a Memory backed by store, reloading any previously
// persisted table. A missing or corrupt backing store is treated as an
// empty table, never a fatal error.
func NewMemory(store HistoryStore) *Memory {
	histories, err := store.LoadHistories()
	if err != nil {
		log.Printf("WARN: failed to load revision histories, starting empty: %v", err)
		histories = nil
	}
	if histories == nil {
		histories = make(map[string]*History)
	}

	return &Memory{
		store:     store,
		histories: histories,
	}
}

// RecordRevision appends a record to the key's history, creating the
// history on first use, and persists the whole table. Returned versions
// for a given key form the sequence 1..N with no gaps. Persistence
// failures are logged; the in-memory table stays authoritative.
func (m *Memory) RecordRevision(producer, stage, artifactType, content, feedback, status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := cycleKey(producer, stage)
	history, ok := m.histories[key]
	if !ok {
		history = &History{
			Producer:     producer,
			Stage:        stage,
			ArtifactType: artifactType,
		}
		m.histories[key] = history
	} else if artifactType != "" {
		// Late-bound type information wins.
		history.ArtifactType = artifactType
	}

	record := Record{
		Version:   len(history.Revisions) + 1,
		Content:   content,
		Feedback:  feedback,
		Status:    status,
		Timestamp: time.Now(),
	}
	history.Revisions = append(history.Revisions, record)

	if err := m.store.SaveHistories(m.histories); err != nil {
		log.Printf("WARN: failed to persist revision histories: %v", err)
	}

	return record.Version
}

// RecordDecision marks the key's latest record with the review outcome,
// so history shows which version was finally accepted or turned down.
// A key with no records is ignored.
func (m *Memory) RecordDecision(producer, stage string, approved bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history, ok := m.histories[cycleKey(producer, stage)]
	if !ok || len(history.Revisions) == 0 {
		return
	}

	latest := &history.Revisions[len(history.Revisions)-1]
	if approved {
		latest.Status = StatusApproved
	} else {
		latest.Status = StatusRejected
	}

	if err := m.store.SaveHistories(m.histories); err != nil {
		log.Printf("WARN: failed to persist revision histories: %v", err)
	}
}

// RevisionContext returns the prior-attempt trail for the key. A key with
// no records yields a zero count, no previous content, and an empty
// feedback list.
func (m *Memory) RevisionContext(producer, stage string) Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	history, ok := m.histories[cycleKey(producer, stage)]
	if !ok {
		return Context{}
	}

	ctx := Context{RevisionCount: len(history.Revisions)}

	if latest, ok := history.Latest(); ok {
		ctx.PreviousContent = latest.Content
		ctx.HasPrevious = true

		for _, rec := range history.Revisions {
			if rec.Feedback == "" {
				continue
			}
			ctx.PreviousFeedback = append(ctx.PreviousFeedback, FeedbackEntry{
				Version:  rec.Version,
				Feedback: rec.Feedback,
				Status:   rec.Status,
			})
		}
	}

	return ctx
}

// HistoryFor returns a copy of the key's history for read-only display.
func (m *Memory) HistoryFor(producer, stage string) (History, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history, ok := m.histories[cycleKey(producer, stage)]
	if !ok {
		return History{}, false
	}

	out := *history
	out.Revisions = make([]Record, len(history.Revisions))
	copy(out.Revisions, history.Revisions)
	return out, true
}

// Histories returns a copy of the whole table, keyed by producer_stage.
func (m *Memory) Histories() map[string]History {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]History, len(m.histories))
	for key, history := range m.histories {
		h := *history
		h.Revisions = make([]Record, len(history.Revisions))
		copy(h.Revisions, history.Revisions)
		out[key] = h
	}
	return out
}
