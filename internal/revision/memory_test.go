package revision

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHistoryStore keeps histories in memory and can simulate failures.
type fakeHistoryStore struct {
	histories map[string]*History
	loadErr   error
	saveErr   error
	saves     int
}

func (s *fakeHistoryStore) LoadHistories() (map[string]*History, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.histories, nil
}

func (s *fakeHistoryStore) SaveHistories(histories map[string]*History) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.histories = histories
	return nil
}

func TestMemory_VersionMonotonicity(t *testing.T) {
	store := &fakeHistoryStore{}
	memory := NewMemory(store)

	for i := 1; i <= 5; i++ {
		version := memory.RecordRevision("architect", "architecture", "architecture document",
			"content", "feedback", StatusRejected)
		assert.Equal(t, i, version)
	}

	// Every write persisted the table.
	assert.Equal(t, 5, store.saves)
}

func TestMemory_RevisionContext_Empty(t *testing.T) {
	memory := NewMemory(&fakeHistoryStore{})

	ctx := memory.RevisionContext("architect", "architecture")

	assert.Equal(t, 0, ctx.RevisionCount)
	assert.False(t, ctx.HasPrevious)
	assert.Empty(t, ctx.PreviousFeedback)
}

func TestMemory_RevisionContext(t *testing.T) {
	memory := NewMemory(&fakeHistoryStore{})

	memory.RecordRevision("architect", "architecture", "architecture document",
		"v1 content", "add security section", StatusRejected)
	memory.RecordRevision("architect", "architecture", "architecture document",
		"v2 content", "looks great", StatusApproved)

	ctx := memory.RevisionContext("architect", "architecture")

	assert.Equal(t, 2, ctx.RevisionCount)
	assert.True(t, ctx.HasPrevious)
	assert.Equal(t, "v2 content", ctx.PreviousContent)
	require.Len(t, ctx.PreviousFeedback, 2)
	assert.Equal(t, FeedbackEntry{Version: 1, Feedback: "add security section", Status: StatusRejected}, ctx.PreviousFeedback[0])
	assert.Equal(t, FeedbackEntry{Version: 2, Feedback: "looks great", Status: StatusApproved}, ctx.PreviousFeedback[1])
}

func TestMemory_RecordDecision(t *testing.T) {
	store := &fakeHistoryStore{}
	memory := NewMemory(store)

	// Unknown key is a no-op, not a write.
	memory.RecordDecision("architect", "architecture", true)
	assert.Equal(t, 0, store.saves)

	memory.RecordRevision("architect", "architecture", "architecture document",
		"v1", "fix it", StatusCompleted)
	memory.RecordRevision("architect", "architecture", "architecture document",
		"v2", "still off", StatusCompleted)

	memory.RecordDecision("architect", "architecture", true)

	history, ok := memory.HistoryFor("architect", "architecture")
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, history.Revisions[0].Status, "only the latest record carries the decision")
	assert.Equal(t, StatusApproved, history.Revisions[1].Status)

	memory.RecordDecision("architect", "architecture", false)
	history, _ = memory.HistoryFor("architect", "architecture")
	assert.Equal(t, StatusRejected, history.Revisions[1].Status)
}

func TestMemory_ArtifactTypeUpdatedInPlace(t *testing.T) {
	memory := NewMemory(&fakeHistoryStore{})

	memory.RecordRevision("architect", "architecture", "unknown", "v1", "f1", StatusRejected)
	memory.RecordRevision("architect", "architecture", "architecture document", "v2", "f2", StatusApproved)

	history, ok := memory.HistoryFor("architect", "architecture")
	require.True(t, ok)
	assert.Equal(t, "architecture document", history.ArtifactType)
	assert.Len(t, history.Revisions, 2)
}

func TestMemory_LoadFailureStartsEmpty(t *testing.T) {
	store := &fakeHistoryStore{loadErr: errors.New("corrupt file")}
	memory := NewMemory(store)

	ctx := memory.RevisionContext("architect", "architecture")
	assert.Equal(t, 0, ctx.RevisionCount)

	// The table is still writable after a failed load.
	version := memory.RecordRevision("architect", "architecture", "doc", "content", "feedback", StatusRejected)
	assert.Equal(t, 1, version)
}

func TestMemory_SaveFailureKeepsInMemoryState(t *testing.T) {
	store := &fakeHistoryStore{saveErr: errors.New("disk full")}
	memory := NewMemory(store)

	version := memory.RecordRevision("architect", "architecture", "doc", "content", "feedback", StatusRejected)
	assert.Equal(t, 1, version)

	// In-memory state remains authoritative.
	ctx := memory.RevisionContext("architect", "architecture")
	assert.Equal(t, 1, ctx.RevisionCount)
}

func TestMemory_ReloadsFromStore(t *testing.T) {
	store := &fakeHistoryStore{}
	first := NewMemory(store)
	first.RecordRevision("architect", "architecture", "doc", "v1", "add detail", StatusRejected)

	second := NewMemory(store)
	ctx := second.RevisionContext("architect", "architecture")
	assert.Equal(t, 1, ctx.RevisionCount)
	assert.Equal(t, "v1", ctx.PreviousContent)
}
