package review

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagegate/stagegate/internal/revision"
)

// memRequestStore keeps requests in memory and can simulate failures.
type memRequestStore struct {
	pending   []*Request
	completed []*Request
	loadErr   error
	saveErr   error
}

func (s *memRequestStore) LoadRequests() ([]*Request, []*Request, error) {
	if s.loadErr != nil {
		return nil, nil, s.loadErr
	}
	return s.pending, s.completed, nil
}

func (s *memRequestStore) SavePending(pending []*Request) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.pending = append([]*Request(nil), pending...)
	return nil
}

func (s *memRequestStore) SaveCompleted(completed []*Request) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.completed = append([]*Request(nil), completed...)
	return nil
}

// memHistoryStore satisfies revision.HistoryStore without touching disk.
type memHistoryStore struct {
	histories map[string]*revision.History
}

func (s *memHistoryStore) LoadHistories() (map[string]*revision.History, error) {
	return s.histories, nil
}

func (s *memHistoryStore) SaveHistories(h map[string]*revision.History) error {
	s.histories = h
	return nil
}

// stubProducer records the tasks it was handed and replies in sequence.
type stubProducer struct {
	tasks     []string
	responses []string
	err       error
}

func (p *stubProducer) produce(_ context.Context, task string) (string, error) {
	p.tasks = append(p.tasks, task)
	if p.err != nil {
		return "", p.err
	}
	idx := len(p.tasks) - 1
	if idx < len(p.responses) {
		return p.responses[idx], nil
	}
	return "revised content", nil
}

type testRig struct {
	registry *Registry
	store    *memRequestStore
	cycle    *revision.Cycle
	limiter  *revision.Limiter
	memory   *revision.Memory
	producer *stubProducer
}

func newTestRig(t *testing.T, maxCycles int, autoApprove bool) *testRig {
	t.Helper()

	store := &memRequestStore{}
	limiter := revision.NewLimiter(maxCycles, autoApprove)
	memory := revision.NewMemory(&memHistoryStore{})
	cycle := revision.NewCycle(memory, limiter, nil)
	producer := &stubProducer{}

	resolver := ResolverFunc(func(id string) (ProducerFunc, bool) {
		return producer.produce, true
	})

	return &testRig{
		registry: NewRegistry(store, cycle, limiter, resolver, nil),
		store:    store,
		cycle:    cycle,
		limiter:  limiter,
		memory:   memory,
		producer: producer,
	}
}

func reviewableRequest() *Request {
	return NewRequest("architect", "architecture", "architecture document",
		"the architecture doc", map[string]string{
			CtxTaskDescription: "Design the system architecture",
		})
}

func TestRequestReview_AppendsAndPersists(t *testing.T) {
	rig := newTestRig(t, 3, true)

	id := rig.registry.RequestReview(reviewableRequest(), nil)
	require.NotEmpty(t, id)

	pending := rig.registry.PendingReviews()
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)
	assert.Equal(t, StatusPending, pending[0].Status)

	// Persisted through the store.
	require.Len(t, rig.store.pending, 1)
	assert.Equal(t, id, rig.store.pending[0].ID)
}

func TestSubmitFeedback_UnknownID(t *testing.T) {
	rig := newTestRig(t, 3, true)
	rig.registry.RequestReview(reviewableRequest(), nil)

	ok := rig.registry.SubmitFeedback(context.Background(), "does-not-exist", true, "x")

	assert.False(t, ok)
	assert.Len(t, rig.registry.PendingReviews(), 1)
	assert.Empty(t, rig.registry.CompletedReviews())
}

func TestSubmitFeedback_Approve(t *testing.T) {
	rig := newTestRig(t, 3, true)

	var calls int
	var gotApproved bool
	var gotFeedback string
	id := rig.registry.RequestReview(reviewableRequest(), func(approved bool, feedback string) {
		calls++
		gotApproved = approved
		gotFeedback = feedback
	})

	ok := rig.registry.SubmitFeedback(context.Background(), id, true, "ship it")
	require.True(t, ok)

	// Moved, not copied.
	assert.Empty(t, rig.registry.PendingReviews())
	completed := rig.registry.CompletedReviews()
	require.Len(t, completed, 1)
	assert.Equal(t, id, completed[0].ID)
	assert.Equal(t, StatusApproved, completed[0].Status)
	assert.Equal(t, "ship it", completed[0].Feedback)
	require.NotNil(t, completed[0].CompletedAt)

	// Continuation invoked exactly once with the decision.
	assert.Equal(t, 1, calls)
	assert.True(t, gotApproved)
	assert.Equal(t, "ship it", gotFeedback)

	// No revision machinery was touched.
	assert.Empty(t, rig.producer.tasks)
	assert.Equal(t, 0, rig.limiter.Status("architect", "architecture").CycleCount)
}

func TestSubmitFeedback_ContinuationPanicDoesNotUnwind(t *testing.T) {
	rig := newTestRig(t, 3, true)

	id := rig.registry.RequestReview(reviewableRequest(), func(bool, string) {
		panic("continuation exploded")
	})

	ok := rig.registry.SubmitFeedback(context.Background(), id, true, "fine")

	assert.True(t, ok)
	assert.Len(t, rig.registry.CompletedReviews(), 1)
}

func TestSubmitFeedback_RejectStartsRevision(t *testing.T) {
	rig := newTestRig(t, 3, true)
	rig.producer.responses = []string{"revised architecture doc"}

	id := rig.registry.RequestReview(reviewableRequest(), nil)

	ok := rig.registry.SubmitFeedback(context.Background(), id, false, "Add a section on caching")
	require.True(t, ok)

	// Producer was re-invoked with the synthesized revision task.
	require.Len(t, rig.producer.tasks, 1)
	task := rig.producer.tasks[0]
	assert.Contains(t, task, "Design the system architecture")
	assert.Contains(t, task, "## REVISION REQUIRED")
	assert.Contains(t, task, "- ADD: Add a section on caching")

	// A re-review request is pending with the revision suffix and the
	// original id threaded through.
	pending := rig.registry.PendingReviews()
	require.Len(t, pending, 1)
	assert.Equal(t, "architecture"+RevisionSuffix, pending[0].Stage)
	assert.Equal(t, "revised architecture doc", pending[0].Content)
	assert.True(t, pending[0].IsRevision())
	assert.Equal(t, id, pending[0].Context[CtxOriginalRequest])
}

func TestSubmitFeedback_RejectWithoutContextIsTerminal(t *testing.T) {
	rig := newTestRig(t, 3, true)

	var gotApproved *bool
	req := NewRequest("architect", "architecture", "doc", "content", nil) // no task description
	id := rig.registry.RequestReview(req, func(approved bool, feedback string) {
		gotApproved = &approved
	})

	ok := rig.registry.SubmitFeedback(context.Background(), id, false, "not good")
	require.True(t, ok)

	assert.Empty(t, rig.producer.tasks)
	assert.Empty(t, rig.registry.PendingReviews())
	require.NotNil(t, gotApproved)
	assert.False(t, *gotApproved)
}

func TestRevisionApproval_ResetsLimiterAndResumesOriginal(t *testing.T) {
	rig := newTestRig(t, 3, true)

	var calls int
	var gotApproved bool
	id := rig.registry.RequestReview(reviewableRequest(), func(approved bool, feedback string) {
		calls++
		gotApproved = approved
	})

	require.True(t, rig.registry.SubmitFeedback(context.Background(), id, false, "Add caching"))
	assert.Equal(t, 1, rig.limiter.Status("architect", "architecture").CycleCount)

	pending := rig.registry.PendingReviews()
	require.Len(t, pending, 1)

	require.True(t, rig.registry.SubmitFeedback(context.Background(), pending[0].ID, true, "much better"))

	assert.Equal(t, 1, calls)
	assert.True(t, gotApproved)
	assert.Equal(t, 0, rig.limiter.Status("architect", "architecture").CycleCount)
	assert.Empty(t, rig.registry.PendingReviews())
}

// The human decision on a revision is reflected back into its history
// record, so `history` shows which version was accepted.
func TestRevisionDecisionRecordedInHistory(t *testing.T) {
	rig := newTestRig(t, 3, true)

	id := rig.registry.RequestReview(reviewableRequest(), nil)
	require.True(t, rig.registry.SubmitFeedback(context.Background(), id, false, "Add caching"))

	history, ok := rig.memory.HistoryFor("architect", "architecture")
	require.True(t, ok)
	latest, _ := history.Latest()
	assert.Equal(t, revision.StatusCompleted, latest.Status)

	pending := rig.registry.PendingReviews()
	require.Len(t, pending, 1)
	require.True(t, rig.registry.SubmitFeedback(context.Background(), pending[0].ID, true, "good now"))

	history, _ = rig.memory.HistoryFor("architect", "architecture")
	latest, _ = history.Latest()
	assert.Equal(t, revision.StatusApproved, latest.Status)
}

func TestRejectedRevisionRecordedInHistory(t *testing.T) {
	rig := newTestRig(t, 1, false)

	id := rig.registry.RequestReview(reviewableRequest(), nil)
	require.True(t, rig.registry.SubmitFeedback(context.Background(), id, false, "fix it"))
	pending := rig.registry.PendingReviews()
	require.Len(t, pending, 1)
	require.True(t, rig.registry.SubmitFeedback(context.Background(), pending[0].ID, false, "still bad"))

	history, ok := rig.memory.HistoryFor("architect", "architecture")
	require.True(t, ok)
	latest, _ := history.Latest()
	assert.Equal(t, revision.StatusRejected, latest.Status)
}

// Two rejections with max_cycles=2 terminate the chain as approved with an
// auto-approval note.
func TestAutoApproveAfterMaxCycles(t *testing.T) {
	rig := newTestRig(t, 2, true)
	rig.producer.responses = []string{"revision one", "revision two"}

	var calls int
	var gotApproved bool
	var gotNote string
	id := rig.registry.RequestReview(reviewableRequest(), func(approved bool, feedback string) {
		calls++
		gotApproved = approved
		gotNote = feedback
	})

	require.True(t, rig.registry.SubmitFeedback(context.Background(), id, false, "first pass issues"))
	require.Len(t, rig.registry.PendingReviews(), 1)
	revID := rig.registry.PendingReviews()[0].ID

	require.True(t, rig.registry.SubmitFeedback(context.Background(), revID, false, "still issues"))

	// The final revision ran but was not re-submitted for review.
	assert.Len(t, rig.producer.tasks, 2)
	assert.Contains(t, rig.producer.tasks[1], "final revision cycle")
	assert.Empty(t, rig.registry.PendingReviews())

	require.Equal(t, 1, calls)
	assert.True(t, gotApproved)
	assert.Contains(t, strings.ToLower(gotNote), "auto")
	assert.Contains(t, strings.ToLower(gotNote), "maximum")

	// History shows the rejected first attempt and the accepted final one.
	history, ok := rig.memory.HistoryFor("architect", "architecture")
	require.True(t, ok)
	require.Len(t, history.Revisions, 2)
	assert.Equal(t, revision.StatusRejected, history.Revisions[0].Status)
	assert.Equal(t, revision.StatusApproved, history.Revisions[1].Status)
}

func TestLimitWithoutAutoApproveStops(t *testing.T) {
	rig := newTestRig(t, 1, false)
	rig.producer.responses = []string{"only revision"}

	var calls int
	id := rig.registry.RequestReview(reviewableRequest(), func(bool, string) { calls++ })

	// First rejection consumes the single allowed cycle; the final
	// revision still comes back for review.
	require.True(t, rig.registry.SubmitFeedback(context.Background(), id, false, "fix it"))
	pending := rig.registry.PendingReviews()
	require.Len(t, pending, 1)

	// Rejecting the final revision keeps the last content and stops.
	require.True(t, rig.registry.SubmitFeedback(context.Background(), pending[0].ID, false, "still bad"))

	assert.Empty(t, rig.registry.PendingReviews())
	assert.Len(t, rig.producer.tasks, 1)
	assert.Equal(t, 0, calls)

	completed := rig.registry.CompletedReviews()
	require.Len(t, completed, 2)
	assert.Equal(t, StatusRejected, completed[1].Status)
}

func TestProducerFailureClosesRevision(t *testing.T) {
	rig := newTestRig(t, 3, true)
	rig.producer.err = errors.New("provider unavailable")

	id := rig.registry.RequestReview(reviewableRequest(), nil)

	require.True(t, rig.registry.SubmitFeedback(context.Background(), id, false, "fix it"))

	// No re-review request; no revision left dangling.
	assert.Empty(t, rig.registry.PendingReviews())
	assert.Empty(t, rig.cycle.ActiveRevisions())
}

// pending and completed never share an id at any point in a mixed
// request/decide sequence.
func TestPendingCompletedDisjointness(t *testing.T) {
	rig := newTestRig(t, 3, true)

	checkDisjoint := func() {
		seen := map[string]bool{}
		for _, req := range rig.registry.PendingReviews() {
			seen[req.ID] = true
		}
		for _, req := range rig.registry.CompletedReviews() {
			assert.False(t, seen[req.ID], "id %s in both pending and completed", req.ID)
		}
	}

	ids := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		ids = append(ids, rig.registry.RequestReview(reviewableRequest(), nil))
		checkDisjoint()
	}

	rig.registry.SubmitFeedback(context.Background(), ids[0], true, "ok")
	checkDisjoint()
	rig.registry.SubmitFeedback(context.Background(), ids[2], false, "redo")
	checkDisjoint()
	rig.registry.SubmitFeedback(context.Background(), ids[1], true, "ok")
	checkDisjoint()
}

func TestReviewByID(t *testing.T) {
	rig := newTestRig(t, 3, true)

	id := rig.registry.RequestReview(reviewableRequest(), nil)

	got, ok := rig.registry.ReviewByID(id)
	require.True(t, ok)
	assert.Equal(t, id, got.ID)

	rig.registry.SubmitFeedback(context.Background(), id, true, "ok")

	// Still findable in the completed log.
	got, ok = rig.registry.ReviewByID(id)
	require.True(t, ok)
	assert.Equal(t, StatusApproved, got.Status)

	_, ok = rig.registry.ReviewByID("nope")
	assert.False(t, ok)
}

func TestNewRegistry_LoadsFromStore(t *testing.T) {
	store := &memRequestStore{
		pending:   []*Request{NewRequest("writer", "prd", "prd document", "draft", nil)},
		completed: []*Request{NewRequest("writer", "requirements", "requirements", "done", nil)},
	}
	limiter := revision.NewLimiter(3, true)
	memory := revision.NewMemory(&memHistoryStore{})
	cycle := revision.NewCycle(memory, limiter, nil)

	registry := NewRegistry(store, cycle, limiter, nil, nil)

	assert.Len(t, registry.PendingReviews(), 1)
	assert.Len(t, registry.CompletedReviews(), 1)
}

func TestNewRegistry_LoadFailureStartsEmpty(t *testing.T) {
	store := &memRequestStore{loadErr: errors.New("corrupt")}
	limiter := revision.NewLimiter(3, true)
	cycle := revision.NewCycle(revision.NewMemory(&memHistoryStore{}), limiter, nil)

	registry := NewRegistry(store, cycle, limiter, nil, nil)

	assert.Empty(t, registry.PendingReviews())
	assert.Empty(t, registry.CompletedReviews())
}
