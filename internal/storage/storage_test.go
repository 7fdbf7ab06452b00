package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagegate/stagegate/internal/review"
	"github.com/stagegate/stagegate/internal/revision"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()

	file, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	stores := map[string]Store{"json": file, "sqlite": sqlite}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func sampleRequest(id string) *review.Request {
	completedAt := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	return &review.Request{
		ID:           id,
		Producer:     "architect",
		Stage:        "architecture",
		ArtifactType: "architecture document",
		Content:      "the architecture doc",
		Context: map[string]string{
			review.CtxTaskDescription: "Design the system",
		},
		Status:      review.StatusApproved,
		Feedback:    "looks good",
		CreatedAt:   time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		CompletedAt: &completedAt,
	}
}

func TestRequestRoundTrip(t *testing.T) {
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			pending := []*review.Request{
				{ID: "p1", Producer: "writer", Stage: "prd", ArtifactType: "prd document",
					Content: "draft", Status: review.StatusPending,
					CreatedAt: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)},
				{ID: "p2", Producer: "writer", Stage: "requirements", ArtifactType: "requirements",
					Content: "reqs", Status: review.StatusPending,
					CreatedAt: time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC)},
			}
			completed := []*review.Request{sampleRequest("c1")}

			require.NoError(t, store.SavePending(pending))
			require.NoError(t, store.SaveCompleted(completed))

			gotPending, gotCompleted, err := store.LoadRequests()
			require.NoError(t, err)

			require.Len(t, gotPending, 2)
			assert.Equal(t, "p1", gotPending[0].ID)
			assert.Equal(t, "p2", gotPending[1].ID)
			assert.Equal(t, review.StatusPending, gotPending[0].Status)
			assert.Nil(t, gotPending[0].CompletedAt)

			require.Len(t, gotCompleted, 1)
			got := gotCompleted[0]
			assert.Equal(t, "c1", got.ID)
			assert.Equal(t, review.StatusApproved, got.Status)
			assert.Equal(t, "looks good", got.Feedback)
			assert.Equal(t, "Design the system", got.Context[review.CtxTaskDescription])
			require.NotNil(t, got.CompletedAt)
			assert.True(t, got.CompletedAt.Equal(time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)))
		})
	}
}

func TestSaveReplacesSnapshot(t *testing.T) {
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.SavePending([]*review.Request{
				{ID: "a", Producer: "p", Stage: "s", Content: "x", Status: review.StatusPending, CreatedAt: time.Now()},
				{ID: "b", Producer: "p", Stage: "s", Content: "y", Status: review.StatusPending, CreatedAt: time.Now()},
			}))
			require.NoError(t, store.SavePending([]*review.Request{
				{ID: "b", Producer: "p", Stage: "s", Content: "y", Status: review.StatusPending, CreatedAt: time.Now()},
			}))

			pending, _, err := store.LoadRequests()
			require.NoError(t, err)
			require.Len(t, pending, 1)
			assert.Equal(t, "b", pending[0].ID)
		})
	}
}

func TestLoadEmpty(t *testing.T) {
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			pending, completed, err := store.LoadRequests()
			require.NoError(t, err)
			assert.Empty(t, pending)
			assert.Empty(t, completed)

			histories, err := store.LoadHistories()
			require.NoError(t, err)
			assert.Empty(t, histories)
		})
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			histories := map[string]*revision.History{
				"architect_architecture": {
					Producer:     "architect",
					Stage:        "architecture",
					ArtifactType: "architecture document",
					Revisions: []revision.Record{
						{Version: 1, Content: "v1", Feedback: "add caching", Status: revision.StatusCompleted,
							Timestamp: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)},
						{Version: 2, Content: "v2", Feedback: "", Status: revision.StatusApproved,
							Timestamp: time.Date(2025, 3, 14, 11, 0, 0, 0, time.UTC)},
					},
				},
				"writer_prd": {
					Producer:     "writer",
					Stage:        "prd",
					ArtifactType: "prd document",
				},
			}

			require.NoError(t, store.SaveHistories(histories))

			got, err := store.LoadHistories()
			require.NoError(t, err)
			require.Len(t, got, 2)

			arch := got["architect_architecture"]
			require.NotNil(t, arch)
			require.Len(t, arch.Revisions, 2)
			assert.Equal(t, 1, arch.Revisions[0].Version)
			assert.Equal(t, "add caching", arch.Revisions[0].Feedback)
			assert.Equal(t, 2, arch.Revisions[1].Version)
			assert.Equal(t, revision.StatusApproved, arch.Revisions[1].Status)

			prd := got["writer_prd"]
			require.NotNil(t, prd)
			assert.Empty(t, prd.Revisions)
		})
	}
}

func TestFileStoreCorruptFileFailsLoad(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, pendingFile), []byte("{not json"), 0o644))

	_, _, err = store.LoadRequests()
	assert.Error(t, err)
}

func TestFileStoreNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.SavePending([]*review.Request{sampleRequest("x")}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestOpenFactory(t *testing.T) {
	s, err := Open(BackendJSON, t.TempDir())
	require.NoError(t, err)
	_, ok := s.(*FileStore)
	assert.True(t, ok)
	s.Close()

	s, err = Open(BackendSQLite, filepath.Join(t.TempDir(), "nested"))
	require.NoError(t, err)
	_, ok = s.(*SQLiteStore)
	assert.True(t, ok)
	s.Close()

	_, err = Open("bolt", t.TempDir())
	assert.Error(t, err)
}
