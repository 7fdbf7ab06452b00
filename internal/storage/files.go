package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stagegate/stagegate/internal/review"
	"github.com/stagegate/stagegate/internal/revision"
)

const (
	pendingFile   = "pending_reviews.json"
	completedFile = "completed_reviews.json"
	historyFile   = "revision_history.json"
)

// FileStore persists reviews and revision histories as JSON files in a
// single directory. Writes go through a temp file and rename so a crash
// mid-write never leaves a truncated file behind.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if missing and returns a store
// rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// LoadRequests reads the pending and completed collections. Missing files
// yield empty collections.
func (s *FileStore) LoadRequests() ([]*review.Request, []*review.Request, error) {
	var pending, completed []*review.Request

	if err := s.readJSON(pendingFile, &pending); err != nil {
		return nil, nil, fmt.Errorf("failed to load pending reviews: %w", err)
	}
	if err := s.readJSON(completedFile, &completed); err != nil {
		return nil, nil, fmt.Errorf("failed to load completed reviews: %w", err)
	}
	return pending, completed, nil
}

// SavePending writes the full pending collection.
func (s *FileStore) SavePending(pending []*review.Request) error {
	if pending == nil {
		pending = []*review.Request{}
	}
	return s.writeJSON(pendingFile, pending)
}

// SaveCompleted writes the full completed log.
func (s *FileStore) SaveCompleted(completed []*review.Request) error {
	if completed == nil {
		completed = []*review.Request{}
	}
	return s.writeJSON(completedFile, completed)
}

// LoadHistories reads the revision-history table. A missing file yields
// an empty table.
func (s *FileStore) LoadHistories() (map[string]*revision.History, error) {
	histories := make(map[string]*revision.History)
	if err := s.readJSON(historyFile, &histories); err != nil {
		return nil, fmt.Errorf("failed to load revision histories: %w", err)
	}
	return histories, nil
}

// SaveHistories writes the full revision-history table.
func (s *FileStore) SaveHistories(histories map[string]*revision.History) error {
	if histories == nil {
		histories = map[string]*revision.History{}
	}
	return s.writeJSON(historyFile, histories)
}

// Close is a no-op; the file store holds no open handles.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) readJSON(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
