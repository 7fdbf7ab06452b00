// Package storage provides the persistence backends for review requests
// and revision histories: a JSON file store and a SQLite store. Both
// implement review.RequestStore and revision.HistoryStore.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stagegate/stagegate/internal/review"
	"github.com/stagegate/stagegate/internal/revision"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Store is the combined persistence surface the engine runs on.
type Store interface {
	review.RequestStore
	revision.HistoryStore
	Close() error
}

// Open creates the store for the given backend, rooted at dir. The
// directory is created if missing.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case BackendJSON, "":
		return NewFileStore(dir)
	case BackendSQLite:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
		return OpenSQLite(filepath.Join(dir, "stagegate.db"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
