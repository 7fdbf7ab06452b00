package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/stagegate/stagegate/internal/review"
	"github.com/stagegate/stagegate/internal/revision"
)

// SQLiteStore persists reviews and revision histories in a single SQLite
// database. Save operations replace the stored snapshot in one
// transaction, matching the whole-collection semantics of the store
// interfaces.
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLite creates or opens a SQLite database at the given path.
// It enables WAL mode, foreign keys, and runs migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
-- Reviews table: pending and completed review requests.
-- bucket is 'pending' or 'completed'; position preserves insertion order.
CREATE TABLE IF NOT EXISTS reviews (
    id              TEXT PRIMARY KEY,
    bucket          TEXT NOT NULL,
    position        INTEGER NOT NULL,
    producer        TEXT NOT NULL,
    stage           TEXT NOT NULL,
    artifact_type   TEXT NOT NULL,
    content         TEXT NOT NULL,
    context_json    TEXT,
    status          TEXT NOT NULL,
    feedback        TEXT,
    created_at      DATETIME NOT NULL,
    completed_at    DATETIME
);

-- Revision histories: one row per (producer, stage) key.
CREATE TABLE IF NOT EXISTS revision_histories (
    key             TEXT PRIMARY KEY,
    producer        TEXT NOT NULL,
    stage           TEXT NOT NULL,
    artifact_type   TEXT NOT NULL
);

-- Revisions: ordered attempts within a history.
CREATE TABLE IF NOT EXISTS revisions (
    history_key     TEXT NOT NULL REFERENCES revision_histories(key) ON DELETE CASCADE,
    version         INTEGER NOT NULL,
    content         TEXT NOT NULL,
    feedback        TEXT,
    status          TEXT NOT NULL,
    timestamp       DATETIME NOT NULL,
    UNIQUE(history_key, version)
);

CREATE INDEX IF NOT EXISTS idx_reviews_bucket ON reviews(bucket, position);
CREATE INDEX IF NOT EXISTS idx_revisions_history ON revisions(history_key, version);
`

	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// LoadRequests reads both buckets in insertion order.
func (s *SQLiteStore) LoadRequests() ([]*review.Request, []*review.Request, error) {
	pending, err := s.loadBucket("pending")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load pending reviews: %w", err)
	}
	completed, err := s.loadBucket("completed")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load completed reviews: %w", err)
	}
	return pending, completed, nil
}

// SavePending replaces the pending bucket with the given collection.
func (s *SQLiteStore) SavePending(pending []*review.Request) error {
	return s.saveBucket("pending", pending)
}

// SaveCompleted replaces the completed bucket with the given collection.
func (s *SQLiteStore) SaveCompleted(completed []*review.Request) error {
	return s.saveBucket("completed", completed)
}

func (s *SQLiteStore) loadBucket(bucket string) ([]*review.Request, error) {
	query := `
		SELECT id, producer, stage, artifact_type, content, context_json,
		       status, feedback, created_at, completed_at
		FROM reviews
		WHERE bucket = ?
		ORDER BY position
	`

	rows, err := s.conn.Query(query, bucket)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*review.Request
	for rows.Next() {
		req := &review.Request{}
		var contextJSON sql.NullString
		var feedback sql.NullString
		var completedAt sql.NullTime

		err := rows.Scan(
			&req.ID,
			&req.Producer,
			&req.Stage,
			&req.ArtifactType,
			&req.Content,
			&contextJSON,
			&req.Status,
			&feedback,
			&req.CreatedAt,
			&completedAt,
		)
		if err != nil {
			return nil, err
		}

		if contextJSON.Valid && contextJSON.String != "" {
			if err := json.Unmarshal([]byte(contextJSON.String), &req.Context); err != nil {
				return nil, fmt.Errorf("failed to parse context for review %s: %w", req.ID, err)
			}
		}
		req.Feedback = feedback.String
		if completedAt.Valid {
			t := completedAt.Time
			req.CompletedAt = &t
		}

		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) saveBucket(bucket string, requests []*review.Request) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM reviews WHERE bucket = ?", bucket); err != nil {
		return fmt.Errorf("failed to clear %s reviews: %w", bucket, err)
	}

	insert := `
		INSERT INTO reviews (
			id, bucket, position, producer, stage, artifact_type,
			content, context_json, status, feedback, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i, req := range requests {
		var contextJSON interface{}
		if len(req.Context) > 0 {
			data, err := json.Marshal(req.Context)
			if err != nil {
				return fmt.Errorf("failed to encode context for review %s: %w", req.ID, err)
			}
			contextJSON = string(data)
		}

		_, err := tx.Exec(
			insert,
			req.ID,
			bucket,
			i,
			req.Producer,
			req.Stage,
			req.ArtifactType,
			req.Content,
			contextJSON,
			req.Status,
			req.Feedback,
			req.CreatedAt,
			req.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert review %s: %w", req.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s reviews: %w", bucket, err)
	}
	return nil
}

// LoadHistories reads the full revision-history table.
func (s *SQLiteStore) LoadHistories() (map[string]*revision.History, error) {
	histories := make(map[string]*revision.History)

	rows, err := s.conn.Query("SELECT key, producer, stage, artifact_type FROM revision_histories")
	if err != nil {
		return nil, fmt.Errorf("failed to load revision histories: %w", err)
	}
	for rows.Next() {
		var key string
		h := &revision.History{}
		if err := rows.Scan(&key, &h.Producer, &h.Stage, &h.ArtifactType); err != nil {
			rows.Close()
			return nil, err
		}
		histories[key] = h
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	revRows, err := s.conn.Query(`
		SELECT history_key, version, content, feedback, status, timestamp
		FROM revisions
		ORDER BY history_key, version
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load revisions: %w", err)
	}
	defer revRows.Close()

	for revRows.Next() {
		var key string
		var rec revision.Record
		var feedback sql.NullString
		if err := revRows.Scan(&key, &rec.Version, &rec.Content, &feedback, &rec.Status, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.Feedback = feedback.String

		history, ok := histories[key]
		if !ok {
			continue
		}
		history.Revisions = append(history.Revisions, rec)
	}
	return histories, revRows.Err()
}

// SaveHistories replaces the stored revision-history table.
func (s *SQLiteStore) SaveHistories(histories map[string]*revision.History) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM revision_histories"); err != nil {
		return fmt.Errorf("failed to clear revision histories: %w", err)
	}

	for key, history := range histories {
		_, err := tx.Exec(
			"INSERT INTO revision_histories (key, producer, stage, artifact_type) VALUES (?, ?, ?, ?)",
			key, history.Producer, history.Stage, history.ArtifactType,
		)
		if err != nil {
			return fmt.Errorf("failed to insert history %s: %w", key, err)
		}

		for _, rec := range history.Revisions {
			_, err := tx.Exec(
				"INSERT INTO revisions (history_key, version, content, feedback, status, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
				key, rec.Version, rec.Content, rec.Feedback, rec.Status, rec.Timestamp,
			)
			if err != nil {
				return fmt.Errorf("failed to insert revision %s v%d: %w", key, rec.Version, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit revision histories: %w", err)
	}
	return nil
}
