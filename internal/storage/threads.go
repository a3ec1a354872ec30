// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides thread persistence for ragline.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/ragline/internal/session"
	"github.com/jeranaias/ragline/internal/sources"
	"github.com/jeranaias/ragline/internal/timeline"
	"github.com/jeranaias/ragline/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

// StoreError represents a storage-related error.
// It implements the error interface and can be compared using errors.Is.
type StoreError struct {
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// ErrThreadNotFound is returned when a thread doesn't exist.
// Use errors.Is(err, ErrThreadNotFound) to check for this error.
var ErrThreadNotFound = &StoreError{Message: "thread not found"}

// =============================================================================
// THREAD METADATA
// =============================================================================

// Thread contains metadata for listing conversation threads.
type Thread struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	InteractionCount int       `json:"interaction_count"`
	Preview          string    `json:"preview"` // First user query, truncated
}

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS threads (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS interactions (
	id                 TEXT PRIMARY KEY,
	thread_id          TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
	user_query         TEXT NOT NULL,
	assistant_response TEXT NOT NULL,
	tasks_json         TEXT NOT NULL,
	sources_json       TEXT NOT NULL,
	agents_json        TEXT NOT NULL,
	message_id         TEXT NOT NULL DEFAULT '',
	created_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_interactions_thread
	ON interactions(thread_id, created_at);
`

// =============================================================================
// INTERACTION STORE
// =============================================================================

// InteractionStore persists completed turns in a local SQLite database.
// It implements session.Persister.
type InteractionStore struct {
	db *sql.DB
}

// DefaultDatabasePath returns the default database location,
// ~/.ragline/threads.db.
func DefaultDatabasePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".ragline", "threads.db"), nil
}

// Open opens (creating if needed) the thread database at path.
func Open(path string) (*InteractionStore, error) {
	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for SQLite
	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON", // Enable foreign key constraints
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &InteractionStore{db: db}, nil
}

// Close closes the underlying database.
func (s *InteractionStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// SaveInteraction persists one completed turn, creating its thread row on
// first use. The thread title derives from the thread's first user query.
func (s *InteractionStore) SaveInteraction(ctx context.Context, in *session.Interaction) error {
	tasksJSON, err := json.Marshal(in.Tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal tasks: %w", err)
	}
	sourcesJSON, err := json.Marshal(in.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}
	agentsJSON, err := json.Marshal(in.Agents)
	if err != nil {
		return fmt.Errorf("failed to marshal agents: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := in.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO threads (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		in.ThreadID, deriveTitle(in.UserQuery),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to upsert thread: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO interactions
			(id, thread_id, user_query, assistant_response,
			 tasks_json, sources_json, agents_json, message_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.ThreadID, in.UserQuery, in.AssistantResponse,
		string(tasksJSON), string(sourcesJSON), string(agentsJSON),
		in.MessageID, now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}

	return tx.Commit()
}

// deriveTitle builds a thread title from its first user query.
func deriveTitle(query string) string {
	title := strings.ReplaceAll(query, "\n", " ")
	title = strings.ReplaceAll(title, "\r", "")
	title = strings.TrimSpace(title)
	if title == "" {
		return "New thread"
	}
	return util.TruncateRunes(title, 50)
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// ListThreads returns all threads, most recently updated first.
func (s *InteractionStore) ListThreads(ctx context.Context) ([]Thread, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.title, t.created_at, t.updated_at,
		       COUNT(i.id),
		       COALESCE((SELECT user_query FROM interactions
		                 WHERE thread_id = t.id ORDER BY created_at LIMIT 1), '')
		FROM threads t
		LEFT JOIN interactions i ON i.thread_id = t.id
		GROUP BY t.id
		ORDER BY t.updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []Thread
	for rows.Next() {
		var t Thread
		var created, updated, preview string
		if err := rows.Scan(&t.ID, &t.Title, &created, &updated, &t.InteractionCount, &preview); err != nil {
			return nil, err
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		t.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		t.Preview = util.TruncateRunes(preview, 80)
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// SearchThreads finds threads whose title, queries or answers contain the
// query string (case-insensitive).
func (s *InteractionStore) SearchThreads(ctx context.Context, query string) ([]Thread, error) {
	if query == "" {
		return s.ListThreads(ctx)
	}

	all, err := s.ListThreads(ctx)
	if err != nil {
		return nil, err
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var results []Thread
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.Title), strings.ToLower(query)) {
			results = append(results, t)
			continue
		}

		var n int
		err := s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM interactions
			WHERE thread_id = ?
			  AND (LOWER(user_query) LIKE ? OR LOWER(assistant_response) LIKE ?)`,
			t.ID, pattern, pattern).Scan(&n)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			results = append(results, t)
		}
	}
	return results, nil
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// LoadThread returns all interactions of a thread in chronological order.
func (s *InteractionStore) LoadThread(ctx context.Context, threadID string) ([]session.Interaction, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM threads WHERE id = ?", threadID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrThreadNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread_id, user_query, assistant_response,
		       tasks_json, sources_json, agents_json, message_id, created_at
		FROM interactions
		WHERE thread_id = ?
		ORDER BY created_at`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interactions []session.Interaction
	for rows.Next() {
		var in session.Interaction
		var tasksJSON, sourcesJSON, agentsJSON, created string
		if err := rows.Scan(&in.ID, &in.ThreadID, &in.UserQuery, &in.AssistantResponse,
			&tasksJSON, &sourcesJSON, &agentsJSON, &in.MessageID, &created); err != nil {
			return nil, err
		}

		// Corrupted JSON columns degrade to empty fields rather than
		// failing the whole load.
		var tl timeline.Timeline
		if err := json.Unmarshal([]byte(tasksJSON), &tl); err == nil {
			in.Tasks = tl
		}
		var srcs []sources.Source
		if err := json.Unmarshal([]byte(sourcesJSON), &srcs); err == nil {
			in.Sources = srcs
		}
		var agents []string
		if err := json.Unmarshal([]byte(agentsJSON), &agents); err == nil {
			in.Agents = agents
		}
		in.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)

		interactions = append(interactions, in)
	}
	return interactions, rows.Err()
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// DeleteThread removes a thread and all its interactions.
func (s *InteractionStore) DeleteThread(ctx context.Context, threadID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM threads WHERE id = ?", threadID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrThreadNotFound
	}
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders a thread as a Markdown document.
func (s *InteractionStore) ExportMarkdown(ctx context.Context, threadID string) (string, error) {
	interactions, err := s.LoadThread(ctx, threadID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("# Thread " + threadID + "\n\n")
	if len(interactions) > 0 {
		sb.WriteString("Created: " + interactions[0].CreatedAt.Format(time.RFC3339) + "\n\n")
	}
	sb.WriteString("---\n\n")

	for _, in := range interactions {
		sb.WriteString("**User** (" + in.CreatedAt.Format("15:04") + "):\n\n")
		sb.WriteString(in.UserQuery)
		sb.WriteString("\n\n**Assistant**:\n\n")
		sb.WriteString(in.AssistantResponse)
		if len(in.Sources) > 0 {
			sb.WriteString("\n\nSources:\n")
			for _, src := range in.Sources {
				sb.WriteString(fmt.Sprintf("\n%d. %s", src.Ref, src.DisplayName()))
				if src.URL != "" {
					sb.WriteString(" <" + src.URL + ">")
				}
			}
		}
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String(), nil
}

// ExportJSON renders a thread as pretty-printed JSON.
func (s *InteractionStore) ExportJSON(ctx context.Context, threadID string) ([]byte, error) {
	interactions, err := s.LoadThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(interactions, "", "  ")
}

// =============================================================================
// ATOMIC FILE EXPORT
// =============================================================================

// ExportToFile writes a thread export to disk. Format is "markdown" or
// "json"; anything else is an error.
func (s *InteractionStore) ExportToFile(ctx context.Context, threadID, format, path string) error {
	var data []byte
	switch format {
	case "markdown", "md":
		md, err := s.ExportMarkdown(ctx, threadID)
		if err != nil {
			return err
		}
		data = []byte(md)
	case "json":
		out, err := s.ExportJSON(ctx, threadID)
		if err != nil {
			return err
		}
		data = out
	default:
		return errors.New("unknown export format: " + format)
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	return util.AtomicWriteFile(path, data, 0644)
}
