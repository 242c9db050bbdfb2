// Package store persists research sessions and the fetched-page cache in a
// local sqlite database shared by the worker and the CLI.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPageTTL is how long cached pages stay fresh. Research sessions
// often revisit the same sources within minutes; a day is long enough to
// dedupe fetches without serving stale news.
const DefaultPageTTL = 24 * time.Hour

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Session is one research session row.
type Session struct {
	ID         string
	Question   string
	Mode       string
	Status     string
	ReportPath string
	Tokens     int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store wraps the sqlite database.
type Store struct {
	db      *sql.DB
	pageTTL time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	question    TEXT NOT NULL,
	mode        TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT '',
	report_path TEXT NOT NULL DEFAULT '',
	tokens      INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS pages (
	url        TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	fetched_at TIMESTAMP NOT NULL
);
`

// Open opens (creating if necessary) the database at path. Use ":memory:"
// for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite allows one writer; serialize access through a single conn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, pageTTL: DefaultPageTTL}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertSession inserts or updates a session row. CreatedAt is preserved on
// update; UpdatedAt is always refreshed.
func (s *Store) UpsertSession(ctx context.Context, sess Session) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, question, mode, status, report_path, tokens, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			question    = excluded.question,
			mode        = excluded.mode,
			status      = excluded.status,
			report_path = excluded.report_path,
			tokens      = excluded.tokens,
			updated_at  = excluded.updated_at`,
		sess.ID, sess.Question, sess.Mode, sess.Status, sess.ReportPath, sess.Tokens, now, now)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// GetSession fetches one session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, question, mode, status, report_path, tokens, created_at, updated_at
		FROM sessions WHERE id = ?`, id)
	var sess Session
	err := row.Scan(&sess.ID, &sess.Question, &sess.Mode, &sess.Status,
		&sess.ReportPath, &sess.Tokens, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// ListSessions returns the most recently updated sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question, mode, status, report_path, tokens, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Question, &sess.Mode, &sess.Status,
			&sess.ReportPath, &sess.Tokens, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// GetPage returns a cached page if present and fresh.
func (s *Store) GetPage(ctx context.Context, url string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT content, fetched_at FROM pages WHERE url = ?`, url)
	var content string
	var fetchedAt time.Time
	err := row.Scan(&content, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get page: %w", err)
	}
	if time.Since(fetchedAt) > s.pageTTL {
		return "", false, nil
	}
	return content, true, nil
}

// PutPage stores or refreshes a cached page.
func (s *Store) PutPage(ctx context.Context, url, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (url, content, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			content    = excluded.content,
			fetched_at = excluded.fetched_at`,
		url, content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put page: %w", err)
	}
	return nil
}
