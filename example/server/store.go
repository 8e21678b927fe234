package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/clinsight/go-facesense/session"
)

// summaryStore persists final session summaries to SQLite so reports
// outlive the in memory session registry
type summaryStore struct {
	conn *sql.DB
}

func newSummaryStore(path string) (*summaryStore, error) {

	conn, err := sql.Open("sqlite3", path)

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &summaryStore{conn: conn}

	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

func (s *summaryStore) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS session_summaries (
		session_id TEXT PRIMARY KEY,
		stopped_at DATETIME NOT NULL,
		summary TEXT NOT NULL
	)`

	_, err := s.conn.Exec(query)

	return err
}

// Save upserts the summary for a session
func (s *summaryStore) Save(id string, sum *session.Summary) error {

	data, err := json.Marshal(sum)

	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	_, err = s.conn.Exec(`
		INSERT INTO session_summaries (session_id, stopped_at, summary)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			stopped_at = excluded.stopped_at,
			summary = excluded.summary`,
		id, time.Now().UTC(), string(data))

	return err
}

// Get loads a persisted summary, nil when the session is unknown
func (s *summaryStore) Get(id string) (*session.Summary, error) {

	var data string

	err := s.conn.QueryRow(
		`SELECT summary FROM session_summaries WHERE session_id = ?`, id).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	var sum session.Summary

	if err := json.Unmarshal([]byte(data), &sum); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}

	return &sum, nil
}

func (s *summaryStore) Close() error {
	return s.conn.Close()
}
