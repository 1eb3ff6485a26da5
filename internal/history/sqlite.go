package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flemzord/wrench/internal/agent"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const (
	schemaVersion      = 1
	defaultBusyTimeout = 5000 // milliseconds
)

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS entries (
		session_id   TEXT    NOT NULL,
		seq          INTEGER NOT NULL,
		kind         TEXT    NOT NULL,
		tool_call_id TEXT    NOT NULL DEFAULT '',
		tool_name    TEXT    NOT NULL DEFAULT '',
		content      TEXT    NOT NULL DEFAULT '',
		success      INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
		PRIMARY KEY (session_id, seq)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_entries_session ON entries(session_id, seq)`,
}

// SQLite is a history store backed by a SQLite database. One store
// serves one session; the database file may hold many.
type SQLite struct {
	db        *sql.DB
	sessionID string
}

// OpenSQLite opens (or creates) a SQLite history database at path.
//
// The database is opened with WAL mode, a 5 s busy timeout, and a
// single connection (SQLite serialises writes). The schema is migrated
// automatically. The caller must Close the returned store.
func OpenSQLite(path, sessionID string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("history: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: enable WAL: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: set busy_timeout: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db, sessionID: sessionID}, nil
}

// migrate creates or updates the database schema to the latest version.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("history: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("history: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("history: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("history: record schema version: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }

// AppendToolResults implements agent.History. The whole batch is
// written in one transaction so a crash never records half a batch.
func (s *SQLite) AppendToolResults(ctx context.Context, results []agent.Result) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range results {
		success := 0
		if r.Success {
			success = 1
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entries (session_id, seq, kind, tool_call_id, tool_name, content, success)
			VALUES (?, COALESCE((SELECT MAX(seq) FROM entries WHERE session_id = ?), 0) + 1,
			        ?, ?, ?, ?, ?)`,
			s.sessionID, s.sessionID,
			string(KindToolResult), r.ToolCallID, r.ToolName, r.Detailed, success,
		); err != nil {
			return fmt.Errorf("history: append result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}
	return nil
}

// AppendSystemMessage implements agent.History.
func (s *SQLite) AppendSystemMessage(ctx context.Context, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (session_id, seq, kind, content, success)
		VALUES (?, COALESCE((SELECT MAX(seq) FROM entries WHERE session_id = ?), 0) + 1, ?, ?, 1)`,
		s.sessionID, s.sessionID, string(KindSystem), text,
	)
	if err != nil {
		return fmt.Errorf("history: append system message: %w", err)
	}
	return nil
}

// Entries returns all entries for the store's session in order.
func (s *SQLite) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, tool_call_id, tool_name, content, success, created_at
		FROM entries
		WHERE session_id = ?
		ORDER BY seq`,
		s.sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			kind      string
			success   int
			createdAt string
		)
		if err := rows.Scan(&e.Seq, &kind, &e.ToolCallID, &e.ToolName, &e.Content, &success, &createdAt); err != nil {
			return nil, fmt.Errorf("history: scan entry: %w", err)
		}
		e.SessionID = s.sessionID
		e.Kind = Kind(kind)
		e.Success = success != 0
		if t, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate entries: %w", err)
	}
	return entries, nil
}
