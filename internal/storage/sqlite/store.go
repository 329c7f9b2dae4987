// Package sqlite is the SQLite-backed TranscriptStore for single-instance
// deployments that want transcripts to outlive the process.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/serenemind/sessiond/internal/storage"
)

// Store is a SQLite implementation of TranscriptStore.
type Store struct {
	db *sql.DB
}

var _ storage.TranscriptStore = (*Store)(nil)

// New opens (or creates) the database at path and initializes the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			metadata TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			risk_level TEXT,
			severity_rating INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_risk ON turns(risk_level)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, rec *storage.SessionRecord) error {
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt

	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, metadata, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		rec.ID, string(metadata), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *Store) AppendTurn(ctx context.Context, sessionID string, turn *storage.TurnRecord) error {
	turn.CreatedAt = time.Now()

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`, turn.CreatedAt, sessionID)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %s not found", sessionID)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO turns (id, session_id, role, content, risk_level, severity_rating, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, sessionID, turn.Role, turn.Content, turn.RiskLevel, turn.SeverityRating, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*storage.SessionRecord, error) {
	var rec storage.SessionRecord
	var metadata string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, metadata, created_at, updated_at FROM sessions WHERE id = ?`, id).
		Scan(&rec.ID, &metadata, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, risk_level, severity_rating, created_at
		 FROM turns WHERE session_id = ? ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var turn storage.TurnRecord
		var risk sql.NullString
		if err := rows.Scan(&turn.ID, &turn.Role, &turn.Content, &risk, &turn.SeverityRating, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.RiskLevel = risk.String
		rec.Turns = append(rec.Turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}

	return &rec, nil
}

func (s *Store) ListSessions(ctx context.Context, opts storage.ListOptions) ([]*storage.SessionRecord, error) {
	query := `SELECT id, metadata, created_at, updated_at FROM sessions ORDER BY created_at`
	args := []any{}
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var result []*storage.SessionRecord
	for rows.Next() {
		var rec storage.SessionRecord
		var metadata string
		if err := rows.Scan(&rec.ID, &metadata, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return result, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
